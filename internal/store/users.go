package store

import (
	"context"
	"database/sql"
	"fmt"

	"equipment-service/internal/models"
)

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers retrieves users with optional search and role filter
func (s *Store) ListUsers(ctx context.Context, search, role string, limit int) ([]models.User, error) {
	query := `
		SELECT id, first_name, last_name, email, '' AS password, role, department, status, created_at
		FROM users WHERE 1=1`
	args := []interface{}{}

	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR department ILIKE $%d)",
			len(args), len(args), len(args), len(args))
	}
	if role != "" && role != "all" {
		args = append(args, role)
		query += fmt.Sprintf(" AND role = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var users []models.User
	err := s.db.SelectContext(ctx, &users, query, args...)
	return users, err
}

// CreateUser inserts a new user account
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password, role, department, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'active')
		RETURNING id, status, created_at`

	return s.db.GetContext(ctx, user, query,
		user.FirstName, user.LastName, user.Email, user.Password, user.Role, user.Department)
}

// EmailExists reports whether an email is already registered
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", email)
	return exists, err
}
