package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"equipment-service/internal/apperr"
	"equipment-service/internal/models"
	"equipment-service/internal/store"
	"equipment-service/internal/util"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the persistence surface the user service needs
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context, search, role string, limit int) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	EmailExists(ctx context.Context, email string) (bool, error)
}

// UserService manages accounts and login
type UserService struct {
	store  UserStore
	audit  Audit
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(store UserStore, audit Audit) *UserService {
	return &UserService{
		store:  store,
		audit:  audit,
		logger: util.GetLogger(),
	}
}

// Login verifies credentials and returns the account. Only active accounts
// may log in.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password required")
	}

	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load user", err)
	}
	if user.Status != "active" {
		return nil, apperr.Unauthorized("account is not active")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID), zap.String("role", user.Role))
	return user, nil
}

// List searches users; staff/admin only
func (s *UserService) List(ctx context.Context, actor models.Actor, search, role string, limit int) ([]models.User, error) {
	if !actor.IsStaff() {
		return nil, apperr.Unauthorized("insufficient permissions")
	}
	users, err := s.store.ListUsers(ctx, search, role, limit)
	if err != nil {
		return nil, apperr.Persistence("failed to list users", err)
	}
	return users, nil
}

// CreateUserInput carries a new account
type CreateUserInput struct {
	FirstName  string `json:"first_name" binding:"required"`
	LastName   string `json:"last_name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

func validRole(role string) bool {
	switch role {
	case models.RoleStudent, models.RoleStaff, models.RoleAdmin:
		return true
	}
	return false
}

// Create registers a new account; staff/admin only
func (s *UserService) Create(ctx context.Context, actor models.Actor, in CreateUserInput) (*models.User, error) {
	if !actor.IsStaff() {
		return nil, apperr.Unauthorized("insufficient permissions")
	}
	if in.Role == "" {
		in.Role = models.RoleStudent
	}
	if !validRole(in.Role) {
		return nil, apperr.Validation("invalid role")
	}
	if len(in.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return nil, apperr.Persistence("failed to check email", err)
	}
	if exists {
		return nil, apperr.StateConflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Persistence("failed to hash password", err)
	}

	user := &models.User{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      email,
		Password:   string(hash),
		Role:       in.Role,
		Department: in.Department,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, apperr.Persistence("failed to create user", err)
	}

	s.audit.Publish(ctx, actor.UserID, models.EventTypeUserCreated, "users", user.ID,
		fmt.Sprintf("Created %s account for %s", user.Role, user.Email))
	return user, nil
}
