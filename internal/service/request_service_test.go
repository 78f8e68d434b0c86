package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"equipment-service/internal/apperr"
	"equipment-service/internal/models"
	"equipment-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRequestStore struct {
	getItemByID         func(ctx context.Context, id int64) (*models.InventoryItem, error)
	createRequest       func(ctx context.Context, req *models.Request) error
	getRequestByID      func(ctx context.Context, id int64) (*models.Request, error)
	listActiveRequests  func(ctx context.Context, userID int64, search string, limit int) ([]models.RequestWithDetails, error)
	updateRequestStatus func(ctx context.Context, requestID int64, from, to string) error
	cancelRequestTx     func(ctx context.Context, requestID int64) (int64, error)
	approveRequestTx    func(ctx context.Context, requestID int64, code string, expiresAt time.Time, createdBy int64) (*models.Request, *models.AuthorizationCode, error)
}

func (m *mockRequestStore) GetItemByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	return m.getItemByID(ctx, id)
}
func (m *mockRequestStore) CreateRequest(ctx context.Context, req *models.Request) error {
	return m.createRequest(ctx, req)
}
func (m *mockRequestStore) GetRequestByID(ctx context.Context, id int64) (*models.Request, error) {
	return m.getRequestByID(ctx, id)
}
func (m *mockRequestStore) ListActiveRequests(ctx context.Context, userID int64, search string, limit int) ([]models.RequestWithDetails, error) {
	return m.listActiveRequests(ctx, userID, search, limit)
}
func (m *mockRequestStore) UpdateRequestStatus(ctx context.Context, requestID int64, from, to string) error {
	return m.updateRequestStatus(ctx, requestID, from, to)
}
func (m *mockRequestStore) CancelRequestTx(ctx context.Context, requestID int64) (int64, error) {
	return m.cancelRequestTx(ctx, requestID)
}
func (m *mockRequestStore) ApproveRequestTx(ctx context.Context, requestID int64, code string, expiresAt time.Time, createdBy int64) (*models.Request, *models.AuthorizationCode, error) {
	return m.approveRequestTx(ctx, requestID, code, expiresAt, createdBy)
}

type fakeIssuer struct {
	code   string
	expiry time.Duration
}

func (f *fakeIssuer) GenerateUnique(ctx context.Context) (string, error) { return f.code, nil }
func (f *fakeIssuer) Expiry() time.Duration                              { return f.expiry }

func availableItem() *models.InventoryItem {
	return &models.InventoryItem{ID: 3, Name: "Oscilloscope", Quantity: 5, Status: models.ItemStatusAvailable}
}

func validRequestInput() CreateRequestInput {
	return CreateRequestInput{
		ItemID:   3,
		Quantity: 2,
		NeededBy: time.Now().AddDate(0, 0, 3).Format("2006-01-02"),
		Notes:    "Needed for the signals lab experiment",
	}
}

func TestCreateRequest(t *testing.T) {
	issuer := &fakeIssuer{code: "AB12CD34", expiry: 48 * time.Hour}

	t.Run("staff cannot submit requests", func(t *testing.T) {
		svc := NewRequestService(&mockRequestStore{}, issuer, &recordingAudit{}, 10)

		_, err := svc.Create(context.Background(), staff, validRequestInput())
		assert.Equal(t, apperr.KindAuthorization, apperr.From(err).Kind)
	})

	t.Run("quantity bounds", func(t *testing.T) {
		svc := NewRequestService(&mockRequestStore{}, issuer, &recordingAudit{}, 10)

		for _, qty := range []int{0, -1, 11} {
			in := validRequestInput()
			in.Quantity = qty
			_, err := svc.Create(context.Background(), student, in)
			assert.Equal(t, apperr.KindValidation, apperr.From(err).Kind, "quantity %d", qty)
		}
	})

	t.Run("notes length bounds", func(t *testing.T) {
		svc := NewRequestService(&mockRequestStore{}, issuer, &recordingAudit{}, 10)

		short := validRequestInput()
		short.Notes = "too short"
		_, err := svc.Create(context.Background(), student, short)
		assert.Equal(t, apperr.KindValidation, apperr.From(err).Kind)

		long := validRequestInput()
		long.Notes = strings.Repeat("x", 501)
		_, err = svc.Create(context.Background(), student, long)
		assert.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
	})

	t.Run("needed by date must parse and not be past", func(t *testing.T) {
		svc := NewRequestService(&mockRequestStore{}, issuer, &recordingAudit{}, 10)

		bad := validRequestInput()
		bad.NeededBy = "03/09/2026"
		_, err := svc.Create(context.Background(), student, bad)
		assert.Equal(t, apperr.KindValidation, apperr.From(err).Kind)

		past := validRequestInput()
		past.NeededBy = time.Now().AddDate(0, 0, -2).Format("2006-01-02")
		_, err = svc.Create(context.Background(), student, past)
		assert.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
	})

	t.Run("unavailable item is a conflict", func(t *testing.T) {
		item := availableItem()
		item.Status = models.ItemStatusMaintenance
		st := &mockRequestStore{
			getItemByID: func(ctx context.Context, id int64) (*models.InventoryItem, error) {
				return item, nil
			},
		}
		svc := NewRequestService(st, issuer, &recordingAudit{}, 10)

		_, err := svc.Create(context.Background(), student, validRequestInput())
		assert.Equal(t, apperr.KindStateConflict, apperr.From(err).Kind)
	})

	t.Run("successful create is pending and audited", func(t *testing.T) {
		st := &mockRequestStore{
			getItemByID: func(ctx context.Context, id int64) (*models.InventoryItem, error) {
				return availableItem(), nil
			},
			createRequest: func(ctx context.Context, req *models.Request) error {
				req.ID = 5
				req.Status = models.RequestStatusPending
				return nil
			},
		}
		audit := &recordingAudit{}
		svc := NewRequestService(st, issuer, audit, 10)

		req, err := svc.Create(context.Background(), student, validRequestInput())
		require.NoError(t, err)
		assert.Equal(t, int64(5), req.ID)
		assert.Equal(t, student.UserID, req.UserID)
		assert.Contains(t, audit.actions(), models.EventTypeRequestCreated)
	})
}

func TestTransition(t *testing.T) {
	issuer := &fakeIssuer{code: "AB12CD34", expiry: 48 * time.Hour}

	t.Run("students cannot approve or reject", func(t *testing.T) {
		svc := NewRequestService(&mockRequestStore{}, issuer, &recordingAudit{}, 10)

		for _, status := range []string{models.RequestStatusApproved, models.RequestStatusRejected} {
			_, err := svc.Transition(context.Background(), student, 5, status)
			assert.Equal(t, apperr.KindAuthorization, apperr.From(err).Kind, status)
		}
	})

	t.Run("unknown status is rejected", func(t *testing.T) {
		svc := NewRequestService(&mockRequestStore{}, issuer, &recordingAudit{}, 10)

		_, err := svc.Transition(context.Background(), staff, 5, "completed")
		assert.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
	})

	t.Run("student cannot cancel another user's request", func(t *testing.T) {
		st := &mockRequestStore{
			getRequestByID: func(ctx context.Context, id int64) (*models.Request, error) {
				return &models.Request{ID: id, UserID: 99, Status: models.RequestStatusPending}, nil
			},
		}
		svc := NewRequestService(st, issuer, &recordingAudit{}, 10)

		_, err := svc.Transition(context.Background(), student, 5, models.RequestStatusCancelled)
		assert.Equal(t, apperr.KindAuthorization, apperr.From(err).Kind)
	})

	t.Run("student cancel races with approval", func(t *testing.T) {
		// the read sees pending but the conditional update loses the race
		st := &mockRequestStore{
			getRequestByID: func(ctx context.Context, id int64) (*models.Request, error) {
				return &models.Request{ID: id, UserID: student.UserID, Status: models.RequestStatusPending}, nil
			},
			updateRequestStatus: func(ctx context.Context, requestID int64, from, to string) error {
				return store.ErrRequestNotPending
			},
		}
		svc := NewRequestService(st, issuer, &recordingAudit{}, 10)

		_, err := svc.Transition(context.Background(), student, 5, models.RequestStatusCancelled)
		assert.Equal(t, apperr.KindStateConflict, apperr.From(err).Kind)
	})

	t.Run("staff cancel of an approved request voids its code", func(t *testing.T) {
		st := &mockRequestStore{
			getRequestByID: func(ctx context.Context, id int64) (*models.Request, error) {
				return &models.Request{ID: id, UserID: 99, Status: models.RequestStatusApproved}, nil
			},
			cancelRequestTx: func(ctx context.Context, requestID int64) (int64, error) { return 11, nil },
		}
		audit := &recordingAudit{}
		svc := NewRequestService(st, issuer, audit, 10)

		result, err := svc.Transition(context.Background(), staff, 5, models.RequestStatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, models.RequestStatusCancelled, result.Request.Status)
		assert.Contains(t, audit.actions(), models.EventTypeRequestCancelled)
		assert.Contains(t, audit.actions(), models.EventTypeCodeCancelled)
		for _, e := range audit.events {
			if e.EventType == models.EventTypeCodeCancelled {
				assert.Equal(t, int64(11), e.EntityID)
			}
		}
	})

	t.Run("staff cancel of a pending request voids no code", func(t *testing.T) {
		st := &mockRequestStore{
			getRequestByID: func(ctx context.Context, id int64) (*models.Request, error) {
				return &models.Request{ID: id, UserID: 99, Status: models.RequestStatusPending}, nil
			},
			cancelRequestTx: func(ctx context.Context, requestID int64) (int64, error) { return 0, nil },
		}
		audit := &recordingAudit{}
		svc := NewRequestService(st, issuer, audit, 10)

		_, err := svc.Transition(context.Background(), staff, 5, models.RequestStatusCancelled)
		require.NoError(t, err)
		assert.NotContains(t, audit.actions(), models.EventTypeCodeCancelled)
	})

	t.Run("reject on non-pending request is a conflict", func(t *testing.T) {
		st := &mockRequestStore{
			updateRequestStatus: func(ctx context.Context, requestID int64, from, to string) error {
				return store.ErrRequestNotPending
			},
		}
		svc := NewRequestService(st, issuer, &recordingAudit{}, 10)

		_, err := svc.Transition(context.Background(), staff, 5, models.RequestStatusRejected)
		assert.Equal(t, apperr.KindStateConflict, apperr.From(err).Kind)
	})

	t.Run("approval mints and returns a code", func(t *testing.T) {
		st := &mockRequestStore{
			approveRequestTx: func(ctx context.Context, requestID int64, code string, expiresAt time.Time, createdBy int64) (*models.Request, *models.AuthorizationCode, error) {
				assert.Equal(t, "AB12CD34", code)
				assert.Equal(t, staff.UserID, createdBy)
				return &models.Request{ID: requestID, Status: models.RequestStatusApproved},
					&models.AuthorizationCode{ID: 11, Code: code, RequestID: requestID, Status: models.CodeStatusActive, ExpiresAt: expiresAt},
					nil
			},
		}
		audit := &recordingAudit{}
		svc := NewRequestService(st, issuer, audit, 10)

		result, err := svc.Transition(context.Background(), staff, 5, models.RequestStatusApproved)
		require.NoError(t, err)
		require.NotNil(t, result.Code)
		assert.Equal(t, "AB12CD34", result.Code.Code)
		assert.Contains(t, audit.actions(), models.EventTypeRequestApproved)
		assert.Contains(t, audit.actions(), models.EventTypeCodeIssued)
	})

	t.Run("double approval is a conflict", func(t *testing.T) {
		st := &mockRequestStore{
			approveRequestTx: func(ctx context.Context, requestID int64, code string, expiresAt time.Time, createdBy int64) (*models.Request, *models.AuthorizationCode, error) {
				return nil, nil, store.ErrCodeAlreadyIssued
			},
		}
		svc := NewRequestService(st, issuer, &recordingAudit{}, 10)

		_, err := svc.Transition(context.Background(), staff, 5, models.RequestStatusApproved)
		assert.Equal(t, apperr.KindStateConflict, apperr.From(err).Kind)
	})

	t.Run("approval with insufficient inventory is a conflict", func(t *testing.T) {
		st := &mockRequestStore{
			approveRequestTx: func(ctx context.Context, requestID int64, code string, expiresAt time.Time, createdBy int64) (*models.Request, *models.AuthorizationCode, error) {
				return nil, nil, store.ErrInsufficientInventory
			},
		}
		svc := NewRequestService(st, issuer, &recordingAudit{}, 10)

		_, err := svc.Transition(context.Background(), staff, 5, models.RequestStatusApproved)
		assert.Equal(t, apperr.KindStateConflict, apperr.From(err).Kind)
	})
}

func TestGetRequest(t *testing.T) {
	st := &mockRequestStore{
		getRequestByID: func(ctx context.Context, id int64) (*models.Request, error) {
			return &models.Request{ID: id, UserID: 99}, nil
		},
	}
	svc := NewRequestService(st, &fakeIssuer{}, &recordingAudit{}, 10)

	_, err := svc.Get(context.Background(), student, 5)
	assert.Equal(t, apperr.KindAuthorization, apperr.From(err).Kind)

	req, err := svc.Get(context.Background(), staff, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(99), req.UserID)
}

func TestListRequests(t *testing.T) {
	t.Run("students are scoped to themselves", func(t *testing.T) {
		st := &mockRequestStore{
			listActiveRequests: func(ctx context.Context, userID int64, search string, limit int) ([]models.RequestWithDetails, error) {
				assert.Equal(t, student.UserID, userID)
				return nil, nil
			},
		}
		svc := NewRequestService(st, &fakeIssuer{}, &recordingAudit{}, 10)
		_, err := svc.List(context.Background(), student, "", 50)
		require.NoError(t, err)
	})

	t.Run("staff see all users", func(t *testing.T) {
		st := &mockRequestStore{
			listActiveRequests: func(ctx context.Context, userID int64, search string, limit int) ([]models.RequestWithDetails, error) {
				assert.Zero(t, userID)
				return nil, nil
			},
		}
		svc := NewRequestService(st, &fakeIssuer{}, &recordingAudit{}, 10)
		_, err := svc.List(context.Background(), staff, "", 50)
		require.NoError(t, err)
	})
}
