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

type mockCodeStore struct {
	getCodeDetails     func(ctx context.Context, code string) (*models.CodeWithDetails, error)
	codeExists         func(ctx context.Context, code string) (bool, error)
	expireCode         func(ctx context.Context, code string) (bool, error)
	expireOverdueCodes func(ctx context.Context) (int64, error)
	listCodes          func(ctx context.Context) ([]models.CodeWithDetails, error)
	listCodesByUser    func(ctx context.Context, userID int64) ([]models.CodeWithDetails, error)
	cancelCode         func(ctx context.Context, code string) (int64, error)
	redeemCodeTx       func(ctx context.Context, code, notes string, now time.Time) (*models.Checkout, error)
}

func (m *mockCodeStore) GetCodeDetails(ctx context.Context, code string) (*models.CodeWithDetails, error) {
	return m.getCodeDetails(ctx, code)
}
func (m *mockCodeStore) CodeExists(ctx context.Context, code string) (bool, error) {
	return m.codeExists(ctx, code)
}
func (m *mockCodeStore) ExpireCode(ctx context.Context, code string) (bool, error) {
	return m.expireCode(ctx, code)
}
func (m *mockCodeStore) ExpireOverdueCodes(ctx context.Context) (int64, error) {
	return m.expireOverdueCodes(ctx)
}
func (m *mockCodeStore) ListCodes(ctx context.Context) ([]models.CodeWithDetails, error) {
	return m.listCodes(ctx)
}
func (m *mockCodeStore) ListCodesByUser(ctx context.Context, userID int64) ([]models.CodeWithDetails, error) {
	return m.listCodesByUser(ctx, userID)
}
func (m *mockCodeStore) CancelCode(ctx context.Context, code string) (int64, error) {
	return m.cancelCode(ctx, code)
}
func (m *mockCodeStore) RedeemCodeTx(ctx context.Context, code, notes string, now time.Time) (*models.Checkout, error) {
	return m.redeemCodeTx(ctx, code, notes, now)
}

var (
	student = models.Actor{UserID: 7, Role: models.RoleStudent}
	staff   = models.Actor{UserID: 2, Role: models.RoleStaff}
	admin   = models.Actor{UserID: 1, Role: models.RoleAdmin}
)

func activeCodeFor(userID int64) *models.CodeWithDetails {
	return &models.CodeWithDetails{
		AuthorizationCode: models.AuthorizationCode{
			ID:        11,
			Code:      "AB12CD34",
			RequestID: 5,
			UserID:    userID,
			ItemID:    3,
			Status:    models.CodeStatusActive,
			ExpiresAt: time.Now().Add(24 * time.Hour),
		},
		RequestQuantity: 2,
	}
}

func TestGenerateUnique(t *testing.T) {
	t.Run("produces codes of the configured length and alphabet", func(t *testing.T) {
		st := &mockCodeStore{
			codeExists: func(ctx context.Context, code string) (bool, error) { return false, nil },
		}
		svc := NewCodeService(st, &recordingAudit{}, 8, 48*time.Hour)

		code, err := svc.GenerateUnique(context.Background())
		require.NoError(t, err)
		assert.Len(t, code, 8)
		for _, c := range code {
			assert.Contains(t, codeAlphabet, string(c))
		}
	})

	t.Run("retries on collision", func(t *testing.T) {
		calls := 0
		st := &mockCodeStore{
			codeExists: func(ctx context.Context, code string) (bool, error) {
				calls++
				return calls == 1, nil
			},
		}
		svc := NewCodeService(st, &recordingAudit{}, 8, 48*time.Hour)

		_, err := svc.GenerateUnique(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})
}

func TestValidate(t *testing.T) {
	t.Run("rejects empty code", func(t *testing.T) {
		svc := NewCodeService(&mockCodeStore{}, &recordingAudit{}, 8, 48*time.Hour)

		_, err := svc.Validate(context.Background(), student, "")
		assert.Equal(t, apperr.KindValidation, apperr.From(err).Kind)
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		st := &mockCodeStore{
			getCodeDetails: func(ctx context.Context, code string) (*models.CodeWithDetails, error) {
				return nil, store.ErrNotFound
			},
		}
		svc := NewCodeService(st, &recordingAudit{}, 8, 48*time.Hour)

		_, err := svc.Validate(context.Background(), student, "NOPE1234")
		assert.Equal(t, apperr.KindNotFound, apperr.From(err).Kind)
	})

	t.Run("terminal statuses report their own message before expiry", func(t *testing.T) {
		// a used code that is also past its expiry must still report "used"
		tests := []struct {
			status  string
			message string
		}{
			{models.CodeStatusUsed, "already been used"},
			{models.CodeStatusCancelled, "been cancelled"},
			{models.CodeStatusExpired, "has expired"},
		}
		for _, tt := range tests {
			t.Run(tt.status, func(t *testing.T) {
				details := activeCodeFor(student.UserID)
				details.Status = tt.status
				details.ExpiresAt = time.Now().Add(-time.Hour)
				st := &mockCodeStore{
					getCodeDetails: func(ctx context.Context, code string) (*models.CodeWithDetails, error) {
						return details, nil
					},
					expireCode: func(ctx context.Context, code string) (bool, error) {
						t.Fatal("ExpireCode must not be called for a terminal status")
						return false, nil
					},
				}
				svc := NewCodeService(st, &recordingAudit{}, 8, 48*time.Hour)

				_, err := svc.Validate(context.Background(), student, details.Code)
				require.Error(t, err)
				assert.Equal(t, apperr.KindStateConflict, apperr.From(err).Kind)
				assert.Contains(t, apperr.From(err).Message, tt.message)
			})
		}
	})

	t.Run("active code past expiry is lazily expired", func(t *testing.T) {
		details := activeCodeFor(student.UserID)
		details.ExpiresAt = time.Now().Add(-time.Minute)
		expired := false
		st := &mockCodeStore{
			getCodeDetails: func(ctx context.Context, code string) (*models.CodeWithDetails, error) {
				return details, nil
			},
			expireCode: func(ctx context.Context, code string) (bool, error) {
				expired = true
				return true, nil
			},
		}
		audit := &recordingAudit{}
		svc := NewCodeService(st, audit, 8, 48*time.Hour)

		_, err := svc.Validate(context.Background(), student, details.Code)
		require.Error(t, err)
		assert.Equal(t, apperr.KindStateConflict, apperr.From(err).Kind)
		assert.True(t, expired)
		assert.Contains(t, audit.actions(), models.EventTypeCodeExpired)
	})

	t.Run("lost expiry race publishes no second audit event", func(t *testing.T) {
		details := activeCodeFor(student.UserID)
		details.ExpiresAt = time.Now().Add(-time.Minute)
		st := &mockCodeStore{
			getCodeDetails: func(ctx context.Context, code string) (*models.CodeWithDetails, error) {
				return details, nil
			},
			expireCode: func(ctx context.Context, code string) (bool, error) {
				// another validator already flipped it
				return false, nil
			},
		}
		audit := &recordingAudit{}
		svc := NewCodeService(st, audit, 8, 48*time.Hour)

		_, err := svc.Validate(context.Background(), student, details.Code)
		require.Error(t, err)
		assert.Empty(t, audit.events)
	})

	t.Run("students may only validate their own codes", func(t *testing.T) {
		st := &mockCodeStore{
			getCodeDetails: func(ctx context.Context, code string) (*models.CodeWithDetails, error) {
				return activeCodeFor(99), nil
			},
		}
		svc := NewCodeService(st, &recordingAudit{}, 8, 48*time.Hour)

		_, err := svc.Validate(context.Background(), student, "AB12CD34")
		assert.Equal(t, apperr.KindAuthorization, apperr.From(err).Kind)
	})

	t.Run("staff may validate any code", func(t *testing.T) {
		st := &mockCodeStore{
			getCodeDetails: func(ctx context.Context, code string) (*models.CodeWithDetails, error) {
				return activeCodeFor(99), nil
			},
		}
		svc := NewCodeService(st, &recordingAudit{}, 8, 48*time.Hour)

		details, err := svc.Validate(context.Background(), staff, "AB12CD34")
		require.NoError(t, err)
		assert.Equal(t, int64(99), details.UserID)
	})
}

func TestRedeem(t *testing.T) {
	t.Run("validation failure aborts redemption", func(t *testing.T) {
		st := &mockCodeStore{
			getCodeDetails: func(ctx context.Context, code string) (*models.CodeWithDetails, error) {
				return nil, store.ErrNotFound
			},
			redeemCodeTx: func(ctx context.Context, code, notes string, now time.Time) (*models.Checkout, error) {
				t.Fatal("RedeemCodeTx must not be called when validation fails")
				return nil, nil
			},
		}
		svc := NewCodeService(st, &recordingAudit{}, 8, 48*time.Hour)

		_, err := svc.Redeem(context.Background(), student, "NOPE1234", "")
		assert.Equal(t, apperr.KindNotFound, apperr.From(err).Kind)
	})

	t.Run("insufficient inventory maps to a conflict", func(t *testing.T) {
		st := &mockCodeStore{
			getCodeDetails: func(ctx context.Context, code string) (*models.CodeWithDetails, error) {
				return activeCodeFor(student.UserID), nil
			},
			redeemCodeTx: func(ctx context.Context, code, notes string, now time.Time) (*models.Checkout, error) {
				return nil, store.ErrInsufficientInventory
			},
		}
		svc := NewCodeService(st, &recordingAudit{}, 8, 48*time.Hour)

		_, err := svc.Redeem(context.Background(), student, "AB12CD34", "")
		require.Error(t, err)
		assert.Equal(t, apperr.KindStateConflict, apperr.From(err).Kind)
		assert.Contains(t, apperr.From(err).Message, "insufficient inventory")
	})

	t.Run("concurrent expiry inside the transaction maps to expired", func(t *testing.T) {
		st := &mockCodeStore{
			getCodeDetails: func(ctx context.Context, code string) (*models.CodeWithDetails, error) {
				return activeCodeFor(student.UserID), nil
			},
			redeemCodeTx: func(ctx context.Context, code, notes string, now time.Time) (*models.Checkout, error) {
				return nil, store.ErrCodeExpired
			},
		}
		svc := NewCodeService(st, &recordingAudit{}, 8, 48*time.Hour)

		_, err := svc.Redeem(context.Background(), student, "AB12CD34", "")
		require.Error(t, err)
		assert.Contains(t, apperr.From(err).Message, "expired")
	})

	t.Run("cancelled request behind an active code maps to a conflict", func(t *testing.T) {
		st := &mockCodeStore{
			getCodeDetails: func(ctx context.Context, code string) (*models.CodeWithDetails, error) {
				return activeCodeFor(student.UserID), nil
			},
			redeemCodeTx: func(ctx context.Context, code, notes string, now time.Time) (*models.Checkout, error) {
				return nil, store.ErrRequestNotPending
			},
		}
		audit := &recordingAudit{}
		svc := NewCodeService(st, audit, 8, 48*time.Hour)

		_, err := svc.Redeem(context.Background(), student, "AB12CD34", "")
		require.Error(t, err)
		assert.Equal(t, apperr.KindStateConflict, apperr.From(err).Kind)
		assert.NotContains(t, audit.actions(), models.EventTypeCodeRedeemed)
	})

	t.Run("successful redemption publishes audit event", func(t *testing.T) {
		st := &mockCodeStore{
			getCodeDetails: func(ctx context.Context, code string) (*models.CodeWithDetails, error) {
				return activeCodeFor(student.UserID), nil
			},
			redeemCodeTx: func(ctx context.Context, code, notes string, now time.Time) (*models.Checkout, error) {
				return &models.Checkout{ID: 42, ItemID: 3, UserID: student.UserID, Quantity: 2}, nil
			},
		}
		audit := &recordingAudit{}
		svc := NewCodeService(st, audit, 8, 48*time.Hour)

		checkout, err := svc.Redeem(context.Background(), student, "AB12CD34", "picked up at desk")
		require.NoError(t, err)
		assert.Equal(t, int64(42), checkout.ID)
		assert.Equal(t, 2, checkout.Quantity)
		assert.Contains(t, audit.actions(), models.EventTypeCodeRedeemed)
	})
}

func TestCancelCode(t *testing.T) {
	t.Run("students cannot cancel codes", func(t *testing.T) {
		svc := NewCodeService(&mockCodeStore{}, &recordingAudit{}, 8, 48*time.Hour)

		err := svc.Cancel(context.Background(), student, "AB12CD34", "")
		assert.Equal(t, apperr.KindAuthorization, apperr.From(err).Kind)
	})

	t.Run("non-active code is a conflict", func(t *testing.T) {
		st := &mockCodeStore{
			cancelCode: func(ctx context.Context, code string) (int64, error) {
				return 0, store.ErrCodeNotActive
			},
		}
		svc := NewCodeService(st, &recordingAudit{}, 8, 48*time.Hour)

		err := svc.Cancel(context.Background(), staff, "AB12CD34", "")
		assert.Equal(t, apperr.KindStateConflict, apperr.From(err).Kind)
	})

	t.Run("uses default reason and audits the cancelled code id", func(t *testing.T) {
		st := &mockCodeStore{
			cancelCode: func(ctx context.Context, code string) (int64, error) { return 11, nil },
		}
		audit := &recordingAudit{}
		svc := NewCodeService(st, audit, 8, 48*time.Hour)

		require.NoError(t, svc.Cancel(context.Background(), admin, "AB12CD34", ""))
		require.Len(t, audit.events, 1)
		assert.True(t, strings.Contains(audit.events[0].Details, "Cancelled by admin"))
		assert.Equal(t, int64(11), audit.events[0].EntityID)
	})
}

func TestListCodes(t *testing.T) {
	t.Run("staff only", func(t *testing.T) {
		svc := NewCodeService(&mockCodeStore{}, &recordingAudit{}, 8, 48*time.Hour)

		_, err := svc.List(context.Background(), student)
		assert.Equal(t, apperr.KindAuthorization, apperr.From(err).Kind)
	})

	t.Run("expires overdue codes before listing", func(t *testing.T) {
		expiredFirst := false
		st := &mockCodeStore{
			expireOverdueCodes: func(ctx context.Context) (int64, error) {
				expiredFirst = true
				return 3, nil
			},
			listCodes: func(ctx context.Context) ([]models.CodeWithDetails, error) {
				require.True(t, expiredFirst, "overdue codes must be expired before listing")
				return []models.CodeWithDetails{*activeCodeFor(7)}, nil
			},
		}
		svc := NewCodeService(st, &recordingAudit{}, 8, 48*time.Hour)

		codes, err := svc.List(context.Background(), staff)
		require.NoError(t, err)
		assert.Len(t, codes, 1)
	})
}
