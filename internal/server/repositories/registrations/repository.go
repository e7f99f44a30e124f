package registrations

import (
	"context"

	"github.com/dmitrijs2005/bidmarket/internal/server/models"
)

// Repository keeps signups that wait for their verification code. There is
// at most one pending registration per email; Upsert replaces it.
type Repository interface {
	Upsert(ctx context.Context, reg *models.PendingRegistration) error
	Get(ctx context.Context, email string) (*models.PendingRegistration, error)
	// AddFailedAttempt counts a wrong code and returns the new total.
	AddFailedAttempt(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, email string) error
}
