// Package accounts is the credential store. One row per person carries both
// the pending (Registration) and the active (Student) stage of the account.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

// Repository persists accounts. Lookups return common.ErrorNotFound when no
// row matches; other failures are wrapped driver errors.
type Repository interface {
	// CreateRegistration stores a new pending account. It returns
	// common.ErrAlreadyExists when the student id is taken at any stage.
	CreateRegistration(ctx context.Context, account *models.Account) (*models.Account, error)

	GetRegistrationByStudentID(ctx context.Context, studentID string) (*models.Account, error)
	GetStudentByStudentID(ctx context.Context, studentID string) (*models.Account, error)
	GetStudentByID(ctx context.Context, id string) (*models.Account, error)

	// ActivateRegistration atomically moves the pending account id to the
	// active stage. It returns common.ErrActivationConflict when the account
	// is no longer pending, e.g. because a concurrent login activated it first.
	ActivateRegistration(ctx context.Context, id string, at time.Time) (*models.Account, error)
}
