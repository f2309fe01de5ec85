// Package notes stores the notes owned by active accounts. Every operation is
// scoped by account id so one student can never see another student's notes.
package notes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

// Repository persists notes. Missing or foreign notes yield common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, note *models.Note) (*models.Note, error)
	// ListByAccount returns pinned notes first, newest update first.
	ListByAccount(ctx context.Context, accountID string) ([]*models.Note, error)
	Get(ctx context.Context, id int64, accountID string) (*models.Note, error)
	Update(ctx context.Context, note *models.Note) (*models.Note, error)
	Delete(ctx context.Context, id int64, accountID string) error
	TogglePin(ctx context.Context, id int64, accountID string, at time.Time) (*models.Note, error)
}
