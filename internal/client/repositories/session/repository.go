// Package session persists the single logged-in session of the CLI.
package session

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/client/models"
)

// Repository stores at most one session. Load returns common.ErrorNotFound
// when nobody is logged in.
type Repository interface {
	Save(ctx context.Context, s *models.Session) error
	Load(ctx context.Context) (*models.Session, error)
	Clear(ctx context.Context) error
}
