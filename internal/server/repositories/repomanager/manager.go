// Package repomanager wires repository implementations to a storage backend
// and owns the backend's lifecycle (connection, migrations, shutdown).
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/notes"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Accounts() accounts.Repository
	Notes() notes.Repository
	Close() error
}
