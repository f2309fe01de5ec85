package repomanager

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/notes"
)

// InMemoryRepositoryManager keeps everything in process memory. Data does not
// survive a restart.
type InMemoryRepositoryManager struct {
	accounts *accounts.InMemoryRepository
	notes    *notes.InMemoryRepository
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	return &InMemoryRepositoryManager{
		accounts: accounts.NewInMemoryRepository(),
		notes:    notes.NewInMemoryRepository(),
	}
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error { return nil }
func (m *InMemoryRepositoryManager) Close() error                            { return nil }

func (m *InMemoryRepositoryManager) Accounts() accounts.Repository {
	return m.accounts
}

func (m *InMemoryRepositoryManager) Notes() notes.Repository {
	return m.notes
}
