package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/google/uuid"
)

// InMemoryRepository keeps accounts in process memory. A single mutex makes
// every operation, activation included, atomic.
type InMemoryRepository struct {
	mu          sync.RWMutex
	byID        map[string]*models.Account
	byStudentID map[string]string
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byID:        make(map[string]*models.Account),
		byStudentID: make(map[string]string),
	}
}

func (r *InMemoryRepository) CreateRegistration(ctx context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byStudentID[account.StudentID]; ok {
		return nil, common.ErrAlreadyExists
	}

	stored := *account
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.RegisteredAt.IsZero() {
		stored.RegisteredAt = time.Now().UTC()
	}
	stored.Status = models.StatusPending
	stored.FirstLoginAt = nil

	r.byID[stored.ID] = &stored
	r.byStudentID[stored.StudentID] = stored.ID

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) GetRegistrationByStudentID(ctx context.Context, studentID string) (*models.Account, error) {
	return r.findByStudentID(studentID, models.StatusPending)
}

func (r *InMemoryRepository) GetStudentByStudentID(ctx context.Context, studentID string) (*models.Account, error) {
	return r.findByStudentID(studentID, models.StatusActive)
}

func (r *InMemoryRepository) GetStudentByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byID[id]
	if !ok || a.Status != models.StatusActive {
		return nil, common.ErrorNotFound
	}
	return copyAccount(a), nil
}

func (r *InMemoryRepository) ActivateRegistration(ctx context.Context, id string, at time.Time) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if a.Status != models.StatusPending {
		return nil, common.ErrActivationConflict
	}

	loginAt := at
	a.Status = models.StatusActive
	a.FirstLoginAt = &loginAt

	return copyAccount(a), nil
}

// CountActive returns how many active accounts exist for studentID. It is
// always 0 or 1; tests use it to prove activation happened exactly once.
func (r *InMemoryRepository) CountActive(studentID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.byID {
		if a.StudentID == studentID && a.Status == models.StatusActive {
			n++
		}
	}
	return n
}

func (r *InMemoryRepository) findByStudentID(studentID string, status models.AccountStatus) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byStudentID[studentID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	a := r.byID[id]
	if a.Status != status {
		return nil, common.ErrorNotFound
	}
	return copyAccount(a), nil
}

func copyAccount(a *models.Account) *models.Account {
	out := *a
	if a.FirstLoginAt != nil {
		t := *a.FirstLoginAt
		out.FirstLoginAt = &t
	}
	return &out
}
