package notes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

type InMemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	notes  map[int64]*models.Note
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{notes: make(map[int64]*models.Note)}
}

func (r *InMemoryRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	stored := *note
	stored.ID = r.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	if stored.Color == "" {
		stored.Color = models.DefaultNoteColor
	}
	r.notes[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *InMemoryRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Note, 0)
	for _, n := range r.notes {
		if n.AccountID == accountID {
			c := *n
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsPinned != result[j].IsPinned {
			return result[i].IsPinned
		}
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (r *InMemoryRepository) Get(ctx context.Context, id int64, accountID string) (*models.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.notes[id]
	if !ok || n.AccountID != accountID {
		return nil, common.ErrorNotFound
	}
	out := *n
	return &out, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, note *models.Note) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[note.ID]
	if !ok || n.AccountID != note.AccountID {
		return nil, common.ErrorNotFound
	}
	n.Title = note.Title
	n.Content = note.Content
	n.Color = note.Color
	n.IsPinned = note.IsPinned
	n.UpdatedAt = note.UpdatedAt
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now().UTC()
	}

	out := *n
	return &out, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id int64, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok || n.AccountID != accountID {
		return common.ErrorNotFound
	}
	delete(r.notes, id)
	return nil
}

func (r *InMemoryRepository) TogglePin(ctx context.Context, id int64, accountID string, at time.Time) (*models.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notes[id]
	if !ok || n.AccountID != accountID {
		return nil, common.ErrorNotFound
	}
	n.IsPinned = !n.IsPinned
	n.UpdatedAt = at

	out := *n
	return &out, nil
}
