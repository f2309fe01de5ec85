package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/notes"
)

// NoteInput carries the editable fields of a note. Update replaces all of them.
type NoteInput struct {
	Title    string
	Content  string
	Color    string
	IsPinned bool
}

// NoteService exposes ownership-scoped note operations. A note that belongs to
// someone else is reported as common.ErrorNotFound.
type NoteService struct {
	notes  notes.Repository
	logger logging.Logger
	now    func() time.Time
}

func NewNoteService(repo notes.Repository, l logging.Logger) *NoteService {
	return &NoteService{
		notes:  repo,
		logger: l.With("module", "note_service"),
		now:    time.Now,
	}
}

func (s *NoteService) List(ctx context.Context, accountID string) ([]*models.Note, error) {
	list, err := s.notes.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, s.storageError(ctx, "list notes", err)
	}
	return list, nil
}

func (s *NoteService) Get(ctx context.Context, accountID string, id int64) (*models.Note, error) {
	n, err := s.notes.Get(ctx, id, accountID)
	if err != nil {
		return nil, s.storageError(ctx, "get note", err)
	}
	return n, nil
}

func (s *NoteService) Create(ctx context.Context, accountID string, in NoteInput) (*models.Note, error) {
	now := s.now().UTC()
	n, err := s.notes.Create(ctx, &models.Note{
		AccountID: accountID,
		Title:     in.Title,
		Content:   in.Content,
		Color:     colorOrDefault(in.Color),
		IsPinned:  in.IsPinned,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, s.storageError(ctx, "create note", err)
	}
	s.logger.Debug(ctx, "note created", "account_id", accountID, "note_id", n.ID)
	return n, nil
}

func (s *NoteService) Update(ctx context.Context, accountID string, id int64, in NoteInput) (*models.Note, error) {
	n, err := s.notes.Update(ctx, &models.Note{
		ID:        id,
		AccountID: accountID,
		Title:     in.Title,
		Content:   in.Content,
		Color:     colorOrDefault(in.Color),
		IsPinned:  in.IsPinned,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return nil, s.storageError(ctx, "update note", err)
	}
	return n, nil
}

// Delete removes the note and returns what was deleted.
func (s *NoteService) Delete(ctx context.Context, accountID string, id int64) (*models.Note, error) {
	n, err := s.notes.Get(ctx, id, accountID)
	if err != nil {
		return nil, s.storageError(ctx, "get note", err)
	}
	if err := s.notes.Delete(ctx, id, accountID); err != nil {
		return nil, s.storageError(ctx, "delete note", err)
	}
	s.logger.Debug(ctx, "note deleted", "account_id", accountID, "note_id", id)
	return n, nil
}

func (s *NoteService) TogglePin(ctx context.Context, accountID string, id int64) (*models.Note, error) {
	n, err := s.notes.TogglePin(ctx, id, accountID, s.now().UTC())
	if err != nil {
		return nil, s.storageError(ctx, "toggle pin", err)
	}
	return n, nil
}

func (s *NoteService) storageError(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	s.logger.Error(ctx, op+" failed", "error", err)
	return common.ErrStorageUnavailable
}

func colorOrDefault(c string) string {
	if c == "" {
		return models.DefaultNoteColor
	}
	return c
}
