package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

// PostgresRepository implements note storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const noteColumns = `id, account_id, title, content, color, is_pinned, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, note *models.Note) (*models.Note, error) {
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = note.CreatedAt
	}
	if note.Color == "" {
		note.Color = models.DefaultNoteColor
	}

	query :=
		`INSERT INTO notes (account_id, title, content, color, is_pinned, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		note.AccountID, note.Title, note.Content, note.Color, note.IsPinned, note.CreatedAt, note.UpdatedAt,
	).Scan(&note.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return note, nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		 WHERE account_id = $1
		 ORDER BY is_pinned DESC, updated_at DESC
		 `
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Note, 0)
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Title, &n.Content, &n.Color, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64, accountID string) (*models.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes
		 WHERE id = $1 AND account_id = $2
		 `
	return scanNote(r.db.QueryRowContext(ctx, query, id, accountID))
}

// Update overwrites the editable fields of an owned note.
func (r *PostgresRepository) Update(ctx context.Context, note *models.Note) (*models.Note, error) {
	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = time.Now().UTC()
	}
	query :=
		`UPDATE notes SET title = $3, content = $4, color = $5, is_pinned = $6, updated_at = $7
		 WHERE id = $1 AND account_id = $2
		 RETURNING ` + noteColumns

	return scanNote(r.db.QueryRowContext(ctx, query,
		note.ID, note.AccountID, note.Title, note.Content, note.Color, note.IsPinned, note.UpdatedAt))
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64, accountID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1 AND account_id = $2`, id, accountID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) TogglePin(ctx context.Context, id int64, accountID string, at time.Time) (*models.Note, error) {
	query :=
		`UPDATE notes SET is_pinned = NOT is_pinned, updated_at = $3
		 WHERE id = $1 AND account_id = $2
		 RETURNING ` + noteColumns

	return scanNote(r.db.QueryRowContext(ctx, query, id, accountID, at))
}

func scanNote(row *sql.Row) (*models.Note, error) {
	var n models.Note
	err := row.Scan(&n.ID, &n.AccountID, &n.Title, &n.Content, &n.Color, &n.IsPinned, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &n, nil
}
