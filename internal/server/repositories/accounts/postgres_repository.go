package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/google/uuid"
)

// Conn is what the Postgres repository needs from the pool: plain queries
// plus the ability to open a transaction. *sql.DB satisfies it.
type Conn interface {
	dbx.DBTX
	dbx.TxBeginner
}

type PostgresRepository struct {
	db Conn
}

func NewPostgresRepository(db Conn) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `id, student_id, password_hash, first_name, last_name, status, registered_at, first_login_at`

func (r *PostgresRepository) CreateRegistration(ctx context.Context, account *models.Account) (*models.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	if account.RegisteredAt.IsZero() {
		account.RegisteredAt = time.Now().UTC()
	}
	account.Status = models.StatusPending
	account.FirstLoginAt = nil

	query :=
		`INSERT INTO accounts (id, student_id, password_hash, first_name, last_name, status, registered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.StudentID, account.PasswordHash,
		nullString(account.FirstName), nullString(account.LastName),
		string(account.Status), account.RegisteredAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

func (r *PostgresRepository) GetRegistrationByStudentID(ctx context.Context, studentID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE student_id = $1 AND status = 'pending'
		 `
	return scanAccount(r.db.QueryRowContext(ctx, query, studentID))
}

func (r *PostgresRepository) GetStudentByStudentID(ctx context.Context, studentID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE student_id = $1 AND status = 'active'
		 `
	return scanAccount(r.db.QueryRowContext(ctx, query, studentID))
}

func (r *PostgresRepository) GetStudentByID(ctx context.Context, id string) (*models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		// not a uuid, so it cannot name a row; avoids a driver cast error
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE id = $1 AND status = 'active'
		 `
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// ActivateRegistration locks the row, re-checks that it is still pending and
// flips it to active inside one transaction. A second caller blocked on the
// lock observes the committed active status and gets ErrActivationConflict.
func (r *PostgresRepository) ActivateRegistration(ctx context.Context, id string, at time.Time) (*models.Account, error) {
	var activated *models.Account

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM accounts WHERE id = $1 FOR UPDATE`, id).Scan(&status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrorNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}
		if models.AccountStatus(status) != models.StatusPending {
			return common.ErrActivationConflict
		}

		query :=
			`UPDATE accounts SET status = 'active', first_login_at = $2
			 WHERE id = $1 AND status = 'pending'
			 RETURNING ` + accountColumns

		activated, err = scanAccount(tx.QueryRowContext(ctx, query, id, at))
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrActivationConflict
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	return activated, nil
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		a          models.Account
		status     string
		firstName  sql.NullString
		lastName   sql.NullString
		firstLogin sql.NullTime
	)

	err := row.Scan(&a.ID, &a.StudentID, &a.PasswordHash, &firstName, &lastName, &status, &a.RegisteredAt, &firstLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.Status = models.AccountStatus(status)
	a.FirstName = firstName.String
	a.LastName = lastName.String
	if firstLogin.Valid {
		t := firstLogin.Time
		a.FirstLoginAt = &t
	}

	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
