//go:build integration

package repomanager_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// setupPostgres starts a throwaway PostgreSQL container and returns a
// migrated repository manager. Tests are skipped when Docker is unavailable.
func setupPostgres(t *testing.T) *repomanager.PostgresRepositoryManager {
	t.Helper()
	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration tests")
	}
	_ = provider.Close()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("notekeeper_test"),
		postgres.WithUsername("notekeeper"),
		postgres.WithPassword("notekeeper"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := repomanager.NewPostgresRepositoryManager(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.RunMigrations(ctx))
	// a second run is a no-op
	require.NoError(t, m.RunMigrations(ctx))
	return m
}

func TestPostgres_AccountLifecycle(t *testing.T) {
	m := setupPostgres(t)
	ctx := context.Background()
	repo := m.Accounts()

	reg, err := repo.CreateRegistration(ctx, &models.Account{StudentID: "s100", PasswordHash: "h", FirstName: "Ann"})
	require.NoError(t, err)
	require.NotEmpty(t, reg.ID)
	assert.Equal(t, models.StatusPending, reg.Status)

	_, err = repo.CreateRegistration(ctx, &models.Account{StudentID: "s100", PasswordHash: "h"})
	require.ErrorIs(t, err, common.ErrAlreadyExists)

	_, err = repo.GetStudentByStudentID(ctx, "s100")
	require.ErrorIs(t, err, common.ErrorNotFound)

	const racers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	at := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ActivateRegistration(ctx, reg.ID, at)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, common.ErrActivationConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)

	st, err := repo.GetStudentByStudentID(ctx, "s100")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, st.ID)
	require.NotNil(t, st.FirstLoginAt)

	_, err = repo.GetRegistrationByStudentID(ctx, "s100")
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = repo.CreateRegistration(ctx, &models.Account{StudentID: "s100", PasswordHash: "h"})
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestPostgres_ConcurrentFirstLogins(t *testing.T) {
	m := setupPostgres(t)
	ctx := context.Background()

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)
	tokens := auth.NewTokenService([]byte("integration"), time.Hour, m.Accounts())
	svc := services.NewAccountService(m.Accounts(), hasher, tokens, logging.NewNopLogger(), nil)

	_, err = svc.Register(ctx, services.RegisterInput{StudentID: "s200", Password: "secret1"})
	require.NoError(t, err)

	const logins = 8
	results := make([]*services.LoginResult, logins)
	errs := make([]error, logins)
	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Login(ctx, "s200", "secret1")
		}(i)
	}
	wg.Wait()

	activated := 0
	var id string
	for i := 0; i < logins; i++ {
		require.NoError(t, errs[i])
		if results[i].Activated {
			activated++
		}
		if id == "" {
			id = results[i].Student.ID
		}
		assert.Equal(t, id, results[i].Student.ID)

		got, err := tokens.Verify(ctx, results[i].Token.Value)
		require.NoError(t, err)
		assert.Equal(t, "s200", got.StudentID)
	}
	assert.Equal(t, 1, activated)
}

func TestPostgres_NotesScopedToOwner(t *testing.T) {
	m := setupPostgres(t)
	ctx := context.Background()

	owner, err := m.Accounts().CreateRegistration(ctx, &models.Account{StudentID: "s300", PasswordHash: "h"})
	require.NoError(t, err)
	other, err := m.Accounts().CreateRegistration(ctx, &models.Account{StudentID: "s301", PasswordHash: "h"})
	require.NoError(t, err)

	notes := m.Notes()
	now := time.Now().UTC()
	n, err := notes.Create(ctx, &models.Note{AccountID: owner.ID, Title: "a", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultNoteColor, n.Color)

	_, err = notes.Get(ctx, n.ID, other.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	toggled, err := notes.TogglePin(ctx, n.ID, owner.ID, now.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, toggled.IsPinned)

	list, err := notes.ListByAccount(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.ErrorIs(t, notes.Delete(ctx, n.ID, other.ID), common.ErrorNotFound)
	require.NoError(t, notes.Delete(ctx, n.ID, owner.ID))
}
