package auth

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	got     string
	calls   int
	student *models.Account
	err     error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*models.Account, error) {
	f.calls++
	f.got = token
	return f.student, f.err
}

func TestGate_MissingOrForeignSchemeSkipsVerifier(t *testing.T) {
	t.Parallel()
	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic dXNlcjpwdw==", "token-without-scheme"} {
		v := &fakeVerifier{}
		_, err := NewGate(v).Authenticate(context.Background(), header)
		assert.ErrorIs(t, err, common.ErrAuthRequired, "header %q", header)
		assert.Zero(t, v.calls, "header %q", header)
	}
}

func TestGate_PassesTokenToVerifier(t *testing.T) {
	t.Parallel()
	v := &fakeVerifier{student: testStudent}

	got, err := NewGate(v).Authenticate(context.Background(), "bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Same(t, testStudent, got)
	assert.Equal(t, "abc.def.ghi", v.got)
}

func TestGate_PropagatesVerifierError(t *testing.T) {
	t.Parallel()
	v := &fakeVerifier{err: common.ErrTokenExpired}

	_, err := NewGate(v).Authenticate(context.Background(), "Bearer t")
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestStudentContext(t *testing.T) {
	t.Parallel()
	_, ok := StudentFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithStudent(context.Background(), testStudent)
	got, ok := StudentFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "acc-1", got.ID)

	_, ok = StudentFromContext(WithStudent(context.Background(), nil))
	assert.False(t, ok)
}
