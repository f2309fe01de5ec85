package auth

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
)

// TokenVerifier is the part of TokenService the gate depends on.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Account, error)
}

// Gate resolves the caller of a protected operation from its Authorization
// value. It has no side effects.
type Gate struct {
	tokens TokenVerifier
}

func NewGate(tokens TokenVerifier) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate expects "Bearer <token>". A missing or differently-schemed
// header yields common.ErrAuthRequired without consulting the verifier.
func (g *Gate) Authenticate(ctx context.Context, header string) (*models.Account, error) {
	token, ok := BearerToken(header)
	if !ok {
		return nil, common.ErrAuthRequired
	}
	return g.tokens.Verify(ctx, token)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

type ctxKey string

const studentKey ctxKey = "student"

// WithStudent attaches the authenticated account to ctx.
func WithStudent(ctx context.Context, student *models.Account) context.Context {
	return context.WithValue(ctx, studentKey, student)
}

// StudentFromContext returns the account stored by WithStudent.
func StudentFromContext(ctx context.Context) (*models.Account, bool) {
	s, ok := ctx.Value(studentKey).(*models.Account)
	return s, ok && s != nil
}
