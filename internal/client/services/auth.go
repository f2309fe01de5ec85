// Package services contains application services for the notekeeper CLI.
// This file defines the authentication service: register, login, token
// verification and the locally cached session.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/client/repositories/session"
	"github.com/dmitrijs2005/notekeeper/internal/common"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create a pending registration on the server.
//   - Login: authenticate, cache the session and use its token from now on.
//   - Restore: reuse a cached, unexpired session from a previous run.
//   - WhoAmI: ask the server to verify the current token.
//   - Logout: forget the token locally. Tokens are not revoked server side.
type AuthService interface {
	Register(ctx context.Context, req client.RegisterRequest) error
	Login(ctx context.Context, studentID string, password []byte) (*client.LoginResponse, error)
	Restore(ctx context.Context) (*models.Session, error)
	WhoAmI(ctx context.Context) (*models.Student, error)
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client   client.Client
	sessions session.Repository
	now      func() time.Time
}

func NewAuthService(c client.Client, sessions session.Repository) AuthService {
	return &authService{client: c, sessions: sessions, now: time.Now}
}

func (a *authService) Register(ctx context.Context, req client.RegisterRequest) error {
	return a.client.Register(ctx, req)
}

func (a *authService) Login(ctx context.Context, studentID string, password []byte) (*client.LoginResponse, error) {
	resp, err := a.client.Login(ctx, studentID, string(password))
	if err != nil {
		return nil, err
	}

	s := &models.Session{
		Token:     resp.Token,
		StudentID: resp.Student.StudentID,
		FirstName: resp.Student.FirstName,
		LastName:  resp.Student.LastName,
		ExpiresAt: resp.ExpiresAt,
	}
	if err := a.sessions.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("cache session: %w", err)
	}
	return resp, nil
}

// Restore returns common.ErrorNotFound when there is no usable session. An
// expired session is removed.
func (a *authService) Restore(ctx context.Context) (*models.Session, error) {
	s, err := a.sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.Expired(a.now()) {
		if err := a.sessions.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, common.ErrorNotFound
	}
	a.client.SetToken(s.Token)
	return s, nil
}

// WhoAmI drops the cached session when the server rejects the token.
func (a *authService) WhoAmI(ctx context.Context) (*models.Student, error) {
	st, err := a.client.VerifyToken(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = a.forget(ctx)
		}
		return nil, err
	}
	return st, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.forget(ctx)
}

func (a *authService) forget(ctx context.Context) error {
	a.client.SetToken("")
	return a.sessions.Clear(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
