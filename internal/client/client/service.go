package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/models"
)

// RegisterRequest carries the fields of a new registration.
type RegisterRequest struct {
	StudentID string
	Password  string
	FirstName string
	LastName  string
}

// LoginResponse is what a successful login yields.
type LoginResponse struct {
	Student   models.Student
	Token     string
	ExpiresAt time.Time
	Activated bool
}

type Client interface {
	Close() error
	SetToken(token string)
	Register(ctx context.Context, req RegisterRequest) error
	Login(ctx context.Context, studentID, password string) (*LoginResponse, error)
	VerifyToken(ctx context.Context) (*models.Student, error)
}
