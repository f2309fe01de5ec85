// Package services contains server-side business logic. AccountService is the
// account lifecycle: registration, login with one-time activation of pending
// accounts, and token issuance. NoteService manages a student's notes.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/accounts"
)

// PasswordHasher is implemented by *auth.PasswordHasher.
type PasswordHasher interface {
	Hash(ctx context.Context, plain string) (string, error)
	Verify(ctx context.Context, plain, hash string) (bool, error)
	VerifyDummy(ctx context.Context, plain string) error
}

// TokenIssuer is implemented by *auth.TokenService.
type TokenIssuer interface {
	Issue(student *models.Account) (auth.Token, error)
}

type RegisterInput struct {
	StudentID string
	Password  string
	FirstName string
	LastName  string
}

// LoginResult is a successful authentication. Activated is true only for the
// call that moved the account from pending to active.
type LoginResult struct {
	Student   *models.Account
	Activated bool
	Token     auth.Token
}

type AccountService struct {
	accounts accounts.Repository
	hasher   PasswordHasher
	tokens   TokenIssuer
	logger   logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewAccountService(repo accounts.Repository, hasher PasswordHasher, tokens TokenIssuer, l logging.Logger, m *metrics.Metrics) *AccountService {
	return &AccountService{
		accounts: repo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   l.With("module", "account_service"),
		metrics:  m,
		now:      time.Now,
	}
}

// Register stores a pending account. The student id must be unused at
// either stage.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		s.logger.Error(ctx, "password hashing failed", "student_id", in.StudentID, "error", err)
		s.metrics.ObserveAuth(metrics.OperationRegister, metrics.OutcomeError)
		return nil, common.ErrStorageUnavailable
	}

	reg, err := s.accounts.CreateRegistration(ctx, &models.Account{
		StudentID:    in.StudentID,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		RegisteredAt: s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			s.logger.Info(ctx, "duplicate registration", "student_id", in.StudentID)
			s.metrics.ObserveAuth(metrics.OperationRegister, metrics.OutcomeDuplicate)
			return nil, common.ErrDuplicateRegistration
		}
		s.logger.Error(ctx, "registration failed", "student_id", in.StudentID, "error", err)
		s.metrics.ObserveAuth(metrics.OperationRegister, metrics.OutcomeError)
		return nil, common.ErrStorageUnavailable
	}

	s.logger.Info(ctx, "registration created", "student_id", reg.StudentID, "id", reg.ID)
	s.metrics.ObserveAuth(metrics.OperationRegister, metrics.OutcomeSuccess)
	return reg, nil
}

// Authenticate resolves credentials to an active account. The first
// successful login of a pending account activates it; concurrent first
// logins all succeed while only one of them activates.
//
// Every credential failure, whether the id is unknown or the password is
// wrong at either stage, is common.ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, studentID, password string) (*LoginResult, error) {
	res, err := s.authenticate(ctx, studentID, password)
	switch {
	case err == nil && res.Activated:
		s.logger.Info(ctx, "account activated", "student_id", studentID, "id", res.Student.ID)
		s.metrics.ObserveAuth(metrics.OperationLogin, metrics.OutcomeActivated)
	case err == nil:
		s.logger.Debug(ctx, "login succeeded", "student_id", studentID)
		s.metrics.ObserveAuth(metrics.OperationLogin, metrics.OutcomeSuccess)
	case errors.Is(err, common.ErrInvalidCredentials):
		s.logger.Info(ctx, "login rejected", "student_id", studentID)
		s.metrics.ObserveAuth(metrics.OperationLogin, metrics.OutcomeInvalid)
	default:
		s.logger.Error(ctx, "login failed", "student_id", studentID, "error", err)
		s.metrics.ObserveAuth(metrics.OperationLogin, metrics.OutcomeError)
		return nil, common.ErrStorageUnavailable
	}
	return res, err
}

func (s *AccountService) authenticate(ctx context.Context, studentID, password string) (*LoginResult, error) {
	student, err := s.accounts.GetStudentByStudentID(ctx, studentID)
	if err == nil {
		return s.checkStudent(ctx, student, password)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	reg, err := s.accounts.GetRegistrationByStudentID(ctx, studentID)
	if errors.Is(err, common.ErrorNotFound) {
		// the account may have been activated since the first lookup
		student, err = s.accounts.GetStudentByStudentID(ctx, studentID)
		if err == nil {
			return s.checkStudent(ctx, student, password)
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		if err := s.hasher.VerifyDummy(ctx, password); err != nil {
			return nil, err
		}
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := s.hasher.Verify(ctx, password, reg.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	activated, err := s.accounts.ActivateRegistration(ctx, reg.ID, s.now().UTC())
	if err == nil {
		return &LoginResult{Student: activated, Activated: true}, nil
	}
	if !errors.Is(err, common.ErrActivationConflict) {
		return nil, err
	}

	// another login won the race; the password was checked against the same
	// immutable hash, so this is a repeat login
	s.logger.Debug(ctx, "activation conflict recovered", "student_id", studentID)
	s.metrics.ObserveAuth(metrics.OperationActivation, metrics.OutcomeConflict)
	student, err = s.accounts.GetStudentByStudentID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Student: student}, nil
}

func (s *AccountService) checkStudent(ctx context.Context, student *models.Account, password string) (*LoginResult, error) {
	ok, err := s.hasher.Verify(ctx, password, student.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	return &LoginResult{Student: student}, nil
}

// Login authenticates and issues a bearer token for the resulting student.
func (s *AccountService) Login(ctx context.Context, studentID, password string) (*LoginResult, error) {
	res, err := s.Authenticate(ctx, studentID, password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(res.Student)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "student_id", studentID, "error", err)
		return nil, common.ErrorInternal
	}
	res.Token = token
	return res, nil
}

// Profile returns the active account with the given internal id.
func (s *AccountService) Profile(ctx context.Context, id string) (*models.Account, error) {
	student, err := s.accounts.GetStudentByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "profile lookup failed", "id", id, "error", err)
		return nil, common.ErrStorageUnavailable
	}
	return student, nil
}
