package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued token stays valid.
const DefaultTokenTTL = 24 * time.Hour

// Claims is the token payload: the account's internal id and its public
// student id plus the standard jti/iat/exp claims. jti is random per token.
type Claims struct {
	AccountID string `json:"id"`
	StudentID string `json:"student_id"`
	jwt.RegisteredClaims
}

// Token is a signed bearer token and its validity window.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// StudentFinder resolves a token subject back to an active account.
type StudentFinder interface {
	GetStudentByID(ctx context.Context, id string) (*models.Account, error)
}

// TokenService issues HS256 tokens and verifies them against the credential
// store. The secret is fixed for the lifetime of the service.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	students StudentFinder
	now      func() time.Time
}

func NewTokenService(secret []byte, ttl time.Duration, students StudentFinder) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		secret:   secret,
		ttl:      ttl,
		students: students,
		now:      time.Now,
	}
}

// WithClock replaces the time source used for issuing and expiry checks.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// Issue signs a token for an active account.
func (s *TokenService) Issue(student *models.Account) (Token, error) {
	if student == nil || student.ID == "" {
		return Token{}, errors.New("issue token: empty subject")
	}

	jti, err := common.MakeRandHexString(16)
	if err != nil {
		return Token{}, fmt.Errorf("token id: %w", err)
	}

	iat := s.now().UTC().Truncate(time.Second)
	exp := iat.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AccountID: student.ID,
		StudentID: student.StudentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{Value: signed, IssuedAt: iat, ExpiresAt: exp}, nil
}

// Parse checks signature, algorithm, structure and expiry. It does not touch
// storage.
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrTokenMalformed
	}

	if !token.Valid || claims.AccountID == "" || claims.StudentID == "" {
		return nil, common.ErrTokenMalformed
	}

	return claims, nil
}

// Verify parses the token and resolves its subject to an active account.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*models.Account, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}

	student, err := s.students.GetStudentByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrTokenSubjectNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	if student.StudentID != claims.StudentID {
		return nil, common.ErrTokenSubjectNotFound
	}

	return student, nil
}
