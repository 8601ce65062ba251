package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"archiveapi/internal/model"
	"archiveapi/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already exists")
)

// AuthService handles registration and session issuance. Sessions are JWTs
// whose subject is the user id; the archive domain only ever sees that id.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*model.User, error)
	// Login verifies credentials and returns a signed token plus the user.
	Login(ctx context.Context, email, password string) (string, *model.User, error)
}

type authService struct {
	users       repository.UserRepository
	secret      []byte
	tokenExpiry time.Duration
	// isUniqueViolation lets the store-specific duplicate check be injected.
	isUniqueViolation func(error) bool
}

// NewAuthService constructs a new AuthService.
func NewAuthService(users repository.UserRepository, secret string, tokenExpiry time.Duration, isUniqueViolation func(error) bool) AuthService {
	if tokenExpiry <= 0 {
		tokenExpiry = 24 * time.Hour
	}
	if isUniqueViolation == nil {
		isUniqueViolation = func(error) bool { return false }
	}
	return &authService{
		users:             users,
		secret:            []byte(secret),
		tokenExpiry:       tokenExpiry,
		isUniqueViolation: isUniqueViolation,
	}
}

func (s *authService) Register(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" {
		return nil, &ValidationError{Field: "email", Reason: "required"}
	}
	if password == "" {
		return nil, &ValidationError{Field: "password", Reason: "required"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	stored, err := s.users.Create(ctx, u)
	if err != nil {
		if s.isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, &PersistenceError{Err: err}
	}
	return stored, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	if email == "" || password == "" {
		return "", nil, &ValidationError{Field: "credentials", Reason: "email and password are required"}
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, &PersistenceError{Err: err}
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, u, nil
}
