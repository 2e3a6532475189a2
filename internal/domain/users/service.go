package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Passwords hashes and verifies password strings. Verify returns nil only
// on a match.
type Passwords interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) error
}

// Service handles sign-in and account provisioning.
type Service struct {
	repo      Repository
	passwords Passwords
	validator *validator.Validate
}

// NewService creates a new user service instance
func NewService(repo Repository, passwords Passwords) *Service {
	return &Service{
		repo:      repo,
		passwords: passwords,
		validator: validator.New(),
	}
}

// Authenticate resolves the user for a login attempt. Failures are
// ErrNoSuchUser or ErrWrongPassword, both matching ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoSuchUser
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrWrongPassword, err)
	}
	return user, nil
}

// Resolve maps a session's user id back to the account. It returns
// ErrNotFound when the account no longer exists.
func (s *Service) Resolve(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

type createInput struct {
	Email    string `validate:"required,email"`
	Name     string `validate:"required"`
	Password string `validate:"required,min=8"`
}

// Create provisions an account with a freshly hashed password.
func (s *Service) Create(ctx context.Context, email, name, password string) (*User, error) {
	input := createInput{
		Email:    NormalizeEmail(email),
		Name:     strings.TrimSpace(name),
		Password: password,
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}

	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, CreateParams{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: hash,
	})
}
