package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email is already taken")

	// ErrInvalidCredentials is the single failure callers should surface to
	// the person logging in. ErrNoSuchUser and ErrWrongPassword both wrap it
	// so logs can keep the distinction.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSuchUser         = fmt.Errorf("%w: no such user", ErrInvalidCredentials)
	ErrWrongPassword      = fmt.Errorf("%w: wrong password", ErrInvalidCredentials)
)

// User is an account allowed to sign in. Users are provisioned out of band;
// the web surface only reads them.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
}

type CreateParams struct {
	Email        string
	Name         string
	PasswordHash string
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByEmail matches case-insensitively; email must already be normalized.
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, params CreateParams) (*User, error)
}

// NormalizeEmail lower-cases and trims an address for lookup and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
