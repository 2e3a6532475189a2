package auth

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

var (
	ErrPasswordMismatch = errors.New("password does not match")
	ErrUnsupportedHash  = errors.New("unsupported password hash format")
)

const defaultPBKDF2Iterations = 600000

// Passwords hashes new passwords with bcrypt and verifies stored hashes in
// bcrypt or werkzeug style ("pbkdf2:sha256:600000$salt$hex",
// "scrypt:32768:8:1$salt$hex") formats, so rows created by other tools keep
// working.
type Passwords struct {
	// BcryptCost is used by Hash. Zero means bcrypt.DefaultCost+2.
	BcryptCost int
}

func (p Passwords) Hash(plain string) (string, error) {
	cost := p.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost + 2
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plain matches the stored hash, ErrPasswordMismatch
// when it does not and ErrUnsupportedHash when the format is unknown.
func (p Passwords) Verify(stored, plain string) error {
	switch {
	case strings.HasPrefix(stored, "$2a$"), strings.HasPrefix(stored, "$2b$"), strings.HasPrefix(stored, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	case strings.HasPrefix(stored, "pbkdf2:"), strings.HasPrefix(stored, "scrypt:"):
		return verifyWerkzeug(stored, plain)
	default:
		return ErrUnsupportedHash
	}
}

func verifyWerkzeug(stored, plain string) error {
	method, salt, digest, ok := splitWerkzeug(stored)
	if !ok {
		return ErrUnsupportedHash
	}
	expected, err := hex.DecodeString(digest)
	if err != nil {
		return ErrUnsupportedHash
	}

	params := strings.Split(method, ":")
	var derived []byte
	switch params[0] {
	case "pbkdf2":
		if len(params) < 2 || len(params) > 3 {
			return ErrUnsupportedHash
		}
		newHash, size := pbkdf2Digest(params[1])
		if newHash == nil {
			return ErrUnsupportedHash
		}
		iterations := defaultPBKDF2Iterations
		if len(params) == 3 {
			iterations, err = strconv.Atoi(params[2])
			if err != nil || iterations <= 0 {
				return ErrUnsupportedHash
			}
		}
		derived = pbkdf2.Key([]byte(plain), []byte(salt), iterations, size, newHash)
	case "scrypt":
		if len(params) != 4 {
			return ErrUnsupportedHash
		}
		n, errN := strconv.Atoi(params[1])
		r, errR := strconv.Atoi(params[2])
		pp, errP := strconv.Atoi(params[3])
		if errN != nil || errR != nil || errP != nil {
			return ErrUnsupportedHash
		}
		derived, err = scrypt.Key([]byte(plain), []byte(salt), n, r, pp, 64)
		if err != nil {
			return ErrUnsupportedHash
		}
	default:
		return ErrUnsupportedHash
	}

	if subtle.ConstantTimeCompare(derived, expected) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

func splitWerkzeug(stored string) (method, salt, digest string, ok bool) {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func pbkdf2Digest(name string) (func() hash.Hash, int) {
	switch name {
	case "sha1":
		return sha1.New, sha1.Size
	case "sha256":
		return sha256.New, sha256.Size
	case "sha512":
		return sha512.New, sha512.Size
	default:
		return nil, 0
	}
}
