package security

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt = "bcrypt"
	AlgorithmArgon2 = "argon2"

	DefaultBcryptCost = 12
)

var ErrUnknownAlgorithm = errors.New("unknown password hashing algorithm")

// PasswordHasher hashes passwords with the configured algorithm and verifies
// digests produced by any supported algorithm, so switching algorithms keeps
// existing credentials usable.
type PasswordHasher struct {
	algorithm  string
	bcryptCost int
	argon2Cfg  argon2.Config
}

// NewPasswordHasher creates a hasher for algorithm. A non-positive bcrypt cost
// falls back to DefaultBcryptCost.
func NewPasswordHasher(algorithm string, bcryptCost int) (*PasswordHasher, error) {
	if bcryptCost <= 0 {
		bcryptCost = DefaultBcryptCost
	}

	switch algorithm {
	case AlgorithmBcrypt:
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
	case AlgorithmArgon2:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}

	return &PasswordHasher{
		algorithm:  algorithm,
		bcryptCost: bcryptCost,
		argon2Cfg:  argon2.DefaultConfig(),
	}, nil
}

// HashPassword returns an encoded salted digest of password.
func (h *PasswordHasher) HashPassword(password string) (string, error) {
	switch h.algorithm {
	case AlgorithmArgon2:
		encoded, err := h.argon2Cfg.HashEncoded([]byte(password))
		if err != nil {
			return "", fmt.Errorf("argon2 hash: %w", err)
		}
		return string(encoded), nil
	default:
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt hash: %w", err)
		}
		return string(hashed), nil
	}
}

// VerifyPassword reports whether password matches the encoded digest.
// A mismatch is (false, nil); malformed digests return an error.
func (h *PasswordHasher) VerifyPassword(password, encoded string) (bool, error) {
	if strings.HasPrefix(encoded, "$argon2") {
		ok, err := argon2.VerifyEncoded([]byte(password), []byte(encoded))
		if err != nil {
			return false, fmt.Errorf("argon2 verify: %w", err)
		}
		return ok, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt verify: %w", err)
	}
}
