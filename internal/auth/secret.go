package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	PINLength         = 4
	MinPasswordLength = 8
)

var (
	ErrInvalidPIN      = errors.New("PIN must be exactly 4 digits")
	ErrInvalidPassword = errors.New("password must be at least 8 characters")
	ErrMismatch        = errors.New("credentials do not match")
)

func HashPIN(pin string) (string, error) {
	if len(pin) != PINLength || !isDigits(pin) {
		return "", ErrInvalidPIN
	}
	return hash(pin)
}

func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrInvalidPassword
	}
	return hash(password)
}

// Check compares a PIN or password against its stored hash.
func Check(hashed, plain string) error {
	if hashed == "" {
		return ErrMismatch
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)); err != nil {
		return ErrMismatch
	}
	return nil
}

func hash(s string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(h), nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
