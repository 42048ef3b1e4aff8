package auth

import (
	"errors"
	"testing"
)

func TestHashPIN(t *testing.T) {
	for _, bad := range []string{"", "123", "12345", "12a4"} {
		if _, err := HashPIN(bad); !errors.Is(err, ErrInvalidPIN) {
			t.Errorf("HashPIN(%q) err = %v, want ErrInvalidPIN", bad, err)
		}
	}

	h, err := HashPIN("0420")
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	if err := Check(h, "0420"); err != nil {
		t.Errorf("check correct pin: %v", err)
	}
	if err := Check(h, "0421"); !errors.Is(err, ErrMismatch) {
		t.Errorf("check wrong pin err = %v, want ErrMismatch", err)
	}
}

func TestHashPassword(t *testing.T) {
	if _, err := HashPassword("short"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("err = %v, want ErrInvalidPassword", err)
	}
	h, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := Check(h, "correct horse"); err != nil {
		t.Errorf("check: %v", err)
	}
}

func TestCheckEmptyHash(t *testing.T) {
	if err := Check("", "1234"); !errors.Is(err, ErrMismatch) {
		t.Errorf("err = %v, want ErrMismatch", err)
	}
}
