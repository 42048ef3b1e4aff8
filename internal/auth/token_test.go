package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParse(t *testing.T) {
	iss, err := NewIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	token, exp, err := iss.Issue(AuthContext{HouseholdID: 3, PersonID: 9, IsAdmin: true})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Errorf("expiry %v is not in the future", exp)
	}

	ac, err := iss.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ac.HouseholdID != 3 || ac.PersonID != 9 || !ac.IsAdmin {
		t.Errorf("AuthContext = %+v", ac)
	}
	if ac.TokenID == "" {
		t.Error("expected token id")
	}
}

func TestHouseholdTokenIsNeverAdmin(t *testing.T) {
	iss, err := NewIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, _, err := iss.Issue(AuthContext{HouseholdID: 3, IsAdmin: true})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	ac, err := iss.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ac.IsAdmin || ac.PersonID != 0 {
		t.Errorf("AuthContext = %+v, want household-only", ac)
	}
}

func TestParseRejects(t *testing.T) {
	iss, err := NewIssuer(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	other, err := NewIssuer(strings.Repeat("x", 32), time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	foreign, _, err := other.Issue(AuthContext{HouseholdID: 1})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	expired, err := NewIssuer(testSecret, time.Minute)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _, err := expired.Issue(AuthContext{HouseholdID: 1})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for name, token := range map[string]string{
		"garbage":   "not-a-token",
		"signature": foreign,
		"expired":   stale,
		"empty":     "",
	} {
		if _, err := iss.Parse(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
}

func TestNewIssuerValidates(t *testing.T) {
	if _, err := NewIssuer("short", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
	if _, err := NewIssuer(testSecret, 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}
