package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/chorely/internal/auth"
)

func newTestIssuer(t *testing.T) *auth.Issuer {
	t.Helper()
	iss, err := auth.NewIssuer("middleware-test-secret-0123456789", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return iss
}

func issueToken(t *testing.T, iss *auth.Issuer, ac auth.AuthContext) string {
	t.Helper()
	token, _, err := iss.Issue(ac)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func TestRequireAuthMissingToken(t *testing.T) {
	handler := RequireAuth(newTestIssuer(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/dashboard", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	handler := RequireAuth(newTestIssuer(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	iss := newTestIssuer(t)
	token := issueToken(t, iss, auth.AuthContext{HouseholdID: 4, PersonID: 2})

	var got auth.AuthContext
	handler := RequireAuth(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.HouseholdID != 4 || got.PersonID != 2 {
		t.Errorf("AuthContext = %+v", got)
	}
}

func TestRequireAuthQueryToken(t *testing.T) {
	iss := newTestIssuer(t)
	token := issueToken(t, iss, auth.AuthContext{HouseholdID: 4})

	handler := RequireAuth(iss)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/ws?token="+token, nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireProfileAndAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		ac          auth.AuthContext
		wantProfile int
		wantAdmin   int
	}{
		{"household only", auth.AuthContext{HouseholdID: 1}, http.StatusForbidden, http.StatusForbidden},
		{"member", auth.AuthContext{HouseholdID: 1, PersonID: 2}, http.StatusOK, http.StatusForbidden},
		{"admin", auth.AuthContext{HouseholdID: 1, PersonID: 3, IsAdmin: true}, http.StatusOK, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req = req.WithContext(auth.WithAuth(req.Context(), tt.ac))

			rec := httptest.NewRecorder()
			RequireProfile(ok).ServeHTTP(rec, req)
			if rec.Code != tt.wantProfile {
				t.Errorf("RequireProfile status = %d, want %d", rec.Code, tt.wantProfile)
			}

			rec = httptest.NewRecorder()
			RequireAdmin(ok).ServeHTTP(rec, req)
			if rec.Code != tt.wantAdmin {
				t.Errorf("RequireAdmin status = %d, want %d", rec.Code, tt.wantAdmin)
			}
		})
	}
}
