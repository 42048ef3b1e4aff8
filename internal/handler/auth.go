package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
)

type HouseholdLookup interface {
	GetCredentials(ctx context.Context, email string) (*model.Household, string, error)
}

type PersonLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Person, error)
	ListByHousehold(ctx context.Context, householdID int64) ([]model.Person, error)
	GetPINHash(ctx context.Context, id int64) (string, error)
}

type TokenIssuer interface {
	Issue(ac auth.AuthContext) (string, time.Time, error)
}

// PINGuard tracks wrong PIN attempts per key.
type PINGuard interface {
	Exceeded(key string, limit int) bool
	Fail(key string, d time.Duration)
	Reset(key string)
}

const (
	maxPINFailures = 5
	pinLockout     = 15 * time.Minute
)

// AuthHandler exchanges household credentials for a household token, and a
// person's PIN for a profile token.
type AuthHandler struct {
	households HouseholdLookup
	people     PersonLookup
	tokens     TokenIssuer
	guard      PINGuard
	logger     *slog.Logger
}

// NewAuthHandler creates an AuthHandler. guard may be nil to disable PIN
// lockout.
func NewAuthHandler(hs HouseholdLookup, ps PersonLookup, tokens TokenIssuer, guard PINGuard, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{households: hs, people: ps, tokens: tokens, guard: guard, logger: logger}
}

type tokenResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Household *model.Household `json:"household,omitempty"`
	People    []model.Person   `json:"people,omitempty"`
	Person    *model.Person    `json:"person,omitempty"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	household, hash, err := h.households.GetCredentials(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("look up household", "error", err)
		writeMessage(w, http.StatusServiceUnavailable, "failed to look up household")
		return
	}
	if household == nil || auth.Check(hash, req.Password) != nil {
		h.logger.Warn("failed login", "email", req.Email)
		writeMessage(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	people, err := h.people.ListByHousehold(r.Context(), household.ID)
	if err != nil {
		h.logger.Error("list people", "household_id", household.ID, "error", err)
		writeMessage(w, http.StatusServiceUnavailable, "failed to list people")
		return
	}

	token, exp, err := h.tokens.Issue(auth.AuthContext{HouseholdID: household.ID})
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	h.logger.Info("household login", "household_id", household.ID)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp, Household: household, People: people})
}

// SelectProfile requires a household token and verifies the chosen person's
// PIN. A person without a PIN is selected without one. Repeated wrong PINs
// lock the profile for pinLockout.
func (h *AuthHandler) SelectProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PersonID int64  `json:"person_id"`
		PIN      string `json:"pin"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	householdID := auth.HouseholdID(r.Context())
	person, err := h.people.GetByID(r.Context(), req.PersonID)
	if err != nil {
		h.logger.Error("get person", "person_id", req.PersonID, "error", err)
		writeMessage(w, http.StatusServiceUnavailable, "failed to look up person")
		return
	}
	if person == nil || person.HouseholdID != householdID {
		writeMessage(w, http.StatusNotFound, "person not found")
		return
	}

	if person.HasPIN {
		key := "pin:" + strconv.FormatInt(person.ID, 10)
		if h.guard != nil && h.guard.Exceeded(key, maxPINFailures) {
			writeMessage(w, http.StatusTooManyRequests, "too many incorrect PINs, try again later")
			return
		}
		hash, err := h.people.GetPINHash(r.Context(), person.ID)
		if err != nil {
			h.logger.Error("get pin hash", "person_id", person.ID, "error", err)
			writeMessage(w, http.StatusServiceUnavailable, "failed to verify PIN")
			return
		}
		if err := auth.Check(hash, req.PIN); err != nil {
			if !errors.Is(err, auth.ErrMismatch) {
				h.logger.Error("check pin", "error", err)
			}
			if h.guard != nil {
				h.guard.Fail(key, pinLockout)
			}
			h.logger.Warn("incorrect pin", "person_id", person.ID)
			writeMessage(w, http.StatusUnauthorized, "incorrect PIN")
			return
		}
		if h.guard != nil {
			h.guard.Reset(key)
		}
	}

	token, exp, err := h.tokens.Issue(auth.AuthContext{
		HouseholdID: householdID,
		PersonID:    person.ID,
		IsAdmin:     person.IsAdmin,
	})
	if err != nil {
		h.logger.Error("issue token", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: exp, Person: person})
}
