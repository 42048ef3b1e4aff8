package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/websocket"
)

type Completer interface {
	Complete(ctx context.Context, instanceID, personID int64, now time.Time) (*chore.CompletionResult, error)
}

type MemberLookup interface {
	GetByID(ctx context.Context, id int64) (*model.Person, error)
}

type InstanceHandler struct {
	completer Completer
	people    MemberLookup
	hub       Broadcaster
	now       Clock
	logger    *slog.Logger
}

func NewInstanceHandler(c Completer, people MemberLookup, hub Broadcaster, now Clock, logger *slog.Logger) *InstanceHandler {
	return &InstanceHandler{completer: c, people: people, hub: orNop(hub), now: orNow(now), logger: logger}
}

// Complete credits the selected profile, or with an admin profile, the
// person_id named in the body.
func (h *InstanceHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		PersonID *int64 `json:"person_id"`
	}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	ac, _ := auth.FromContext(r.Context())
	personID := ac.PersonID
	if req.PersonID != nil && *req.PersonID != ac.PersonID {
		if !auth.IsAdmin(r.Context()) {
			writeError(w, h.logger, chore.ErrNotAuthorized)
			return
		}
		personID = *req.PersonID
	}

	person, err := h.people.GetByID(r.Context(), personID)
	if err != nil {
		writeError(w, h.logger, errors.Join(chore.ErrStorageUnavailable, err))
		return
	}
	if person == nil || person.HouseholdID != ac.HouseholdID {
		writeError(w, h.logger, chore.ErrNotFound)
		return
	}

	result, err := h.completer.Complete(r.Context(), id, personID, h.now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Broadcast(ac.HouseholdID, websocket.NewMessage("instance", "completed", result.Instance.ID, map[string]any{
		"person_id":     personID,
		"points_earned": result.PointsEarned,
	}))
	writeJSON(w, http.StatusOK, result)
}

func decodeBody(r *http.Request, v any) error {
	err := jsonDecoder(r).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
