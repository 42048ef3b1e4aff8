package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/websocket"
)

// Broadcaster pushes live updates to a household's connected devices.
type Broadcaster interface {
	Broadcast(householdID int64, msg websocket.Message)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(int64, websocket.Message) {}

func orNop(b Broadcaster) Broadcaster {
	if b == nil {
		return nopBroadcaster{}
	}
	return b
}

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time

func orNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps engine errors onto HTTP statuses. Anything unrecognized is
// logged and reported as a 500 without leaking details.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	msg := err.Error()
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		msg = http.StatusText(status)
	}
	writeMessage(w, status, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, chore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chore.ErrAlreadyCompleted):
		return http.StatusConflict
	case errors.Is(err, chore.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, chore.ErrPrimaryIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chore.ErrInvalidRecurrence),
		errors.Is(err, chore.ErrInvalidRange),
		errors.Is(err, chore.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, chore.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

const maxBodyBytes = 1 << 20

func jsonDecoder(r *http.Request) *json.Decoder {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := jsonDecoder(r).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return false
	}
	return true
}
