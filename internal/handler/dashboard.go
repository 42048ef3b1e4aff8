package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/recurrence"
)

type DashboardAssembler interface {
	Assemble(ctx context.Context, q chore.Query, now time.Time) (*chore.Dashboard, error)
}

// Calendar maps an instant to the household's calendar date.
type Calendar interface {
	Today(now time.Time) recurrence.Day
}

type DashboardHandler struct {
	assembler DashboardAssembler
	calendar  Calendar
	now       Clock
	logger    *slog.Logger
}

func NewDashboardHandler(a DashboardAssembler, cal Calendar, now Clock, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{assembler: a, calendar: cal, now: orNow(now), logger: logger}
}

// Get serves ?date=YYYY-MM-DD, or ?from=&to= for a range, defaulting to today.
// ?person= narrows the view to one assignee.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	q, err := h.parseQuery(r, now)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	q.HouseholdID = auth.HouseholdID(r.Context())

	dash, err := h.assembler.Assemble(r.Context(), q, now)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *DashboardHandler) parseQuery(r *http.Request, now time.Time) (chore.Query, error) {
	values := r.URL.Query()
	today := h.calendar.Today(now)
	q := chore.Query{From: today, To: today}

	parse := func(name string) (recurrence.Day, bool, error) {
		s := values.Get(name)
		if s == "" {
			return recurrence.Day{}, false, nil
		}
		d, err := recurrence.ParseDay(s)
		if err != nil {
			return recurrence.Day{}, false, fmt.Errorf("invalid %s: want YYYY-MM-DD", name)
		}
		return d, true, nil
	}

	date, ok, err := parse("date")
	if err != nil {
		return q, err
	}
	if ok {
		q.From, q.To = date, date
	}
	if from, ok, err := parse("from"); err != nil {
		return q, err
	} else if ok {
		q.From = from
	}
	if to, ok, err := parse("to"); err != nil {
		return q, err
	} else if ok {
		q.To = to
	}

	if s := values.Get("person"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return q, fmt.Errorf("invalid person id")
		}
		q.PersonID = &id
	}
	return q, nil
}
