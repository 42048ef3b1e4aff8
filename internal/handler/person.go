package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
)

type PeopleLister interface {
	GetByID(ctx context.Context, id int64) (*model.Person, error)
	ListByHousehold(ctx context.Context, householdID int64) ([]model.Person, error)
}

type MarkLister interface {
	ListByPerson(ctx context.Context, personID int64) ([]model.BlackMark, error)
}

type PersonHandler struct {
	people PeopleLister
	marks  MarkLister
	logger *slog.Logger
}

func NewPersonHandler(people PeopleLister, marks MarkLister, logger *slog.Logger) *PersonHandler {
	return &PersonHandler{people: people, marks: marks, logger: logger}
}

func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	people, err := h.people.ListByHousehold(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list people", "error", err)
		writeMessage(w, http.StatusServiceUnavailable, "failed to list people")
		return
	}
	if people == nil {
		people = []model.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

// Marks lists the missed chores recorded against a household member.
func (h *PersonHandler) Marks(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	person, err := h.people.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get person", "person_id", id, "error", err)
		writeMessage(w, http.StatusServiceUnavailable, "failed to look up person")
		return
	}
	if person == nil || person.HouseholdID != auth.HouseholdID(r.Context()) {
		writeMessage(w, http.StatusNotFound, "person not found")
		return
	}

	marks, err := h.marks.ListByPerson(r.Context(), id)
	if err != nil {
		h.logger.Error("list black marks", "person_id", id, "error", err)
		writeMessage(w, http.StatusServiceUnavailable, "failed to list black marks")
		return
	}
	if marks == nil {
		marks = []model.BlackMark{}
	}
	writeJSON(w, http.StatusOK, marks)
}
