package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/chore"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/recurrence"
	"github.com/dukerupert/chorely/internal/websocket"
)

type TaskAdmin interface {
	Create(ctx context.Context, in chore.TaskInput) (*model.Task, error)
	Update(ctx context.Context, id int64, in chore.TaskInput) (*model.Task, error)
	Deactivate(ctx context.Context, householdID, id int64) error
	List(ctx context.Context, householdID int64) ([]model.Task, error)
}

type TaskHandler struct {
	tasks  TaskAdmin
	hub    Broadcaster
	logger *slog.Logger
}

func NewTaskHandler(tasks TaskAdmin, hub Broadcaster, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, hub: orNop(hub), logger: logger}
}

type taskRequest struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	EstimatedMinutes   int             `json:"estimated_minutes"`
	Points             int             `json:"points"`
	AssignedTo         int64           `json:"assigned_to"`
	SecondaryAssignees []int64         `json:"secondary_assignees"`
	RecurrenceKind     string          `json:"recurrence_kind"`
	RecurrenceInterval int             `json:"recurrence_interval"`
	StartDate          recurrence.Day  `json:"start_date"`
	EndDate            *recurrence.Day `json:"end_date"`
	DueDate            *recurrence.Day `json:"due_date"`
	Priority           int             `json:"priority"`
}

func (req taskRequest) input(householdID int64) chore.TaskInput {
	return chore.TaskInput{
		HouseholdID:        householdID,
		Title:              req.Title,
		Description:        req.Description,
		EstimatedMinutes:   req.EstimatedMinutes,
		Points:             req.Points,
		AssignedTo:         req.AssignedTo,
		SecondaryAssignees: req.SecondaryAssignees,
		RecurrenceKind:     req.RecurrenceKind,
		RecurrenceInterval: req.RecurrenceInterval,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		DueDate:            req.DueDate,
		Priority:           req.Priority,
	}
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.List(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	householdID := auth.HouseholdID(r.Context())

	task, err := h.tasks.Create(r.Context(), req.input(householdID))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.hub.Broadcast(householdID, websocket.NewMessage("task", "created", task.ID, nil))
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	householdID := auth.HouseholdID(r.Context())

	task, err := h.tasks.Update(r.Context(), id, req.input(householdID))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.hub.Broadcast(householdID, websocket.NewMessage("task", "updated", task.ID, nil))
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	householdID := auth.HouseholdID(r.Context())

	if err := h.tasks.Deactivate(r.Context(), householdID, id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.hub.Broadcast(householdID, websocket.NewMessage("task", "deactivated", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
