package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-registry/internal/auth"
	"github.com/BuzzLyutic/task-registry/internal/model"
	"github.com/BuzzLyutic/task-registry/internal/service"
	"github.com/BuzzLyutic/task-registry/pkg/respond"
)

type createRequest struct {
	Description string         `json:"description"`
	Owner       model.Identity `json:"owner"`
}

type callerRequest struct {
	Caller model.Identity `json:"caller"`
}

type updateRequest struct {
	Caller      model.Identity `json:"caller"`
	Description string         `json:"description"`
}

type transferRequest struct {
	Caller   model.Identity `json:"caller"`
	NewOwner model.Identity `json:"new_owner"`
}

type TaskHandler struct {
	service *service.TaskService
	logger  *zap.Logger
}

func NewTaskHandler(srv *service.TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := auth.ParseIdentity(req.Owner); err != nil {
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid owner: %v", err))
		return
	}

	id, err := h.service.Create(r.Context(), req.Description, req.Owner)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/tasks/%d", id))
	respond.JSON(w, r, http.StatusCreated, map[string]uint32{"id": id})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	if !found {
		h.handleErrors(w, r, service.ErrTaskNotFound)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.GetAll(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) ListByOwner(w http.ResponseWriter, r *http.Request) {
	owner := model.Identity(chi.URLParam(r, "owner"))

	tasks, err := h.service.GetByOwner(r.Context(), owner)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	var req callerRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.finish(w, r, h.service.Complete(r.Context(), id, req.Caller))
}

func (h *TaskHandler) UpdateDescription(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.finish(w, r, h.service.UpdateDescription(r.Context(), id, req.Caller, req.Description))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	caller := model.Identity(r.URL.Query().Get("caller"))

	h.finish(w, r, h.service.SoftDelete(r.Context(), id, caller))
}

func (h *TaskHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, err := auth.ParseIdentity(req.NewOwner); err != nil {
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid new_owner: %v", err))
		return
	}

	h.finish(w, r, h.service.TransferOwnership(r.Context(), id, req.Caller, req.NewOwner))
}

func (h *TaskHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, stats)
}

// finish answers a mutation with the stored task or the error.
func (h *TaskHandler) finish(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	id, _ := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	task, _, err := h.service.GetByID(r.Context(), uint32(id))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return false
	}
	return true
}

func taskID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return uint32(id), true
}

func (h *TaskHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		respond.Error(w, r, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrTaskNotFound):
		respond.ErrorCode(w, r, http.StatusNotFound, err.Error(), service.CodeTaskNotFound)
	case errors.Is(err, service.ErrInvalidTaskData):
		respond.ErrorCode(w, r, http.StatusBadRequest, err.Error(), service.CodeInvalidTaskData)
	case errors.Is(err, service.ErrUnauthorized):
		respond.ErrorCode(w, r, http.StatusForbidden, err.Error(), service.CodeUnauthorized)
	case errors.Is(err, service.ErrTaskAlreadyCompleted):
		respond.ErrorCode(w, r, http.StatusConflict, err.Error(), service.CodeTaskAlreadyCompleted)
	case errors.Is(err, context.Canceled):
		h.logger.Info("request canceled", zap.String("path", r.URL.Path))
		respond.Error(w, r, http.StatusServiceUnavailable, "request canceled")
	default:
		h.logger.Error("internal error", zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
