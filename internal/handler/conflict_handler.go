package handler

import (
	"net/http"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/middleware"
	"shared-notes-server/internal/service"
	"shared-notes-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const defaultConflictLogLimit = 20

type ConflictHandler struct {
	service  *service.ConflictService
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewConflictHandler(service *service.ConflictService, log *zap.SugaredLogger) *ConflictHandler {
	return &ConflictHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

func (h *ConflictHandler) Detect(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req domain.DetectConflictRequest
	if err := decode(r, h.validate, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	report, err := h.service.Detect(r.Context(), noteID, middleware.GetUserID(r), req.ExpectedVersion, req.Content)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, domain.DetectConflictResponse{HasConflict: report != nil, Conflict: report})
}

func (h *ConflictHandler) Active(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	report, err := h.service.CheckForActiveConflict(r.Context(), noteID, middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, domain.DetectConflictResponse{HasConflict: report != nil, Conflict: report})
}

func (h *ConflictHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req domain.ConflictResolutionRequest
	if err := decode(r, h.validate, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	note, err := h.service.Resolve(r.Context(), noteID, middleware.GetUserID(r), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, note)
}

func (h *ConflictHandler) List(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultConflictLogLimit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	entries, err := h.service.ListRecorded(r.Context(), noteID, middleware.GetUserID(r), limit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, entries)
}
