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

type VersionHandler struct {
	service  *service.VersionService
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewVersionHandler(service *service.VersionService, log *zap.SugaredLogger) *VersionHandler {
	return &VersionHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

func (h *VersionHandler) List(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	versions, err := h.service.List(r.Context(), noteID, middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, versions)
}

func (h *VersionHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	versionNumber, err := pathID(r, "version")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	version, err := h.service.Get(r.Context(), noteID, versionNumber, middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, version)
}

func (h *VersionHandler) Count(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	count, err := h.service.Count(r.Context(), noteID, middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, map[string]int64{"count": count})
}

func (h *VersionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	versionNumber, err := pathID(r, "version")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	note, err := h.service.Restore(r.Context(), noteID, versionNumber, middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, note)
}

func (h *VersionHandler) Prune(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req domain.PruneVersionsRequest
	if err := decode(r, h.validate, &req, true); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	result, err := h.service.Prune(r.Context(), noteID, req.KeepLast, middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, result)
}
