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

type PermissionHandler struct {
	service  *service.PermissionService
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewPermissionHandler(service *service.PermissionService, log *zap.SugaredLogger) *PermissionHandler {
	return &PermissionHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

func (h *PermissionHandler) Share(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req domain.ShareNoteRequest
	if err := decode(r, h.validate, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	perm, err := h.service.Share(r.Context(), noteID, middleware.GetUserID(r), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Created(w, perm)
}

func (h *PermissionHandler) List(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	perms, err := h.service.ListGrants(r.Context(), noteID, middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, perms)
}

func (h *PermissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	granteeID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req domain.UpdatePermissionRequest
	if err := decode(r, h.validate, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	perm, err := h.service.UpdateLevel(r.Context(), noteID, granteeID, middleware.GetUserID(r), req.Permission)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, perm)
}

func (h *PermissionHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	granteeID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.service.Revoke(r.Context(), noteID, granteeID, middleware.GetUserID(r)); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Message(w, "Access revoked")
}

func (h *PermissionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.service.Leave(r.Context(), noteID, middleware.GetUserID(r)); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Message(w, "You no longer have access to this note")
}

func (h *PermissionHandler) SharedWithMe(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.SharedWithMe(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, notes)
}
