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

type FolderHandler struct {
	service  *service.FolderService
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewFolderHandler(service *service.FolderService, log *zap.SugaredLogger) *FolderHandler {
	return &FolderHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

func (h *FolderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateFolderRequest
	if err := decode(r, h.validate, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	folder, err := h.service.Create(r.Context(), middleware.GetUserID(r), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Created(w, folder)
}

func (h *FolderHandler) List(w http.ResponseWriter, r *http.Request) {
	folders, err := h.service.List(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, folders)
}

func (h *FolderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	folderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.service.Delete(r.Context(), folderID, middleware.GetUserID(r)); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Message(w, "Folder deleted successfully")
}
