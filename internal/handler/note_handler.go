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

type NoteHandler struct {
	service  *service.NoteService
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewNoteHandler(service *service.NoteService, log *zap.SugaredLogger) *NoteHandler {
	return &NoteHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateNoteRequest
	if err := decode(r, h.validate, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	note, err := h.service.Create(r.Context(), middleware.GetUserID(r), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Created(w, note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.service.List(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, notes)
}

func (h *NoteHandler) ListByFolder(w http.ResponseWriter, r *http.Request) {
	folderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	notes, err := h.service.ListByFolder(r.Context(), folderID, middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	note, err := h.service.Get(r.Context(), noteID, middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req domain.UpdateNoteRequest
	if err := decode(r, h.validate, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	note, err := h.service.Update(r.Context(), noteID, middleware.GetUserID(r), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) Move(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	var req domain.MoveNoteRequest
	if err := decode(r, h.validate, &req, true); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	note, err := h.service.Move(r.Context(), noteID, middleware.GetUserID(r), req.FolderID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, note)
}

func (h *NoteHandler) Copy(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	note, err := h.service.Copy(r.Context(), noteID, middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Created(w, note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	if err := h.service.Delete(r.Context(), noteID, middleware.GetUserID(r)); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Message(w, "Note deleted successfully")
}

func (h *NoteHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, stats)
}
