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

type UserHandler struct {
	service  *service.UserService
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewUserHandler(service *service.UserService, log *zap.SugaredLogger) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByID(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, user)
}

func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByID(r.Context(), middleware.GetUserID(r))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, user.Preferences)
}

// UpdatePreferences replaces the caller's preferences. Keys outside the
// known set are rejected.
func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs domain.Preferences
	if err := decode(r, h.validate, &prefs, true); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	user, err := h.service.UpdatePreferences(r.Context(), middleware.GetUserID(r), prefs)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, user.Preferences)
}
