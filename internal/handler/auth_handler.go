package handler

import (
	"net/http"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/service"
	"shared-notes-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service  *service.AuthService
	validate *validator.Validate
	log      *zap.SugaredLogger
}

func NewAuthHandler(service *service.AuthService, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		validate: validator.New(),
		log:      log,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decode(r, h.validate, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	h.log.Infow("user registered", "user_id", user.ID)
	response.Created(w, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decode(r, h.validate, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnauthorized {
			response.Unauthorized(w, domain.MessageOf(err))
			return
		}
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, resp)
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req domain.RefreshTokenRequest
	if err := decode(r, h.validate, &req, false); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	resp, err := h.service.RefreshToken(r.Context(), &req)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnauthorized {
			response.Unauthorized(w, domain.MessageOf(err))
			return
		}
		writeError(w, r, h.log, err)
		return
	}

	response.Success(w, resp)
}
