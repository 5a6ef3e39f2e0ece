package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/middleware"
	"shared-notes-server/internal/service"
	"shared-notes-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusForbidden
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error onto the wire. Internal failures are logged
// with the request id and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)

	if kind == domain.KindInternal {
		log.Errorw("request failed",
			"request_id", middleware.GetRequestID(r),
			"path", r.URL.Path,
			"error", err,
		)
	}

	var conflictErr *service.ConflictError
	if errors.As(err, &conflictErr) {
		response.ErrorWithConflict(w, status, string(kind),
			"Conflict detected: the note was modified by another user", conflictErr.Report)
		return
	}

	response.Error(w, status, string(kind), domain.MessageOf(err))
}

// decode reads a JSON body into dst and runs struct validation. With strict
// set, unknown fields are rejected.
func decode(r *http.Request, v *validator.Validate, dst interface{}, strict bool) error {
	dec := json.NewDecoder(r.Body)
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Validation("Request body is required")
		}
		if strict && strings.HasPrefix(err.Error(), "json: unknown field") {
			return domain.Validation(strings.TrimPrefix(err.Error(), "json: "))
		}
		return domain.Validation("Invalid request payload")
	}

	if err := v.Struct(dst); err != nil {
		return domain.Validation(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validation(fmt.Sprintf("Invalid %s: %q", name, raw))
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Validation(fmt.Sprintf("Invalid %s: %q", name, raw))
	}
	return n, nil
}
