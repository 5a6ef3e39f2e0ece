package response

import (
	"encoding/json"
	"net/http"
	"time"
)

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ErrorBody struct {
	Kind      string      `json:"kind"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
	Conflict  interface{} `json:"conflict,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	write(w, statusCode, Response{
		Success: statusCode < 400,
		Data:    data,
	})
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

func Message(w http.ResponseWriter, message string) {
	write(w, http.StatusOK, Response{Success: true, Message: message})
}

func Error(w http.ResponseWriter, statusCode int, kind, message string) {
	ErrorWithConflict(w, statusCode, kind, message, nil)
}

// ErrorWithConflict attaches a conflict report so the client can reconcile
// without another round trip.
func ErrorWithConflict(w http.ResponseWriter, statusCode int, kind, message string, conflict interface{}) {
	write(w, statusCode, Response{
		Success: false,
		Error: &ErrorBody{
			Kind:      kind,
			Message:   message,
			Timestamp: time.Now().UTC(),
			Conflict:  conflict,
		},
	})
}

func BadRequest(w http.ResponseWriter, err string) {
	Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err)
}

func Unauthorized(w http.ResponseWriter, err string) {
	Error(w, http.StatusUnauthorized, "UNAUTHENTICATED", err)
}

func Forbidden(w http.ResponseWriter, err string) {
	Error(w, http.StatusForbidden, "UNAUTHORIZED", err)
}

func NotFound(w http.ResponseWriter, err string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", err)
}

func TooManyRequests(w http.ResponseWriter, err string) {
	Error(w, http.StatusTooManyRequests, "RATE_LIMITED", err)
}

func InternalError(w http.ResponseWriter, err string) {
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", err)
}

func write(w http.ResponseWriter, statusCode int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
