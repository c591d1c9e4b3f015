package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/matrixise/tokenscan/internal/service"
	"github.com/matrixise/tokenscan/internal/validation"
)

const (
	msgInvalidBody  = "Invalid request body"
	msgInternal     = "Something went wrong! Try again later."
	msgInvalidToken = "Invalid token address"
)

type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type validationResponse struct {
	Success bool                    `json:"success"`
	Errors  []validation.FieldError `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details})
}

// writeServiceError maps a pipeline error onto a response. Validation
// failures list every field; anything else is a 500 carrying failMsg.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, failMsg string) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusBadRequest, validationResponse{Errors: vErr.Fields})
		return
	}

	slog.Error(failMsg,
		"path", r.URL.Path,
		"request_id", requestID(r),
		"error", err)
	writeError(w, http.StatusInternalServerError, failMsg, errorDetails(err))
}

// errorDetails is the message passed through to the client
func errorDetails(err error) string {
	var upErr *service.UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Message
	}
	return err.Error()
}
