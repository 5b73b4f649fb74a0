package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"wallet-ledger-go/internal/api"
	"wallet-ledger-go/internal/store"

	"go.uber.org/zap"
)

const (
	statusSuccess = "success"
	statusError   = "error"

	msgInvalidBody = "Invalid request body"
)

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON writes a success envelope
func JSON(w http.ResponseWriter, status int, message string, data interface{}) {
	write(w, status, APIResponse{Status: statusSuccess, Message: message, Data: data})
}

// Error writes an error envelope
func Error(w http.ResponseWriter, status int, msg string) {
	write(w, status, APIResponse{Status: statusError, Message: msg})
}

func write(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		zap.L().Warn("Failed to encode response", zap.Error(err))
	}
}

// ServiceError renders an engine failure. Unclassified failures are logged
// and reported without detail.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	var engineErr *api.Error
	if status == http.StatusInternalServerError || !errors.As(err, &engineErr) {
		zap.L().Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		Error(w, status, api.MsgInternal)
		return
	}
	Error(w, status, engineErr.Message)
}

func statusFor(err error) int {
	var engineErr *api.Error
	if !errors.As(err, &engineErr) {
		return http.StatusInternalServerError
	}
	switch {
	case errors.Is(err, store.ErrValidation), errors.Is(err, store.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrInvalidSignature), errors.Is(err, store.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrDuplicateTransaction):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
