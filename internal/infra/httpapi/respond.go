package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"padel_notifier/internal/app"
	idb "padel_notifier/internal/infra/database"
)

// ErrorResponse is the error shape for every API error.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, status, resp)
}

// writeServiceError maps service and repository errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", verrs.Error())
	case errors.Is(err, app.ErrInvalidBooking), errors.Is(err, app.ErrInvalidDevice):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	case errors.Is(err, idb.ErrLocationNotFound),
		errors.Is(err, idb.ErrBookingNotFound),
		errors.Is(err, idb.ErrUserNotFound),
		errors.Is(err, idb.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
