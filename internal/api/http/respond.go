package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"equiprent/internal/domain"
	"equiprent/internal/logger"
	"equiprent/internal/security"
	"equiprent/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// statusFor translates the error taxonomy into HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEquipmentNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrRentalNotFound),
		errors.Is(err, domain.ErrReservationNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrEquipmentNotAvailable),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrAlreadyCancelled),
		errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLimitExceeded),
		errors.Is(err, domain.ErrHasOverdueRentals):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrMemberInactive),
		errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, security.ErrExpiredToken),
		errors.Is(err, security.ErrWrongTokenType):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrPeriodInPast),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidCondition),
		errors.Is(err, domain.ErrInvalidTier),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrEmptyCategory),
		errors.Is(err, domain.ErrEmptyEmail),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
