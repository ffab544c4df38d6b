package v1

import (
	"errors"
	"net/http"

	"github.com/tallyplan/backend/internal/editor"
	"github.com/tallyplan/backend/internal/models"
	"github.com/tallyplan/backend/internal/schedule"
)

type httpError struct {
	Error string `json:"error" example:"the specified resource ID is not a valid UUID"`
}

// status returns the appropriate HTTP status for an error
func status(err error) int {
	var saveErr *schedule.SaveError
	if errors.As(err, &saveErr) {
		return http.StatusBadGateway
	}

	if errors.Is(err, models.ErrGeneral) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) ||
		errors.Is(err, editor.ErrSessionNotFound) ||
		errors.Is(err, schedule.ErrItemNotFound) {
		return http.StatusNotFound
	}

	if errors.Is(err, editor.ErrSaveInFlight) {
		return http.StatusConflict
	}

	return http.StatusBadRequest
}

var (
	errModeInvalid = errors.New("the schedule item mode must be one of PERCENTAGE, FIXED or REMAINING")
)
