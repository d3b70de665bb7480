package api

import (
	"errors"
	"net/http"

	"github.com/clinicops/resource-scheduler/internal/block"
	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/conflict"
	"github.com/clinicops/resource-scheduler/internal/schedule"
	"github.com/clinicops/resource-scheduler/internal/shift"
	"github.com/clinicops/resource-scheduler/internal/validation"
)

// handleDomainError translates core errors into HTTP responses. Not-found
// covers rows in other tenants too, so nothing here can leak tenant
// existence.
func handleDomainError(w http.ResponseWriter, err error) {
	var validationErr *validation.Error
	if errors.As(err, &validationErr) {
		writeError(w, http.StatusBadRequest, "validation_error", validationErr.Error())
		return
	}

	var malformedRule *block.MalformedRuleError
	if errors.As(err, &malformedRule) {
		writeError(w, http.StatusUnprocessableEntity, "malformed_recurrence_rule", malformedRule.Error())
		return
	}

	var conflictErr *schedule.ConflictError
	if errors.As(err, &conflictErr) {
		writeConflict(w, conflictErr)
		return
	}

	switch {
	case errors.Is(err, catalog.ErrResourceNotFound):
		writeError(w, http.StatusNotFound, "resource_not_found", "resource not found")
	case errors.Is(err, catalog.ErrMenuNotFound):
		writeError(w, http.StatusNotFound, "menu_not_found", "menu not found")
	case errors.Is(err, schedule.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", "appointment not found")
	case errors.Is(err, block.ErrBlockNotFound):
		writeError(w, http.StatusNotFound, "block_not_found", "block not found")
	case errors.Is(err, shift.ErrShiftNotFound):
		writeError(w, http.StatusNotFound, "shift_not_found", "shift not found")
	case errors.Is(err, schedule.ErrResourceBusy):
		writeError(w, http.StatusConflict, "resource_being_booked", "resource is currently being booked, please retry shortly")
	case errors.Is(err, schedule.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, shift.ErrShiftOverlap):
		writeError(w, http.StatusConflict, "shift_overlap", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

// writeConflict surfaces which resource and which overlapping block/count
// caused the failure, so the caller can offer the next available slot.
func writeConflict(w http.ResponseWriter, conflictErr *schedule.ConflictError) {
	detail := &ConflictDetail{
		Kind:       string(conflictErr.Result.Kind),
		ResourceID: conflictErr.ResourceID,
	}
	switch conflictErr.Result.Kind {
	case conflict.KindBlocked:
		iv := conflictErr.Result.Block.Interval
		detail.BlockStart = &iv.Start
		detail.BlockEnd = &iv.End
	case conflict.KindOverCapacity:
		detail.Count = conflictErr.Result.Count
		detail.MaxConcurrent = conflictErr.Result.MaxConcurrent
	}

	writeJSON(w, http.StatusConflict, ErrorResponse{
		Error:    "conflict",
		Details:  conflictErr.Error(),
		Conflict: detail,
	})
}
