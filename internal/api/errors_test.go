package api

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicops/resource-scheduler/internal/block"
	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/conflict"
	"github.com/clinicops/resource-scheduler/internal/interval"
	"github.com/clinicops/resource-scheduler/internal/schedule"
	"github.com/clinicops/resource-scheduler/internal/shift"
	"github.com/clinicops/resource-scheduler/internal/validation"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleDomainErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &validation.Error{Field: "customer_ref", Reason: "is required"}, 400, "validation_error"},
		{"malformed rule", &block.MalformedRuleError{Rule: "FREQ=WEEKLY", Reason: "missing COUNT"}, 422, "malformed_recurrence_rule"},
		{"resource not found", catalog.ErrResourceNotFound, 404, "resource_not_found"},
		{"menu not found", catalog.ErrMenuNotFound, 404, "menu_not_found"},
		{"appointment not found", schedule.ErrAppointmentNotFound, 404, "appointment_not_found"},
		{"block not found", block.ErrBlockNotFound, 404, "block_not_found"},
		{"shift not found", shift.ErrShiftNotFound, 404, "shift_not_found"},
		{"resource busy", schedule.ErrResourceBusy, 409, "resource_being_booked"},
		{"bad transition", schedule.ErrInvalidStatusTransition, 409, "invalid_status_transition"},
		{"shift overlap", shift.ErrShiftOverlap, 409, "shift_overlap"},
		{"unknown", errors.New("connection refused"), 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleDomainError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Error)
		})
	}
}

func TestHandleDomainErrorBlockedConflict(t *testing.T) {
	resourceID := uuid.New()
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	iv, err := interval.New(start, start.Add(time.Hour))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handleDomainError(rec, &schedule.ConflictError{
		ResourceID: resourceID,
		Result: conflict.Result{
			Kind:  conflict.KindBlocked,
			Block: &block.Occurrence{BlockID: uuid.New(), Interval: iv},
		},
	})

	assert.Equal(t, 409, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "conflict", resp.Error)
	require.NotNil(t, resp.Conflict)
	assert.Equal(t, string(conflict.KindBlocked), resp.Conflict.Kind)
	assert.Equal(t, resourceID, resp.Conflict.ResourceID)
	require.NotNil(t, resp.Conflict.BlockStart)
	assert.True(t, resp.Conflict.BlockStart.Equal(start))
	require.NotNil(t, resp.Conflict.BlockEnd)
	assert.True(t, resp.Conflict.BlockEnd.Equal(start.Add(time.Hour)))
}

func TestHandleDomainErrorOverCapacityConflict(t *testing.T) {
	resourceID := uuid.New()

	rec := httptest.NewRecorder()
	handleDomainError(rec, &schedule.ConflictError{
		ResourceID: resourceID,
		Result: conflict.Result{
			Kind:          conflict.KindOverCapacity,
			Count:         3,
			MaxConcurrent: 3,
		},
	})

	assert.Equal(t, 409, rec.Code)
	resp := decodeError(t, rec)
	require.NotNil(t, resp.Conflict)
	assert.Equal(t, string(conflict.KindOverCapacity), resp.Conflict.Kind)
	assert.Equal(t, 3, resp.Conflict.Count)
	assert.Equal(t, 3, resp.Conflict.MaxConcurrent)
	assert.Nil(t, resp.Conflict.BlockStart)
}
