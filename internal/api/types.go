package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/block"
	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/schedule"
	"github.com/clinicops/resource-scheduler/internal/shift"
)

type CreateAppointmentRequest struct {
	ResourceID  string    `json:"resource_id"`
	MenuID      string    `json:"menu_id,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	CustomerRef string    `json:"customer_ref"`
	Origin      string    `json:"origin"` // web or staff
}

type MoveAppointmentRequest struct {
	NewResourceID string    `json:"new_resource_id,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
}

type AppointmentResponse struct {
	ID          uuid.UUID  `json:"id"`
	ResourceID  uuid.UUID  `json:"resource_id"`
	MenuID      *uuid.UUID `json:"menu_id,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Status      string     `json:"status"`
	CustomerRef string     `json:"customer_ref"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func toAppointmentResponse(a *schedule.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		ResourceID:  a.ResourceID,
		MenuID:      a.MenuID,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Status:      string(a.Status),
		CustomerRef: a.CustomerRef,
		ExpiresAt:   a.ExpiresAt,
	}
}

type ResourceResponse struct {
	ID            uuid.UUID            `json:"id"`
	Name          string               `json:"name"`
	Type          string               `json:"type"`
	MaxConcurrent int                  `json:"max_concurrent"`
	WorkingHours  catalog.WorkingHours `json:"working_hours"`
	IsActive      bool                 `json:"is_active"`
}

func toResourceResponse(r *catalog.Resource) ResourceResponse {
	return ResourceResponse{
		ID:            r.ID,
		Name:          r.Name,
		Type:          string(r.Type),
		MaxConcurrent: r.MaxConcurrent,
		WorkingHours:  r.WorkingHours,
		IsActive:      r.IsActive,
	}
}

type CreateBlockRequest struct {
	ResourceID     string    `json:"resource_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	RecurrenceRule string    `json:"recurrence_rule,omitempty"`
}

type BlockResponse struct {
	ID             uuid.UUID `json:"id"`
	ResourceID     uuid.UUID `json:"resource_id"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	RecurrenceRule *string   `json:"recurrence_rule,omitempty"`
	IsActive       bool      `json:"is_active"`
}

func toBlockResponse(b *block.Block) BlockResponse {
	return BlockResponse{
		ID:             b.ID,
		ResourceID:     b.ResourceID,
		StartTime:      b.StartTime,
		EndTime:        b.EndTime,
		RecurrenceRule: b.RecurrenceRule,
		IsActive:       b.IsActive,
	}
}

type OccurrenceResponse struct {
	BlockID   uuid.UUID `json:"block_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type CreateShiftRequest struct {
	StaffResourceID string    `json:"staff_resource_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Notes           string    `json:"notes,omitempty"`
}

type ShiftResponse struct {
	ID              uuid.UUID `json:"id"`
	StaffResourceID uuid.UUID `json:"staff_resource_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
}

func toShiftResponse(s *shift.StaffShift) ShiftResponse {
	return ShiftResponse{
		ID:              s.ID,
		StaffResourceID: s.StaffResourceID,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Status:          string(s.Status),
		Notes:           s.Notes,
	}
}

type PreferenceResponse struct {
	ID              uuid.UUID  `json:"id"`
	StaffResourceID uuid.UUID  `json:"staff_resource_id"`
	Type            string     `json:"preference_type"`
	Priority        int        `json:"priority"`
	Weekday         *int       `json:"weekday,omitempty"`
	StartHour       *int       `json:"start_hour,omitempty"`
	EndHour         *int       `json:"end_hour,omitempty"`
	ValidFrom       *time.Time `json:"valid_from,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	IsActive        bool       `json:"is_active"`
}

func toPreferenceResponse(p *shift.StaffPreference) PreferenceResponse {
	resp := PreferenceResponse{
		ID:              p.ID,
		StaffResourceID: p.StaffResourceID,
		Type:            string(p.Type),
		Priority:        p.Priority,
		StartHour:       p.StartHour,
		EndHour:         p.EndHour,
		ValidFrom:       p.ValidFrom,
		ValidUntil:      p.ValidUntil,
		IsActive:        p.IsActive,
	}
	if p.Weekday != nil {
		wd := int(*p.Weekday)
		resp.Weekday = &wd
	}
	return resp
}

type ErrorResponse struct {
	Error    string          `json:"error"`
	Details  string          `json:"details,omitempty"`
	Conflict *ConflictDetail `json:"conflict,omitempty"`
}

// ConflictDetail tells the caller what collided: the blocking interval for a
// block conflict, or the occupancy numbers for a capacity breach.
type ConflictDetail struct {
	Kind          string     `json:"kind"`
	ResourceID    uuid.UUID  `json:"resource_id"`
	BlockStart    *time.Time `json:"block_start,omitempty"`
	BlockEnd      *time.Time `json:"block_end,omitempty"`
	Count         int        `json:"count,omitempty"`
	MaxConcurrent int        `json:"max_concurrent,omitempty"`
}
