package shift

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/interval"
)

type ShiftStatus string

const (
	ShiftDraft     ShiftStatus = "draft"
	ShiftProposed  ShiftStatus = "proposed"
	ShiftConfirmed ShiftStatus = "confirmed"
	ShiftCancelled ShiftStatus = "cancelled"
)

func (s ShiftStatus) Valid() bool {
	switch s {
	case ShiftDraft, ShiftProposed, ShiftConfirmed, ShiftCancelled:
		return true
	}
	return false
}

type StaffShift struct {
	ID              uuid.UUID
	ClinicID        uuid.UUID
	StaffResourceID uuid.UUID
	StartTime       time.Time
	EndTime         time.Time
	Status          ShiftStatus
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (s *StaffShift) Interval() interval.Interval {
	return interval.Interval{Start: s.StartTime, End: s.EndTime}
}

type PreferenceType string

const (
	PrefGeneral        PreferenceType = "general"
	PrefDayOff         PreferenceType = "day_off"
	PrefTimePreference PreferenceType = "time_preference"
	PrefShiftPattern   PreferenceType = "shift_pattern"
)

func (t PreferenceType) Valid() bool {
	switch t {
	case PrefGeneral, PrefDayOff, PrefTimePreference, PrefShiftPattern:
		return true
	}
	return false
}

// StaffPreference is an advisory staffing constraint. Weekday applies to
// day_off and shift_pattern; StartHour/EndHour bound the preferred working
// window for time_preference. Preferences bias suggestion ranking, they
// never block a suggestion outright.
type StaffPreference struct {
	ID              uuid.UUID
	ClinicID        uuid.UUID
	StaffResourceID uuid.UUID
	Type            PreferenceType
	Priority        int // 1-5, higher weighs more
	Weekday         *time.Weekday
	StartHour       *int
	EndHour         *int
	ValidFrom       *time.Time
	ValidUntil      *time.Time
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidOn reports whether the preference applies on the given day.
func (p *StaffPreference) ValidOn(day time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.ValidFrom != nil && day.Before(*p.ValidFrom) {
		return false
	}
	if p.ValidUntil != nil && !day.Before(*p.ValidUntil) {
		return false
	}
	return true
}

// Suggestion recommends adding staff coverage for a forecasted busy hour.
// Advisory data only; it never auto-creates or auto-confirms a shift.
type Suggestion struct {
	Date            string     `json:"date"` // local calendar date, YYYY-MM-DD
	Hour            int        `json:"hour"`
	Count           int        `json:"count"`
	Level           string     `json:"level"`
	StaffResourceID *uuid.UUID `json:"staff_resource_id,omitempty"`
	StaffName       string     `json:"staff_name,omitempty"`
	Rationale       string     `json:"rationale"`
}
