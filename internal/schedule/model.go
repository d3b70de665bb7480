package schedule

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/interval"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Origin distinguishes web self-bookings from staff bookings. Web bookings
// start as pending holds with a TTL; staff bookings are confirmed outright.
type Origin string

const (
	OriginWeb   Origin = "web"
	OriginStaff Origin = "staff"
)

type Appointment struct {
	ID          uuid.UUID
	ClinicID    uuid.UUID
	ResourceID  uuid.UUID
	MenuID      *uuid.UUID
	StartTime   time.Time
	EndTime     time.Time
	Status      Status
	CustomerRef string
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (a *Appointment) Interval() interval.Interval {
	return interval.Interval{Start: a.StartTime, End: a.EndTime}
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type EventLog struct {
	ID            int64
	ClinicID      uuid.UUID
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
