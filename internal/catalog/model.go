package catalog

import (
	"time"

	"github.com/google/uuid"
)

type ResourceType string

const (
	ResourceStaff  ResourceType = "staff"
	ResourceRoom   ResourceType = "room"
	ResourceBed    ResourceType = "bed"
	ResourceDevice ResourceType = "device"
)

func (t ResourceType) Valid() bool {
	switch t {
	case ResourceStaff, ResourceRoom, ResourceBed, ResourceDevice:
		return true
	}
	return false
}

// DayWindow is a half-open [start, end) window in minutes from local
// midnight, e.g. {540, 1080} for 9:00-18:00.
type DayWindow struct {
	StartMinute int `json:"start_minute"`
	EndMinute   int `json:"end_minute"`
}

// WorkingHours maps weekdays (time.Weekday, Sunday=0) to the window the
// resource is bookable on that day. Days absent from the map are days off.
type WorkingHours map[time.Weekday]DayWindow

// Resource is a bookable entity: a staff member, room, bed or device.
// MaxConcurrent lets one resource (e.g. an open gym bed) serve several
// appointments at once.
type Resource struct {
	ID            uuid.UUID
	ClinicID      uuid.UUID
	Name          string
	Type          ResourceType
	MaxConcurrent int
	WorkingHours  WorkingHours
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Option struct {
	Name  string `json:"name"`
	Price int    `json:"price"`
}

// Menu defines a bookable service and how long it occupies a resource.
type Menu struct {
	ID              uuid.UUID
	ClinicID        uuid.UUID
	Name            string
	DurationMinutes int
	Price           int
	Options         []Option
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
