package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/conflict"
	"github.com/clinicops/resource-scheduler/internal/interval"
	"github.com/clinicops/resource-scheduler/internal/observability/metrics"
	redisclient "github.com/clinicops/resource-scheduler/internal/redis"
	"github.com/clinicops/resource-scheduler/internal/validation"
)

const (
	EventAppointmentCreated   = "APPOINTMENT_CREATED"
	EventAppointmentMoved     = "APPOINTMENT_MOVED"
	EventAppointmentConfirmed = "APPOINTMENT_CONFIRMED"
	EventAppointmentCompleted = "APPOINTMENT_COMPLETED"
	EventAppointmentCancelled = "APPOINTMENT_CANCELLED"
	EventHoldExpired          = "APPOINTMENT_HOLD_EXPIRED"
)

var (
	ErrResourceBusy            = errors.New("resource is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// ConflictError carries enough detail for the caller to explain the failure
// to a human: the resource, and either the blocking occurrence or the
// capacity numbers. It never references another tenant's data.
type ConflictError struct {
	ResourceID uuid.UUID
	Result     conflict.Result
}

func (e *ConflictError) Error() string {
	switch e.Result.Kind {
	case conflict.KindBlocked:
		return fmt.Sprintf("resource %s is blocked during %s", e.ResourceID, e.Result.Block.Interval)
	case conflict.KindOverCapacity:
		return fmt.Sprintf("resource %s is at capacity (%d of %d concurrent appointments)",
			e.ResourceID, e.Result.Count, e.Result.MaxConcurrent)
	default:
		return fmt.Sprintf("resource %s has a scheduling conflict", e.ResourceID)
	}
}

// Catalog is the slice of the resource catalog the scheduler needs.
type Catalog interface {
	GetResource(ctx context.Context, clinicID, id uuid.UUID) (*catalog.Resource, error)
	GetMenu(ctx context.Context, clinicID, id uuid.UUID) (*catalog.Menu, error)
	SupportsMenu(ctx context.Context, clinicID, resourceID, menuID uuid.UUID) (bool, error)
}

// ConflictChecker is implemented by conflict.Detector.
type ConflictChecker interface {
	Check(ctx context.Context, res *catalog.Resource, proposed interval.Interval, excludeID *uuid.UUID) (conflict.Result, error)
}

// Scheduler orchestrates create/move/cancel/confirm of appointments.
// Writes take a per-resource Redis lock for clean conflict reporting; the
// repository's transactional guard keeps the capacity invariant correct even
// if the lock is lost.
type Scheduler struct {
	repo     Repository
	catalog  Catalog
	detector ConflictChecker
	locker   redisclient.Locker
	metrics  *metrics.SchedulingMetrics
	logger   zerolog.Logger
	holdTTL  time.Duration
}

func NewScheduler(
	repo Repository,
	cat Catalog,
	detector ConflictChecker,
	locker redisclient.Locker,
	m *metrics.SchedulingMetrics,
	logger zerolog.Logger,
	holdTTL time.Duration,
) *Scheduler {
	return &Scheduler{
		repo:     repo,
		catalog:  cat,
		detector: detector,
		locker:   locker,
		metrics:  m,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		holdTTL:  holdTTL,
	}
}

type CreateInput struct {
	ClinicID    uuid.UUID
	ResourceID  uuid.UUID
	MenuID      *uuid.UUID
	Interval    interval.Interval
	CustomerRef string
	Origin      Origin
}

// Create books an appointment. Web bookings become pending holds with a TTL;
// staff bookings are confirmed outright.
func (s *Scheduler) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	if err := in.Interval.Validate(); err != nil {
		return nil, validation.Errorf("interval", "%v", err)
	}
	if strings.TrimSpace(in.CustomerRef) == "" {
		return nil, validation.Errorf("customer_ref", "required")
	}
	if in.Origin != OriginWeb && in.Origin != OriginStaff {
		return nil, validation.Errorf("origin", "must be web or staff")
	}

	res, err := s.catalog.GetResource(ctx, in.ClinicID, in.ResourceID)
	if err != nil {
		return nil, err
	}
	if !res.IsActive {
		return nil, validation.Errorf("resource_id", "resource is not active")
	}

	if in.MenuID != nil {
		menu, err := s.catalog.GetMenu(ctx, in.ClinicID, *in.MenuID)
		if err != nil {
			return nil, err
		}
		supported, err := s.catalog.SupportsMenu(ctx, in.ClinicID, in.ResourceID, *in.MenuID)
		if err != nil {
			return nil, err
		}
		if !supported {
			return nil, validation.Errorf("menu_id", "resource does not support this menu")
		}
		want := time.Duration(menu.DurationMinutes) * time.Minute
		if in.Interval.Duration() != want {
			return nil, validation.Errorf("interval", "duration %s does not match menu duration %s", in.Interval.Duration(), want)
		}
	}

	appt := &Appointment{
		ClinicID:    in.ClinicID,
		ResourceID:  in.ResourceID,
		MenuID:      in.MenuID,
		StartTime:   in.Interval.Start,
		EndTime:     in.Interval.End,
		CustomerRef: in.CustomerRef,
		Status:      StatusConfirmed,
	}
	if in.Origin == OriginWeb {
		appt.Status = StatusPending
		expiresAt := time.Now().Add(s.holdTTL)
		appt.ExpiresAt = &expiresAt
	}

	var created *Appointment
	err = s.locker.WithResourceLock(ctx, in.ResourceID, func(lockCtx context.Context) error {
		var err error
		created, err = s.placeGuarded(lockCtx, res, in.Interval, nil, func(guard Placement) (*Appointment, error) {
			return s.repo.CreateAppointment(lockCtx, appt, guard)
		})
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			s.metrics.ObserveBooking("create", "busy")
			return nil, ErrResourceBusy
		}
		s.observeOutcome("create", err)
		return nil, err
	}

	s.metrics.ObserveBooking("create", "ok")
	s.logEvent(ctx, created.ClinicID, created.ID, EventAppointmentCreated, map[string]any{
		"resource_id": created.ResourceID.String(),
		"start_time":  created.StartTime,
		"end_time":    created.EndTime,
		"status":      created.Status,
		"origin":      in.Origin,
	})

	return created, nil
}

type MoveInput struct {
	ClinicID      uuid.UUID
	AppointmentID uuid.UUID
	NewResourceID *uuid.UUID
	Interval      interval.Interval
}

// Move re-places an appointment on a (possibly different) resource. The
// update happens only after conflicts re-validate; on any failure the stored
// placement is unchanged.
func (s *Scheduler) Move(ctx context.Context, in MoveInput) (*Appointment, error) {
	if err := in.Interval.Validate(); err != nil {
		return nil, validation.Errorf("interval", "%v", err)
	}

	appt, err := s.repo.GetAppointment(ctx, in.ClinicID, in.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.Status.Terminal() {
		return nil, ErrInvalidStatusTransition
	}

	targetResourceID := appt.ResourceID
	if in.NewResourceID != nil {
		targetResourceID = *in.NewResourceID
	}

	res, err := s.catalog.GetResource(ctx, in.ClinicID, targetResourceID)
	if err != nil {
		return nil, err
	}
	if !res.IsActive {
		return nil, validation.Errorf("new_resource_id", "resource is not active")
	}

	excludeID := in.AppointmentID

	var moved *Appointment
	err = s.locker.WithResourceLock(ctx, targetResourceID, func(lockCtx context.Context) error {
		var err error
		moved, err = s.placeGuarded(lockCtx, res, in.Interval, &excludeID, func(guard Placement) (*Appointment, error) {
			return s.repo.MoveAppointment(lockCtx, in.ClinicID, in.AppointmentID, guard)
		})
		return err
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			s.metrics.ObserveBooking("move", "busy")
			return nil, ErrResourceBusy
		}
		s.observeOutcome("move", err)
		return nil, err
	}

	s.metrics.ObserveBooking("move", "ok")
	s.logEvent(ctx, moved.ClinicID, moved.ID, EventAppointmentMoved, map[string]any{
		"resource_id": moved.ResourceID.String(),
		"start_time":  moved.StartTime,
		"end_time":    moved.EndTime,
	})

	return moved, nil
}

// Cancel soft-deletes: a status transition only, never a physical delete, so
// forecast history survives. Cancelling an already-cancelled appointment is
// a no-op success.
func (s *Scheduler) Cancel(ctx context.Context, clinicID, id uuid.UUID) error {
	appt, err := s.repo.GetAppointment(ctx, clinicID, id)
	if err != nil {
		return fmt.Errorf("load appointment: %w", err)
	}

	switch appt.Status {
	case StatusCancelled:
		return nil
	case StatusCompleted:
		return ErrInvalidStatusTransition
	}

	cancelled, err := s.repo.UpdateStatus(ctx, clinicID, id, []Status{StatusPending, StatusConfirmed}, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another transition; re-read to decide.
			current, getErr := s.repo.GetAppointment(ctx, clinicID, id)
			if getErr != nil {
				return fmt.Errorf("load appointment after cancel race: %w", getErr)
			}
			if current.Status == StatusCancelled {
				return nil
			}
			return ErrInvalidStatusTransition
		}
		return fmt.Errorf("cancel appointment: %w", err)
	}

	s.metrics.ObserveBooking("cancel", "ok")
	s.logEvent(ctx, cancelled.ClinicID, cancelled.ID, EventAppointmentCancelled, map[string]any{})
	return nil
}

// Confirm moves a pending hold to confirmed, re-checking conflicts first: a
// web-booked slot may have been taken by a staff booking since creation. On
// conflict the appointment stays pending for manual resolution.
func (s *Scheduler) Confirm(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, clinicID, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.Status != StatusPending {
		return nil, ErrInvalidStatusTransition
	}

	res, err := s.catalog.GetResource(ctx, clinicID, appt.ResourceID)
	if err != nil {
		return nil, err
	}

	var confirmed *Appointment
	err = s.locker.WithResourceLock(ctx, appt.ResourceID, func(lockCtx context.Context) error {
		excludeID := appt.ID
		result, err := s.detector.Check(lockCtx, res, appt.Interval(), &excludeID)
		if err != nil {
			return fmt.Errorf("conflict check: %w", err)
		}
		if result.Conflicting() {
			return &ConflictError{ResourceID: res.ID, Result: result}
		}

		confirmed, err = s.repo.UpdateStatus(lockCtx, clinicID, id, []Status{StatusPending}, StatusConfirmed)
		if err != nil {
			return fmt.Errorf("confirm appointment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			s.metrics.ObserveBooking("confirm", "busy")
			return nil, ErrResourceBusy
		}
		s.observeOutcome("confirm", err)
		return nil, err
	}

	s.metrics.ObserveBooking("confirm", "ok")
	s.logEvent(ctx, confirmed.ClinicID, confirmed.ID, EventAppointmentConfirmed, map[string]any{})
	return confirmed, nil
}

// Complete marks an attended appointment completed.
func (s *Scheduler) Complete(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	completed, err := s.repo.UpdateStatus(ctx, clinicID, id, []Status{StatusConfirmed}, StatusCompleted)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			if _, getErr := s.repo.GetAppointment(ctx, clinicID, id); getErr == nil {
				return nil, ErrInvalidStatusTransition
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.metrics.ObserveBooking("complete", "ok")
	s.logEvent(ctx, completed.ClinicID, completed.ID, EventAppointmentCompleted, map[string]any{})
	return completed, nil
}

// Get retrieves an appointment by id within the caller's tenant.
func (s *Scheduler) Get(ctx context.Context, clinicID, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, clinicID, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	return appt, nil
}

// ExpireStaleHolds cancels pending web holds whose TTL has lapsed. Intended
// to be called by the worker periodically.
func (s *Scheduler) ExpireStaleHolds(ctx context.Context) error {
	now := time.Now()
	stale, err := s.repo.FindExpiredHolds(ctx, now)
	if err != nil {
		return fmt.Errorf("find expired holds: %w", err)
	}

	for _, appt := range stale {
		_, err := s.repo.UpdateStatus(ctx, appt.ClinicID, appt.ID, []Status{StatusPending}, StatusCancelled)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			s.logger.Error().Err(err).Str("appointment_id", appt.ID.String()).Msg("failed to expire hold")
			continue
		}
		s.logEvent(ctx, appt.ClinicID, appt.ID, EventHoldExpired, map[string]any{
			"reason": "worker",
		})
	}

	return nil
}

// placeGuarded runs the pre-check for good error messages, then the guarded
// write for correctness. If the store-level re-check loses a race the losing
// writer retries exactly once with a refreshed read; a second failure is a
// real conflict, not a transient one.
func (s *Scheduler) placeGuarded(
	ctx context.Context,
	res *catalog.Resource,
	proposed interval.Interval,
	excludeID *uuid.UUID,
	write func(guard Placement) (*Appointment, error),
) (*Appointment, error) {
	guard := Placement{ResourceID: res.ID, MaxConcurrent: res.MaxConcurrent, Interval: proposed}

	for attempt := 0; attempt < 2; attempt++ {
		result, err := s.detector.Check(ctx, res, proposed, excludeID)
		if err != nil {
			return nil, fmt.Errorf("conflict check: %w", err)
		}
		if result.Conflicting() {
			return nil, &ConflictError{ResourceID: res.ID, Result: result}
		}

		placed, err := write(guard)
		if err == nil {
			return placed, nil
		}
		if !errors.Is(err, ErrCapacityGuard) {
			return nil, err
		}
		// The store saw a writer we did not; loop re-reads once.
	}

	return nil, &ConflictError{
		ResourceID: res.ID,
		Result: conflict.Result{
			Kind:          conflict.KindOverCapacity,
			Count:         res.MaxConcurrent,
			MaxConcurrent: res.MaxConcurrent,
		},
	}
}

func (s *Scheduler) observeOutcome(operation string, err error) {
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		s.metrics.ObserveBooking(operation, "conflict")
		s.metrics.ObserveConflict(string(conflictErr.Result.Kind))
		return
	}
	s.metrics.ObserveBooking(operation, "error")
}

func (s *Scheduler) logEvent(ctx context.Context, clinicID, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		ClinicID:      clinicID,
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("failed to insert event log")
	}
}
