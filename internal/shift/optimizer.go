package shift

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/catalog"
	"github.com/clinicops/resource-scheduler/internal/forecast"
	"github.com/clinicops/resource-scheduler/internal/interval"
	"github.com/clinicops/resource-scheduler/internal/validation"
)

// DemandSource is implemented by forecast.Forecaster.
type DemandSource interface {
	Forecast(ctx context.Context, clinicID uuid.UUID, resourceID *uuid.UUID, window interval.Interval) (*forecast.Result, error)
}

// StaffSource lists active staff resources; the catalog service implements it.
type StaffSource interface {
	ListActiveResources(ctx context.Context, clinicID uuid.UUID, typeFilter *catalog.ResourceType) ([]catalog.Resource, error)
}

// Optimizer combines demand forecasts with shift and preference records to
// produce ranked coverage suggestions. Output is advisory only.
type Optimizer struct {
	demand DemandSource
	repo   Repository
	staff  StaffSource
	loc    *time.Location
}

func NewOptimizer(demand DemandSource, repo Repository, staff StaffSource, loc *time.Location) *Optimizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Optimizer{
		demand: demand,
		repo:   repo,
		staff:  staff,
		loc:    loc,
	}
}

// Suggest emits one suggestion per medium/high demand hour that no confirmed
// shift covers, busiest hours first. Staff preferences bias which candidate
// is proposed for the slot; they never suppress the suggestion itself.
func (o *Optimizer) Suggest(ctx context.Context, clinicID uuid.UUID, window interval.Interval) ([]Suggestion, error) {
	if err := window.Validate(); err != nil {
		return nil, validation.Errorf("date_range", "%v", err)
	}

	result, err := o.demand.Forecast(ctx, clinicID, nil, window)
	if err != nil {
		return nil, err
	}

	confirmed := ShiftConfirmed
	shifts, err := o.repo.ListShifts(ctx, clinicID, window, &confirmed)
	if err != nil {
		return nil, fmt.Errorf("list confirmed shifts: %w", err)
	}

	staffType := catalog.ResourceStaff
	staff, err := o.staff.ListActiveResources(ctx, clinicID, &staffType)
	if err != nil {
		return nil, err
	}

	prefs, err := o.repo.ListPreferences(ctx, clinicID, nil, true)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	prefsByStaff := make(map[uuid.UUID][]StaffPreference)
	for _, p := range prefs {
		prefsByStaff[p.StaffResourceID] = append(prefsByStaff[p.StaffResourceID], p)
	}

	activeStaff := make(map[uuid.UUID]struct{}, len(staff))
	for i := range staff {
		activeStaff[staff[i].ID] = struct{}{}
	}

	var suggestions []Suggestion
	for _, bucket := range result.Buckets {
		if bucket.Level == forecast.LevelLow {
			continue
		}

		hour, err := o.bucketHour(bucket)
		if err != nil {
			return nil, err
		}
		if covered(shifts, activeStaff, hour) {
			continue
		}

		sug := Suggestion{
			Date:  bucket.Date,
			Hour:  bucket.Hour,
			Count: bucket.Count,
			Level: string(bucket.Level),
			Rationale: fmt.Sprintf("demand level %s (%d bookings) on %s at %02d:00, no confirmed shift covering this window",
				bucket.Level, bucket.Count, bucket.Date, bucket.Hour),
		}

		if best := pickCandidate(staff, prefsByStaff, hour.Start, bucket.Hour); best != nil {
			id := best.ID
			sug.StaffResourceID = &id
			sug.StaffName = best.Name
		}

		suggestions = append(suggestions, sug)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Count > suggestions[j].Count
	})
	return suggestions, nil
}

func (o *Optimizer) bucketHour(b forecast.Bucket) (interval.Interval, error) {
	day, err := time.ParseInLocation("2006-01-02", b.Date, o.loc)
	if err != nil {
		return interval.Interval{}, fmt.Errorf("parse bucket date %q: %w", b.Date, err)
	}
	start := day.Add(time.Duration(b.Hour) * time.Hour)
	return interval.Interval{Start: start, End: start.Add(time.Hour)}, nil
}

// covered reports whether a confirmed shift for a still-active staff member
// overlaps the hour. A shift held by a deactivated staff member covers
// nothing.
func covered(shifts []StaffShift, activeStaff map[uuid.UUID]struct{}, hour interval.Interval) bool {
	for i := range shifts {
		if _, ok := activeStaff[shifts[i].StaffResourceID]; !ok {
			continue
		}
		if shifts[i].Interval().Overlaps(hour) {
			return true
		}
	}
	return false
}

// pickCandidate prefers staff with no conflicting preference for the slot;
// among conflicted staff, a lower-priority conflict wins. Name breaks ties
// so ranking stays deterministic.
func pickCandidate(staff []catalog.Resource, prefsByStaff map[uuid.UUID][]StaffPreference, day time.Time, hour int) *catalog.Resource {
	if len(staff) == 0 {
		return nil
	}

	type ranked struct {
		res     *catalog.Resource
		penalty int
	}

	candidates := make([]ranked, 0, len(staff))
	for i := range staff {
		candidates = append(candidates, ranked{
			res:     &staff[i],
			penalty: conflictPenalty(prefsByStaff[staff[i].ID], day, hour),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].penalty != candidates[j].penalty {
			return candidates[i].penalty < candidates[j].penalty
		}
		return candidates[i].res.Name < candidates[j].res.Name
	})
	return candidates[0].res
}

// conflictPenalty is the highest priority among the staff member's
// preferences that conflict with working (day, hour): a day_off on that
// weekday, or a time_preference window excluding the hour. Zero means no
// conflict.
func conflictPenalty(prefs []StaffPreference, day time.Time, hour int) int {
	penalty := 0
	for i := range prefs {
		p := &prefs[i]
		if !p.ValidOn(day) {
			continue
		}

		conflicting := false
		switch p.Type {
		case PrefDayOff:
			conflicting = p.Weekday != nil && *p.Weekday == day.Weekday()
		case PrefTimePreference:
			if p.StartHour != nil && p.EndHour != nil {
				conflicting = hour < *p.StartHour || hour >= *p.EndHour
			}
		}

		if conflicting && p.Priority > penalty {
			penalty = p.Priority
		}
	}
	return penalty
}
