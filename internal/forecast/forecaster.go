package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/clinicops/resource-scheduler/internal/interval"
	"github.com/clinicops/resource-scheduler/internal/validation"
)

// AppointmentSource yields the start times of confirmed and completed
// appointments beginning inside the window. Cancelled appointments never
// contribute to demand.
type AppointmentSource interface {
	DemandStartTimes(ctx context.Context, clinicID uuid.UUID, resourceID *uuid.UUID, window interval.Interval) ([]time.Time, error)
}

// Forecaster aggregates historical booking density into demand buckets.
// Pure read-side: it never writes back to the appointment store.
type Forecaster struct {
	source     AppointmentSource
	thresholds Thresholds
	bizStart   int // business hours, local, half-open [bizStart, bizEnd)
	bizEnd     int
	loc        *time.Location
}

func NewForecaster(source AppointmentSource, thresholds Thresholds, bizStart, bizEnd int, loc *time.Location) *Forecaster {
	if loc == nil {
		loc = time.UTC
	}
	return &Forecaster{
		source:     source,
		thresholds: thresholds,
		bizStart:   bizStart,
		bizEnd:     bizEnd,
		loc:        loc,
	}
}

// Forecast buckets appointments by local (date, hour) of their start in the
// clinic timezone, classifies each bucket, and derives peak and low-demand
// hours. Each appointment counts exactly once.
func (f *Forecaster) Forecast(ctx context.Context, clinicID uuid.UUID, resourceID *uuid.UUID, window interval.Interval) (*Result, error) {
	if err := window.Validate(); err != nil {
		return nil, validation.Errorf("window", "%v", err)
	}

	starts, err := f.source.DemandStartTimes(ctx, clinicID, resourceID, window)
	if err != nil {
		return nil, fmt.Errorf("load demand start times: %w", err)
	}

	type key struct {
		date string
		hour int
	}

	counts := make(map[key]int)
	var hourTotals [24]int

	for _, start := range starts {
		local := start.In(f.loc)
		k := key{date: local.Format("2006-01-02"), hour: local.Hour()}
		counts[k]++
		hourTotals[local.Hour()]++
	}

	buckets := make([]Bucket, 0, len(counts))
	for k, count := range counts {
		buckets = append(buckets, Bucket{
			Date:  k.date,
			Hour:  k.hour,
			Count: count,
			Level: f.thresholds.Classify(count),
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Date != buckets[j].Date {
			return buckets[i].Date < buckets[j].Date
		}
		return buckets[i].Hour < buckets[j].Hour
	})

	return &Result{
		Buckets:        buckets,
		PeakHours:      peakHours(hourTotals),
		LowDemandHours: f.lowDemandHours(hourTotals),
	}, nil
}

// peakHours returns the top-3 hours by aggregate count, busiest first,
// earlier hour winning ties. Hours with no appointments never rank.
func peakHours(totals [24]int) []int {
	hours := make([]int, 0, 24)
	for h := 0; h < 24; h++ {
		if totals[h] > 0 {
			hours = append(hours, h)
		}
	}
	sort.Slice(hours, func(i, j int) bool {
		if totals[hours[i]] != totals[hours[j]] {
			return totals[hours[i]] > totals[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > 3 {
		hours = hours[:3]
	}
	return hours
}

// lowDemandHours returns business hours whose aggregate count classifies
// low, zero-booking hours included.
func (f *Forecaster) lowDemandHours(totals [24]int) []int {
	var low []int
	for h := f.bizStart; h < f.bizEnd; h++ {
		if f.thresholds.Classify(totals[h]) == LevelLow {
			low = append(low, h)
		}
	}
	return low
}
