package interval

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var ErrInvalid = errors.New("interval start must be before end")

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

func (iv Interval) Validate() error {
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w: [%s, %s)", ErrInvalid, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}
	return nil
}

// Overlaps reports whether two half-open intervals intersect.
// Touching endpoints do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Shift returns the interval translated by d.
func (iv Interval) Shift(d time.Duration) Interval {
	return Interval{Start: iv.Start.Add(d), End: iv.End.Add(d)}
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}

// MaxConcurrent returns the largest number of intervals covering any single
// instant, via a sweep over start/end boundary points. Half-open semantics:
// at a shared boundary the ending interval is counted out before the
// starting one is counted in.
func MaxConcurrent(ivs []Interval) int {
	if len(ivs) == 0 {
		return 0
	}

	type boundary struct {
		at    time.Time
		delta int
	}

	points := make([]boundary, 0, 2*len(ivs))
	for _, iv := range ivs {
		points = append(points, boundary{at: iv.Start, delta: +1})
		points = append(points, boundary{at: iv.End, delta: -1})
	}

	sort.Slice(points, func(i, j int) bool {
		if points[i].at.Equal(points[j].at) {
			// Ends sort before starts so touching intervals do not stack.
			return points[i].delta < points[j].delta
		}
		return points[i].at.Before(points[j].at)
	})

	var cur, max int
	for _, p := range points {
		cur += p.delta
		if cur > max {
			max = cur
		}
	}
	return max
}
