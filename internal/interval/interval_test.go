package interval

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.UTC)
}

func TestNewRejectsEmptyAndInverted(t *testing.T) {
	_, err := New(at(10, 0), at(10, 0))
	require.ErrorIs(t, err, ErrInvalid)

	_, err = New(at(11, 0), at(10, 0))
	require.ErrorIs(t, err, ErrInvalid)

	iv, err := New(at(10, 0), at(11, 0))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, iv.Duration())
}

func TestOverlapsHalfOpen(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", Interval{at(9, 0), at(10, 0)}, Interval{at(11, 0), at(12, 0)}, false},
		{"touching endpoints", Interval{at(9, 0), at(10, 0)}, Interval{at(10, 0), at(11, 0)}, false},
		{"partial overlap", Interval{at(9, 0), at(10, 30)}, Interval{at(10, 0), at(11, 0)}, true},
		{"contained", Interval{at(9, 0), at(12, 0)}, Interval{at(10, 0), at(11, 0)}, true},
		{"identical", Interval{at(9, 0), at(10, 0)}, Interval{at(9, 0), at(10, 0)}, true},
		{"one minute overlap", Interval{at(9, 0), at(10, 1)}, Interval{at(10, 0), at(11, 0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestShiftPreservesDuration(t *testing.T) {
	iv := Interval{Start: at(9, 0), End: at(10, 30)}
	shifted := iv.Shift(7 * 24 * time.Hour)

	assert.Equal(t, iv.Duration(), shifted.Duration())
	assert.Equal(t, at(9, 0).AddDate(0, 0, 7), shifted.Start)
}

func TestMaxConcurrent(t *testing.T) {
	tests := []struct {
		name string
		ivs  []Interval
		want int
	}{
		{"empty", nil, 0},
		{"single", []Interval{{at(9, 0), at(10, 0)}}, 1},
		{
			"back to back do not stack",
			[]Interval{{at(9, 0), at(10, 0)}, {at(10, 0), at(11, 0)}},
			1,
		},
		{
			"three nested",
			[]Interval{{at(9, 0), at(12, 0)}, {at(10, 0), at(11, 0)}, {at(10, 30), at(11, 30)}},
			3,
		},
		{
			"staggered pair",
			[]Interval{{at(9, 0), at(10, 0)}, {at(9, 30), at(10, 30)}, {at(10, 0), at(11, 0)}},
			2,
		},
		{
			"same start",
			[]Interval{{at(9, 0), at(9, 30)}, {at(9, 0), at(10, 0)}, {at(9, 0), at(11, 0)}},
			3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MaxConcurrent(tt.ivs))
		})
	}
}

// bruteForceMax samples concurrency at every interval start, which is where a
// maximum must occur for half-open intervals.
func bruteForceMax(ivs []Interval) int {
	max := 0
	for _, probe := range ivs {
		n := 0
		for _, iv := range ivs {
			if !probe.Start.Before(iv.Start) && probe.Start.Before(iv.End) {
				n++
			}
		}
		if n > max {
			max = n
		}
	}
	return max
}

func TestMaxConcurrentMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(12) + 1
		ivs := make([]Interval, 0, n)
		for i := 0; i < n; i++ {
			start := at(8, 0).Add(time.Duration(rng.Intn(120)) * 5 * time.Minute)
			end := start.Add(time.Duration(rng.Intn(24)+1) * 5 * time.Minute)
			ivs = append(ivs, Interval{Start: start, End: end})
		}

		require.Equal(t, bruteForceMax(ivs), MaxConcurrent(ivs), "trial %d: %v", trial, ivs)
	}
}
