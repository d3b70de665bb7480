package block

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/clinicops/resource-scheduler/internal/interval"
)

// The supported recurrence grammar is deliberately narrow: FREQ=WEEKLY;COUNT=n.
// Anything else is a MalformedRuleError, never a silent fallback. If richer
// recurrence is ever needed, adopt an RRULE library instead of growing this.

const maxRecurrenceCount = 520 // ten years of weekly occurrences

// MalformedRuleError reports a recurrence rule outside the supported grammar.
type MalformedRuleError struct {
	Rule   string
	Reason string
}

func (e *MalformedRuleError) Error() string {
	return fmt.Sprintf("malformed recurrence rule %q: %s", e.Rule, e.Reason)
}

// Rule is a parsed weekly recurrence: Count occurrences, 7 days apart,
// the template interval being the first.
type Rule struct {
	Count int
}

// ParseRule parses FREQ=WEEKLY;COUNT=n.
func ParseRule(raw string) (Rule, error) {
	parts := strings.Split(strings.TrimSpace(raw), ";")
	if len(parts) != 2 {
		return Rule{}, &MalformedRuleError{Rule: raw, Reason: "expected FREQ=WEEKLY;COUNT=n"}
	}

	if !strings.EqualFold(parts[0], "FREQ=WEEKLY") {
		return Rule{}, &MalformedRuleError{Rule: raw, Reason: "only FREQ=WEEKLY is supported"}
	}

	key, val, ok := strings.Cut(parts[1], "=")
	if !ok || !strings.EqualFold(key, "COUNT") {
		return Rule{}, &MalformedRuleError{Rule: raw, Reason: "expected COUNT=n after FREQ"}
	}

	n, err := strconv.Atoi(val)
	if err != nil {
		return Rule{}, &MalformedRuleError{Rule: raw, Reason: fmt.Sprintf("COUNT %q is not numeric", val)}
	}
	if n < 1 || n > maxRecurrenceCount {
		return Rule{}, &MalformedRuleError{Rule: raw, Reason: fmt.Sprintf("COUNT must be between 1 and %d", maxRecurrenceCount)}
	}

	return Rule{Count: n}, nil
}

// Expand materializes the occurrences of a block that intersect the window.
// Pure: nothing is persisted, the template stays the single source of truth.
// A malformed stored rule expands as non-recurring; callers are expected to
// flag it for operator review.
func Expand(b *Block, window interval.Interval) ([]Occurrence, error) {
	tpl := b.Interval()

	if b.RecurrenceRule == nil || *b.RecurrenceRule == "" {
		if tpl.Overlaps(window) {
			return []Occurrence{{BlockID: b.ID, Interval: tpl}}, nil
		}
		return nil, nil
	}

	rule, err := ParseRule(*b.RecurrenceRule)
	if err != nil {
		var occs []Occurrence
		if tpl.Overlaps(window) {
			occs = []Occurrence{{BlockID: b.ID, Interval: tpl}}
		}
		return occs, err
	}

	var occs []Occurrence
	for i := 0; i < rule.Count; i++ {
		occ := tpl.Shift(time.Duration(i) * 7 * 24 * time.Hour)
		if !occ.Start.Before(window.End) {
			// Occurrences are monotonic; nothing later can intersect.
			break
		}
		if occ.Overlaps(window) {
			occs = append(occs, Occurrence{BlockID: b.ID, Interval: occ})
		}
	}
	return occs, nil
}
