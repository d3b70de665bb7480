package forecast

type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Thresholds classify a bucket count into a demand level. Policy lives in
// configuration, not code.
type Thresholds struct {
	LowMax    int // count <= LowMax is low
	MediumMax int // count <= MediumMax is medium, above is high
}

func (t Thresholds) Classify(count int) Level {
	switch {
	case count <= t.LowMax:
		return LevelLow
	case count <= t.MediumMax:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Bucket is a derived per-(date, hour) appointment count. Never persisted;
// recomputed from raw appointment data on every request.
type Bucket struct {
	Date  string `json:"date"` // local calendar date, YYYY-MM-DD
	Hour  int    `json:"hour"` // local hour of day, 0-23
	Count int    `json:"count"`
	Level Level  `json:"level"`
}

// Result is the output of a forecast run.
type Result struct {
	Buckets        []Bucket `json:"buckets"`
	PeakHours      []int    `json:"peak_hours"`
	LowDemandHours []int    `json:"low_demand_hours"`
}
