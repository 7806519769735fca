// Package series implements user-defined metric tracks such as water or
// protein intake: series definitions, immutable logged points, and per-day
// aggregation.
package series

import "time"

// Aggregation is the daily rollup rule applied when several points share a
// calendar date.
type Aggregation string

const (
	AggregationSum     Aggregation = "sum"
	AggregationAverage Aggregation = "average"
	AggregationLast    Aggregation = "last"
	AggregationMax     Aggregation = "max"
)

// TrackerMode governs which dashboard affordance a series gets.
type TrackerMode string

const (
	ModeStandard TrackerMode = "standard"
	ModeQuickAdd TrackerMode = "quickadd"
	ModeCheckIn  TrackerMode = "checkin"
)

// Series is one user-defined metric track.
type Series struct {
	ID              string
	Name            string
	Unit            string
	Aggregation     Aggregation
	TrackerMode     TrackerMode
	DailyGoal       *float64
	QuickAddPresets []float64
}

// Point is one logged value. Points are immutable once logged except for
// deletion. RecordedAt orders same-day points for the last aggregation.
type Point struct {
	ID         string
	SeriesID   string
	Date       time.Time
	Value      float64
	RecordedAt time.Time
}

// DayValue is one aggregated calendar day of a series.
type DayValue struct {
	Date  time.Time
	Value float64
	Count int
}

// Snapshot is one series with its aggregated value for a single day, as
// shown on the dashboard. GoalMet is only meaningful when the series has a
// daily goal.
type Snapshot struct {
	Series  Series
	Date    time.Time
	Value   float64
	Count   int
	GoalMet bool
}

// Valid reports whether the aggregation is one of the supported rollups.
func (a Aggregation) Valid() bool {
	switch a {
	case AggregationSum, AggregationAverage, AggregationLast, AggregationMax:
		return true
	}
	return false
}

// Valid reports whether the tracker mode is supported.
func (m TrackerMode) Valid() bool {
	switch m {
	case ModeStandard, ModeQuickAdd, ModeCheckIn:
		return true
	}
	return false
}

// Aggregate folds same-day points into a single value. Points must belong to
// one calendar day; RecordedAt order decides which value is last.
func Aggregate(method Aggregation, points []Point) float64 {
	if len(points) == 0 {
		return 0
	}
	switch method {
	case AggregationSum:
		var sum float64
		for _, p := range points {
			sum += p.Value
		}
		return sum
	case AggregationAverage:
		var sum float64
		for _, p := range points {
			sum += p.Value
		}
		return sum / float64(len(points))
	case AggregationMax:
		best := points[0].Value
		for _, p := range points[1:] {
			if p.Value > best {
				best = p.Value
			}
		}
		return best
	case AggregationLast:
		last := points[0]
		for _, p := range points[1:] {
			if p.RecordedAt.After(last.RecordedAt) {
				last = p
			}
		}
		return last.Value
	}
	return 0
}
