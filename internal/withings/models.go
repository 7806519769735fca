// Package withings syncs body metrics from the Withings measure API into
// the local store. Rows are upserted by (metric type, date) and the body
// composition types are additionally folded into one measurement record per
// day.
package withings

import "time"

// MetricType identifies one Withings measure type we track.
type MetricType string

const (
	MetricWeight     MetricType = "weight"
	MetricFatRatio   MetricType = "fat_ratio"
	MetricMuscleMass MetricType = "muscle_mass"
	MetricBoneMass   MetricType = "bone_mass"
	MetricHeartRate  MetricType = "heart_rate"
)

// measureTypeCodes maps metric types to the Withings API meastype codes.
var measureTypeCodes = map[MetricType]int{
	MetricWeight:     1,
	MetricFatRatio:   6,
	MetricMuscleMass: 76,
	MetricBoneMass:   88,
	MetricHeartRate:  11,
}

// metricUnits is the unit stored alongside each metric row.
var metricUnits = map[MetricType]string{
	MetricWeight:     "kg",
	MetricFatRatio:   "%",
	MetricMuscleMass: "kg",
	MetricBoneMass:   "kg",
	MetricHeartRate:  "bpm",
}

// bodyCompositionColumns maps the metric types that fold into the per-day
// body measurement record to their column. Types absent from this map only
// land in the raw metric table.
var bodyCompositionColumns = map[MetricType]string{
	MetricWeight:     "weight",
	MetricFatRatio:   "body_fat",
	MetricMuscleMass: "muscle_mass",
	MetricBoneMass:   "bone_mass",
}

// syncedMetrics is the fetch order of a sync run. The fetches themselves run
// concurrently.
var syncedMetrics = []MetricType{
	MetricWeight,
	MetricFatRatio,
	MetricMuscleMass,
	MetricBoneMass,
	MetricHeartRate,
}

// Measurement is one reading returned by the measure API.
type Measurement struct {
	Type    MetricType
	TakenAt time.Time
	Value   float64
}

// Metric is one stored per-day metric row.
type Metric struct {
	ID    string
	Type  MetricType
	Date  time.Time
	Value float64
	Unit  string
}

// BodyMeasurement is the merged per-day body composition record. Fields stay
// nil until some sync run delivers the corresponding metric for that day.
type BodyMeasurement struct {
	ID         string
	MeasuredOn time.Time
	Source     string
	Weight     *float64
	BodyFat    *float64
	MuscleMass *float64
	BoneMass   *float64
}

// Report summarizes one sync run.
type Report struct {
	Upserted  int
	Refreshed bool
}
