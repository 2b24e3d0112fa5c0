package activity

import (
	"fmt"
	"math"
	"time"
)

// Sensor identifies the imagery generation an image was captured with.
type Sensor string

const (
	// SensorPS2 is the first-generation instrument.
	SensorPS2 Sensor = "PS2"
	// SensorSuperDove is the second-generation instrument (PSB.SD).
	SensorSuperDove Sensor = "PSB.SD"
)

// IsSuperDove reports whether the sensor belongs to the second generation,
// which is unreliable before March 2020.
func (s Sensor) IsSuperDove() bool {
	return s == SensorSuperDove
}

// MktDay classifies one (image, area) observation relative to the area's
// inferred market weekday.
type MktDay int

const (
	// MktDayUnset means the observation has not been classified yet.
	MktDayUnset MktDay = -1
	// MktDayNo is a confirmed non-market-day observation.
	MktDayNo MktDay = 0
	// MktDayYes is a confirmed market-day observation.
	MktDayYes MktDay = 1
	// MktDayCross marks an observation of a market area on a weekday other
	// than the area's detection weekday. Excluded from downstream statistics.
	MktDayCross MktDay = 99
)

// FullRingSub is the sub-strictness sentinel meaning "no sub-ring".
const FullRingSub = 100

// SubRankUnset marks a missing sub-strictness rank in provider exports.
const SubRankUnset = -1

// AreaID identifies one candidate detection ring by its strictness rank and
// sub-strictness rank.
type AreaID struct {
	Strictness    int
	SubStrictness int
}

// String renders the area identifier with single-digit ranks zero-padded,
// e.g. "04_05" or "04_100". This is the natural walking order of the rings.
func (a AreaID) String() string {
	return fmt.Sprintf("%s_%s", padRank(a.Strictness), padRank(a.SubStrictness))
}

// FullRing returns the full-ring variant of this area (sub-strictness 100).
func (a AreaID) FullRing() AreaID {
	return AreaID{Strictness: a.Strictness, SubStrictness: FullRingSub}
}

// IsFullRing reports whether the area is a full ring rather than a sub-ring.
func (a AreaID) IsFullRing() bool {
	return a.SubStrictness == FullRingSub
}

func padRank(r int) string {
	if r < 10 {
		return fmt.Sprintf("0%d", r)
	}
	return fmt.Sprintf("%d", r)
}

// RebaseWeekday converts a Monday-based calendar weekday (Monday=0..Sunday=6)
// into the provider weekday numbering used throughout the pipeline
// (Sunday=0..Saturday=6). The mapping is (wd+1) mod 7, a bijection on {0..6}.
func RebaseWeekday(calendarWeekday int) int {
	return (calendarWeekday + 1) % 7
}

// WeekdayOf returns the rebased weekday of a date. Go's time.Weekday is
// already Sunday-based, so the rebased numbering coincides with it.
func WeekdayOf(t time.Time) int {
	return int(t.Weekday())
}

// RawImageProperty is one row of the provider's per-image property export,
// before normalization. SystemIndex is the provider index key; quality fields
// are NaN when the provider did not report them.
type RawImageProperty struct {
	SystemIndex  string
	CloudPercent float64
	ClearPercent float64
	Acquired     time.Time
}

// ImageProperty is a normalized per-image property record.
type ImageProperty struct {
	Ident        string
	Instrument   Sensor
	CloudPercent float64
	ClearPercent float64
	Acquired     time.Time
}

// RawAreaObservation is one (image, candidate area) row of the provider's
// measures export. SubStrictnessRank is SubRankUnset when the column is empty.
type RawAreaObservation struct {
	Ident             string
	StrictnessRank    int
	SubStrictnessRank int
	WeekdayShp        int
	Sum               float64
	Count             float64
}

// AreaObservation is an eligibility-filtered observation with its composed
// area identifier and the weekday on which the area was detected as a
// candidate market zone.
type AreaObservation struct {
	Ident         string
	Area          AreaID
	WeekdayActive int
	Sum           float64
	Count         float64
}

// ImageInfo carries the calendar and coordinate fields derived from an image
// identifier and the structured location identifier. Dated is false when no
// date pattern parsed; such rows are dropped at the final filtering step.
type ImageInfo struct {
	Dated       bool
	Date        time.Time
	TimeDecimal float64
	Weekday     int
	Year        int
	Month       int
}

// Cell is one (sum, count) column pair of a wide image record. After the
// outlier filter's conversion step Sum holds the per-pixel mean. NaN means
// the value has been nulled.
type Cell struct {
	Sum   float64
	Count float64
}

// WideImageRecord is one pivoted row per (image, detection weekday) carrying
// one Cell per candidate area plus the merged property and info fields. The
// outlier filter mutates Cells in place; the area selector appends the
// designated metric fields.
type WideImageRecord struct {
	Ident         string
	Location      string
	WeekdayActive int
	MktDay        MktDay

	Dated       bool
	Date        time.Time
	TimeDecimal float64
	Weekday     int
	Year        int
	Month       int
	MktLat      float64
	MktLon      float64

	Instrument   Sensor
	CloudPercent float64
	ClearPercent float64
	Acquired     time.Time

	// Annotations set by the outlier filter.
	Excluded         bool
	DiffToMedianTime float64

	Cells map[AreaID]Cell

	// Set by the area selector / orchestrator.
	ActivityMetric  string
	ActivityMeasure float64
}

// Cell returns the record's cell for the given area, with NaN fields when the
// area was never observed for this image.
func (r *WideImageRecord) Cell(a AreaID) Cell {
	if c, ok := r.Cells[a]; ok {
		return c
	}
	return Cell{Sum: math.NaN(), Count: math.NaN()}
}

// MarketAreaAssignment is the ring designated as the activity signal for one
// inferred market weekday. Ambiguous is set when no ring cleanly separated
// market from non-market activity and the most lenient ring was used instead.
type MarketAreaAssignment struct {
	Weekday   int
	Area      AreaID
	Ambiguous bool
}

// BaselineKey groups baseline statistics per (detection weekday, sensor).
type BaselineKey struct {
	Weekday    int
	Instrument Sensor
}

// BaselineStats holds the two per-group baselines the normalization step
// consumes: the trimmed non-market mean and the smoothed market mean of the
// zero-centered series.
type BaselineStats struct {
	NonMarketMean float64
	MarketMean    float64
}

// ActivityRecord is one row of the final per-location activity table. The
// column set is the contract with downstream storage and reporting.
type ActivityRecord struct {
	ImageID             string
	Location            string
	Instrument          Sensor
	Date                time.Time
	Acquired            time.Time
	WeekdayActive       int
	MktDay              MktDay
	ActivityMetric      string
	ActivityMeasure     float64
	ActivityMeasureNorm float64
	ActWeekly           float64
}
