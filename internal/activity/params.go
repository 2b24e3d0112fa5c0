package activity

import (
	"time"
)

// Params carries every tunable of the derivation pipeline. The defaults
// reproduce the provider processing conventions; deployments override them
// through the configuration layer.
type Params struct {
	// Observation eligibility. Rings stricter than StrictestRank are dropped,
	// and the lenient end is capped at max(observed minimum, LenientRankFloor).
	StrictestRank    int
	LenientRankFloor int

	// A weekday is a candidate market day when its strongest detection rank
	// is within this window of the globally strongest rank.
	CandidateRankWindow int

	// Excluded-date rules.
	CovidStart          time.Time
	CovidEnd            time.Time
	SparseImageryCutoff time.Time
	MaxTimeOffsetHours  float64
	MinClearPercent     float64
	MaxCloudPercent     float64

	// Statistical outlier rules.
	MinFootprintRatio float64
	IQRMultiplier     float64

	// Area selection quality gate.
	SelectorMinClearPercent float64

	// Baseline normalization.
	TrimLowerQuantile      float64
	TrimUpperQuantile      float64
	NormStart              time.Time
	NormEnd                time.Time
	SmoothingBufferDays    int
	MinSplineObservations  int
	SplineSmoothingDivisor float64
	SuperDoveReliableFrom  time.Time

	// Country name -> latitude threshold above which lat/lon in the location
	// identifier are assumed flipped.
	CoordinateSwaps map[string]float64
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DefaultParams returns the documented defaults of the pipeline.
func DefaultParams() Params {
	return Params{
		StrictestRank:       4,
		LenientRankFloor:    30,
		CandidateRankWindow: 3,

		CovidStart:          date(2020, time.March, 1),
		CovidEnd:            date(2021, time.February, 28),
		SparseImageryCutoff: date(2018, time.January, 1),
		MaxTimeOffsetHours:  0.5,
		MinClearPercent:     10,
		MaxCloudPercent:     50,

		MinFootprintRatio: 0.5,
		IQRMultiplier:     2,

		SelectorMinClearPercent: 90,

		TrimLowerQuantile:      0.10,
		TrimUpperQuantile:      0.90,
		NormStart:              date(2018, time.January, 1),
		NormEnd:                date(2018, time.December, 31),
		SmoothingBufferDays:    182,
		MinSplineObservations:  10,
		SplineSmoothingDivisor: 1.5,
		SuperDoveReliableFrom:  date(2020, time.March, 1),

		CoordinateSwaps: map[string]float64{
			"Kenya":    30,
			"Ethiopia": 20,
		},
	}
}
