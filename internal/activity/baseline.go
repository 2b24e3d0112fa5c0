package activity

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"
)

// dayEpoch anchors the integer day-offset axis the smoother works on.
var dayEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

func daysSinceEpoch(t time.Time) int {
	return int(t.Sub(dayEpoch).Hours() / 24)
}

// BaselineObservation is one input row for baseline computation: the raw
// activity measure of the weekday's designated area together with the
// grouping fields.
type BaselineObservation struct {
	Ident         string
	WeekdayActive int
	Instrument    Sensor
	MktDay        MktDay
	Date          time.Time
	Measure       float64
}

// ComputeBaselines derives, per (detection weekday, sensor) pair, the
// non-market baseline mean (trimmed to the central distribution) and the
// market-day smoothed mean of the zero-centered series over the reference
// window. Duplicate (sensor, weekday, image) observations and null measures
// are dropped first.
func ComputeBaselines(ctx context.Context, logger *slog.Logger, obs []BaselineObservation, p Params) map[BaselineKey]BaselineStats {
	type dedupeKey struct {
		Instrument    Sensor
		WeekdayActive int
		Ident         string
	}
	seen := make(map[dedupeKey]bool)
	clean := make([]BaselineObservation, 0, len(obs))
	for _, o := range obs {
		if math.IsNaN(o.Measure) {
			continue
		}
		dk := dedupeKey{o.Instrument, o.WeekdayActive, o.Ident}
		if seen[dk] {
			continue
		}
		seen[dk] = true
		clean = append(clean, o)
	}
	sort.Slice(clean, func(i, j int) bool { return clean[i].Date.Before(clean[j].Date) })

	nonMkt := make(map[BaselineKey][]float64)
	for _, o := range clean {
		if o.MktDay == MktDayNo {
			key := BaselineKey{o.WeekdayActive, o.Instrument}
			nonMkt[key] = append(nonMkt[key], o.Measure)
		}
	}
	stats := make(map[BaselineKey]BaselineStats)
	for key, vals := range nonMkt {
		stats[key] = BaselineStats{
			NonMarketMean: trimmedMean(vals, p.TrimLowerQuantile, p.TrimUpperQuantile),
			MarketMean:    math.NaN(),
		}
	}

	// Zero the market observations against the non-market mean, then smooth
	// each group over time.
	type series struct {
		dates []time.Time
		vals  []float64
	}
	mkt := make(map[BaselineKey]*series)
	for _, o := range clean {
		if o.MktDay != MktDayYes {
			continue
		}
		key := BaselineKey{o.WeekdayActive, o.Instrument}
		base, ok := stats[key]
		if !ok || math.IsNaN(base.NonMarketMean) {
			continue
		}
		s, ok := mkt[key]
		if !ok {
			s = &series{}
			mkt[key] = s
		}
		s.dates = append(s.dates, o.Date)
		s.vals = append(s.vals, o.Measure-base.NonMarketMean)
	}

	for key, s := range mkt {
		m := SmoothedMean(ctx, logger, key.Instrument, s.dates, s.vals, p.NormStart, p.NormEnd, p)
		st := stats[key]
		st.MarketMean = m
		stats[key] = st
	}
	return stats
}

// SmoothedMean consolidates a value series to one observation per calendar
// day, restricts it to a buffered window around the reference range, and
// returns the mean of a spline-smoothed fit over that range. Series too small
// for a stable spline fall back to time-based linear interpolation. Smoothed
// values are clipped to the observed range to prevent spline overshoot.
func SmoothedMean(ctx context.Context, logger *slog.Logger, instrument Sensor, dates []time.Time, vals []float64, start, end time.Time, p Params) float64 {
	hasRange := !start.IsZero() && !end.IsZero()

	// Second-generation imagery is unreliable before the instrument matured.
	kept := make(map[time.Time][]float64)
	for i, d := range dates {
		if math.IsNaN(vals[i]) {
			continue
		}
		if instrument.IsSuperDove() && d.Before(p.SuperDoveReliableFrom) {
			continue
		}
		day := d.Truncate(24 * time.Hour)
		kept[day] = append(kept[day], vals[i])
	}

	buffer := time.Duration(p.SmoothingBufferDays) * 24 * time.Hour
	type daily struct {
		date time.Time
		val  float64
	}
	var series []daily
	for day, vs := range kept {
		if hasRange && (day.Before(start.Add(-buffer)) || day.After(end.Add(buffer))) {
			continue
		}
		series = append(series, daily{day, mean(vs)})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].date.Before(series[j].date) })

	if len(series) == 0 {
		return math.NaN()
	}

	obsDates := make([]time.Time, len(series))
	obsVals := make([]float64, len(series))
	for i, d := range series {
		obsDates[i] = d.date
		obsVals[i] = d.val
	}

	if len(series) < p.MinSplineObservations {
		// Too little data for a stable spline fit.
		return interpolatedMean(obsDates, obsVals, start, end, hasRange)
	}

	x := make([]float64, len(series))
	for i, d := range obsDates {
		x[i] = float64(daysSinceEpoch(d))
	}
	s := float64(len(obsVals)) * variancePop(obsVals) / p.SplineSmoothingDivisor
	sp, err := FitSmoothingSpline(x, obsVals, s)
	if err != nil {
		logger.WarnContext(ctx, "spline fit failed, falling back to interpolation",
			"instrument", string(instrument),
			"error", err,
		)
		return interpolatedMean(obsDates, obsVals, start, end, hasRange)
	}

	yMin, yMax := obsVals[0], obsVals[0]
	for _, v := range obsVals {
		yMin = math.Min(yMin, v)
		yMax = math.Max(yMax, v)
	}

	// Evaluate at every integer day, clipped to the observed value range, and
	// average over the non-buffered range of interest.
	var meanLo, meanHi int
	if hasRange {
		meanLo = daysSinceEpoch(start)
		meanHi = daysSinceEpoch(end)
	} else {
		meanLo = int(x[0]) + p.SmoothingBufferDays
		meanHi = int(x[len(x)-1]) - p.SmoothingBufferDays
	}
	var sum float64
	var n int
	for day := int(x[0]); day <= int(x[len(x)-1]); day++ {
		if day < meanLo || day > meanHi {
			continue
		}
		v := sp.At(float64(day))
		v = math.Min(math.Max(v, yMin), yMax)
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	smoothed := sum / float64(n)

	// Large discrepancy between the smoothed and the simple mean is a signal
	// for manual review, not a failure.
	var inRange []float64
	for i, d := range obsDates {
		if hasRange && (d.Before(start) || d.After(end)) {
			continue
		}
		inRange = append(inRange, obsVals[i])
	}
	simple := mean(inRange)
	sd := stddev(inRange)
	if !math.IsNaN(sd) && math.Abs(smoothed-simple) > sd {
		logger.WarnContext(ctx, "smoothed mean diverges from simple mean by more than one standard deviation",
			"instrument", string(instrument),
			"smoothed_mean", smoothed,
			"simple_mean", simple,
			"stddev", sd,
		)
	}
	return smoothed
}

// interpolatedMean is the small-sample fallback: the daily series is
// reindexed to the requested date range, linearly interpolated over the date
// axis (holding the last value after the final observation, leaving days
// before the first observation unset), and averaged.
func interpolatedMean(dates []time.Time, vals []float64, start, end time.Time, hasRange bool) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	if !hasRange {
		return mean(vals)
	}

	known := make(map[int]float64, len(vals))
	var days []int
	for i, d := range dates {
		if d.Before(start) || d.After(end) {
			continue
		}
		day := daysSinceEpoch(d)
		known[day] = vals[i]
		days = append(days, day)
	}
	if len(days) == 0 {
		return math.NaN()
	}
	sort.Ints(days)

	first, last := days[0], days[len(days)-1]
	var sum float64
	var n int
	for day := first; day <= daysSinceEpoch(end); day++ {
		var v float64
		switch {
		case day > last:
			v = known[last]
		default:
			if kv, ok := known[day]; ok {
				v = kv
			} else {
				lo := days[sort.SearchInts(days, day)-1]
				hi := days[sort.SearchInts(days, day)]
				frac := float64(day-lo) / float64(hi-lo)
				v = known[lo]*(1-frac) + known[hi]*frac
			}
		}
		sum += v
		n++
	}
	return sum / float64(n)
}
