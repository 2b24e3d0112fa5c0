package activity

import (
	"math"
)

// The outlier filter nulls observations that are image-quality outliers
// (cloud, sun angle, incomplete footprint) or statistical outliers relative
// to their (detection weekday, market-day flag, sensor) group. Thresholds are
// always computed from the non-excluded reference subset before any nulling
// pass that depends on them; nulling itself applies to every row.

// footprintKey groups the typical pixel count per area.
type footprintKey struct {
	WeekdayActive int
	MktDay        MktDay
}

// outlierKey groups the median/IQR thresholds.
type outlierKey struct {
	WeekdayActive int
	MktDay        MktDay
	Instrument    Sensor
}

// CleanActivityMeasures runs the full outlier pass over the wide records:
// excluded-date flagging, conversion of area sums to per-pixel means,
// footprint-coverage nulling and median+IQR nulling.
func CleanActivityMeasures(records []*WideImageRecord, areas []AreaID, p Params) {
	AnnotateQuality(records, p)
	ConvertToPixelMeans(records, areas)
	ApplyOutlierRules(records, areas, p)
}

// AnnotateQuality computes each record's offset from the per-sensor median
// acquisition time and flags rows falling on excluded dates: the
// Covid-affected window, the sparse-imagery era, atypical acquisition times,
// and low-quality images. Excluded rows stay in the table but are omitted
// from every threshold computation.
func AnnotateQuality(records []*WideImageRecord, p Params) {
	timesBySensor := make(map[Sensor][]float64)
	for _, r := range records {
		timesBySensor[r.Instrument] = append(timesBySensor[r.Instrument], r.TimeDecimal)
	}
	medianBySensor := make(map[Sensor]float64, len(timesBySensor))
	for sensor, times := range timesBySensor {
		medianBySensor[sensor] = median(times)
	}

	for _, r := range records {
		r.DiffToMedianTime = math.Abs(r.TimeDecimal - medianBySensor[r.Instrument])

		excluded := false
		if r.Dated {
			if !r.Date.Before(p.CovidStart) && !r.Date.After(p.CovidEnd) {
				excluded = true // potentially Covid-affected
			}
			if r.Date.Before(p.SparseImageryCutoff) {
				excluded = true // sparse imagery era, generally noisier
			}
		}
		if r.DiffToMedianTime > p.MaxTimeOffsetHours {
			excluded = true // differing sun angle
		}
		if !math.IsNaN(r.ClearPercent) && r.ClearPercent < p.MinClearPercent {
			excluded = true
		}
		if !math.IsNaN(r.CloudPercent) && r.CloudPercent > p.MaxCloudPercent {
			excluded = true
		}
		r.Excluded = excluded
	}
}

// ConvertToPixelMeans divides each area's summed measure by its pixel count,
// turning it into a per-pixel mean. Zero or missing counts null the result
// rather than raising.
func ConvertToPixelMeans(records []*WideImageRecord, areas []AreaID) {
	for _, r := range records {
		for _, a := range areas {
			c, ok := r.Cells[a]
			if !ok {
				continue
			}
			if c.Count == 0 || math.IsNaN(c.Count) {
				c.Sum = math.NaN()
			} else {
				c.Sum = c.Sum / c.Count
			}
			r.Cells[a] = c
		}
	}
}

// ApplyOutlierRules nulls unreliable values per area: first cells from images
// covering less than MinFootprintRatio of the group's typical footprint, then
// values exceeding the group median by more than IQRMultiplier times the IQR.
// Rerunning the pass on its own output produces no additional nulls.
func ApplyOutlierRules(records []*WideImageRecord, areas []AreaID, p Params) {
	for _, a := range areas {
		// Typical number of pixels per shape, from the clean reference subset.
		maxCounts := make(map[footprintKey]float64)
		for _, r := range records {
			if r.Excluded {
				continue
			}
			key := footprintKey{r.WeekdayActive, r.MktDay}
			cnt := r.Cell(a).Count
			if math.IsNaN(cnt) {
				continue
			}
			if cur, ok := maxCounts[key]; !ok || cnt > cur {
				maxCounts[key] = cnt
			}
		}

		// Snapshot of the counts: the footprint predicate for both variables
		// must see the pre-nulling values.
		counts := make([]float64, len(records))
		for i, r := range records {
			counts[i] = r.Cell(a).Count
		}
		partial := func(i int) bool {
			max, ok := maxCounts[footprintKey{records[i].WeekdayActive, records[i].MktDay}]
			return ok && counts[i] < p.MinFootprintRatio*max
		}

		for i, r := range records {
			if partial(i) {
				c := r.Cell(a)
				c.Sum = math.NaN()
				r.Cells[a] = c
			}
		}
		nullBeyondIQR(records, a, p, func(c Cell) float64 { return c.Sum }, func(c *Cell, v float64) { c.Sum = v })

		for i, r := range records {
			if partial(i) {
				c := r.Cell(a)
				c.Count = math.NaN()
				r.Cells[a] = c
			}
		}
		nullBeyondIQR(records, a, p, func(c Cell) float64 { return c.Count }, func(c *Cell, v float64) { c.Count = v })
	}
}

// nullBeyondIQR computes median and IQR of one cell variable per
// (detection weekday, market-day flag, sensor) group from the non-excluded
// rows, then nulls every value above median + IQRMultiplier*IQR.
func nullBeyondIQR(records []*WideImageRecord, a AreaID, p Params, get func(Cell) float64, set func(*Cell, float64)) {
	groups := make(map[outlierKey][]float64)
	for _, r := range records {
		if r.Excluded {
			continue
		}
		key := outlierKey{r.WeekdayActive, r.MktDay, r.Instrument}
		groups[key] = append(groups[key], get(r.Cell(a)))
	}

	type bounds struct{ median, iqr float64 }
	thresholds := make(map[outlierKey]bounds, len(groups))
	for key, vals := range groups {
		thresholds[key] = bounds{median: median(vals), iqr: iqr(vals)}
	}

	for _, r := range records {
		b, ok := thresholds[outlierKey{r.WeekdayActive, r.MktDay, r.Instrument}]
		if !ok {
			continue
		}
		c := r.Cell(a)
		if v := get(c); v > b.median+p.IQRMultiplier*b.iqr {
			set(&c, math.NaN())
			r.Cells[a] = c
		}
	}
}
