package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"maicli/internal/spatial"
)

// Processor sequences the activity derivation for one location. It holds no
// cross-location state; one Processor can run many locations, or callers can
// run one Processor per worker.
type Processor struct {
	params Params
	logger *slog.Logger
}

// NewProcessor creates a processor with the given parameters.
func NewProcessor(params Params, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{params: params, logger: logger}
}

// Input bundles one location's provider exports.
type Input struct {
	Location      string
	LocationGroup string
	Country       string
	Properties    []RawImageProperty
	Observations  []RawAreaObservation
	Shapes        []spatial.AreaShape
}

// Result is the derived per-location activity table plus the designated
// market areas and their shapes.
type Result struct {
	Records      []ActivityRecord
	Assignments  []MarketAreaAssignment
	MarketShapes []spatial.AreaShape

	// DatePatternIndex records which identifier date pattern matched, -1
	// when none did.
	DatePatternIndex int
}

// Run derives the normalized activity table for one location. It returns
// ErrNoMarketDay when the location has no derivable signal; callers skip the
// location and continue. Input-contract violations are fatal for this
// location only.
func (p *Processor) Run(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	logger := p.logger.With("location", in.Location, "location_group", in.LocationGroup)

	logger.InfoContext(ctx, "starting activity derivation",
		"properties", len(in.Properties),
		"observations", len(in.Observations),
		"shapes", len(in.Shapes),
	)

	props, err := NormalizeProperties(in.Properties)
	if err != nil {
		return nil, fmt.Errorf("normalize properties: %w", err)
	}

	obs, err := FilterEligibleObservations(in.Observations, p.params)
	if err != nil {
		return nil, fmt.Errorf("filter observations: %w", err)
	}
	if len(obs) == 0 {
		logger.WarnContext(ctx, "no eligible area observations")
		return nil, ErrNoMarketDay
	}
	areas := uniqueAreas(obs)

	idents := make([]string, 0, len(obs))
	seen := make(map[string]bool)
	for _, o := range obs {
		if !seen[o.Ident] {
			seen[o.Ident] = true
			idents = append(idents, o.Ident)
		}
	}
	infos, patternIdx, err := EnrichImages(ctx, logger, idents)
	if err != nil {
		if !errors.Is(err, ErrNoDatePattern) {
			return nil, fmt.Errorf("enrich images: %w", err)
		}
		logger.WarnContext(ctx, "no identifier date pattern matched, rows will be dropped at final filtering")
	}

	lat, lon := MarketCoordinates(in.Location)
	lat, lon = ApplyCoordinateFix(in.Country, p.params.CoordinateSwaps, lat, lon)

	candidates := CandidateMarketDays(obs, p.params.CandidateRankWindow)
	logger.InfoContext(ctx, "classified candidate market days", "weekdays", candidates)

	records := p.pivot(obs, infos, props, in.Location, lat, lon, candidates)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("derivation cancelled: %w", err)
	}

	CleanActivityMeasures(records, areas, p.params)

	assignments := SelectMarketAreas(ctx, logger, records, areas, p.params)
	if len(assignments) == 0 {
		logger.WarnContext(ctx, "no designated market area, skipping location")
		return nil, ErrNoMarketDay
	}

	var marketShapes []spatial.AreaShape
	for _, a := range assignments {
		logger.InfoContext(ctx, "designated market area",
			"weekday", a.Weekday,
			"area", a.Area.String(),
			"ambiguous", a.Ambiguous,
		)
		stampActivityMeasure(records, a)
		for _, s := range spatial.Filter(in.Shapes, a.Weekday, a.Area.Strictness, FullRingSub) {
			s.Location = in.Location
			marketShapes = append(marketShapes, s)
		}
	}

	stats := ComputeBaselines(ctx, logger, baselineObservations(records), p.params)

	result := &Result{
		Records:          p.finalTable(records, stats),
		Assignments:      assignments,
		MarketShapes:     marketShapes,
		DatePatternIndex: patternIdx,
	}

	logger.InfoContext(ctx, "activity derivation completed",
		"duration", time.Since(start),
		"output_rows", len(result.Records),
		"market_weekdays", len(assignments),
	)
	return result, nil
}

// FilterEligibleObservations keeps observations whose ranks fall inside the
// configured strictness window and whose sub-ring is either the full ring or
// the rank's outermost sub-ring. Missing sub-strictness ranks normalize to
// the full-ring sentinel.
func FilterEligibleObservations(raws []RawAreaObservation, p Params) ([]AreaObservation, error) {
	if len(raws) == 0 {
		return nil, nil
	}

	minObserved := raws[0].StrictnessRank
	for _, r := range raws {
		if r.StrictnessRank < minObserved {
			minObserved = r.StrictnessRank
		}
	}
	lenient := minObserved
	if lenient < p.LenientRankFloor {
		lenient = p.LenientRankFloor
	}

	var windowed []RawAreaObservation
	for _, r := range raws {
		if r.Ident == "" {
			return nil, contractErr("ident", "empty image identifier in measures export")
		}
		if r.StrictnessRank < p.StrictestRank || r.StrictnessRank > lenient {
			continue
		}
		sub := r.SubStrictnessRank
		if sub != SubRankUnset && sub != FullRingSub &&
			(sub <= p.StrictestRank || sub > lenient) {
			continue
		}
		if sub == SubRankUnset {
			r.SubStrictnessRank = FullRingSub
		}
		windowed = append(windowed, r)
	}

	// Outermost sub-ring per strictness rank; full rings are always eligible.
	maxSub := make(map[int]int)
	for _, r := range windowed {
		if r.SubStrictnessRank == FullRingSub {
			continue
		}
		if cur, ok := maxSub[r.StrictnessRank]; !ok || r.SubStrictnessRank > cur {
			maxSub[r.StrictnessRank] = r.SubStrictnessRank
		}
	}

	var out []AreaObservation
	for _, r := range windowed {
		if r.SubStrictnessRank != FullRingSub && r.SubStrictnessRank != maxSub[r.StrictnessRank] {
			continue
		}
		out = append(out, AreaObservation{
			Ident:         r.Ident,
			Area:          AreaID{Strictness: r.StrictnessRank, SubStrictness: r.SubStrictnessRank},
			WeekdayActive: r.WeekdayShp,
			Sum:           r.Sum,
			Count:         r.Count,
		})
	}
	return out, nil
}

func uniqueAreas(obs []AreaObservation) []AreaID {
	set := make(map[AreaID]bool)
	for _, o := range obs {
		set[o.Area] = true
	}
	areas := make([]AreaID, 0, len(set))
	for a := range set {
		areas = append(areas, a)
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].String() < areas[j].String() })
	return areas
}

// pivot reshapes the long observation list into one wide record per
// (image, detection weekday), merging the normalized image properties and
// stamping the market-day classification.
func (p *Processor) pivot(obs []AreaObservation, infos map[string]ImageInfo, props map[string]ImageProperty, location string, lat, lon float64, candidates []int) []*WideImageRecord {
	type pivotKey struct {
		Ident         string
		WeekdayActive int
	}
	index := make(map[pivotKey]*WideImageRecord)
	var order []pivotKey

	for _, o := range obs {
		key := pivotKey{o.Ident, o.WeekdayActive}
		rec, ok := index[key]
		if !ok {
			info := infos[o.Ident]
			rec = &WideImageRecord{
				Ident:         o.Ident,
				Location:      location,
				WeekdayActive: o.WeekdayActive,
				MktDay:        ClassifyObservation(info.Weekday, o.WeekdayActive, candidates),
				Dated:         info.Dated,
				Date:          info.Date,
				TimeDecimal:   info.TimeDecimal,
				Weekday:       info.Weekday,
				Year:          info.Year,
				Month:         info.Month,
				MktLat:        lat,
				MktLon:        lon,
				Cells:         make(map[AreaID]Cell),

				CloudPercent:    math.NaN(),
				ClearPercent:    math.NaN(),
				ActivityMeasure: math.NaN(),
			}
			if prop, ok := props[o.Ident]; ok {
				rec.Instrument = prop.Instrument
				rec.CloudPercent = prop.CloudPercent
				rec.ClearPercent = prop.ClearPercent
				rec.Acquired = prop.Acquired
			} else {
				// No property row for this image; the sensor rule still
				// applies to the identifier itself.
				rec.Instrument = DetermineSensor(o.Ident)
			}
			index[key] = rec
			order = append(order, key)
		}
		rec.Cells[o.Area] = Cell{Sum: o.Sum, Count: o.Count}
	}

	records := make([]*WideImageRecord, 0, len(order))
	for _, key := range order {
		records = append(records, index[key])
	}
	return records
}

// stampActivityMeasure sets the designated activity signal for every record
// of the assignment's detection weekday: the metric is the winning ring and
// the measure is read from that ring's full-ring counterpart.
func stampActivityMeasure(records []*WideImageRecord, a MarketAreaAssignment) {
	full := a.Area.FullRing()
	for _, r := range records {
		if r.WeekdayActive != a.Weekday {
			continue
		}
		r.ActivityMetric = a.Area.String()
		r.ActivityMeasure = r.Cell(full).Sum
	}
}

func baselineObservations(records []*WideImageRecord) []BaselineObservation {
	var obs []BaselineObservation
	for _, r := range records {
		if r.ActivityMetric == "" {
			continue
		}
		obs = append(obs, BaselineObservation{
			Ident:         r.Ident,
			WeekdayActive: r.WeekdayActive,
			Instrument:    r.Instrument,
			MktDay:        r.MktDay,
			Date:          r.Date,
			Measure:       r.ActivityMeasure,
		})
	}
	return obs
}

// finalTable assembles the output rows: ambiguous cross-day observations are
// dropped, as are rows lacking a date or an acquisition timestamp, and every
// remaining observation is expressed as a percentage of the market-day
// baseline after zeroing against the non-market mean. Rows whose measure was
// nulled by the outlier filter stay in the table with null measure and norm.
func (p *Processor) finalTable(records []*WideImageRecord, stats map[BaselineKey]BaselineStats) []ActivityRecord {
	var out []ActivityRecord
	for _, r := range records {
		if r.ActivityMetric == "" || r.MktDay == MktDayCross {
			continue
		}
		if !r.Dated || r.Acquired.IsZero() {
			continue
		}
		norm := math.NaN()
		if st, ok := stats[BaselineKey{r.WeekdayActive, r.Instrument}]; ok {
			mean0 := r.ActivityMeasure - st.NonMarketMean
			if !math.IsNaN(st.MarketMean) && st.MarketMean != 0 {
				norm = 100 * mean0 / st.MarketMean
			}
		}

		out = append(out, ActivityRecord{
			ImageID:             r.Ident,
			Location:            r.Location,
			Instrument:          r.Instrument,
			Date:                r.Date,
			Acquired:            r.Acquired.UTC(),
			WeekdayActive:       r.WeekdayActive,
			MktDay:              r.MktDay,
			ActivityMetric:      r.ActivityMetric,
			ActivityMeasure:     r.ActivityMeasure,
			ActivityMeasureNorm: norm,
			ActWeekly:           norm,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Acquired.Before(out[j].Acquired) })
	return out
}
