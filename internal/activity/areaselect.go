package activity

import (
	"context"
	"log/slog"
	"math"
	"sort"
)

// SelectMarketAreas designates, for each inferred market weekday, the ring
// whose signal best separates market from non-market activity. Candidate
// rings are walked from strict to lenient (natural identifier order) and the
// first ring whose non-market 75th-percentile activity does not exceed the
// market 50th-percentile activity wins. When no ring separates cleanly the
// most lenient ring is used and the assignment is flagged ambiguous, since
// that fallback may accept a weak or non-existent signal.
//
// Only high-quality rows feed the percentiles: not excluded, clear fraction
// above the selector gate, and acquisition time close to the sensor median.
// An empty result means the location has no derivable signal.
func SelectMarketAreas(ctx context.Context, logger *slog.Logger, records []*WideImageRecord, areas []AreaID, p Params) []MarketAreaAssignment {
	dayset := make(map[int]bool)
	for _, r := range records {
		if r.MktDay == MktDayYes {
			dayset[r.Weekday] = true
		}
	}
	marketDays := make([]int, 0, len(dayset))
	for d := range dayset {
		marketDays = append(marketDays, d)
	}
	sort.Ints(marketDays)

	var assignments []MarketAreaAssignment
	for _, day := range marketDays {
		var mktRows, nonMktRows []*WideImageRecord
		for _, r := range records {
			if r.Excluded || r.WeekdayActive != day {
				continue
			}
			if math.IsNaN(r.ClearPercent) || r.ClearPercent <= p.SelectorMinClearPercent {
				continue
			}
			if !(r.DiffToMedianTime < p.MaxTimeOffsetHours) {
				continue
			}
			switch {
			case r.MktDay == MktDayYes && r.Weekday == day:
				mktRows = append(mktRows, r)
			case r.MktDay == MktDayNo:
				nonMktRows = append(nonMktRows, r)
			}
		}

		candidates := candidateRings(mktRows, areas)
		if len(candidates) == 0 {
			// No valid detection for this weekday.
			logger.DebugContext(ctx, "no candidate rings with market-day signal", "weekday", day)
			continue
		}

		winner, ambiguous := pickRing(candidates, mktRows, nonMktRows)
		if ambiguous {
			logger.WarnContext(ctx, "no ring separates market from non-market activity, using most lenient ring",
				"weekday", day,
				"area", winner.String(),
			)
		}
		assignments = append(assignments, MarketAreaAssignment{Weekday: day, Area: winner, Ambiguous: ambiguous})
	}
	return assignments
}

// candidateRings returns the sub-rings carrying at least one non-null
// market-day value, in natural identifier order. Full rings (sub-strictness
// 100) never compete directly; the designated signal is read from the
// winner's full-ring counterpart afterwards.
func candidateRings(mktRows []*WideImageRecord, areas []AreaID) []AreaID {
	var candidates []AreaID
	for _, a := range areas {
		if a.IsFullRing() {
			continue
		}
		for _, r := range mktRows {
			if !math.IsNaN(r.Cell(a).Sum) {
				candidates = append(candidates, a)
				break
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].String() < candidates[j].String()
	})
	return candidates
}

// pickRing walks the candidate rings and returns the first whose non-market
// P75 stays at or below the market P50, or the last ring (flagged ambiguous)
// when none does.
func pickRing(candidates []AreaID, mktRows, nonMktRows []*WideImageRecord) (AreaID, bool) {
	for _, a := range candidates {
		p50Mkt := percentile(ringSums(mktRows, a), 0.5)
		p75NonMkt := percentile(ringSums(nonMktRows, a), 0.75)
		if p75NonMkt <= p50Mkt {
			return a, false
		}
	}
	return candidates[len(candidates)-1], true
}

func ringSums(rows []*WideImageRecord, a AreaID) []float64 {
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		vals = append(vals, r.Cell(a).Sum)
	}
	return vals
}
