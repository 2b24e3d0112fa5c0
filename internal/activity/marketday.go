package activity

import (
	"sort"
)

// CandidateMarketDays identifies the most probable market weekdays for a
// location from the detection strictness of its candidate areas. For each
// detection weekday the strongest (lowest) strictness rank is taken; every
// weekday whose strongest rank is within window of the global strongest is a
// candidate, so similarly clear detections tie by inclusion rather than by a
// single winner.
func CandidateMarketDays(obs []AreaObservation, window int) []int {
	minByDay := make(map[int]int)
	for _, o := range obs {
		cur, ok := minByDay[o.WeekdayActive]
		if !ok || o.Area.Strictness < cur {
			minByDay[o.WeekdayActive] = o.Area.Strictness
		}
	}
	if len(minByDay) == 0 {
		return nil
	}

	lowest := -1
	for _, r := range minByDay {
		if lowest < 0 || r < lowest {
			lowest = r
		}
	}

	var days []int
	for day, r := range minByDay {
		if r-lowest <= window {
			days = append(days, day)
		}
	}
	sort.Ints(days)
	return days
}

// ClassifyObservation labels one observation relative to the candidate
// market weekdays:
//
//	MktDayYes   the image weekday is the area's detection weekday and a candidate
//	MktDayNo    the image weekday is not a candidate at all
//	MktDayCross the image weekday is a candidate but differs from the
//	            detection weekday (ambiguous cross-day reuse)
func ClassifyObservation(weekday, weekdayActive int, candidates []int) MktDay {
	isCandidate := false
	for _, d := range candidates {
		if d == weekday {
			isCandidate = true
			break
		}
	}
	switch {
	case !isCandidate:
		return MktDayNo
	case weekday == weekdayActive:
		return MktDayYes
	default:
		return MktDayCross
	}
}
