package activity

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"time"
)

// datePattern is one (offset, layout) candidate for deriving date and
// time-of-day from an image identifier. Provider naming conventions vary by
// sensor and collection-merge history, so patterns are tried in order and the
// first one that parses the whole batch wins.
type datePattern struct {
	dateStart, dateEnd int
	dateLayout         string
	timeStart, timeEnd int
}

var datePatterns = []datePattern{
	{0, 8, "20060102", 9, 15},
	{2, 10, "20060102", 11, 17},
	{0, 6, "060102", 7, 13},
	{2, 8, "060102", 8, 14},
}

const timeLayout = "150405"

// EnrichImages derives the calendar fields for a batch of image identifiers.
// It returns the per-identifier info map and the index of the pattern that
// matched. When no pattern parses every identifier the infos are returned
// undated together with ErrNoDatePattern; rows without a date are dropped at
// the final filtering step, so the condition is a diagnostic, not a failure.
func EnrichImages(ctx context.Context, logger *slog.Logger, idents []string) (map[string]ImageInfo, int, error) {
	infos := make(map[string]ImageInfo, len(idents))

	for pi, pat := range datePatterns {
		parsed := make(map[string]ImageInfo, len(idents))
		ok := true
		for _, ident := range idents {
			info, err := pat.parse(ident)
			if err != nil {
				ok = false
				break
			}
			parsed[ident] = info
		}
		if ok {
			logger.DebugContext(ctx, "identifier date pattern matched",
				"pattern_index", pi,
				"date_layout", pat.dateLayout,
			)
			return parsed, pi, nil
		}
	}

	for _, ident := range idents {
		// Weekday -1 never matches a candidate market day, so undated rows
		// classify as non-market observations until they are dropped.
		infos[ident] = ImageInfo{Dated: false, TimeDecimal: math.NaN(), Weekday: -1}
	}
	return infos, -1, ErrNoDatePattern
}

func (p datePattern) parse(ident string) (ImageInfo, error) {
	if len(ident) < p.dateEnd || len(ident) < p.timeEnd {
		return ImageInfo{}, ErrNoDatePattern
	}
	date, err := time.ParseInLocation(p.dateLayout, ident[p.dateStart:p.dateEnd], time.UTC)
	if err != nil {
		return ImageInfo{}, err
	}
	tod, err := time.ParseInLocation(timeLayout, ident[p.timeStart:p.timeEnd], time.UTC)
	if err != nil {
		return ImageInfo{}, err
	}
	return ImageInfo{
		Dated:       true,
		Date:        date,
		TimeDecimal: float64(tod.Hour()) + float64(tod.Minute())/60 + float64(tod.Second())/3600,
		Weekday:     WeekdayOf(date),
		Year:        date.Year(),
		Month:       int(date.Month()),
	}, nil
}

// The market coordinates are embedded in the structured location identifier
// as integer and decimal groups behind fixed markers. The markers are swapped
// relative to their meaning (an identifier-construction defect the corrector
// below compensates for in known countries): the "lon" marker carries the
// latitude and vice versa.
var (
	mktLatRe = regexp.MustCompile(`lon(-?\d+)_(\d+)`)
	mktLonRe = regexp.MustCompile(`lat(-?\d+)_(\d+)`)
)

// MarketCoordinates extracts the market latitude and longitude from a
// location identifier. Missing markers yield NaN.
func MarketCoordinates(location string) (lat, lon float64) {
	return extractCoord(mktLatRe, location), extractCoord(mktLonRe, location)
}

func extractCoord(re *regexp.Regexp, location string) float64 {
	m := re.FindStringSubmatch(location)
	if m == nil {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m[1]+"."+m[2], 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ApplyCoordinateFix corrects coordinate pairs for countries whose location
// identifiers are known to carry flipped lat/lon values. The swaps table maps
// a country name to the latitude threshold above which a flip is assumed.
func ApplyCoordinateFix(country string, swaps map[string]float64, lat, lon float64) (float64, float64) {
	threshold, ok := swaps[country]
	if !ok {
		return lat, lon
	}
	origLat := lat
	if lat > threshold {
		lat = lon
	}
	if lon < threshold {
		lon = origLat
	}
	return lat, lon
}
