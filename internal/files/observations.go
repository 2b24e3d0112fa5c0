package files

import (
	"fmt"
	"strconv"
	"strings"

	"maicli/internal/activity"
)

// Columns of the measures export.
const (
	colIdent         = "ident"
	colStrictness    = "strictnessRank"
	colSubStrictness = "subStrictnessRank"
	colWeekdayShp    = "weekdayShp"
	colSumSum        = "sumsum"
	colCount         = "ccount"
)

// LoadAreaObservations loads the long-format measures export for a location.
// Identifiers are de-mangled from the export's band naming: everything from
// the last "_maxpMax" marker on is stripped, then the leading band-prefix
// character is dropped. Missing sub-strictness ranks stay unset; the
// eligibility filter later normalizes them to the full-ring sentinel.
func (s *Store) LoadAreaObservations(locGroup, loc string) ([]activity.RawAreaObservation, error) {
	path := s.measuresPath(locGroup, loc)
	rows, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("load area observations: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("measures export for %s/%s is empty", locGroup, loc)
	}

	cols := headerIndex(rows[0])
	for _, required := range []string{colIdent, colStrictness, colWeekdayShp} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("measures export for %s/%s lacks the %q column", locGroup, loc, required)
		}
	}

	var obs []activity.RawAreaObservation
	for _, row := range rows[1:] {
		ident := demangleIdent(stringCell(row, cols, colIdent))
		if ident == "" {
			continue
		}
		obs = append(obs, activity.RawAreaObservation{
			Ident:             ident,
			StrictnessRank:    intCell(row, cols, colStrictness, 0),
			SubStrictnessRank: intCell(row, cols, colSubStrictness, activity.SubRankUnset),
			WeekdayShp:        intCell(row, cols, colWeekdayShp, -1),
			Sum:               floatCell(row, cols, colSumSum),
			Count:             floatCell(row, cols, colCount),
		})
	}
	return obs, nil
}

func (s *Store) measuresPath(locGroup, loc string) string {
	return s.join(fmt.Sprintf("%s_measures_exportAct5_maxpMax%s_w7.csv", locGroup, loc))
}

// demangleIdent recovers the raw image identifier from a mangled export
// column name such as "b20190404_080905_1014_maxpMax_04_100".
func demangleIdent(mangled string) string {
	if i := strings.LastIndex(mangled, "_maxpMax"); i >= 0 {
		mangled = mangled[:i]
	}
	if len(mangled) < 2 {
		return ""
	}
	return mangled[1:]
}

func stringCell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func intCell(row []string, cols map[string]int, name string, missing int) int {
	i, ok := cols[name]
	if !ok || i >= len(row) || strings.TrimSpace(row[i]) == "" {
		return missing
	}
	// Rank columns come through as floats ("30.0") in some exports.
	v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
	if err != nil {
		return missing
	}
	return int(v)
}
