package exporter

import (
	"fmt"

	"maicli/internal/activity"
	"maicli/internal/spatial"
)

var activityHeaders = []string{
	"image_id",
	"Location",
	"instrument",
	"date",
	"acquired",
	"weekdayThisAreaIsActive",
	"mktDay",
	"activity_metric",
	"activity_measure",
	"activity_measure_norm",
	"act_weekly",
}

var shapeHeaders = []string{
	"Location",
	"weekdayShp",
	"strictness",
	"subStrictn",
	"centroid_lat",
	"centroid_lon",
	"area_km2",
}

// WriteActivityTable writes the derived activity table for one location to
// activity/activity_<location>.csv under the output directory.
func (w *CSVWriter) WriteActivityTable(location string, records []activity.ActivityRecord) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ImageID,
			r.Location,
			string(r.Instrument),
			formatDate(r.Date),
			formatTimestamp(r.Acquired),
			formatInt(r.WeekdayActive),
			formatInt(int(r.MktDay)),
			r.ActivityMetric,
			formatFloat(r.ActivityMeasure),
			formatFloat(r.ActivityMeasureNorm),
			formatFloat(r.ActWeekly),
		})
	}
	path := fmt.Sprintf("activity/activity_%s.csv", location)
	return w.WriteSimpleCSV(path, activityHeaders, rows)
}

// WriteShapesSummary writes the designated market area rings for one location
// to activity/shapes_<location>.csv: one row per ring with its centroid and
// enclosed area.
func (w *CSVWriter) WriteShapesSummary(location string, shapes []spatial.AreaShape) error {
	rows := make([][]string, 0, len(shapes))
	for _, s := range shapes {
		c := s.Centroid()
		rows = append(rows, []string{
			s.Location,
			formatInt(s.Weekday),
			formatInt(s.Strictness),
			formatInt(s.SubStrictness),
			formatFloat(c.Lat.Degrees()),
			formatFloat(c.Lng.Degrees()),
			formatFloat(s.AreaKm2()),
		})
	}
	path := fmt.Sprintf("activity/shapes_%s.csv", location)
	return w.WriteSimpleCSV(path, shapeHeaders, rows)
}
