package exporter

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maicli/internal/activity"
	"maicli/internal/spatial"
)

func readBackCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Strip the BOM before parsing.
	content := strings.TrimPrefix(string(data), "\xef\xbb\xbf")
	rows, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteActivityTable(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir)

	records := []activity.ActivityRecord{
		{
			ImageID:             "20180104_083000_1_0001",
			Location:            "loc1",
			Instrument:          activity.SensorPS2,
			Date:                time.Date(2018, time.January, 4, 0, 0, 0, 0, time.UTC),
			Acquired:            time.Date(2018, time.January, 4, 8, 30, 0, 0, time.UTC),
			WeekdayActive:       4,
			MktDay:              activity.MktDayYes,
			ActivityMetric:      "04_05",
			ActivityMeasure:     10,
			ActivityMeasureNorm: 100,
			ActWeekly:           100,
		},
		{
			ImageID:         "20180101_083000_1_0002",
			Location:        "loc1",
			Instrument:      activity.SensorSuperDove,
			MktDay:          activity.MktDayNo,
			ActivityMeasure: math.NaN(),
		},
	}

	require.NoError(t, writer.WriteActivityTable("loc1", records))

	rows := readBackCSV(t, filepath.Join(dir, "activity", "activity_loc1.csv"))
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"image_id", "Location", "instrument", "date", "acquired",
		"weekdayThisAreaIsActive", "mktDay", "activity_metric",
		"activity_measure", "activity_measure_norm", "act_weekly",
	}, rows[0])

	assert.Equal(t, "20180104_083000_1_0001", rows[1][0])
	assert.Equal(t, "PS2", rows[1][2])
	assert.Equal(t, "2018-01-04", rows[1][3])
	assert.Equal(t, "2018-01-04T08:30:00Z", rows[1][4])
	assert.Equal(t, "4", rows[1][5])
	assert.Equal(t, "1", rows[1][6])
	assert.Equal(t, "04_05", rows[1][7])

	// Null measures and zero timestamps become empty cells.
	assert.Equal(t, "", rows[2][3])
	assert.Equal(t, "", rows[2][4])
	assert.Equal(t, "", rows[2][8])
}

func TestWriteShapesSummary(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir)

	shapes := []spatial.AreaShape{
		{
			Weekday:       4,
			Strictness:    4,
			SubStrictness: 100,
			Location:      "loc1",
			Ring: []s2.LatLng{
				s2.LatLngFromDegrees(0, 0),
				s2.LatLngFromDegrees(0, 1),
				s2.LatLngFromDegrees(1, 1),
				s2.LatLngFromDegrees(1, 0),
			},
		},
	}

	require.NoError(t, writer.WriteShapesSummary("loc1", shapes))

	rows := readBackCSV(t, filepath.Join(dir, "activity", "shapes_loc1.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, "loc1", rows[1][0])
	assert.Equal(t, "4", rows[1][1])
	assert.Equal(t, "100", rows[1][3])
}

func TestCSVWriterAppend(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir)

	require.NoError(t, writer.WriteSimpleCSV("table.csv", []string{"a", "b"}, [][]string{{"1", "2"}}))
	require.NoError(t, writer.AppendToCSV("table.csv", [][]string{{"3", "4"}}))

	rows := readBackCSV(t, filepath.Join(dir, "table.csv"))
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}}, rows)
}

func TestStreamWriter(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir)

	sw, err := writer.CreateStreamWriter("stream.csv", []string{"x"})
	require.NoError(t, err)
	require.NoError(t, sw.WriteRecord([]string{"1"}))
	require.NoError(t, sw.WriteRecord([]string{"2"}))
	require.NoError(t, sw.Close())

	rows := readBackCSV(t, filepath.Join(dir, "stream.csv"))
	assert.Equal(t, [][]string{{"x"}, {"1"}, {"2"}}, rows)
}
