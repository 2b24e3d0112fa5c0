package files

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"maicli/internal/activity"
)

// Store resolves provider export files underneath one data directory.
type Store struct {
	baseDir string
}

// NewStore creates a store rooted at the given data directory.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) join(name string) string {
	return filepath.Join(s.baseDir, name)
}

// Columns of the property export the pipeline reads. Everything else in the
// export is provider bookkeeping and ignored.
const (
	colSystemIndex  = "system:index"
	colCloudPercent = "cloud_percent"
	colClearPercent = "clear_percent"
	colAcquired     = "acquired"
)

var acquiredLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// LoadImageProperties loads the per-image property export for a location.
// The provider console exports either CSV or XLSX; both are supported. A
// missing index column is an input-contract violation.
func (s *Store) LoadImageProperties(locGroup, loc string) ([]activity.RawImageProperty, error) {
	base := filepath.Join(s.baseDir, fmt.Sprintf("%s_properties_propEx_%s_%s", locGroup, locGroup, loc))

	var rows [][]string
	var err error
	switch {
	case fileExists(base + ".csv"):
		rows, err = readCSV(base + ".csv")
	case fileExists(base + ".xlsx"):
		rows, err = readXLSX(base + ".xlsx")
	default:
		return nil, fmt.Errorf("no property export found for %s/%s", locGroup, loc)
	}
	if err != nil {
		return nil, fmt.Errorf("load image properties: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("property export for %s/%s is empty", locGroup, loc)
	}

	cols := headerIndex(rows[0])
	idxCol, ok := cols[colSystemIndex]
	if !ok {
		return nil, fmt.Errorf("property export for %s/%s lacks the %q column", locGroup, loc, colSystemIndex)
	}

	var props []activity.RawImageProperty
	for _, row := range rows[1:] {
		if len(row) <= idxCol || strings.TrimSpace(row[idxCol]) == "" {
			continue
		}
		props = append(props, activity.RawImageProperty{
			SystemIndex:  strings.TrimSpace(row[idxCol]),
			CloudPercent: floatCell(row, cols, colCloudPercent),
			ClearPercent: floatCell(row, cols, colClearPercent),
			Acquired:     timeCell(row, cols, colAcquired),
		})
	}
	return props, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s contains no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func floatCell(row []string, cols map[string]int, name string) float64 {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func timeCell(row []string, cols map[string]int, name string) time.Time {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return time.Time{}
	}
	raw := strings.TrimSpace(row[i])
	for _, layout := range acquiredLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
