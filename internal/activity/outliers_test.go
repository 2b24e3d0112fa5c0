package activity

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testArea = AreaID{Strictness: 4, SubStrictness: 1}

func makeRecord(sum, count float64) *WideImageRecord {
	return &WideImageRecord{
		Ident:         "img",
		WeekdayActive: 4,
		MktDay:        MktDayYes,
		Instrument:    SensorPS2,
		Dated:         true,
		Date:          time.Date(2019, time.June, 6, 0, 0, 0, 0, time.UTC),
		TimeDecimal:   8.5,
		Weekday:       4,
		ClearPercent:  95,
		CloudPercent:  5,
		Cells:         map[AreaID]Cell{testArea: {Sum: sum, Count: count}},
	}
}

func TestAnnotateQuality(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name     string
		mutate   func(*WideImageRecord)
		excluded bool
	}{
		{name: "clean record stays", mutate: func(r *WideImageRecord) {}, excluded: false},
		{
			name: "covid window excluded",
			mutate: func(r *WideImageRecord) {
				r.Date = time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
			},
			excluded: true,
		},
		{
			name: "sparse imagery era excluded",
			mutate: func(r *WideImageRecord) {
				r.Date = time.Date(2017, time.June, 1, 0, 0, 0, 0, time.UTC)
			},
			excluded: true,
		},
		{
			name:     "atypical acquisition time excluded",
			mutate:   func(r *WideImageRecord) { r.TimeDecimal = 11.0 },
			excluded: true,
		},
		{
			name:     "low clear fraction excluded",
			mutate:   func(r *WideImageRecord) { r.ClearPercent = 5 },
			excluded: true,
		},
		{
			name:     "high cloud fraction excluded",
			mutate:   func(r *WideImageRecord) { r.CloudPercent = 80 },
			excluded: true,
		},
		{
			name:     "missing quality fields do not exclude",
			mutate:   func(r *WideImageRecord) { r.ClearPercent = math.NaN(); r.CloudPercent = math.NaN() },
			excluded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Several clean peers anchor the median acquisition time at 8.5.
			records := []*WideImageRecord{makeRecord(1, 1), makeRecord(1, 1), makeRecord(1, 1)}
			target := makeRecord(1, 1)
			tt.mutate(target)
			records = append(records, target)

			AnnotateQuality(records, p)
			assert.Equal(t, tt.excluded, target.Excluded)
		})
	}
}

func TestConvertToPixelMeans(t *testing.T) {
	records := []*WideImageRecord{
		makeRecord(100, 20),
		makeRecord(100, 0),
		makeRecord(100, math.NaN()),
	}

	ConvertToPixelMeans(records, []AreaID{testArea})

	assert.InDelta(t, 5.0, records[0].Cell(testArea).Sum, 1e-12)
	assert.True(t, math.IsNaN(records[1].Cell(testArea).Sum))
	assert.True(t, math.IsNaN(records[2].Cell(testArea).Sum))
}

func TestApplyOutlierRulesFootprint(t *testing.T) {
	p := DefaultParams()

	// Four complete footprints and one covering less than half the pixels.
	records := []*WideImageRecord{
		makeRecord(1, 100), makeRecord(1, 100), makeRecord(1, 100), makeRecord(1, 100),
		makeRecord(1, 40),
	}

	ApplyOutlierRules(records, []AreaID{testArea}, p)

	for i := 0; i < 4; i++ {
		assert.False(t, math.IsNaN(records[i].Cell(testArea).Sum), "record %d", i)
	}
	partial := records[4].Cell(testArea)
	assert.True(t, math.IsNaN(partial.Sum))
	assert.True(t, math.IsNaN(partial.Count))
}

func TestApplyOutlierRulesIQR(t *testing.T) {
	p := DefaultParams()

	// Equal footprints; one sum far beyond median + 2*IQR of its group.
	records := []*WideImageRecord{
		makeRecord(1.0, 100), makeRecord(1.1, 100), makeRecord(0.9, 100), makeRecord(1.0, 100),
		makeRecord(10.0, 100),
	}

	ApplyOutlierRules(records, []AreaID{testArea}, p)

	for i := 0; i < 4; i++ {
		assert.False(t, math.IsNaN(records[i].Cell(testArea).Sum), "record %d", i)
	}
	assert.True(t, math.IsNaN(records[4].Cell(testArea).Sum))
	// The count of the outlier row is typical, so it survives.
	assert.False(t, math.IsNaN(records[4].Cell(testArea).Count))
}

func TestApplyOutlierRulesIdempotent(t *testing.T) {
	p := DefaultParams()

	records := []*WideImageRecord{
		makeRecord(1.0, 100), makeRecord(1.1, 100), makeRecord(0.9, 100), makeRecord(1.0, 100),
		makeRecord(10.0, 100),
		makeRecord(1.0, 40),
	}

	ApplyOutlierRules(records, []AreaID{testArea}, p)
	snapshot := cellNullPattern(records)

	ApplyOutlierRules(records, []AreaID{testArea}, p)
	assert.Equal(t, snapshot, cellNullPattern(records), "second pass must not null additional values")
}

func cellNullPattern(records []*WideImageRecord) []bool {
	var pattern []bool
	for _, r := range records {
		c := r.Cell(testArea)
		pattern = append(pattern, math.IsNaN(c.Sum), math.IsNaN(c.Count))
	}
	return pattern
}

func TestCleanActivityMeasuresEndToEnd(t *testing.T) {
	p := DefaultParams()

	records := []*WideImageRecord{
		makeRecord(100, 100), makeRecord(110, 100), makeRecord(90, 100),
	}
	CleanActivityMeasures(records, []AreaID{testArea}, p)

	require.False(t, records[0].Excluded)
	assert.InDelta(t, 1.0, records[0].Cell(testArea).Sum, 1e-12)
	assert.InDelta(t, 0.0, records[0].DiffToMedianTime, 1e-12)
}
