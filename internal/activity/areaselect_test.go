package activity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	selRingStrict  = AreaID{Strictness: 4, SubStrictness: 1}
	selRingLenient = AreaID{Strictness: 4, SubStrictness: 2}
	selRingFull    = AreaID{Strictness: 4, SubStrictness: FullRingSub}
	selAreas       = []AreaID{selRingStrict, selRingLenient, selRingFull}
)

// selRecord builds a high-quality record that passes the selector gate.
func selRecord(mktDay MktDay, strictSum, lenientSum float64) *WideImageRecord {
	weekday := 4
	if mktDay == MktDayNo {
		weekday = 1
	}
	return &WideImageRecord{
		WeekdayActive: 4,
		Weekday:       weekday,
		MktDay:        mktDay,
		ClearPercent:  95,
		Cells: map[AreaID]Cell{
			selRingStrict:  {Sum: strictSum, Count: 100},
			selRingLenient: {Sum: lenientSum, Count: 100},
			selRingFull:    {Sum: (strictSum + lenientSum) / 2, Count: 200},
		},
	}
}

func TestSelectMarketAreasStrictRingWins(t *testing.T) {
	records := []*WideImageRecord{
		selRecord(MktDayYes, 10, 10),
		selRecord(MktDayYes, 12, 12),
		selRecord(MktDayNo, 1, 1),
		selRecord(MktDayNo, 2, 2),
	}

	assignments := SelectMarketAreas(context.Background(), testLogger(), records, selAreas, DefaultParams())
	require.Len(t, assignments, 1)
	assert.Equal(t, 4, assignments[0].Weekday)
	assert.Equal(t, selRingStrict, assignments[0].Area)
	assert.False(t, assignments[0].Ambiguous)
}

func TestSelectMarketAreasFallsThroughToLenientRing(t *testing.T) {
	// The strict ring's non-market activity swamps its market signal; the
	// lenient ring separates cleanly.
	records := []*WideImageRecord{
		selRecord(MktDayYes, 10, 10),
		selRecord(MktDayYes, 12, 12),
		selRecord(MktDayNo, 50, 1),
		selRecord(MktDayNo, 60, 2),
	}

	assignments := SelectMarketAreas(context.Background(), testLogger(), records, selAreas, DefaultParams())
	require.Len(t, assignments, 1)
	assert.Equal(t, selRingLenient, assignments[0].Area)
	assert.False(t, assignments[0].Ambiguous)
}

func TestSelectMarketAreasAmbiguousFallback(t *testing.T) {
	// No ring separates: the most lenient ring is returned, flagged.
	records := []*WideImageRecord{
		selRecord(MktDayYes, 10, 10),
		selRecord(MktDayNo, 50, 50),
		selRecord(MktDayNo, 60, 60),
	}

	assignments := SelectMarketAreas(context.Background(), testLogger(), records, selAreas, DefaultParams())
	require.Len(t, assignments, 1)
	assert.Equal(t, selRingLenient, assignments[0].Area)
	assert.True(t, assignments[0].Ambiguous)
}

func TestSelectMarketAreasQualityGate(t *testing.T) {
	// Hazy market rows never feed the percentiles; with no usable market
	// signal the weekday yields no assignment.
	hazy := selRecord(MktDayYes, 10, 10)
	hazy.ClearPercent = 50

	excluded := selRecord(MktDayYes, 10, 10)
	excluded.Excluded = true

	late := selRecord(MktDayYes, 10, 10)
	late.DiffToMedianTime = 2

	records := []*WideImageRecord{hazy, excluded, late, selRecord(MktDayNo, 1, 1)}

	assignments := SelectMarketAreas(context.Background(), testLogger(), records, selAreas, DefaultParams())
	assert.Empty(t, assignments)
}

func TestSelectMarketAreasNoMarketDays(t *testing.T) {
	records := []*WideImageRecord{selRecord(MktDayNo, 1, 1)}
	assignments := SelectMarketAreas(context.Background(), testLogger(), records, selAreas, DefaultParams())
	assert.Empty(t, assignments)
}
