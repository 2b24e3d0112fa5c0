package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAreaIDString(t *testing.T) {
	tests := []struct {
		name string
		area AreaID
		want string
	}{
		{name: "single digit ranks are zero padded", area: AreaID{Strictness: 4, SubStrictness: 5}, want: "04_05"},
		{name: "full ring keeps three digits", area: AreaID{Strictness: 4, SubStrictness: 100}, want: "04_100"},
		{name: "double digit ranks unchanged", area: AreaID{Strictness: 30, SubStrictness: 12}, want: "30_12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.area.String())
		})
	}
}

func TestAreaIDFullRing(t *testing.T) {
	a := AreaID{Strictness: 7, SubStrictness: 3}
	assert.False(t, a.IsFullRing())

	full := a.FullRing()
	assert.Equal(t, AreaID{Strictness: 7, SubStrictness: FullRingSub}, full)
	assert.True(t, full.IsFullRing())
}

func TestRebaseWeekday(t *testing.T) {
	// Monday-based 0..6 maps onto Sunday-based 0..6 bijectively.
	seen := make(map[int]bool)
	for wd := 0; wd < 7; wd++ {
		rebased := RebaseWeekday(wd)
		assert.GreaterOrEqual(t, rebased, 0)
		assert.Less(t, rebased, 7)
		seen[rebased] = true
	}
	assert.Len(t, seen, 7)

	// Monday (0 in the calendar base) becomes 1; Sunday (6) wraps to 0.
	assert.Equal(t, 1, RebaseWeekday(0))
	assert.Equal(t, 0, RebaseWeekday(6))
}

func TestWeekdayOf(t *testing.T) {
	// 2018-01-01 was a Monday, 2018-01-07 a Sunday.
	assert.Equal(t, 1, WeekdayOf(time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, WeekdayOf(time.Date(2018, time.January, 7, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, WeekdayOf(time.Date(2018, time.January, 4, 0, 0, 0, 0, time.UTC)))
}

func TestWideImageRecordCellMissing(t *testing.T) {
	r := &WideImageRecord{Cells: map[AreaID]Cell{}}
	c := r.Cell(AreaID{Strictness: 4, SubStrictness: 100})
	assert.True(t, c.Sum != c.Sum, "missing cell sum should be NaN")
	assert.True(t, c.Count != c.Count, "missing cell count should be NaN")
}
