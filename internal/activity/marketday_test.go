package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func obsAt(day, strictness int) AreaObservation {
	return AreaObservation{
		Area:          AreaID{Strictness: strictness, SubStrictness: FullRingSub},
		WeekdayActive: day,
	}
}

func TestCandidateMarketDays(t *testing.T) {
	tests := []struct {
		name   string
		obs    []AreaObservation
		window int
		want   []int
	}{
		{
			name:   "single clear detection",
			obs:    []AreaObservation{obsAt(5, 4), obsAt(5, 12)},
			window: 3,
			want:   []int{5},
		},
		{
			name:   "ties within window are all candidates",
			obs:    []AreaObservation{obsAt(5, 4), obsAt(2, 6), obsAt(3, 9)},
			window: 3,
			want:   []int{2, 5},
		},
		{
			name:   "zero window keeps only the strongest",
			obs:    []AreaObservation{obsAt(5, 4), obsAt(2, 6)},
			window: 0,
			want:   []int{5},
		},
		{
			name:   "no observations",
			obs:    nil,
			window: 3,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CandidateMarketDays(tt.obs, tt.window))
		})
	}
}

func TestClassifyObservation(t *testing.T) {
	candidates := []int{5}

	tests := []struct {
		name          string
		weekday       int
		weekdayActive int
		want          MktDay
	}{
		{name: "image on detection weekday", weekday: 5, weekdayActive: 5, want: MktDayYes},
		{name: "image on non-candidate weekday", weekday: 2, weekdayActive: 5, want: MktDayNo},
		{name: "image on other candidate weekday", weekday: 5, weekdayActive: 3, want: MktDayCross},
		{name: "undated image is never a market day", weekday: -1, weekdayActive: 5, want: MktDayNo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyObservation(tt.weekday, tt.weekdayActive, candidates)
			assert.Equal(t, tt.want, got)

			// The domain never includes MktDayUnset after classification.
			assert.Contains(t, []MktDay{MktDayNo, MktDayYes, MktDayCross}, got)
		})
	}
}
