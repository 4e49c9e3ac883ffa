package replaycache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantreplay/metadata"
	"quantreplay/wtdata"
)

func alwaysComplete(wtdata.Bar) bool { return true }

func TestResampleAggregatesOHLCV(t *testing.T) {
	base := []wtdata.Bar{
		{Time: 1, Open: 10, High: 12, Low: 9, Close: 11, Volume: 5, Turnover: 50},
		{Time: 2, Open: 11, High: 13, Low: 10, Close: 12, Volume: 6, Turnover: 60},
		{Time: 3, Open: 12, High: 14, Low: 11, Close: 13, Volume: 7, Turnover: 70},
	}
	out := Resample(base, 3, false, nil, alwaysComplete)

	require.Len(t, out, 1)
	bar := out[0]
	assert.Equal(t, 10.0, bar.Open)
	assert.Equal(t, 13.0, bar.Close)
	assert.Equal(t, 14.0, bar.High)
	assert.Equal(t, 9.0, bar.Low)
	assert.Equal(t, 18.0, bar.Volume)
	assert.Equal(t, 180.0, bar.Turnover)
}

func TestResamplePassthroughWhenTimesIsOne(t *testing.T) {
	base := []wtdata.Bar{{Time: 1, Close: 10}, {Time: 2, Close: 11}}
	out := Resample(base, 1, false, nil, alwaysComplete)
	assert.Equal(t, base, out)
}

func TestResampleDropsIncompleteTrailingBar(t *testing.T) {
	base := []wtdata.Bar{
		{Time: 1, Open: 10, Close: 11, Volume: 1},
		{Time: 2, Open: 11, Close: 12, Volume: 1},
		{Time: 3, Open: 12, Close: 13, Volume: 1}, // lone trailing partial group
	}
	complete := func(b wtdata.Bar) bool { return b.Time != 3 }
	out := Resample(base, 2, false, nil, complete)

	require.Len(t, out, 1, "the trailing 1-bar group is incomplete and must be dropped")
	assert.Equal(t, uint64(2), out[0].Time)
}

func TestResampleAlignBySectionTruncatesAtSegmentBoundary(t *testing.T) {
	session := &metadata.SessionInfo{
		Windows: []metadata.SessionWindow{{Open: 900, Close: 1130}, {Open: 1330, Close: 1500}},
	}
	base := []wtdata.Bar{
		{Time: 20260101000900, Open: 1, Close: 2, Volume: 1}, // morning minute 0900... simplified below
	}
	_ = base
	_ = session
	// crossesSegment keys off Time % 10000 as minute-of-day; build bars
	// whose low 4 digits straddle the 1130 boundary.
	straddle := []wtdata.Bar{
		{Time: 1010, Open: 1, Close: 2, Volume: 1},
		{Time: 1129, Open: 2, Close: 3, Volume: 1},
		{Time: 1331, Open: 3, Close: 4, Volume: 1},
		{Time: 1332, Open: 4, Close: 5, Volume: 1},
	}
	out := Resample(straddle, 3, true, session, alwaysComplete)
	require.Len(t, out, 2, "align_by_section must close the group early at the segment boundary")
	assert.Equal(t, uint64(1129), out[0].Time)
	assert.Equal(t, uint64(1332), out[1].Time)
}

func TestResampleEmptyInputReturnsEmpty(t *testing.T) {
	out := Resample(nil, 5, false, nil, alwaysComplete)
	assert.Empty(t, out)
}
