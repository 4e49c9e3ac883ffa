package reader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantreplay/wtdata"
)

func TestFileReaderBarRoundTrip(t *testing.T) {
	dir := t.TempDir()
	bars := []wtdata.Bar{
		{Date: 20260101, Time: 10100930, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Date: 20260101, Time: 10100931, Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 200},
		{Date: 20260102, Time: 20260102, Open: 11.5, High: 13, Low: 11, Close: 12, Volume: 50},
	}
	path := filepath.Join(dir, "bars", "SHFE.cu2601.m1.bin")
	require.NoError(t, WriteBarFile(path, bars))

	r := NewFileReader(dir, AdjustVolume)
	defer r.Release()

	slice, err := r.ReadBarsByRange("SHFE.cu2601", wtdata.Period1Min, 0, LatestTime)
	require.NoError(t, err)
	require.Equal(t, 3, slice.Len())
	assert.Equal(t, 10.5, slice.At(0).Close)

	byDate, err := r.ReadBarsByDate("SHFE.cu2601", wtdata.Period1Min, 20260101)
	require.NoError(t, err)
	assert.Equal(t, 2, byDate.Len())

	byCount, err := r.ReadBarsByCount("SHFE.cu2601", wtdata.Period1Min, 1, LatestTime)
	require.NoError(t, err)
	require.Equal(t, 1, byCount.Len())
	assert.Equal(t, 12.0, byCount.At(0).Close)

	assert.Equal(t, AdjustVolume, r.GetAdjustingFlag())
}

func TestFileReaderBarFileMissingIsEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	r := NewFileReader(dir, 0)
	defer r.Release()

	slice, err := r.ReadBarsByRange("NOPE.x", wtdata.Period1Min, 0, LatestTime)
	require.NoError(t, err)
	assert.Equal(t, 0, slice.Len())
}

func TestFileReaderTickRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ticks := []wtdata.Tick{
		{TradingDate: 20260101, ActionDate: 20260101, ActionTime: 93000, Price: 100, Volume: 1},
		{TradingDate: 20260101, ActionDate: 20260101, ActionTime: 93001, Price: 101, Volume: 2},
	}
	ticks[0].BidPrices[0], ticks[0].AskPrices[0] = 99, 101
	ticks[1].BidPrices[0], ticks[1].AskPrices[0] = 100, 102

	path := filepath.Join(dir, "ticks", "SHFE.cu2601.20260101.bin")
	require.NoError(t, WriteTickFile(path, ticks))

	r := NewFileReader(dir, 0)
	defer r.Release()

	byDate, err := r.ReadTicksByDate("SHFE.cu2601", 20260101)
	require.NoError(t, err)
	require.Equal(t, 2, byDate.Len())
	assert.Equal(t, 101.0, byDate.At(1).Price)
	assert.Equal(t, 99.0, byDate.At(0).BidPrices[0])

	byRange, err := r.ReadTicksByRange("SHFE.cu2601", ticks[0].ActionTimestamp(), LatestTime)
	require.NoError(t, err)
	assert.Equal(t, 2, byRange.Len())

	byCount, err := r.ReadTicksByCount("SHFE.cu2601", 1, ticks[1].ActionTimestamp())
	require.NoError(t, err)
	require.Equal(t, 1, byCount.Len())
	assert.Equal(t, 101.0, byCount.At(0).Price)
}

func TestFileReaderAdjFactor(t *testing.T) {
	dir := t.TempDir()
	r := NewFileReader(dir, 0)
	defer r.Release()

	f, err := r.GetAdjFactorByDate("SHFE.cu2601", 20260101)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f)

	r.SetAdjFactors("SHFE.cu2601", map[uint32]float64{20260101: 0.98, 20260201: 0.97})
	f, err = r.GetAdjFactorByDate("SHFE.cu2601", 20260115)
	require.NoError(t, err)
	assert.Equal(t, 0.98, f)
}

func TestFileReaderL2StreamsAreEmptyNotError(t *testing.T) {
	dir := t.TempDir()
	r := NewFileReader(dir, 0)
	defer r.Release()

	oq, err := r.ReadOrdQueByDate("SHFE.cu2601", 20260101)
	require.NoError(t, err)
	assert.Equal(t, 0, oq.Len())

	od, err := r.ReadOrdDtlByDate("SHFE.cu2601", 20260101)
	require.NoError(t, err)
	assert.Equal(t, 0, od.Len())

	tx, err := r.ReadTransByDate("SHFE.cu2601", 20260101)
	require.NoError(t, err)
	assert.Equal(t, 0, tx.Len())
}
