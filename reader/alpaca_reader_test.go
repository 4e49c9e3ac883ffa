package reader

import (
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/stretchr/testify/assert"

	"quantreplay/wtdata"
)

func TestAlpacaReaderTimeframeFor(t *testing.T) {
	assert.Equal(t, marketdata.OneDay, timeframeFor(wtdata.Period1Day))
	assert.Equal(t, marketdata.OneMin, timeframeFor(wtdata.Period1Min))
}

func TestAlpacaReaderWtTimeDaily(t *testing.T) {
	date, encoded := wtTime(time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC), wtdata.Period1Day)
	assert.Equal(t, uint32(20260731), date)
	assert.Equal(t, uint64(20260731), encoded)
}

func TestAlpacaReaderWtTimeIntraday(t *testing.T) {
	date, encoded := wtTime(time.Date(2026, 7, 31, 9, 30, 0, 0, time.UTC), wtdata.Period1Min)
	assert.Equal(t, uint32(20260731), date)
	// yyyymm=202607, (202607-199000)*10000+930
	assert.Equal(t, (uint64(202607)-199000)*10000+930, encoded)
}

func TestAlpacaReaderEncodeDecodeEngineTimeIntraday(t *testing.T) {
	encoded := encodeEngineTime(time.Date(2026, 7, 31, 9, 30, 0, 0, time.UTC))
	decoded := decodeEngineTime(encoded)
	assert.Equal(t, 2026, decoded.Year())
	assert.Equal(t, time.July, decoded.Month())
	assert.Equal(t, 9, decoded.Hour())
	assert.Equal(t, 30, decoded.Minute())
}

func TestAlpacaReaderDecodeEngineTimeDaily(t *testing.T) {
	decoded := decodeEngineTime(20260731)
	assert.Equal(t, 2026, decoded.Year())
	assert.Equal(t, time.July, decoded.Month())
	assert.Equal(t, 31, decoded.Day())
}

func TestAlpacaReaderBarLookback(t *testing.T) {
	assert.Equal(t, 20*24*time.Hour*2, barLookback(wtdata.Period1Day, 20))
	assert.Equal(t, 20*time.Minute*2, barLookback(wtdata.Period1Min, 20))
}

func TestNewAlpacaReaderStubsAreEmpty(t *testing.T) {
	r := NewAlpacaReader("key", "secret", marketdata.IEX)
	defer r.Release()

	assert.Equal(t, uint32(0), r.GetAdjustingFlag())
	f, err := r.GetAdjFactorByDate("AAPL", 20260731)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, f)

	ticks, err := r.ReadTicksByDate("AAPL", 20260731)
	assert.NoError(t, err)
	assert.Equal(t, 0, ticks.Len())

	oq, err := r.ReadOrdQueByDate("AAPL", 20260731)
	assert.NoError(t, err)
	assert.Equal(t, 0, oq.Len())
}
