package wtdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickDepthAccessorsOutOfRange(t *testing.T) {
	tk := Tick{}
	tk.BidPrices[0] = 100
	tk.AskPrices[0] = 101
	tk.BidQty[0] = 5
	tk.AskQty[0] = 7

	assert.Equal(t, 100.0, tk.BidPrice(0))
	assert.Equal(t, 101.0, tk.AskPrice(0))
	assert.Equal(t, 5.0, tk.BidQtyAt(0))
	assert.Equal(t, 7.0, tk.AskQtyAt(0))

	assert.Equal(t, 0.0, tk.BidPrice(-1))
	assert.Equal(t, 0.0, tk.AskPrice(BookDepth))
	assert.Equal(t, 0.0, tk.BidQtyAt(BookDepth+1))
	assert.Equal(t, 0.0, tk.AskQtyAt(-5))
}

func TestTickActionTimestamp(t *testing.T) {
	tk := Tick{ActionDate: 20260731, ActionTime: 93000500}
	got := tk.ActionTimestamp()
	assert.Equal(t, uint64(20260731)*1000000000+93000500, got)
}

func TestBarIsDaily(t *testing.T) {
	daily := Bar{Time: 20260731}
	intraday := Bar{Time: (202607 - 199000) * 10000 + 930}

	assert.True(t, daily.IsDaily())
	assert.False(t, intraday.IsDaily())
}
