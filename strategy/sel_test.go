package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSELFireAppliesTargetsAndRecordsSignals(t *testing.T) {
	router := &fakeRouter{}
	book := newFakeBook()
	signals := &fakeSignalSink{}

	onFire := func(positions map[string]float64) map[string]float64 {
		return map[string]float64{"SHFE.rb.2601": 5}
	}
	ctx := NewSELContext(router, book, signals, onFire, discardLogger())

	ctx.Fire([]string{"SHFE.rb.2601"}, 1000)

	require.Len(t, router.orders, 1)
	assert.True(t, router.orders[0].isBuy)
	assert.Equal(t, 5.0, router.orders[0].qty)
	assert.Equal(t, marketBuyPrice, router.orders[0].price)
	require.Len(t, signals.signals, 1)
	assert.Equal(t, 5.0, signals.signals[0].Target)
}

func TestSELFireSellUsesMarketSellPrice(t *testing.T) {
	router := &fakeRouter{}
	book := newFakeBook()
	book.volumes["SHFE.rb.2601"] = 5
	signals := &fakeSignalSink{}

	onFire := func(positions map[string]float64) map[string]float64 {
		return map[string]float64{"SHFE.rb.2601": 2}
	}
	ctx := NewSELContext(router, book, signals, onFire, discardLogger())

	ctx.Fire([]string{"SHFE.rb.2601"}, 1000)

	require.Len(t, router.orders, 1)
	assert.False(t, router.orders[0].isBuy)
	assert.Equal(t, 3.0, router.orders[0].qty)
	assert.Equal(t, marketSellPrice, router.orders[0].price)
}

func TestSELFireSkipsUnchangedTarget(t *testing.T) {
	router := &fakeRouter{}
	book := newFakeBook()
	book.volumes["SHFE.rb.2601"] = 5
	signals := &fakeSignalSink{}

	onFire := func(positions map[string]float64) map[string]float64 {
		return map[string]float64{"SHFE.rb.2601": 5}
	}
	ctx := NewSELContext(router, book, signals, onFire, discardLogger())
	ctx.Fire([]string{"SHFE.rb.2601"}, 1000)

	assert.Empty(t, router.orders)
	assert.Empty(t, signals.signals)
}

func TestSELFireAutoExitsCodesDroppedFromTargetSet(t *testing.T) {
	router := &fakeRouter{}
	book := newFakeBook()
	book.volumes["SHFE.rb.2601"] = 4
	signals := &fakeSignalSink{}

	calls := 0
	onFire := func(positions map[string]float64) map[string]float64 {
		calls++
		if calls == 1 {
			return map[string]float64{"SHFE.rb.2601": 4}
		}
		return map[string]float64{} // SHFE.rb.2601 dropped: auto-exit to zero
	}
	ctx := NewSELContext(router, book, signals, onFire, discardLogger())

	ctx.Fire([]string{"SHFE.rb.2601"}, 1000)
	assert.Empty(t, router.orders, "first fire is already at target, no order expected")

	ctx.Fire([]string{"SHFE.rb.2601"}, 2000)
	require.Len(t, router.orders, 1)
	assert.False(t, router.orders[0].isBuy)
	assert.Equal(t, 4.0, router.orders[0].qty)
}
