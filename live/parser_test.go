package live

import (
	"encoding/json"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantreplay/wtdata"
)

func newTestParser() *Parser {
	return NewParser("ws://unused.invalid", log.Default())
}

func TestParserDispatchQuote(t *testing.T) {
	p := newTestParser()
	var got wtdata.Tick
	var fired bool
	p.Init(func(tick wtdata.Tick) { got, fired = tick, true }, nil, nil, nil)

	data, err := json.Marshal(wtdata.Tick{Code: "SHFE.cu2601", Price: 71000})
	require.NoError(t, err)
	p.dispatch(frame{Type: "quote", Data: data})

	require.True(t, fired)
	assert.Equal(t, "SHFE.cu2601", got.Code)
	assert.Equal(t, 71000.0, got.Price)
}

func TestParserDispatchOrderQueueDetailTransaction(t *testing.T) {
	p := newTestParser()
	var q wtdata.OrderQueue
	var d wtdata.OrderDetail
	var tx wtdata.Transaction
	var qFired, dFired, txFired bool
	p.Init(nil,
		func(v wtdata.OrderQueue) { q, qFired = v, true },
		func(v wtdata.OrderDetail) { d, dFired = v, true },
		func(v wtdata.Transaction) { tx, txFired = v, true },
	)

	qData, _ := json.Marshal(wtdata.OrderQueue{L2Header: wtdata.L2Header{Code: "SHFE.cu2601"}})
	p.dispatch(frame{Type: "order_queue", Data: qData})
	require.True(t, qFired)
	assert.Equal(t, "SHFE.cu2601", q.Code)

	dData, _ := json.Marshal(wtdata.OrderDetail{L2Header: wtdata.L2Header{Code: "SHFE.cu2601"}})
	p.dispatch(frame{Type: "order_detail", Data: dData})
	require.True(t, dFired)
	assert.Equal(t, "SHFE.cu2601", d.Code)

	txData, _ := json.Marshal(wtdata.Transaction{L2Header: wtdata.L2Header{Code: "SHFE.cu2601"}})
	p.dispatch(frame{Type: "transaction", Data: txData})
	require.True(t, txFired)
	assert.Equal(t, "SHFE.cu2601", tx.Code)
}

func TestParserDispatchUnknownTypeDoesNotPanic(t *testing.T) {
	p := newTestParser()
	p.Init(func(wtdata.Tick) { t.Fatal("should not fire") }, nil, nil, nil)
	p.dispatch(frame{Type: "nonsense", Data: json.RawMessage(`{}`)})
}

func TestParserDispatchMalformedQuoteIsIgnored(t *testing.T) {
	p := newTestParser()
	p.Init(func(wtdata.Tick) { t.Fatal("should not fire on bad payload") }, nil, nil, nil)
	p.dispatch(frame{Type: "quote", Data: json.RawMessage(`not json`)})
}

func TestParserSubscribeBeforeConnectErrors(t *testing.T) {
	p := newTestParser()
	err := p.Subscribe([]string{"SHFE.cu2601"})
	assert.Error(t, err)
}

func TestParserReleaseClearsSubscriptions(t *testing.T) {
	p := newTestParser()
	p.codes["SHFE.cu2601"] = true
	p.Release()
	assert.Empty(t, p.codes)
}
