package live

import (
	"encoding/json"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantreplay/wtdata"
)

func newTestTrader() *Trader {
	return NewTrader("ws://unused.invalid", log.Default())
}

func TestTraderDispatchChannelReady(t *testing.T) {
	tr := newTestTrader()
	var fired bool
	tr.Init(func() { fired = true }, nil, nil, nil, nil, nil, nil)
	tr.dispatch(frame{Type: "channel_ready"})
	assert.True(t, fired)
}

func TestTraderInitRegistersChannelLostHandler(t *testing.T) {
	tr := newTestTrader()
	var lost bool
	tr.Init(nil, func() { lost = true }, nil, nil, nil, nil, nil)
	// readLoop fires onChannelLost when conn.ReadJSON fails; dispatch itself
	// has no channel_lost frame type, so exercise the handler directly.
	tr.onChannelLost()
	assert.True(t, lost)
}

func TestTraderDispatchEntrustOrderTrade(t *testing.T) {
	tr := newTestTrader()
	var entrustID uint64
	var entrustOK bool
	var orderID uint64
	var orderLeftover float64
	var tradeID uint64
	var tradeVol float64
	tr.Init(nil, nil,
		func(localID uint64, success bool, message string) { entrustID, entrustOK = localID, success },
		func(localID uint64, code string, isBuy bool, leftover, price float64, canceled bool) {
			orderID, orderLeftover = localID, leftover
		},
		func(localID uint64, code string, isBuy bool, vol, price float64) {
			tradeID, tradeVol = localID, vol
		},
		nil, nil,
	)

	eData, _ := json.Marshal(map[string]interface{}{"local_id": 7, "success": true, "message": "ok"})
	tr.dispatch(frame{Type: "entrust", Data: eData})
	assert.Equal(t, uint64(7), entrustID)
	assert.True(t, entrustOK)

	oData, _ := json.Marshal(map[string]interface{}{"local_id": 8, "code": "SHFE.cu2601", "buy": true, "leftover": 2.0, "price": 71000.0, "canceled": false})
	tr.dispatch(frame{Type: "order", Data: oData})
	assert.Equal(t, uint64(8), orderID)
	assert.Equal(t, 2.0, orderLeftover)

	trData, _ := json.Marshal(map[string]interface{}{"local_id": 9, "code": "SHFE.cu2601", "buy": true, "volume": 3.0, "price": 71000.0})
	tr.dispatch(frame{Type: "trade", Data: trData})
	assert.Equal(t, uint64(9), tradeID)
	assert.Equal(t, 3.0, tradeVol)
}

func TestTraderDispatchPositionAndAccount(t *testing.T) {
	tr := newTestTrader()
	var pos wtdata.PosInfo
	var fund wtdata.FundInfo
	tr.Init(nil, nil, nil, nil, nil,
		func(p wtdata.PosInfo) { pos = p },
		func(f wtdata.FundInfo) { fund = f },
	)

	pData, _ := json.Marshal(wtdata.PosInfo{Code: "SHFE.cu2601", Volume: 5})
	tr.dispatch(frame{Type: "position", Data: pData})
	assert.Equal(t, "SHFE.cu2601", pos.Code)
	assert.Equal(t, 5.0, pos.Volume)

	fData, _ := json.Marshal(wtdata.FundInfo{Balance: 100000})
	tr.dispatch(frame{Type: "account", Data: fData})
	assert.Equal(t, 100000.0, fund.Balance)
}

func TestTraderQueryAndOrderRequireConnect(t *testing.T) {
	tr := newTestTrader()
	assert.Error(t, tr.QryAccount())
	assert.Error(t, tr.QryPositions())
	assert.Error(t, tr.QryOrders())
	assert.Error(t, tr.QryTrades())
	_, err := tr.OrderInsert("SHFE.cu2601", true, 71000, 1)
	assert.Error(t, err)
	require.Error(t, tr.OrderAction(1))
}

func TestTraderDisconnectWithoutConnectIsNoop(t *testing.T) {
	tr := newTestTrader()
	assert.NoError(t, tr.Disconnect())
}
