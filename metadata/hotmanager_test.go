package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHotManagerGetRawCodeResolvesInForceEvent(t *testing.T) {
	h := NewHotManager()
	h.AddRolloverEvent("HOT", "SHFE", "rb", 20260101, "2601", 1.0)
	h.AddRolloverEvent("HOT", "SHFE", "rb", 20260115, "2602", 0.98)

	code, err := h.GetRawCode("SHFE", "rb", 20260110)
	require.NoError(t, err)
	assert.Equal(t, "2601", code)

	code, err = h.GetRawCode("SHFE", "rb", 20260120)
	require.NoError(t, err)
	assert.Equal(t, "2602", code)
}

func TestHotManagerGetRawCodeErrorsWithNoChain(t *testing.T) {
	h := NewHotManager()
	_, err := h.GetRawCode("SHFE", "rb", 20260101)
	assert.Error(t, err)
}

func TestHotManagerGetPrevRawCode(t *testing.T) {
	h := NewHotManager()
	h.AddRolloverEvent("HOT", "SHFE", "rb", 20260101, "2601", 1.0)
	h.AddRolloverEvent("HOT", "SHFE", "rb", 20260115, "2602", 0.98)

	prev, ok := h.GetPrevRawCode("SHFE", "rb", 20260115)
	require.True(t, ok)
	assert.Equal(t, "2601", prev)

	_, ok = h.GetPrevRawCode("SHFE", "rb", 20260101)
	assert.False(t, ok, "the first-ever event has no predecessor")
}

func TestHotManagerHasRolledOverOnlyOnExactDate(t *testing.T) {
	h := NewHotManager()
	h.AddRolloverEvent("HOT", "SHFE", "rb", 20260115, "2602", 0.98)

	assert.True(t, h.HasRolledOver("SHFE", "rb", 20260115))
	assert.False(t, h.HasRolledOver("SHFE", "rb", 20260116))
	assert.False(t, h.HasRolledOver("SHFE", "rb", 20260114))
}

func TestHotManagerGetRuleFactor(t *testing.T) {
	h := NewHotManager()
	h.AddRolloverEvent("HOT", "SHFE", "rb", 20260101, "2601", 1.0)
	h.AddRolloverEvent("HOT", "SHFE", "rb", 20260115, "2602", 0.98)

	factor, err := h.GetRuleFactor("HOT", "SHFE.rb", 20260120)
	require.NoError(t, err)
	assert.Equal(t, 0.98, factor)

	factor, err = h.GetRuleFactor("HOT", "SHFE.rb", 19990101)
	require.NoError(t, err)
	assert.Equal(t, 1.0, factor, "before the first event, the default factor is 1.0")
}

func TestHotManagerGetRuleFactorMalformedPid(t *testing.T) {
	h := NewHotManager()
	_, err := h.GetRuleFactor("HOT", "nodot", 20260101)
	assert.Error(t, err)
}
