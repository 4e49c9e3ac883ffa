package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantreplay/metadata"
)

func TestRolloverGuardAppliesOnlyOnRolloverDate(t *testing.T) {
	hot := metadata.NewHotManager()
	hot.AddRolloverEvent("HOT", "SHFE", "rb", 20260101, "2601", 1.0)
	hot.AddRolloverEvent("HOT", "SHFE", "rb", 20260115, "2602", 1.0)

	g := NewRolloverGuard(hot, nil, nil)

	var closed string
	closeFn := func(prevCode string, curPx float64, curTime uint64, curTDate uint32) {
		closed = prevCode
	}

	g.Apply("SHFE", "rb", 20260110, 100, 1000, closeFn)
	assert.Empty(t, closed, "must not fire on a non-rollover date")

	g.Apply("SHFE", "rb", 20260115, 100, 1000, closeFn)
	assert.Equal(t, "SHFE.2601", closed)
}

func TestRolloverGuardRespectsIncludesExcludes(t *testing.T) {
	hot := metadata.NewHotManager()
	hot.AddRolloverEvent("HOT", "SHFE", "rb", 20260101, "2601", 1.0)
	hot.AddRolloverEvent("HOT", "SHFE", "rb", 20260115, "2602", 1.0)

	excluded := NewRolloverGuard(hot, nil, []string{"rb"})
	var fired bool
	excluded.Apply("SHFE", "rb", 20260115, 100, 1000, func(string, float64, uint64, uint32) { fired = true })
	assert.False(t, fired, "excluded products must never auto-clear")

	includedOnlyOther := NewRolloverGuard(hot, []string{"cu"}, nil)
	includedOnlyOther.Apply("SHFE", "rb", 20260115, 100, 1000, func(string, float64, uint64, uint32) { fired = true })
	assert.False(t, fired, "a non-empty includes set must exclude anything not named")
}

func TestRolloverGuardNoopWithoutPriorLeg(t *testing.T) {
	hot := metadata.NewHotManager()
	hot.AddRolloverEvent("HOT", "SHFE", "rb", 20260101, "2601", 1.0)

	g := NewRolloverGuard(hot, nil, nil)
	var fired bool
	g.Apply("SHFE", "rb", 20260101, 100, 1000, func(string, float64, uint64, uint32) { fired = true })
	require.False(t, fired, "the very first rollover event has no previous leg to close")
}
