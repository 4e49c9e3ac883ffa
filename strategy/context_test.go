package strategy

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDataRoundTripsAndOnlyFlushesWhenDirty(t *testing.T) {
	ctx := NewCTAContext(testMeta(), &fakeRouter{}, newFakeBook(), &fakeSignalSink{}, discardLogger())

	_, dirty := ctx.FlushUserDataIfDirty()
	assert.False(t, dirty, "nothing saved yet: must not report dirty")

	ctx.SaveUserData("lastSignal", "buy")
	assert.Equal(t, "buy", ctx.LoadUserData("lastSignal", "none"))
	assert.Equal(t, "none", ctx.LoadUserData("missing", "none"))

	data, dirty := ctx.FlushUserDataIfDirty()
	require.True(t, dirty)
	assert.Equal(t, "buy", data["lastSignal"])

	_, dirty = ctx.FlushUserDataIfDirty()
	assert.False(t, dirty, "a second flush with no new writes must report clean")
}

func TestLoadUserDataSnapshotSeedsWithoutMarkingDirty(t *testing.T) {
	ctx := NewCTAContext(testMeta(), &fakeRouter{}, newFakeBook(), &fakeSignalSink{}, discardLogger())

	ctx.LoadUserDataSnapshot(map[string]string{"resumed": "yes"})
	assert.Equal(t, "yes", ctx.LoadUserData("resumed", ""))

	_, dirty := ctx.FlushUserDataIfDirty()
	assert.False(t, dirty, "loading a snapshot must not itself mark user data dirty")
}

func TestCheckOrderInvariantLogsOnMissingEntrust(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	ctx := NewCTAContext(testMeta(), &fakeRouter{}, newFakeBook(), &fakeSignalSink{}, logger)

	ctx.OnOrder(7, "SHFE.rb.2601", true, 1, 100, false, 1000)
	assert.Contains(t, buf.String(), "no prior entrust")
}

func TestCheckOrderInvariantLogsOnEventAfterTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	ctx := NewCTAContext(testMeta(), &fakeRouter{}, newFakeBook(), &fakeSignalSink{}, logger)

	ctx.OnEntrust(7, "SHFE.rb.2601", true, "", 1000)
	ctx.OnOrder(7, "SHFE.rb.2601", true, 0, 100, false, 1000) // leftover 0: terminal
	buf.Reset()
	ctx.OnOrder(7, "SHFE.rb.2601", true, 0, 100, true, 1001)
	assert.Contains(t, buf.String(), "already went terminal")
}

func TestCheckOrderInvariantSilentOnWellFormedSequence(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	ctx := NewCTAContext(testMeta(), &fakeRouter{}, newFakeBook(), &fakeSignalSink{}, logger)

	ctx.OnEntrust(9, "SHFE.rb.2601", true, "", 1000)
	ctx.OnOrder(9, "SHFE.rb.2601", true, 1, 100, false, 1000)
	assert.Empty(t, buf.String())
}
