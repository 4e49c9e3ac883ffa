// Package replaycache implements the per-instrument lazy bar/tick/L2
// caches the virtual clock reads from during replay (C3): resampling
// 1-minute bars to N-minute, incremental extension as replay advances,
// untouched-day eviction, and split/continuous-contract adjustment.
package replaycache

import (
	"quantreplay/metadata"
	"quantreplay/reader"
	"quantreplay/wtdata"
)

// uninitializedCursor marks a BarCacheEntry that has never been loaded.
const uninitializedCursor = ^uint32(0)

// BarCacheEntry is the per-(code, period, times) cache record (spec §3
// "BarCache entry"). Cursor == uninitializedCursor means "never loaded";
// once initialized it holds the number of bars cached (0 when the reader
// returned none) and is reset to the new count whenever the cache is
// extended.
type BarCacheEntry struct {
	Code          string
	Period        wtdata.BarPeriod
	Times         uint32
	Cursor        uint32
	Count         uint32
	Block         *wtdata.Block[wtdata.Bar]
	Factor        float64
	UntouchedDays uint32
	lastBarTime   uint64
}

func newBarCacheEntry(code string, period wtdata.BarPeriod, times uint32) *BarCacheEntry {
	return &BarCacheEntry{
		Code: code, Period: period, Times: times,
		Cursor: uninitializedCursor, Factor: 1.0,
		Block: wtdata.NewBlock[wtdata.Bar](nil),
	}
}

// Slice returns a read-only view over everything currently cached.
func (e *BarCacheEntry) Slice() wtdata.Slice[wtdata.Bar] {
	return wtdata.NewSlice(e.Block)
}

func barKey(code string, period wtdata.BarPeriod, times uint32) string {
	return code + "|" + string(period) + "|" + itoa(times)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Cache owns the lazily-populated bar and tick caches for every instrument
// touched during a replay run. It is the sole owner of the backing
// wtdata.Block buffers; everything downstream only borrows Slices over
// them (design note "Slice non-ownership").
type Cache struct {
	rdr   reader.Reader
	meta  *metadata.Manager
	bars  map[string]*BarCacheEntry
	ticks map[string]*TickCacheEntry

	cacheClearDays uint32
	alignBySection bool
	nosimIfNoTrade bool
}

// Config controls cache behaviour (spec §6 replayer config subset).
type Config struct {
	CacheClearDays uint32
	AlignBySection bool
	NosimIfNoTrade bool
}

// NewCache builds a replay cache reading from rdr, consulting meta for
// session-segment boundaries used by align_by_section resampling.
func NewCache(rdr reader.Reader, meta *metadata.Manager, cfg Config) *Cache {
	return &Cache{
		rdr: rdr, meta: meta,
		bars: make(map[string]*BarCacheEntry), ticks: make(map[string]*TickCacheEntry),
		cacheClearDays: cfg.CacheClearDays, alignBySection: cfg.AlignBySection, nosimIfNoTrade: cfg.NosimIfNoTrade,
	}
}

// GetBars returns the cached bars for (code, period, times), extending the
// cache from the reader as needed. times==1 against the reader's native
// period is a pass-through (no resampling); times>1 resamples from the
// base period, subject to align_by_section and the last-bar-closedness
// rule (spec §4.2).
func (c *Cache) GetBars(code string, period wtdata.BarPeriod, times uint32, tEnd uint64, sessionID string) (wtdata.Slice[wtdata.Bar], error) {
	if times == 0 {
		times = 1
	}
	key := barKey(code, period, times)
	entry, ok := c.bars[key]
	if !ok {
		entry = newBarCacheEntry(code, period, times)
		c.bars[key] = entry
	}
	entry.UntouchedDays = 0

	if entry.Cursor == uninitializedCursor {
		if err := c.initialLoad(entry, sessionID); err != nil {
			return wtdata.Slice[wtdata.Bar]{}, err
		}
	} else {
		if err := c.incrementalExtend(entry, sessionID); err != nil {
			return wtdata.Slice[wtdata.Bar]{}, err
		}
	}

	full := entry.Slice()
	if tEnd == reader.LatestTime {
		return full, nil
	}
	head := 0
	for head < full.Len() && full.At(head).Time > tEnd {
		head++
	}
	tail := full.Len()
	for tail > 0 && full.At(tail-1).Time > tEnd {
		tail--
	}
	return full.Range(0, tail), nil
}

func (c *Cache) initialLoad(entry *BarCacheEntry, sessionID string) error {
	base, err := c.rdr.ReadBarsByRange(entry.Code, entry.Period, 0, reader.LatestTime)
	if err != nil {
		return err
	}
	bars := base.Extract()
	c.applyAdjustment(entry.Code, bars)

	var resampled []wtdata.Bar
	if entry.Times == 1 {
		resampled = bars
	} else {
		session, _ := c.meta.Session(sessionID)
		resampled = Resample(bars, entry.Times, c.alignBySection, session, isComplete(0))
	}

	entry.Block = wtdata.NewBlock(resampled)
	entry.Count = uint32(len(resampled))
	entry.Cursor = uint32(len(resampled))
	if len(resampled) > 0 {
		entry.lastBarTime = resampled[len(resampled)-1].Time
	}
	return nil
}

func (c *Cache) incrementalExtend(entry *BarCacheEntry, sessionID string) error {
	newBase, err := c.rdr.ReadBarsByRange(entry.Code, entry.Period, entry.lastBarTime+1, reader.LatestTime)
	if err != nil {
		return err
	}
	if newBase.Empty() {
		return nil
	}
	extra := newBase.Extract()
	c.applyAdjustment(entry.Code, extra)

	var appended []wtdata.Bar
	if entry.Times == 1 {
		appended = extra
	} else {
		session, _ := c.meta.Session(sessionID)
		appended = Resample(extra, entry.Times, c.alignBySection, session, isComplete(0))
	}
	if len(appended) == 0 {
		return nil
	}
	merged := append(entry.Block.Data, appended...)
	entry.Block = wtdata.NewBlock(merged)
	entry.Count = uint32(len(merged))
	entry.Cursor = uint32(len(merged))
	entry.lastBarTime = merged[len(merged)-1].Time
	return nil
}

// isComplete is a placeholder wall-clock predicate: in a historical replay
// every extent that has been fully read from the reader is, by
// definition, complete (there is no "still forming" bar once the backing
// store has returned it as a finished record). A live/incremental reader
// that streams partially-formed bars should pass a real clock-based
// predicate instead.
func isComplete(_ uint64) func(wtdata.Bar) bool {
	return func(wtdata.Bar) bool { return true }
}

// applyAdjustment multiplies OHLC (and, per the reader's adjust flag,
// volume/turnover/open-interest) by the chained split/dividend factor for
// "+H"-suffixed back-adjusted codes (spec §4.2). "+Q" forward-adjusted
// codes are identity at the current date and are left untouched.
func (c *Cache) applyAdjustment(code string, bars []wtdata.Bar) {
	if len(bars) == 0 {
		return
	}
	suffix := adjustSuffix(code)
	if suffix != "+H" {
		return
	}
	flag := c.rdr.GetAdjustingFlag()
	for i := range bars {
		factor, err := c.rdr.GetAdjFactorByDate(code, bars[i].Date)
		if err != nil || factor == 0 {
			factor = 1.0
		}
		bars[i].Open *= factor
		bars[i].High *= factor
		bars[i].Low *= factor
		bars[i].Close *= factor
		if flag&reader.AdjustVolume != 0 {
			bars[i].Volume *= factor
		}
		if flag&reader.AdjustTurnover != 0 {
			bars[i].Turnover *= factor
		}
		if flag&reader.AdjustOI != 0 {
			bars[i].OpenInterest *= factor
		}
	}
}

func adjustSuffix(code string) string {
	if len(code) >= 2 {
		return code[len(code)-2:]
	}
	return ""
}

// Evict sweeps every cached entry, incrementing UntouchedDays for ones not
// accessed since the last call, and freeing the backing Block of any entry
// past cacheClearDays (spec §4.2 "Eviction").
func (c *Cache) Evict() {
	for key, entry := range c.bars {
		entry.UntouchedDays++
		if entry.UntouchedDays > c.cacheClearDays {
			delete(c.bars, key)
		}
	}
	for key, entry := range c.ticks {
		entry.UntouchedDays++
		if entry.UntouchedDays > c.cacheClearDays {
			delete(c.ticks, key)
		}
	}
}
