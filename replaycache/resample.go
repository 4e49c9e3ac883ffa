package replaycache

import (
	"quantreplay/metadata"
	"quantreplay/wtdata"
)

// Resample aggregates base-period bars into times-multiple target bars
// per spec §4.2:
//
//   - open = first base bar's open, close = last base bar's close,
//     high = max high, low = min low, volume/turnover = sum, open
//     interest = last.
//   - When session is non-nil, groups never cross a session-segment
//     boundary; an incomplete group at a boundary closes early
//     (truncation, not merged into the next segment) — see spec S4.
//   - The last bar is dropped from the result unless complete(lastBar)
//     reports it is past its theoretical close (so replay never emits an
//     unfinished bar as already closed).
func Resample(base []wtdata.Bar, times uint32, alignBySection bool, session *metadata.SessionInfo, complete func(wtdata.Bar) bool) []wtdata.Bar {
	if times <= 1 || len(base) == 0 {
		return base
	}

	var out []wtdata.Bar
	var group []wtdata.Bar

	flush := func() {
		if len(group) == 0 {
			return
		}
		out = append(out, aggregate(group))
		group = group[:0]
	}

	for _, b := range base {
		if alignBySection && session != nil && len(group) > 0 && crossesSegment(group[len(group)-1], b, session) {
			flush()
		}
		group = append(group, b)
		if len(group) == int(times) {
			flush()
		}
	}
	// trailing partial group: still a bar (e.g. truncated at a segment
	// boundary per S4), but subject to the last-bar-closedness rule below
	if len(group) > 0 {
		out = append(out, aggregate(group))
		group = group[:0]
	}

	if len(out) > 0 && complete != nil && !complete(out[len(out)-1]) {
		out = out[:len(out)-1]
	}
	return out
}

func aggregate(group []wtdata.Bar) wtdata.Bar {
	first := group[0]
	last := group[len(group)-1]
	agg := wtdata.Bar{
		Date:         last.Date,
		Time:         last.Time,
		Open:         first.Open,
		Close:        last.Close,
		High:         first.High,
		Low:          first.Low,
		OpenInterest: last.OpenInterest,
	}
	for _, b := range group {
		if b.High > agg.High {
			agg.High = b.High
		}
		if b.Low < agg.Low {
			agg.Low = b.Low
		}
		agg.Volume += b.Volume
		agg.Turnover += b.Turnover
	}
	return agg
}

// crossesSegment reports whether prev and next fall in different
// session-segments (e.g. morning vs. afternoon vs. night), by testing
// whether some session window boundary lies strictly between their
// minute-of-day components.
func crossesSegment(prev, next wtdata.Bar, session *metadata.SessionInfo) bool {
	prevMin := uint32(prev.Time % 10000)
	nextMin := uint32(next.Time % 10000)
	for _, w := range session.Windows {
		boundary := w.Close
		if boundary < w.Open {
			boundary += 2400
		}
		pm, nm := prevMin, nextMin
		if boundary > 2400 {
			// window crosses midnight in absolute minute-of-day terms;
			// compare against the wrapped boundary directly.
			boundary -= 2400
		}
		if pm <= boundary && nm > boundary {
			return true
		}
	}
	return false
}
