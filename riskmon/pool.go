// Package riskmon implements the bounded background worker pool (§4.10 /
// §5): rolling realized-volatility and drawdown summaries per
// instrument, computed from read-only snapshots of fund/position state.
// Grounded on the teacher's strategies.PairsTradingStrategy use of
// gonum.org/v1/gonum/stat (stat.Mean/stat.StdDev over a returns window),
// generalized from a single pair to an arbitrary per-instrument pool.
package riskmon

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Summary is one instrument's rolling risk readout.
type Summary struct {
	Code         string
	Volatility   float64 // stdev of the return series over the window
	MeanReturn   float64
	MaxDrawdown  float64
	samples      int
}

// instrumentState tracks the rolling price/return window for one code.
// Guarded by its own mutex (spec §5 "short spin-mutex per PosInfo" —
// Go has no portable userspace spinlock in the standard library, so a
// plain sync.Mutex stands in for it here; see DESIGN.md).
type instrumentState struct {
	mu      sync.Mutex
	prices  []float64
	peak    float64
	maxDD   float64
	window  int
}

// Pool is a bounded worker pool recomputing Summary values off the
// scheduler thread. Size 0 disables it entirely (spec "must be
// opt-in") — every method becomes a no-op / returns the zero Summary.
type Pool struct {
	size    int
	window  int
	jobs    chan job
	wg      sync.WaitGroup

	mu    sync.Mutex
	state map[string]*instrumentState
	last  map[string]Summary
}

type job struct {
	code  string
	price float64
}

// NewPool builds a pool with size workers, each instrument's rolling
// window holding the last `window` prices. size<=0 disables the pool.
func NewPool(size, window int) *Pool {
	p := &Pool{
		size: size, window: window,
		state: make(map[string]*instrumentState),
		last:  make(map[string]Summary),
	}
	if size <= 0 {
		return p
	}
	p.jobs = make(chan job, size*4)
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Enabled reports whether this pool runs any workers.
func (p *Pool) Enabled() bool { return p.size > 0 }

// Submit posts a mark-to-market price update for code. No-op if the
// pool is disabled. Never blocks the caller on result availability —
// read back via Summary once processed.
func (p *Pool) Submit(code string, price float64) {
	if !p.Enabled() {
		return
	}
	select {
	case p.jobs <- job{code: code, price: price}:
	default:
		// pool saturated: drop the sample rather than block the
		// scheduler thread (spec §5: worker tasks must be commutative
		// with replay order and never stall it).
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.process(j)
	}
}

func (p *Pool) process(j job) {
	p.mu.Lock()
	st, ok := p.state[j.code]
	if !ok {
		st = &instrumentState{window: p.window}
		p.state[j.code] = st
	}
	p.mu.Unlock()

	st.mu.Lock()
	st.prices = append(st.prices, j.price)
	if len(st.prices) > st.window {
		st.prices = st.prices[len(st.prices)-st.window:]
	}
	if j.price > st.peak {
		st.peak = j.price
	}
	if st.peak > 0 {
		dd := (st.peak - j.price) / st.peak
		if dd > st.maxDD {
			st.maxDD = dd
		}
	}

	summary := Summary{Code: j.code, MaxDrawdown: st.maxDD, samples: len(st.prices)}
	if len(st.prices) >= 2 {
		returns := make([]float64, len(st.prices)-1)
		for i := 1; i < len(st.prices); i++ {
			returns[i-1] = (st.prices[i] - st.prices[i-1]) / st.prices[i-1]
		}
		summary.MeanReturn = stat.Mean(returns, nil)
		summary.Volatility = stat.StdDev(returns, nil)
	}
	st.mu.Unlock()

	p.mu.Lock()
	p.last[j.code] = summary
	p.mu.Unlock()
}

// SummaryFor returns the most recently computed Summary for code, or
// the zero value with ok=false if nothing has been processed yet (or
// the pool is disabled).
func (p *Pool) SummaryFor(code string) (Summary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.last[code]
	return s, ok
}

// Snapshot returns every instrument's current Summary, suitable for
// embedding in datas.json's riskmon section.
func (p *Pool) Snapshot() map[string]Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]Summary, len(p.last))
	for k, v := range p.last {
		out[k] = v
	}
	return out
}

// Close stops accepting new jobs and waits for in-flight ones to drain.
func (p *Pool) Close() {
	if !p.Enabled() {
		return
	}
	close(p.jobs)
	p.wg.Wait()
}
