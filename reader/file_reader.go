package reader

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"quantreplay/errs"
	"quantreplay/wtdata"
)

// FileReader reads fixed-record flat binary block files, one file per
// (code, period) for bars or (code, date) for ticks, the layout the
// teacher's append-only journal format (internal/journals) generalizes to
// typed fixed-size records here. Files are read lazily and cached whole in
// memory for the lifetime of the reader — adequate for a replay run, which
// reads each extent at most a handful of times.
type FileReader struct {
	root string

	mu        sync.Mutex
	barBlocks map[string]*wtdata.Block[wtdata.Bar]
	tickBlocks map[string]*wtdata.Block[wtdata.Tick]
	adjFactors map[string]map[uint32]float64
	adjustFlag uint32
}

// NewFileReader creates a reader rooted at dir. dir is expected to contain
// "bars/<code>.<period>.bin" and "ticks/<code>.<date>.bin" files written by
// WriteBarFile/WriteTickFile.
func NewFileReader(dir string, adjustFlag uint32) *FileReader {
	return &FileReader{
		root:       dir,
		barBlocks:  make(map[string]*wtdata.Block[wtdata.Bar]),
		tickBlocks: make(map[string]*wtdata.Block[wtdata.Tick]),
		adjFactors: make(map[string]map[uint32]float64),
		adjustFlag: adjustFlag,
	}
}

func barKey(code string, period wtdata.BarPeriod) string {
	return code + "|" + string(period)
}

func (r *FileReader) loadBarBlock(code string, period wtdata.BarPeriod) (*wtdata.Block[wtdata.Bar], error) {
	key := barKey(code, period)
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.barBlocks[key]; ok {
		return b, nil
	}
	path := filepath.Join(r.root, "bars", fmt.Sprintf("%s.%s.bin", code, period))
	bars, err := readBarFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			block := wtdata.NewBlock[wtdata.Bar](nil)
			r.barBlocks[key] = block
			return block, nil
		}
		return nil, &errs.ReaderError{Code: code, Err: err}
	}
	block := wtdata.NewBlock(bars)
	r.barBlocks[key] = block
	return block, nil
}

// ReadBarsByRange implements Reader.
func (r *FileReader) ReadBarsByRange(code string, period wtdata.BarPeriod, from, to uint64) (wtdata.Slice[wtdata.Bar], error) {
	block, err := r.loadBarBlock(code, period)
	if err != nil {
		return wtdata.Slice[wtdata.Bar]{}, err
	}
	full := wtdata.NewSlice(block)
	head := sort.Search(full.Len(), func(i int) bool { return full.At(i).Time >= from })
	var tail int
	if to == LatestTime {
		tail = full.Len()
	} else {
		tail = sort.Search(full.Len(), func(i int) bool { return full.At(i).Time >= to })
	}
	return full.Range(head, tail), nil
}

// ReadBarsByCount implements Reader.
func (r *FileReader) ReadBarsByCount(code string, period wtdata.BarPeriod, n int, tEnd uint64) (wtdata.Slice[wtdata.Bar], error) {
	block, err := r.loadBarBlock(code, period)
	if err != nil {
		return wtdata.Slice[wtdata.Bar]{}, err
	}
	full := wtdata.NewSlice(block)
	var tail int
	if tEnd == LatestTime {
		tail = full.Len()
	} else {
		tail = sort.Search(full.Len(), func(i int) bool { return full.At(i).Time > tEnd })
	}
	head := tail - n
	if head < 0 {
		head = 0
	}
	return full.Range(head, tail), nil
}

// ReadBarsByDate implements Reader.
func (r *FileReader) ReadBarsByDate(code string, period wtdata.BarPeriod, date uint32) (wtdata.Slice[wtdata.Bar], error) {
	block, err := r.loadBarBlock(code, period)
	if err != nil {
		return wtdata.Slice[wtdata.Bar]{}, err
	}
	full := wtdata.NewSlice(block)
	head := sort.Search(full.Len(), func(i int) bool { return full.At(i).Date >= date })
	tail := sort.Search(full.Len(), func(i int) bool { return full.At(i).Date > date })
	return full.Range(head, tail), nil
}

func (r *FileReader) loadTickBlock(code string, date uint32) (*wtdata.Block[wtdata.Tick], error) {
	key := fmt.Sprintf("%s|%d", code, date)
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.tickBlocks[key]; ok {
		return b, nil
	}
	path := filepath.Join(r.root, "ticks", fmt.Sprintf("%s.%d.bin", code, date))
	ticks, err := readTickFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			block := wtdata.NewBlock[wtdata.Tick](nil)
			r.tickBlocks[key] = block
			return block, nil
		}
		return nil, &errs.ReaderError{Code: code, Err: err}
	}
	block := wtdata.NewBlock(ticks)
	r.tickBlocks[key] = block
	return block, nil
}

// ReadTicksByRange implements Reader.
func (r *FileReader) ReadTicksByRange(code string, from, to uint64) (wtdata.Slice[wtdata.Tick], error) {
	// Ticks are cached per-day; callers crossing day boundaries must call
	// once per date and merge (the replay cache does this).
	date := uint32(from / 1000000000)
	block, err := r.loadTickBlock(code, date)
	if err != nil {
		return wtdata.Slice[wtdata.Tick]{}, err
	}
	full := wtdata.NewSlice(block)
	head := sort.Search(full.Len(), func(i int) bool { return full.At(i).ActionTimestamp() >= from })
	var tail int
	if to == LatestTime {
		tail = full.Len()
	} else {
		tail = sort.Search(full.Len(), func(i int) bool { return full.At(i).ActionTimestamp() >= to })
	}
	return full.Range(head, tail), nil
}

// ReadTicksByCount implements Reader.
func (r *FileReader) ReadTicksByCount(code string, n int, tEnd uint64) (wtdata.Slice[wtdata.Tick], error) {
	date := uint32(tEnd / 1000000000)
	block, err := r.loadTickBlock(code, date)
	if err != nil {
		return wtdata.Slice[wtdata.Tick]{}, err
	}
	full := wtdata.NewSlice(block)
	var tail int
	if tEnd == LatestTime {
		tail = full.Len()
	} else {
		tail = sort.Search(full.Len(), func(i int) bool { return full.At(i).ActionTimestamp() > tEnd })
	}
	head := tail - n
	if head < 0 {
		head = 0
	}
	return full.Range(head, tail), nil
}

// ReadTicksByDate implements Reader.
func (r *FileReader) ReadTicksByDate(code string, date uint32) (wtdata.Slice[wtdata.Tick], error) {
	block, err := r.loadTickBlock(code, date)
	if err != nil {
		return wtdata.Slice[wtdata.Tick]{}, err
	}
	return wtdata.NewSlice(block), nil
}

// ReadOrdQueByDate, ReadOrdDtlByDate, ReadTransByDate: the reference
// FileReader does not persist L2 depth-detail streams (only bars/ticks);
// absence of data is empty, never an error, matching the contract.
func (r *FileReader) ReadOrdQueByDate(code string, date uint32) (wtdata.Slice[wtdata.OrderQueue], error) {
	return wtdata.NewSlice(wtdata.NewBlock[wtdata.OrderQueue](nil)), nil
}

func (r *FileReader) ReadOrdDtlByDate(code string, date uint32) (wtdata.Slice[wtdata.OrderDetail], error) {
	return wtdata.NewSlice(wtdata.NewBlock[wtdata.OrderDetail](nil)), nil
}

func (r *FileReader) ReadTransByDate(code string, date uint32) (wtdata.Slice[wtdata.Transaction], error) {
	return wtdata.NewSlice(wtdata.NewBlock[wtdata.Transaction](nil)), nil
}

// GetAdjFactorByDate implements Reader.
func (r *FileReader) GetAdjFactorByDate(code string, date uint32) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	factors, ok := r.adjFactors[code]
	if !ok {
		return 1.0, nil
	}
	var best float64 = 1.0
	var bestDate uint32
	for d, f := range factors {
		if d <= date && d >= bestDate {
			bestDate = d
			best = f
		}
	}
	return best, nil
}

// SetAdjFactors installs the split/dividend factor table for code, keyed by
// effective date.
func (r *FileReader) SetAdjFactors(code string, factors map[uint32]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adjFactors[code] = factors
}

// GetAdjustingFlag implements Reader.
func (r *FileReader) GetAdjustingFlag() uint32 {
	return r.adjustFlag
}

// Release implements Reader. The in-memory FileReader has nothing to
// release beyond letting the GC reclaim the cached blocks.
func (r *FileReader) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.barBlocks = make(map[string]*wtdata.Block[wtdata.Bar])
	r.tickBlocks = make(map[string]*wtdata.Block[wtdata.Tick])
}

// --- on-disk record encoding ---
// Fixed-width little-endian records, one struct field per binary.Write
// call, matching the teacher's general preference for explicit wire
// formats over reflection-based encoding.

const barRecordFields = 12
const tickRecordFields = 5 + 4*wtdata.BookDepth

// WriteBarFile writes bars for one (code, period) extent to path,
// creating parent directories as needed.
func WriteBarFile(path string, bars []wtdata.Bar) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, b := range bars {
		if err := binary.Write(w, binary.LittleEndian, uint64(b.Date)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, b.Time); err != nil {
			return err
		}
		vals := []float64{b.Open, b.High, b.Low, b.Close, b.Volume, b.Turnover, b.OpenInterest, b.AddInterest, b.Bid, b.Ask}
		for _, v := range vals {
			if err := binary.Write(w, binary.LittleEndian, math.Float64bits(v)); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

func readBarFile(path string) ([]wtdata.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var out []wtdata.Bar
	for {
		var date, time uint64
		if err := binary.Read(r, binary.LittleEndian, &date); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &time); err != nil {
			return nil, err
		}
		var vals [10]uint64
		for i := range vals {
			if err := binary.Read(r, binary.LittleEndian, &vals[i]); err != nil {
				return nil, err
			}
		}
		out = append(out, wtdata.Bar{
			Date: uint32(date), Time: time,
			Open: math.Float64frombits(vals[0]), High: math.Float64frombits(vals[1]),
			Low: math.Float64frombits(vals[2]), Close: math.Float64frombits(vals[3]),
			Volume: math.Float64frombits(vals[4]), Turnover: math.Float64frombits(vals[5]),
			OpenInterest: math.Float64frombits(vals[6]), AddInterest: math.Float64frombits(vals[7]),
			Bid: math.Float64frombits(vals[8]), Ask: math.Float64frombits(vals[9]),
		})
	}
	return out, nil
}

// WriteTickFile writes ticks for one (code, date) extent to path.
func WriteTickFile(path string, ticks []wtdata.Tick) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, t := range ticks {
		if err := binary.Write(w, binary.LittleEndian, uint64(t.TradingDate)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(t.ActionDate)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(t.ActionTime)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, math.Float64bits(t.Price)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, math.Float64bits(t.Volume)); err != nil {
			return err
		}
		for i := 0; i < wtdata.BookDepth; i++ {
			for _, v := range []float64{t.BidPrices[i], t.AskPrices[i], t.BidQty[i], t.AskQty[i]} {
				if err := binary.Write(w, binary.LittleEndian, math.Float64bits(v)); err != nil {
					return err
				}
			}
		}
	}
	return w.Flush()
}

func readTickFile(path string) ([]wtdata.Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var out []wtdata.Tick
	for {
		var tdate, adate, atime uint64
		if err := binary.Read(r, binary.LittleEndian, &tdate); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &adate); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &atime); err != nil {
			return nil, err
		}
		var priceBits, volBits uint64
		if err := binary.Read(r, binary.LittleEndian, &priceBits); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &volBits); err != nil {
			return nil, err
		}
		t := wtdata.Tick{
			TradingDate: uint32(tdate), ActionDate: uint32(adate), ActionTime: uint32(atime),
			Price: math.Float64frombits(priceBits), Volume: math.Float64frombits(volBits),
		}
		for i := 0; i < wtdata.BookDepth; i++ {
			var bp, ap, bq, aq uint64
			if err := binary.Read(r, binary.LittleEndian, &bp); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &ap); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &bq); err != nil {
				return nil, err
			}
			if err := binary.Read(r, binary.LittleEndian, &aq); err != nil {
				return nil, err
			}
			t.BidPrices[i] = math.Float64frombits(bp)
			t.AskPrices[i] = math.Float64frombits(ap)
			t.BidQty[i] = math.Float64frombits(bq)
			t.AskQty[i] = math.Float64frombits(aq)
		}
		out = append(out, t)
	}
	return out, nil
}
