// Package output implements the CSV trade/position ledgers and the
// JSON incremental-resume snapshot (C9), grounded on the teacher's
// CSV-writing idiom in internal/market/data_api.go (encoding/csv, one
// writer per output file, flushed explicitly) generalized to the five
// fixed schemas spec §4.8/§6 define.
package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"quantreplay/accounting"
)

// Writer owns the five CSV files for one backtest run, each opened in
// append mode so incremental resume never truncates prior rows.
type Writer struct {
	dir     string
	trades  *csvFile
	closes  *csvFile
	funds   *csvFile
	signals *csvFile
	positions *csvFile
}

type csvFile struct {
	f *os.File
	w *csv.Writer
}

func openCSV(dir, name string, header []string) (*csvFile, error) {
	path := filepath.Join(dir, name)
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	w.UseCRLF = false
	if statErr != nil {
		if err := w.Write(header); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
	}
	return &csvFile{f: f, w: w}, nil
}

// NewWriter opens (or creates) the five CSVs under dir, writing a
// header row to each only if the file is new.
func NewWriter(dir string) (*Writer, error) {
	trades, err := openCSV(dir, "trades.csv", []string{"code", "time", "direct", "action", "price", "qty", "fee"})
	if err != nil {
		return nil, err
	}
	closes, err := openCSV(dir, "closes.csv", []string{
		"code", "direct", "opentime", "openprice", "closetime", "closeprice", "qty",
		"profit", "maxprofit", "maxloss", "totalprofit", "entertag", "exittag", "openbarno", "closebarno",
	})
	if err != nil {
		return nil, err
	}
	funds, err := openCSV(dir, "funds.csv", []string{
		"date", "predynbalance", "prebalance", "balance", "closeprofit", "positionprofit", "fee",
		"maxdynbalance", "maxtime", "mindynbalance", "mintime", "mdmaxbalance", "mdmaxdate", "mdminbalance", "mdmindate",
	})
	if err != nil {
		return nil, err
	}
	signals, err := openCSV(dir, "signals.csv", []string{"code", "target", "sigprice", "gentime", "usertag"})
	if err != nil {
		return nil, err
	}
	positions, err := openCSV(dir, "positions.csv", []string{"date", "code", "volume", "closeprofit", "dynprofit"})
	if err != nil {
		return nil, err
	}
	return &Writer{dir: dir, trades: trades, closes: closes, funds: funds, signals: signals, positions: positions}, nil
}

func f(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
func u(v uint64) string  { return strconv.FormatUint(v, 10) }
func u32(v uint32) string { return strconv.FormatUint(uint64(v), 10) }

func direct(isBuy bool) string {
	if isBuy {
		return "long"
	}
	return "short"
}

// WriteTrade appends one row to trades.csv.
func (w *Writer) WriteTrade(code string, tradeTime uint64, long, isOpen bool, price, qty, fee float64) error {
	action := "close"
	if isOpen {
		action = "open"
	}
	return w.trades.w.Write([]string{code, u(tradeTime), direct(long), action, f(price), f(qty), f(fee)})
}

// WriteClose appends one row to closes.csv.
func (w *Writer) WriteClose(code string, long bool, openTime uint64, openPrice float64, closeTime uint64, closePrice, qty, profit, maxProfit, maxLoss, totalProfit float64, enterTag, exitTag string, openBarNo, closeBarNo uint32) error {
	return w.closes.w.Write([]string{
		code, direct(long), u(openTime), f(openPrice), u(closeTime), f(closePrice), f(qty),
		f(profit), f(maxProfit), f(maxLoss), f(totalProfit), enterTag, exitTag, u32(openBarNo), u32(closeBarNo),
	})
}

// WriteFunds appends one row to funds.csv.
func (w *Writer) WriteFunds(row accounting.FundsRow) error {
	return w.funds.w.Write([]string{
		u32(row.Date), f(row.PreDynBalance), f(row.PreBalance), f(row.Balance), f(row.CloseProfit), f(row.PositionProfit), f(row.Fee),
		f(row.MaxDynBalance), u(row.MaxTime), f(row.MinDynBalance), u(row.MinTime),
		f(row.MdMaxBalance), u32(row.MdMaxDate), f(row.MdMinBalance), u32(row.MdMinDate),
	})
}

// WriteSignal appends one row to signals.csv.
func (w *Writer) WriteSignal(code string, target, sigPrice float64, genTime uint64, userTag string) error {
	return w.signals.w.Write([]string{code, f(target), f(sigPrice), u(genTime), userTag})
}

// WritePosition appends one row to positions.csv.
func (w *Writer) WritePosition(date uint32, code string, volume, closeProfit, dynProfit float64) error {
	return w.positions.w.Write([]string{u32(date), code, f(volume), f(closeProfit), f(dynProfit)})
}

// Flush flushes every underlying csv.Writer, returning the first error
// encountered (if any), after attempting all five.
func (w *Writer) Flush() error {
	var firstErr error
	for _, cf := range []*csvFile{w.trades, w.closes, w.funds, w.signals, w.positions} {
		cf.w.Flush()
		if err := cf.w.Error(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close flushes and closes all five files.
func (w *Writer) Close() error {
	err := w.Flush()
	for _, cf := range []*csvFile{w.trades, w.closes, w.funds, w.signals, w.positions} {
		if cerr := cf.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
