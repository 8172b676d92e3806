package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	tradeHeader  = []string{"trade_id", "instrument", "side", "quantity", "entry_price", "exit_price", "open_time", "close_time", "realized_pl", "reason"}
	equityHeader = []string{"time", "cash", "equity", "quantity"}
)

// sheet is one CSV file, flushed after every row so a crashed run keeps
// what it wrote.
type sheet struct {
	file *os.File
	w    *csv.Writer
}

func createSheet(path string, header []string) (*sheet, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s := &sheet{file: f, w: csv.NewWriter(f)}
	if err := s.append(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header %s: %w", path, err)
	}
	return s, nil
}

func (s *sheet) append(row []string) error {
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

func (s *sheet) close() error {
	s.w.Flush()
	return errors.Join(s.w.Error(), s.file.Close())
}

// CSVJournal writes trades and equity snapshots to two CSV files.
type CSVJournal struct {
	trades *sheet
	equity *sheet
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	trades, err := createSheet(tradesPath, tradeHeader)
	if err != nil {
		return nil, err
	}
	equity, err := createSheet(equityPath, equityHeader)
	if err != nil {
		_ = trades.close()
		return nil, err
	}
	return &CSVJournal{trades: trades, equity: equity}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return j.trades.append([]string{
		t.TradeID,
		t.Instrument,
		t.Side,
		strconv.FormatInt(t.Quantity, 10),
		f(t.EntryPrice),
		f(t.ExitPrice),
		ts(t.OpenTime),
		ts(t.CloseTime),
		f(t.RealizedPL),
		t.Reason,
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return j.equity.append([]string{
		ts(e.Time),
		f(e.Cash),
		f(e.Equity),
		strconv.FormatInt(e.Quantity, 10),
	})
}

func (j *CSVJournal) Close() error {
	return errors.Join(j.trades.close(), j.equity.close())
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
