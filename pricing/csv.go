package pricing

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ReadCandlesCSV parses rows of time,open,high,low,close[,volume]. A header
// row whose first column is "time" is skipped. Times are RFC3339.
func ReadCandlesCSV(r io.Reader, instrument string) ([]Candle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var out []Candle
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}

		c, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c.Instrument = instrument
		out = append(out, c)
	}
}

// LoadCandlesCSV opens path and parses it with ReadCandlesCSV.
func LoadCandlesCSV(path, instrument string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCandlesCSV(f, instrument)
}

func parseRow(row []string) (Candle, error) {
	if len(row) < 5 {
		return Candle{}, fmt.Errorf("bad row (need time,open,high,low,close): %v", row)
	}

	ts := strings.TrimSpace(row[0])
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Candle{}, fmt.Errorf("bad time %q: %w", row[0], err)
	}

	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Candle{}, fmt.Errorf("bad price %q: %w", row[i+1], err)
		}
		vals[i] = v
	}

	c := Candle{
		Time:  t,
		Open:  vals[0],
		High:  vals[1],
		Low:   vals[2],
		Close: vals[3],
	}
	if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
		vol, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if err != nil {
			return Candle{}, fmt.Errorf("bad volume %q: %w", row[5], err)
		}
		c.Volume = vol
	}
	if !c.Valid() {
		return Candle{}, fmt.Errorf("invalid candle at %s", ts)
	}
	return c, nil
}
