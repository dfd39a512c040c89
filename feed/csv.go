package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/xyproto/unzip"

	"github.com/brynbeaudry/loserbot9000-sub002/market"
)

// CSVFeed streams bars from a CSV file with columns
// time,open,high,low,close[,volume]. Files ending in .xz are
// decompressed on the fly; .zip archives are unpacked to a temp
// directory and the first CSV inside is used.
type CSVFeed struct {
	f        *os.File
	r        *csv.Reader
	from, to time.Time
	tmpDir   string
	sawFirst bool
}

// NewCSVFeed opens path and returns a feed over bars within [from, to].
// Zero from/to values leave that side unbounded.
func NewCSVFeed(path string, from, to time.Time) (*CSVFeed, error) {
	feed := &CSVFeed{from: from, to: to}

	switch {
	case strings.HasSuffix(path, ".zip"):
		dir, err := os.MkdirTemp("", "bars-*")
		if err != nil {
			return nil, err
		}
		if err := unzip.Extract(path, dir); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("unpack %s: %w", path, err)
		}
		inner, err := findCSV(dir)
		if err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
		f, err := os.Open(inner)
		if err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
		feed.f = f
		feed.tmpDir = dir
		feed.r = csv.NewReader(f)

	case strings.HasSuffix(path, ".xz"):
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		zr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		feed.f = f
		feed.r = csv.NewReader(zr)

	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		feed.f = f
		feed.r = csv.NewReader(f)
	}

	feed.r.FieldsPerRecord = -1 // rows may or may not carry volume
	return feed, nil
}

// Next returns the next bar within the time range.
func (c *CSVFeed) Next() (market.Candle, bool, error) {
	for {
		row, err := c.r.Read()
		if err == io.EOF {
			return market.Candle{}, false, nil
		}
		if err != nil {
			return market.Candle{}, false, err
		}
		// Tolerate a single header row.
		if !c.sawFirst {
			c.sawFirst = true
			if len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}
		candle, ok, err := parseBarRow(row)
		if err != nil {
			return market.Candle{}, false, err
		}
		if !ok {
			continue
		}
		if !inRange(candle.Time, c.from, c.to) {
			continue
		}
		return candle, true, nil
	}
}

// Close releases the file and any temp directory a zip was unpacked to.
func (c *CSVFeed) Close() error {
	var err error
	if c.f != nil {
		err = c.f.Close()
	}
	if c.tmpDir != "" {
		if rerr := os.RemoveAll(c.tmpDir); err == nil {
			err = rerr
		}
	}
	return err
}

func parseBarRow(row []string) (market.Candle, bool, error) {
	if len(row) < 5 {
		return market.Candle{}, false, nil
	}
	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return market.Candle{}, false, nil
	}
	t, err := parseBarTime(ts)
	if err != nil {
		return market.Candle{}, false, err
	}
	open, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
	if err != nil {
		return market.Candle{}, false, fmt.Errorf("bad open %q: %w", row[1], err)
	}
	high, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
	if err != nil {
		return market.Candle{}, false, fmt.Errorf("bad high %q: %w", row[2], err)
	}
	low, err := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
	if err != nil {
		return market.Candle{}, false, fmt.Errorf("bad low %q: %w", row[3], err)
	}
	cl, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
	if err != nil {
		return market.Candle{}, false, fmt.Errorf("bad close %q: %w", row[4], err)
	}
	var volume float64
	if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
		volume, err = strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if err != nil {
			return market.Candle{}, false, fmt.Errorf("bad volume %q: %w", row[5], err)
		}
	}
	candle := market.Candle{Open: open, High: high, Low: low, Close: cl, Time: t, Volume: volume}
	if err := candle.Validate(); err != nil {
		return market.Candle{}, false, fmt.Errorf("bad bar at %s: %w", ts, err)
	}
	return candle, true, nil
}

// parseBarTime accepts RFC3339 (with or without fractional seconds)
// and plain unix seconds.
func parseBarTime(ts string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err == nil {
		return t, nil
	}
	if secs, serr := strconv.ParseInt(ts, 10, 64); serr == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q: %w", ts, err)
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

func findCSV(dir string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if found == "" && !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			found = path
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", fmt.Errorf("no csv file in archive dir %s", dir)
	}
	return found, nil
}
