package orderlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	mu  sync.Mutex
	dir string
)

// brt is the market timezone; daily files roll over on Sao Paulo midnight.
var brt = time.FixedZone("BRT", -3*3600)

// SetDir points the journal at the configured directory. The
// ORDER_LOG_DIR environment variable still wins so ad hoc runs can
// redirect output without touching config.yaml.
func SetDir(d string) {
	mu.Lock()
	defer mu.Unlock()
	dir = d
}

// Entry is one executed or attempted order.
type Entry struct {
	ID, Time, Broker, Side string
	Stake                  float64
	ExpirationSec          int
	Accepted               bool
	Reason                 string         `json:"Reason,omitempty"`
	Extra                  map[string]any `json:"extra,omitempty"`
}

// BalanceEntry is a balance observation, kept so win/loss can be inferred
// later from the balance series.
type BalanceEntry struct {
	Time, Broker string
	Balance      float64
}

func logDir() string {
	if v := os.Getenv("ORDER_LOG_DIR"); v != "" {
		return v
	}
	if dir != "" {
		return dir
	}
	return "logs"
}
func dailyFilepath(t time.Time) string {
	d := t.In(brt).Format("2006-01-02")
	return filepath.Join(logDir(), d+".txt")
}
func balancesFilepath(t time.Time) string {
	d := t.In(brt).Format("2006-01-02")
	return filepath.Join(logDir(), "balances", d+".txt")
}
func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(brt)
	e.ID = uuid.NewString()
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(dailyFilepath(now), e)
}
func AppendBalance(e BalanceEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().In(brt)
	e.Time = now.Format("2006-01-02 15:04:05")
	return appendLine(balancesFilepath(now), e)
}
func appendLine(p string, v any) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, _ := json.Marshal(v)
	_, err = fmt.Fprintln(f, string(b))
	return err
}
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	root := logDir()
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(p) != ".txt" {
			return nil
		}
		info, er := os.Stat(p)
		if er != nil {
			return nil
		}
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		if info.ModTime().Before(cutoff) {
			gz := p + ".gz"
			// if already gz exists, remove original .txt
			if _, e2 := os.Stat(gz); e2 == nil {
				_ = os.Remove(p)
				return nil
			}

			in, e3 := os.Open(p)
			if e3 != nil {
				return nil
			}
			defer in.Close()

			out, e4 := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if e4 != nil {
				return nil
			}
			gw := gzip.NewWriter(out)
			if _, e5 := io.Copy(gw, in); e5 == nil {
				_ = gw.Close()
				_ = out.Close()
				_ = os.Remove(p)
			} else {
				_ = gw.Close()
				_ = out.Close()
			}
		}
		return nil
	})
}
