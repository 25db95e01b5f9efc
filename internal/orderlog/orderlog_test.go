package orderlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAppendWritesJSONLine(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORDER_LOG_DIR", dir)

	err := Append(Entry{
		Broker:        "quotex",
		Side:          "CALL",
		Stake:         10,
		ExpirationSec: 60,
		Accepted:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name := time.Now().In(brt).Format("2006-01-02") + ".txt"
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("expected daily file: %v", err)
	}

	line := strings.TrimSpace(string(data))
	var e Entry
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", line, err)
	}
	if e.Broker != "quotex" || e.Side != "CALL" || !e.Accepted {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.ID == "" {
		t.Error("expected a generated entry ID")
	}
	if e.Time == "" {
		t.Error("expected a timestamp")
	}
}

func TestAppendBalanceGoesToSubdirectory(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORDER_LOG_DIR", dir)

	if err := AppendBalance(BalanceEntry{Broker: "exnova", Balance: 123.45}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name := time.Now().In(brt).Format("2006-01-02") + ".txt"
	if _, err := os.Stat(filepath.Join(dir, "balances", name)); err != nil {
		t.Fatalf("expected balances file: %v", err)
	}
}

func TestSetDirRoutesJournals(t *testing.T) {
	t.Setenv("ORDER_LOG_DIR", "")
	cfgDir := t.TempDir()
	SetDir(cfgDir)
	t.Cleanup(func() { SetDir("") })

	if err := Append(Entry{Broker: "quotex", Side: "PUT", Stake: 5, ExpirationSec: 30}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name := time.Now().In(brt).Format("2006-01-02") + ".txt"
	if _, err := os.Stat(filepath.Join(cfgDir, name)); err != nil {
		t.Fatalf("expected journal in configured dir: %v", err)
	}

	// The environment variable still overrides the configured dir.
	envDir := t.TempDir()
	t.Setenv("ORDER_LOG_DIR", envDir)
	if err := Append(Entry{Broker: "quotex", Side: "CALL", Stake: 5, ExpirationSec: 30}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(envDir, name)); err != nil {
		t.Fatalf("expected journal in env dir: %v", err)
	}
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ORDER_LOG_DIR", dir)

	old := filepath.Join(dir, "2020-01-01.txt")
	if err := os.WriteFile(old, []byte(`{"Broker":"quotex"}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(dir, "fresh.txt")
	if err := os.WriteFile(fresh, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CompressOlder(7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(old + ".gz"); err != nil {
		t.Error("expected old file to be compressed")
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expected original old file to be removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("expected fresh file to be left alone")
	}
}

func TestCompressOlderDisabled(t *testing.T) {
	t.Setenv("ORDER_LOG_DIR", t.TempDir())
	if err := CompressOlder(0); err != nil {
		t.Fatalf("retention 0 must be a no-op, got %v", err)
	}
}
