package logger

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.log")

	log, closer, err := New("info", path)
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("hidden", "source", "test")
	log.Info("visible", "source", "test")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Expected a single JSON record, got %q: %v", data, err)
	}
	if rec["msg"] != "visible" || rec["source"] != "test" {
		t.Errorf("Unexpected record: %v", rec)
	}
}

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (f *fakePruner) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 1, nil
}

func (f *fakePruner) calls() []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.cutoffs...)
}

func TestPruneUsageLogs_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pruner := &fakePruner{}

	done := make(chan struct{})
	go func() {
		PruneUsageLogs(ctx, pruner, 24*time.Hour, time.Hour)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(pruner.calls()) == 0 {
		select {
		case <-deadline:
			t.Fatal("Expected an immediate pruning pass")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("PruneUsageLogs did not return after cancel")
	}

	cutoff := pruner.calls()[0]
	if d := time.Since(cutoff); d < 24*time.Hour || d > 25*time.Hour {
		t.Errorf("Expected cutoff about 24h ago, got %v ago", d)
	}
}
