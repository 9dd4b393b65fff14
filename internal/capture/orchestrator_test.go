package capture

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"framegrab/internal/config"
	"framegrab/internal/media"
	"framegrab/internal/tonemap"
)

type fakeExtractor struct {
	mu     sync.Mutex
	calls  []ExtractSpec
	handle func(spec ExtractSpec) error
}

func (f *fakeExtractor) Extract(_ context.Context, spec ExtractSpec) error {
	f.mu.Lock()
	f.calls = append(f.calls, spec)
	f.mu.Unlock()
	return f.handle(spec)
}

func (f *fakeExtractor) FrameInfo(_ context.Context, _ string, ts float64) (FrameInfo, error) {
	return FrameInfo{PictType: "I", PTSSec: ts}, nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExtractor) strategies() []tonemap.Strategy {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]tonemap.Strategy, 0, len(f.calls))
	for _, call := range f.calls {
		out = append(out, call.Strategy)
	}
	return out
}

func writeSized(path string, size int64) error {
	return os.WriteFile(path, make([]byte, size), 0o644)
}

func disabledNegotiator() *tonemap.Negotiator {
	n := tonemap.NewNegotiator(config.Tonemap{}, nil, nil)
	n.Negotiate(context.Background(), false, false)
	return n
}

func testInput() media.Input {
	return media.Input{
		Path: "/media/in.mkv",
		Meta: media.Metadata{DurationSec: 5400, FrameRate: 24, Width: 1920, Height: 1080},
	}
}

func TestCaptureBatchOrdersResultsByIndex(t *testing.T) {
	dir := t.TempDir()
	extractor := &fakeExtractor{handle: func(spec ExtractSpec) error {
		// Later slots finish first to exercise out-of-order completion.
		time.Sleep(time.Duration(400-spec.TimestampSec) * time.Microsecond)
		return writeSized(spec.Output, 100_000+int64(spec.TimestampSec))
	}}

	cfg := config.Default().Capture
	cfg.ProcessLimit = 4
	orch := NewOrchestrator(cfg, extractor, disabledNegotiator(), false, nil)

	requests := Requests(dir, "My Movie", []float64{100, 200, 300, 400})
	results, err := orch.CaptureBatch(context.Background(), testInput(), requests, false)
	if err != nil {
		t.Fatalf("CaptureBatch returned error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, res := range results {
		if res.Index != i {
			t.Fatalf("result %d has index %d: %+v", i, res.Index, results)
		}
		if res.Err != nil {
			t.Fatalf("slot %d failed: %v", i, res.Err)
		}
		want := filepath.Join(dir, "My Movie-"+string(rune('0'+i))+".png")
		if res.Path != want {
			t.Fatalf("slot %d path %q, want %q", i, res.Path, want)
		}
	}
}

func TestCaptureBatchReusesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	requests := Requests(dir, "Show", []float64{100, 200})
	if err := writeSized(requests[0].OutputPath, 150_000); err != nil {
		t.Fatalf("seed existing file: %v", err)
	}

	extractor := &fakeExtractor{handle: func(spec ExtractSpec) error {
		return writeSized(spec.Output, 200_000)
	}}
	orch := NewOrchestrator(config.Default().Capture, extractor, disabledNegotiator(), false, nil)

	results, err := orch.CaptureBatch(context.Background(), testInput(), requests, false)
	if err != nil {
		t.Fatalf("CaptureBatch returned error: %v", err)
	}
	if extractor.callCount() != 1 {
		t.Fatalf("expected one extraction, got %d", extractor.callCount())
	}
	if results[0].SizeBytes != 150_000 {
		t.Fatalf("expected reused size 150000, got %d", results[0].SizeBytes)
	}
}

func TestHardwareFailureRetriesThenDowngradesSticky(t *testing.T) {
	dir := t.TempDir()
	extractor := &fakeExtractor{handle: func(spec ExtractSpec) error {
		if spec.Strategy == tonemap.StrategyHardware {
			return os.ErrDeadlineExceeded
		}
		return writeSized(spec.Output, 300_000)
	}}

	negotiator := tonemap.NewNegotiator(config.Tonemap{
		Enabled:          true,
		Hardware:         true,
		AssumeCompatible: true,
		Algorithm:        "mobius",
		Desat:            10,
	}, nil, nil)
	if d := negotiator.Negotiate(context.Background(), true, false); d.Strategy != tonemap.StrategyHardware {
		t.Fatalf("expected hardware decision, got %+v", d)
	}

	cfg := config.Default().Capture
	cfg.ProcessLimit = 1
	orch := NewOrchestrator(cfg, extractor, negotiator, false, nil)

	requests := Requests(dir, "HDR Movie", []float64{100, 200})
	results, err := orch.CaptureBatch(context.Background(), testInput(), requests, false)
	if err != nil {
		t.Fatalf("CaptureBatch returned error: %v", err)
	}
	for _, res := range results {
		if res.Err != nil {
			t.Fatalf("slot %d failed: %v", res.Index, res.Err)
		}
	}

	// First slot: hardware, hardware retry, then software. Second slot:
	// the downgrade is sticky, so software immediately.
	want := []tonemap.Strategy{
		tonemap.StrategyHardware, tonemap.StrategyHardware, tonemap.StrategySoftware,
		tonemap.StrategySoftware,
	}
	got := extractor.strategies()
	if len(got) != len(want) {
		t.Fatalf("strategy sequence %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("strategy sequence %v, want %v", got, want)
		}
	}
	if negotiator.Current().Strategy != tonemap.StrategySoftware {
		t.Fatalf("downgrade not sticky: %+v", negotiator.Current())
	}
}

func TestDropSmallestRemovesExtraDiscCapture(t *testing.T) {
	dir := t.TempDir()
	results := make([]Result, 0, 3)
	sizes := []int64{200_000, 90_000, 400_000}
	for i, size := range sizes {
		path := filepath.Join(dir, "DISC-"+string(rune('0'+i))+".png")
		if err := writeSized(path, size); err != nil {
			t.Fatalf("seed: %v", err)
		}
		results = append(results, Result{Index: i, Path: path, SizeBytes: size})
	}

	orch := NewOrchestrator(config.Default().Capture, &fakeExtractor{}, disabledNegotiator(), false, nil)
	kept := orch.DropSmallest(results, 2)
	if len(kept) != 2 {
		t.Fatalf("expected 2 kept results, got %d", len(kept))
	}
	for _, res := range kept {
		if res.SizeBytes == 90_000 {
			t.Fatal("smallest capture not dropped")
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "DISC-1.png")); !os.IsNotExist(err) {
		t.Fatal("dropped capture file not removed")
	}
}

func TestDropSmallestPolicyDisabled(t *testing.T) {
	cfg := config.Default().Capture
	cfg.DropSmallestExtra = false
	orch := NewOrchestrator(cfg, &fakeExtractor{}, disabledNegotiator(), false, nil)

	results := []Result{{Index: 0, SizeBytes: 10}, {Index: 1, SizeBytes: 20}, {Index: 2, SizeBytes: 30}}
	if kept := orch.DropSmallest(results, 2); len(kept) != 3 {
		t.Fatalf("expected untouched results, got %d", len(kept))
	}
}

func TestPrefetchFrameInfo(t *testing.T) {
	orch := NewOrchestrator(config.Default().Capture, &fakeExtractor{handle: func(ExtractSpec) error { return nil }}, disabledNegotiator(), false, nil)
	infos := orch.PrefetchFrameInfo(context.Background(), testInput(), []float64{10, 20, 30})
	if len(infos) != 3 {
		t.Fatalf("expected 3 infos, got %d", len(infos))
	}
	for i, info := range infos {
		if info.PictType != "I" {
			t.Fatalf("info %d = %+v", i, info)
		}
	}
}

func TestClampTimestamp(t *testing.T) {
	if got := clampTimestamp(-5, 100); got != 0 {
		t.Fatalf("negative timestamp clamped to %v", got)
	}
	if got := clampTimestamp(150, 100); got != 99 {
		t.Fatalf("overlong timestamp clamped to %v", got)
	}
	if got := clampTimestamp(50, 100); got != 50 {
		t.Fatalf("in-range timestamp changed to %v", got)
	}
}
