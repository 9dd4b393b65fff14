package capture

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"testing"

	"framegrab/internal/config"
	"framegrab/internal/media"
	"framegrab/internal/services"
)

func TestSingleFileRetakeSchedule(t *testing.T) {
	orch := NewOrchestrator(config.Default().Capture, &fakeExtractor{}, disabledNegotiator(), false, nil)

	got := orch.retakeTimestamps(media.KindSingleFile, 200, 5400)
	want := []float64{205, 210, 190, 300, 100}
	if len(got) != len(want) {
		t.Fatalf("schedule %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("schedule %v, want %v", got, want)
		}
	}
}

func TestSingleFileRetakeScheduleClampsAtZero(t *testing.T) {
	orch := NewOrchestrator(config.Default().Capture, &fakeExtractor{}, disabledNegotiator(), false, nil)

	got := orch.retakeTimestamps(media.KindSingleFile, 4, 5400)
	want := []float64{9, 14, 0, 104, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("schedule %v, want %v", got, want)
		}
	}
}

func TestDiscRetakesDrawRandomTimestamps(t *testing.T) {
	draws := []float64{0.25, 0.5, 0.75}
	i := 0
	randFloat = func() float64 { v := draws[i%len(draws)]; i++; return v }
	defer func() { randFloat = rand.Float64 }()

	orch := NewOrchestrator(config.Default().Capture, &fakeExtractor{}, disabledNegotiator(), false, nil)
	got := orch.retakeTimestamps(media.KindBluray, 0, 1000)
	want := []float64{250, 500, 750}
	if len(got) != len(want) {
		t.Fatalf("schedule %v, want %v", got, want)
	}
	for j := range want {
		if got[j] != want[j] {
			t.Fatalf("schedule %v, want %v", got, want)
		}
	}
}

func TestValidateAndRetakeAcceptsOnThirdOffset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Movie-0.png")

	// 50 KB original; +5s and +10s stay small; -10s yields 200 KB.
	sizes := map[float64]int64{205: 60_000, 210: 70_000, 190: 200_000}
	extractor := &fakeExtractor{handle: func(spec ExtractSpec) error {
		size, ok := sizes[spec.TimestampSec]
		if !ok {
			t.Fatalf("unexpected retake timestamp %v", spec.TimestampSec)
		}
		return writeSized(spec.Output, size)
	}}

	orch := NewOrchestrator(config.Default().Capture, extractor, disabledNegotiator(), false, nil)
	if err := writeSized(path, 50_000); err != nil {
		t.Fatalf("seed: %v", err)
	}
	results := []Result{{Index: 0, Path: path, TimestampSec: 200, SizeBytes: 50_000}}

	out := orch.ValidateAndRetake(context.Background(), testInput(), media.KindSingleFile, results, "ptpimg", true)
	if out[0].Err != nil {
		t.Fatalf("slot failed: %v", out[0].Err)
	}
	if out[0].SizeBytes != 200_000 {
		t.Fatalf("accepted size %d, want 200000", out[0].SizeBytes)
	}
	if extractor.callCount() != 3 {
		t.Fatalf("expected 3 retake extractions, got %d", extractor.callCount())
	}
}

func TestFloorAppliesToEveryHost(t *testing.T) {
	orch := NewOrchestrator(config.Default().Capture, &fakeExtractor{}, disabledNegotiator(), false, nil)
	for _, host := range []string{"ptpimg", "pixhost", "imgbb", "imgbox", "lensdump"} {
		if orch.acceptable(75_000, media.KindSingleFile, host, false) {
			t.Errorf("host %s accepted a capture at the retake floor", host)
		}
		if !orch.acceptable(200_000, media.KindSingleFile, host, false) {
			t.Errorf("host %s rejected a healthy 200 KB capture", host)
		}
	}
}

func TestDVDFirstPassFloor(t *testing.T) {
	orch := NewOrchestrator(config.Default().Capture, &fakeExtractor{}, disabledNegotiator(), false, nil)
	if orch.acceptable(100_000, media.KindDVD, "ptpimg", true) {
		t.Fatal("first-pass DVD capture under 120 KB must be retaken")
	}
	if !orch.acceptable(100_000, media.KindDVD, "ptpimg", false) {
		t.Fatal("retake-pass DVD capture above the universal floor must be accepted")
	}
}

func TestExhaustionLeavesSlotFailedAndBatchContinues(t *testing.T) {
	dir := t.TempDir()
	extractor := &fakeExtractor{handle: func(spec ExtractSpec) error {
		return writeSized(spec.Output, 10_000)
	}}
	orch := NewOrchestrator(config.Default().Capture, extractor, disabledNegotiator(), false, nil)

	small := filepath.Join(dir, "Movie-0.png")
	healthy := filepath.Join(dir, "Movie-1.png")
	if err := writeSized(small, 10_000); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := writeSized(healthy, 300_000); err != nil {
		t.Fatalf("seed: %v", err)
	}
	results := []Result{
		{Index: 0, Path: small, TimestampSec: 200, SizeBytes: 10_000},
		{Index: 1, Path: healthy, TimestampSec: 400, SizeBytes: 300_000},
	}

	out := orch.ValidateAndRetake(context.Background(), testInput(), media.KindSingleFile, results, "ptpimg", true)
	if !errors.Is(out[0].Err, services.ErrExhausted) {
		t.Fatalf("expected exhausted slot, got %v", out[0].Err)
	}
	if out[1].Err != nil || out[1].SizeBytes != 300_000 {
		t.Fatalf("healthy slot disturbed: %+v", out[1])
	}
	if extractor.callCount() != len(singleFileOffsets) {
		t.Fatalf("expected %d retakes, got %d", len(singleFileOffsets), extractor.callCount())
	}
}
