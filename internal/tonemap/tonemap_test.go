package tonemap

import (
	"context"
	"errors"
	"strings"
	"testing"

	"framegrab/internal/config"
)

type fakeProber struct {
	hardwareErr error
	softwareErr error
	probes      []Strategy
	warmups     int
}

func (f *fakeProber) Probe(_ context.Context, strategy Strategy) error {
	f.probes = append(f.probes, strategy)
	if strategy == StrategyHardware {
		return f.hardwareErr
	}
	return f.softwareErr
}

func (f *fakeProber) Warmup(context.Context) error {
	f.warmups++
	return nil
}

func tonemapConfig() config.Tonemap {
	cfg := config.Default()
	return cfg.Tonemap
}

func TestNegotiateDisabledWhenNotHDR(t *testing.T) {
	prober := &fakeProber{}
	n := NewNegotiator(tonemapConfig(), prober, nil)
	decision := n.Negotiate(context.Background(), false, false)
	if decision.Applied || decision.Strategy != StrategyDisabled {
		t.Fatalf("unexpected decision %+v", decision)
	}
	if len(prober.probes) != 0 {
		t.Fatalf("expected no probes, got %v", prober.probes)
	}
}

func TestNegotiateHardwareSuccess(t *testing.T) {
	prober := &fakeProber{}
	n := NewNegotiator(tonemapConfig(), prober, nil)
	decision := n.Negotiate(context.Background(), true, false)
	if decision.Strategy != StrategyHardware || !decision.Applied {
		t.Fatalf("unexpected decision %+v", decision)
	}
	if len(prober.probes) != 1 || prober.probes[0] != StrategyHardware {
		t.Fatalf("unexpected probe sequence %v", prober.probes)
	}
}

func TestNegotiateFallsBackToSoftware(t *testing.T) {
	prober := &fakeProber{hardwareErr: errors.New("no vulkan")}
	n := NewNegotiator(tonemapConfig(), prober, nil)
	decision := n.Negotiate(context.Background(), true, false)
	if decision.Strategy != StrategySoftware || !decision.Applied {
		t.Fatalf("unexpected decision %+v", decision)
	}
	want := []Strategy{StrategyHardware, StrategySoftware}
	if len(prober.probes) != 2 || prober.probes[0] != want[0] || prober.probes[1] != want[1] {
		t.Fatalf("unexpected probe sequence %v", prober.probes)
	}
}

func TestNegotiateBothProbesFailDisables(t *testing.T) {
	prober := &fakeProber{
		hardwareErr: errors.New("no vulkan"),
		softwareErr: errors.New("no zscale"),
	}
	n := NewNegotiator(tonemapConfig(), prober, nil)
	decision := n.Negotiate(context.Background(), true, false)
	if decision.Applied || decision.Strategy != StrategyDisabled {
		t.Fatalf("unexpected decision %+v", decision)
	}
}

func TestNegotiateOverlayBypassesHardware(t *testing.T) {
	prober := &fakeProber{}
	n := NewNegotiator(tonemapConfig(), prober, nil)
	decision := n.Negotiate(context.Background(), true, true)
	if decision.Strategy != StrategySoftware || !decision.Applied {
		t.Fatalf("unexpected decision %+v", decision)
	}
	if len(prober.probes) != 0 {
		t.Fatalf("overlay must not probe, got %v", prober.probes)
	}
}

func TestNegotiateIsComputedOnce(t *testing.T) {
	prober := &fakeProber{}
	n := NewNegotiator(tonemapConfig(), prober, nil)
	first := n.Negotiate(context.Background(), true, false)
	second := n.Negotiate(context.Background(), true, false)
	if first != second {
		t.Fatalf("decisions differ: %+v vs %+v", first, second)
	}
	if len(prober.probes) != 1 {
		t.Fatalf("expected a single probe, got %v", prober.probes)
	}
}

func TestDowngradeIsSticky(t *testing.T) {
	prober := &fakeProber{}
	n := NewNegotiator(tonemapConfig(), prober, nil)
	n.Negotiate(context.Background(), true, false)

	decision := n.Downgrade()
	if decision.Strategy != StrategySoftware {
		t.Fatalf("expected software after downgrade, got %+v", decision)
	}
	if n.Current().Strategy != StrategySoftware {
		t.Fatalf("downgrade not reflected in Current: %+v", n.Current())
	}
	// A second downgrade never re-enables hardware.
	if again := n.Downgrade(); again.Strategy != StrategySoftware {
		t.Fatalf("unexpected strategy after second downgrade: %+v", again)
	}
}

func TestWarmUpOnlyRunsOnHardware(t *testing.T) {
	cfg := tonemapConfig()
	cfg.Warmup = true

	prober := &fakeProber{}
	n := NewNegotiator(cfg, prober, nil)
	n.Negotiate(context.Background(), true, false)
	n.WarmUp(context.Background())
	if prober.warmups != 1 {
		t.Fatalf("expected one warm-up, got %d", prober.warmups)
	}

	soft := &fakeProber{hardwareErr: errors.New("no vulkan")}
	m := NewNegotiator(cfg, soft, nil)
	m.Negotiate(context.Background(), true, false)
	m.WarmUp(context.Background())
	if soft.warmups != 0 {
		t.Fatalf("warm-up must not run on software chain, got %d", soft.warmups)
	}
}

func TestFilterStage(t *testing.T) {
	n := NewNegotiator(tonemapConfig(), nil, nil)
	hw := n.FilterStage(StrategyHardware)
	if !strings.Contains(hw, "libplacebo") {
		t.Fatalf("unexpected hardware stage %q", hw)
	}
	sw := n.FilterStage(StrategySoftware)
	if !strings.Contains(sw, "tonemap=tonemap=mobius") || !strings.Contains(sw, "desat=10") {
		t.Fatalf("unexpected software stage %q", sw)
	}
	if n.FilterStage(StrategyDisabled) != "" {
		t.Fatal("expected empty stage when disabled")
	}
}

func TestHardwareInputArgs(t *testing.T) {
	if args := HardwareInputArgs(StrategySoftware); args != nil {
		t.Fatalf("expected nil args for software, got %v", args)
	}
	args := HardwareInputArgs(StrategyHardware)
	if len(args) != 2 || args[0] != "-init_hw_device" || args[1] != "vulkan" {
		t.Fatalf("unexpected args %v", args)
	}
}
