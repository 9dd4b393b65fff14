// Package tonemap negotiates the HDR-to-SDR conversion strategy for a run.
//
// The negotiator probes the hardware-accelerated libplacebo chain with a
// throwaway single-frame extraction, falls back to the software zscale chain
// when the probe fails, and disables tonemapping entirely when both fail.
// The decision is made once per run; a later hardware capture failure may
// downgrade it to software, and a downgrade is sticky for the rest of the
// run.
package tonemap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"framegrab/internal/config"
	"framegrab/internal/logging"
)

// Strategy selects the tonemap filter chain.
type Strategy string

const (
	StrategyHardware Strategy = "hardware"
	StrategySoftware Strategy = "software"
	StrategyDisabled Strategy = "disabled"
)

// Decision is the negotiated outcome consumed by the capture pipeline.
// Applied is false when the source needs no tonemapping or when both
// chains failed the probe.
type Decision struct {
	Strategy Strategy
	Applied  bool
}

// Prober attempts a single-frame throwaway extraction with the given
// strategy's filter chain. Implemented by the capture runner.
type Prober interface {
	Probe(ctx context.Context, strategy Strategy) error
	Warmup(ctx context.Context) error
}

// Negotiator decides and tracks the run's tonemap strategy. Safe for use
// from concurrent capture tasks.
type Negotiator struct {
	cfg    config.Tonemap
	prober Prober
	logger *slog.Logger

	mu         sync.Mutex
	decided    bool
	decision   Decision
	downgraded bool
}

// NewNegotiator builds a negotiator. A nil logger is replaced with a no-op.
func NewNegotiator(cfg config.Tonemap, prober Prober, logger *slog.Logger) *Negotiator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Negotiator{
		cfg:    cfg,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "tonemap"),
	}
}

// Negotiate computes the run decision. needsTonemap reports whether the
// source is classified HDR; overlay requests bypass hardware probing since
// overlay rendering only exists on the software chain.
func (n *Negotiator) Negotiate(ctx context.Context, needsTonemap, overlay bool) Decision {
	if n == nil {
		return Decision{Strategy: StrategyDisabled}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.decided {
		return n.decision
	}

	decision := Decision{Strategy: StrategyDisabled}
	switch {
	case !n.cfg.Enabled || !needsTonemap:
	case overlay:
		decision = Decision{Strategy: StrategySoftware, Applied: true}
		n.logger.Info("overlay requested, using software chain")
	case !n.cfg.Hardware || n.cfg.AssumeCompatible:
		strategy := StrategySoftware
		if n.cfg.Hardware {
			strategy = StrategyHardware
		}
		decision = Decision{Strategy: strategy, Applied: true}
		n.logger.Info("skipping probe", logging.String(logging.FieldStrategy, string(strategy)))
	default:
		decision = n.probeLocked(ctx)
	}

	n.decided = true
	n.decision = decision
	return decision
}

func (n *Negotiator) probeLocked(ctx context.Context) Decision {
	if n.prober == nil {
		return Decision{Strategy: StrategySoftware, Applied: true}
	}
	if err := n.prober.Probe(ctx, StrategyHardware); err == nil {
		n.logger.Info("hardware probe succeeded")
		return Decision{Strategy: StrategyHardware, Applied: true}
	} else {
		n.logger.Warn("hardware probe failed, trying software chain", logging.Error(err))
	}
	if err := n.prober.Probe(ctx, StrategySoftware); err == nil {
		n.logger.Info("software probe succeeded")
		return Decision{Strategy: StrategySoftware, Applied: true}
	} else {
		n.logger.Warn("software probe failed, tonemapping disabled for this run", logging.Error(err))
	}
	return Decision{Strategy: StrategyDisabled}
}

// WarmUp runs a tiny discarded extraction before the first real capture to
// absorb first-invocation shader-compile latency. Failures are logged, not
// propagated.
func (n *Negotiator) WarmUp(ctx context.Context) {
	if n == nil || n.prober == nil || !n.cfg.Warmup {
		return
	}
	n.mu.Lock()
	strategy := n.decision.Strategy
	decided := n.decided
	n.mu.Unlock()
	if !decided || strategy != StrategyHardware {
		return
	}
	if err := n.prober.Warmup(ctx); err != nil {
		n.logger.Warn("warm-up extraction failed", logging.Error(err))
		return
	}
	n.logger.Debug("warm-up extraction complete")
}

// Current returns the strategy captures should use right now, accounting
// for any downgrade since Negotiate.
func (n *Negotiator) Current() Decision {
	if n == nil {
		return Decision{Strategy: StrategyDisabled}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.decision
}

// Downgrade permanently switches the run from hardware to software after a
// hardware capture failed its retry. Never upgrades back. Returns the
// decision in force afterwards.
func (n *Negotiator) Downgrade() Decision {
	if n == nil {
		return Decision{Strategy: StrategyDisabled}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.decision.Strategy == StrategyHardware && !n.downgraded {
		n.downgraded = true
		n.decision = Decision{Strategy: StrategySoftware, Applied: true}
		n.logger.Warn("downgrading to software chain for the rest of the run")
	}
	return n.decision
}

// FilterStage returns the ffmpeg filter fragment for the strategy, or ""
// when tonemapping is disabled. The hardware chain always uses the hable
// operator; the software chain uses the configured operator and
// desaturation strength.
func (n *Negotiator) FilterStage(strategy Strategy) string {
	switch strategy {
	case StrategyHardware:
		return "libplacebo=tonemapping=hable:colorspace=bt709:color_primaries=bt709:color_trc=bt709"
	case StrategySoftware:
		return fmt.Sprintf("zscale=transfer=linear,tonemap=tonemap=%s:desat=%g,zscale=transfer=bt709,format=rgb24",
			n.cfg.Algorithm, n.cfg.Desat)
	default:
		return ""
	}
}

// HardwareInputArgs returns the ffmpeg arguments that must precede the
// input when the hardware chain is active.
func HardwareInputArgs(strategy Strategy) []string {
	if strategy != StrategyHardware {
		return nil
	}
	return []string{"-init_hw_device", "vulkan"}
}
