// Package riskgate implements the pre-trade circuit breakers (C4): a
// pure, synchronous, deterministic function from a proposed decision,
// portfolio, and rolling per-agent stats to an allow/clamp/block verdict.
package riskgate

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Decision is the minimal shape riskgate needs from a TradingDecision;
// agentrunner and arena convert to/from their own richer type.
type Decision struct {
	Action   string // "buy", "sell", "hold"
	Symbol   string
	Quantity float64
}

// Portfolio is the minimal shape riskgate needs from a PortfolioContext.
type Portfolio struct {
	CashBalance     float64
	PositionQty     map[string]float64 // symbol -> held quantity
}

// Stats is the rolling per-agent execution history riskgate reads.
type Stats struct {
	TradesInWindow       int
	ConsecutiveLosses    int
	CurrentRoundDrawdown float64
}

// Severity labels an activation's effect on the decision.
const (
	SeverityBlock = "block"
	SeverityClamp = "clamp"
)

// Activation records one breaker firing.
type Activation struct {
	Kind              string `json:"kind"`
	Severity          string `json:"severity"`
	Reason            string `json:"reason"`
	ReplacementAction string `json:"replacementAction,omitempty"`
}

// Config tunes breaker thresholds. Zero values fall back to spec.md
// defaults: velocity K=5 in the caller-supplied window, ρ=0.25, L=3.
type Config struct {
	VelocityMaxTrades int
	PositionSizeRatio float64
	LossStreakLimit   int
	WalletAddress     string // venue sub-account address, for self-trade detection
}

func (c Config) withDefaults() Config {
	if c.VelocityMaxTrades <= 0 {
		c.VelocityMaxTrades = 5
	}
	if c.PositionSizeRatio <= 0 {
		c.PositionSizeRatio = 0.25
	}
	if c.LossStreakLimit <= 0 {
		c.LossStreakLimit = 3
	}
	return c
}

// Result is the breaker pipeline's verdict.
type Result struct {
	Allowed     bool
	Decision    Decision
	Activations []Activation
}

// Evaluate runs the five breakers in spec.md §4.3 order. Identical inputs
// always produce identical outputs (invariant 6 / property 5): the
// function reads no global state and performs no I/O.
func Evaluate(decision Decision, portfolio Portfolio, stats Stats, cfg Config) Result {
	cfg = cfg.withDefaults()
	d := decision
	var activations []Activation
	allowed := true

	// 1. Velocity.
	if stats.TradesInWindow > cfg.VelocityMaxTrades && d.Action != "hold" {
		activations = append(activations, Activation{
			Kind: "velocity", Severity: SeverityBlock,
			Reason: "too many trades in trailing window", ReplacementAction: "hold",
		})
		d.Action = "hold"
		allowed = false
	}

	// 2. Insufficient cash (buy) or insufficient position (sell).
	if d.Action == "buy" && d.Quantity > portfolio.CashBalance {
		activations = append(activations, Activation{
			Kind: "insufficient_funds", Severity: SeverityBlock,
			Reason: "buy notional exceeds cash balance", ReplacementAction: "hold",
		})
		d.Action = "hold"
		allowed = false
	} else if d.Action == "sell" {
		held := portfolio.PositionQty[d.Symbol]
		if d.Quantity > held {
			activations = append(activations, Activation{
				Kind: "insufficient_position", Severity: SeverityBlock,
				Reason: "sell quantity exceeds held position", ReplacementAction: "hold",
			})
			d.Action = "hold"
			allowed = false
		}
	}

	// 3. Position-size clamp (does not block).
	if d.Action == "buy" {
		cap := cfg.PositionSizeRatio * portfolio.CashBalance
		if d.Quantity > cap {
			activations = append(activations, Activation{
				Kind: "position_size", Severity: SeverityClamp,
				Reason: "buy notional exceeds position-size ratio of cash",
			})
			d.Quantity = cap
		}
	}

	// 4. Self-trade.
	if d.Action != "hold" && cfg.WalletAddress != "" && isSelfTrade(d.Symbol, cfg.WalletAddress) {
		activations = append(activations, Activation{
			Kind: "self_trade", Severity: SeverityBlock,
			Reason: "destination matches own wallet address", ReplacementAction: "hold",
		})
		d.Action = "hold"
		allowed = false
	}

	// 5. Loss-streak halt.
	if d.Action != "hold" && stats.ConsecutiveLosses >= cfg.LossStreakLimit {
		activations = append(activations, Activation{
			Kind: "loss_streak", Severity: SeverityBlock,
			Reason: "consecutive loss streak halt", ReplacementAction: "hold",
		})
		d.Action = "hold"
		allowed = false
	}

	return Result{Allowed: allowed, Decision: d, Activations: activations}
}

// isSelfTrade reports whether symbol names the caller's own wallet
// address, normalizing both sides through go-ethereum's address parsing
// so case and checksum formatting never cause a false negative.
func isSelfTrade(symbol, wallet string) bool {
	if !common.IsHexAddress(symbol) || !common.IsHexAddress(wallet) {
		return strings.EqualFold(symbol, wallet)
	}
	return common.HexToAddress(symbol) == common.HexToAddress(wallet)
}

// ExecutionStats is the mutable per-agent rolling state the orchestrator
// owns and updates via RecordTradeExecution; Evaluate itself never
// mutates anything, keeping the breaker pipeline pure per spec.md §5.
type ExecutionStats struct {
	windowTrades []int64 // unix-nano timestamps of non-hold executions
}

// RecordTradeExecution appends a trade timestamp to the caller-owned
// rolling window; callers derive Stats.TradesInWindow from this by
// counting entries newer than now-W. Monotone: it never removes entries
// except via Prune, matching property 5's monotonicity requirement.
func (s *ExecutionStats) RecordTradeExecution(unixNano int64) {
	s.windowTrades = append(s.windowTrades, unixNano)
}

// Prune drops timestamps older than cutoff (unix-nano), returning the
// count still in-window.
func (s *ExecutionStats) Prune(cutoff int64) int {
	kept := s.windowTrades[:0]
	for _, ts := range s.windowTrades {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	s.windowTrades = kept
	return len(s.windowTrades)
}
