// Package agentrunner implements the AgentRunner (C9): the per-agent
// adapter that builds a prompt from a market snapshot, portfolio context,
// and news block, calls an LLM through the provider abstraction, and
// parses exactly one TradingDecision. It never propagates an error across
// the orchestrator boundary: provider failures, parse failures, and
// deadline overruns all collapse into a synthetic hold decision.
package agentrunner

import (
	"time"

	"nof0-arena/pkg/market"
	"nof0-arena/pkg/newscache"
)

// TradingStyle is the agent's declared behavioral lean, echoed into the
// prompt so the model has a stable persona across rounds.
type TradingStyle string

const (
	StyleConservative TradingStyle = "conservative"
	StyleAggressive   TradingStyle = "aggressive"
	StyleContrarian   TradingStyle = "contrarian"
)

// DefaultCallBudgetPerRound is used when AgentConfig.CallBudgetPerRound is
// unset.
const DefaultCallBudgetPerRound = 50

// AgentConfig is immutable for the process lifetime (spec.md §3).
type AgentConfig struct {
	AgentID            string
	DisplayName        string
	ProviderTag        string
	ModelID            string
	TradingStyle       TradingStyle
	RiskTolerance      float64
	PreferredSymbols   []string
	CallBudgetPerRound int
	WalletAddress      string
	TemplatePath       string
}

func (c AgentConfig) callBudget() int {
	if c.CallBudgetPerRound > 0 {
		return c.CallBudgetPerRound
	}
	return DefaultCallBudgetPerRound
}

// CallBudget exposes the effective per-round call budget (after defaults)
// so callers such as the round orchestrator can thread it into RoundInput.
func (c AgentConfig) CallBudget() int { return c.callBudget() }

// PositionContext is one held position inside a PortfolioContext.
type PositionContext struct {
	Symbol               string
	Quantity             float64
	AvgCost              float64
	CurrentPrice         float64
	UnrealizedPnl        float64
	UnrealizedPnlPercent float64
}

// PortfolioContext is computed freshly at round start from executed-trade
// history plus live prices (spec.md §3).
type PortfolioContext struct {
	CashBalance     float64
	TotalValue      float64
	TotalPnl        float64
	TotalPnlPercent float64
	Positions       []PositionContext
}

// TradingDecision is produced by an agent and never mutated after emit.
type TradingDecision struct {
	AgentID          string
	RoundID          string
	Action           string // "buy", "sell", "hold"
	Symbol           string
	Quantity         float64
	Reasoning        string
	Confidence       float64 // [0,100]
	Intent           string
	Sources          []string
	PredictedOutcome string
	Timestamp        time.Time

	// CallsUsed is the number of LLM invocations this Decide call
	// consumed against the agent's per-round callBudgetPerRound.
	CallsUsed int
}

// RoundInput bundles everything AgentRunner needs for one invocation.
type RoundInput struct {
	RoundID    string
	Snapshot   market.MarketSnapshot
	Portfolio  PortfolioContext
	News       map[string][]newscache.Item
	Deadline   time.Time // absolute, already clamped to the round deadline
	CallBudget int       // remaining calls this agent may still spend this round
}

// decisionContract is the strict JSON shape requested from the LLM via
// ChatStructured. Field names mirror the wire contract in spec.md §3.
type decisionContract struct {
	Action           string   `json:"action"`
	Symbol           string   `json:"symbol"`
	Quantity         float64  `json:"quantity"`
	Reasoning        string   `json:"reasoning"`
	Confidence       float64  `json:"confidence"`
	Intent           string   `json:"intent"`
	Sources          []string `json:"sources"`
	PredictedOutcome string   `json:"predictedOutcome"`
}
