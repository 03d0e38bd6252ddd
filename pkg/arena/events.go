package arena

import "nof0-arena/pkg/riskgate"

// RoundStartedPayload is the streambus.EventRoundStarted payload.
type RoundStartedPayload struct {
	RoundID    string   `json:"roundId"`
	AgentIDs   []string `json:"agentIds"`
	CapturedAt string   `json:"capturedAt"`
}

// AgentDecisionPayload is the streambus.EventAgentDecision payload.
type AgentDecisionPayload struct {
	Action           string   `json:"action"`
	Symbol           string   `json:"symbol"`
	Quantity         float64  `json:"quantity"`
	Confidence       float64  `json:"confidence"`
	Reasoning        string   `json:"reasoning"`
	PredictedOutcome string   `json:"predictedOutcome,omitempty"`
	Sources          []string `json:"sources,omitempty"`
}

// TradeExecutedPayload is the streambus.EventTradeExecuted payload.
type TradeExecutedPayload struct {
	Symbol      string  `json:"symbol"`
	Action      string  `json:"action"`
	Quantity    float64 `json:"quantity"`
	FilledPrice float64 `json:"filledPrice"`
	Notional    float64 `json:"notional"`
	TxSignature string  `json:"txSignature,omitempty"`
}

// TradeBlockedPayload is the streambus.EventTradeBlocked payload, emitted
// either for a breaker activation or a venue execution failure.
type TradeBlockedPayload struct {
	Symbol          string                `json:"symbol"`
	OriginalAction  string                `json:"originalAction"`
	Reason          string                `json:"reason"`
	Activations     []riskgate.Activation `json:"activations,omitempty"`
	ExecutionError  string                `json:"executionError,omitempty"`
}

// CircuitBreakerPayload is the streambus.EventCircuitBreaker payload, one
// per activation so subscribers can alert on a specific breaker kind.
type CircuitBreakerPayload struct {
	Kind              string `json:"kind"`
	Severity          string `json:"severity"`
	Reason            string `json:"reason"`
	ReplacementAction string `json:"replacementAction,omitempty"`
}

// RoundCompletedPayload is the streambus.EventRoundCompleted payload.
type RoundCompletedPayload struct {
	RoundID      string  `json:"roundId"`
	Consensus    string  `json:"consensus"`
	DecisionCount int    `json:"decisionCount"`
	DurationMs   int64   `json:"durationMs"`
	Cancelled    bool    `json:"cancelled"`
	TimedOut     bool    `json:"timedOut"`
}
