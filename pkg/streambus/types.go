package streambus

import "time"

// EventType is the closed set of TradeStreamEvent kinds (spec.md §3).
type EventType string

const (
	EventAgentDecision  EventType = "agent_decision"
	EventTradeExecuted  EventType = "trade_executed"
	EventTradeBlocked   EventType = "trade_blocked"
	EventRoundStarted   EventType = "round_started"
	EventRoundCompleted EventType = "round_completed"
	EventCircuitBreaker EventType = "circuit_breaker"
)

// Event is the tagged-variant stream event; Payload carries the per-kind
// struct, serialized with the Type as its discriminator.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	AgentID   string    `json:"agentId,omitempty"`
	RoundID   string    `json:"roundId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Filter restricts which events a subscriber receives.
type Filter struct {
	Types    []string
	AgentIDs []string
}

func (f Filter) matches(e Event) bool {
	if len(f.Types) > 0 && !containsStr(f.Types, string(e.Type)) {
		return false
	}
	if len(f.AgentIDs) > 0 && !containsStr(f.AgentIDs, e.AgentID) {
		return false
	}
	return true
}

func containsStr(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
