// Package types declares the request/response DTOs for the HTTP surface
// (C11), one per route in spec.md §6. Handlers translate between these
// wire shapes and the domain types pkg/arena, pkg/ledger, pkg/leaderboard,
// and pkg/streambus already export.
package types

import (
	"time"

	"nof0-arena/pkg/arena"
	"nof0-arena/pkg/ledger"
	"nof0-arena/pkg/leaderboard"
	"nof0-arena/pkg/streambus"
)

// TriggerRoundResponse is the body of POST /trigger-round/trigger.
type TriggerRoundResponse struct {
	RoundID     string                `json:"roundId"`
	Status      string                `json:"status"`
	StartedAt   time.Time             `json:"startedAt"`
	CompletedAt time.Time             `json:"completedAt"`
	Consensus   string                `json:"consensus"`
	Decisions   []DecisionRecordView  `json:"decisions"`
	Cancelled   bool                  `json:"cancelled"`
	TimedOut    bool                  `json:"timedOut"`
	Errors      []string              `json:"errors,omitempty"`
}

// DecisionRecordView is the wire shape of one agent's recorded decision.
type DecisionRecordView struct {
	AgentID     string              `json:"agentId"`
	Action      string              `json:"action"`
	Symbol      string              `json:"symbol"`
	Quantity    float64             `json:"quantity"`
	Confidence  float64             `json:"confidence"`
	Reasoning   string              `json:"reasoning"`
	Executed    bool                `json:"executed"`
	Activations []string            `json:"activations,omitempty"`
	LedgerEntry ledger.Entry        `json:"ledgerEntry"`
}

// StatusResponse is the body of GET /trigger-round/status.
type StatusResponse struct {
	Busy        bool       `json:"busy"`
	RoundID     string     `json:"roundId,omitempty"`
	LastRound   *RoundSummary `json:"lastRound,omitempty"`
}

// RoundSummary is the abbreviated form of arena.RoundResult used in
// status/history responses, carrying no per-decision ledger entries.
type RoundSummary struct {
	RoundID       string    `json:"roundId"`
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"startedAt"`
	CompletedAt   time.Time `json:"completedAt"`
	Consensus     string    `json:"consensus"`
	DecisionCount int       `json:"decisionCount"`
	Cancelled     bool      `json:"cancelled"`
	TimedOut      bool      `json:"timedOut"`
	Errors        []string  `json:"errors,omitempty"`
}

// HistoryResponse is the body of GET /trigger-round/history.
type HistoryResponse struct {
	Rounds []RoundSummary `json:"rounds"`
}

// LedgerQueryResponse is the body of GET /ledger/query.
type LedgerQueryResponse struct {
	Entries []ledger.Entry `json:"entries"`
	Total   int            `json:"total"`
}

// VerifyResponse is the body of GET /ledger/verify.
type VerifyResponse struct {
	Intact       bool   `json:"intact"`
	BrokenAt     *int64 `json:"brokenAt,omitempty"`
	LatestHash   string `json:"latestHash"`
	GenesisHash  string `json:"genesisHash"`
	TotalChecked int    `json:"totalChecked"`
}

// LeaderboardResponse is the body of GET /leaderboard.
type LeaderboardResponse struct {
	Agents []LeaderboardEntry `json:"agents"`
}

// LeaderboardEntry is one ranked agent row.
type LeaderboardEntry struct {
	AgentID        string  `json:"agentId"`
	TradeCount     int     `json:"tradeCount"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"winRate"`
	TotalPnl       float64 `json:"totalPnl"`
	AvgConfidence  float64 `json:"avgConfidence"`
	CompositeScore float64 `json:"compositeScore"`
	Sharpe         float64 `json:"sharpe"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
	Rating         float64 `json:"rating"`
}

// EventsResponse is the body of GET /trade-stream/events.
type EventsResponse struct {
	Events []streambus.Event `json:"events"`
}

// ToRoundSummary strips per-decision ledger payloads from a full
// RoundResult, for the status/history endpoints.
func ToRoundSummary(r arena.RoundResult) RoundSummary {
	return RoundSummary{
		RoundID:       r.RoundID,
		Status:        r.Status,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		Consensus:     r.Consensus,
		DecisionCount: len(r.Decisions),
		Cancelled:     r.Cancelled,
		TimedOut:      r.TimedOut,
		Errors:        r.Errors,
	}
}

// ToTriggerResponse renders a full RoundResult for the trigger endpoint.
func ToTriggerResponse(r arena.RoundResult) TriggerRoundResponse {
	decisions := make([]DecisionRecordView, 0, len(r.Decisions))
	for _, d := range r.Decisions {
		activations := make([]string, 0, len(d.Activations))
		for _, a := range d.Activations {
			activations = append(activations, a.Kind+":"+a.Severity)
		}
		decisions = append(decisions, DecisionRecordView{
			AgentID:     d.AgentID,
			Action:      d.Decision.Action,
			Symbol:      d.Decision.Symbol,
			Quantity:    d.Decision.Quantity,
			Confidence:  d.Decision.Confidence,
			Reasoning:   d.Decision.Reasoning,
			Executed:    d.Execution.Executed,
			Activations: activations,
			LedgerEntry: d.LedgerEntry,
		})
	}
	return TriggerRoundResponse{
		RoundID:     r.RoundID,
		Status:      r.Status,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
		Consensus:   r.Consensus,
		Decisions:   decisions,
		Cancelled:   r.Cancelled,
		TimedOut:    r.TimedOut,
		Errors:      r.Errors,
	}
}

// ToLeaderboardEntry adapts a leaderboard.Aggregate to its wire shape.
func ToLeaderboardEntry(a leaderboard.Aggregate) LeaderboardEntry {
	return LeaderboardEntry{
		AgentID:        a.AgentID,
		TradeCount:     a.TradeCount,
		Wins:           a.Wins,
		Losses:         a.Losses,
		WinRate:        a.WinRate(),
		TotalPnl:       a.TotalPnl,
		AvgConfidence:  a.AvgConfidence,
		CompositeScore: a.CompositeScore,
		Sharpe:         a.Sharpe(),
		MaxDrawdown:    a.MaxDrawdown(),
		Rating:         a.Rating,
	}
}
