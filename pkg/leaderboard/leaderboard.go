// Package leaderboard implements the LeaderboardStore (C8): rolling
// in-memory aggregates keyed by agentId, updated on every ledger append
// and outcome resolution.
package leaderboard

import (
	"math"
	"sort"
	"sync"
)

// Aggregate is one agent's rolling performance summary.
type Aggregate struct {
	AgentID        string
	TradeCount     int
	Wins           int
	Losses         int
	TotalPnl       float64
	AvgConfidence  float64
	CompositeScore float64
	Rating         float64 // ELO-like tie-break rating

	confidenceSum float64
	pnlSamples    []float64
}

// WinRate returns Wins/(Wins+Losses), or 0 if no resolved trades.
func (a Aggregate) WinRate() float64 {
	total := a.Wins + a.Losses
	if total == 0 {
		return 0
	}
	return float64(a.Wins) / float64(total)
}

// Sharpe returns the mean/stddev of resolved P&L samples (0 if <2
// samples or zero variance).
func (a Aggregate) Sharpe() float64 {
	n := len(a.pnlSamples)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, p := range a.pnlSamples {
		sum += p
	}
	m := sum / float64(n)
	var varSum float64
	for _, p := range a.pnlSamples {
		d := p - m
		varSum += d * d
	}
	sd := math.Sqrt(varSum / float64(n-1))
	if sd == 0 {
		return 0
	}
	return m / sd
}

// MaxDrawdown returns the largest peak-to-trough cumulative P&L decline
// observed across resolved samples in recording order.
func (a Aggregate) MaxDrawdown() float64 {
	var cum, peak, maxDD float64
	for _, p := range a.pnlSamples {
		cum += p
		if cum > peak {
			peak = cum
		}
		if dd := peak - cum; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Store holds the per-agent aggregates. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	byAgent map[string]*Aggregate
}

// New constructs an empty store.
func New() *Store {
	return &Store{byAgent: make(map[string]*Aggregate)}
}

func (s *Store) getOrCreate(agentID string) *Aggregate {
	a, ok := s.byAgent[agentID]
	if !ok {
		a = &Aggregate{AgentID: agentID, Rating: 1000}
		s.byAgent[agentID] = a
	}
	return a
}

// RecordDecision updates trade count, avg confidence, and composite
// score on every ledger append, regardless of whether the outcome is
// yet known.
func (s *Store) RecordDecision(agentID string, action string, confidence, compositeScore float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.getOrCreate(agentID)
	if action != "hold" {
		a.TradeCount++
		a.confidenceSum += confidence
	}
	n := a.TradeCount
	if n == 0 {
		n = 1
	}
	a.AvgConfidence = a.confidenceSum / float64(n)
	a.CompositeScore = compositeScore
}

// RecordOutcome updates win/loss/P&L aggregates and the ELO-like rating
// once a ledger entry's outcome resolves.
func (s *Store) RecordOutcome(agentID string, pnlPercent float64, correct bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.getOrCreate(agentID)
	if correct {
		a.Wins++
	} else {
		a.Losses++
	}
	a.TotalPnl += pnlPercent
	a.pnlSamples = append(a.pnlSamples, pnlPercent)
	a.Rating += eloDelta(pnlPercent)
}

func eloDelta(pnlPercent float64) float64 {
	const k = 4.0
	return k * math.Tanh(pnlPercent/10)
}

// SortKey selects the field Query sorts by.
type SortKey string

const (
	SortByComposite SortKey = "composite"
	SortByPnl       SortKey = "pnl"
	SortByWinRate   SortKey = "win_rate"
	SortBySharpe    SortKey = "sharpe"
)

// Query returns agents ranked by key, descending, tie-broken by Rating,
// limited to limit entries (<=0 returns all).
func (s *Store) Query(key SortKey, limit int) []Aggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Aggregate, 0, len(s.byAgent))
	for _, a := range s.byAgent {
		out = append(out, *a)
	}

	sort.Slice(out, func(i, j int) bool {
		vi, vj := sortValue(out[i], key), sortValue(out[j], key)
		if vi != vj {
			return vi > vj
		}
		return out[i].Rating > out[j].Rating
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func sortValue(a Aggregate, key SortKey) float64 {
	switch key {
	case SortByPnl:
		return a.TotalPnl
	case SortByWinRate:
		return a.WinRate()
	case SortBySharpe:
		return a.Sharpe()
	default:
		return a.CompositeScore
	}
}
