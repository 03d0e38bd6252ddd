package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordDecisionAndOutcome(t *testing.T) {
	s := New()
	s.RecordDecision("agent-a", "buy", 80, 0.7)
	s.RecordOutcome("agent-a", 5.0, true)
	s.RecordOutcome("agent-a", -2.0, false)

	agg := s.Query(SortByComposite, 0)
	require.Len(t, agg, 1)
	require.Equal(t, 1, agg[0].TradeCount)
	require.Equal(t, 1, agg[0].Wins)
	require.Equal(t, 1, agg[0].Losses)
	require.InDelta(t, 0.5, agg[0].WinRate(), 1e-9)
}

func TestQuerySortedDescending(t *testing.T) {
	s := New()
	s.RecordDecision("low", "buy", 50, 0.2)
	s.RecordDecision("high", "buy", 90, 0.9)

	ranked := s.Query(SortByComposite, 0)
	require.Equal(t, "high", ranked[0].AgentID)
	require.Equal(t, "low", ranked[1].AgentID)
}

func TestHoldDoesNotCountAsTrade(t *testing.T) {
	s := New()
	s.RecordDecision("agent-a", "hold", 50, 0.5)
	agg := s.Query(SortByComposite, 0)
	require.Equal(t, 0, agg[0].TradeCount)
}
