package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleInput(agent string) NewEntryInput {
	return NewEntryInput{
		AgentID:            agent,
		RoundID:            "round-1",
		Action:             "buy",
		Symbol:             "BTC",
		Quantity:           100,
		Reasoning:          "bullish momentum",
		Confidence:         80,
		Intent:             "momentum",
		Sources:            []string{"price"},
		MarketSnapshotHash: "abc",
		PriceAtTrade:       50000,
		CoherenceScore:     0.9,
		DisciplinePass:     true,
		Timestamp:          time.Now(),
		BenchmarkVersion:   "v24",
	}
}

func TestAppendChainsHashes(t *testing.T) {
	l := New(100)
	var prev string
	for i := 0; i < 5; i++ {
		e := l.Append(sampleInput("agent-a"))
		if i == 0 {
			require.Equal(t, "genesis", e.PreviousHash)
		} else {
			require.Equal(t, prev, e.PreviousHash)
		}
		require.Equal(t, int64(i), e.SequenceNumber)
		prev = e.EntryHash
	}
	v := l.VerifyIntegrity()
	require.True(t, v.Intact)
	require.Equal(t, 5, v.TotalChecked)
}

func TestHashDeterminism(t *testing.T) {
	l1 := New(100)
	l2 := New(100)
	in := sampleInput("agent-a")
	in.Timestamp = time.Unix(1700000000, 0)
	e1 := l1.Append(in)
	e2 := l2.Append(in)
	require.Equal(t, e1.EntryHash, e2.EntryHash)

	in2 := in
	in2.Reasoning = "bullish momentum!"
	l3 := New(100)
	e3 := l3.Append(in2)
	require.NotEqual(t, e1.EntryHash, e3.EntryHash)
}

func TestEvictionPreservesSurvivingChain(t *testing.T) {
	l := New(3)
	for i := 0; i < 10; i++ {
		l.Append(sampleInput("agent-a"))
	}
	require.Equal(t, 3, l.Len())
	v := l.VerifyIntegrity()
	require.True(t, v.Intact)
}

func TestVerifyIntegrityDetectsTamper(t *testing.T) {
	l := New(100)
	var ids []string
	for i := 0; i < 15; i++ {
		e := l.Append(sampleInput("agent-a"))
		ids = append(ids, e.EntryID)
	}
	// Mutate entry #7 (0-indexed 6) in place, simulating S2.
	l.mu.Lock()
	l.entries[6].Reasoning = "tampered"
	l.mu.Unlock()

	v := l.VerifyIntegrity()
	require.False(t, v.Intact)
	require.NotNil(t, v.BrokenAt)
	require.Equal(t, int64(6), *v.BrokenAt)
}

func TestResolveOutcomeIsOnce(t *testing.T) {
	l := New(100)
	e := l.Append(sampleInput("agent-a"))
	require.True(t, l.ResolveOutcome(e.EntryID, 5.0, true))
	require.False(t, l.ResolveOutcome(e.EntryID, -5.0, false))

	got, ok := l.Get(e.EntryID)
	require.True(t, ok)
	require.True(t, got.OutcomeResolved)
	require.NotNil(t, got.PnlPercent)
	require.Equal(t, 5.0, *got.PnlPercent)
}

func TestVerifyIntegritySurvivesResolveOutcome(t *testing.T) {
	l := New(100)
	var ids []string
	for i := 0; i < 5; i++ {
		e := l.Append(sampleInput("agent-a"))
		ids = append(ids, e.EntryID)
	}
	for _, id := range ids {
		require.True(t, l.ResolveOutcome(id, 3.5, true))
	}

	v := l.VerifyIntegrity()
	require.True(t, v.Intact, "resolving the one legitimately-mutable field must not break the hash chain")
	require.Equal(t, 5, v.TotalChecked)
}

func TestMarketSnapshotHashOrderIndependent(t *testing.T) {
	h1 := MarketSnapshotHash(map[string]float64{"BTC": 50000, "ETH": 3000})
	h2 := MarketSnapshotHash(map[string]float64{"ETH": 3000, "BTC": 50000})
	require.Equal(t, h1, h2)
}

func TestQueryNewestFirstWithLimit(t *testing.T) {
	l := New(100)
	for i := 0; i < 5; i++ {
		l.Append(sampleInput("agent-a"))
	}
	res := l.Query(Filter{Limit: 2})
	require.Equal(t, 5, res.Total)
	require.Len(t, res.Entries, 2)
	require.True(t, res.Entries[0].SequenceNumber > res.Entries[1].SequenceNumber)
}
