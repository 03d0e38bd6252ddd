package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolEvaluateBuyWithGoodReasoning(t *testing.T) {
	p := NewPool(map[string]struct{}{"BTC": {}, "ETH": {}})
	d := Decision{
		AgentID:    "agent-a",
		Action:     "buy",
		Symbol:     "BTC",
		Quantity:   100,
		Confidence: 75,
		Reasoning:  "Strong bullish momentum and breakout above resistance, confirmed by rising volume. However, downside risk exists if macro sentiment sours. Therefore I will take a measured position.",
		Sources:    []string{"price", "volume"},
	}
	sub := p.Evaluate(d)
	require.True(t, sub.DisciplinePass)
	require.Greater(t, sub.CoherenceScore, 0.5)
	require.Greater(t, sub.ForensicScore, 0.0)
}

func TestPoolFlagsDisciplineViolationOnEmptyReasoning(t *testing.T) {
	p := NewPool(nil)
	d := Decision{Action: "buy", Symbol: "BTC", Quantity: 10, Confidence: 50}
	sub := p.Evaluate(d)
	require.False(t, sub.DisciplinePass)
	require.Contains(t, sub.DisciplineViolations, "missing_reasoning")
}

func TestPersonalityDriftComputedEvery10th(t *testing.T) {
	pe := NewPersonalityEvolution()
	var last PersonalityResult
	for i := 0; i < 10; i++ {
		last = pe.Record(RecordedDecision{AgentID: "a", Action: "buy", Symbol: "BTC", Confidence: 80})
	}
	require.True(t, last.Snapshotted)
	require.False(t, last.Significant) // baseline == current on first snapshot
}
