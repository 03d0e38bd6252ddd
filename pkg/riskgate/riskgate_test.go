package riskgate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPositionSizeClamp(t *testing.T) {
	// S3: cash=$1000, rho=0.25, buy USDC=900 -> clamp to 250.
	res := Evaluate(
		Decision{Action: "buy", Symbol: "BTC", Quantity: 900},
		Portfolio{CashBalance: 1000},
		Stats{},
		Config{PositionSizeRatio: 0.25},
	)
	require.True(t, res.Allowed)
	require.Equal(t, "buy", res.Decision.Action)
	require.Equal(t, 250.0, res.Decision.Quantity)
	require.Len(t, res.Activations, 1)
	require.Equal(t, "position_size", res.Activations[0].Kind)
	require.Equal(t, SeverityClamp, res.Activations[0].Severity)
}

func TestVelocityBreakerCoercesHold(t *testing.T) {
	res := Evaluate(
		Decision{Action: "buy", Symbol: "BTC", Quantity: 10},
		Portfolio{CashBalance: 1000},
		Stats{TradesInWindow: 6},
		Config{VelocityMaxTrades: 5},
	)
	require.Equal(t, "hold", res.Decision.Action)
	require.Equal(t, "velocity", res.Activations[0].Kind)
	require.False(t, res.Allowed)
}

func TestInsufficientCashBlocks(t *testing.T) {
	res := Evaluate(
		Decision{Action: "buy", Symbol: "BTC", Quantity: 2000},
		Portfolio{CashBalance: 1000},
		Stats{},
		Config{},
	)
	require.Equal(t, "hold", res.Decision.Action)
	require.False(t, res.Allowed)
}

func TestInsufficientPositionBlocksSell(t *testing.T) {
	res := Evaluate(
		Decision{Action: "sell", Symbol: "BTC", Quantity: 5},
		Portfolio{CashBalance: 1000, PositionQty: map[string]float64{"BTC": 1}},
		Stats{},
		Config{},
	)
	require.Equal(t, "hold", res.Decision.Action)
	require.False(t, res.Allowed)
}

func TestLossStreakHaltsNonHold(t *testing.T) {
	res := Evaluate(
		Decision{Action: "sell", Symbol: "BTC", Quantity: 1},
		Portfolio{CashBalance: 1000, PositionQty: map[string]float64{"BTC": 1}},
		Stats{ConsecutiveLosses: 3},
		Config{LossStreakLimit: 3},
	)
	require.Equal(t, "hold", res.Decision.Action)
	require.Equal(t, "loss_streak", res.Activations[0].Kind)
	require.False(t, res.Allowed)
}

func TestHoldIsAlwaysAllowedUntouched(t *testing.T) {
	res := Evaluate(
		Decision{Action: "hold", Symbol: "BTC"},
		Portfolio{CashBalance: 1000},
		Stats{ConsecutiveLosses: 10, TradesInWindow: 100},
		Config{},
	)
	require.Equal(t, "hold", res.Decision.Action)
	require.Empty(t, res.Activations)
	require.True(t, res.Allowed)
}

func TestDeterminism(t *testing.T) {
	d := Decision{Action: "buy", Symbol: "BTC", Quantity: 900}
	p := Portfolio{CashBalance: 1000}
	s := Stats{TradesInWindow: 1}
	c := Config{}
	r1 := Evaluate(d, p, s, c)
	r2 := Evaluate(d, p, s, c)
	require.Equal(t, r1, r2)
}

func TestExecutionStatsRecordIsMonotone(t *testing.T) {
	var stats ExecutionStats
	stats.RecordTradeExecution(1)
	stats.RecordTradeExecution(2)
	stats.RecordTradeExecution(3)
	require.Equal(t, 3, stats.Prune(0))
	require.Equal(t, 1, stats.Prune(3))
}
