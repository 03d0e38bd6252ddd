package arena

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"nof0-arena/pkg/agentrunner"
	"nof0-arena/pkg/exchange"
	"nof0-arena/pkg/ratelimit"
)

// DefaultRPCTimeout is T_rpc, the hard bound on a single venue RPC call
// (spec.md §5, before the rate-limiter's own retry window).
const DefaultRPCTimeout = 10 * time.Second

// Venue is the narrow venue-execution surface the orchestrator needs: an
// IOC market fill and a position read, satisfied identically by both
// pkg/exchange/hyperliquid.Provider and pkg/exchange/sim.Provider.
type Venue interface {
	GetAssetIndex(ctx context.Context, coin string) (int, error)
	IOCMarket(ctx context.Context, coin string, isBuy bool, qty float64, slippage float64, reduceOnly bool) (*exchange.OrderResponse, error)
	GetPositions(ctx context.Context) ([]exchange.Position, error)
}

// ExecutionDetails is attached to a decision on a successful venue fill.
type ExecutionDetails struct {
	Executed      bool
	TxSignature   string
	FilledPrice   float64
	Notional      float64
	ExecutionError string
}

// TradeExecutor submits allowed, non-hold decisions to a Venue through a
// RateLimitedRpcClient, converting spec.md's buy/sell notional convention
// (buy quantity = USDC notional, sell quantity = unit quantity) into venue
// order units.
type TradeExecutor struct {
	venue      Venue
	rl         *ratelimit.Client
	slippage   float64
	rpcTimeout time.Duration
}

// NewTradeExecutor constructs an executor for one venue. rpcTimeout <= 0
// falls back to DefaultRPCTimeout.
func NewTradeExecutor(venue Venue, rl *ratelimit.Client, rpcTimeout time.Duration) *TradeExecutor {
	if rpcTimeout <= 0 {
		rpcTimeout = DefaultRPCTimeout
	}
	return &TradeExecutor{venue: venue, rl: rl, slippage: 0.002, rpcTimeout: rpcTimeout}
}

// Execute submits decision at the round's captured price for symbol. A
// "hold" decision is never submitted; callers should not call Execute for
// holds.
func (e *TradeExecutor) Execute(ctx context.Context, decision agentrunner.TradingDecision, price float64) ExecutionDetails {
	if decision.Action == "hold" {
		return ExecutionDetails{}
	}
	if price <= 0 {
		return ExecutionDetails{ExecutionError: fmt.Sprintf("no price available for symbol %s", decision.Symbol)}
	}

	isBuy := decision.Action == "buy"
	units := decision.Quantity
	if isBuy {
		units = decision.Quantity / price
	}
	if units <= 0 {
		return ExecutionDetails{ExecutionError: "resolved order size is non-positive"}
	}

	rpcCtx, cancel := context.WithTimeout(ctx, e.rpcTimeout)
	defer cancel()

	label := fmt.Sprintf("venue.ioc.%s.%s", strings.ToLower(decision.Action), decision.Symbol)
	result, err := e.rl.Call(rpcCtx, label, func(callCtx context.Context) (any, error) {
		return e.venue.IOCMarket(callCtx, decision.Symbol, isBuy, units, e.slippage, false)
	})
	if err != nil {
		logx.Errorf("arena: venue execution failed agent=%s symbol=%s action=%s err=%v", decision.AgentID, decision.Symbol, decision.Action, err)
		return ExecutionDetails{ExecutionError: err.Error()}
	}

	resp, _ := result.(*exchange.OrderResponse)
	details := ExecutionDetails{
		Executed:    true,
		FilledPrice: price,
		Notional:    units * price,
	}
	if resp != nil && len(resp.Response.Data.Statuses) > 0 {
		if filled := resp.Response.Data.Statuses[0].Filled; filled != nil {
			details.TxSignature = fmt.Sprintf("oid:%d", filled.Oid)
		}
	}
	return details
}
