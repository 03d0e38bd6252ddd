package arena

import (
	"sync"

	"nof0-arena/pkg/agentrunner"
	"nof0-arena/pkg/riskgate"
)

// ledgerPosition is one agent's held quantity in one symbol.
type ledgerPosition struct {
	Quantity float64
	AvgCost  float64
}

// book is the orchestrator-owned, per-agent paper book: cash balance and
// positions computed from executed-trade history, plus the rolling
// execution stats riskgate.Evaluate reads. It is the single mutation
// point for portfolio state; agentrunner and riskgate only ever see
// read-only projections of it.
type book struct {
	mu          sync.Mutex
	cash        map[string]float64
	initialCash map[string]float64
	positions   map[string]map[string]ledgerPosition // agentId -> symbol -> position
	stats       map[string]*riskgate.ExecutionStats
	losses      map[string]int // consecutive losses per agent
}

func newBook(initialCash float64, agentIDs []string) *book {
	b := &book{
		cash:        make(map[string]float64, len(agentIDs)),
		initialCash: make(map[string]float64, len(agentIDs)),
		positions:   make(map[string]map[string]ledgerPosition, len(agentIDs)),
		stats:       make(map[string]*riskgate.ExecutionStats, len(agentIDs)),
		losses:      make(map[string]int, len(agentIDs)),
	}
	for _, id := range agentIDs {
		b.cash[id] = initialCash
		b.initialCash[id] = initialCash
		b.positions[id] = make(map[string]ledgerPosition)
		b.stats[id] = &riskgate.ExecutionStats{}
	}
	return b
}

// Portfolio returns a read-only snapshot of agentID's portfolio against
// the given symbol->price mark map.
func (b *book) Portfolio(agentID string, marks map[string]float64) agentrunner.PortfolioContext {
	b.mu.Lock()
	defer b.mu.Unlock()

	cash := b.cash[agentID]
	totalValue := cash
	var positions []agentrunner.PositionContext
	for symbol, pos := range b.positions[agentID] {
		if pos.Quantity == 0 {
			continue
		}
		mark := marks[symbol]
		if mark <= 0 {
			mark = pos.AvgCost
		}
		value := pos.Quantity * mark
		cost := pos.Quantity * pos.AvgCost
		upnl := value - cost
		upnlPct := 0.0
		if cost != 0 {
			upnlPct = upnl / cost * 100
		}
		totalValue += value
		positions = append(positions, agentrunner.PositionContext{
			Symbol:               symbol,
			Quantity:             pos.Quantity,
			AvgCost:              pos.AvgCost,
			CurrentPrice:         mark,
			UnrealizedPnl:        upnl,
			UnrealizedPnlPercent: upnlPct,
		})
	}
	basis := b.initialCash[agentID]
	totalPnl := totalValue - basis
	totalPnlPct := 0.0
	if basis != 0 {
		totalPnlPct = totalPnl / basis * 100
	}

	return agentrunner.PortfolioContext{
		CashBalance:     cash,
		TotalValue:      totalValue,
		TotalPnl:        totalPnl,
		TotalPnlPercent: totalPnlPct,
		Positions:       positions,
	}
}

// riskgatePortfolio projects agentID's book into riskgate's minimal shape.
func (b *book) riskgatePortfolio(agentID string) riskgate.Portfolio {
	b.mu.Lock()
	defer b.mu.Unlock()
	qty := make(map[string]float64, len(b.positions[agentID]))
	for symbol, pos := range b.positions[agentID] {
		qty[symbol] = pos.Quantity
	}
	return riskgate.Portfolio{CashBalance: b.cash[agentID], PositionQty: qty}
}

// Stats returns a riskgate.Stats snapshot for agentID, pruning trades
// recorded before windowStart (unixNano).
func (b *book) Stats(agentID string, windowStart int64) riskgate.Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := b.stats[agentID]
	count := stats.Prune(windowStart)
	return riskgate.Stats{
		TradesInWindow:    count,
		ConsecutiveLosses: b.losses[agentID],
	}
}

// RecordExecution applies a filled trade to agentID's cash and position
// book, and records the execution timestamp against the velocity window.
func (b *book) RecordExecution(agentID, symbol, action string, quantity, price float64, unixNano int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := b.stats[agentID]
	stats.RecordTradeExecution(unixNano)

	posMap := b.positions[agentID]
	pos := posMap[symbol]
	switch action {
	case "buy":
		units := quantity / price
		newQty := pos.Quantity + units
		if newQty != 0 {
			pos.AvgCost = (pos.AvgCost*pos.Quantity + price*units) / newQty
		}
		pos.Quantity = newQty
		b.cash[agentID] -= quantity
	case "sell":
		pos.Quantity -= quantity
		b.cash[agentID] += quantity * price
	}
	if pos.Quantity == 0 {
		delete(posMap, symbol)
	} else {
		posMap[symbol] = pos
	}
}

// RecordOutcome updates the consecutive-loss counter for agentID.
func (b *book) RecordOutcome(agentID string, correct bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if correct {
		b.losses[agentID] = 0
	} else {
		b.losses[agentID]++
	}
}
