package market

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// PricePoint is one symbol's entry in a MarketSnapshot, per spec.md §3.
type PricePoint struct {
	Symbol    string
	Price     float64
	Change24h float64 // filled from the provider's four-hour change (Change.FourHour), not a 24-hour window
	Volume24h float64 // filled from the latest long-term (4h) bar's volume, not a 24-hour total
}

// MarketSnapshot is the immutable, point-in-time capture shared read-only
// by every agent in a round (spec.md §3 MarketSnapshot). Named distinctly
// from the per-symbol Snapshot returned by Provider.Snapshot, which this
// type is assembled from.
type MarketSnapshot struct {
	CapturedAt time.Time
	Points     []PricePoint
}

// Prices returns a symbol→price map, e.g. for ledger.MarketSnapshotHash.
func (s MarketSnapshot) Prices() map[string]float64 {
	out := make(map[string]float64, len(s.Points))
	for _, p := range s.Points {
		out[p.Symbol] = p.Price
	}
	return out
}

// SnapshotProvider captures one MarketSnapshot per round; the orchestrator
// calls it exactly once and shares the result with every fanned-out agent
// (spec.md §4.2).
type SnapshotProvider interface {
	Snapshot(ctx context.Context, symbols []string) (MarketSnapshot, error)
}

// multiSymbolProvider adapts the per-symbol Provider (the exchanges-backed
// market data source) into the whole-round SnapshotProvider C2 needs,
// fetching every symbol concurrently.
type multiSymbolProvider struct {
	inner Provider
}

// NewSnapshotProvider wraps an existing per-symbol Provider.
func NewSnapshotProvider(inner Provider) SnapshotProvider {
	return &multiSymbolProvider{inner: inner}
}

func (m *multiSymbolProvider) Snapshot(ctx context.Context, symbols []string) (MarketSnapshot, error) {
	points := make([]PricePoint, len(symbols))
	errs := make([]error, len(symbols))

	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			data, err := m.inner.Snapshot(ctx, sym)
			if err != nil {
				errs[i] = fmt.Errorf("market snapshot %s: %w", sym, err)
				return
			}
			var volume float64
			if data.LongTerm != nil && len(data.LongTerm.Volume) > 0 {
				volume = data.LongTerm.Volume[len(data.LongTerm.Volume)-1]
			}
			points[i] = PricePoint{
				Symbol:    sym,
				Price:     data.Price.Last,
				Change24h: data.Change.FourHour,
				Volume24h: volume,
			}
		}(i, sym)
	}
	wg.Wait()

	var kept []PricePoint
	for i, p := range points {
		if errs[i] != nil {
			logx.WithContext(ctx).Errorf("market snapshot: %v", errs[i])
			continue
		}
		kept = append(kept, p)
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Symbol < kept[j].Symbol })

	if len(kept) == 0 && len(symbols) > 0 {
		return MarketSnapshot{}, fmt.Errorf("market snapshot: all %d symbols failed", len(symbols))
	}
	return MarketSnapshot{CapturedAt: time.Now(), Points: kept}, nil
}
