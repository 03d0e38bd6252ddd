package market

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeMarketProvider struct {
	data map[string]*Snapshot
	fail map[string]bool
}

func (f *fakeMarketProvider) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	if f.fail[symbol] {
		return nil, errors.New("boom")
	}
	return f.data[symbol], nil
}

func (f *fakeMarketProvider) ListAssets(ctx context.Context) ([]Asset, error) {
	return nil, nil
}

func TestSnapshotSortsBySymbolAndSkipsFailures(t *testing.T) {
	p := &fakeMarketProvider{
		data: map[string]*Snapshot{
			"ETH": {Symbol: "ETH", Price: PriceInfo{Last: 3000}},
			"BTC": {Symbol: "BTC", Price: PriceInfo{Last: 50000}},
		},
		fail: map[string]bool{"SOL": true},
	}
	sp := NewSnapshotProvider(p)
	snap, err := sp.Snapshot(context.Background(), []string{"ETH", "BTC", "SOL"})
	require.NoError(t, err)
	require.Len(t, snap.Points, 2)
	require.Equal(t, "BTC", snap.Points[0].Symbol)
	require.Equal(t, "ETH", snap.Points[1].Symbol)
}

func TestSnapshotAllFailuresIsError(t *testing.T) {
	p := &fakeMarketProvider{fail: map[string]bool{"BTC": true}}
	sp := NewSnapshotProvider(p)
	_, err := sp.Snapshot(context.Background(), []string{"BTC"})
	require.Error(t, err)
}
