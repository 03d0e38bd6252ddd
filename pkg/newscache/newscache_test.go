package newscache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls int64
	err   error
}

func (f *fakeProvider) FetchNews(ctx context.Context, symbol string) ([]Item, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return []Item{{Title: "headline for " + symbol, Source: "wire", PublishedAt: time.Now()}}, nil
}

func TestReadThroughCachesAcrossCalls(t *testing.T) {
	p := &fakeProvider{}
	c, err := New(p, time.Hour)
	require.NoError(t, err)

	res1 := c.GetCachedNews(context.Background(), []string{"BTC"})
	res2 := c.GetCachedNews(context.Background(), []string{"BTC"})

	require.Len(t, res1["BTC"], 1)
	require.Len(t, res2["BTC"], 1)
	require.Equal(t, int64(1), atomic.LoadInt64(&p.calls))
}

func TestProviderFailureIsNonFatal(t *testing.T) {
	p := &fakeProvider{err: errors.New("boom")}
	c, err := New(p, time.Hour)
	require.NoError(t, err)

	res := c.GetCachedNews(context.Background(), []string{"BTC"})
	require.Empty(t, res["BTC"])
}

func TestFormatNewsForPrompt(t *testing.T) {
	out := FormatNewsForPrompt(map[string][]Item{
		"BTC": {{Title: "rally", Source: "wire", PublishedAt: time.Now()}},
	})
	require.Contains(t, out, "BTC")
	require.Contains(t, out, "rally")
}
