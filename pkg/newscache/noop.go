package newscache

import "context"

// NoopProvider is a news Provider that never returns items. News
// ingestion providers are an external collaborator out of scope for this
// tree (spec.md §1); this lets the cache, TTL eviction, and prompt
// formatting run end to end without one wired in.
type NoopProvider struct{}

func (NoopProvider) FetchNews(ctx context.Context, symbol string) ([]Item, error) {
	return nil, nil
}
