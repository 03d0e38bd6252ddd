// Package streambus implements the TradeStreamBus (C5): a typed
// in-process pub/sub with a bounded newest-first ring of recent events
// and filtered catch-up subscriptions, grounded on the per-subscriber
// goroutine/channel broker shape used elsewhere in the corpus but
// simplified to the spec's at-most-once, newest-preferred contract.
package streambus

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

// DefaultMaxEvents matches spec.md's MAX_EVENTS default.
const DefaultMaxEvents = 500

// DefaultCatchupCap is the default K in spec.md §4.4 (20).
const DefaultCatchupCap = 20

const subscriberBufferSize = 64

// HeartbeatInterval matches spec.md's ~5s heartbeat cadence.
var HeartbeatInterval = 5 * time.Second

// Bus is the stream bus. Safe for concurrent use.
type Bus struct {
	mu          sync.Mutex
	maxEvents   int
	ring        []Event // newest first
	seenIDs     map[string]struct{}
	subscribers map[string]*subscriber
}

// New constructs a bus with the given ring capacity (<=0 uses default).
func New(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &Bus{
		maxEvents:   maxEvents,
		seenIDs:     make(map[string]struct{}),
		subscribers: make(map[string]*subscriber),
	}
}

type subscriber struct {
	id      string
	filter  Filter
	events  chan Event
	dropped int64
	done    chan struct{}
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	ID         string
	Events     <-chan Event
	Heartbeats <-chan time.Time
	bus        *Bus
	sub        *subscriber
	hbStop     chan struct{}
}

// Dropped reports how many events this subscriber has lost to
// backpressure (its buffer filled and the oldest undelivered event was
// discarded).
func (s *Subscription) Dropped() int64 {
	return atomic.LoadInt64(&s.sub.dropped)
}

// Unsubscribe ends the subscription's lifetime; safe to call more than
// once.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	_, active := s.bus.subscribers[s.ID]
	delete(s.bus.subscribers, s.ID)
	s.bus.mu.Unlock()
	if !active {
		return
	}
	close(s.sub.done)
	close(s.hbStop)
}

// Publish appends event to the ring (assigning an id/timestamp if unset)
// and fans it out to every matching subscriber without blocking.
func (b *Bus) Publish(e Event) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.Lock()
	b.ring = append([]Event{e}, b.ring...)
	if len(b.ring) > b.maxEvents {
		b.ring = b.ring[:b.maxEvents]
	}
	subs := make([]*subscriber, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		if !s.filter.matches(e) {
			continue
		}
		trySend(s.events, e, &s.dropped)
	}
	return e
}

// Subscribe registers filter and synchronously delivers up to
// DefaultCatchupCap historical matching events (newest-first), then
// streams live events thereafter with no reorder among them (property
// 10 / scenario S5). Heartbeats fire on Subscription.Heartbeats every
// HeartbeatInterval until Unsubscribe or ctx is done.
func (b *Bus) Subscribe(ctx context.Context, filter Filter) *Subscription {
	sub := &subscriber{
		id:     uuid.NewString(),
		filter: filter,
		events: make(chan Event, subscriberBufferSize),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	catchup := b.catchupLocked(filter, DefaultCatchupCap)
	b.subscribers[sub.id] = sub
	// Deliver catch-up synchronously, newest-first, while still holding the
	// lock: a Publish can only see this subscriber after taking the same
	// lock, so no live event is queued ahead of the catch-up and no
	// published event is both in catchup and re-delivered live. The channel
	// is FIFO, so pushing catchup (already newest-first) in order preserves
	// that order for the consumer (scenario S5). trySend never blocks.
	for _, e := range catchup {
		trySend(sub.events, e, &sub.dropped)
	}
	b.mu.Unlock()

	hb := make(chan time.Time, 1)
	hbStop := make(chan struct{})
	go heartbeatLoop(ctx, sub.done, hbStop, hb)

	return &Subscription{
		ID:         sub.id,
		Events:     sub.events,
		Heartbeats: hb,
		bus:        b,
		sub:        sub,
		hbStop:     hbStop,
	}
}

func (b *Bus) catchupLocked(filter Filter, cap int) []Event {
	out := make([]Event, 0, cap)
	for _, e := range b.ring { // ring is newest-first
		if !filter.matches(e) {
			continue
		}
		out = append(out, e)
		if len(out) >= cap {
			break
		}
	}
	return out
}

// Snapshot returns up to limit most-recent matching events, newest-first,
// for the polling fallback endpoint (GET /trade-stream/events).
func (b *Bus) Snapshot(filter Filter, limit int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 {
		limit = DefaultCatchupCap
	}
	return b.catchupLocked(filter, limit)
}

func heartbeatLoop(ctx context.Context, subDone, stop chan struct{}, out chan<- time.Time) {
	t := time.NewTicker(HeartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-subDone:
			return
		case <-stop:
			return
		case now := <-t.C:
			select {
			case out <- now:
			default:
			}
		}
	}
}

// trySend delivers ev without blocking the publisher; if the channel is
// full, the oldest undelivered event is dropped first (at-most-once,
// newest-preferred per spec.md §4.4). Every eviction counts as a drop for
// that subscriber, whether or not the compensating retry itself succeeds.
func trySend(ch chan Event, ev Event, dropped *int64) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
		atomic.AddInt64(dropped, 1)
		logx.Infof("streambus: dropped event for slow subscriber to make room for %s", ev.ID)
	default:
	}
	select {
	case ch <- ev:
	default:
		atomic.AddInt64(dropped, 1)
		logx.Infof("streambus: dropped event %s for slow subscriber", ev.ID)
	}
}
