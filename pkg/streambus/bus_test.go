package streambus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCatchupNewestFirst(t *testing.T) {
	b := New(100)
	for i := 0; i < 25; i++ {
		b.Publish(Event{Type: EventAgentDecision, Payload: i})
	}
	sub := b.Subscribe(context.Background(), Filter{Types: []string{string(EventAgentDecision)}})
	defer sub.Unsubscribe()

	var got []int
	for i := 0; i < DefaultCatchupCap; i++ {
		select {
		case e := <-sub.Events:
			got = append(got, e.Payload.(int))
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for catchup event")
		}
	}
	require.Len(t, got, 20)
	// Newest-first: the most recent publish was payload 24.
	require.Equal(t, 24, got[0])
	require.Equal(t, 5, got[19])
}

func TestLiveEventsAfterCatchup(t *testing.T) {
	b := New(100)
	sub := b.Subscribe(context.Background(), Filter{})
	defer sub.Unsubscribe()

	b.Publish(Event{Type: EventRoundStarted, Payload: "r1"})
	select {
	case e := <-sub.Events:
		require.Equal(t, EventRoundStarted, e.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for live event")
	}
}

func TestFilterByAgentID(t *testing.T) {
	b := New(100)
	sub := b.Subscribe(context.Background(), Filter{AgentIDs: []string{"agent-a"}})
	defer sub.Unsubscribe()

	b.Publish(Event{Type: EventAgentDecision, AgentID: "agent-b"})
	b.Publish(Event{Type: EventAgentDecision, AgentID: "agent-a"})

	select {
	case e := <-sub.Events:
		require.Equal(t, "agent-a", e.AgentID)
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestNoDuplicateIDs(t *testing.T) {
	b := New(5)
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		e := b.Publish(Event{Type: EventRoundStarted})
		require.False(t, seen[e.ID])
		seen[e.ID] = true
	}
}

func TestRingCapped(t *testing.T) {
	b := New(5)
	for i := 0; i < 10; i++ {
		b.Publish(Event{Type: EventRoundStarted})
	}
	snap := b.Snapshot(Filter{}, 100)
	require.Len(t, snap, 5)
}

func TestSlowSubscriberDropsInsteadOfBlockingPublisher(t *testing.T) {
	b := New(1000)
	sub := b.Subscribe(context.Background(), Filter{})
	defer sub.Unsubscribe()

	for i := 0; i < subscriberBufferSize*3; i++ {
		b.Publish(Event{Type: EventAgentDecision, Payload: i})
	}
	require.Greater(t, sub.Dropped(), int64(0))
}
