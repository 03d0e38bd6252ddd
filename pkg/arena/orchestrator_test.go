package arena

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nof0-arena/pkg/agentrunner"
	"nof0-arena/pkg/exchange"
	"nof0-arena/pkg/leaderboard"
	"nof0-arena/pkg/ledger"
	"nof0-arena/pkg/llm"
	"nof0-arena/pkg/market"
	"nof0-arena/pkg/ratelimit"
	"nof0-arena/pkg/scoring"
	"nof0-arena/pkg/streambus"
)

// fakeLLM is the same shape as agentrunner's own test double; duplicated
// here since it is unexported in that package.
type fakeLLM struct {
	mu sync.Mutex
	fn func(ctx context.Context, target interface{}) error
}

func (f *fakeLLM) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, nil
}
func (f *fakeLLM) ChatStream(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamResponse, error) {
	return nil, nil
}
func (f *fakeLLM) ChatStructured(ctx context.Context, _ *llm.ChatRequest, target interface{}) (interface{}, error) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return nil, fn(ctx, target)
}
func (f *fakeLLM) GetConfig() *llm.Config { return &llm.Config{} }
func (f *fakeLLM) Close() error           { return nil }

// fakeSnapshotProvider always returns the same fixed snapshot.
type fakeSnapshotProvider struct {
	snapshot market.MarketSnapshot
}

func (p fakeSnapshotProvider) Snapshot(ctx context.Context, symbols []string) (market.MarketSnapshot, error) {
	return p.snapshot, nil
}

// varyingSnapshotProvider returns whatever snapshot is currently stashed,
// letting a test move the price between two Trigger calls.
type varyingSnapshotProvider struct {
	mu       sync.Mutex
	snapshot market.MarketSnapshot
}

func (p *varyingSnapshotProvider) set(s market.MarketSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = s
}

func (p *varyingSnapshotProvider) Snapshot(ctx context.Context, symbols []string) (market.MarketSnapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot, nil
}

// fakeVenue fills every order instantly and never errors.
type fakeVenue struct{}

func (fakeVenue) GetAssetIndex(ctx context.Context, coin string) (int, error) { return 0, nil }
func (fakeVenue) IOCMarket(ctx context.Context, coin string, isBuy bool, qty float64, slippage float64, reduceOnly bool) (*exchange.OrderResponse, error) {
	return &exchange.OrderResponse{Status: "ok"}, nil
}
func (fakeVenue) GetPositions(ctx context.Context) ([]exchange.Position, error) { return nil, nil }

func testTemplatePath(t *testing.T) string {
	t.Helper()
	return filepath.Join("..", "..", "etc", "prompts", "agent_decision.tmpl")
}

func newTestRunner(t *testing.T, agentID string, client llm.LLMClient) *agentrunner.Runner {
	t.Helper()
	renderer, err := agentrunner.NewPromptRenderer(testTemplatePath(t))
	require.NoError(t, err)
	r, err := agentrunner.New(agentrunner.AgentConfig{
		AgentID:            agentID,
		DisplayName:        agentID,
		TradingStyle:       agentrunner.StyleAggressive,
		CallBudgetPerRound: 5,
		PreferredSymbols:   []string{"BTC"},
	}, client, renderer)
	require.NoError(t, err)
	return r
}

func newTestOrchestrator(t *testing.T, cfg Config, runners []*agentrunner.Runner) *Orchestrator {
	t.Helper()
	snapshot := market.MarketSnapshot{
		CapturedAt: time.Now(),
		Points:     []market.PricePoint{{Symbol: "BTC", Price: 60000, Change24h: 0.01, Volume24h: 1000}},
	}
	return newTestOrchestratorWithProvider(t, cfg, runners, fakeSnapshotProvider{snapshot: snapshot})
}

func newTestOrchestratorWithProvider(t *testing.T, cfg Config, runners []*agentrunner.Runner, provider market.SnapshotProvider) *Orchestrator {
	t.Helper()
	o, err := New(
		cfg,
		runners,
		provider,
		nil, // no news source wired for these tests
		fakeVenue{},
		ratelimit.New(ratelimit.Config{}),
		ledger.New(100),
		scoring.NewPool(map[string]struct{}{"BTC": {}}),
		leaderboard.New(),
		streambus.New(50),
		nil, // no on-disk journal for these tests
	)
	require.NoError(t, err)
	return o
}

func TestOrchestrator_TriggerRejectsWhenBusy(t *testing.T) {
	release := make(chan struct{})
	blocking := &fakeLLM{fn: func(ctx context.Context, target interface{}) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return llm.ParseStructured(`{"action":"hold","reasoning":"waiting","confidence":0}`, target)
	}}
	runner := newTestRunner(t, "agent-a", blocking)
	o := newTestOrchestrator(t, Config{RoundDeadline: 5 * time.Second}, []*agentrunner.Runner{runner})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := o.Trigger(context.Background())
		assert.NoError(t, err)
	}()

	// Give the first round time to acquire the lock before the second call.
	time.Sleep(50 * time.Millisecond)
	_, err := o.Trigger(context.Background())
	require.Error(t, err)
	var busy RejectedBusy
	require.ErrorAs(t, err, &busy)

	close(release)
	wg.Wait()
}

func TestOrchestrator_AgentDeadlineProducesHold(t *testing.T) {
	slow := &fakeLLM{fn: func(ctx context.Context, _ interface{}) error {
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
		}
		return ctx.Err()
	}}
	fast := buyDecisionLLMJSON("BTC", 100, 80)

	slowRunner := newTestRunner(t, "agent-slow", slow)
	fastRunner := newTestRunner(t, "agent-fast", fast)

	o := newTestOrchestrator(t, Config{
		RoundDeadline:    300 * time.Millisecond,
		InterAgentPacing: 0,
	}, []*agentrunner.Runner{slowRunner, fastRunner})

	result, err := o.Trigger(context.Background())
	require.NoError(t, err)
	require.Equal(t, "completed", result.Status)
	require.Len(t, result.Decisions, 2)

	byAgent := make(map[string]DecisionRecord, 2)
	for _, d := range result.Decisions {
		byAgent[d.AgentID] = d
	}
	// The slow agent can be synthesized as a hold either by its own
	// per-agent deadline (agentrunner.Runner.Decide) or by the
	// orchestrator's round-timeout fallback (spec.md §4.9) — both fire at
	// the same absolute deadline here, so only the outcome is asserted.
	assert.Equal(t, "hold", byAgent["agent-slow"].Decision.Action)
	assert.Equal(t, "buy", byAgent["agent-fast"].Decision.Action)
}

func TestOrchestrator_LedgerChainAfterRound(t *testing.T) {
	a := buyDecisionLLMJSON("BTC", 100, 70)
	b := buyDecisionLLMJSON("BTC", 200, 90)
	runnerA := newTestRunner(t, "agent-a", a)
	runnerB := newTestRunner(t, "agent-b", b)

	o := newTestOrchestrator(t, Config{RoundDeadline: 2 * time.Second}, []*agentrunner.Runner{runnerA, runnerB})

	result, err := o.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, "unanimous", result.Consensus)
	require.Len(t, result.Decisions, 2)

	for _, d := range result.Decisions {
		assert.Len(t, d.LedgerEntry.Witnesses, 1)
	}

	verify := o.ledgerForTest().VerifyIntegrity()
	assert.True(t, verify.Intact)
}

func TestOrchestrator_CancelCurrentRound(t *testing.T) {
	release := make(chan struct{})
	blocking := &fakeLLM{fn: func(ctx context.Context, target interface{}) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return ctx.Err()
	}}
	runner := newTestRunner(t, "agent-a", blocking)
	o := newTestOrchestrator(t, Config{RoundDeadline: 5 * time.Second}, []*agentrunner.Runner{runner})

	var result *RoundResult
	var triggerErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		result, triggerErr = o.Trigger(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	assert.True(t, o.CancelCurrentRound())

	close(release)
	wg.Wait()
	require.NoError(t, triggerErr)
	assert.True(t, result.Cancelled)
}

func TestOrchestrator_ResolveOutcomesOnLaterRound(t *testing.T) {
	provider := &varyingSnapshotProvider{snapshot: market.MarketSnapshot{
		CapturedAt: time.Now(),
		Points:     []market.PricePoint{{Symbol: "BTC", Price: 100, Change24h: 0, Volume24h: 1000}},
	}}

	buyer := buyDecisionLLMJSON("BTC", 10, 80)
	runner := newTestRunner(t, "agent-a", buyer)
	o := newTestOrchestratorWithProvider(t, Config{RoundDeadline: 2 * time.Second}, []*agentrunner.Runner{runner}, provider)

	first, err := o.Trigger(context.Background())
	require.NoError(t, err)
	require.Len(t, first.Decisions, 1)
	entryID := first.Decisions[0].LedgerEntry.EntryID
	require.False(t, first.Decisions[0].LedgerEntry.OutcomeResolved)

	// Price rises 10% before the next round: the buy should resolve as a win.
	provider.set(market.MarketSnapshot{
		CapturedAt: time.Now(),
		Points:     []market.PricePoint{{Symbol: "BTC", Price: 110, Change24h: 0.1, Volume24h: 1000}},
	})

	_, err = o.Trigger(context.Background())
	require.NoError(t, err)

	resolved, ok := o.ledgerForTest().Get(entryID)
	require.True(t, ok)
	require.True(t, resolved.OutcomeResolved)
	require.NotNil(t, resolved.OutcomeCorrect)
	assert.True(t, *resolved.OutcomeCorrect)
	require.NotNil(t, resolved.PnlPercent)
	assert.InDelta(t, 10.0, *resolved.PnlPercent, 1e-9)

	agg := o.board.Query(leaderboard.SortByPnl, 10)
	require.Len(t, agg, 1)
	assert.Equal(t, 1, agg[0].Wins)
	assert.InDelta(t, 10.0, agg[0].TotalPnl, 1e-9)

	calib := o.scoring.Calibration.Evaluate("agent-a")
	assert.Equal(t, 1, calib.SampleCount)
}

// buyDecisionLLMJSON returns a fake LLM client that replies with a fixed
// buy decision, formatted directly (avoiding float formatting pitfalls).
func buyDecisionLLMJSON(symbol string, quantity, confidence int) *fakeLLM {
	return &fakeLLM{fn: func(_ context.Context, target interface{}) error {
		jsonStr := `{"action":"buy","symbol":"` + symbol + `","quantity":` + strconv.Itoa(quantity) +
			`,"reasoning":"uptrend momentum on ` + symbol + `","confidence":` + strconv.Itoa(confidence) +
			`,"intent":"momentum","sources":["price"],"predictedOutcome":"up"}`
		return llm.ParseStructured(jsonStr, target)
	}}
}

// ledgerForTest exposes the orchestrator's ledger for integrity checks
// without widening the production API surface.
func (o *Orchestrator) ledgerForTest() *ledger.Ledger { return o.ledger }
