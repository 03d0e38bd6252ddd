// Package arena implements the RoundOrchestrator (C10): the scheduler
// that acquires the single global trading lock, fans AgentRunner out
// across every configured agent, applies the circuit breakers, submits
// allowed trades to the venue, appends to the forensic ledger, updates
// the scoring analyzers and leaderboard, and publishes stream events —
// all bounded by a hard round deadline and a best-effort cancellation
// token.
package arena

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"nof0-arena/pkg/agentrunner"
	"nof0-arena/pkg/journal"
	"nof0-arena/pkg/ledger"
	"nof0-arena/pkg/leaderboard"
	"nof0-arena/pkg/market"
	"nof0-arena/pkg/newscache"
	"nof0-arena/pkg/ratelimit"
	"nof0-arena/pkg/riskgate"
	"nof0-arena/pkg/scoring"
	"nof0-arena/pkg/streambus"
)

// DefaultRoundDeadline is T_round, the hard wall-clock bound on one round.
const DefaultRoundDeadline = 30 * time.Second

// DefaultInterAgentPacing staggers provider load across fanned-out agents.
const DefaultInterAgentPacing = 100 * time.Millisecond

// DefaultInitialCash seeds every agent's paper book.
const DefaultInitialCash = 10_000.0

// DefaultHistoryCapacity bounds the in-memory round-summary history.
const DefaultHistoryCapacity = 200

// DefaultVelocityWindow is W, the trailing window the velocity breaker
// counts trades over (spec.md §4.3 Open Question, resolved in DESIGN.md).
const DefaultVelocityWindow = time.Minute

// Config tunes one Orchestrator. Zero values fall back to spec.md
// defaults.
type Config struct {
	RoundDeadline     time.Duration
	InterAgentPacing  time.Duration
	RPCTimeout        time.Duration
	InitialCash       float64
	BenchmarkVersion  string
	Risk              riskgate.Config
	HistoryCapacity   int
	VelocityWindow    time.Duration
}

func (c Config) withDefaults() Config {
	if c.RoundDeadline <= 0 {
		c.RoundDeadline = DefaultRoundDeadline
	}
	if c.InterAgentPacing <= 0 {
		c.InterAgentPacing = DefaultInterAgentPacing
	}
	if c.RPCTimeout <= 0 {
		c.RPCTimeout = DefaultRPCTimeout
	}
	if c.InitialCash <= 0 {
		c.InitialCash = DefaultInitialCash
	}
	if c.BenchmarkVersion == "" {
		c.BenchmarkVersion = scoring.BenchmarkVersion
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = DefaultHistoryCapacity
	}
	if c.VelocityWindow <= 0 {
		c.VelocityWindow = DefaultVelocityWindow
	}
	return c
}

// NewsSource is the read-through collaborator the orchestrator pulls a
// per-round news block from; absent news for a symbol is not an error.
type NewsSource interface {
	GetCachedNews(ctx context.Context, symbols []string) map[string][]newscache.Item
}

// DecisionRecord is everything recorded for one agent's decision within
// a round, returned on RoundResult for the HTTP surface to render.
type DecisionRecord struct {
	AgentID     string
	Decision    agentrunner.TradingDecision
	Activations []riskgate.Activation
	Execution   ExecutionDetails
	Subscores   scoring.Subscores
	LedgerEntry ledger.Entry
}

// RoundResult is the outcome of one Trigger call.
type RoundResult struct {
	RoundID     string
	Status      string // "completed" or "failed"
	StartedAt   time.Time
	CompletedAt time.Time
	Consensus   string
	Decisions   []DecisionRecord
	Cancelled   bool
	TimedOut    bool
	Errors      []string
}

// Orchestrator is C10. Construct with New; the zero value is not usable.
type Orchestrator struct {
	cfg Config

	runners    map[string]*agentrunner.Runner
	agentOrder []string

	snapshots market.SnapshotProvider
	news      NewsSource
	executor  *TradeExecutor
	rl        *ratelimit.Client
	ledger    *ledger.Ledger
	scoring   *scoring.Pool
	board     *leaderboard.Store
	bus       *streambus.Bus
	book      *book
	journal   *journal.Writer

	locked      int32 // 0 = free, 1 = held; CAS-guarded, never blocking
	lockMu      sync.Mutex
	holderRound string
	cancelFn    context.CancelFunc

	historyMu sync.Mutex
	history   []RoundResult
}

// New constructs an Orchestrator from its wired collaborators. agents
// must be non-empty and every runner's AgentConfig.AgentID must be
// unique; order is preserved as the round's fan-out and witness order.
func New(
	cfg Config,
	runners []*agentrunner.Runner,
	snapshots market.SnapshotProvider,
	news NewsSource,
	venue Venue,
	rl *ratelimit.Client,
	forensicLedger *ledger.Ledger,
	pool *scoring.Pool,
	board *leaderboard.Store,
	bus *streambus.Bus,
	cycleJournal *journal.Writer,
) (*Orchestrator, error) {
	cfg = cfg.withDefaults()
	if len(runners) == 0 {
		return nil, fmt.Errorf("arena: at least one agent runner is required")
	}

	byID := make(map[string]*agentrunner.Runner, len(runners))
	order := make([]string, 0, len(runners))
	for _, r := range runners {
		id := r.Config().AgentID
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("arena: duplicate agent id %q", id)
		}
		byID[id] = r
		order = append(order, id)
	}

	return &Orchestrator{
		cfg:        cfg,
		runners:    byID,
		agentOrder: order,
		snapshots:  snapshots,
		news:       news,
		executor:   NewTradeExecutor(venue, rl, cfg.RPCTimeout),
		rl:         rl,
		ledger:     forensicLedger,
		scoring:    pool,
		board:      board,
		bus:        bus,
		book:       newBook(cfg.InitialCash, order),
		journal:    cycleJournal,
	}, nil
}

// Status reports whether a round is currently in flight and, if so, its
// round id — used by the HTTP status endpoint and by Trigger's busy path.
func (o *Orchestrator) Status() (busy bool, roundID string) {
	o.lockMu.Lock()
	defer o.lockMu.Unlock()
	return atomic.LoadInt32(&o.locked) == 1, o.holderRound
}

// CancelCurrentRound requests best-effort cancellation of the in-flight
// round, if any. It returns false if no round is running.
func (o *Orchestrator) CancelCurrentRound() bool {
	o.lockMu.Lock()
	defer o.lockMu.Unlock()
	if atomic.LoadInt32(&o.locked) == 0 || o.cancelFn == nil {
		return false
	}
	o.cancelFn()
	return true
}

// History returns up to limit most-recent round results, newest first
// (limit<=0 returns all retained).
func (o *Orchestrator) History(limit int) []RoundResult {
	o.historyMu.Lock()
	defer o.historyMu.Unlock()
	out := make([]RoundResult, len(o.history))
	copy(out, o.history)
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Trigger attempts to acquire the global trading lock and, on success,
// runs one full round. On failure it returns RejectedBusy immediately —
// it never waits for the lock (spec.md §5 "Global trading lock").
func (o *Orchestrator) Trigger(ctx context.Context) (*RoundResult, error) {
	if !atomic.CompareAndSwapInt32(&o.locked, 0, 1) {
		o.lockMu.Lock()
		holder := o.holderRound
		o.lockMu.Unlock()
		return nil, RejectedBusy{HolderRoundID: holder}
	}

	roundID := uuid.NewString()
	roundCtx, cancel := context.WithCancel(ctx)
	deadlineCtx, cancelDeadline := context.WithDeadline(roundCtx, time.Now().Add(o.cfg.RoundDeadline))

	o.lockMu.Lock()
	o.holderRound = roundID
	o.cancelFn = cancel
	o.lockMu.Unlock()

	defer func() {
		cancelDeadline()
		cancel()
		o.lockMu.Lock()
		o.holderRound = ""
		o.cancelFn = nil
		o.lockMu.Unlock()
		atomic.StoreInt32(&o.locked, 0)
	}()

	result := o.runRound(deadlineCtx, roundCtx, roundID)
	o.recordHistory(result)
	if result.Status == "failed" {
		return result, fmt.Errorf("arena: round %s failed", roundID)
	}
	return result, nil
}

func (o *Orchestrator) recordHistory(r *RoundResult) {
	o.historyMu.Lock()
	defer o.historyMu.Unlock()
	o.history = append([]RoundResult{*r}, o.history...)
	if len(o.history) > o.cfg.HistoryCapacity {
		o.history = o.history[:o.cfg.HistoryCapacity]
	}
}

// runRound executes capturing_market → fanning_out → gating_and_executing
// → publishing_and_writing, observing deadlineCtx for the round timeout
// and roundCtx for external cancellation at each phase boundary.
func (o *Orchestrator) runRound(deadlineCtx, roundCtx context.Context, roundID string) (result *RoundResult) {
	startedAt := time.Now().UTC()
	result = &RoundResult{RoundID: roundID, Status: "completed", StartedAt: startedAt}

	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("arena: round %s panicked: %v", roundID, r)
			result.Status = "failed"
			result.Errors = append(result.Errors, fmt.Sprintf("panic: %v", r))
			result.CompletedAt = time.Now().UTC()
		}
	}()

	symbols := o.symbolUniverse()
	snapshot, err := o.snapshots.Snapshot(deadlineCtx, symbols)
	if err != nil {
		logx.WithContext(deadlineCtx).Errorf("arena: market snapshot failed round=%s err=%v", roundID, err)
		snapshot = market.MarketSnapshot{CapturedAt: time.Now()}
		result.Errors = append(result.Errors, fmt.Sprintf("market snapshot: %v", err))
	}

	o.bus.Publish(streambus.Event{
		ID: uuid.NewString(), Type: streambus.EventRoundStarted, RoundID: roundID,
		Timestamp: time.Now().UTC(),
		Payload: RoundStartedPayload{
			RoundID: roundID, AgentIDs: o.agentOrder,
			CapturedAt: snapshot.CapturedAt.Format(time.RFC3339),
		},
	})

	o.resolveOutcomes(roundID, snapshot)

	roundDeadline, _ := deadlineCtx.Deadline()
	decisions, timedOut, cancelled := o.fanOut(deadlineCtx, roundCtx, roundID, snapshot, roundDeadline)
	result.TimedOut = timedOut
	result.Cancelled = cancelled

	// Cancellation is observed again here (spec.md §4.9's "between its
	// major phases fanOut, executeDecision, record"): if the token fired
	// after fanOut already returned full coverage, gating still proceeds
	// for decisions already produced, but no further venue calls are
	// attempted for decisions not yet gated.
	marks := snapshot.Prices()
	records := make([]DecisionRecord, 0, len(decisions))
	actions := make([]string, 0, len(decisions))
	for _, d := range decisions {
		if roundCtx.Err() != nil {
			result.Cancelled = true
		}
		rec := o.gateAndExecute(deadlineCtx, d, marks[d.Symbol])
		records = append(records, rec)
		actions = append(actions, rec.Decision.Action)
	}

	consensus := scoring.RoundConsensus(actions)
	for i := range records {
		records[i] = o.record(records[i], roundID, snapshot, peerActionsFor(records, records[i].AgentID), witnessesFor(records, records[i].AgentID))
	}

	o.bus.Publish(streambus.Event{
		ID: uuid.NewString(), Type: streambus.EventRoundCompleted, RoundID: roundID,
		Timestamp: time.Now().UTC(),
		Payload: RoundCompletedPayload{
			RoundID: roundID, Consensus: consensus, DecisionCount: len(records),
			DurationMs: time.Since(startedAt).Milliseconds(),
			Cancelled:  result.Cancelled, TimedOut: result.TimedOut,
		},
	})

	result.Decisions = records
	result.Consensus = consensus
	result.CompletedAt = time.Now().UTC()
	return result
}

func (o *Orchestrator) symbolUniverse() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, id := range o.agentOrder {
		for _, sym := range o.runners[id].Config().PreferredSymbols {
			if _, ok := seen[sym]; !ok {
				seen[sym] = struct{}{}
				out = append(out, sym)
			}
		}
	}
	sort.Strings(out)
	return out
}

// fanOut invokes AgentRunner for every agent concurrently with a shared
// per-agent deadline equal to the round deadline, staggered by
// InterAgentPacing. Agents still running at the round deadline are
// synthesized into a "round timeout" hold without waiting on them
// further (spec.md §4.9).
func (o *Orchestrator) fanOut(ctx, roundCtx context.Context, roundID string, snapshot market.MarketSnapshot, roundDeadline time.Time) ([]agentrunner.TradingDecision, bool, bool) {
	marks := snapshot.Prices()
	results := make(chan agentrunner.TradingDecision, len(o.agentOrder))

	var wg sync.WaitGroup
	for i, id := range o.agentOrder {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			if i > 0 {
				select {
				case <-time.After(time.Duration(i) * o.cfg.InterAgentPacing):
				case <-ctx.Done():
				}
			}
			runner := o.runners[id]
			round := agentrunner.RoundInput{
				RoundID:    roundID,
				Snapshot:   snapshot,
				Portfolio:  o.book.Portfolio(id, marks),
				News:       o.newsBlock(ctx, snapshot),
				Deadline:   roundDeadline,
				CallBudget: runner.Config().CallBudget(),
			}
			results <- runner.Decide(ctx, round)
		}(i, id)
	}
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	pending := make(map[string]bool, len(o.agentOrder))
	for _, id := range o.agentOrder {
		pending[id] = true
	}
	decisions := make([]agentrunner.TradingDecision, 0, len(o.agentOrder))
	timer := time.NewTimer(time.Until(roundDeadline))
	defer timer.Stop()

	var cancelled bool
collect:
	for len(pending) > 0 {
		select {
		case d := <-results:
			decisions = append(decisions, d)
			delete(pending, d.AgentID)
		case <-done:
			for len(pending) > 0 {
				select {
				case d := <-results:
					decisions = append(decisions, d)
					delete(pending, d.AgentID)
				default:
					break collect
				}
			}
			break collect
		case <-roundCtx.Done():
			cancelled = true
			break collect
		case <-timer.C:
			break collect
		}
	}

	timedOut := len(pending) > 0 && !cancelled
	for id := range pending {
		if cancelled {
			decisions = append(decisions, agentrunner.TradingDecision{
				AgentID:   id,
				RoundID:   roundID,
				Action:    "hold",
				Reasoning: "cancelled: round was cancelled before this agent's decision completed",
				Intent:    "cancelled",
				Timestamp: time.Now().UTC(),
			})
			continue
		}
		decisions = append(decisions, agentrunner.TradingDecision{
			AgentID:   id,
			RoundID:   roundID,
			Action:    "hold",
			Reasoning: "round timeout: agent runner had not returned by T_round",
			Intent:    "round_timeout",
			Timestamp: time.Now().UTC(),
		})
	}
	return decisions, timedOut, cancelled
}

func (o *Orchestrator) newsBlock(ctx context.Context, snapshot market.MarketSnapshot) map[string][]newscache.Item {
	if o.news == nil {
		return nil
	}
	symbols := make([]string, len(snapshot.Points))
	for i, p := range snapshot.Points {
		symbols[i] = p.Symbol
	}
	return o.news.GetCachedNews(ctx, symbols)
}

// gateAndExecute runs the decision through the circuit breakers and, if
// still non-hold afterward, submits it to the venue.
func (o *Orchestrator) gateAndExecute(ctx context.Context, decision agentrunner.TradingDecision, price float64) DecisionRecord {
	windowStart := time.Now().Add(-o.cfg.VelocityWindow).UnixNano()
	stats := o.book.Stats(decision.AgentID, windowStart)
	portfolio := o.book.riskgatePortfolio(decision.AgentID)

	gateResult := riskgate.Evaluate(
		riskgate.Decision{Action: decision.Action, Symbol: decision.Symbol, Quantity: decision.Quantity},
		portfolio, stats, o.cfg.Risk,
	)

	final := decision
	final.Action = gateResult.Decision.Action
	final.Quantity = gateResult.Decision.Quantity

	for _, act := range gateResult.Activations {
		o.bus.Publish(streambus.Event{
			ID: uuid.NewString(), Type: streambus.EventCircuitBreaker,
			AgentID: decision.AgentID, RoundID: decision.RoundID, Timestamp: time.Now().UTC(),
			Payload: CircuitBreakerPayload{
				Kind: act.Kind, Severity: act.Severity, Reason: act.Reason,
				ReplacementAction: act.ReplacementAction,
			},
		})
		if act.Severity == riskgate.SeverityBlock {
			o.bus.Publish(streambus.Event{
				ID: uuid.NewString(), Type: streambus.EventTradeBlocked,
				AgentID: decision.AgentID, RoundID: decision.RoundID, Timestamp: time.Now().UTC(),
				Payload: TradeBlockedPayload{
					Symbol: decision.Symbol, OriginalAction: decision.Action,
					Reason: act.Reason, Activations: gateResult.Activations,
				},
			})
		}
	}

	var execution ExecutionDetails
	if final.Action != "hold" {
		execution = o.executor.Execute(ctx, final, price)
		if execution.ExecutionError != "" {
			o.bus.Publish(streambus.Event{
				ID: uuid.NewString(), Type: streambus.EventTradeBlocked,
				AgentID: decision.AgentID, RoundID: decision.RoundID, Timestamp: time.Now().UTC(),
				Payload: TradeBlockedPayload{
					Symbol: final.Symbol, OriginalAction: final.Action,
					Reason: "venue execution failed", ExecutionError: execution.ExecutionError,
				},
			})
		} else {
			o.book.RecordExecution(decision.AgentID, final.Symbol, final.Action, final.Quantity, price, time.Now().UnixNano())
			o.bus.Publish(streambus.Event{
				ID: uuid.NewString(), Type: streambus.EventTradeExecuted,
				AgentID: decision.AgentID, RoundID: decision.RoundID, Timestamp: time.Now().UTC(),
				Payload: TradeExecutedPayload{
					Symbol: final.Symbol, Action: final.Action, Quantity: final.Quantity,
					FilledPrice: execution.FilledPrice, Notional: execution.Notional,
					TxSignature: execution.TxSignature,
				},
			})
		}
	}

	o.bus.Publish(streambus.Event{
		ID: uuid.NewString(), Type: streambus.EventAgentDecision,
		AgentID: decision.AgentID, RoundID: decision.RoundID, Timestamp: time.Now().UTC(),
		Payload: AgentDecisionPayload{
			Action: final.Action, Symbol: final.Symbol, Quantity: final.Quantity,
			Confidence: decision.Confidence, Reasoning: decision.Reasoning,
			PredictedOutcome: decision.PredictedOutcome, Sources: decision.Sources,
		},
	})

	return DecisionRecord{
		AgentID:     decision.AgentID,
		Decision:    final,
		Activations: gateResult.Activations,
		Execution:   execution,
	}
}

// record computes the analyzer subscores, appends the ledger entry, and
// feeds the leaderboard and personality store.
func (o *Orchestrator) record(rec DecisionRecord, roundID string, snapshot market.MarketSnapshot, peerActions []string, witnesses []string) DecisionRecord {
	d := rec.Decision
	subscores := o.scoring.Evaluate(scoring.Decision{
		AgentID: d.AgentID, RoundID: d.RoundID, Action: d.Action, Symbol: d.Symbol,
		Quantity: d.Quantity, Reasoning: d.Reasoning, Confidence: d.Confidence,
		Intent: d.Intent, Sources: d.Sources, PredictedOutcome: d.PredictedOutcome,
		Timestamp: d.Timestamp,
	})

	var price float64
	if !rec.Execution.Executed {
		for _, p := range snapshot.Points {
			if p.Symbol == d.Symbol {
				price = p.Price
				break
			}
		}
	} else {
		price = rec.Execution.FilledPrice
	}

	entry := o.ledger.Append(ledger.NewEntryInput{
		AgentID: d.AgentID, RoundID: roundID, Action: d.Action, Symbol: d.Symbol,
		Quantity: d.Quantity, Reasoning: d.Reasoning, Confidence: d.Confidence,
		Intent: d.Intent, Sources: d.Sources, PredictedOutcome: d.PredictedOutcome,
		MarketSnapshotHash: ledger.MarketSnapshotHash(snapshot.Prices()),
		PriceAtTrade:       price,
		CoherenceScore:     subscores.CoherenceScore,
		HallucinationFlags: subscores.HallucinationFlags,
		DisciplinePass:     subscores.DisciplinePass,
		DepthScore:         subscores.DepthScore,
		ForensicScore:      subscores.ForensicScore,
		EfficiencyScore:    subscores.EfficiencyScore,
		Witnesses:          witnesses,
		Timestamp:          d.Timestamp,
		BenchmarkVersion:   o.cfg.BenchmarkVersion,
		VenueTxHash:        rec.Execution.TxSignature,
	})

	o.board.RecordDecision(d.AgentID, d.Action, d.Confidence, subscores.ForensicScore)

	o.scoring.Personality.Record(scoring.RecordedDecision{
		AgentID: d.AgentID, Action: d.Action, Symbol: d.Symbol, Confidence: d.Confidence,
		PeerActions: peerActions,
	})

	rec.Subscores = subscores
	rec.LedgerEntry = entry
	o.writeJournal(rec, roundID)
	return rec
}

// writeJournal mirrors the just-recorded decision to the on-disk cycle
// journal (pkg/journal). Best-effort: a journal write failure never
// affects the in-memory ledger, which remains the source of truth.
func (o *Orchestrator) writeJournal(rec DecisionRecord, roundID string) {
	if o.journal == nil {
		return
	}
	d := rec.Decision
	cycle := &journal.CycleRecord{
		Timestamp:     d.Timestamp,
		TraderID:      d.AgentID,
		DecisionsJSON: rec.LedgerEntry.EntryHash,
		Success:       true,
		Extra: map[string]interface{}{
			"round_id":     roundID,
			"action":       d.Action,
			"symbol":       d.Symbol,
			"quantity":     d.Quantity,
			"confidence":   d.Confidence,
			"executed":     rec.Execution.Executed,
			"coherence":    rec.Subscores.CoherenceScore,
			"forensic":     rec.Subscores.ForensicScore,
			"activations":  len(rec.Activations),
		},
	}
	if rec.Execution.ExecutionError != "" {
		cycle.Success = false
		cycle.ErrorMessage = rec.Execution.ExecutionError
	}
	if _, err := o.journal.WriteCycle(cycle); err != nil {
		logx.Errorf("arena: journal write failed round=%s agent=%s err=%v", roundID, d.AgentID, err)
	}
}

// resolveOutcomes grades every still-unresolved, non-hold decision from a
// prior round against the snapshot just captured for this one, per
// spec.md §4.6/§4.7's "resolved later via ForensicLedger.resolveOutcome".
// A hold carries no price-direction claim and is never resolved. Entries
// from the round currently being recorded are skipped: no time has
// passed since their priceAtTrade was captured, so grading them now would
// always read as a wash. Resolution fans into every outcome-keyed
// consumer spec.md names: the ledger entry itself, the circuit breakers'
// consecutive-loss counter, the leaderboard's win/P&L/Sharpe aggregates,
// and Calibration's ECE/Brier sample set.
func (o *Orchestrator) resolveOutcomes(roundID string, snapshot market.MarketSnapshot) {
	marks := snapshot.Prices()
	unresolved := false
	pending := o.ledger.Query(ledger.Filter{OutcomeResolved: &unresolved, Limit: ledger.DefaultCapacity})

	for _, e := range pending.Entries {
		if e.RoundID == roundID || e.Action == "hold" {
			continue
		}
		price, ok := marks[e.Symbol]
		if !ok || price <= 0 || e.PriceAtTrade <= 0 {
			continue
		}

		var pnlPercent float64
		switch e.Action {
		case "buy":
			pnlPercent = (price - e.PriceAtTrade) / e.PriceAtTrade * 100
		case "sell":
			pnlPercent = (e.PriceAtTrade - price) / e.PriceAtTrade * 100
		default:
			continue
		}
		correct := pnlPercent > 0

		if !o.ledger.ResolveOutcome(e.EntryID, pnlPercent, correct) {
			continue // already resolved by a concurrent caller; idempotent no-op
		}
		o.book.RecordOutcome(e.AgentID, correct)
		o.board.RecordOutcome(e.AgentID, pnlPercent, correct)
		o.scoring.Calibration.Record(e.AgentID, e.Confidence, correct)
	}
}

// peerActionsFor returns the non-hold actions of every other agent in the
// round, for PersonalityEvolution's contrarianism signal.
func peerActionsFor(records []DecisionRecord, self string) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		if r.AgentID == self || r.Decision.Action == "hold" {
			continue
		}
		out = append(out, r.Decision.Action)
	}
	return out
}

func witnessesFor(records []DecisionRecord, self string) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		if r.AgentID != self {
			out = append(out, r.AgentID)
		}
	}
	return out
}
