// Package ledger implements the forensic ledger (C6): an in-memory,
// append-only, hash-chained log of every trading decision and its
// scores, bounded by a FIFO-evicted capacity.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

// DefaultCapacity matches spec.md's MAX_LEDGER_SIZE.
const DefaultCapacity = 5000

// Ledger is the hash-chained append-only store. Zero value is not usable;
// construct with New. Safe for concurrent use: appends are serialized,
// readers observe a consistent prefix under a read lock.
type Ledger struct {
	mu       sync.RWMutex
	capacity int
	entries  []Entry
	baseSeq  int64 // sequence number of entries[0]; advances on eviction
	nextSeq  int64
	lastHash string
}

// New constructs an empty ledger with the given eviction capacity. A
// capacity <= 0 falls back to DefaultCapacity.
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{
		capacity: capacity,
		lastHash: genesisHash,
	}
}

// Append computes the next entry's hash-chain fields and stores it,
// evicting the oldest entry if capacity is exceeded. Returns the
// complete, immutable Entry as stored.
func (l *Ledger) Append(in NewEntryInput) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		EntryID:            uuid.NewString(),
		SequenceNumber:     l.nextSeq,
		PreviousHash:       l.lastHash,
		AgentID:            in.AgentID,
		RoundID:            in.RoundID,
		Action:             in.Action,
		Symbol:             in.Symbol,
		Quantity:           in.Quantity,
		Reasoning:          in.Reasoning,
		Confidence:         in.Confidence,
		Intent:             in.Intent,
		Sources:            in.Sources,
		PredictedOutcome:   in.PredictedOutcome,
		MarketSnapshotHash: in.MarketSnapshotHash,
		PriceAtTrade:       in.PriceAtTrade,
		CoherenceScore:     in.CoherenceScore,
		HallucinationFlags: in.HallucinationFlags,
		DisciplinePass:     in.DisciplinePass,
		DepthScore:         in.DepthScore,
		ForensicScore:      in.ForensicScore,
		EfficiencyScore:    in.EfficiencyScore,
		Witnesses:          in.Witnesses,
		Timestamp:          in.Timestamp,
		BenchmarkVersion:   in.BenchmarkVersion,
		VenueTxHash:        in.VenueTxHash,
	}
	e.EntryHash = computeEntryHash(e)

	l.entries = append(l.entries, e)
	l.lastHash = e.EntryHash
	l.nextSeq++

	if len(l.entries) > l.capacity {
		evicted := len(l.entries) - l.capacity
		l.entries = append(l.entries[:0], l.entries[evicted:]...)
		l.baseSeq += int64(evicted)
		logx.Slowf("ledger evicted %d entries, baseSeq now %d", evicted, l.baseSeq)
	}

	return e
}

// ResolveOutcome sets the outcome fields on the entry with the given id,
// exactly once. A second call is a no-op and returns false.
func (l *Ledger) ResolveOutcome(entryID string, pnlPercent float64, correct bool) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(entryID)
	if idx < 0 {
		return false
	}
	e := &l.entries[idx]
	if e.OutcomeResolved {
		return false
	}
	now := time.Now()
	e.OutcomeResolved = true
	pnl := pnlPercent
	ok := correct
	e.PnlPercent = &pnl
	e.OutcomeCorrect = &ok
	e.OutcomeTimestamp = &now
	return true
}

func (l *Ledger) indexOf(entryID string) int {
	for i := range l.entries {
		if l.entries[i].EntryID == entryID {
			return i
		}
	}
	return -1
}

// Get returns the entry with the given id, if still present.
func (l *Ledger) Get(entryID string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	idx := l.indexOf(entryID)
	if idx < 0 {
		return Entry{}, false
	}
	return l.entries[idx], true
}

// VerifyIntegrity recomputes every surviving entry's hash and confirms
// the chain; it reports the sequence number of the first entry that
// fails, if any.
func (l *Ledger) VerifyIntegrity() VerifyResult {
	l.mu.RLock()
	defer l.mu.RUnlock()

	res := VerifyResult{Intact: true, GenesisHash: genesisHash, TotalChecked: len(l.entries)}
	if len(l.entries) == 0 {
		res.LatestHash = genesisHash
		return res
	}
	prev := l.entries[0].PreviousHash
	for i, e := range l.entries {
		if i == 0 {
			// first surviving entry's previousHash is whatever it was
			// chained to; only recompute-hash is checked for it unless
			// it is the true genesis entry.
		} else if e.PreviousHash != prev {
			brk := e.SequenceNumber
			res.Intact = false
			res.BrokenAt = &brk
			res.LatestHash = l.lastHash
			return res
		}
		if computeEntryHash(e) != e.EntryHash {
			brk := e.SequenceNumber
			res.Intact = false
			res.BrokenAt = &brk
			res.LatestHash = l.lastHash
			return res
		}
		prev = e.EntryHash
	}
	res.LatestHash = l.lastHash
	return res
}

// Query filters entries newest-first with offset/limit.
func (l *Ledger) Query(f Filter) QueryResult {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matched := make([]Entry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := l.entries[i]
		if matches(e, f) {
			matched = append(matched, e)
		}
	}
	total := len(matched)
	limit := f.Limit
	if limit <= 0 {
		limit = defaultQueryLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return QueryResult{Entries: []Entry{}, Total: total}
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return QueryResult{Entries: matched[offset:end], Total: total}
}

func matches(e Entry, f Filter) bool {
	if f.AgentID != "" && e.AgentID != f.AgentID {
		return false
	}
	if f.Symbol != "" && e.Symbol != f.Symbol {
		return false
	}
	if f.RoundID != "" && e.RoundID != f.RoundID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.MinCoherence != nil && e.CoherenceScore < *f.MinCoherence {
		return false
	}
	if f.MaxHallucinations != nil && len(e.HallucinationFlags) > *f.MaxHallucinations {
		return false
	}
	if f.OutcomeResolved != nil && e.OutcomeResolved != *f.OutcomeResolved {
		return false
	}
	return true
}

// ExportJSONL returns newline-delimited canonical-order JSON, one line
// per matching entry, in chronological order (oldest first), optionally
// restricted to a single agent.
func (l *Ledger) ExportJSONL(agentID string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var b []byte
	for _, e := range l.entries {
		if agentID != "" && e.AgentID != agentID {
			continue
		}
		b = append(b, []byte(canonicalJSON(entryToMap(e)))...)
		b = append(b, '\n')
	}
	return string(b)
}

// Len reports the number of entries currently retained (post-eviction).
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// computeEntryHash hashes only the fields fixed at Append time. Outcome
// fields (outcomeResolved/outcomeCorrect/pnlPercent/outcomeTimestamp) are
// deliberately excluded: spec.md declares them the one part of an Entry
// that legitimately mutates after the fact, via ResolveOutcome, and the
// hash chain must survive that mutation rather than break on it.
func computeEntryHash(e Entry) string {
	m := entryToMap(e)
	delete(m, "entryHash")
	delete(m, "outcomeResolved")
	delete(m, "outcomeCorrect")
	delete(m, "pnlPercent")
	delete(m, "outcomeTimestamp")
	sum := sha256.Sum256([]byte(canonicalJSON(m)))
	return hex.EncodeToString(sum[:])
}

// entryToMap projects an Entry into the generic map the canonical-JSON
// encoder walks; field order here is irrelevant since the encoder
// re-sorts keys ASCII-wise before hashing.
func entryToMap(e Entry) map[string]any {
	m := map[string]any{
		"sequenceNumber":     e.SequenceNumber,
		"previousHash":       e.PreviousHash,
		"agentId":            e.AgentID,
		"roundId":            e.RoundID,
		"action":             e.Action,
		"symbol":             e.Symbol,
		"quantity":           e.Quantity,
		"reasoning":          e.Reasoning,
		"confidence":         e.Confidence,
		"intent":             e.Intent,
		"sources":            stringSliceToAny(e.Sources),
		"predictedOutcome":   e.PredictedOutcome,
		"marketSnapshotHash": e.MarketSnapshotHash,
		"priceAtTrade":       e.PriceAtTrade,
		"coherenceScore":     e.CoherenceScore,
		"hallucinationFlags": stringSliceToAny(e.HallucinationFlags),
		"disciplinePass":     e.DisciplinePass,
		"depthScore":         e.DepthScore,
		"forensicScore":      e.ForensicScore,
		"efficiencyScore":    e.EfficiencyScore,
		"witnesses":          stringSliceToAny(e.Witnesses),
		"outcomeResolved":    e.OutcomeResolved,
		"timestamp":          e.Timestamp.UTC().Format(time.RFC3339Nano),
		"benchmarkVersion":   e.BenchmarkVersion,
		"entryId":            e.EntryID,
		"entryHash":          e.EntryHash,
	}
	if e.VenueTxHash != "" {
		m["venueTxHash"] = e.VenueTxHash
	}
	if e.OutcomeCorrect != nil {
		m["outcomeCorrect"] = *e.OutcomeCorrect
	}
	if e.PnlPercent != nil {
		m["pnlPercent"] = *e.PnlPercent
	}
	if e.OutcomeTimestamp != nil {
		m["outcomeTimestamp"] = e.OutcomeTimestamp.UTC().Format(time.RFC3339Nano)
	}
	return m
}

func stringSliceToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// MarketSnapshotHash hashes a symbol→price map the way spec.md §4.5
// requires: canonical-JSON of [symbol, price] pairs sorted by symbol.
func MarketSnapshotHash(prices map[string]float64) string {
	symbols := make([]string, 0, len(prices))
	for s := range prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	pairs := make([]any, 0, len(symbols))
	for _, s := range symbols {
		pairs = append(pairs, []any{s, prices[s]})
	}
	sum := sha256.Sum256([]byte(canonicalJSON(pairs)))
	return hex.EncodeToString(sum[:])
}
