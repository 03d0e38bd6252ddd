package scoring

import (
	"math"
	"sync"
)

// MaxDecisionsPerAgent matches spec.md's personality ring buffer bound.
const MaxDecisionsPerAgent = 500

// SnapshotEvery triggers a trait snapshot on every Nth recorded decision.
const SnapshotEvery = 10

// DriftSignificanceThreshold is the Euclidean distance above which drift
// from baseline is "significant" per spec.md §4.6.
const DriftSignificanceThreshold = 15.0

// RecordedDecision is one entry in an agent's personality history.
type RecordedDecision struct {
	AgentID       string
	Action        string
	Symbol        string
	Confidence    float64
	PeerActions   []string // other agents' non-hold actions this round
	PnlResult     *float64 // resolved P&L, if known
	Seq           int64
}

// Traits is the 6-D personality vector, each component in [0,100].
type Traits struct {
	Aggressiveness  float64
	Contrarianism   float64
	Conviction      float64
	Diversification float64
	WinSensitivity  float64
	LossSensitivity float64
}

func (t Traits) vector() [6]float64 {
	return [6]float64{t.Aggressiveness, t.Contrarianism, t.Conviction, t.Diversification, t.WinSensitivity, t.LossSensitivity}
}

// euclidean returns the 6-D Euclidean distance between two trait vectors.
func euclidean(a, b Traits) float64 {
	av, bv := a.vector(), b.vector()
	var sum float64
	for i := range av {
		d := av[i] - bv[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// PersonalityEvolution is the stateful, per-agent analyzer tracking a
// bounded decision history and periodic trait snapshots.
type PersonalityEvolution struct {
	mu       sync.Mutex
	history  map[string][]RecordedDecision
	baseline map[string]Traits
	current  map[string]Traits
	seq      int64
}

// NewPersonalityEvolution constructs an empty tracker.
func NewPersonalityEvolution() *PersonalityEvolution {
	return &PersonalityEvolution{
		history:  make(map[string][]RecordedDecision),
		baseline: make(map[string]Traits),
		current:  make(map[string]Traits),
	}
}

// PersonalityResult is returned from Record.
type PersonalityResult struct {
	Snapshotted bool
	Traits      Traits
	Drift       float64
	Significant bool
}

// Record appends d to agentID's ring-buffered history (evicting the
// oldest beyond MaxDecisionsPerAgent), and, every SnapshotEvery
// decisions, recomputes the 6-D trait vector and drift from baseline.
func (p *PersonalityEvolution) Record(d RecordedDecision) PersonalityResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	d.Seq = p.seq

	hist := append(p.history[d.AgentID], d)
	if len(hist) > MaxDecisionsPerAgent {
		hist = hist[len(hist)-MaxDecisionsPerAgent:]
	}
	p.history[d.AgentID] = hist

	if len(hist)%SnapshotEvery != 0 {
		return PersonalityResult{}
	}

	traits := computeTraits(hist)
	base, had := p.baseline[d.AgentID]
	if !had {
		p.baseline[d.AgentID] = traits
		base = traits
	}
	p.current[d.AgentID] = traits
	drift := euclidean(base, traits)

	return PersonalityResult{
		Snapshotted: true,
		Traits:      traits,
		Drift:       drift,
		Significant: drift > DriftSignificanceThreshold,
	}
}

// Traits returns the most recent snapshot for agentID, if any.
func (p *PersonalityEvolution) Traits(agentID string) (Traits, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.current[agentID]
	return t, ok
}

func computeTraits(hist []RecordedDecision) Traits {
	n := float64(len(hist))
	if n == 0 {
		return Traits{}
	}

	var nonHold, opposesMajority, confSum float64
	symbolCounts := map[string]int{}
	for _, d := range hist {
		if d.Action != "hold" {
			nonHold++
			symbolCounts[d.Symbol]++
		}
		confSum += d.Confidence
		if opposesPeerMajority(d) {
			opposesMajority++
		}
	}

	aggressiveness := 100 * nonHold / n
	contrarianism := 100 * opposesMajority / n
	conviction := confSum / n // already on [0,100] scale
	diversification := 100 * shannonDiversity(symbolCounts)
	winSens, lossSens := sensitivityAroundOutcomes(hist)

	return Traits{
		Aggressiveness:  clampPct(aggressiveness),
		Contrarianism:   clampPct(contrarianism),
		Conviction:      clampPct(conviction),
		Diversification: clampPct(diversification),
		WinSensitivity:  clampPct(winSens),
		LossSensitivity: clampPct(lossSens),
	}
}

func opposesPeerMajority(d RecordedDecision) bool {
	if d.Action == "hold" || len(d.PeerActions) == 0 {
		return false
	}
	counts := map[string]int{}
	for _, a := range d.PeerActions {
		counts[a]++
	}
	majority := ""
	best := 0
	for a, c := range counts {
		if c > best {
			best = c
			majority = a
		}
	}
	return majority != "" && majority != "hold" && majority != d.Action
}

// shannonDiversity returns normalized Shannon entropy (0..1) over symbol
// trade counts, scaled by a breadth factor rewarding more distinct
// symbols traded.
func shannonDiversity(counts map[string]int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 || len(counts) <= 1 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		h -= p * math.Log2(p)
	}
	maxH := math.Log2(float64(len(counts)))
	norm := 0.0
	if maxH > 0 {
		norm = h / maxH
	}
	breadth := math.Min(1, float64(len(counts))/5.0)
	return clamp01(norm * breadth)
}

// sensitivityAroundOutcomes measures the absolute change in confidence
// and trade rate in the ±3-decision window around each resolved outcome,
// separated into win-triggered and loss-triggered sensitivity.
func sensitivityAroundOutcomes(hist []RecordedDecision) (win, loss float64) {
	const radius = 3
	var winDeltas, lossDeltas []float64

	for i, d := range hist {
		if d.PnlResult == nil {
			continue
		}
		before := windowAvgConfidence(hist, i-radius, i)
		after := windowAvgConfidence(hist, i+1, i+1+radius)
		delta := math.Abs(after - before)
		if *d.PnlResult >= 0 {
			winDeltas = append(winDeltas, delta)
		} else {
			lossDeltas = append(lossDeltas, delta)
		}
	}
	return avgOrZero(winDeltas), avgOrZero(lossDeltas)
}

func windowAvgConfidence(hist []RecordedDecision, from, to int) float64 {
	if from < 0 {
		from = 0
	}
	if to > len(hist) {
		to = len(hist)
	}
	if from >= to {
		return 0
	}
	var sum float64
	for i := from; i < to; i++ {
		sum += hist[i].Confidence
	}
	return sum / float64(to-from)
}

func avgOrZero(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

func clampPct(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 100 {
		return 100
	}
	return f
}
