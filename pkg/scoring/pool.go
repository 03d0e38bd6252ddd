package scoring

// Pool aggregates all analyzers and produces the composite Subscores for
// a single decision, plus owns the stateful per-agent analyzers
// (Calibration, PersonalityEvolution) that persist across calls.
type Pool struct {
	Calibration *Calibration
	Personality *PersonalityEvolution
	Discipline  Discipline
	Hallucination Hallucination
}

// NewPool constructs a pool with fresh stateful analyzers. knownSymbols
// seeds Hallucination's ticker whitelist (empty disables that check).
func NewPool(knownSymbols map[string]struct{}) *Pool {
	return &Pool{
		Calibration:   NewCalibration(DefaultCalibrationBins),
		Personality:   NewPersonalityEvolution(),
		Discipline:    Discipline{},
		Hallucination: Hallucination{KnownSymbols: knownSymbols},
	}
}

// compositeWeights is the v24 weight vector: a fixed weighted sum over
// coherence, hallucination-free rate, discipline, depth, and source
// quality (financial P&L and personality stability are folded in by the
// leaderboard's own composite, which also consumes these subscores).
var compositeWeights = struct {
	coherence, hallucinationFree, discipline, depth, sourceQuality float64
}{coherence: 0.25, hallucinationFree: 0.2, discipline: 0.15, depth: 0.2, sourceQuality: 0.2}

// Evaluate runs every stateless analyzer and returns the subscores
// recorded onto the ledger entry. It does not read or update the pool's
// stateful Calibration or Personality analyzers.
func (p *Pool) Evaluate(d Decision) Subscores {
	coh := Coherence{}.Evaluate(d)
	hal := p.Hallucination.Evaluate(d)
	dis := p.Discipline.Evaluate(d)
	depth := ReasoningDepth{}.Evaluate(d)
	sq := SourceQuality{}.Evaluate(d)

	disciplineScore := 0.0
	if dis.Passed {
		disciplineScore = 1.0
	}
	hallucinationFree := 1.0 - hal.Severity

	forensic := compositeWeights.coherence*coh.Score +
		compositeWeights.hallucinationFree*hallucinationFree +
		compositeWeights.discipline*disciplineScore +
		compositeWeights.depth*depth.Score +
		compositeWeights.sourceQuality*sq.Score

	efficiency := 0.0
	if len(d.Reasoning) > 0 {
		efficiency = clamp01(depth.Score / (float64(len(d.Reasoning)) / 500.0))
	}

	return Subscores{
		CoherenceScore:        coh.Score,
		HallucinationFlags:    hal.Flags,
		HallucinationSeverity: hal.Severity,
		DisciplinePass:        dis.Passed,
		DisciplineViolations:  dis.Violations,
		DepthScore:            depth.Score,
		SourceQualityScore:    sq.Score,
		ForensicScore:         clamp01(forensic),
		EfficiencyScore:       efficiency,
	}
}
