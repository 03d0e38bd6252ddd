// Package scoring implements the ScoringAnalyzers pool (C7): coherence,
// hallucination, discipline, calibration, reasoning depth, source
// quality, personality evolution, and pairwise consensus statistics.
package scoring

import "time"

// Decision is the minimal view scoring needs of a TradingDecision.
type Decision struct {
	AgentID          string
	RoundID          string
	Action           string
	Symbol           string
	Quantity         float64
	Reasoning        string
	Confidence       float64
	Intent           string
	Sources          []string
	PredictedOutcome string
	Timestamp        time.Time
}

// Subscores is everything the orchestrator records onto a ledger entry
// for a single evaluated decision.
type Subscores struct {
	CoherenceScore     float64
	HallucinationFlags []string
	HallucinationSeverity float64
	DisciplinePass     bool
	DisciplineViolations []string
	DepthScore         float64
	SourceQualityScore float64
	ForensicScore      float64 // weighted composite of coherence, hallucination-free rate, discipline, depth and source quality
	EfficiencyScore    float64 // depth per unit reasoning length
}

// BenchmarkVersion is the process-wide weight-vector tag stamped on
// every ledger entry (SPEC_FULL.md §9 Open Question resolution).
var BenchmarkVersion = "v24"
