package scoring

import (
	"regexp"
	"strings"
)

// ReasoningDepth scores step-count, logical-connective density,
// evidence-anchor count, counter-argument presence, conclusion clarity,
// and vocabulary richness, combined into a fixed weighted composite.
type ReasoningDepth struct{}

var connectivePattern = regexp.MustCompile(`(?i)\b(because|therefore|however|although|since|thus|given that|despite|while)\b`)
var evidenceAnchorPattern = regexp.MustCompile(`\$[\d,.]+|\d+(\.\d+)?%|\b(rsi|macd|ema|sma|volume|support|resistance)\b`)
var counterArgPattern = regexp.MustCompile(`(?i)\b(but|on the other hand|risk is|downside|counter(argument)?|alternatively)\b`)
var stepSeparator = regexp.MustCompile(`[.;\n]|\bfirst\b|\bsecond\b|\bthen\b|\bnext\b`)
var conclusionPattern = regexp.MustCompile(`(?i)\b(therefore|in conclusion|overall|net-net|so i (will|am))\b`)

// DepthResult is the composite depth score plus its sub-components, each
// normalized to [0,1].
type DepthResult struct {
	Score              float64
	StepCount          float64
	ConnectiveDensity  float64
	EvidenceAnchors    float64
	CounterArgument    float64
	ConclusionClarity  float64
	VocabularyRichness float64
}

// depthWeights is the fixed sub-score composition (sums to 1).
var depthWeights = struct {
	step, connective, evidence, counter, conclusion, vocab float64
}{step: 0.2, connective: 0.15, evidence: 0.25, counter: 0.15, conclusion: 0.1, vocab: 0.15}

// Evaluate scores d.Reasoning.
func (ReasoningDepth) Evaluate(d Decision) DepthResult {
	text := d.Reasoning
	words := strings.Fields(text)

	steps := len(stepSeparator.FindAllString(text, -1))
	stepScore := normalizeCount(steps, 5)

	connectives := len(connectivePattern.FindAllString(text, -1))
	connectiveScore := normalizeCount(connectives, 3)

	anchors := len(evidenceAnchorPattern.FindAllString(text, -1))
	anchorScore := normalizeCount(anchors, 4)

	counterScore := 0.0
	if counterArgPattern.MatchString(text) {
		counterScore = 1.0
	}

	conclusionScore := 0.0
	if conclusionPattern.MatchString(text) {
		conclusionScore = 1.0
	}

	vocabScore := typeTokenRatio(words)

	composite := depthWeights.step*stepScore +
		depthWeights.connective*connectiveScore +
		depthWeights.evidence*anchorScore +
		depthWeights.counter*counterScore +
		depthWeights.conclusion*conclusionScore +
		depthWeights.vocab*vocabScore

	return DepthResult{
		Score:              clamp01(composite),
		StepCount:          stepScore,
		ConnectiveDensity:  connectiveScore,
		EvidenceAnchors:    anchorScore,
		CounterArgument:    counterScore,
		ConclusionClarity:  conclusionScore,
		VocabularyRichness: vocabScore,
	}
}

func normalizeCount(n, max int) float64 {
	if n <= 0 {
		return 0
	}
	if n >= max {
		return 1
	}
	return float64(n) / float64(max)
}

func typeTokenRatio(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[strings.ToLower(strings.Trim(w, ".,!?;:\"'"))] = struct{}{}
	}
	return clamp01(float64(len(seen)) / float64(len(words)))
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
