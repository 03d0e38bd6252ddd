package scoring

import "math"

// WelchResult is the output of a two-sample Welch's t-test.
type WelchResult struct {
	T       float64
	DF      float64
	PValue  float64
	MeanA   float64
	MeanB   float64
}

// WelchT runs Welch's t-test (unequal variances) on samples A and B,
// using the Welch–Satterthwaite degrees-of-freedom approximation and the
// continued-fraction regularized incomplete beta for the two-tailed
// p-value. welchT(A,B).pValue == welchT(B,A).pValue and the sign of T
// flips, by construction (property 8 / scenario S7).
func WelchT(a, b []float64) WelchResult {
	na, nb := float64(len(a)), float64(len(b))
	if na < 2 || nb < 2 {
		return WelchResult{}
	}
	ma, mb := mean(a), mean(b)
	va, vb := sampleVariance(a, ma), sampleVariance(b, mb)

	seA := va / na
	seB := vb / nb
	se := math.Sqrt(seA + seB)

	var t float64
	if se > 0 {
		t = (ma - mb) / se
	}

	df := welchDF(seA, seB, na, nb)
	p := twoTailedP(t, df)

	return WelchResult{T: t, DF: df, PValue: p, MeanA: ma, MeanB: mb}
}

func welchDF(seA, seB, na, nb float64) float64 {
	num := (seA + seB) * (seA + seB)
	den := seA*seA/(na-1) + seB*seB/(nb-1)
	if den == 0 {
		return na + nb - 2
	}
	return num / den
}

// twoTailedP computes the two-sided p-value for Student's t statistic t
// with df degrees of freedom via the regularized incomplete beta
// identity: p = I_x(df/2, 1/2), x = df/(df + t^2).
func twoTailedP(t, df float64) float64 {
	if df <= 0 {
		return 1
	}
	x := df / (df + t*t)
	return regularizedIncompleteBeta(x, df/2, 0.5)
}

// EffectLabel classifies Cohen's d magnitude.
type EffectLabel string

const (
	EffectNegligible EffectLabel = "negligible"
	EffectSmall      EffectLabel = "small"
	EffectMedium     EffectLabel = "medium"
	EffectLarge      EffectLabel = "large"
)

// CohensDResult is the output of CohensD.
type CohensDResult struct {
	D     float64
	Label EffectLabel
}

// CohensD computes Cohen's d with pooled standard deviation. Reversing
// the argument order flips the sign of D but preserves Label.
func CohensD(a, b []float64) CohensDResult {
	na, nb := float64(len(a)), float64(len(b))
	if na < 2 || nb < 2 {
		return CohensDResult{}
	}
	ma, mb := mean(a), mean(b)
	va, vb := sampleVariance(a, ma), sampleVariance(b, mb)

	pooled := math.Sqrt(((na-1)*va + (nb-1)*vb) / (na + nb - 2))
	var d float64
	if pooled > 0 {
		d = (ma - mb) / pooled
	}
	return CohensDResult{D: d, Label: effectLabel(d)}
}

func effectLabel(d float64) EffectLabel {
	abs := math.Abs(d)
	switch {
	case abs < 0.2:
		return EffectNegligible
	case abs < 0.5:
		return EffectSmall
	case abs < 0.8:
		return EffectMedium
	default:
		return EffectLarge
	}
}

// RoundOutcome is one paired round's P&L result for a single agent, used
// by Consensus to compute wins/losses/draws between a pair of agents.
type RoundOutcome struct {
	RoundID string
	PnL     float64
}

// PairwiseResult is the full consensus comparison for a pair (A,B).
type PairwiseResult struct {
	Wins, Losses, Draws int
	Welch               WelchResult
	Cohen               CohensDResult
	CILowerA, CIUpperA  float64
	CILowerB, CIUpperB  float64
}

// Consensus computes the pairwise statistical comparison for agent A vs
// agent B over paired rounds (rounds present in both outcome lists).
type Consensus struct{}

// Compare pairs outcomesA and outcomesB by RoundID and computes the full
// statistical comparison.
func (Consensus) Compare(outcomesA, outcomesB []RoundOutcome) PairwiseResult {
	byRoundB := make(map[string]float64, len(outcomesB))
	for _, o := range outcomesB {
		byRoundB[o.RoundID] = o.PnL
	}

	var pnlA, pnlB []float64
	var wins, losses, draws int
	for _, oa := range outcomesA {
		ob, ok := byRoundB[oa.RoundID]
		if !ok {
			continue
		}
		pnlA = append(pnlA, oa.PnL)
		pnlB = append(pnlB, ob)
		switch {
		case oa.PnL > ob:
			wins++
		case oa.PnL < ob:
			losses++
		default:
			draws++
		}
	}

	welch := WelchT(pnlA, pnlB)
	cohen := CohensD(pnlA, pnlB)
	loA, hiA := ConfidenceInterval95(pnlA)
	loB, hiB := ConfidenceInterval95(pnlB)

	return PairwiseResult{
		Wins: wins, Losses: losses, Draws: draws,
		Welch: welch, Cohen: cohen,
		CILowerA: loA, CIUpperA: hiA,
		CILowerB: loB, CIUpperB: hiB,
	}
}

// RoundConsensus classifies a round's non-hold decisions per spec.md §4.9.
func RoundConsensus(actions []string) string {
	var buys, sells, total int
	for _, a := range actions {
		switch a {
		case "buy":
			buys++
			total++
		case "sell":
			sells++
			total++
		}
	}
	if total == 0 {
		return "no_trades"
	}
	if buys == total {
		return "unanimous"
	}
	if sells == total {
		return "unanimous"
	}
	if buys > sells {
		return "majority_buy"
	}
	if sells > buys {
		return "majority_sell"
	}
	return "split"
}
