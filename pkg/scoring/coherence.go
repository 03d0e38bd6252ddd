package scoring

import "strings"

var bullishCues = []string{"bullish", "uptrend", "breakout", "momentum", "strong support", "accumulate"}
var bearishCues = []string{"bearish", "downtrend", "breakdown", "weak", "resistance", "distribute", "sell-off"}

// Coherence measures reasoning-to-action alignment via lexical cues: the
// rate of bullish/bearish language consistent with the stated action.
type Coherence struct{}

// CoherenceResult is the stateless analyzer's output.
type CoherenceResult struct {
	Score       float64
	Explanation string
}

// Evaluate scores d.Reasoning against d.Action in [0,1].
func (Coherence) Evaluate(d Decision) CoherenceResult {
	text := strings.ToLower(d.Reasoning)
	bullish := countCues(text, bullishCues)
	bearish := countCues(text, bearishCues)

	switch d.Action {
	case "buy":
		return coherenceFromCueBalance(bullish, bearish, "buy")
	case "sell":
		return coherenceFromCueBalance(bearish, bullish, "sell")
	default: // hold
		if bullish == 0 && bearish == 0 {
			return CoherenceResult{Score: 0.7, Explanation: "neutral reasoning consistent with hold"}
		}
		// conflicting signals but chose hold: moderately coherent.
		return CoherenceResult{Score: 0.55, Explanation: "mixed signals, hold is a defensible middle ground"}
	}
}

func coherenceFromCueBalance(supporting, opposing int, action string) CoherenceResult {
	if supporting == 0 && opposing == 0 {
		return CoherenceResult{Score: 0.5, Explanation: "no directional language to corroborate " + action}
	}
	total := supporting + opposing
	ratio := float64(supporting) / float64(total)
	score := 0.5 + 0.5*ratio
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	explanation := "reasoning language aligns with " + action
	if opposing > supporting {
		explanation = "reasoning language conflicts with " + action
	}
	return CoherenceResult{Score: score, Explanation: explanation}
}

func countCues(text string, cues []string) int {
	n := 0
	for _, c := range cues {
		n += strings.Count(text, c)
	}
	return n
}
