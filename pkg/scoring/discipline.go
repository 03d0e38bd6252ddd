package scoring

import "strings"

// Discipline checks structural requirements: hold-justification length,
// required-field presence, and quantity bounds.
type Discipline struct {
	MinHoldReasoningLen int
	MaxQuantity         float64
}

// DisciplineResult is the stateless analyzer's output.
type DisciplineResult struct {
	Passed     bool
	Violations []string
}

func (d Discipline) withDefaults() Discipline {
	if d.MinHoldReasoningLen <= 0 {
		d.MinHoldReasoningLen = 20
	}
	if d.MaxQuantity <= 0 {
		d.MaxQuantity = 1_000_000
	}
	return d
}

// Evaluate runs the structural checks against dec.
func (d Discipline) Evaluate(dec Decision) DisciplineResult {
	d = d.withDefaults()
	var violations []string

	if dec.Action == "hold" && len(strings.TrimSpace(dec.Reasoning)) < d.MinHoldReasoningLen {
		violations = append(violations, "hold_reasoning_too_short")
	}
	if strings.TrimSpace(dec.Reasoning) == "" {
		violations = append(violations, "missing_reasoning")
	}
	if dec.Action != "hold" && strings.TrimSpace(dec.Symbol) == "" {
		violations = append(violations, "missing_symbol")
	}
	if dec.Confidence < 0 || dec.Confidence > 100 {
		violations = append(violations, "confidence_out_of_bounds")
	}
	if dec.Action != "hold" && dec.Quantity <= 0 {
		violations = append(violations, "nonpositive_quantity")
	}
	if dec.Quantity > d.MaxQuantity {
		violations = append(violations, "quantity_exceeds_bound")
	}
	if dec.Action != "buy" && dec.Action != "sell" && dec.Action != "hold" {
		violations = append(violations, "invalid_action")
	}

	return DisciplineResult{Passed: len(violations) == 0, Violations: violations}
}
