package scoring

import (
	"regexp"
	"strings"
)

// Hallucination flags reasoning text that references fabricated tickers,
// invented percentages unsupported by the snapshot, or sources that were
// never supplied.
type Hallucination struct {
	KnownSymbols map[string]struct{}
}

// HallucinationResult is the stateless analyzer's output.
type HallucinationResult struct {
	Flags    []string
	Severity float64 // aggregate severity in [0,1]
}

var tickerPattern = regexp.MustCompile(`\b[A-Z]{2,6}(?:USD|USDT|USDC)?\b`)
var pctPattern = regexp.MustCompile(`\b(\d{2,4})%`)
var sourceClaimPattern = regexp.MustCompile(`(?i)according to ([A-Za-z0-9 ]{3,30})`)

// Evaluate scans d.Reasoning for hallucination indicators.
func (h Hallucination) Evaluate(d Decision) HallucinationResult {
	var flags []string
	text := d.Reasoning

	for _, m := range tickerPattern.FindAllString(text, -1) {
		sym := strings.TrimSuffix(strings.TrimSuffix(m, "USDT"), "USDC")
		sym = strings.TrimSuffix(sym, "USD")
		if sym == "" || sym == d.Symbol {
			continue
		}
		if _, known := h.KnownSymbols[sym]; !known && len(h.KnownSymbols) > 0 {
			flags = append(flags, "unknown_ticker:"+sym)
		}
	}

	for _, m := range pctPattern.FindAllStringSubmatch(text, -1) {
		if len(m) == 2 {
			if v := parseIntSafe(m[1]); v >= 500 {
				flags = append(flags, "implausible_percent:"+m[1])
			}
		}
	}

	for _, m := range sourceClaimPattern.FindAllStringSubmatch(text, -1) {
		if len(m) == 2 && !sourceInList(m[1], d.Sources) {
			flags = append(flags, "unattributed_source:"+strings.TrimSpace(m[1]))
		}
	}

	severity := float64(len(flags)) / 5.0
	if severity > 1 {
		severity = 1
	}
	return HallucinationResult{Flags: flags, Severity: severity}
}

func sourceInList(claimed string, sources []string) bool {
	claimed = strings.ToLower(strings.TrimSpace(claimed))
	for _, s := range sources {
		if strings.Contains(strings.ToLower(s), claimed) || strings.Contains(claimed, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func parseIntSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
