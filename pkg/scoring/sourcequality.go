package scoring

import "regexp"

// SourceQuality detects the category of evidence a decision's reasoning
// draws on, how specific it is, and whether it cross-references and
// integrates multiple categories, composed into a fixed weighted sum.
type SourceQuality struct{}

var sourceCategoryPatterns = map[string]*regexp.Regexp{
	"price":     regexp.MustCompile(`(?i)\bprice|\$[\d,.]+`),
	"volume":    regexp.MustCompile(`(?i)\bvolume\b`),
	"news":      regexp.MustCompile(`(?i)\bnews|headline|report(ed)?\b`),
	"technical": regexp.MustCompile(`(?i)\brsi|macd|ema|sma|indicator|chart pattern\b`),
	"portfolio": regexp.MustCompile(`(?i)\bportfolio|position|cash balance|exposure\b`),
	"sentiment": regexp.MustCompile(`(?i)\bsentiment|fear|greed|bullish|bearish\b`),
	"peer":      regexp.MustCompile(`(?i)\bother agents|peers|consensus\b`),
	"risk":      regexp.MustCompile(`(?i)\brisk|drawdown|volatility\b`),
	"macro":     regexp.MustCompile(`(?i)\bmacro|fed|rate hike|inflation|cpi\b`),
	"fundamental": regexp.MustCompile(`(?i)\bfundamental|on-?chain|tvl|adoption\b`),
}

var crossRefPattern = regexp.MustCompile(`(?i)\b(combined with|together with|corroborated by|in line with|confirms)\b`)
var integrationPattern = regexp.MustCompile(`(?i)\b(weighing|balancing|synthesiz|overall assessment)\b`)

// SourceQualityResult is the composite score plus the categories found.
type SourceQualityResult struct {
	Score      float64
	Categories []string
	CrossReferenced bool
	Integrated      bool
}

var sqWeights = struct{ category, specificity, crossref, integration float64 }{
	category: 0.4, specificity: 0.25, crossref: 0.2, integration: 0.15,
}

// Evaluate scores d.Reasoning's source diversity and rigor.
func (SourceQuality) Evaluate(d Decision) SourceQualityResult {
	var cats []string
	for name, re := range sourceCategoryPatterns {
		if re.MatchString(d.Reasoning) {
			cats = append(cats, name)
		}
	}
	categoryScore := normalizeCount(len(cats), 4)
	specificityScore := normalizeCount(len(d.Sources), 3)
	crossRef := crossRefPattern.MatchString(d.Reasoning)
	integrated := integrationPattern.MatchString(d.Reasoning)

	composite := sqWeights.category*categoryScore + sqWeights.specificity*specificityScore
	if crossRef {
		composite += sqWeights.crossref
	}
	if integrated {
		composite += sqWeights.integration
	}

	return SourceQualityResult{
		Score:           clamp01(composite),
		Categories:      cats,
		CrossReferenced: crossRef,
		Integrated:      integrated,
	}
}
