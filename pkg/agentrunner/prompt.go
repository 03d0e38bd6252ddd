package agentrunner

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"nof0-arena/pkg/llm"
	"nof0-arena/pkg/market"
	"nof0-arena/pkg/newscache"
)

// PromptInputs contains the dynamic data injected into the agent decision
// prompt template, mirroring executor.PromptInputs' shape.
type PromptInputs struct {
	AgentID         string
	DisplayName     string
	TradingStyle    string
	RiskTolerance   float64
	RoundID         string
	CurrentTime     string
	CallBudget      int
	PortfolioView   string
	MarketSnapshots string
	NewsBlock       string
}

// PromptRenderer renders the agent decision system prompt from a template
// file, matching executor.PromptRenderer's disk-template pattern.
type PromptRenderer struct {
	tpl *llm.PromptTemplate
}

// NewPromptRenderer constructs a renderer from the supplied template path.
func NewPromptRenderer(templatePath string) (*PromptRenderer, error) {
	tpl, err := llm.NewPromptTemplate(templatePath, nil)
	if err != nil {
		return nil, err
	}
	return &PromptRenderer{tpl: tpl}, nil
}

// Render generates the final prompt string populated with inputs.
func (r *PromptRenderer) Render(inputs PromptInputs) (string, error) {
	if r == nil || r.tpl == nil {
		return "", fmt.Errorf("agentrunner: prompt renderer not initialised")
	}
	return r.tpl.Render(inputs)
}

// Digest returns the underlying template digest for observability.
func (r *PromptRenderer) Digest() string {
	if r == nil || r.tpl == nil {
		return ""
	}
	return r.tpl.Digest()
}

func buildPromptInputs(cfg AgentConfig, round RoundInput, now string) PromptInputs {
	return PromptInputs{
		AgentID:         cfg.AgentID,
		DisplayName:     cfg.DisplayName,
		TradingStyle:    string(cfg.TradingStyle),
		RiskTolerance:   cfg.RiskTolerance,
		RoundID:         round.RoundID,
		CurrentTime:     now,
		CallBudget:      round.CallBudget,
		PortfolioView:   formatPortfolio(round.Portfolio),
		MarketSnapshots: formatSnapshot(round.Snapshot),
		NewsBlock:       newscache.FormatNewsForPrompt(round.News),
	}
}

func formatPortfolio(p PortfolioContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "cash=%.2f total=%.2f pnl=%.2f (%.2f%%)\n", p.CashBalance, p.TotalValue, p.TotalPnl, p.TotalPnlPercent)
	if len(p.Positions) == 0 {
		b.WriteString("positions: (none)")
		return b.String()
	}
	items := make([]string, 0, len(p.Positions))
	for _, pos := range p.Positions {
		items = append(items, fmt.Sprintf("%s qty=%.6f avg_cost=%.4f mark=%.4f upnl=%.2f (%.2f%%)",
			pos.Symbol, pos.Quantity, pos.AvgCost, pos.CurrentPrice, pos.UnrealizedPnl, pos.UnrealizedPnlPercent))
	}
	sort.Strings(items)
	b.WriteString("positions:\n")
	b.WriteString(strings.Join(items, "\n"))
	return b.String()
}

func formatSnapshot(snap market.MarketSnapshot) string {
	if len(snap.Points) == 0 {
		return "{}"
	}
	points := make([]market.PricePoint, len(snap.Points))
	copy(points, snap.Points)
	sort.Slice(points, func(i, j int) bool { return points[i].Symbol < points[j].Symbol })
	b, err := json.Marshal(points)
	if err != nil {
		return "{}"
	}
	return string(b)
}
