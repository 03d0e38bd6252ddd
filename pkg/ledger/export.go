package ledger

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// csvHeader is the fixed column order for ExportCSV.
var csvHeader = []string{
	"entryId", "sequenceNumber", "agentId", "roundId", "action", "symbol",
	"quantity", "confidence", "coherenceScore", "disciplinePass",
	"depthScore", "forensicScore", "efficiencyScore", "outcomeResolved",
	"outcomeCorrect", "pnlPercent", "timestamp", "benchmarkVersion",
}

// ExportCSV renders matching entries (chronological order) as RFC-4180
// CSV with the fixed header above, optionally restricted to one agent.
func (l *Ledger) ExportCSV(agentID string) string {
	l.mu.RLock()
	entries := make([]Entry, 0, len(l.entries))
	for _, e := range l.entries {
		if agentID != "" && e.AgentID != agentID {
			continue
		}
		entries = append(entries, e)
	}
	l.mu.RUnlock()

	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(csvHeader)
	for _, e := range entries {
		_ = w.Write([]string{
			e.EntryID,
			strconv.FormatInt(e.SequenceNumber, 10),
			e.AgentID,
			e.RoundID,
			e.Action,
			e.Symbol,
			strconv.FormatFloat(e.Quantity, 'f', -1, 64),
			strconv.FormatFloat(e.Confidence, 'f', -1, 64),
			strconv.FormatFloat(e.CoherenceScore, 'f', -1, 64),
			strconv.FormatBool(e.DisciplinePass),
			strconv.FormatFloat(e.DepthScore, 'f', -1, 64),
			strconv.FormatFloat(e.ForensicScore, 'f', -1, 64),
			strconv.FormatFloat(e.EfficiencyScore, 'f', -1, 64),
			strconv.FormatBool(e.OutcomeResolved),
			optBool(e.OutcomeCorrect),
			optFloat(e.PnlPercent),
			e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			e.BenchmarkVersion,
		})
	}
	w.Flush()
	return b.String()
}

func optBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func optFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
