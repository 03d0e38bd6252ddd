// Command arenactl is a small operator CLI against a running arena's HTTP
// surface (spec.md §6). It never touches the orchestrator, ledger, or
// scoring packages directly — every subcommand is a plain HTTP call,
// matching the deployment split between cmd/arena (the server) and
// operator tooling that talks to it over the wire.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

const defaultTimeout = 15 * time.Second

func main() {
	baseURL := flag.String("url", "http://localhost:8888", "base URL of the arena HTTP server")
	limit := flag.Int("limit", 20, "row limit for leaderboard/history/ledger subcommands")
	sortBy := flag.String("sort-by", "composite", "leaderboard sort key: composite|pnl|win_rate|sharpe")
	agentID := flag.String("agent", "", "filter ledger query by agentId")
	symbol := flag.String("symbol", "", "filter ledger query by symbol")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	c := &client{base: *baseURL, http: &http.Client{Timeout: defaultTimeout}}

	var err error
	switch args[0] {
	case "trigger":
		err = c.trigger()
	case "status":
		err = c.status()
	case "history":
		err = c.history(*limit)
	case "leaderboard":
		err = c.leaderboard(*limit, *sortBy)
	case "ledger-verify":
		err = c.ledgerVerify()
	case "ledger-query":
		err = c.ledgerQuery(*limit, *agentID, *symbol)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("arenactl: %v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: arenactl [-url base] [-limit n] [-sort-by key] [-agent id] [-symbol sym] <command>")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  trigger        trigger a new round and print its decisions")
	fmt.Fprintln(os.Stderr, "  status         print whether a round is in progress and the last result")
	fmt.Fprintln(os.Stderr, "  history        print recent round summaries")
	fmt.Fprintln(os.Stderr, "  leaderboard    print the ranked agent leaderboard")
	fmt.Fprintln(os.Stderr, "  ledger-verify  verify the forensic ledger's hash chain")
	fmt.Fprintln(os.Stderr, "  ledger-query   print matching ledger entries")
}

// client is a thin wrapper over the arena's JSON HTTP surface, grounded on
// polybot's scanner/polymarket client split: one small transport type, one
// method per endpoint, JSON decoded straight into the wire shape.
type client struct {
	base string
	http *http.Client
}

func (c *client) get(path string, out interface{}) error {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeOrError(resp, out)
}

func (c *client) post(path string, out interface{}) error {
	resp, err := c.http.Post(c.base+path, "application/json", nil)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	return decodeOrError(resp, out)
}

func decodeOrError(resp *http.Response, out interface{}) error {
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %s: %s", resp.Status, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// --- wire shapes, mirroring internal/types' JSON tags -----------------

type decisionRecordView struct {
	AgentID     string  `json:"agentId"`
	Action      string  `json:"action"`
	Symbol      string  `json:"symbol"`
	Quantity    float64 `json:"quantity"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
	Executed    bool    `json:"executed"`
	Activations []string `json:"activations,omitempty"`
	LedgerEntry struct {
		EntryID       string  `json:"entryId"`
		EntryHash     string  `json:"entryHash"`
		CoherenceScore float64 `json:"coherenceScore"`
		ForensicScore  float64 `json:"forensicScore"`
	} `json:"ledgerEntry"`
}

type triggerRoundResponse struct {
	RoundID     string               `json:"roundId"`
	Status      string               `json:"status"`
	Consensus   string               `json:"consensus"`
	Decisions   []decisionRecordView `json:"decisions"`
	Cancelled   bool                 `json:"cancelled"`
	TimedOut    bool                 `json:"timedOut"`
	Errors      []string             `json:"errors,omitempty"`
}

type roundSummary struct {
	RoundID       string    `json:"roundId"`
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"startedAt"`
	CompletedAt   time.Time `json:"completedAt"`
	Consensus     string    `json:"consensus"`
	DecisionCount int       `json:"decisionCount"`
	Cancelled     bool      `json:"cancelled"`
	TimedOut      bool      `json:"timedOut"`
}

type statusResponse struct {
	Busy      bool          `json:"busy"`
	RoundID   string        `json:"roundId,omitempty"`
	LastRound *roundSummary `json:"lastRound,omitempty"`
}

type historyResponse struct {
	Rounds []roundSummary `json:"rounds"`
}

type leaderboardEntry struct {
	AgentID        string  `json:"agentId"`
	TradeCount     int     `json:"tradeCount"`
	WinRate        float64 `json:"winRate"`
	TotalPnl       float64 `json:"totalPnl"`
	CompositeScore float64 `json:"compositeScore"`
	Sharpe         float64 `json:"sharpe"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
	Rating         float64 `json:"rating"`
}

type leaderboardResponse struct {
	Agents []leaderboardEntry `json:"agents"`
}

type verifyResponse struct {
	Intact       bool   `json:"intact"`
	BrokenAt     *int64 `json:"brokenAt,omitempty"`
	LatestHash   string `json:"latestHash"`
	GenesisHash  string `json:"genesisHash"`
	TotalChecked int    `json:"totalChecked"`
}

type ledgerEntry struct {
	EntryID        string  `json:"entryId"`
	SequenceNumber int64   `json:"sequenceNumber"`
	AgentID        string  `json:"agentId"`
	RoundID        string  `json:"roundId"`
	Action         string  `json:"action"`
	Symbol         string  `json:"symbol"`
	Quantity       float64 `json:"quantity"`
	CoherenceScore float64 `json:"coherenceScore"`
	ForensicScore  float64 `json:"forensicScore"`
}

type ledgerQueryResponse struct {
	Entries []ledgerEntry `json:"entries"`
	Total   int           `json:"total"`
}

// --- subcommands --------------------------------------------------------

func (c *client) trigger() error {
	var resp triggerRoundResponse
	if err := c.post("/trigger-round/trigger", &resp); err != nil {
		return err
	}
	fmt.Printf("round %s: status=%s consensus=%s cancelled=%v timedOut=%v\n",
		resp.RoundID, resp.Status, resp.Consensus, resp.Cancelled, resp.TimedOut)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Agent", "Action", "Symbol", "Qty", "Confidence", "Executed", "Coherence", "Forensic")
	for _, d := range resp.Decisions {
		table.Append(
			d.AgentID,
			d.Action,
			d.Symbol,
			fmt.Sprintf("%.4f", d.Quantity),
			fmt.Sprintf("%.2f", d.Confidence),
			strconv.FormatBool(d.Executed),
			fmt.Sprintf("%.2f", d.LedgerEntry.CoherenceScore),
			fmt.Sprintf("%.2f", d.LedgerEntry.ForensicScore),
		)
	}
	table.Render()

	for _, e := range resp.Errors {
		fmt.Fprintf(os.Stderr, "round error: %s\n", e)
	}
	return nil
}

func (c *client) status() error {
	var resp statusResponse
	if err := c.get("/trigger-round/status", &resp); err != nil {
		return err
	}
	fmt.Printf("busy: %v\n", resp.Busy)
	if resp.RoundID != "" {
		fmt.Printf("in-progress round: %s\n", resp.RoundID)
	}
	if resp.LastRound == nil {
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("RoundID", "Status", "Consensus", "Decisions", "Cancelled", "TimedOut")
	r := *resp.LastRound
	table.Append(r.RoundID, r.Status, r.Consensus, strconv.Itoa(r.DecisionCount),
		strconv.FormatBool(r.Cancelled), strconv.FormatBool(r.TimedOut))
	table.Render()
	return nil
}

func (c *client) history(limit int) error {
	var resp historyResponse
	if err := c.get(fmt.Sprintf("/trigger-round/history?limit=%d", limit), &resp); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("RoundID", "Status", "Consensus", "Decisions", "Started", "Completed")
	for _, r := range resp.Rounds {
		table.Append(
			r.RoundID,
			r.Status,
			r.Consensus,
			strconv.Itoa(r.DecisionCount),
			r.StartedAt.Format(time.RFC3339),
			r.CompletedAt.Format(time.RFC3339),
		)
	}
	table.Render()
	return nil
}

func (c *client) leaderboard(limit int, sortBy string) error {
	var resp leaderboardResponse
	if err := c.get(fmt.Sprintf("/leaderboard?limit=%d&sortBy=%s", limit, sortBy), &resp); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Agent", "Trades", "WinRate", "PnL", "Composite", "Sharpe", "MaxDD", "Rating")
	for i, a := range resp.Agents {
		table.Append(
			strconv.Itoa(i+1),
			a.AgentID,
			strconv.Itoa(a.TradeCount),
			fmt.Sprintf("%.2f%%", a.WinRate*100),
			fmt.Sprintf("%.2f", a.TotalPnl),
			fmt.Sprintf("%.2f", a.CompositeScore),
			fmt.Sprintf("%.2f", a.Sharpe),
			fmt.Sprintf("%.2f", a.MaxDrawdown),
			fmt.Sprintf("%.2f", a.Rating),
		)
	}
	table.Render()
	return nil
}

func (c *client) ledgerVerify() error {
	var resp verifyResponse
	if err := c.get("/ledger/verify", &resp); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Intact", "TotalChecked", "GenesisHash", "LatestHash", "BrokenAt")
	brokenAt := "-"
	if resp.BrokenAt != nil {
		brokenAt = strconv.FormatInt(*resp.BrokenAt, 10)
	}
	table.Append(
		strconv.FormatBool(resp.Intact),
		strconv.Itoa(resp.TotalChecked),
		shortHash(resp.GenesisHash),
		shortHash(resp.LatestHash),
		brokenAt,
	)
	table.Render()

	if !resp.Intact {
		return fmt.Errorf("ledger chain broken at sequence %v", brokenAt)
	}
	return nil
}

func (c *client) ledgerQuery(limit int, agentID, symbol string) error {
	path := fmt.Sprintf("/ledger/query?limit=%d", limit)
	if agentID != "" {
		path += "&agentId=" + agentID
	}
	if symbol != "" {
		path += "&symbol=" + symbol
	}

	var resp ledgerQueryResponse
	if err := c.get(path, &resp); err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Seq", "EntryID", "Agent", "Round", "Action", "Symbol", "Qty", "Coherence", "Forensic")
	for _, e := range resp.Entries {
		table.Append(
			strconv.FormatInt(e.SequenceNumber, 10),
			shortHash(e.EntryID),
			e.AgentID,
			e.RoundID,
			e.Action,
			e.Symbol,
			fmt.Sprintf("%.4f", e.Quantity),
			fmt.Sprintf("%.2f", e.CoherenceScore),
			fmt.Sprintf("%.2f", e.ForensicScore),
		)
	}
	table.Render()
	fmt.Printf("%d of %d total\n", len(resp.Entries), resp.Total)
	return nil
}

func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}
