package agentrunner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"nof0-arena/pkg/llm"
)

// validActions is the closed set a decisionContract.Action may take.
var validActions = map[string]bool{"buy": true, "sell": true, "hold": true}

// Runner is a single agent's prompt/LLM/parse pipeline. One Runner is
// constructed per AgentConfig and reused across rounds; it holds no
// per-round mutable state beyond what RoundInput supplies.
type Runner struct {
	cfg      AgentConfig
	client   llm.LLMClient
	renderer *PromptRenderer
}

// New constructs a Runner for one agent.
func New(cfg AgentConfig, client llm.LLMClient, renderer *PromptRenderer) (*Runner, error) {
	if client == nil {
		return nil, fmt.Errorf("agentrunner: llm client is required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("agentrunner: prompt renderer is required")
	}
	if strings.TrimSpace(cfg.AgentID) == "" {
		return nil, fmt.Errorf("agentrunner: agentId is required")
	}
	return &Runner{cfg: cfg, client: client, renderer: renderer}, nil
}

// Config returns the agent's immutable configuration.
func (r *Runner) Config() AgentConfig { return r.cfg }

// Decide builds a prompt from round, calls the LLM, and parses exactly one
// TradingDecision. It never returns an error: any provider failure, parse
// failure, or deadline overrun yields a synthetic hold decision whose
// Reasoning captures the cause, per spec.md §4.8.
func (r *Runner) Decide(ctx context.Context, round RoundInput) TradingDecision {
	now := time.Now().UTC()
	if !round.Deadline.IsZero() && !now.Before(round.Deadline) {
		return r.holdDecision(round, "deadline", "per-agent deadline already elapsed before invocation", 0)
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if !round.Deadline.IsZero() {
		callCtx, cancel = context.WithDeadline(ctx, round.Deadline)
		defer cancel()
	}

	budget := round.CallBudget
	if budget < 0 {
		budget = r.cfg.callBudget()
	}
	if budget <= 0 {
		return r.holdDecision(round, "call_budget", "per-round call budget exhausted", 0)
	}

	promptStr, err := r.renderer.Render(buildPromptInputs(r.cfg, round, now.Format(time.RFC3339)))
	if err != nil {
		logx.Errorf("agentrunner: prompt render failed agent=%s round=%s err=%v", r.cfg.AgentID, round.RoundID, err)
		return r.holdDecision(round, "prompt_error", fmt.Sprintf("failed to render prompt: %v", err), 0)
	}
	digest := llm.DigestString(promptStr)

	req := &llm.ChatRequest{
		Model:    r.cfg.ModelID,
		Messages: []llm.Message{{Role: "system", Content: promptStr}},
	}

	var out decisionContract
	callStart := time.Now()
	_, err = r.client.ChatStructured(callCtx, req, &out)
	calls := 1
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			logx.Infof("agentrunner: deadline exceeded agent=%s round=%s digest=%s duration=%s", r.cfg.AgentID, round.RoundID, digest, time.Since(callStart))
			return r.holdDecision(round, "deadline", "agent runner deadline exceeded during LLM call", calls)
		}
		logx.Errorf("agentrunner: chat failed agent=%s round=%s digest=%s err=%v", r.cfg.AgentID, round.RoundID, digest, err)
		return r.holdDecision(round, "provider_error", fmt.Sprintf("LLM call failed: %v", err), calls)
	}
	logx.Infof("agentrunner: chat completed agent=%s round=%s digest=%s duration=%s", r.cfg.AgentID, round.RoundID, digest, time.Since(callStart))

	decision, parseErr := r.mapDecision(out, round)
	if parseErr != nil {
		logx.Errorf("agentrunner: parse failed agent=%s round=%s err=%v", r.cfg.AgentID, round.RoundID, parseErr)
		d := r.holdDecision(round, "parse_error", fmt.Sprintf("failed to parse decision: %v", parseErr), calls)
		return d
	}
	decision.CallsUsed = calls
	return decision
}

// mapDecision validates and normalizes the raw decisionContract into a
// TradingDecision. Malformed payloads (unknown action, negative quantity)
// are treated as parse failures so the caller falls back to a hold.
func (r *Runner) mapDecision(out decisionContract, round RoundInput) (TradingDecision, error) {
	action := strings.ToLower(strings.TrimSpace(out.Action))
	if !validActions[action] {
		return TradingDecision{}, fmt.Errorf("unrecognized action %q", out.Action)
	}
	if out.Quantity < 0 {
		return TradingDecision{}, fmt.Errorf("negative quantity %v", out.Quantity)
	}
	confidence := out.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	symbol := strings.ToUpper(strings.TrimSpace(out.Symbol))
	if action != "hold" && symbol == "" {
		return TradingDecision{}, fmt.Errorf("non-hold action %q missing symbol", action)
	}
	return TradingDecision{
		AgentID:          r.cfg.AgentID,
		RoundID:          round.RoundID,
		Action:           action,
		Symbol:           symbol,
		Quantity:         out.Quantity,
		Reasoning:        strings.TrimSpace(out.Reasoning),
		Confidence:       confidence,
		Intent:           strings.TrimSpace(out.Intent),
		Sources:          out.Sources,
		PredictedOutcome: strings.TrimSpace(out.PredictedOutcome),
		Timestamp:        time.Now().UTC(),
	}, nil
}

func (r *Runner) holdDecision(round RoundInput, reason, detail string, calls int) TradingDecision {
	return TradingDecision{
		AgentID:    r.cfg.AgentID,
		RoundID:    round.RoundID,
		Action:     "hold",
		Reasoning:  fmt.Sprintf("%s: %s", reason, detail),
		Confidence: 0,
		Intent:     reason,
		Timestamp:  time.Now().UTC(),
		CallsUsed:  calls,
	}
}
