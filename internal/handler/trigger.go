package handler

import (
	"errors"
	"net/http"

	"nof0-arena/internal/svc"
	"nof0-arena/internal/types"
	"nof0-arena/pkg/arena"
	"nof0-arena/pkg/arenaerr"
)

// triggerRoundHandler handles POST /trigger-round/trigger.
func triggerRoundHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svcCtx.Orchestrator.Trigger(r.Context())
		if err != nil {
			var busy arena.RejectedBusy
			if errors.As(err, &busy) {
				writeError(w, arenaerr.New(arenaerr.Conflict, "round_in_progress",
					"a round is already in progress: "+busy.HolderRoundID))
				return
			}
			writeError(w, arenaerr.Wrap(arenaerr.Fatal, "trigger_failed", err))
			return
		}
		writeJSON(w, http.StatusOK, types.ToTriggerResponse(*result))
	}
}

// roundStatusHandler handles GET /trigger-round/status.
func roundStatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		busy, roundID := svcCtx.Orchestrator.Status()
		resp := types.StatusResponse{Busy: busy, RoundID: roundID}
		if history := svcCtx.Orchestrator.History(1); len(history) > 0 {
			summary := types.ToRoundSummary(history[0])
			resp.LastRound = &summary
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// roundHistoryHandler handles GET /trigger-round/history?limit=.
func roundHistoryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r, 20, 200)
		if err != nil {
			writeError(w, err)
			return
		}
		rounds := svcCtx.Orchestrator.History(limit)
		summaries := make([]types.RoundSummary, 0, len(rounds))
		for _, round := range rounds {
			summaries = append(summaries, types.ToRoundSummary(round))
		}
		writeJSON(w, http.StatusOK, types.HistoryResponse{Rounds: summaries})
	}
}
