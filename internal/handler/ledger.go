package handler

import (
	"net/http"

	"nof0-arena/internal/svc"
	"nof0-arena/internal/types"
	"nof0-arena/pkg/ledger"
)

// ledgerQueryHandler handles GET /ledger/query, per spec.md §4.5's filter set.
func ledgerQueryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r, 50, 500)
		if err != nil {
			writeError(w, err)
			return
		}
		offset, err := parseOffset(r)
		if err != nil {
			writeError(w, err)
			return
		}
		minCoherence, err := parseFloatPtr(r, "minCoherence")
		if err != nil {
			writeError(w, err)
			return
		}
		maxHallucinations, err := parseIntPtr(r, "maxHallucinations")
		if err != nil {
			writeError(w, err)
			return
		}
		outcomeResolved, err := parseBoolPtr(r, "outcomeResolved")
		if err != nil {
			writeError(w, err)
			return
		}

		q := r.URL.Query()
		filter := ledger.Filter{
			AgentID:           q.Get("agentId"),
			Symbol:            q.Get("symbol"),
			RoundID:           q.Get("roundId"),
			Action:            q.Get("action"),
			MinCoherence:      minCoherence,
			MaxHallucinations: maxHallucinations,
			OutcomeResolved:   outcomeResolved,
			Limit:             limit,
			Offset:            offset,
		}
		result := svcCtx.Ledger.Query(filter)
		writeJSON(w, http.StatusOK, types.LedgerQueryResponse{Entries: result.Entries, Total: result.Total})
	}
}

// ledgerVerifyHandler handles GET /ledger/verify.
func ledgerVerifyHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := svcCtx.Ledger.VerifyIntegrity()
		writeJSON(w, http.StatusOK, types.VerifyResponse{
			Intact:       result.Intact,
			BrokenAt:     result.BrokenAt,
			LatestHash:   result.LatestHash,
			GenesisHash:  result.GenesisHash,
			TotalChecked: result.TotalChecked,
		})
	}
}
