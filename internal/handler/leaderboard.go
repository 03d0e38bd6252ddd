package handler

import (
	"net/http"

	"nof0-arena/internal/svc"
	"nof0-arena/internal/types"
	"nof0-arena/pkg/leaderboard"
)

// leaderboardHandler handles GET /leaderboard?limit=&sortBy=.
// Agents rank by composite score by default, matching spec.md §6.
func leaderboardHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r, 20, 200)
		if err != nil {
			writeError(w, err)
			return
		}
		sortKey := leaderboard.SortByComposite
		switch r.URL.Query().Get("sortBy") {
		case "pnl":
			sortKey = leaderboard.SortByPnl
		case "win_rate":
			sortKey = leaderboard.SortByWinRate
		case "sharpe":
			sortKey = leaderboard.SortBySharpe
		}
		aggregates := svcCtx.Leaderboard.Query(sortKey, limit)
		entries := make([]types.LeaderboardEntry, 0, len(aggregates))
		for _, agg := range aggregates {
			entries = append(entries, types.ToLeaderboardEntry(agg))
		}
		writeJSON(w, http.StatusOK, types.LeaderboardResponse{Agents: entries})
	}
}
