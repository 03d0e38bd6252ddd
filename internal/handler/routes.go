// Package handler wires the HTTP surface (spec.md §6) onto a go-zero
// rest.Server. There is no goctl-generated scaffold to extend here — the
// route table below is hand-authored against the same rest.Server boot
// shape the teacher's service uses, since the corpus has no reference
// for this pinned go-zero version's httpx request/response helpers;
// request parsing and response encoding go through plain encoding/json
// instead.
package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"nof0-arena/internal/svc"
)

// RegisterHandlers mounts every spec.md §6 route onto server.
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	server.AddRoutes([]rest.Route{
		{
			Method:  http.MethodPost,
			Path:    "/trigger-round/trigger",
			Handler: triggerRoundHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/trigger-round/status",
			Handler: roundStatusHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/trigger-round/history",
			Handler: roundHistoryHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/trade-stream/live",
			Handler: streamLiveHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/trade-stream/events",
			Handler: streamEventsHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/ledger/query",
			Handler: ledgerQueryHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/ledger/verify",
			Handler: ledgerVerifyHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/leaderboard",
			Handler: leaderboardHandler(svcCtx),
		},
	})
}
