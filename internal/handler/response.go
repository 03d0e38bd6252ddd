package handler

import (
	"encoding/json"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"

	"nof0-arena/pkg/arenaerr"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logx.Errorf("handler: encode response: %v", err)
	}
}

// writeError renders err as the spec.md §6 error envelope
// {error, code, details?} with the status its taxonomy Kind maps to.
func writeError(w http.ResponseWriter, err error) {
	envelope, status := arenaerr.ToEnvelope(err)
	writeJSON(w, status, envelope)
}
