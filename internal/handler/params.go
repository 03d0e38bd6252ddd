package handler

import (
	"net/http"
	"strconv"
	"strings"

	"nof0-arena/pkg/arenaerr"
)

func parseLimit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, arenaerr.New(arenaerr.Validation, "invalid_limit", "limit must be a non-negative integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}

func parseOffset(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("offset")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, arenaerr.New(arenaerr.Validation, "invalid_offset", "offset must be a non-negative integer")
	}
	return n, nil
}

func parseFloatPtr(r *http.Request, key string) (*float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, arenaerr.New(arenaerr.Validation, "invalid_"+key, key+" must be a number")
	}
	return &v, nil
}

func parseIntPtr(r *http.Request, key string) (*int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, arenaerr.New(arenaerr.Validation, "invalid_"+key, key+" must be an integer")
	}
	return &v, nil
}

func parseBoolPtr(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, arenaerr.New(arenaerr.Validation, "invalid_"+key, key+" must be a boolean")
	}
	return &v, nil
}

func parseCSV(r *http.Request, key string) []string {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
