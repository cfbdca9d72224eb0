package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/anchor-autopilot/internal/store"
	"github.com/web3-frozen/anchor-autopilot/internal/txlog"
)

// History reads the archive.
type History interface {
	RecentAPY(ctx context.Context, limit int) ([]store.APYSample, error)
	RecentTxLogs(ctx context.Context, key string, limit int) ([]txlog.TxLog, error)
}

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 500
)

func parseLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultHistoryLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxHistoryLimit {
		return 0, false
	}
	return n, true
}

func APYHistory(h History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := parseLimit(r)
		if !ok {
			http.Error(w, `{"error":"limit must be between 1 and 500"}`, http.StatusBadRequest)
			return
		}
		samples, err := h.RecentAPY(r.Context(), limit)
		if err != nil {
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if samples == nil {
			samples = []store.APYSample{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(samples)
	}
}

func TxHistory(h History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := parseLimit(r)
		if !ok {
			http.Error(w, `{"error":"limit must be between 1 and 500"}`, http.StatusBadRequest)
			return
		}
		action, err := txlog.ParseAction(chi.URLParam(r, "action"))
		if err != nil {
			http.Error(w, `{"error":"unknown action"}`, http.StatusNotFound)
			return
		}
		logs, err := h.RecentTxLogs(r.Context(), "anchor_protocol_txs_"+action.String(), limit)
		if err != nil {
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		if logs == nil {
			logs = []txlog.TxLog{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(logs)
	}
}
