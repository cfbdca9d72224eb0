package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/anchor-autopilot/internal/cache"
)

type entryView struct {
	Key       string      `json:"key"`
	State     cache.State `json:"state"`
	Value     any         `json:"value,omitempty"`
	Error     string      `json:"error,omitempty"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

func viewOf(e cache.Entry) entryView {
	v := entryView{Key: e.Key, State: e.State, Value: e.Value}
	if e.Err != nil {
		v.Error = e.Err.Error()
	}
	if e.HasResult {
		t := e.UpdatedAt
		v.UpdatedAt = &t
	}
	return v
}

// Entries lists every cache entry, sorted by key.
func Entries(c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := c.Snapshot()
		views := make([]entryView, 0, len(snapshot))
		for _, e := range snapshot {
			views = append(views, viewOf(e))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	}
}

// Entry returns one cache entry. Keys containing slashes or question marks
// must be path-escaped by the client.
func Entry(c *cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// chi routes on RawPath when it is set, leaving the segment escaped.
		key, err := url.PathUnescape(chi.URLParam(r, "key"))
		if err != nil {
			http.Error(w, `{"error":"invalid key"}`, http.StatusBadRequest)
			return
		}
		e, ok := c.Read(key)
		if !ok {
			http.Error(w, `{"error":"unknown key"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(viewOf(e))
	}
}
