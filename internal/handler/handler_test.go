package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/web3-frozen/anchor-autopilot/internal/cache"
	"github.com/web3-frozen/anchor-autopilot/internal/config"
	"github.com/web3-frozen/anchor-autopilot/internal/requirement"
	"github.com/web3-frozen/anchor-autopilot/internal/scheduler"
	"github.com/web3-frozen/anchor-autopilot/internal/store"
	"github.com/web3-frozen/anchor-autopilot/internal/txlog"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		deps       []Pinger
		wantStatus int
	}{
		{"no deps", nil, http.StatusOK},
		{"healthy", []Pinger{pinger{}}, http.StatusOK},
		{"one down", []Pinger{pinger{}, pinger{errors.New("down")}}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Ready(tt.deps...).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func newTestCache() *cache.Cache {
	c := cache.New(clockwork.NewFakeClock())
	c.BeginFetch("tax_rate")
	c.Complete("tax_rate", "0.002", nil)
	c.BeginFetch("earn_apy")
	c.Complete("earn_apy", nil, txlog.ErrTimeout)
	c.BeginFetch("staker")
	return c
}

func TestEntries(t *testing.T) {
	rec := httptest.NewRecorder()
	Entries(newTestCache()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entries", nil))

	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v; body = %s", err, rec.Body.String())
	}
	if len(got) != 3 {
		t.Fatalf("entries = %d, want 3", len(got))
	}
	want := []struct{ key, state string }{
		{"earn_apy", "resolved"},
		{"staker", "pending"},
		{"tax_rate", "resolved"},
	}
	for i, w := range want {
		if got[i]["key"] != w.key || got[i]["state"] != w.state {
			t.Errorf("entry[%d] = %v, want %s %s", i, got[i], w.key, w.state)
		}
	}
	if got[0]["error"] != txlog.ErrTimeout.Error() {
		t.Errorf("earn_apy error = %v", got[0]["error"])
	}
	if got[2]["value"] != "0.002" {
		t.Errorf("tax_rate value = %v", got[2]["value"])
	}
}

func TestEntry(t *testing.T) {
	c := newTestCache()
	for _, key := range []string{
		"api/v2/distribution-apy",
		"api/v2/gov-reward",
		"api/data?type=lpVault",
		"state anchorprotocol mmMarket",
	} {
		c.BeginFetch(key)
		c.Complete(key, "value of "+key, nil)
	}
	r := chi.NewRouter()
	r.Get("/api/entries/{key}", Entry(c))

	tests := []struct {
		path       string
		wantStatus int
		wantKey    string
	}{
		{"/api/entries/tax_rate", http.StatusOK, "tax_rate"},
		{"/api/entries/" + url.PathEscape("api/v2/distribution-apy"), http.StatusOK, "api/v2/distribution-apy"},
		{"/api/entries/" + url.PathEscape("api/v2/gov-reward"), http.StatusOK, "api/v2/gov-reward"},
		{"/api/entries/" + url.PathEscape("api/data?type=lpVault"), http.StatusOK, "api/data?type=lpVault"},
		{"/api/entries/" + url.PathEscape("state anchorprotocol mmMarket"), http.StatusOK, "state anchorprotocol mmMarket"},
		{"/api/entries/" + url.PathEscape("core_swap uusd usdr"), http.StatusNotFound, ""},
		{"/api/entries/nope", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.wantStatus {
			t.Errorf("GET %s status = %d, want %d", tt.path, rec.Code, tt.wantStatus)
			continue
		}
		if tt.wantKey == "" {
			continue
		}
		var got map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode %s: %v", tt.path, err)
		}
		if got["key"] != tt.wantKey || got["value"] == nil {
			t.Errorf("GET %s = %v, want %s", tt.path, got, tt.wantKey)
		}
	}
}

func TestEntryMalformedEscape(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/entries/x", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("key", "bad%2")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	Entry(newTestCache()).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

type fakeScheduler struct {
	settings config.Settings
	updated  bool
}

func (f *fakeScheduler) Settings() config.Settings { return f.settings }

func (f *fakeScheduler) ApplySettings(apply func(config.Settings) (config.Settings, error)) (config.Settings, error) {
	next, err := apply(f.settings)
	if err != nil {
		return config.Settings{}, err
	}
	f.settings = next
	f.updated = true
	return next, nil
}

func (f *fakeScheduler) Active() []requirement.Entry {
	return requirement.Select(requirement.Catalog(), f.settings.Flags.Tags())
}

func defaultSettings() config.Settings {
	return config.Settings{
		Flags:             requirement.Flags{MarketInfo: true},
		TriggerPercentage: decimal.RequireFromString("0.85"),
		TargetPercentage:  decimal.RequireFromString("0.72"),
		BorrowPercentage:  decimal.RequireFromString("0.5"),
		MaxTxFee:          decimal.NewFromInt(5),
	}
}

func TestRequirements(t *testing.T) {
	s := &fakeScheduler{settings: defaultSettings()}
	rec := httptest.NewRecorder()
	Requirements(s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/requirements", nil))

	var got []requirementView
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(s.Active()) || len(got) == 0 {
		t.Fatalf("requirements = %d, want %d", len(got), len(s.Active()))
	}
	if got[0].IntervalSeconds <= 0 {
		t.Errorf("interval_seconds = %d, want positive", got[0].IntervalSeconds)
	}
}

func TestUpdateSettings(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantUpdated bool
	}{
		{"invalid JSON", `{invalid`, http.StatusBadRequest, false},
		{"negative fee", `{"max_tx_fee":"-1"}`, http.StatusBadRequest, false},
		{"trigger above one", `{"trigger_percentage":"1.5"}`, http.StatusBadRequest, false},
		{"target above trigger", `{"target_percentage":"0.9"}`, http.StatusBadRequest, false},
		{"flags only", `{"flags":{"auto_repay":true}}`, http.StatusOK, true},
		{"parameter", `{"max_tx_fee":"2.5"}`, http.StatusOK, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &fakeScheduler{settings: defaultSettings()}
			req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			UpdateSettings(s).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if s.updated != tt.wantUpdated {
				t.Errorf("updated = %v, want %v", s.updated, tt.wantUpdated)
			}
		})
	}
}

func TestUpdateSettingsKeepsOmittedFields(t *testing.T) {
	s := &fakeScheduler{settings: defaultSettings()}
	req := httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(`{"flags":{"auto_repay":true}}`))
	UpdateSettings(s).ServeHTTP(httptest.NewRecorder(), req)

	if !s.settings.Flags.AutoRepay {
		t.Error("auto_repay not applied")
	}
	if !s.settings.TriggerPercentage.Equal(decimal.RequireFromString("0.85")) {
		t.Errorf("trigger_percentage = %s, want 0.85", s.settings.TriggerPercentage)
	}
	if !s.settings.MaxTxFee.Equal(decimal.NewFromInt(5)) {
		t.Errorf("max_tx_fee = %s, want 5", s.settings.MaxTxFee)
	}
}

func TestUpdateSettingsConcurrentPuts(t *testing.T) {
	engine := scheduler.NewEngine(cache.New(clockwork.NewFakeClock()), nil,
		config.NewLive(defaultSettings()), slog.Default())
	h := UpdateSettings(engine)

	bodies := []string{
		`{"flags":{"auto_repay":true}}`,
		`{"flags":{"auto_borrow":true}}`,
		`{"max_tx_fee":"2.5"}`,
		`{"min_ust_balance":"15"}`,
	}
	var wg sync.WaitGroup
	for _, body := range bodies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/settings", strings.NewReader(body)))
			if rec.Code != http.StatusOK {
				t.Errorf("PUT %s status = %d", body, rec.Code)
			}
		}()
	}
	wg.Wait()

	got := engine.Settings()
	if !got.Flags.AutoRepay || !got.Flags.AutoBorrow || !got.Flags.MarketInfo {
		t.Errorf("flags = %+v, want market_info, auto_repay and auto_borrow", got.Flags)
	}
	if !got.MaxTxFee.Equal(decimal.RequireFromString("2.5")) || !got.MinUstBalance.Equal(decimal.NewFromInt(15)) {
		t.Errorf("max_tx_fee = %s, min_ust_balance = %s", got.MaxTxFee, got.MinUstBalance)
	}
	want := requirement.Select(requirement.Catalog(), got.Flags.Tags())
	if len(engine.Active()) != len(want) {
		t.Errorf("active = %d, want %d", len(engine.Active()), len(want))
	}
}

type fakeHistory struct {
	key   string
	limit int
	err   error
}

func (f *fakeHistory) RecentAPY(_ context.Context, limit int) ([]store.APYSample, error) {
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []store.APYSample{{Height: 7, APY: decimal.RequireFromString("0.19"), SampledAt: time.Unix(0, 0)}}, nil
}

func (f *fakeHistory) RecentTxLogs(_ context.Context, key string, limit int) ([]txlog.TxLog, error) {
	f.key, f.limit = key, limit
	return nil, f.err
}

func TestAPYHistoryLimit(t *testing.T) {
	tests := []struct {
		query      string
		wantStatus int
		wantLimit  int
	}{
		{"", http.StatusOK, 30},
		{"?limit=5", http.StatusOK, 5},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=501", http.StatusBadRequest, 0},
		{"?limit=x", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		h := &fakeHistory{}
		rec := httptest.NewRecorder()
		APYHistory(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/apy"+tt.query, nil))
		if rec.Code != tt.wantStatus {
			t.Errorf("%q status = %d, want %d", tt.query, rec.Code, tt.wantStatus)
		}
		if h.limit != tt.wantLimit {
			t.Errorf("%q limit = %d, want %d", tt.query, h.limit, tt.wantLimit)
		}
	}
}

func TestAPYHistoryStoreError(t *testing.T) {
	rec := httptest.NewRecorder()
	APYHistory(&fakeHistory{err: errors.New("db down")}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/apy", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestTxHistory(t *testing.T) {
	h := &fakeHistory{}
	r := chi.NewRouter()
	r.Get("/api/history/txs/{action}", TxHistory(h))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/txs/claim_rewards?limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if h.key != "anchor_protocol_txs_claim_rewards" || h.limit != 10 {
		t.Errorf("query = %q/%d", h.key, h.limit)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %s, want []", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history/txs/swap", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown action status = %d, want 404", rec.Code)
	}
}
