package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/web3-frozen/anchor-autopilot/internal/config"
	"github.com/web3-frozen/anchor-autopilot/internal/requirement"
)

// Scheduler is the part of the scheduling engine the API exposes.
type Scheduler interface {
	Settings() config.Settings
	ApplySettings(apply func(config.Settings) (config.Settings, error)) (config.Settings, error)
	Active() []requirement.Entry
}

type requirementView struct {
	Key             string            `json:"key"`
	IntervalSeconds int64             `json:"interval_seconds"`
	DependsOn       []requirement.Tag `json:"depends_on"`
}

// Requirements lists the active requirement keys in scheduling order.
func Requirements(s Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active := s.Active()
		views := make([]requirementView, 0, len(active))
		for _, e := range active {
			views = append(views, requirementView{
				Key:             e.Key,
				IntervalSeconds: int64(e.Interval.Seconds()),
				DependsOn:       e.DependsOn,
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	}
}

func GetSettings(s Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.Settings())
	}
}

const maxSettingsBody = 64 << 10

// UpdateSettings applies a partial settings document: fields missing from
// the body keep their current values.
func UpdateSettings(s Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSettingsBody))
		if err != nil {
			http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
			return
		}

		next, err := s.ApplySettings(func(current config.Settings) (config.Settings, error) {
			if err := json.Unmarshal(body, &current); err != nil {
				return current, errors.New("invalid JSON")
			}
			if msg := validateSettings(current); msg != "" {
				return current, errors.New(msg)
			}
			return current, nil
		})
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(next)
	}
}

func validateSettings(s config.Settings) string {
	one := decimal.NewFromInt(1)
	for _, k := range config.ParameterKeys() {
		v, _ := s.Parameter(k)
		if v.IsNegative() {
			return k + " must not be negative"
		}
	}
	for _, p := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"trigger_percentage", s.TriggerPercentage},
		{"target_percentage", s.TargetPercentage},
		{"borrow_percentage", s.BorrowPercentage},
	} {
		if p.v.GreaterThan(one) {
			return p.name + " must be at most 1"
		}
	}
	if s.TargetPercentage.GreaterThan(s.TriggerPercentage) {
		return "target_percentage must not exceed trigger_percentage"
	}
	return ""
}
