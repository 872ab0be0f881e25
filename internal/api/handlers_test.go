package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"market-alert-service/internal/batch"
	"market-alert-service/internal/config"
	"market-alert-service/internal/logging"
	"market-alert-service/internal/stats"
)

type mockTrigger struct {
	events []batch.TriggerEvent
	resp   batch.Response
}

func (m *mockTrigger) HandleTrigger(_ context.Context, event batch.TriggerEvent) batch.Response {
	m.events = append(m.events, event)
	resp := m.resp
	resp.Body.Frequency = event.Frequency
	return resp
}

func newTestRouter(trigger Trigger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	var cfg config.Config
	cfg.API.BasePath = "/api/v0"
	return NewRouter(logging.Nop(), cfg, NewHandler(trigger, logging.Nop()))
}

func TestTriggerRunOK(t *testing.T) {
	trigger := &mockTrigger{resp: batch.Response{
		StatusCode: http.StatusOK,
		Body:       batch.Result{Success: true, RunID: "r1", Statistics: &stats.Snapshot{TotalAlerts: 3, Errors: 1}},
	}}
	r := newTestRouter(trigger)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v0/runs/hourly_level", strings.NewReader(`{"source":"cron"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Success    bool            `json:"success"`
		RunID      string          `json:"runId"`
		Frequency  string          `json:"frequency"`
		Statistics *stats.Snapshot `json:"statistics"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !body.Success || body.RunID != "r1" || body.Frequency != "HOURLY_LEVEL" || body.Statistics.Errors != 1 {
		t.Fatalf("body = %+v", body)
	}
	if len(trigger.events) != 1 || trigger.events[0].Source != "cron" {
		t.Fatalf("events = %+v", trigger.events)
	}
}

func TestTriggerRunWithoutBody(t *testing.T) {
	trigger := &mockTrigger{resp: batch.Response{StatusCode: http.StatusOK, Body: batch.Result{Success: true}}}
	r := newTestRouter(trigger)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v0/runs/DAILY_LEVEL", nil))

	if w.Code != http.StatusOK || len(trigger.events) != 1 || trigger.events[0].Source != "http" {
		t.Fatalf("status = %d, events = %+v", w.Code, trigger.events)
	}
}

func TestTriggerRunListingFailure(t *testing.T) {
	trigger := &mockTrigger{resp: batch.Response{
		StatusCode: http.StatusInternalServerError,
		Body:       batch.Result{Success: false, Error: "listing failed"},
	}}
	r := newTestRouter(trigger)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v0/runs/MINUTE_LEVEL", nil))

	if w.Code != http.StatusInternalServerError || !strings.Contains(w.Body.String(), "listing failed") {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "statistics") {
		t.Fatalf("failed run must not carry statistics: %s", w.Body.String())
	}
}

func TestTriggerRunRejectsBadInput(t *testing.T) {
	trigger := &mockTrigger{}
	r := newTestRouter(trigger)

	for _, tc := range []struct {
		name string
		path string
		body string
	}{
		{"bad frequency", "/api/v0/runs/hourly-level", ""},
		{"bad body", "/api/v0/runs/HOURLY_LEVEL", "{not json"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, tc.path, strings.NewReader(tc.body)))
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", w.Code)
			}
		})
	}
	if len(trigger.events) != 0 {
		t.Fatalf("trigger called on bad input: %+v", trigger.events)
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(&mockTrigger{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}
