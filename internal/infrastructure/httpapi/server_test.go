package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sahithiv25/InsightMiner/internal/application/planner"
	"github.com/Sahithiv25/InsightMiner/internal/application/query"
	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/metrics"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/registry"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/security"
	"github.com/Sahithiv25/InsightMiner/internal/pkg/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	guardrail := security.NewGuardrail(nil)
	reg, err := registry.LoadDefault(guardrail)
	if err != nil {
		t.Fatalf("LoadDefault: %v", err)
	}
	log := logger.New(io.Discard, false)
	rec := metrics.New()
	svc := &query.Service{
		Registry: planner.NewRegistryPlanner(reg),
		Recorder: rec,
		Logger:   log,
		NewID:    func() string { return "plan-1" },
	}
	srv := &Server{Planner: svc, Validator: guardrail, Catalog: reg, Metrics: rec, Logger: log}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPlanEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/plan", planRequest{Question: "revenue by region", Start: "2024-01-01", End: "2024-06-30"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get(HeaderPlanner); got != "registry" {
		t.Fatalf("%s = %q", HeaderPlanner, got)
	}
	if got := resp.Header.Get(HeaderPlanID); got != "plan-1" {
		t.Fatalf("%s = %q", HeaderPlanID, got)
	}
	var result domain.PlanResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Meta.KPI != "revenue_net" || result.Meta.Dimension != "region" {
		t.Fatalf("unexpected meta: %+v", result.Meta)
	}
	if result.Meta.Start != "2024-01-01" || result.Meta.End != "2024-06-30" {
		t.Fatalf("window not echoed: %+v", result.Meta)
	}
	if !strings.Contains(result.SQL, ":start") {
		t.Fatalf("placeholders missing from SQL:\n%s", result.SQL)
	}
}

func TestPlanEndpointRejectsBadInput(t *testing.T) {
	ts := newTestServer(t)
	cases := map[string]interface{}{
		"bad window":    planRequest{Question: "churn", Start: "2024-05-01", End: "2024-01-01"},
		"bad mode":      planRequest{Question: "churn", Mode: "magic"},
		"unknown field": map[string]string{"prompt": "churn"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := post(t, ts.URL+"/plan", body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", resp.StatusCode)
			}
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	ts := newTestServer(t)
	resp := post(t, ts.URL+"/validate", validateRequest{SQL: "DELETE FROM accounts"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var outcome domain.ValidationOutcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if outcome.Accepted || outcome.Reason != domain.ReasonNotReadOnly {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestCatalogHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/kpis")
	if err != nil {
		t.Fatalf("GET /kpis: %v", err)
	}
	defer resp.Body.Close()
	var catalog struct {
		KPIs []domain.KPIDef `json:"kpis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(catalog.KPIs) == 0 || catalog.KPIs[0].Key != "revenue_net" {
		t.Fatalf("unexpected catalog: %+v", catalog.KPIs)
	}

	health, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", health.StatusCode)
	}

	post(t, ts.URL+"/plan", planRequest{Question: "churn rate"})
	m, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer m.Body.Close()
	raw, _ := io.ReadAll(m.Body)
	if !strings.Contains(string(raw), `insightminer_plans_total{kpi="churn_rate",planner="registry"} 1`) {
		t.Fatalf("plan counter missing:\n%s", raw)
	}
}
