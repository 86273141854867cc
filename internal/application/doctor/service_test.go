package doctor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

type stubConfig struct {
	cfg domain.Config
	err error
}

func (s stubConfig) Load(context.Context) (domain.Config, error) { return s.cfg, s.err }

type stubSchema map[string][]string

func (s stubSchema) Tables() []string {
	var out []string
	for table := range s {
		out = append(out, table)
	}
	return out
}

func (s stubSchema) Columns(table string) []string { return s[table] }

type stubCatalog struct {
	ports.KPICatalog
	kpis int
}

func (s stubCatalog) KPIs() []domain.KPIDef { return make([]domain.KPIDef, s.kpis) }
func (s stubCatalog) Dimensions() []domain.DimensionDef { return nil }

type stubInspector struct {
	live   map[string][]string
	closed bool
}

func (s *stubInspector) Describe(context.Context) (map[string][]string, error) { return s.live, nil }
func (s *stubInspector) Close() error {
	s.closed = true
	return nil
}

func baseConfig(t *testing.T) domain.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "warehouse.db")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("write warehouse: %v", err)
	}
	return domain.Config{
		ConfigFormatVersion: "1",
		Planner:             domain.PlannerSettings{Mode: "auto", DefaultStart: "2024-01-01", DefaultEnd: "2024-12-31"},
		Generation:          domain.GenerationSettings{Provider: domain.ProviderKindAnthropic},
		Warehouse:           domain.WarehouseSettings{Path: path},
	}
}

func newService(cfg domain.Config, inspector *stubInspector, env map[string]string) *Service {
	return &Service{
		ConfigProvider: stubConfig{cfg: cfg},
		Schema:         stubSchema{"accounts": {"account_id", "country"}},
		LoadRegistry: func(domain.Config) (ports.KPICatalog, error) {
			return stubCatalog{kpis: 6}, nil
		},
		OpenWarehouse: func(string) (ports.WarehouseInspector, error) { return inspector, nil },
		Getenv:        func(key string) string { return env[key] },
	}
}

func statusOf(t *testing.T, report domain.HealthReport, name string) domain.HealthCheck {
	t.Helper()
	for _, check := range report.Checks {
		if check.Name == name {
			return check
		}
	}
	t.Fatalf("check %q missing from %+v", name, report.Checks)
	return domain.HealthCheck{}
}

func TestDoctorHealthy(t *testing.T) {
	inspector := &stubInspector{live: map[string][]string{"accounts": {"account_id", "country", "extra"}}}
	svc := newService(baseConfig(t), inspector, map[string]string{"ANTHROPIC_API_KEY": "k"})

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Healthy() {
		t.Fatalf("expected healthy report: %+v", report.Checks)
	}
	for _, name := range []string{"Config file", "KPI registry", "Warehouse", "Text generation"} {
		if got := statusOf(t, report, name); got.Status != domain.HealthOK {
			t.Fatalf("%s = %+v", name, got)
		}
	}
	if !inspector.closed {
		t.Fatal("inspector not closed")
	}
}

func TestDoctorReportsAllowlistDrift(t *testing.T) {
	inspector := &stubInspector{live: map[string][]string{"accounts": {"account_id"}}}
	svc := newService(baseConfig(t), inspector, nil)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	check := statusOf(t, report, "Warehouse")
	if check.Status != domain.HealthError || !strings.Contains(check.Details, "accounts.country") {
		t.Fatalf("expected drift failure, got %+v", check)
	}
	if gen := statusOf(t, report, "Text generation"); gen.Status != domain.HealthWarn {
		t.Fatalf("missing credential should warn, got %+v", gen)
	}
}

func TestDoctorWarnsWithoutWarehouse(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Warehouse.Path = ""
	cfg.Generation.Provider = domain.ProviderKindNone
	report, err := newService(cfg, &stubInspector{}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.Healthy() {
		t.Fatalf("warnings must not fail the report: %+v", report.Checks)
	}
	if check := statusOf(t, report, "Warehouse"); check.Status != domain.HealthWarn {
		t.Fatalf("Warehouse = %+v", check)
	}
}

func TestDoctorRegistryFailure(t *testing.T) {
	svc := newService(baseConfig(t), &stubInspector{}, nil)
	svc.LoadRegistry = func(domain.Config) (ports.KPICatalog, error) {
		return nil, domain.ErrRegistryLoad
	}
	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Healthy() {
		t.Fatal("registry failure should make the report unhealthy")
	}
}

func TestDoctorConfigLoadFailure(t *testing.T) {
	svc := &Service{ConfigProvider: stubConfig{err: errors.New("boom")}}
	report, err := svc.Run(context.Background())
	if err == nil || report.Healthy() {
		t.Fatalf("expected failure, got %+v, %v", report, err)
	}
}
