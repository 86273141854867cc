// Package doctor runs environment diagnostics for the planning pipeline.
package doctor

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	appconfig "github.com/Sahithiv25/InsightMiner/internal/application/config"
	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Schema         ports.SchemaCatalog
	// LoadRegistry loads the KPI catalog the config points at.
	LoadRegistry func(domain.Config) (ports.KPICatalog, error)
	// OpenWarehouse connects to the warehouse file for schema inspection.
	OpenWarehouse func(path string) (ports.WarehouseInspector, error)
	Getenv        func(string) string
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	if err := appconfig.Validate(cfg); err != nil {
		checks = append(checks, fail("Config file", err.Error()))
	} else {
		checks = append(checks, ok("Config file", fmt.Sprintf("format %s, mode %s", cfg.ConfigFormatVersion, cfg.PlannerMode())))
	}

	checks = append(checks, s.registryCheck(cfg))
	checks = append(checks, s.warehouseCheck(ctx, cfg.Warehouse.Path))
	checks = append(checks, s.generatorCheck(cfg))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) registryCheck(cfg domain.Config) domain.HealthCheck {
	if s.LoadRegistry == nil {
		return warn("KPI registry", "loader not initialized")
	}
	catalog, err := s.LoadRegistry(cfg)
	if err != nil {
		return fail("KPI registry", err.Error())
	}
	source := "embedded"
	if cfg.Registry.Path != "" {
		source = cfg.Registry.Path
	}
	return ok("KPI registry", fmt.Sprintf("%d KPIs, %d dimensions (%s)", len(catalog.KPIs()), len(catalog.Dimensions()), source))
}

// warehouseCheck verifies every allowlisted table and column exists in the warehouse.
func (s *Service) warehouseCheck(ctx context.Context, path string) domain.HealthCheck {
	const name = "Warehouse"
	if path == "" {
		return warn(name, "no warehouse configured; generated plans fall back to the registry")
	}
	if _, err := os.Stat(path); err != nil {
		return warn(name, fmt.Sprintf("%s not found; generated plans fall back to the registry", path))
	}
	if s.OpenWarehouse == nil || s.Schema == nil {
		return warn(name, "inspector not initialized")
	}
	inspector, err := s.OpenWarehouse(path)
	if err != nil {
		return fail(name, err.Error())
	}
	defer inspector.Close()

	live, err := inspector.Describe(ctx)
	if err != nil {
		return fail(name, fmt.Sprintf("describe failed: %v", err))
	}
	if missing := drift(s.Schema, live); len(missing) > 0 {
		return fail(name, "allowlist names objects missing from warehouse: "+strings.Join(missing, ", "))
	}
	return ok(name, fmt.Sprintf("%s matches allowlist (%d tables)", path, len(s.Schema.Tables())))
}

func (s *Service) generatorCheck(cfg domain.Config) domain.HealthCheck {
	const name = "Text generation"
	if !cfg.GenerationEnabled() {
		return warn(name, "provider none; registry planner only")
	}
	envVar := cfg.CredentialEnvVar()
	if envVar == "" {
		return ok(name, fmt.Sprintf("%s needs no credential", cfg.Generation.Provider))
	}
	if strings.TrimSpace(s.getenv(envVar)) == "" {
		return warn(name, fmt.Sprintf("%s missing; plans will fall back to the registry", envVar))
	}
	return ok(name, fmt.Sprintf("%s credential found in %s", cfg.Generation.Provider, envVar))
}

func (s *Service) getenv(key string) string {
	if s.Getenv != nil {
		return s.Getenv(key)
	}
	return os.Getenv(key)
}

func drift(schema ports.SchemaCatalog, live map[string][]string) []string {
	var missing []string
	for _, table := range schema.Tables() {
		cols, found := live[table]
		if !found {
			missing = append(missing, table)
			continue
		}
		have := make(map[string]bool, len(cols))
		for _, col := range cols {
			have[strings.ToLower(col)] = true
		}
		for _, col := range schema.Columns(table) {
			if !have[col] {
				missing = append(missing, table+"."+col)
			}
		}
	}
	sort.Strings(missing)
	return missing
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
