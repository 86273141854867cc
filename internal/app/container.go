// Package app wires application services with infrastructure adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	appconfig "github.com/Sahithiv25/InsightMiner/internal/application/config"
	"github.com/Sahithiv25/InsightMiner/internal/application/doctor"
	"github.com/Sahithiv25/InsightMiner/internal/application/planner"
	"github.com/Sahithiv25/InsightMiner/internal/application/query"
	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/ai"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/config"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/history"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/httpapi"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/metrics"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/registry"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/schema"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/security"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/warehouse"
	"github.com/Sahithiv25/InsightMiner/internal/pkg/logger"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
	"github.com/Sahithiv25/InsightMiner/internal/version"
)

// Options control how the container is built.
type Options struct {
	ConfigPath string
	Verbose    bool
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config        domain.Config
	ConfigLoader  *config.FileLoader
	Logger        *logger.SlogLogger
	Guardrail     *security.Guardrail
	Registry      *registry.Registry
	QueryService  *query.Service
	DoctorService *doctor.Service
	HistoryStore  ports.HistoryRepository
	Metrics       *metrics.Recorder

	closers []io.Closer
}

// BuildContainer constructs the dependency graph. A registry that fails to load is fatal.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := appconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgLoader.Path(), err)
	}

	log := logger.NewStd(opts.Verbose)
	allowlist := schema.Default()
	guardrail := security.NewGuardrail(allowlist)

	reg, err := registry.LoadFile(cfg.Registry.Path, guardrail)
	if err != nil {
		return nil, err
	}
	registryPlanner := planner.NewRegistryPlanner(reg)

	c := &Container{
		Config:       cfg,
		ConfigLoader: cfgLoader,
		Logger:       log,
		Guardrail:    guardrail,
		Registry:     reg,
		Metrics:      metrics.New(),
	}
	c.Metrics.SetBuildInfo(version.Version, version.Commit, version.BuildDate)

	generator, err := ai.NewFactory().ForSettings(ctx, cfg.Generation)
	if err != nil {
		return nil, err
	}
	generative := &planner.GenerativePlanner{
		Generator: generator,
		Validator: guardrail,
		Catalog:   reg,
		Schema:    allowlist,
		Fallback:  registryPlanner,
		Settings:  cfg.Generation,
		Logger:    log,
	}
	if probe := c.openProbe(cfg.Warehouse.Path); probe != nil {
		generative.Probe = probe
	}

	if cfg.History.Enabled {
		c.HistoryStore = history.Open(cfg.History.Path)
		if closer, ok := c.HistoryStore.(io.Closer); ok {
			c.closers = append(c.closers, closer)
		}
	}

	c.QueryService = &query.Service{
		Config:     cfg,
		Registry:   registryPlanner,
		Generative: generative,
		History:    c.HistoryStore,
		Recorder:   c.Metrics,
		Logger:     log,
	}

	c.DoctorService = &doctor.Service{
		ConfigProvider: cfgLoader,
		Schema:         allowlist,
		LoadRegistry: func(cfg domain.Config) (ports.KPICatalog, error) {
			return registry.LoadFile(cfg.Registry.Path, guardrail)
		},
		OpenWarehouse: func(path string) (ports.WarehouseInspector, error) {
			return warehouse.Open(path)
		},
	}
	return c, nil
}

// HTTPServer builds the HTTP surface over the container's services.
func (c *Container) HTTPServer() *httpapi.Server {
	return &httpapi.Server{
		Planner:        c.QueryService,
		Validator:      c.Guardrail,
		Catalog:        c.Registry,
		Metrics:        c.Metrics,
		Logger:         c.Logger,
		AllowedOrigins: c.Config.Server.AllowedOrigins,
	}
}

// Close releases database handles.
func (c *Container) Close() error {
	var errs []error
	for _, closer := range c.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}

// openProbe returns nil when no warehouse file is available; generated SQL is then
// accepted on validation alone.
func (c *Container) openProbe(path string) *warehouse.Probe {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		c.Logger.Debug("warehouse not found, generated plans will fall back", map[string]interface{}{"path": path})
		return nil
	}
	probe, err := warehouse.Open(path)
	if err != nil {
		c.Logger.Warn("warehouse open failed, generated plans will fall back", map[string]interface{}{"error": err.Error()})
		return nil
	}
	c.closers = append(c.closers, probe)
	return probe
}
