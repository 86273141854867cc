// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// The planning core depends only on these abstractions. Concrete adapters for
// text generation, SQL probing, history storage and configuration live in the
// infrastructure layer and are wired together by the app container.
package ports

import (
	"context"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.insightminer/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Generator is the opaque text-generation capability used by the generative planner.
// Implementations return domain.ErrGeneratorUnavailable when no credential or
// provider is configured.
type Generator interface {
	Name() string
	Generate(context.Context, domain.GenerationRequest) (string, error)
}

// GeneratorFactory builds a Generator from configuration.
type GeneratorFactory interface {
	ForSettings(context.Context, domain.GenerationSettings) (Generator, error)
}

// SQLValidator decides whether a statement is safe to run against the warehouse.
// Validate must be pure: identical input yields an identical outcome.
type SQLValidator interface {
	Validate(sql string) domain.ValidationOutcome
}

// SyntaxProbe asks the query engine to plan a statement without executing it.
// The date bounds are bound to the :start and :end placeholders.
type SyntaxProbe interface {
	Probe(ctx context.Context, sql, start, end string) error
}

// SchemaCatalog lists the allowlisted tables and columns in catalog order.
type SchemaCatalog interface {
	Tables() []string
	Columns(table string) []string
}

// KPICatalog is the read-only KPI registry consumed by the planners.
type KPICatalog interface {
	KPIs() []domain.KPIDef
	Dimensions() []domain.DimensionDef
	KPI(key string) (domain.KPIDef, bool)
	FindKPI(question string) domain.KPIDef
	FindDimension(question string, explicit []string, kpi domain.KPIDef) (domain.DimensionDef, bool)
	// SQL returns the rendered template for a KPI and an allowed dimension ("" for none).
	SQL(kpiKey, dimension string) (string, bool)
}

// WarehouseInspector reports the live warehouse schema.
type WarehouseInspector interface {
	Describe(ctx context.Context) (map[string][]string, error)
	Close() error
}

// Planner turns a normalized request into a plan.
type Planner interface {
	Plan(context.Context, domain.PlanRequest) domain.PlanResult
}

// HistoryRepository persists planning decisions.
type HistoryRepository interface {
	Save(context.Context, domain.PlanRecord) error
	List(ctx context.Context, limit int) ([]domain.PlanRecord, error)
	Search(ctx context.Context, term string, limit int) ([]domain.PlanRecord, error)
	Stats(context.Context) (domain.HistoryStats, error)
	Clear(context.Context) error
}

// PlanRecorder observes completed plans (metrics, audit).
type PlanRecorder interface {
	ObservePlan(result domain.PlanResult, durationSeconds float64)
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
