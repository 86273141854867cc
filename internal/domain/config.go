package domain

// Config mirrors ~/.insightminer/config.yaml.
type Config struct {
	ConfigFormatVersion string             `yaml:"config_format_version"`
	Planner             PlannerSettings    `yaml:"planner"`
	Generation          GenerationSettings `yaml:"generation"`
	Registry            RegistrySettings   `yaml:"registry"`
	Warehouse           WarehouseSettings  `yaml:"warehouse"`
	History             HistorySettings    `yaml:"history"`
	Server              ServerSettings     `yaml:"server"`
}

// PlannerSettings captures planning defaults.
type PlannerSettings struct {
	Mode         string `yaml:"mode"`
	DefaultStart string `yaml:"default_start"`
	DefaultEnd   string `yaml:"default_end"`
}

// RegistrySettings locates the KPI registry. An empty path selects the embedded catalog.
type RegistrySettings struct {
	Path string `yaml:"path"`
}

// WarehouseSettings locates the SQLite warehouse used by the syntax probe.
type WarehouseSettings struct {
	Path string `yaml:"path"`
}

// HistorySettings controls plan history persistence.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}
