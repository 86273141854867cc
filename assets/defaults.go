package assets

import (
	_ "embed"
)

// DefaultConfigYAML contains the embedded default configuration.
//
//go:embed defaults/config.yaml
var DefaultConfigYAML []byte

// DefaultRegistryYAML contains the embedded RavenStack KPI registry.
//
//go:embed defaults/kpis.yaml
var DefaultRegistryYAML []byte
