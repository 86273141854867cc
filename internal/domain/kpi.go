package domain

import "strings"

// Unit describes how a KPI value is measured. The set is open; registries may use other values.
type Unit string

const (
	UnitCurrency Unit = "currency"
	UnitPercent  Unit = "percent"
	UnitCount    Unit = "count"
	UnitDuration Unit = "duration"
	UnitUnitless Unit = "unitless"
)

// DimensionDef is a categorical column a KPI result may be grouped by.
type DimensionDef struct {
	Name     string   `yaml:"name" json:"name"`
	Column   string   `yaml:"column" json:"column"`
	Alias    string   `yaml:"alias" json:"alias"`
	Synonyms []string `yaml:"synonyms" json:"synonyms,omitempty"`
}

// Table returns the table part of the qualified source column.
func (d DimensionDef) Table() string {
	table, _, _ := strings.Cut(d.Column, ".")
	return table
}

// KPIDef is a named business metric with a canonical SQL template.
//
// SQL is a text/template with two slots, {{.DimensionSelect}} and {{.DimensionGroup}},
// filled by the registry planner. Templates project period and value as their first
// two columns.
type KPIDef struct {
	Key             string   `yaml:"key" json:"key"`
	Name            string   `yaml:"name" json:"name"`
	Description     string   `yaml:"description" json:"description,omitempty"`
	Unit            Unit     `yaml:"unit" json:"unit"`
	SQL             string   `yaml:"sql" json:"-"`
	Synonyms        []string `yaml:"synonyms" json:"synonyms,omitempty"`
	AllowDimensions []string `yaml:"allow_dimensions" json:"allow_dimensions,omitempty"`
}

// Allows reports whether the KPI may be grouped by the named dimension.
func (k KPIDef) Allows(dimension string) bool {
	for _, name := range k.AllowDimensions {
		if name == dimension {
			return true
		}
	}
	return false
}

// DimensionSlots are the two named substitution points of a KPI template.
type DimensionSlots struct {
	DimensionSelect string
	DimensionGroup  string
}
