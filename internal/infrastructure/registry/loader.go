package registry

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/Sahithiv25/InsightMiner/assets"
	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// DefaultKPIKey is the primary metric when the registry file does not name one.
const DefaultKPIKey = "revenue_net"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type fileFormat struct {
	Version  int `yaml:"version"`
	Defaults struct {
		KPI string `yaml:"kpi"`
	} `yaml:"defaults"`
	TableAliases map[string]string     `yaml:"table_aliases"`
	Dimensions   []domain.DimensionDef `yaml:"dimensions"`
	KPIs         []domain.KPIDef       `yaml:"kpis"`
}

// LoadDefault loads the embedded RavenStack registry.
func LoadDefault(validator ports.SQLValidator) (*Registry, error) {
	return Load(assets.DefaultRegistryYAML, validator)
}

// LoadFile loads a registry from disk. An empty path selects the embedded registry.
func LoadFile(path string, validator ports.SQLValidator) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return LoadDefault(validator)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrRegistryLoad, path, err)
	}
	return Load(data, validator)
}

// Load parses and verifies a registry. Every failure wraps domain.ErrRegistryLoad.
//
// Each KPI template is rendered with no dimension and with every allowed dimension;
// each rendering must pass the validator.
func Load(data []byte, validator ports.SQLValidator) (*Registry, error) {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse: %v", domain.ErrRegistryLoad, err)
	}
	r, err := build(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistryLoad, err)
	}
	if err := r.render(validator); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistryLoad, err)
	}
	return r, nil
}

func build(raw fileFormat) (*Registry, error) {
	if len(raw.KPIs) == 0 {
		return nil, errors.New("no kpis declared")
	}
	r := &Registry{
		kpiIndex:   make(map[string]int, len(raw.KPIs)),
		dimIndex:   make(map[string]int, len(raw.Dimensions)),
		aliases:    make(map[string]string, len(raw.TableAliases)),
		defaultKPI: raw.Defaults.KPI,
		rendered:   make(map[string]map[string]string, len(raw.KPIs)),
	}
	if r.defaultKPI == "" {
		r.defaultKPI = DefaultKPIKey
	}

	for table, alias := range raw.TableAliases {
		if !identifierPattern.MatchString(table) || !identifierPattern.MatchString(alias) {
			return nil, fmt.Errorf("table alias %s -> %s is not a plain identifier", table, alias)
		}
		r.aliases[table] = alias
	}

	for _, dim := range raw.Dimensions {
		if dim.Alias == "" {
			dim.Alias = dim.Name
		}
		if err := checkDimension(dim, r.aliases); err != nil {
			return nil, err
		}
		if _, dup := r.dimIndex[dim.Name]; dup {
			return nil, fmt.Errorf("duplicate dimension %q", dim.Name)
		}
		r.dimIndex[dim.Name] = len(r.dimensions)
		r.dimensions = append(r.dimensions, dim)
		r.dimTerms = append(r.dimTerms, foldTerms([]string{dim.Name}, dim.Synonyms))
	}

	for _, kpi := range raw.KPIs {
		if strings.TrimSpace(kpi.Key) == "" {
			return nil, errors.New("kpi with empty key")
		}
		if _, dup := r.kpiIndex[kpi.Key]; dup {
			return nil, fmt.Errorf("duplicate kpi %q", kpi.Key)
		}
		if strings.TrimSpace(kpi.SQL) == "" {
			return nil, fmt.Errorf("kpi %q has no sql", kpi.Key)
		}
		if kpi.Name == "" {
			kpi.Name = kpi.Key
		}
		for _, name := range kpi.AllowDimensions {
			if _, ok := r.dimIndex[name]; !ok {
				return nil, fmt.Errorf("kpi %q allows unknown dimension %q", kpi.Key, name)
			}
		}
		r.kpiIndex[kpi.Key] = len(r.kpis)
		r.kpis = append(r.kpis, kpi)
		r.kpiTerms = append(r.kpiTerms, foldTerms([]string{kpi.Key, kpi.Name}, kpi.Synonyms))
	}

	if _, ok := r.kpiIndex[r.defaultKPI]; !ok {
		return nil, fmt.Errorf("default kpi %q is not declared", r.defaultKPI)
	}
	return r, nil
}

func checkDimension(dim domain.DimensionDef, aliases map[string]string) error {
	if dim.Name == "" {
		return errors.New("dimension with empty name")
	}
	if !identifierPattern.MatchString(dim.Alias) {
		return fmt.Errorf("dimension %q alias %q is not a plain identifier", dim.Name, dim.Alias)
	}
	table, column, ok := strings.Cut(dim.Column, ".")
	if !ok || !identifierPattern.MatchString(table) || !identifierPattern.MatchString(column) {
		return fmt.Errorf("dimension %q column %q must be table.column", dim.Name, dim.Column)
	}
	if _, ok := aliases[table]; !ok {
		return fmt.Errorf("dimension %q references table %q with no template alias", dim.Name, table)
	}
	return nil
}

func (r *Registry) render(validator ports.SQLValidator) error {
	for _, kpi := range r.kpis {
		tmpl, err := template.New(kpi.Key).Parse(kpi.SQL)
		if err != nil {
			return fmt.Errorf("kpi %q template: %v", kpi.Key, err)
		}
		byDim := make(map[string]string, len(kpi.AllowDimensions)+1)

		sql, err := renderSlots(tmpl, domain.DimensionSlots{})
		if err != nil {
			return fmt.Errorf("kpi %q template: %v", kpi.Key, err)
		}
		if err := check(validator, kpi.Key, "", sql); err != nil {
			return err
		}
		byDim[""] = sql

		for _, name := range kpi.AllowDimensions {
			dim := r.dimensions[r.dimIndex[name]]
			sql, err := renderSlots(tmpl, r.slotsFor(dim))
			if err != nil {
				return fmt.Errorf("kpi %q template with %s: %v", kpi.Key, name, err)
			}
			if err := check(validator, kpi.Key, name, sql); err != nil {
				return err
			}
			byDim[name] = sql
		}
		r.rendered[kpi.Key] = byDim
	}
	return nil
}

// slotsFor rewrites table.column to alias.column and groups by the third ordinal
// (period and value come first).
func (r *Registry) slotsFor(dim domain.DimensionDef) domain.DimensionSlots {
	table, column, _ := strings.Cut(dim.Column, ".")
	return domain.DimensionSlots{
		DimensionSelect: fmt.Sprintf(", %s.%s AS %s", r.aliases[table], column, dim.Alias),
		DimensionGroup:  ", 3",
	}
}

func renderSlots(tmpl *template.Template, slots domain.DimensionSlots) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, slots); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func check(validator ports.SQLValidator, kpi, dim, sql string) error {
	if validator == nil {
		return nil
	}
	outcome := validator.Validate(sql)
	if !outcome.Accepted {
		if dim == "" {
			return fmt.Errorf("kpi %q template rejected: %s", kpi, outcome)
		}
		return fmt.Errorf("kpi %q template with %s rejected: %s", kpi, dim, outcome)
	}
	if outcome.Unbounded {
		return fmt.Errorf("kpi %q template has no :start/:end bounds", kpi)
	}
	return nil
}

func foldTerms(names, synonyms []string) matchTerms {
	caser := cases.Fold()
	var t matchTerms
	for _, n := range names {
		t.names = append(t.names, caser.String(n))
	}
	for _, s := range synonyms {
		t.synonyms = append(t.synonyms, caser.String(s))
	}
	return t
}
