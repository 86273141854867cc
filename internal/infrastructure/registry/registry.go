// Package registry loads the KPI catalog and resolves questions against it.
//
// A Registry is immutable after Load and safe for concurrent use. Every
// (KPI, dimension) rendering is produced and validated at load time, so lookups
// at request time cannot fail.
package registry

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// Registry owns the KPI and dimension catalogs in declaration order.
type Registry struct {
	kpis       []domain.KPIDef
	kpiIndex   map[string]int
	dimensions []domain.DimensionDef
	dimIndex   map[string]int
	defaultKPI string
	aliases    map[string]string

	// folded match terms, parallel to kpis and dimensions
	kpiTerms []matchTerms
	dimTerms []matchTerms

	// rendered SQL keyed by KPI key, then dimension name ("" for none)
	rendered map[string]map[string]string
}

type matchTerms struct {
	names    []string
	synonyms []string
}

// KPIs returns the catalog in declaration order.
func (r *Registry) KPIs() []domain.KPIDef {
	return append([]domain.KPIDef(nil), r.kpis...)
}

// Dimensions returns the dimension catalog in declaration order.
func (r *Registry) Dimensions() []domain.DimensionDef {
	return append([]domain.DimensionDef(nil), r.dimensions...)
}

// KPI looks up a KPI by key.
func (r *Registry) KPI(key string) (domain.KPIDef, bool) {
	i, ok := r.kpiIndex[key]
	if !ok {
		return domain.KPIDef{}, false
	}
	return r.kpis[i], true
}

// Dimension looks up a dimension by name.
func (r *Registry) Dimension(name string) (domain.DimensionDef, bool) {
	i, ok := r.dimIndex[name]
	if !ok {
		return domain.DimensionDef{}, false
	}
	return r.dimensions[i], true
}

// DefaultKPI returns the primary metric used when nothing in a question matches.
func (r *Registry) DefaultKPI() domain.KPIDef {
	return r.kpis[r.kpiIndex[r.defaultKPI]]
}

// TableAlias returns the short alias registry templates use for a table.
func (r *Registry) TableAlias(table string) (string, bool) {
	alias, ok := r.aliases[table]
	return alias, ok
}

// FindKPI resolves a question to a KPI: key or display name first, then synonyms,
// then the default KPI. Terms match whole words only. Catalog order breaks ties.
func (r *Registry) FindKPI(question string) domain.KPIDef {
	q := fold(question)
	for i, terms := range r.kpiTerms {
		if containsAny(q, terms.names) {
			return r.kpis[i]
		}
	}
	for i, terms := range r.kpiTerms {
		if containsAny(q, terms.synonyms) {
			return r.kpis[i]
		}
	}
	return r.DefaultKPI()
}

// FindDimension resolves the grouping dimension for a KPI. The first explicit name
// wins when it is known and allowed; otherwise the first catalog dimension named in
// the question and allowed for the KPI.
func (r *Registry) FindDimension(question string, explicit []string, kpi domain.KPIDef) (domain.DimensionDef, bool) {
	if len(explicit) > 0 {
		if dim, ok := r.Dimension(explicit[0]); ok && kpi.Allows(dim.Name) {
			return dim, true
		}
	}
	q := fold(question)
	for i, dim := range r.dimensions {
		if !kpi.Allows(dim.Name) {
			continue
		}
		terms := r.dimTerms[i]
		if containsAny(q, terms.names) || containsAny(q, terms.synonyms) {
			return dim, true
		}
	}
	return domain.DimensionDef{}, false
}

// SQL returns the load-time rendering of a KPI template. An empty dimension selects
// the ungrouped form. ok is false for unknown keys or dimensions the KPI does not allow.
func (r *Registry) SQL(kpiKey, dimension string) (string, bool) {
	byDim, ok := r.rendered[kpiKey]
	if !ok {
		return "", false
	}
	sql, ok := byDim[dimension]
	return sql, ok
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// containsAny reports whether any needle occurs in haystack as a whole word, allowing
// a plural "s" or "es" suffix.
func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if n != "" && containsWord(haystack, n) {
			return true
		}
	}
	return false
}

func containsWord(haystack, needle string) bool {
	for from := 0; from < len(haystack); {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(needle)
		if boundaryBefore(haystack, start) {
			for _, suffix := range []string{"", "s", "es"} {
				if strings.HasPrefix(haystack[end:], suffix) && boundaryAt(haystack, end+len(suffix)) {
					return true
				}
			}
		}
		from = start + 1
	}
	return false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAt(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

var _ ports.KPICatalog = (*Registry)(nil)
