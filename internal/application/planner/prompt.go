package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

type example struct {
	Question string
	Intent   intent
}

// intent is the strict reply shape requested from the generator.
type intent struct {
	KPI   string   `json:"kpi"`
	Dims  []string `json:"dims"`
	Start string   `json:"start,omitempty"`
	End   string   `json:"end,omitempty"`
	SQL   string   `json:"sql,omitempty"`
}

var examples = []example{
	{"Compare revenue by region in 2024", intent{KPI: "revenue_net", Dims: []string{"region"}, Start: "2024-01-01", End: "2024-12-31"}},
	{"Show churn rate by month for 2024", intent{KPI: "churn_rate", Dims: []string{}, Start: "2024-01-01", End: "2024-12-31"}},
	{"Average ticket resolution time by region, 2024", intent{KPI: "avg_resolution_time", Dims: []string{"region"}, Start: "2024-01-01", End: "2024-12-31"}},
	{"Feature adoption by plan tier for 2024", intent{KPI: "feature_adoption", Dims: []string{"plan_tier"}, Start: "2024-01-01", End: "2024-12-31"}},
}

const promptRules = `You are a careful analytics planner. Map the user question to one KPI, optional dimensions and a single safe SQLite query.

Rules:
- Write exactly one SELECT statement, optionally introduced by WITH.
- No DDL, DML, PRAGMA, ATTACH or REINDEX, and no REPLACE function.
- Reference only the tables and columns listed under Schema; qualify columns with their table alias.
- Bound the time window with the named placeholders :start and :end.
- Project the period first and the value second. When a dimension is requested, project it third and GROUP BY it.
- Reply with strict JSON containing exactly the keys kpi, dims (array) and sql (string). Nothing else.
`

const promptReply = `Respond with JSON: {"kpi":"...","dims":["..."],"sql":"..."}`

// BuildPrompt renders the planning prompt. The result never exceeds
// domain.MaxPromptBytes; the question is shortened when the catalog leaves no room.
func BuildPrompt(question string, dims []string, catalog ports.KPICatalog, schema ports.SchemaCatalog) string {
	var head strings.Builder
	head.WriteString(promptRules)

	head.WriteString("\nAvailable KPIs:\n")
	known := make(map[string]domain.KPIDef)
	for _, k := range catalog.KPIs() {
		known[k.Key] = k
		fmt.Fprintf(&head, "- %s: %s | unit=%s | dims=[%s]\n", k.Key, k.Name, k.Unit, strings.Join(k.AllowDimensions, ", "))
	}

	head.WriteString("\nAvailable dimensions:\n")
	for _, d := range catalog.Dimensions() {
		fmt.Fprintf(&head, "- %s: column=%s alias=%s\n", d.Name, d.Column, d.Alias)
	}

	head.WriteString("\nSchema (allowlisted):\n")
	for _, table := range schema.Tables() {
		fmt.Fprintf(&head, "- %s(%s)\n", table, strings.Join(schema.Columns(table), ", "))
	}

	head.WriteString("\nExamples:\n")
	for _, ex := range examples {
		if !exampleFits(ex, known) {
			continue
		}
		raw, err := json.Marshal(ex.Intent)
		if err != nil {
			continue
		}
		fmt.Fprintf(&head, "Q: %s\nA: %s\n", ex.Question, raw)
	}

	hint := "[]"
	if len(dims) > 0 {
		hint = strings.Join(dims, ", ")
	}
	tail := fmt.Sprintf("\nUser-chosen dimensions (optional): %s\n%s", truncateUTF8(hint, 256), promptReply)

	budget := domain.MaxPromptBytes - head.Len() - len(tail) - len("\nUser question: ")
	prompt := head.String() + "\nUser question: " + truncateUTF8(strings.TrimSpace(question), budget) + tail
	// Oversized catalogs lose their tail rather than the rules.
	return truncateUTF8(prompt, domain.MaxPromptBytes)
}

func exampleFits(ex example, known map[string]domain.KPIDef) bool {
	kpi, ok := known[ex.Intent.KPI]
	if !ok {
		return false
	}
	for _, d := range ex.Intent.Dims {
		if !kpi.Allows(d) {
			return false
		}
	}
	return true
}

func truncateUTF8(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
