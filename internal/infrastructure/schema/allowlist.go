// Package schema holds the static catalog of tables and columns that planned SQL may reference.
package schema

import (
	"sort"

	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// Allowlist maps table name to its ordered permitted columns.
type Allowlist struct {
	tables  map[string][]string
	columns map[string]map[string]struct{}
	order   []string
}

// New builds an Allowlist. The table order is preserved for prompt rendering.
func New(order []string, tables map[string][]string) *Allowlist {
	a := &Allowlist{
		tables:  make(map[string][]string, len(tables)),
		columns: make(map[string]map[string]struct{}, len(tables)),
	}
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if cols, ok := tables[name]; ok && !seen[name] {
			a.add(name, cols)
			seen[name] = true
		}
	}
	var rest []string
	for name := range tables {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		a.add(name, tables[name])
	}
	return a
}

func (a *Allowlist) add(name string, cols []string) {
	copied := append([]string(nil), cols...)
	set := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		set[c] = struct{}{}
	}
	a.tables[name] = copied
	a.columns[name] = set
	a.order = append(a.order, name)
}

// HasTable reports whether the table is allowlisted.
func (a *Allowlist) HasTable(table string) bool {
	_, ok := a.tables[table]
	return ok
}

// HasColumn reports whether table.column is allowlisted.
func (a *Allowlist) HasColumn(table, column string) bool {
	cols, ok := a.columns[table]
	if !ok {
		return false
	}
	_, ok = cols[column]
	return ok
}

// Tables returns table names in catalog order.
func (a *Allowlist) Tables() []string {
	return append([]string(nil), a.order...)
}

// Columns returns the ordered columns of a table.
func (a *Allowlist) Columns(table string) []string {
	return append([]string(nil), a.tables[table]...)
}

// Default returns the RavenStack warehouse allowlist.
func Default() *Allowlist {
	return New(
		[]string{"accounts", "subscriptions", "feature_usage", "support_tickets", "churn_events"},
		map[string][]string{
			"accounts": {
				"account_id", "account_name", "industry", "country", "signup_date", "referral_source",
				"plan_tier", "seats", "is_trial", "churn_flag",
			},
			"subscriptions": {
				"subscription_id", "account_id", "start_date", "end_date", "plan_tier", "seats",
				"mrr_amount", "arr_amount", "is_trial", "upgrade_flag", "downgrade_flag", "churn_flag",
				"billing_frequency", "auto_renew_flag",
			},
			"feature_usage": {
				"usage_id", "subscription_id", "usage_date", "feature_name", "usage_count",
				"usage_duration_secs", "error_count", "is_beta_feature",
			},
			"support_tickets": {
				"ticket_id", "account_id", "submitted_at", "closed_at", "resolution_time_hours",
				"priority", "first_response_time_minutes", "satisfaction_score", "escalation_flag",
			},
			"churn_events": {
				"churn_event_id", "account_id", "churn_date", "reason_code", "refund_amount_usd",
				"preceding_upgrade_flag", "preceding_downgrade_flag", "is_reactivation", "feedback_text",
			},
		},
	)
}

var _ ports.SchemaCatalog = (*Allowlist)(nil)
