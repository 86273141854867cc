package warehouse_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Sahithiv25/InsightMiner/internal/application/planner"
	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/registry"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/security"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/warehouse"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/warehouse/warehousetest"
)

type row struct {
	period string
	value  float64
	region string
}

func TestRevenueByRegionEndToEnd(t *testing.T) {
	reg, err := registry.LoadDefault(security.NewGuardrail(nil))
	if err != nil {
		t.Fatalf("LoadDefault error: %v", err)
	}
	db := warehousetest.Memory(t)
	ctx := context.Background()

	req, err := domain.PlanRequest{
		Question:   "Compare revenue by region in 2024",
		Start:      "2024-01-01",
		End:        "2024-12-31",
		Dimensions: []string{"region"},
		Mode:       domain.ModeRegistry,
	}.Normalize()
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	plan := planner.NewRegistryPlanner(reg).Plan(ctx, req)

	if err := warehouse.NewProbe(db).Probe(ctx, plan.SQL, plan.Meta.Start, plan.Meta.End); err != nil {
		t.Fatalf("probe rejected registry SQL: %v", err)
	}

	bound := query(t, db, plan.SQL, plan.Args()...)
	inlined := query(t, db, plan.Inline())
	if len(bound) != len(inlined) {
		t.Fatalf("bound and inlined runs differ: %d vs %d rows", len(bound), len(inlined))
	}

	if want := 12 * len(warehousetest.Regions); len(bound) != want {
		t.Fatalf("expected %d (month, region) rows, got %d", want, len(bound))
	}
	seen := make(map[[2]string]float64)
	for _, r := range bound {
		key := [2]string{r.period, r.region}
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate row for %v", key)
		}
		if r.value < 0 {
			t.Fatalf("negative value %v for %v", r.value, key)
		}
		seen[key] = r.value
	}

	checks := map[[2]string]float64{
		{"2024-01-01", "US"}: 4000,
		{"2024-07-01", "US"}: 4600,
		{"2024-10-01", "US"}: 4000,
		{"2024-12-01", "DE"}: 900,
		{"2024-03-01", "IN"}: 150,
	}
	for key, want := range checks {
		if got := seen[key]; got != want {
			t.Errorf("value for %v = %v, want %v", key, got, want)
		}
	}
}

func query(t *testing.T, db *sql.DB, statement string, args ...any) []row {
	t.Helper()
	rows, err := db.QueryContext(context.Background(), statement, args...)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	var out []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.period, &r.value, &r.region); err != nil {
			t.Fatalf("scan: %v", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	return out
}
