package planner

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sebdah/goldie/v2"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/registry"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/schema"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/security"
	"github.com/Sahithiv25/InsightMiner/internal/pkg/logger"
)

const safeGeneratedSQL = "SELECT strftime('%Y-%m', s.start_date) AS period, SUM(s.mrr_amount) AS value, a.country AS region " +
	"FROM subscriptions s JOIN accounts a ON a.account_id = s.account_id " +
	"WHERE s.start_date BETWEEN :start AND :end GROUP BY 1, 3"

type stubGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	last    domain.GenerationRequest
	hadDead bool
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = req
	_, s.hadDead = ctx.Deadline()
	return s.reply, s.err
}

type stubProbe struct {
	err   error
	calls int
	sql   string
	start string
	end   string
}

func (s *stubProbe) Probe(_ context.Context, sql, start, end string) error {
	s.calls++
	s.sql, s.start, s.end = sql, start, end
	return s.err
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.LoadDefault(security.NewGuardrail(nil))
	if err != nil {
		t.Fatalf("LoadDefault error: %v", err)
	}
	return reg
}

func request(question string, dims ...string) domain.PlanRequest {
	return domain.PlanRequest{
		Question:   question,
		Start:      "2024-01-01",
		End:        "2024-12-31",
		Dimensions: dims,
		Mode:       domain.ModeAuto,
	}
}

func newGenerative(t *testing.T, gen *stubGenerator, probe *stubProbe) *GenerativePlanner {
	t.Helper()
	reg := testRegistry(t)
	p := &GenerativePlanner{
		Validator: security.NewGuardrail(nil),
		Catalog:   reg,
		Schema:    schema.Default(),
		Fallback:  NewRegistryPlanner(reg),
		Logger:    logger.New(io.Discard, true),
	}
	if gen != nil {
		p.Generator = gen
	}
	if probe != nil {
		p.Probe = probe
	}
	return p
}

func fenced(sql string) string {
	return "Here is the plan:\n```json\n{\"kpi\": \"revenue_net\", \"dims\": [\"region\"], \"sql\": \"" + sql + "\"}\n```"
}

func TestRegistryPlannerGolden(t *testing.T) {
	planner := NewRegistryPlanner(testRegistry(t))
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name     string
		req      domain.PlanRequest
		wantMeta domain.PlanMeta
	}{
		{
			name: "revenue_by_region",
			req:  request("Compare revenue by region in 2024", "region"),
			wantMeta: domain.PlanMeta{
				KPI: "revenue_net", Unit: domain.UnitCurrency, Dimension: "region",
				Planner: domain.StrategyRegistry, Start: "2024-01-01", End: "2024-12-31",
			},
		},
		{
			name: "churn_rate",
			req:  request("Show churn rate by month for 2024"),
			wantMeta: domain.PlanMeta{
				KPI: "churn_rate", Unit: domain.UnitPercent,
				Planner: domain.StrategyRegistry, Start: "2024-01-01", End: "2024-12-31",
			},
		},
		{
			name: "feature_adoption_by_plan_tier",
			req:  request("Feature adoption by plan tier for 2024"),
			wantMeta: domain.PlanMeta{
				KPI: "feature_adoption", Unit: domain.UnitCount, Dimension: "plan_tier",
				Planner: domain.StrategyRegistry, Start: "2024-01-01", End: "2024-12-31",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := planner.Plan(context.Background(), tt.req)
			if diff := cmp.Diff(tt.wantMeta, got.Meta); diff != "" {
				t.Errorf("meta mismatch (-want +got):\n%s", diff)
			}
			g.Assert(t, tt.name, []byte(got.SQL))
		})
	}
}

func TestRegistryPlannerIsDeterministic(t *testing.T) {
	planner := NewRegistryPlanner(testRegistry(t))
	req := request("Average ticket resolution time by region, 2024", "region")

	first := planner.Plan(context.Background(), req)
	second := planner.Plan(context.Background(), req)
	if first.SQL != second.SQL {
		t.Fatalf("expected byte-identical SQL:\n%s\n---\n%s", first.SQL, second.SQL)
	}
}

func TestGenerativePlannerWithoutGeneratorFallsBack(t *testing.T) {
	probe := &stubProbe{}
	p := newGenerative(t, nil, probe)

	got := p.Plan(context.Background(), request("Compare revenue by region in 2024", "region"))
	if got.Meta.Planner != domain.StrategyRegistry {
		t.Fatalf("expected registry planner, got %s", got.Meta.Planner)
	}
	if got.Meta.FallbackReason != domain.ReasonGenerationUnavailable {
		t.Fatalf("expected generation_unavailable, got %q", got.Meta.FallbackReason)
	}
	if got.Meta.Provenance() != domain.StrategyFallback {
		t.Fatalf("expected fallback provenance, got %s", got.Meta.Provenance())
	}
	if probe.calls != 0 {
		t.Fatalf("probe should not run, got %d calls", probe.calls)
	}
	if !strings.Contains(got.SQL, "a.country AS region") {
		t.Fatalf("expected registry SQL grouped by region, got:\n%s", got.SQL)
	}
}

func TestGenerativePlannerAcceptsSafePlan(t *testing.T) {
	gen := &stubGenerator{reply: fenced(safeGeneratedSQL)}
	probe := &stubProbe{}
	p := newGenerative(t, gen, probe)

	got := p.Plan(context.Background(), request("Compare revenue by region in 2024", "region"))

	want := domain.PlanResult{
		SQL: safeGeneratedSQL,
		Meta: domain.PlanMeta{
			KPI: "revenue_net", Dimension: "region", Planner: domain.StrategyLLM,
			Start: "2024-01-01", End: "2024-12-31",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
	if probe.calls != 1 || probe.start != "2024-01-01" || probe.end != "2024-12-31" {
		t.Fatalf("unexpected probe call: %+v", probe)
	}
	if gen.last.MaxTokens != domain.DefaultMaxTokens || gen.last.Temperature != domain.DefaultTemperature {
		t.Fatalf("unexpected generation budget: %+v", gen.last)
	}
	if !gen.hadDead {
		t.Fatal("expected generation context to carry a deadline")
	}
	if !strings.Contains(gen.last.Prompt, "User question: Compare revenue by region in 2024") {
		t.Fatal("prompt does not carry the question")
	}
}

func TestGenerativePlannerWithoutProbeFallsBack(t *testing.T) {
	gen := &stubGenerator{reply: fenced(safeGeneratedSQL)}
	p := newGenerative(t, gen, nil)

	got := p.Plan(context.Background(), request("Compare revenue by region in 2024", "region"))
	if got.Meta.Planner != domain.StrategyRegistry {
		t.Fatalf("expected registry fallback, got %s", got.Meta.Planner)
	}
	if got.Meta.FallbackReason != domain.ReasonSyntaxProbeFailed {
		t.Fatalf("expected syntax_probe_failed, got %q", got.Meta.FallbackReason)
	}
	if got.SQL == safeGeneratedSQL {
		t.Fatal("generated SQL returned without a syntax probe")
	}
	if gen.calls != 1 {
		t.Fatalf("expected a single generator call, got %d", gen.calls)
	}
}

func TestGenerativePlannerFallbackReasons(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		genErr     error
		probeErr   error
		wantReason domain.ReasonCode
		wantProbe  int
	}{
		{"unavailable", "", domain.ErrGeneratorUnavailable, nil, domain.ReasonGenerationUnavailable, 0},
		{"call failure", "", context.DeadlineExceeded, nil, domain.ReasonGenerationUnavailable, 0},
		{"prose", "I cannot help with that.", nil, nil, domain.ReasonGenerationMalformed, 0},
		{"missing kpi", `{"dims": [], "sql": "SELECT 1"}`, nil, nil, domain.ReasonGenerationMalformed, 0},
		{"blank sql", `{"kpi": "revenue_net", "dims": [], "sql": "   "}`, nil, nil, domain.ReasonGenerationMalformed, 0},
		{"unsafe table", fenced("SELECT u.email FROM users u WHERE u.created_at BETWEEN :start AND :end"), nil, nil, domain.ReasonTableNotAllowed, 0},
		{"stacked statements", fenced("SELECT 1; DROP TABLE accounts"), nil, nil, domain.ReasonMultipleStatements, 0},
		{"probe rejects", fenced(safeGeneratedSQL), nil, errors.New("no such column"), domain.ReasonSyntaxProbeFailed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{reply: tt.reply, err: tt.genErr}
			probe := &stubProbe{err: tt.probeErr}
			p := newGenerative(t, gen, probe)

			got := p.Plan(context.Background(), request("Compare revenue by region in 2024", "region"))
			if got.Meta.Planner != domain.StrategyRegistry {
				t.Fatalf("expected registry fallback, got %s", got.Meta.Planner)
			}
			if got.Meta.FallbackReason != tt.wantReason {
				t.Fatalf("expected reason %s, got %q", tt.wantReason, got.Meta.FallbackReason)
			}
			if probe.calls != tt.wantProbe {
				t.Fatalf("expected %d probe calls, got %d", tt.wantProbe, probe.calls)
			}
			if gen.calls != 1 {
				t.Fatalf("expected a single generator call, got %d", gen.calls)
			}
		})
	}
}

func TestChainShortCircuits(t *testing.T) {
	var calls []string
	stage := func(name string, reason domain.ReasonCode) Stage {
		return Stage{
			Strategy: domain.Strategy(name),
			Attempt: func(context.Context, domain.PlanRequest) (domain.PlanResult, domain.ReasonCode) {
				calls = append(calls, name)
				return domain.PlanResult{SQL: name, Meta: domain.PlanMeta{Planner: domain.Strategy(name)}}, reason
			},
		}
	}

	calls = nil
	got := Chain{Stages: []Stage{stage("first", domain.ReasonNone), stage("second", domain.ReasonNone)}}.Run(context.Background(), domain.PlanRequest{})
	if got.SQL != "first" || len(calls) != 1 || got.Meta.FallbackReason != domain.ReasonNone {
		t.Fatalf("expected first stage only, got %+v after %v", got, calls)
	}

	calls = nil
	got = Chain{Stages: []Stage{
		stage("first", domain.ReasonGenerationMalformed),
		stage("second", domain.ReasonSyntaxProbeFailed),
		stage("third", domain.ReasonNone),
	}}.Run(context.Background(), domain.PlanRequest{})
	if got.SQL != "third" || got.Meta.FallbackReason != domain.ReasonGenerationMalformed {
		t.Fatalf("expected third stage with first reason, got %+v", got)
	}
	if diff := cmp.Diff([]string{"first", "second", "third"}, calls); diff != "" {
		t.Fatalf("stage order mismatch (-want +got):\n%s", diff)
	}
}

func TestParseReply(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    intent
		wantErr bool
	}{
		{"strict", `{"kpi":"churn_rate","dims":[],"sql":"SELECT 1"}`, intent{KPI: "churn_rate", Dims: []string{}, SQL: "SELECT 1"}, false},
		{"fenced", "```json\n{\"kpi\":\"revenue_net\",\"dims\":[\"region\"],\"sql\":\"SELECT 1\"}\n```", intent{KPI: "revenue_net", Dims: []string{"region"}, SQL: "SELECT 1"}, false},
		{"prose around", `Sure! {"kpi":"revenue_net","sql":"SELECT '}'"} Hope it helps.`, intent{KPI: "revenue_net", SQL: "SELECT '}'"}, false},
		{"null dims", `{"kpi":"revenue_net","dims":null,"sql":"SELECT 1"}`, intent{KPI: "revenue_net", SQL: "SELECT 1"}, false},
		{"empty kpi", `{"kpi":"  ","sql":"SELECT 1"}`, intent{}, true},
		{"numeric sql", `{"kpi":"revenue_net","sql":42}`, intent{}, true},
		{"null sql", `{"kpi":"revenue_net","sql":null}`, intent{}, true},
		{"empty sql", `{"kpi":"revenue_net","sql":""}`, intent{}, true},
		{"blank sql", `{"kpi":"revenue_net","sql":"  \n "}`, intent{}, true},
		{"missing sql", `{"kpi":"revenue_net"}`, intent{}, true},
		{"dims not array", `{"kpi":"revenue_net","dims":"region","sql":"SELECT 1"}`, intent{}, true},
		{"no object", "no json here", intent{}, true},
		{"unbalanced", `{"kpi":"revenue_net"`, intent{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReply(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseReply error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("intent mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	reg := testRegistry(t)

	prompt := BuildPrompt("Compare revenue by region in 2024", []string{"region"}, reg, schema.Default())
	for _, want := range []string{
		"- revenue_net: Revenue | unit=currency | dims=[region, plan_tier, industry, referral_source, billing_frequency]",
		"- region: column=accounts.country alias=region",
		"- churn_events(churn_event_id, account_id, churn_date,",
		`A: {"kpi":"revenue_net","dims":["region"],"start":"2024-01-01","end":"2024-12-31"}`,
		`A: {"kpi":"churn_rate","dims":[],"start":"2024-01-01","end":"2024-12-31"}`,
		"User question: Compare revenue by region in 2024",
		"User-chosen dimensions (optional): region",
		":start and :end",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if n := strings.Count(prompt, "\nQ: "); n != 4 {
		t.Errorf("expected 4 examples, got %d", n)
	}

	bare := BuildPrompt("revenue", nil, reg, schema.Default())
	if !strings.Contains(bare, "User-chosen dimensions (optional): []") {
		t.Error("expected empty dimension hint")
	}

	huge := BuildPrompt(strings.Repeat("é", domain.MaxPromptBytes), nil, reg, schema.Default())
	if len(huge) > domain.MaxPromptBytes {
		t.Fatalf("prompt exceeds cap: %d bytes", len(huge))
	}
	if !strings.HasSuffix(huge, promptReply) {
		t.Fatal("reply instructions lost when truncating the question")
	}
}
