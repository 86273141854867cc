package security

import (
	"testing"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
)

func TestGuardrailRejections(t *testing.T) {
	guard := NewGuardrail(nil)

	tests := []struct {
		name   string
		sql    string
		reason domain.ReasonCode
		detail string
	}{
		{"two statements", "SELECT 1; SELECT 2", domain.ReasonMultipleStatements, ";"},
		{"doubled terminator", "SELECT 1;;", domain.ReasonMultipleStatements, ";"},
		{"stacked drop", "SELECT a.country FROM accounts a; DROP TABLE accounts;", domain.ReasonMultipleStatements, ";"},
		{"delete", "DELETE FROM accounts", domain.ReasonNotReadOnly, "DELETE"},
		{"pragma first", "PRAGMA table_info(accounts)", domain.ReasonNotReadOnly, "PRAGMA"},
		{"empty", "   ", domain.ReasonNotReadOnly, ""},
		{"parenthesised", "(SELECT 1)", domain.ReasonNotReadOnly, "("},
		{"mixed case in comment", "SELECT 1 /* DrOp */", domain.ReasonForbiddenKeyword, "drop"},
		{"line comment", "SELECT a.account_id FROM accounts a -- then UPDATE", domain.ReasonForbiddenKeyword, "update"},
		{"inside string", "SELECT a.account_id FROM accounts a WHERE a.industry = 'insert'", domain.ReasonForbiddenKeyword, "insert"},
		{"replace function", "SELECT replace(a.country, 'US', 'USA') FROM accounts a", domain.ReasonForbiddenKeyword, "replace"},
		{"cte with attach", "WITH x AS (SELECT 1) ATTACH DATABASE 'evil.db' AS evil", domain.ReasonForbiddenKeyword, "attach"},
		{"unknown table", "SELECT * FROM users", domain.ReasonTableNotAllowed, "users"},
		{"comma list", "SELECT * FROM accounts, sqlite_master", domain.ReasonTableNotAllowed, "sqlite_master"},
		{"joined table", "SELECT a.account_id FROM accounts a JOIN payments p ON a.account_id = p.account_id", domain.ReasonTableNotAllowed, "payments"},
		{"schema qualified", "SELECT * FROM main.accounts", domain.ReasonTableNotAllowed, "main.accounts"},
		{"subquery table", "SELECT sub.n FROM (SELECT COUNT(*) AS n FROM secrets) sub", domain.ReasonTableNotAllowed, "secrets"},
		{"unknown column", "SELECT a.password FROM accounts a", domain.ReasonColumnNotAllowed, "a.password"},
		{"column on wrong table", "SELECT s.country FROM subscriptions s", domain.ReasonColumnNotAllowed, "s.country"},
		{"unbound qualifier", "SELECT x.mrr_amount FROM subscriptions s", domain.ReasonColumnNotAllowed, "x.mrr_amount"},
		{"star on unbound qualifier", "SELECT x.* FROM subscriptions s", domain.ReasonColumnNotAllowed, "x.*"},
		{"parenthesized table", "SELECT name, sql FROM (sqlite_master) WHERE :start < :end", domain.ReasonTableNotAllowed, "sqlite_master"},
		{"parenthesized join target", "SELECT a.country, sql FROM accounts a JOIN (sqlite_master) ON 1 = 1", domain.ReasonTableNotAllowed, "sqlite_master"},
		{"nested parentheses", "SELECT * FROM ((accounts), (sqlite_master))", domain.ReasonTableNotAllowed, "sqlite_master"},
		{"parenthesized join list", "SELECT * FROM (accounts a JOIN secrets x ON a.account_id = x.account_id)", domain.ReasonTableNotAllowed, "secrets"},
		{"unclosed parenthesis", "SELECT * FROM (sqlite_master", domain.ReasonTableNotAllowed, "sqlite_master"},
		{"alias of parenthesized table", "SELECT x.password FROM (accounts) x", domain.ReasonColumnNotAllowed, "x.password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := guard.Validate(tt.sql)
			if got.Accepted {
				t.Fatalf("expected rejection, got %+v", got)
			}
			if got.Reason != tt.reason || got.Detail != tt.detail {
				t.Fatalf("expected %s/%q, got %s/%q", tt.reason, tt.detail, got.Reason, got.Detail)
			}
		})
	}
}

func TestGuardrailAccepts(t *testing.T) {
	guard := NewGuardrail(nil)

	tests := []struct {
		name      string
		sql       string
		unbounded bool
	}{
		{"trailing terminator", "SELECT 1;", true},
		{"leading comment", "  -- monthly view\n select a.country from accounts a", true},
		{"word containing keyword", "SELECT a.signup_date AS created_on FROM accounts a", true},
		{"bare table qualifier", "SELECT accounts.country FROM Accounts", true},
		{"star", "SELECT s.* FROM subscriptions s WHERE s.start_date BETWEEN :start AND :end", false},
		{
			name: "join with aliases",
			sql: `SELECT strftime('%Y-%m', s.start_date) AS period, SUM(s.mrr_amount) AS value, a.country AS region
FROM subscriptions s JOIN accounts AS a ON a.account_id = s.account_id
WHERE s.start_date BETWEEN :start AND :end
GROUP BY 1, 3 ORDER BY 1`,
		},
		{
			name: "cte",
			sql: `WITH months AS (
  SELECT strftime('%Y-%m', t.submitted_at) AS period, AVG(t.resolution_time_hours) AS value
  FROM support_tickets t
  WHERE date(t.submitted_at) BETWEEN :start AND :end
  GROUP BY 1
)
SELECT m.period, m.value FROM months m ORDER BY 1;`,
		},
		{
			name: "derived table",
			sql:  "SELECT sub.value FROM (SELECT SUM(s.mrr_amount) AS value FROM subscriptions s WHERE s.start_date >= :start AND s.start_date <= :end) sub",
		},
		{
			name: "recursive cte with columns",
			sql:  "WITH RECURSIVE n(i) AS (SELECT 1 UNION ALL SELECT n.i + 1 FROM n WHERE n.i < 3) SELECT n.i, :start, :end FROM n",
		},
		{"placeholder lookalike", "SELECT s.plan_tier FROM subscriptions s WHERE s.start_date >= :start_date AND s.start_date <= :end", true},
		{"placeholder in literal", "SELECT s.plan_tier FROM subscriptions s WHERE s.billing_frequency = ':start' AND s.start_date <= :end", true},
		{"placeholder in comment", "SELECT a.country FROM accounts a -- between :start and :end", true},
		{"parenthesized table list", "SELECT x.country, s.plan_tier FROM (accounts x JOIN subscriptions s ON x.account_id = s.account_id) WHERE s.start_date BETWEEN :start AND :end", false},
		{
			name: "same alias on two tables",
			sql: `SELECT x.plan_tier FROM accounts x WHERE :start <= :end
UNION ALL SELECT x.mrr_amount FROM subscriptions x`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := guard.Validate(tt.sql)
			if !got.Accepted {
				t.Fatalf("expected acceptance, got %s", got)
			}
			if got.Unbounded != tt.unbounded {
				t.Fatalf("expected unbounded=%v, got %v", tt.unbounded, got.Unbounded)
			}
		})
	}
}

func TestGuardrailCheckOrder(t *testing.T) {
	guard := NewGuardrail(nil)

	// A statement that fails every check reports the first in order.
	got := guard.Validate("DROP TABLE users; DROP TABLE accounts")
	if got.Reason != domain.ReasonMultipleStatements {
		t.Fatalf("expected multiple_statements first, got %s", got)
	}
	got = guard.Validate("SELECT u.password FROM users u /* delete */")
	if got.Reason != domain.ReasonForbiddenKeyword {
		t.Fatalf("expected forbidden_keyword before table check, got %s", got)
	}
	got = guard.Validate("SELECT u.password FROM users u")
	if got.Reason != domain.ReasonTableNotAllowed {
		t.Fatalf("expected table_not_allowed before column check, got %s", got)
	}
}

func TestGuardrailIsIdempotent(t *testing.T) {
	guard := NewGuardrail(nil)
	inputs := []string{
		"SELECT a.country FROM accounts a WHERE a.signup_date BETWEEN :start AND :end",
		"SELECT * FROM users",
		"SELECT 1; SELECT 2",
	}
	for _, sql := range inputs {
		first := guard.Validate(sql)
		second := guard.Validate(sql)
		if first != second {
			t.Fatalf("outcome changed between calls for %q: %+v vs %+v", sql, first, second)
		}
	}
}

func TestLexerSkipsLiteralsAndComments(t *testing.T) {
	tokens := tokenize(`SELECT "a"."country", 'it''s' /* x.y */ FROM [accounts] -- z.w`)
	var idents []string
	for _, tok := range tokens {
		if tok.kind == tokIdent {
			idents = append(idents, tok.text)
		}
	}
	want := []string{"SELECT", "a", "country", "FROM", "accounts"}
	if len(idents) != len(want) {
		t.Fatalf("expected idents %v, got %v", want, idents)
	}
	for i := range want {
		if idents[i] != want[i] {
			t.Fatalf("expected idents %v, got %v", want, idents)
		}
	}
	if tokens[len(tokens)-1].text != "accounts" {
		t.Fatalf("trailing comment leaked into tokens: %+v", tokens)
	}
}
