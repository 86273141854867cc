// Package security implements the SQL safety validator that gates every generated query.
//
// Checks are lexical scans over a token stream, not a full parser. They run in a
// fixed order and the first failing check decides the reason code.
package security

import (
	"regexp"
	"strings"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/infrastructure/schema"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

// forbiddenKeywords is matched against the raw statement, comments and literals included.
var forbiddenKeywords = regexp.MustCompile(
	`(?i)\b(update|delete|insert|drop|alter|create|pragma|attach|vacuum|reindex|replace)\b`,
)

// relationStop lists words that end a relation reference instead of aliasing it.
var relationStop = map[string]bool{
	"on": true, "using": true, "where": true, "group": true, "order": true, "limit": true,
	"having": true, "join": true, "inner": true, "left": true, "right": true, "full": true,
	"outer": true, "cross": true, "natural": true, "union": true, "except": true,
	"intersect": true, "window": true, "offset": true, "select": true,
}

// Guardrail implements the SQLValidator port.
type Guardrail struct {
	allowlist *schema.Allowlist
}

// NewGuardrail builds a validator over the given allowlist (the default warehouse when nil).
func NewGuardrail(allowlist *schema.Allowlist) *Guardrail {
	if allowlist == nil {
		allowlist = schema.Default()
	}
	return &Guardrail{allowlist: allowlist}
}

// Allowlist exposes the catalog the guardrail enforces.
func (g *Guardrail) Allowlist() *schema.Allowlist {
	return g.allowlist
}

// Validate implements ports.SQLValidator.
func (g *Guardrail) Validate(sql string) domain.ValidationOutcome {
	s := strings.TrimSpace(sql)

	allowed := 0
	if strings.HasSuffix(s, ";") {
		allowed = 1
	}
	if n := strings.Count(s, ";"); n > allowed {
		return domain.Reject(domain.ReasonMultipleStatements, ";")
	}
	body := strings.TrimSpace(strings.TrimSuffix(s, ";"))

	tokens := tokenize(body)
	if len(tokens) == 0 || !(tokens[0].is("select") || tokens[0].is("with")) {
		lead := ""
		if len(tokens) > 0 {
			lead = tokens[0].text
		}
		return domain.Reject(domain.ReasonNotReadOnly, lead)
	}

	if m := forbiddenKeywords.FindString(body); m != "" {
		return domain.Reject(domain.ReasonForbiddenKeyword, strings.ToLower(m))
	}

	scope := collectScope(tokens)
	for _, rel := range scope.relations {
		if !g.allowlist.HasTable(rel.name) && !scope.ctes[rel.name] {
			return domain.Reject(domain.ReasonTableNotAllowed, rel.display)
		}
	}

	if ref, ok := g.firstUnresolvedColumn(tokens, scope); !ok {
		return domain.Reject(domain.ReasonColumnNotAllowed, ref)
	}

	return domain.Accept(!boundedByWindow(tokens))
}

// boundedByWindow reports whether both window placeholders appear as parameters.
func boundedByWindow(tokens []token) bool {
	var start, end bool
	for _, tok := range tokens {
		if tok.kind != tokParam {
			continue
		}
		switch tok.text {
		case domain.StartPlaceholder:
			start = true
		case domain.EndPlaceholder:
			end = true
		}
	}
	return start && end
}

func (g *Guardrail) firstUnresolvedColumn(tokens []token, scope statementScope) (string, bool) {
	for i := 0; i+2 < len(tokens); i++ {
		if tokens[i].kind != tokIdent || !tokens[i+1].punct(".") {
			continue
		}
		if i > 0 && tokens[i-1].punct(".") {
			continue
		}
		col := tokens[i+2]
		if col.kind != tokIdent && !col.punct("*") {
			continue
		}
		qualifier := strings.ToLower(tokens[i].text)
		ref := tokens[i].text + "." + col.text
		if !g.columnAllowed(qualifier, strings.ToLower(col.text), col.punct("*"), scope) {
			return ref, false
		}
	}
	return "", true
}

func (g *Guardrail) columnAllowed(qualifier, column string, star bool, scope statementScope) bool {
	if scope.ctes[qualifier] {
		// Columns of statement-local relations are not tracked.
		return true
	}
	var candidates []string
	if g.allowlist.HasTable(qualifier) {
		candidates = append(candidates, qualifier)
	}
	candidates = append(candidates, scope.aliases[qualifier]...)
	for _, table := range candidates {
		if scope.ctes[table] {
			return true
		}
		if star || g.allowlist.HasColumn(table, column) {
			return true
		}
	}
	return false
}

type relationRef struct {
	name    string // lower-cased lookup name
	display string // as written
}

type statementScope struct {
	relations []relationRef
	aliases   map[string][]string
	ctes      map[string]bool
}

// collectScope finds CTE names, the relations named after FROM/JOIN (including comma
// lists) and the aliases bound to them.
func collectScope(tokens []token) statementScope {
	scope := statementScope{
		aliases: make(map[string][]string),
		ctes:    make(map[string]bool),
	}
	for i, tok := range tokens {
		switch {
		case tok.is("with"):
			collectCTEs(tokens, i+1, scope.ctes)
		case tok.is("from") || tok.is("join"):
			collectRelations(tokens, i+1, &scope)
		}
	}
	return scope
}

func collectCTEs(tokens []token, i int, ctes map[string]bool) {
	if i < len(tokens) && tokens[i].is("recursive") {
		i++
	}
	for i < len(tokens) && tokens[i].kind == tokIdent {
		ctes[strings.ToLower(tokens[i].text)] = true
		i++
		if i < len(tokens) && tokens[i].punct("(") {
			i = matchingParen(tokens, i) + 1
		}
		if i >= len(tokens) || !tokens[i].is("as") {
			return
		}
		i++
		if i < len(tokens) && (tokens[i].is("materialized") || tokens[i].is("not")) {
			for i < len(tokens) && !tokens[i].punct("(") {
				i++
			}
		}
		if i >= len(tokens) || !tokens[i].punct("(") {
			return
		}
		i = matchingParen(tokens, i) + 1
		if i >= len(tokens) || !tokens[i].punct(",") {
			return
		}
		i++
	}
}

func collectRelations(tokens []token, i int, scope *statementScope) {
	for i < len(tokens) {
		var targets []string
		derived := false
		switch {
		case tokens[i].punct("("):
			closing := matchingParen(tokens, i)
			inner := tokens[i+1:]
			if closing > i && tokens[closing].punct(")") {
				inner = tokens[i+1 : closing]
			}
			if len(inner) > 0 && (inner[0].is("select") || inner[0].is("with")) {
				// Subquery; its own FROM clauses are visited by the outer walk.
				derived = true
			} else {
				// Parenthesized table list; inner JOINs are visited by the outer walk.
				before := len(scope.relations)
				collectRelations(inner, 0, scope)
				for _, rel := range scope.relations[before:] {
					targets = append(targets, rel.name)
				}
			}
			i = closing + 1
		case tokens[i].kind == tokIdent && !relationStop[strings.ToLower(tokens[i].text)]:
			display := tokens[i].text
			i++
			for i+1 < len(tokens) && tokens[i].punct(".") && tokens[i+1].kind == tokIdent {
				display += "." + tokens[i+1].text
				i += 2
			}
			name := strings.ToLower(display)
			scope.relations = append(scope.relations, relationRef{name: name, display: display})
			targets = append(targets, name)
		default:
			return
		}

		if i < len(tokens) && tokens[i].is("as") {
			i++
		}
		if i < len(tokens) && tokens[i].kind == tokIdent && !relationStop[strings.ToLower(tokens[i].text)] {
			alias := strings.ToLower(tokens[i].text)
			if derived {
				// Derived tables behave like statement-local CTEs.
				scope.ctes[alias] = true
			} else {
				scope.aliases[alias] = append(scope.aliases[alias], targets...)
			}
			i++
		}

		if i >= len(tokens) || !tokens[i].punct(",") {
			return
		}
		i++
	}
}

// matchingParen returns the index of the parenthesis closing the one at open,
// or the last index when unbalanced.
func matchingParen(tokens []token, open int) int {
	depth := 0
	for i := open; i < len(tokens); i++ {
		switch {
		case tokens[i].punct("("):
			depth++
		case tokens[i].punct(")"):
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(tokens) - 1
}

var _ ports.SQLValidator = (*Guardrail)(nil)
