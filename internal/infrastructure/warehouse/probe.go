// Package warehouse talks to the SQLite analytics warehouse without changing it.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/Sahithiv25/InsightMiner/internal/domain"
	"github.com/Sahithiv25/InsightMiner/internal/ports"
)

var (
	startParam = regexp.MustCompile(`:` + domain.StartParam + `\b`)
	endParam   = regexp.MustCompile(`:` + domain.EndParam + `\b`)
)

// Probe plans statements with EXPLAIN QUERY PLAN; nothing is executed.
type Probe struct {
	db *sql.DB
}

// Open connects read-only to the warehouse file.
func Open(path string) (*Probe, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("warehouse path is empty")
	}
	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=query_only(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}
	return &Probe{db: db}, nil
}

// NewProbe wraps an existing handle.
func NewProbe(db *sql.DB) *Probe {
	return &Probe{db: db}
}

// Close releases the connection pool.
func (p *Probe) Close() error {
	return p.db.Close()
}

// Probe implements ports.SyntaxProbe.
func (p *Probe) Probe(ctx context.Context, statement, start, end string) error {
	statement = strings.TrimSuffix(strings.TrimSpace(statement), ";")
	rows, err := p.db.QueryContext(ctx, "EXPLAIN QUERY PLAN "+statement, bindings(statement, start, end)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		// plan rows are not inspected
	}
	return rows.Err()
}

// Ping checks the warehouse is reachable.
func (p *Probe) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Describe lists warehouse tables with their columns.
func (p *Probe) Describe(ctx context.Context) (map[string][]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make(map[string][]string, len(tables))
	for _, table := range tables {
		cols, err := p.columns(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("describe %s: %w", table, err)
		}
		out[table] = cols
	}
	return out, nil
}

func (p *Probe) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// bindings returns named arguments for the placeholders the statement uses.
func bindings(statement, start, end string) []any {
	var args []any
	if startParam.MatchString(statement) {
		args = append(args, sql.Named(domain.StartParam, start))
	}
	if endParam.MatchString(statement) {
		args = append(args, sql.Named(domain.EndParam, end))
	}
	return args
}

var _ ports.SyntaxProbe = (*Probe)(nil)
var _ ports.WarehouseInspector = (*Probe)(nil)
