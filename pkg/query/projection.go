// Package query builds parameterized Postgres SELECT statements from a
// projection of view field names onto table columns.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps view field names to qualified table columns.
type ProjectionMap struct {
	schema  string
	table   string
	alias   string
	columns []string
	views   map[string]string
	aliases map[string]string
}

// NewProjectionMap creates a projection for schema.table aliased as alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:  schema,
		table:   table,
		alias:   alias,
		columns: make([]string, 0),
		views:   make(map[string]string),
		aliases: make(map[string]string),
	}
}

// Project adds a table column under the given view name.
func (p *ProjectionMap) Project(column, view string) *ProjectionMap {
	col := fmt.Sprintf("%s.%s", p.alias, column)
	p.columns = append(p.columns, col)
	p.views[view] = col
	p.aliases[strings.ToLower(view)] = col
	p.aliases[column] = col
	return p
}

// ProjectExpr adds a computed SQL expression under the given view name.
// The expression is emitted verbatim in the select list.
func (p *ProjectionMap) ProjectExpr(expr, view string) *ProjectionMap {
	p.columns = append(p.columns, expr)
	p.views[view] = expr
	p.aliases[strings.ToLower(view)] = expr
	return p
}

// Alias returns the table alias.
func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Table returns the qualified table with its alias, e.g. "public.users u".
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Column resolves a view name to its column. View names match exactly,
// case-insensitively, or by their raw column name ("created_at").
// Unknown names are returned as-is.
func (p *ProjectionMap) Column(view string) string {
	if col, ok := p.lookup(view); ok {
		return col
	}
	return view
}

// HasColumn reports whether view resolves to a projected field.
func (p *ProjectionMap) HasColumn(view string) bool {
	_, ok := p.lookup(view)
	return ok
}

func (p *ProjectionMap) lookup(view string) (string, bool) {
	if col, ok := p.views[view]; ok {
		return col, true
	}
	if col, ok := p.aliases[view]; ok {
		return col, true
	}
	col, ok := p.aliases[strings.ToLower(view)]
	return col, ok
}

// Columns returns the comma-separated select list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columns, ", ")
}

// ColumnList returns the select list as a slice.
func (p *ProjectionMap) ColumnList() []string {
	list := make([]string, len(p.columns))
	copy(list, p.columns)
	return list
}
