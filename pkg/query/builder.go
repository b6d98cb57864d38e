package query

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Marker is the placeholder a Where clause uses for each of its arguments.
// Markers are renumbered into $1, $2, ... in argument order at build time.
const Marker = "$%d"

type condition struct {
	clause string
	args   []any
}

// Builder assembles filtered, ordered, paged SELECTs over one projection.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	orderBy     []SortField
	defaultSort []SortField
	tieBreak    *SortField
}

// NewBuilder starts a query over projection. defaultSort applies whenever
// OrderByFields leaves no usable field.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// Where adds a clause ANDed with the others. It must contain one Marker per arg.
func (b *Builder) Where(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

// WhereEquals compares a projected field with value; a nil value adds nothing.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if value == nil {
		return b
	}
	return b.Where(b.projection.Column(field)+" = "+Marker, value)
}

// WhereIn matches a projected field against values; an empty list adds nothing.
func (b *Builder) WhereIn(field string, values ...any) *Builder {
	if len(values) == 0 {
		return b
	}
	markers := strings.TrimSuffix(strings.Repeat(Marker+", ", len(values)), ", ")
	return b.Where(fmt.Sprintf("%s IN (%s)", b.projection.Column(field), markers), values...)
}

// OrderByFields replaces the ordering. Fields outside the projection are
// dropped so client-supplied sort keys never reach the SQL text.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.orderBy = b.orderBy[:0]
	for _, f := range fields {
		if b.projection.HasColumn(f.Field) {
			b.orderBy = append(b.orderBy, f)
		}
	}
	return b
}

// TieBreak appends field to every ordering that does not already sort by it,
// so rows with equal sort keys keep a stable position across pages.
func (b *Builder) TieBreak(field string, descending bool) *Builder {
	b.tieBreak = &SortField{Field: field, Descending: descending}
	return b
}

// BuildCount counts the rows matching the conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.where()
	return "SELECT COUNT(*) FROM " + b.projection.Table() + where, args
}

// BuildPage selects one ordered page. page is 1-based.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.where()

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(b.projection.Columns())
	sb.WriteString(" FROM ")
	sb.WriteString(b.projection.Table())
	sb.WriteString(where)
	sb.WriteString(b.order())
	fmt.Fprintf(&sb, " LIMIT %d OFFSET %d", pageSize, max(page-1, 0)*pageSize)

	return sb.String(), args
}

func (b *Builder) order() string {
	fields := b.orderBy
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if b.tieBreak != nil && !b.sortsBy(fields, b.tieBreak.Field) {
		fields = append(slices.Clone(fields), *b.tieBreak)
	}
	if len(fields) == 0 {
		return ""
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		parts[i] = b.projection.Column(f.Field) + dir
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) sortsBy(fields []SortField, field string) bool {
	col := b.projection.Column(field)
	for _, f := range fields {
		if b.projection.Column(f.Field) == col {
			return true
		}
	}
	return false
}

func (b *Builder) where() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var args []any
	clauses := make([]string, len(b.conditions))
	for i, c := range b.conditions {
		clause := c.clause
		for _, arg := range c.args {
			args = append(args, arg)
			clause = strings.Replace(clause, Marker, "$"+strconv.Itoa(len(args)), 1)
		}
		clauses[i] = clause
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
