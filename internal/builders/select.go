package builders

import (
	"fmt"
	"sort"
	"strings"

	"jaguarundi/internal/models"
)

// Mode is the result multiplicity a SELECT is built for.
type Mode int

const (
	// ModeAll selects every row, unfiltered.
	ModeAll Mode = iota
	// ModeFilter selects every row matching the equality filter.
	ModeFilter
	// ModeOne selects the single row matching the equality filter.
	ModeOne
)

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeFilter:
		return "filter"
	case ModeOne:
		return "one"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Query describes a SELECT over one schema.
type Query struct {
	Mode Mode
	// Filters are ANDed equality conditions on root columns.
	Filters models.Values
	// Only restricts the projection to these root columns and disables joins.
	Only []string
}

// Select renders the SELECT statement for q. Without a projection every root column
// and every column of each related schema is selected, with one LEFT JOIN per
// relation from the root table.
func Select(schema *models.Schema, q Query) (string, error) {
	if q.Mode == ModeAll && len(q.Filters) > 0 {
		return "", fmt.Errorf("%w: %s query takes no filter", models.ErrPrecondition, q.Mode)
	}

	var b strings.Builder
	b.WriteString("SELECT ")

	if len(q.Only) > 0 {
		columns, err := projection(schema, q.Only)
		if err != nil {
			return "", err
		}
		b.WriteString(strings.Join(aliasColumns(schema.TableName(), columns), ", "))
		b.WriteString(" FROM ")
		b.WriteString(schema.TableName())
	} else {
		aliased := aliasColumns(schema.TableName(), schema.ColumnNames())
		for _, rel := range schema.Relations() {
			aliased = append(aliased, aliasColumns(rel.Schema.TableName(), rel.Schema.ColumnNames())...)
		}
		b.WriteString(strings.Join(aliased, ", "))
		b.WriteString(" FROM ")
		b.WriteString(schema.TableName())
		b.WriteString(joinClause(schema))
	}

	where, err := whereClause(schema, q.Filters)
	if err != nil {
		return "", err
	}
	b.WriteString(where)
	b.WriteString(";")
	return b.String(), nil
}

// Alias is the select alias of a column: "<table>__<column>".
func Alias(table, column string) string {
	return table + models.AliasSeparator + column
}

func aliasColumns(table string, columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, col := range columns {
		out = append(out, fmt.Sprintf("%s.%s AS %s", table, col, Alias(table, col)))
	}
	return out
}

func projection(schema *models.Schema, only []string) ([]string, error) {
	seen := make(map[string]bool, len(only))
	columns := make([]string, 0, len(only))
	for _, name := range only {
		if !schema.HasColumn(name) {
			return nil, fmt.Errorf("%w: %s has no column %q", models.ErrUnknownColumn, schema.Entity(), name)
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		columns = append(columns, name)
	}
	return columns, nil
}

func joinClause(schema *models.Schema) string {
	var b strings.Builder
	for _, rel := range schema.Relations() {
		fmt.Fprintf(&b, " LEFT JOIN %s ON %s.%s=%s.%s",
			rel.Schema.TableName(),
			schema.TableName(), rel.Column,
			rel.Schema.TableName(), models.PrimaryKeyName,
		)
	}
	return b.String()
}

func whereClause(schema *models.Schema, filters models.Values) (string, error) {
	if len(filters) == 0 {
		return "", nil
	}
	names, err := orderedColumns(schema, filters)
	if err != nil {
		return "", err
	}

	conditions := make([]string, 0, len(names))
	for _, name := range names {
		qualified := schema.TableName() + "." + name
		value := filters[name]
		if isNull(value) {
			conditions = append(conditions, qualified+" IS NULL")
			continue
		}
		lit, err := Literal(value)
		if err != nil {
			return "", fmt.Errorf("filter %s: %w", name, err)
		}
		conditions = append(conditions, qualified+"="+lit)
	}
	return " WHERE " + strings.Join(conditions, " AND "), nil
}

// orderedColumns validates the keys of values against the schema and returns them in
// schema column order.
func orderedColumns(schema *models.Schema, values models.Values) ([]string, error) {
	names := make([]string, 0, len(values))
	for name := range values {
		if !schema.HasColumn(name) {
			return nil, fmt.Errorf("%w: %s has no column %q", models.ErrUnknownColumn, schema.Entity(), name)
		}
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return schema.Position(names[i]) < schema.Position(names[j])
	})
	return names, nil
}

func isNull(v any) bool {
	lit, err := Literal(v)
	return err == nil && lit == nullLiteral
}
