package models

import (
	"fmt"
	"strings"
)

// Hydrate rebuilds a record from one aliased row (keys "table__column"). Columns of
// the root table become root values, columns of a joined table become the nested
// record of the relation that joined it. A relation whose columns are all NULL was
// not matched by the LEFT JOIN and gets no nested record.
func Hydrate(schema *Schema, row map[string]any) (*Record, error) {
	root := NewRecord(schema)
	nested := make(map[string]map[string]any)

	for key, value := range row {
		table, column, ok := strings.Cut(key, AliasSeparator)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not an aliased column", ErrUnknownColumn, key)
		}
		value = normalizeValue(value)

		if table == schema.TableName() {
			if err := root.Set(column, value); err != nil {
				return nil, err
			}
			continue
		}

		rel, ok := schema.RelationForTable(table)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not joined to %s", ErrUnknownColumn, table, schema.TableName())
		}
		if !rel.Schema.HasColumn(column) {
			return nil, fmt.Errorf("%w: %s has no column %q", ErrUnknownColumn, rel.Schema.Entity(), column)
		}
		if nested[rel.Column] == nil {
			nested[rel.Column] = make(map[string]any)
		}
		nested[rel.Column][column] = value
	}

	for _, rel := range schema.relations {
		values, ok := nested[rel.Column]
		if !ok || allNull(values) {
			continue
		}
		child := NewRecord(rel.Schema)
		for name, value := range values {
			child.values[name] = value
		}
		root.relations[rel.Column] = child
	}
	return root, nil
}

// HydrateAll hydrates rows independently, keeping their order.
func HydrateAll(schema *Schema, rows []map[string]any) ([]*Record, error) {
	records := make([]*Record, 0, len(rows))
	for i, row := range rows {
		rec, err := Hydrate(schema, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func allNull(values map[string]any) bool {
	for _, v := range values {
		if v != nil {
			return false
		}
	}
	return true
}
