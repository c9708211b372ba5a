package models

import "strings"

const (
	// PrimaryKeyName is the column every schema is keyed by.
	PrimaryKeyName = "id"
	// TableSuffix is appended to the lowercased entity name to form the table name.
	TableSuffix = "_tbl"
	// AliasSeparator joins table and column in select aliases. Identifiers may not contain it.
	AliasSeparator = "__"

	defaultKeyType = "INTEGER"
)

// Column describes one table column. A column must carry a Type, a ForeignKey, or both.
type Column struct {
	Name          string
	Type          string
	Nullable      bool
	PrimaryKey    bool
	AutoIncrement bool
	// ForeignKey references the schema whose primary key this column stores.
	ForeignKey *Schema
}

// IsRelation reports whether the column references another schema.
func (c Column) IsRelation() bool {
	return c.ForeignKey != nil
}

// SQLType returns the declared type, or the referenced primary key type for an
// untyped foreign key column.
func (c Column) SQLType() string {
	if c.Type != "" {
		return c.Type
	}
	if c.ForeignKey != nil {
		return c.ForeignKey.PrimaryKey().SQLType()
	}
	return ""
}

// Relation is a foreign key column together with the schema it references.
type Relation struct {
	Column string
	Schema *Schema
}

// Schema is the frozen declaration of one entity. Build it with Registry.Register.
type Schema struct {
	entity    string
	table     string
	columns   []Column
	index     map[string]int
	relations []Relation
	byTable   map[string]Relation
}

// TableName derives the table name of an entity.
func TableName(entity string) string {
	return strings.ToLower(entity) + TableSuffix
}

// EntityStem strips the table suffix from a table name.
func EntityStem(table string) string {
	return strings.TrimSuffix(table, TableSuffix)
}

func implicitPrimaryKey() Column {
	return Column{
		Name:          PrimaryKeyName,
		Type:          defaultKeyType,
		PrimaryKey:    true,
		AutoIncrement: true,
	}
}

func (s *Schema) Entity() string {
	return s.entity
}

func (s *Schema) TableName() string {
	return s.table
}

// Columns returns the columns in DDL order, primary key first.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

func (s *Schema) ColumnNames() []string {
	names := make([]string, 0, len(s.columns))
	for _, c := range s.columns {
		names = append(names, c.Name)
	}
	return names
}

func (s *Schema) Column(name string) (Column, bool) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, false
	}
	return s.columns[i], true
}

func (s *Schema) HasColumn(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Position returns the declaration position of a column, or -1.
func (s *Schema) Position(name string) int {
	i, ok := s.index[name]
	if !ok {
		return -1
	}
	return i
}

func (s *Schema) PrimaryKey() Column {
	return s.columns[s.index[PrimaryKeyName]]
}

// Relations returns the foreign key columns in declaration order.
func (s *Schema) Relations() []Relation {
	out := make([]Relation, len(s.relations))
	copy(out, s.relations)
	return out
}

func (s *Schema) Relation(column string) (Relation, bool) {
	for _, rel := range s.relations {
		if rel.Column == column {
			return rel, true
		}
	}
	return Relation{}, false
}

// RelationForTable maps a joined table back to the relation that joined it.
func (s *Schema) RelationForTable(table string) (Relation, bool) {
	rel, ok := s.byTable[table]
	return rel, ok
}
