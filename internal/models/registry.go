package models

import (
	"fmt"
	"strings"
	"sync"

	"jaguarundi/internal/utils"
)

// Registry holds the schemas declared at startup. Schemas are immutable once
// registered, and the registry is safe for concurrent lookups.
type Registry struct {
	mu       sync.RWMutex
	byEntity map[string]*Schema
	byTable  map[string]*Schema
	order    []*Schema
}

func NewRegistry() *Registry {
	return &Registry{
		byEntity: make(map[string]*Schema),
		byTable:  make(map[string]*Schema),
	}
}

// Register validates the declared columns of an entity and freezes them into a Schema.
// The implicit primary key is prepended unless the entity declares its own id column.
func (r *Registry) Register(entity string, columns ...Column) (*Schema, error) {
	if err := validateName("entity", entity); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	table := TableName(entity)
	if err := validateName("table", table); err != nil {
		return nil, err
	}
	if _, exists := r.byEntity[strings.ToLower(entity)]; exists {
		return nil, fmt.Errorf("%w: entity %s is already registered", ErrSchemaDefinition, entity)
	}
	if _, exists := r.byTable[table]; exists {
		return nil, fmt.Errorf("%w: table %s is already registered", ErrSchemaDefinition, table)
	}

	schema := &Schema{
		entity:  entity,
		table:   table,
		index:   make(map[string]int, len(columns)+1),
		byTable: make(map[string]Relation),
	}

	primaryKey := implicitPrimaryKey()
	declared := make([]Column, 0, len(columns))
	for _, col := range columns {
		if col.Name == PrimaryKeyName {
			primaryKey = col
			continue
		}
		declared = append(declared, col)
	}

	for i, col := range append([]Column{primaryKey}, declared...) {
		if err := r.validateColumn(entity, col); err != nil {
			return nil, err
		}
		if _, dup := schema.index[col.Name]; dup {
			return nil, fmt.Errorf("%w: %s.%s is declared twice", ErrSchemaDefinition, entity, col.Name)
		}
		schema.index[col.Name] = i
		schema.columns = append(schema.columns, col)

		if col.IsRelation() {
			target := col.ForeignKey.TableName()
			if _, dup := schema.byTable[target]; dup {
				return nil, fmt.Errorf("%w: %s has more than one relation to %s",
					ErrSchemaDefinition, entity, col.ForeignKey.Entity())
			}
			rel := Relation{Column: col.Name, Schema: col.ForeignKey}
			schema.relations = append(schema.relations, rel)
			schema.byTable[target] = rel
		}
	}

	r.byEntity[strings.ToLower(entity)] = schema
	r.byTable[table] = schema
	r.order = append(r.order, schema)
	return schema, nil
}

// MustRegister is like Register but panics on an invalid declaration.
func (r *Registry) MustRegister(entity string, columns ...Column) *Schema {
	schema, err := r.Register(entity, columns...)
	if err != nil {
		panic(err)
	}
	return schema
}

func (r *Registry) validateColumn(entity string, col Column) error {
	if err := validateName("column", col.Name); err != nil {
		return err
	}
	if utils.IsReservedWord(col.Name) {
		return fmt.Errorf("%w: %s.%s: %q is an SQL keyword", ErrSchemaDefinition, entity, col.Name, col.Name)
	}
	if col.Type == "" && col.ForeignKey == nil {
		return fmt.Errorf("%w: %s.%s has neither a type nor a foreign key", ErrSchemaDefinition, entity, col.Name)
	}
	if col.PrimaryKey && col.Name != PrimaryKeyName {
		return fmt.Errorf("%w: %s.%s: only %q can be the primary key",
			ErrSchemaDefinition, entity, col.Name, PrimaryKeyName)
	}
	if col.Name == PrimaryKeyName && !col.PrimaryKey {
		return fmt.Errorf("%w: %s.%s must be declared as the primary key", ErrSchemaDefinition, entity, col.Name)
	}
	if col.AutoIncrement && !col.PrimaryKey {
		return fmt.Errorf("%w: %s.%s: AUTOINCREMENT requires PRIMARY KEY", ErrSchemaDefinition, entity, col.Name)
	}
	if col.ForeignKey != nil {
		if col.PrimaryKey {
			return fmt.Errorf("%w: %s.%s: the primary key cannot be a foreign key", ErrSchemaDefinition, entity, col.Name)
		}
		if registered, ok := r.byTable[col.ForeignKey.TableName()]; !ok || registered != col.ForeignKey {
			return fmt.Errorf("%w: %s.%s references %s, which is not registered here",
				ErrSchemaDefinition, entity, col.Name, col.ForeignKey.Entity())
		}
	}
	return nil
}

func validateName(kind, name string) error {
	if !utils.IsValidIdentifier(name) {
		return fmt.Errorf("%w: invalid %s name %q", ErrSchemaDefinition, kind, name)
	}
	if strings.Contains(name, AliasSeparator) {
		return fmt.Errorf("%w: %s name %q contains the reserved separator %q",
			ErrSchemaDefinition, kind, name, AliasSeparator)
	}
	return nil
}

// Lookup finds a schema by entity name, ignoring case.
func (r *Registry) Lookup(entity string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.byEntity[strings.ToLower(entity)]
	return schema, ok
}

// Schemas returns every schema in registration order.
func (r *Registry) Schemas() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Schema, len(r.order))
	copy(out, r.order)
	return out
}
