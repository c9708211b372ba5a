package models

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

// Values maps column names to values. Statements built from Values always follow
// schema column order, never map order.
type Values map[string]any

// Record is one row of a schema: a value slot per column and one nested record per
// relation. A Record owns its nested records.
type Record struct {
	schema    *Schema
	values    map[string]any
	relations map[string]*Record
}

func NewRecord(schema *Schema) *Record {
	return &Record{
		schema:    schema,
		values:    make(map[string]any),
		relations: make(map[string]*Record),
	}
}

// NewRecordFrom builds a record from values, rejecting names outside the schema.
func NewRecordFrom(schema *Schema, values Values) (*Record, error) {
	rec := NewRecord(schema)
	for name, value := range values {
		if err := rec.Set(name, value); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func (r *Record) Schema() *Schema {
	return r.schema
}

// ID returns the primary key, if the record carries one.
func (r *Record) ID() (int64, bool) {
	v, ok := r.values[PrimaryKeyName]
	if !ok || v == nil {
		return 0, false
	}
	return ToInt64(v)
}

func (r *Record) Get(name string) any {
	return r.values[name]
}

func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Set assigns a column value. Assigning a relation column a key other than the
// loaded nested record's id drops that nested record.
func (r *Record) Set(name string, value any) error {
	if !r.schema.HasColumn(name) {
		return fmt.Errorf("%w: %s has no column %q", ErrUnknownColumn, r.schema.Entity(), name)
	}
	r.values[name] = value

	if nested, ok := r.relations[name]; ok && !nested.hasID(value) {
		delete(r.relations, name)
	}
	return nil
}

func (r *Record) hasID(key any) bool {
	id, ok := r.ID()
	if !ok {
		return false
	}
	k, ok := ToInt64(key)
	return ok && k == id
}

// Related returns the nested record loaded through the relation column, or nil.
func (r *Record) Related(column string) *Record {
	return r.relations[column]
}

func (r *Record) SetRelated(column string, rec *Record) error {
	rel, ok := r.schema.Relation(column)
	if !ok {
		return fmt.Errorf("%w: %s has no relation %q", ErrUnknownColumn, r.schema.Entity(), column)
	}
	if rec != nil && rec.schema != rel.Schema {
		return fmt.Errorf("%w: relation %s.%s holds %s records, got %s",
			ErrUnknownColumn, r.schema.Entity(), column, rel.Schema.Entity(), rec.schema.Entity())
	}
	if rec == nil {
		delete(r.relations, column)
		return nil
	}
	r.relations[column] = rec
	return nil
}

// Values returns a copy of the column values present on the record.
func (r *Record) Values() Values {
	out := make(Values, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Map renders the record as nested maps. Relation columns always render as an
// object: the loaded nested record, or {"id": fk} when only the key is known.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.values)+len(r.relations))
	for _, col := range r.schema.columns {
		value, present := r.values[col.Name]
		nested := r.relations[col.Name]
		switch {
		case nested != nil:
			out[col.Name] = nested.Map()
		case !present:
		case col.IsRelation() && value != nil:
			out[col.Name] = map[string]any{PrimaryKeyName: value}
		default:
			out[col.Name] = value
		}
	}
	return out
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// Decode copies the record into a typed struct. Fields are matched by their `db`
// tag, falling back to the field name; relations decode into nested structs.
func (r *Record) Decode(dest any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           dest,
		TagName:          "db",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(r.Map()); err != nil {
		return fmt.Errorf("failed to decode %s record: %w", r.schema.Entity(), err)
	}
	return nil
}

// ToInt64 converts the integer shapes a key can arrive in: driver int64, Go ints,
// json.Number and decimal strings.
func ToInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}
