package builders

import (
	"fmt"
	"strings"

	"jaguarundi/internal/models"
)

// Insert renders "INSERT INTO <table>(<cols>) VALUES(<vals>);" with columns in schema
// order. An empty value set inserts a row of defaults.
func Insert(schema *models.Schema, values models.Values) (string, error) {
	if len(values) == 0 {
		return fmt.Sprintf("INSERT INTO %s DEFAULT VALUES;", schema.TableName()), nil
	}

	names, err := orderedColumns(schema, values)
	if err != nil {
		return "", err
	}

	literals := make([]string, 0, len(names))
	for _, name := range names {
		lit, err := Literal(values[name])
		if err != nil {
			return "", fmt.Errorf("column %s: %w", name, err)
		}
		literals = append(literals, lit)
	}

	return fmt.Sprintf("INSERT INTO %s(%s) VALUES(%s);",
		schema.TableName(),
		strings.Join(names, ", "),
		strings.Join(literals, ", "),
	), nil
}

// Update renders "UPDATE <table> SET <col>=<val>, ... WHERE <table>.id=<id>;".
func Update(schema *models.Schema, id int64, values models.Values) (string, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("%w: nothing to update on %s", models.ErrPrecondition, schema.Entity())
	}

	names, err := orderedColumns(schema, values)
	if err != nil {
		return "", err
	}

	assignments := make([]string, 0, len(names))
	for _, name := range names {
		lit, err := Literal(values[name])
		if err != nil {
			return "", fmt.Errorf("column %s: %w", name, err)
		}
		assignments = append(assignments, name+"="+lit)
	}

	return fmt.Sprintf("UPDATE %s SET %s WHERE %s.%s=%s;",
		schema.TableName(),
		strings.Join(assignments, ", "),
		schema.TableName(), models.PrimaryKeyName, FormatInt(id),
	), nil
}
