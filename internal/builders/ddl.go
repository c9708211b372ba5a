package builders

import (
	"fmt"
	"strings"

	"jaguarundi/internal/models"
)

// CreateTable renders the CREATE TABLE statement of a schema. Column definitions keep
// schema order with the primary key first; FOREIGN KEY clauses follow all columns.
func CreateTable(schema *models.Schema) string {
	var columnDefs, foreignKeys []string

	for _, col := range schema.Columns() {
		columnDefs = append(columnDefs, columnDefinition(col))

		if col.IsRelation() {
			foreignKeys = append(foreignKeys, fmt.Sprintf("FOREIGN KEY(%s) REFERENCES %s(%s)",
				col.Name,
				col.ForeignKey.TableName(),
				models.PrimaryKeyName,
			))
		}
	}

	defs := append(columnDefs, foreignKeys...)
	return fmt.Sprintf("CREATE TABLE %s (%s);", schema.TableName(), strings.Join(defs, ", "))
}

func DropTable(schema *models.Schema) string {
	return fmt.Sprintf("DROP TABLE %s;", schema.TableName())
}

// columnDefinition emits "<name> <type>[ NOT NULL][ PRIMARY KEY][ AUTOINCREMENT]".
func columnDefinition(col models.Column) string {
	parts := []string{col.Name, col.SQLType()}

	if !col.Nullable {
		parts = append(parts, "NOT NULL")
	}

	if col.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}

	if col.AutoIncrement {
		parts = append(parts, "AUTOINCREMENT")
	}

	return strings.Join(parts, " ")
}
