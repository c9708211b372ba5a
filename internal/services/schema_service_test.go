package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jaguarundi/internal/models"
)

const petSchemaYAML = `
entities:
  - name: Color
    columns:
      - name: name
        type: TEXT
  - name: Pet
    columns:
      - name: name
        type: TEXT
      - name: age
        type: INTEGER
        nullable: true
      - name: color
        references: Color
`

func TestLoadSchemas(t *testing.T) {
	registry, err := LoadSchemas(strings.NewReader(petSchemaYAML))
	require.NoError(t, err)

	pet, ok := registry.Lookup("pet")
	require.True(t, ok)
	assert.Equal(t, "pet_tbl", pet.TableName())
	assert.Equal(t, []string{"id", "name", "age", "color"}, pet.ColumnNames())

	rel, ok := pet.Relation("color")
	require.True(t, ok)
	assert.Equal(t, "Color", rel.Schema.Entity())

	age, _ := pet.Column("age")
	assert.True(t, age.Nullable)
}

func TestLoadSchemasRejectsForwardReference(t *testing.T) {
	_, err := LoadSchemas(strings.NewReader(`
entities:
  - name: Pet
    columns:
      - name: color
        references: Color
  - name: Color
    columns:
      - name: name
        type: TEXT
`))
	assert.ErrorIs(t, err, models.ErrSchemaDefinition)
}

func TestLoadSchemasRejectsUnknownKeys(t *testing.T) {
	_, err := LoadSchemas(strings.NewReader(`
entities:
  - name: Color
    columns:
      - name: name
        kind: TEXT
`))
	assert.ErrorIs(t, err, models.ErrSchemaDefinition)
}

func TestLoadSchemasRejectsUntypedColumn(t *testing.T) {
	_, err := LoadSchemas(strings.NewReader(`
entities:
  - name: Color
    columns:
      - name: name
`))
	assert.ErrorIs(t, err, models.ErrSchemaDefinition)
}

func TestLoadSchemaFileDemo(t *testing.T) {
	registry, err := LoadSchemaFile("../../schema.yaml")
	require.NoError(t, err)

	var names []string
	for _, schema := range registry.Schemas() {
		names = append(names, schema.Entity())
	}
	assert.Equal(t, []string{"Colors", "Classes", "Koalas"}, names)

	koalas, _ := registry.Lookup("Koalas")
	assert.Len(t, koalas.Relations(), 2)
}

func TestLoadSchemaFileMissing(t *testing.T) {
	_, err := LoadSchemaFile("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestEntities(t *testing.T) {
	registry, err := LoadSchemas(strings.NewReader(petSchemaYAML))
	require.NoError(t, err)

	entities := NewSchemaService(registry).Entities()
	require.Len(t, entities, 2)

	assert.Equal(t, "Color", entities[0].Entity)
	assert.Equal(t, "color_tbl", entities[0].Table)
	assert.Equal(t, ColumnSummary{
		Name:          "id",
		Type:          "INTEGER",
		PrimaryKey:    true,
		AutoIncrement: true,
	}, entities[0].Columns[0])

	assert.Equal(t, ColumnSummary{
		Name:       "color",
		Type:       "INTEGER",
		References: "Color",
	}, entities[1].Columns[3])
}

func TestVisualize(t *testing.T) {
	registry, err := LoadSchemas(strings.NewReader(petSchemaYAML))
	require.NoError(t, err)

	expected := `erDiagram
    PET_TBL }o--|| COLOR_TBL : "color"

    COLOR_TBL {
        int id PK
        text name
    }

    PET_TBL {
        int id PK
        text name
        int age
        int color FK
    }

`
	assert.Equal(t, expected, NewSchemaService(registry).Visualize())
}

func TestVisualizeWithoutRelations(t *testing.T) {
	registry := models.NewRegistry()
	registry.MustRegister("Tag", models.Column{Name: "label", Type: "VARCHAR(32)", Nullable: true})

	expected := `erDiagram
    TAG_TBL {
        int id PK
        varchar label
    }

`
	assert.Equal(t, expected, NewSchemaService(registry).Visualize())
}

func TestSimplifyDataType(t *testing.T) {
	cases := map[string]string{
		"INTEGER":          "int",
		"INT":              "int",
		"VARCHAR(255)":     "varchar",
		"CHAR":             "char",
		"TEXT":             "text",
		"DATETIME":         "timestamp",
		"BOOLEAN":          "boolean",
		"REAL":             "real",
		"NUMERIC(10,2)":    "numeric",
		"UNSIGNED BIG INT": "unsigned_big_int",
		"":                 "any",
	}
	for in, want := range cases {
		assert.Equal(t, want, simplifyDataType(in), in)
	}
}
