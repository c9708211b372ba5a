package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"jaguarundi/internal/models"
	"jaguarundi/internal/utils"
)

// SchemaFile is the YAML declaration of every entity, in dependency order: an entity
// can only reference entities declared above it.
type SchemaFile struct {
	Entities []EntityDeclaration `yaml:"entities"`
}

type EntityDeclaration struct {
	Name    string              `yaml:"name"`
	Columns []ColumnDeclaration `yaml:"columns"`
}

type ColumnDeclaration struct {
	Name          string `yaml:"name"`
	Type          string `yaml:"type,omitempty"`
	Nullable      bool   `yaml:"nullable,omitempty"`
	PrimaryKey    bool   `yaml:"primary_key,omitempty"`
	AutoIncrement bool   `yaml:"auto_increment,omitempty"`
	// References names the entity this column is a foreign key to.
	References string `yaml:"references,omitempty"`
}

// ColumnSummary and EntitySummary describe a registered schema to API clients.
type ColumnSummary struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Nullable      bool   `json:"nullable"`
	PrimaryKey    bool   `json:"primary_key"`
	AutoIncrement bool   `json:"auto_increment"`
	References    string `json:"references,omitempty"`
}

type EntitySummary struct {
	Entity  string          `json:"entity"`
	Table   string          `json:"table"`
	Columns []ColumnSummary `json:"columns"`
}

type SchemaService struct {
	registry *models.Registry
}

func NewSchemaService(registry *models.Registry) *SchemaService {
	return &SchemaService{registry: registry}
}

// LoadSchemaFile reads a YAML schema declaration from disk.
func LoadSchemaFile(path string) (*models.Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer f.Close()

	registry, err := LoadSchemas(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return registry, nil
}

// LoadSchemas decodes a YAML schema declaration and registers every entity in order.
func LoadSchemas(r io.Reader) (*models.Registry, error) {
	var file SchemaFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", models.ErrSchemaDefinition, err)
	}

	registry := models.NewRegistry()
	for _, entity := range file.Entities {
		columns := make([]models.Column, 0, len(entity.Columns))
		for _, decl := range entity.Columns {
			col := models.Column{
				Name:          decl.Name,
				Type:          decl.Type,
				Nullable:      decl.Nullable,
				PrimaryKey:    decl.PrimaryKey,
				AutoIncrement: decl.AutoIncrement,
			}
			if decl.References != "" {
				target, ok := registry.Lookup(decl.References)
				if !ok {
					return nil, fmt.Errorf("%w: %s.%s references %s, which is not declared before it",
						models.ErrSchemaDefinition, entity.Name, decl.Name, decl.References)
				}
				col.ForeignKey = target
			}
			columns = append(columns, col)
		}
		if _, err := registry.Register(entity.Name, columns...); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (s *SchemaService) Registry() *models.Registry {
	return s.registry
}

// Entities lists the registered schemas in registration order.
func (s *SchemaService) Entities() []EntitySummary {
	schemas := s.registry.Schemas()
	out := make([]EntitySummary, 0, len(schemas))
	for _, schema := range schemas {
		summary := EntitySummary{Entity: schema.Entity(), Table: schema.TableName()}
		for _, col := range schema.Columns() {
			cs := ColumnSummary{
				Name:          col.Name,
				Type:          col.SQLType(),
				Nullable:      col.Nullable,
				PrimaryKey:    col.PrimaryKey,
				AutoIncrement: col.AutoIncrement,
			}
			if col.IsRelation() {
				cs.References = col.ForeignKey.Entity()
			}
			summary.Columns = append(summary.Columns, cs)
		}
		out = append(out, summary)
	}
	return out
}

// Visualize renders the registry as a Mermaid ER diagram.
func (s *SchemaService) Visualize() string {
	return generateMermaid(s.registry.Schemas())
}

func generateMermaid(schemas []*models.Schema) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")

	seen := make(map[string]bool)
	wrote := false
	for _, schema := range schemas {
		for _, rel := range schema.Relations() {
			key := schema.TableName() + ":" + rel.Schema.TableName()
			if seen[key] {
				continue
			}
			seen[key] = true
			wrote = true

			col, _ := schema.Column(rel.Column)
			relType := "}o--||"
			if col.Nullable {
				relType = "}o--o|"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s : \"%s\"\n",
				strings.ToUpper(schema.TableName()),
				relType,
				strings.ToUpper(rel.Schema.TableName()),
				rel.Column))
		}
	}
	if wrote {
		sb.WriteString("\n")
	}

	for _, schema := range schemas {
		sb.WriteString(fmt.Sprintf("    %s {\n", strings.ToUpper(schema.TableName())))

		for _, col := range schema.Columns() {
			var annotations []string
			if col.PrimaryKey {
				annotations = append(annotations, "PK")
			}
			if col.IsRelation() {
				annotations = append(annotations, "FK")
			}

			line := fmt.Sprintf("        %s %s", simplifyDataType(col.SQLType()), col.Name)
			if len(annotations) > 0 {
				line += " " + strings.Join(annotations, ",")
			}
			sb.WriteString(line + "\n")
		}

		sb.WriteString("    }\n\n")
	}

	return sb.String()
}

// simplifyDataType maps a declared SQLite type to a single Mermaid attribute token.
func simplifyDataType(dataType string) string {
	dt := strings.ToLower(strings.TrimSpace(dataType))
	if i := strings.IndexByte(dt, '('); i >= 0 {
		dt = strings.TrimSpace(dt[:i])
	}

	switch {
	case dt == "integer" || dt == "int":
		return "int"
	case dt == "bigint":
		return "bigint"
	case strings.HasPrefix(dt, "varchar") || strings.HasPrefix(dt, "character varying"):
		return "varchar"
	case strings.HasPrefix(dt, "char") || strings.HasPrefix(dt, "character"):
		return "char"
	case dt == "text" || dt == "clob":
		return "text"
	case dt == "datetime" || strings.HasPrefix(dt, "timestamp"):
		return "timestamp"
	case dt == "date":
		return "date"
	case dt == "boolean" || dt == "bool":
		return "boolean"
	case dt == "real" || dt == "float":
		return "real"
	case dt == "double" || dt == "double precision":
		return "double"
	case dt == "blob":
		return "blob"
	case dt == "":
		return "any"
	default:
		token := strings.Join(strings.Fields(dt), "_")
		if !utils.IsValidIdentifier(token) {
			return "any"
		}
		return token
	}
}
