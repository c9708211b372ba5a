package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"jaguarundi/internal/database"
	"jaguarundi/internal/models"
	"jaguarundi/internal/repositories"
)

var ErrUnknownEntity = errors.New("unknown entity")

// EntityService resolves entities by name and runs repository operations on the
// shared connection.
type EntityService struct {
	registry *models.Registry
	conn     database.Conn
	logger   *log.Logger
	repos    map[*models.Schema]*repositories.ModelRepository
}

func NewEntityService(registry *models.Registry, conn database.Conn, logger *log.Logger, printRequests bool) *EntityService {
	if logger == nil {
		logger = log.Default()
	}
	repos := make(map[*models.Schema]*repositories.ModelRepository)
	for _, schema := range registry.Schemas() {
		repos[schema] = repositories.NewModelRepository(schema, logger, printRequests)
	}
	return &EntityService{
		registry: registry,
		conn:     conn,
		logger:   logger,
		repos:    repos,
	}
}

func (s *EntityService) repository(entity string) (*repositories.ModelRepository, error) {
	schema, ok := s.registry.Lookup(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return s.repos[schema], nil
}

// CreateTables creates every registered table in registration order. A failing
// table does not stop the others; all failures are returned joined.
func (s *EntityService) CreateTables(ctx context.Context) error {
	var errs []error
	for _, schema := range s.registry.Schemas() {
		if err := s.repos[schema].CreateTable(ctx, s.conn); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		s.logger.Printf("%d of %d tables could not be created", len(errs), len(s.repos))
	}
	return errors.Join(errs...)
}

func (s *EntityService) CreateTable(ctx context.Context, entity string) error {
	repo, err := s.repository(entity)
	if err != nil {
		return err
	}
	return repo.CreateTable(ctx, s.conn)
}

func (s *EntityService) DropTable(ctx context.Context, entity string) error {
	repo, err := s.repository(entity)
	if err != nil {
		return err
	}
	return repo.DropTable(ctx, s.conn)
}

// List returns every record of entity, or only those matching filters when any are
// given. Filter values arrive as text and are converted by column type.
func (s *EntityService) List(ctx context.Context, entity string, filters map[string]string, only []string) ([]*models.Record, error) {
	repo, err := s.repository(entity)
	if err != nil {
		return nil, err
	}
	if len(filters) == 0 {
		return repo.All(ctx, s.conn, only...)
	}

	values := make(map[string]any, len(filters))
	for k, v := range filters {
		values[k] = v
	}
	coerced, err := coerceValues(repo.Schema(), values)
	if err != nil {
		return nil, err
	}
	return repo.Filter(ctx, s.conn, coerced, only...)
}

func (s *EntityService) Get(ctx context.Context, entity, id string, only []string) (*models.Record, error) {
	repo, err := s.repository(entity)
	if err != nil {
		return nil, err
	}
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, s.conn, models.Values{models.PrimaryKeyName: key}, only...)
}

func (s *EntityService) Create(ctx context.Context, entity string, values map[string]any) (*models.Record, error) {
	repo, err := s.repository(entity)
	if err != nil {
		return nil, err
	}
	coerced, err := coerceValues(repo.Schema(), values)
	if err != nil {
		return nil, err
	}
	return repo.Create(ctx, s.conn, coerced)
}

// Update loads the record with the given id, applies values and returns the
// refreshed record.
func (s *EntityService) Update(ctx context.Context, entity, id string, values map[string]any) (*models.Record, error) {
	repo, err := s.repository(entity)
	if err != nil {
		return nil, err
	}
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}
	coerced, err := coerceValues(repo.Schema(), values)
	if err != nil {
		return nil, err
	}

	rec, err := repo.Get(ctx, s.conn, models.Values{models.PrimaryKeyName: key})
	if err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, s.conn, rec, coerced); err != nil {
		return nil, err
	}
	return rec, nil
}

func parseID(id string) (int64, error) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not an integer", models.ErrUnsupportedValue, id)
	}
	return key, nil
}

type affinity int

const (
	affinityNumeric affinity = iota
	affinityInteger
	affinityText
	affinityReal
	affinityBlob
)

// columnAffinity applies SQLite's type-name rules. Foreign keys store the referenced
// primary key and so are integers.
func columnAffinity(col models.Column) affinity {
	t := strings.ToUpper(col.SQLType())
	switch {
	case strings.Contains(t, "INT"):
		return affinityInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return affinityText
	case t == "", strings.Contains(t, "BLOB"):
		return affinityBlob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return affinityReal
	default:
		return affinityNumeric
	}
}

// coerceValues checks every name against the schema and converts text to the
// column's affinity. A relation column also accepts the {"id": ...} object that
// records render it as.
func coerceValues(schema *models.Schema, values map[string]any) (models.Values, error) {
	out := make(models.Values, len(values))
	for name, value := range values {
		col, ok := schema.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no column %q", models.ErrUnknownColumn, schema.Entity(), name)
		}

		if nested, isMap := value.(map[string]any); isMap && col.IsRelation() {
			id, ok := nested[models.PrimaryKeyName]
			if !ok {
				return nil, fmt.Errorf("%w: %s.%s expects an object with an id", models.ErrUnsupportedValue, schema.Entity(), name)
			}
			value = id
		}

		converted, err := coerce(col, value)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", schema.Entity(), name, err)
		}
		out[name] = converted
	}
	return out, nil
}

func coerce(col models.Column, value any) (any, error) {
	var text string
	switch v := value.(type) {
	case string:
		text = v
	case json.Number:
		text = v.String()
	default:
		return value, nil
	}
	if text == "" {
		return nil, nil
	}

	switch columnAffinity(col) {
	case affinityInteger:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", models.ErrUnsupportedValue, text)
		}
		return i, nil
	case affinityReal:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", models.ErrUnsupportedValue, text)
		}
		return f, nil
	case affinityNumeric:
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f, nil
		}
		if b, err := strconv.ParseBool(text); err == nil {
			return b, nil
		}
		return text, nil
	case affinityText:
		return text, nil
	default:
		return value, nil
	}
}
