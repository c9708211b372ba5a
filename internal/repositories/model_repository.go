package repositories

import (
	"context"
	"errors"
	"fmt"
	"log"

	"jaguarundi/internal/builders"
	"jaguarundi/internal/database"
	"jaguarundi/internal/models"
)

// ModelRepository runs the statements of one schema against a caller-supplied
// connection. It never opens, commits or closes the connection itself.
type ModelRepository struct {
	schema        *models.Schema
	logger        *log.Logger
	printRequests bool
}

func NewModelRepository(schema *models.Schema, logger *log.Logger, printRequests bool) *ModelRepository {
	if logger == nil {
		logger = log.Default()
	}
	return &ModelRepository{
		schema:        schema,
		logger:        logger,
		printRequests: printRequests,
	}
}

func (r *ModelRepository) Schema() *models.Schema {
	return r.schema
}

// CreateTable executes the CREATE TABLE statement of the schema. Failure (for example
// an existing table) is logged and returned, never fatal.
func (r *ModelRepository) CreateTable(ctx context.Context, conn database.Conn) error {
	return r.execDDL(ctx, conn, "create table", builders.CreateTable(r.schema))
}

// DropTable executes DROP TABLE. An absent table is reported like any other failure.
func (r *ModelRepository) DropTable(ctx context.Context, conn database.Conn) error {
	return r.execDDL(ctx, conn, "drop table", builders.DropTable(r.schema))
}

func (r *ModelRepository) execDDL(ctx context.Context, conn database.Conn, op, query string) error {
	r.logQuery(query)
	if _, err := conn.ExecContext(ctx, query); err != nil {
		r.logger.Printf("%s %s failed: %v", op, r.schema.TableName(), err)
		return fmt.Errorf("%w: %s %s: %v", models.ErrDDLExecution, op, r.schema.TableName(), err)
	}
	return nil
}

// Create inserts one row and returns it as a record: the given values plus the
// generated primary key. Constraint violations are reported as ErrIntegrity.
func (r *ModelRepository) Create(ctx context.Context, conn database.Conn, values models.Values) (*models.Record, error) {
	rec, err := models.NewRecordFrom(r.schema, values)
	if err != nil {
		return nil, err
	}

	query, err := builders.Insert(r.schema, values)
	if err != nil {
		return nil, err
	}
	r.logQuery(query)

	result, err := conn.ExecContext(ctx, query)
	if err != nil {
		return nil, r.writeError("create", err)
	}

	if _, ok := rec.ID(); !ok {
		id, err := result.LastInsertId()
		if err != nil {
			r.logger.Printf("create %s: reading generated id failed: %v", r.schema.TableName(), err)
			return nil, fmt.Errorf("%w: create %s: %v", models.ErrQueryExecution, r.schema.TableName(), err)
		}
		if err := rec.Set(models.PrimaryKeyName, id); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// All returns every row, joined to its relations unless only restricts the columns.
func (r *ModelRepository) All(ctx context.Context, conn database.Conn, only ...string) ([]*models.Record, error) {
	return r.query(ctx, conn, builders.Query{Mode: builders.ModeAll, Only: only})
}

// Filter returns the rows matching every equality in filters. No match is an empty
// slice, not an error.
func (r *ModelRepository) Filter(ctx context.Context, conn database.Conn, filters models.Values, only ...string) ([]*models.Record, error) {
	return r.query(ctx, conn, builders.Query{Mode: builders.ModeFilter, Filters: filters, Only: only})
}

// Get returns the single row matching filters: ErrNotFound when there is none and
// ErrMultipleResults when the filter is not selective enough.
func (r *ModelRepository) Get(ctx context.Context, conn database.Conn, filters models.Values, only ...string) (*models.Record, error) {
	records, err := r.query(ctx, conn, builders.Query{Mode: builders.ModeOne, Filters: filters, Only: only})
	if err != nil {
		return nil, err
	}

	switch len(records) {
	case 0:
		return nil, fmt.Errorf("%w: %s matching %v", models.ErrNotFound, r.schema.Entity(), map[string]any(filters))
	case 1:
		return records[0], nil
	default:
		return nil, fmt.Errorf("%w: %d %s rows match %v", models.ErrMultipleResults, len(records), r.schema.Entity(), map[string]any(filters))
	}
}

func (r *ModelRepository) query(ctx context.Context, conn database.Conn, q builders.Query) ([]*models.Record, error) {
	query, err := builders.Select(r.schema, q)
	if err != nil {
		return nil, err
	}
	r.logQuery(query)

	rows, err := database.FetchAll(ctx, conn, query)
	if err != nil {
		r.logger.Printf("select %s (%s) failed: %v", r.schema.TableName(), q.Mode, err)
		return nil, fmt.Errorf("%w: select %s: %v", models.ErrQueryExecution, r.schema.TableName(), err)
	}
	return models.HydrateAll(r.schema, rows)
}

// Update writes values to the row keyed by the record's primary key. The record is
// refreshed only once the statement has succeeded.
func (r *ModelRepository) Update(ctx context.Context, conn database.Conn, rec *models.Record, values models.Values) error {
	if err := r.checkRecord(rec); err != nil {
		return err
	}
	id, ok := rec.ID()
	if !ok {
		return fmt.Errorf("%w: %s record has no primary key", models.ErrPrecondition, r.schema.Entity())
	}
	if _, exists := values[models.PrimaryKeyName]; exists {
		return fmt.Errorf("%w: the primary key of %s cannot be updated", models.ErrPrecondition, r.schema.Entity())
	}

	if err := r.execUpdate(ctx, conn, "update", id, values); err != nil {
		return err
	}

	for name, value := range values {
		if err := rec.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Save writes every schema column present on the record, except the primary key,
// back to its row.
func (r *ModelRepository) Save(ctx context.Context, conn database.Conn, rec *models.Record) error {
	if err := r.checkRecord(rec); err != nil {
		return err
	}
	id, ok := rec.ID()
	if !ok {
		return fmt.Errorf("%w: %s record has no primary key", models.ErrPrecondition, r.schema.Entity())
	}

	values := rec.Values()
	delete(values, models.PrimaryKeyName)
	return r.execUpdate(ctx, conn, "save", id, values)
}

func (r *ModelRepository) execUpdate(ctx context.Context, conn database.Conn, op string, id int64, values models.Values) error {
	query, err := builders.Update(r.schema, id, values)
	if err != nil {
		return err
	}
	r.logQuery(query)

	result, err := conn.ExecContext(ctx, query)
	if err != nil {
		return r.writeError(op, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("%w: %s with id %d", models.ErrNotFound, r.schema.Entity(), id)
	}
	return nil
}

func (r *ModelRepository) checkRecord(rec *models.Record) error {
	if rec == nil {
		return fmt.Errorf("%w: nil %s record", models.ErrPrecondition, r.schema.Entity())
	}
	if rec.Schema() != r.schema {
		return fmt.Errorf("%w: %s record passed to the %s repository",
			models.ErrPrecondition, rec.Schema().Entity(), r.schema.Entity())
	}
	return nil
}

func (r *ModelRepository) writeError(op string, err error) error {
	r.logger.Printf("%s %s failed: %v", op, r.schema.TableName(), err)
	if database.IsConstraintViolation(err) {
		return fmt.Errorf("%w: %s %s: %v", models.ErrIntegrity, op, r.schema.TableName(), err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s %s: %w", models.ErrQueryExecution, op, r.schema.TableName(), err)
	}
	return fmt.Errorf("%w: %s %s: %v", models.ErrQueryExecution, op, r.schema.TableName(), err)
}

func (r *ModelRepository) logQuery(query string) {
	if r.printRequests {
		r.logger.Println(query)
	}
}
