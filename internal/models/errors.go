package models

import "errors"

var (
	// ErrSchemaDefinition is returned by Registry.Register for an invalid entity declaration.
	ErrSchemaDefinition = errors.New("schema definition error")
	// ErrDDLExecution is returned when CREATE TABLE or DROP TABLE fails to execute.
	ErrDDLExecution = errors.New("ddl execution error")
	// ErrIntegrity is returned when an INSERT violates a table constraint.
	ErrIntegrity = errors.New("integrity error")
	// ErrQueryExecution is returned when a SELECT or UPDATE fails at the connection layer.
	ErrQueryExecution = errors.New("query execution error")
	// ErrNotFound is returned by Get when no row matches the filter.
	ErrNotFound = errors.New("record not found")
	// ErrMultipleResults is returned by Get when the filter matches more than one row.
	ErrMultipleResults = errors.New("more than one record found")
	// ErrPrecondition is returned when Update or Save is called on a record without a
	// primary key, or with nothing to write.
	ErrPrecondition = errors.New("precondition failed")
	// ErrUnknownColumn is returned when a name does not belong to the schema.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnsupportedValue is returned for values that have no SQL literal form.
	ErrUnsupportedValue = errors.New("unsupported value")
)
