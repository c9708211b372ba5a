// Package builders renders the SQL statements of a declared schema.
//
// Every function here is pure: it takes a *models.Schema plus values and returns the
// statement text, never touching a connection. Statement shapes:
//
//	CREATE TABLE <table> (<col_defs>, <fk_defs>);
//	DROP TABLE <table>;
//	INSERT INTO <table>(<cols>) VALUES(<vals>);
//	SELECT <aliased_cols> FROM <table> [LEFT JOIN <rel_table> ON <table>.<fk>=<rel_table>.id ...] [WHERE ...];
//	UPDATE <table> SET <col>=<val>[, ...] WHERE <table>.id=<id>;
//
// Selected columns are aliased "<table>__<column>" so that models.Hydrate can split a
// joined row back into the root record and one nested record per relation.
//
// Values are interpolated as literals (see Literal) rather than bound, so the
// statement text is exactly what runs. Identifiers are safe because the registry only
// accepts plain identifiers, and every value key is checked against the schema.
package builders
