// Package catalog exposes the fixed-text metadata and data operations of the
// server: schema listings, object definitions, and table CRUD. Nothing here
// does dynamic typing; values pass straight through to driver binds.
package catalog

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/hazyhaar/sqlbridge/internal/engine"
)

type Catalog struct {
	provider engine.ConnectionProvider
	logger   *slog.Logger
}

func New(provider engine.ConnectionProvider, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{provider: provider, logger: logger}
}

func (c *Catalog) query(ctx context.Context, database, stmt string, args ...any) (engine.RowSet, error) {
	db, err := c.provider.Acquire(ctx, database)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	sets, err := engine.CollectRowSets(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return engine.RowSet{}, nil
	}
	return sets[0], nil
}

func (c *Catalog) ListDatabases(ctx context.Context) (engine.RowSet, error) {
	return c.query(ctx, "", `
		SELECT name, database_id, state_desc, recovery_model_desc
		FROM sys.databases
		ORDER BY name`)
}

func (c *Catalog) ListTables(ctx context.Context, database, schema string) (engine.RowSet, error) {
	return c.query(ctx, database, `
		SELECT s.name AS [schema], t.name AS [table], t.create_date, t.modify_date
		FROM sys.tables t
		JOIN sys.schemas s ON s.schema_id = t.schema_id
		WHERE @schema = '' OR s.name = @schema
		ORDER BY s.name, t.name`,
		sql.Named("schema", schema))
}

// DescribeTable lists a table's columns. A table with no columns does not
// exist, so an empty result is NotFound.
func (c *Catalog) DescribeTable(ctx context.Context, table, database string) (engine.RowSet, error) {
	ref := engine.ParseRoutine(table)
	set, err := c.query(ctx, database, `
		SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE, CHARACTER_MAXIMUM_LENGTH,
		       NUMERIC_PRECISION, NUMERIC_SCALE, COLUMN_DEFAULT
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_NAME = @name AND (@schema = '' OR TABLE_SCHEMA = @schema)
		ORDER BY ORDINAL_POSITION`,
		sql.Named("name", ref.Name), sql.Named("schema", ref.Schema))
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, &engine.NotFoundError{Object: table}
	}
	return set, nil
}

func (c *Catalog) ListViews(ctx context.Context, database string) (engine.RowSet, error) {
	return c.query(ctx, database, `
		SELECT s.name AS [schema], v.name AS [view], v.create_date, v.modify_date
		FROM sys.views v
		JOIN sys.schemas s ON s.schema_id = v.schema_id
		ORDER BY s.name, v.name`)
}

func (c *Catalog) ListProcedures(ctx context.Context, database string) (engine.RowSet, error) {
	return c.query(ctx, database, `
		SELECT s.name AS [schema], p.name AS [procedure], p.create_date, p.modify_date
		FROM sys.procedures p
		JOIN sys.schemas s ON s.schema_id = p.schema_id
		ORDER BY s.name, p.name`)
}

func (c *Catalog) ListFunctions(ctx context.Context, database string) (engine.RowSet, error) {
	return c.query(ctx, database, `
		SELECT s.name AS [schema], o.name AS [function], o.type_desc, o.create_date, o.modify_date
		FROM sys.objects o
		JOIN sys.schemas s ON s.schema_id = o.schema_id
		WHERE o.type IN ('FN', 'IF', 'TF')
		ORDER BY s.name, o.name`)
}

// RoutineDefinition returns the T-SQL source of a routine or view.
func (c *Catalog) RoutineDefinition(ctx context.Context, routine, database string) (map[string]any, error) {
	db, err := c.provider.Acquire(ctx, database)
	if err != nil {
		return nil, err
	}

	ref := engine.ParseRoutine(routine)
	var definition sql.NullString
	err = db.QueryRowContext(ctx,
		`SELECT OBJECT_DEFINITION(OBJECT_ID(@name))`,
		sql.Named("name", ref.Quoted())).Scan(&definition)
	if err != nil {
		return nil, err
	}
	if !definition.Valid {
		return nil, &engine.NotFoundError{Object: routine}
	}
	return map[string]any{"name": ref.Quoted(), "definition": definition.String}, nil
}

// ViewDefinition is RoutineDefinition for views; SQL Server stores both in
// sys.sql_modules.
func (c *Catalog) ViewDefinition(ctx context.Context, view, database string) (map[string]any, error) {
	return c.RoutineDefinition(ctx, view, database)
}
