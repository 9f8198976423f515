package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hazyhaar/sqlbridge/internal/engine"
)

const defaultReadLimit = 100

// ReadData selects rows from one table with optional column projection and an
// equality WHERE map. Identifiers are bracket-quoted, values bound.
func (c *Catalog) ReadData(ctx context.Context, table, columnsCSV, whereJSON string, limit int, database string) (engine.RowSet, error) {
	stmt, args, err := readDataSQL(table, columnsCSV, whereJSON, limit)
	if err != nil {
		return nil, err
	}
	return c.query(ctx, database, stmt, args...)
}

// InsertData inserts one row described by a JSON object and reports rows
// affected.
func (c *Catalog) InsertData(ctx context.Context, table, dataJSON, database string) (int64, error) {
	stmt, args, err := insertDataSQL(table, dataJSON)
	if err != nil {
		return 0, err
	}
	return c.exec(ctx, database, stmt, args)
}

// UpdateData updates rows matching an equality WHERE map. The WHERE map is
// required: unconditional updates are refused.
func (c *Catalog) UpdateData(ctx context.Context, table, dataJSON, whereJSON, database string) (int64, error) {
	stmt, args, err := updateDataSQL(table, dataJSON, whereJSON)
	if err != nil {
		return 0, err
	}
	return c.exec(ctx, database, stmt, args)
}

// DeleteData deletes rows matching an equality WHERE map, which is required.
func (c *Catalog) DeleteData(ctx context.Context, table, whereJSON, database string) (int64, error) {
	stmt, args, err := deleteDataSQL(table, whereJSON)
	if err != nil {
		return 0, err
	}
	return c.exec(ctx, database, stmt, args)
}

// ExecuteQuery runs caller-supplied SQL with named binds and returns its row
// sets shaped like the procedure contract: one non-empty set as result_set,
// several as result_sets.
func (c *Catalog) ExecuteQuery(ctx context.Context, query, paramsJSON, database string) (map[string]any, error) {
	params, err := engine.DecodeParameters(paramsJSON)
	if err != nil {
		return nil, err
	}
	args := make([]any, 0, len(params))
	for _, p := range params {
		args = append(args, sql.Named(strings.TrimPrefix(p.Key, "@"), p.Value.Arg()))
	}

	db, err := c.provider.Acquire(ctx, database)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	sets, err := engine.CollectRowSets(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	var nonEmpty []engine.RowSet
	for _, s := range sets {
		if len(s) > 0 {
			nonEmpty = append(nonEmpty, s)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return map[string]any{"result_set": engine.RowSet{}}, nil
	case 1:
		return map[string]any{"result_set": nonEmpty[0]}, nil
	default:
		return map[string]any{"result_sets": nonEmpty}, nil
	}
}

func (c *Catalog) exec(ctx context.Context, database, stmt string, args []any) (int64, error) {
	db, err := c.provider.Acquire(ctx, database)
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func readDataSQL(table, columnsCSV, whereJSON string, limit int) (string, []any, error) {
	if limit <= 0 {
		limit = defaultReadLimit
	}

	projection := "*"
	if strings.TrimSpace(columnsCSV) != "" {
		var cols []string
		for _, col := range strings.Split(columnsCSV, ",") {
			cols = append(cols, engine.QuoteIdentifier(strings.TrimSpace(col)))
		}
		projection = strings.Join(cols, ", ")
	}

	where, args, err := whereClause(whereJSON, "w")
	if err != nil {
		return "", nil, err
	}

	stmt := fmt.Sprintf("SELECT TOP (%d) %s FROM %s%s", limit, projection, engine.ParseRoutine(table).Quoted(), where)
	return stmt, args, nil
}

func insertDataSQL(table, dataJSON string) (string, []any, error) {
	data, err := engine.DecodeParameters(dataJSON)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("insert requires a non-empty data object")
	}

	var cols, binds []string
	var args []any
	for i, p := range data {
		cols = append(cols, engine.QuoteIdentifier(strings.TrimPrefix(p.Key, "@")))
		binds = append(binds, fmt.Sprintf("@p%d", i))
		args = append(args, sql.Named(fmt.Sprintf("p%d", i), p.Value.Arg()))
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		engine.ParseRoutine(table).Quoted(), strings.Join(cols, ", "), strings.Join(binds, ", "))
	return stmt, args, nil
}

func updateDataSQL(table, dataJSON, whereJSON string) (string, []any, error) {
	data, err := engine.DecodeParameters(dataJSON)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("update requires a non-empty data object")
	}

	var sets []string
	var args []any
	for i, p := range data {
		sets = append(sets, fmt.Sprintf("%s = @s%d", engine.QuoteIdentifier(strings.TrimPrefix(p.Key, "@")), i))
		args = append(args, sql.Named(fmt.Sprintf("s%d", i), p.Value.Arg()))
	}

	where, whereArgs, err := whereClause(whereJSON, "w")
	if err != nil {
		return "", nil, err
	}
	if where == "" {
		return "", nil, fmt.Errorf("update requires a WHERE object")
	}
	args = append(args, whereArgs...)

	stmt := fmt.Sprintf("UPDATE %s SET %s%s",
		engine.ParseRoutine(table).Quoted(), strings.Join(sets, ", "), where)
	return stmt, args, nil
}

func deleteDataSQL(table, whereJSON string) (string, []any, error) {
	where, args, err := whereClause(whereJSON, "w")
	if err != nil {
		return "", nil, err
	}
	if where == "" {
		return "", nil, fmt.Errorf("delete requires a WHERE object")
	}

	stmt := fmt.Sprintf("DELETE FROM %s%s", engine.ParseRoutine(table).Quoted(), where)
	return stmt, args, nil
}

// whereClause renders an equality AND filter from a JSON object. JSON null
// becomes IS NULL. Returns "" for an absent filter.
func whereClause(whereJSON, prefix string) (string, []any, error) {
	conds, err := engine.DecodeParameters(whereJSON)
	if err != nil {
		return "", nil, err
	}
	if len(conds) == 0 {
		return "", nil, nil
	}

	var parts []string
	var args []any
	for i, p := range conds {
		col := engine.QuoteIdentifier(strings.TrimPrefix(p.Key, "@"))
		if p.Value.Kind == engine.KindNull {
			parts = append(parts, col+" IS NULL")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = @%s%d", col, prefix, i))
		args = append(args, sql.Named(fmt.Sprintf("%s%d", prefix, i), p.Value.Arg()))
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}
