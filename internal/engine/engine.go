package engine

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
)

// ConnectionProvider hands out an open connection pool for a target database.
// An empty name selects the configured default database. The provider owns
// pooling, timeouts and lifetime; the engine only borrows.
type ConnectionProvider interface {
	Acquire(ctx context.Context, database string) (*sql.DB, error)
}

// Engine executes dynamic routine invocations. It is stateless across calls;
// concurrent invocations only share the provider.
type Engine struct {
	provider ConnectionProvider
	logger   *slog.Logger
}

func New(provider ConnectionProvider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{provider: provider, logger: logger}
}

// outputParameters returns the names (without "@") of a routine's declared
// output parameters. Discovery failure is not fatal: the invocation proceeds
// with input-only binding and the implicit return code.
func (e *Engine) outputParameters(ctx context.Context, db *sql.DB, ref RoutineReference) map[string]bool {
	rows, err := db.QueryContext(ctx, `
		SELECT p.name
		FROM sys.parameters p
		JOIN sys.objects o ON o.object_id = p.object_id
		JOIN sys.schemas s ON s.schema_id = o.schema_id
		WHERE o.name = @name
		  AND s.name = ISNULL(NULLIF(@schema, ''), SCHEMA_NAME())
		  AND p.is_output = 1 AND p.parameter_id > 0`,
		sql.Named("name", ref.Name), sql.Named("schema", ref.Schema))
	if err != nil {
		e.logger.Warn("output parameter discovery failed", "routine", ref.Quoted(), "error", err)
		return nil
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			e.logger.Warn("output parameter discovery failed", "routine", ref.Quoted(), "error", err)
			return nil
		}
		out[strings.TrimPrefix(name, "@")] = true
	}
	if err := rows.Err(); err != nil {
		e.logger.Warn("output parameter discovery failed", "routine", ref.Quoted(), "error", err)
		return nil
	}
	return out
}

// InvokeProcedure executes a stored procedure. Caller parameters bind by their
// own names at the driver level; a reserved bind carries the integer return
// code on every call, and parameters the routine declares as OUTPUT are bound
// bidirectionally so their final values can be surfaced.
func (e *Engine) InvokeProcedure(ctx context.Context, routine, paramsJSON, database string) Envelope {
	params, err := DecodeParameters(paramsJSON)
	if err != nil {
		return e.fail("execute_procedure", err)
	}
	ref := ParseRoutine(routine)

	db, err := e.provider.Acquire(ctx, database)
	if err != nil {
		return e.fail("execute_procedure", err)
	}

	outputs := e.outputParameters(ctx, db, ref)

	var returnStatus mssql.ReturnStatus
	args := make([]any, 0, len(params)+1)
	outDests := make(map[string]*any)
	for _, p := range params {
		name := strings.TrimPrefix(p.Key, "@")
		if outputs[name] {
			dest := new(any)
			*dest = p.Value.Arg()
			outDests[name] = dest
			args = append(args, sql.Named(name, sql.Out{Dest: dest, In: true}))
			continue
		}
		args = append(args, sql.Named(name, p.Value.Arg()))
	}
	args = append(args, &returnStatus)

	rows, err := db.QueryContext(ctx, ref.Quoted(), args...)
	if err != nil {
		return e.fail("execute_procedure", &ExecutionError{Routine: ref.Quoted(), Err: err})
	}
	sets, err := CollectRowSets(rows)
	rows.Close()
	if err != nil {
		return e.fail("execute_procedure", &ExecutionError{Routine: ref.Quoted(), Err: err})
	}

	// Output binds and the return status are populated only once every row
	// set has been drained.
	outValues := make(map[string]any, len(outDests))
	for name, dest := range outDests {
		outValues[name] = normalizeCell(*dest)
	}

	return OK(procedureData(sets, int64(returnStatus), outValues))
}

// InvokeScalarFunction executes a scalar function and returns {result: value}.
// When literals is non-empty the positional-literal calling convention is
// used: the text is spliced into the argument list and binding is bypassed.
func (e *Engine) InvokeScalarFunction(ctx context.Context, routine, paramsJSON, literals, database string) Envelope {
	ref := ParseRoutine(routine)

	stmt, args, err := e.functionBatch(ref, paramsJSON, literals, ScalarStatement, ScalarLiteralStatement)
	if err != nil {
		return e.fail("execute_scalar_function", err)
	}

	db, err := e.provider.Acquire(ctx, database)
	if err != nil {
		return e.fail("execute_scalar_function", err)
	}

	var result any
	if err := db.QueryRowContext(ctx, stmt, args...).Scan(&result); err != nil {
		return e.fail("execute_scalar_function", &ExecutionError{Routine: ref.Quoted(), Err: err})
	}
	return OK(map[string]any{"result": normalizeCell(result)})
}

// InvokeTableFunction executes a table-valued function and returns its rows as
// a flat list. It shares the scalar function's dual calling convention.
func (e *Engine) InvokeTableFunction(ctx context.Context, routine, paramsJSON, literals, database string) Envelope {
	ref := ParseRoutine(routine)

	stmt, args, err := e.functionBatch(ref, paramsJSON, literals, TableStatement, TableLiteralStatement)
	if err != nil {
		return e.fail("execute_table_function", err)
	}

	db, err := e.provider.Acquire(ctx, database)
	if err != nil {
		return e.fail("execute_table_function", err)
	}

	rows, err := db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return e.fail("execute_table_function", &ExecutionError{Routine: ref.Quoted(), Err: err})
	}
	sets, err := CollectRowSets(rows)
	rows.Close()
	if err != nil {
		return e.fail("execute_table_function", &ExecutionError{Routine: ref.Quoted(), Err: err})
	}

	set := RowSet{}
	if len(sets) > 0 {
		set = sets[len(sets)-1]
	}
	return OK(set)
}

// functionBatch chooses between the JSON-map and literal-list calling
// conventions and renders the statement plus its bind arguments.
func (e *Engine) functionBatch(
	ref RoutineReference,
	paramsJSON, literals string,
	render func(RoutineReference, BatchPlan) string,
	renderLiteral func(RoutineReference, string) string,
) (string, []any, error) {
	if strings.TrimSpace(literals) != "" {
		return renderLiteral(ref, literals), nil, nil
	}
	params, err := DecodeParameters(paramsJSON)
	if err != nil {
		return "", nil, err
	}
	plan := BuildPlan(params)
	return render(ref, plan), plan.Args, nil
}

func (e *Engine) fail(operation string, err error) Envelope {
	e.logger.Debug("invocation failed", "operation", operation, "error", err)
	return Fail(err)
}
