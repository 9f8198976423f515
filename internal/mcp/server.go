// Package mcp registers the sqlbridge tools on an MCP server. Every tool
// returns the uniform result envelope as a JSON text block; no error escapes
// the invocation boundary.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/sqlbridge/internal/audit"
	"github.com/hazyhaar/sqlbridge/internal/catalog"
	"github.com/hazyhaar/sqlbridge/internal/engine"
)

// Server bundles the tool dependencies during registration.
type Server struct {
	engine    *engine.Engine
	catalog   *catalog.Catalog
	auditLog  audit.Logger
	transport string
	logger    *slog.Logger
}

// NewServer creates an MCPServer with all sqlbridge tools registered.
func NewServer(eng *engine.Engine, cat *catalog.Catalog, auditLog audit.Logger, transport string, logger *slog.Logger) *server.MCPServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    eng,
		catalog:   cat,
		auditLog:  auditLog,
		transport: transport,
		logger:    logger,
	}

	srv := server.NewMCPServer(
		"sqlbridge",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	s.registerInvocationTools(srv)
	s.registerMetadataTools(srv)
	s.registerDataTools(srv)

	return srv
}

// handle wraps a tool body with the envelope boundary: the outcome is always
// an envelope text block, failures are logged with the tool name, and the
// call is recorded in the audit log.
func (s *Server) handle(name string, fn func(ctx context.Context, args map[string]any) engine.Envelope) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		start := time.Now()

		env := fn(ctx, args)

		entry := &audit.Entry{
			Tool:       name,
			Transport:  s.transport,
			RequestID:  uuid.NewString(),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if params, err := json.Marshal(args); err == nil {
			entry.Parameters = string(params)
		}
		if !env.Success {
			entry.Error = env.Error
			s.logger.Error("tool failed", "tool", name, "error", env.Error)
		}
		s.auditLog.LogAsync(entry)

		return mcp.NewToolResultText(env.JSON()), nil
	}
}

// envelope converts a (data, error) pair from the catalog into the uniform
// result envelope.
func envelope(data any, err error) engine.Envelope {
	if err != nil {
		return engine.Fail(err)
	}
	return engine.OK(data)
}

func rowsEnvelope(n int64, err error) engine.Envelope {
	if err != nil {
		return engine.Fail(err)
	}
	return engine.OKRows(n)
}

// --- routine invocation tools ---

func (s *Server) registerInvocationTools(srv *server.MCPServer) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"procedure":  map[string]string{"type": "string", "description": "Procedure name, optionally schema-qualified ([schema.]name)"},
			"parameters": map[string]string{"type": "string", "description": "JSON object of parameter name to value, e.g. {\"@id\": 5}"},
			"database":   map[string]string{"type": "string", "description": "Target database (defaults to the configured one)"},
		},
		"required": []string{"procedure"},
	})
	tool := mcp.NewToolWithRawSchema("execute_procedure",
		"Execute a stored procedure and return its row sets, output parameters and return code", schema)
	srv.AddTool(tool, s.handle("execute_procedure", func(ctx context.Context, args map[string]any) engine.Envelope {
		return s.engine.InvokeProcedure(ctx,
			stringArg(args, "procedure"),
			paramsArg(args, "parameters"),
			stringArg(args, "database"))
	}))

	schema, _ = json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"function":   map[string]string{"type": "string", "description": "Scalar function name, optionally schema-qualified"},
			"parameters": map[string]string{"type": "string", "description": "JSON object of parameter name to value"},
			"values":     map[string]string{"type": "string", "description": "Alternative calling convention: comma-separated SQL literal values, spliced verbatim"},
			"database":   map[string]string{"type": "string", "description": "Target database"},
		},
		"required": []string{"function"},
	})
	tool = mcp.NewToolWithRawSchema("execute_scalar_function",
		"Execute a scalar function and return {result: value}", schema)
	srv.AddTool(tool, s.handle("execute_scalar_function", func(ctx context.Context, args map[string]any) engine.Envelope {
		return s.engine.InvokeScalarFunction(ctx,
			stringArg(args, "function"),
			paramsArg(args, "parameters"),
			stringArg(args, "values"),
			stringArg(args, "database"))
	}))

	schema, _ = json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"function":   map[string]string{"type": "string", "description": "Table-valued function name, optionally schema-qualified"},
			"parameters": map[string]string{"type": "string", "description": "JSON object of parameter name to value"},
			"values":     map[string]string{"type": "string", "description": "Alternative calling convention: comma-separated SQL literal values, spliced verbatim"},
			"database":   map[string]string{"type": "string", "description": "Target database"},
		},
		"required": []string{"function"},
	})
	tool = mcp.NewToolWithRawSchema("execute_table_function",
		"Execute a table-valued function and return its rows", schema)
	srv.AddTool(tool, s.handle("execute_table_function", func(ctx context.Context, args map[string]any) engine.Envelope {
		return s.engine.InvokeTableFunction(ctx,
			stringArg(args, "function"),
			paramsArg(args, "parameters"),
			stringArg(args, "values"),
			stringArg(args, "database"))
	}))
}

// --- metadata tools ---

func (s *Server) registerMetadataTools(srv *server.MCPServer) {
	schema, _ := json.Marshal(map[string]any{"type": "object", "properties": map[string]any{}})
	tool := mcp.NewToolWithRawSchema("list_databases", "List databases on the server", schema)
	srv.AddTool(tool, s.handle("list_databases", func(ctx context.Context, args map[string]any) engine.Envelope {
		return envelope(s.catalog.ListDatabases(ctx))
	}))

	schema, _ = json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"database": map[string]string{"type": "string", "description": "Target database"},
			"schema":   map[string]string{"type": "string", "description": "Filter by schema name"},
		},
	})
	tool = mcp.NewToolWithRawSchema("list_tables", "List tables, optionally filtered by schema", schema)
	srv.AddTool(tool, s.handle("list_tables", func(ctx context.Context, args map[string]any) engine.Envelope {
		return envelope(s.catalog.ListTables(ctx, stringArg(args, "database"), stringArg(args, "schema")))
	}))

	schema, _ = json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table":    map[string]string{"type": "string", "description": "Table name, optionally schema-qualified"},
			"database": map[string]string{"type": "string", "description": "Target database"},
		},
		"required": []string{"table"},
	})
	tool = mcp.NewToolWithRawSchema("describe_table", "Describe a table's columns", schema)
	srv.AddTool(tool, s.handle("describe_table", func(ctx context.Context, args map[string]any) engine.Envelope {
		return envelope(s.catalog.DescribeTable(ctx, stringArg(args, "table"), stringArg(args, "database")))
	}))

	schema, _ = json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"database": map[string]string{"type": "string", "description": "Target database"},
		},
	})
	tool = mcp.NewToolWithRawSchema("list_views", "List views", schema)
	srv.AddTool(tool, s.handle("list_views", func(ctx context.Context, args map[string]any) engine.Envelope {
		return envelope(s.catalog.ListViews(ctx, stringArg(args, "database")))
	}))

	tool = mcp.NewToolWithRawSchema("list_procedures", "List stored procedures", schema)
	srv.AddTool(tool, s.handle("list_procedures", func(ctx context.Context, args map[string]any) engine.Envelope {
		return envelope(s.catalog.ListProcedures(ctx, stringArg(args, "database")))
	}))

	tool = mcp.NewToolWithRawSchema("list_functions", "List scalar and table-valued functions", schema)
	srv.AddTool(tool, s.handle("list_functions", func(ctx context.Context, args map[string]any) engine.Envelope {
		return envelope(s.catalog.ListFunctions(ctx, stringArg(args, "database")))
	}))

	schema, _ = json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"routine":  map[string]string{"type": "string", "description": "Routine or view name, optionally schema-qualified"},
			"database": map[string]string{"type": "string", "description": "Target database"},
		},
		"required": []string{"routine"},
	})
	tool = mcp.NewToolWithRawSchema("get_routine_definition", "Get the T-SQL source of a procedure, function or view", schema)
	srv.AddTool(tool, s.handle("get_routine_definition", func(ctx context.Context, args map[string]any) engine.Envelope {
		return envelope(s.catalog.RoutineDefinition(ctx, stringArg(args, "routine"), stringArg(args, "database")))
	}))

	schema, _ = json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"view":     map[string]string{"type": "string", "description": "View name, optionally schema-qualified"},
			"database": map[string]string{"type": "string", "description": "Target database"},
		},
		"required": []string{"view"},
	})
	tool = mcp.NewToolWithRawSchema("get_view_definition", "Get the T-SQL source of a view", schema)
	srv.AddTool(tool, s.handle("get_view_definition", func(ctx context.Context, args map[string]any) engine.Envelope {
		return envelope(s.catalog.ViewDefinition(ctx, stringArg(args, "view"), stringArg(args, "database")))
	}))
}

// --- data tools ---

func (s *Server) registerDataTools(srv *server.MCPServer) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table":    map[string]string{"type": "string", "description": "Table name, optionally schema-qualified"},
			"columns":  map[string]string{"type": "string", "description": "Comma-separated column names (default *)"},
			"where":    map[string]string{"type": "string", "description": "JSON object of equality filters, e.g. {\"status\": \"open\"}"},
			"limit":    map[string]any{"type": "integer", "description": "Max rows to return", "default": 100},
			"database": map[string]string{"type": "string", "description": "Target database"},
		},
		"required": []string{"table"},
	})
	tool := mcp.NewToolWithRawSchema("read_data", "Read rows from a table", schema)
	srv.AddTool(tool, s.handle("read_data", func(ctx context.Context, args map[string]any) engine.Envelope {
		return envelope(s.catalog.ReadData(ctx,
			stringArg(args, "table"),
			stringArg(args, "columns"),
			paramsArg(args, "where"),
			intArg(args, "limit", 0),
			stringArg(args, "database")))
	}))

	schema, _ = json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table":    map[string]string{"type": "string", "description": "Table name, optionally schema-qualified"},
			"data":     map[string]string{"type": "string", "description": "JSON object of column to value"},
			"database": map[string]string{"type": "string", "description": "Target database"},
		},
		"required": []string{"table", "data"},
	})
	tool = mcp.NewToolWithRawSchema("insert_data", "Insert one row into a table", schema)
	srv.AddTool(tool, s.handle("insert_data", func(ctx context.Context, args map[string]any) engine.Envelope {
		return rowsEnvelope(s.catalog.InsertData(ctx,
			stringArg(args, "table"),
			paramsArg(args, "data"),
			stringArg(args, "database")))
	}))

	schema, _ = json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table":    map[string]string{"type": "string", "description": "Table name, optionally schema-qualified"},
			"data":     map[string]string{"type": "string", "description": "JSON object of column to new value"},
			"where":    map[string]string{"type": "string", "description": "JSON object of equality filters (required)"},
			"database": map[string]string{"type": "string", "description": "Target database"},
		},
		"required": []string{"table", "data", "where"},
	})
	tool = mcp.NewToolWithRawSchema("update_data", "Update rows matching a filter", schema)
	srv.AddTool(tool, s.handle("update_data", func(ctx context.Context, args map[string]any) engine.Envelope {
		return rowsEnvelope(s.catalog.UpdateData(ctx,
			stringArg(args, "table"),
			paramsArg(args, "data"),
			paramsArg(args, "where"),
			stringArg(args, "database")))
	}))

	schema, _ = json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"table":    map[string]string{"type": "string", "description": "Table name, optionally schema-qualified"},
			"where":    map[string]string{"type": "string", "description": "JSON object of equality filters (required)"},
			"database": map[string]string{"type": "string", "description": "Target database"},
		},
		"required": []string{"table", "where"},
	})
	tool = mcp.NewToolWithRawSchema("delete_data", "Delete rows matching a filter", schema)
	srv.AddTool(tool, s.handle("delete_data", func(ctx context.Context, args map[string]any) engine.Envelope {
		return rowsEnvelope(s.catalog.DeleteData(ctx,
			stringArg(args, "table"),
			paramsArg(args, "where"),
			stringArg(args, "database")))
	}))

	schema, _ = json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query":      map[string]string{"type": "string", "description": "T-SQL text; reference binds as @name"},
			"parameters": map[string]string{"type": "string", "description": "JSON object of bind name to value"},
			"database":   map[string]string{"type": "string", "description": "Target database"},
		},
		"required": []string{"query"},
	})
	tool = mcp.NewToolWithRawSchema("execute_query", "Execute raw T-SQL with named binds", schema)
	srv.AddTool(tool, s.handle("execute_query", func(ctx context.Context, args map[string]any) engine.Envelope {
		return envelope(s.catalog.ExecuteQuery(ctx,
			stringArg(args, "query"),
			paramsArg(args, "parameters"),
			stringArg(args, "database")))
	}))
}

// --- helpers ---

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return def
	}
}

// paramsArg returns the raw JSON text of a parameter-map argument. Clients
// are told to send a JSON string so that key order survives; a client that
// sends an object anyway still works, at the cost of its key order.
func paramsArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}
