package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/sqlbridge/internal/audit"
	"github.com/hazyhaar/sqlbridge/internal/auth"
	"github.com/hazyhaar/sqlbridge/internal/catalog"
	"github.com/hazyhaar/sqlbridge/internal/config"
	"github.com/hazyhaar/sqlbridge/internal/db"
	"github.com/hazyhaar/sqlbridge/internal/engine"
	"github.com/hazyhaar/sqlbridge/internal/mcp"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "token":
		cmdToken(os.Args[2:])
	case "version":
		fmt.Printf("sqlbridge %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sqlbridge - SQL Server tool server

Usage:
  sqlbridge serve [--config config.toml] [--transport stdio|http] [--addr :8443]
  sqlbridge token [--config config.toml] [--subject name]
  sqlbridge version
  sqlbridge help

Commands:
  serve     Start the MCP server
  token     Print a bearer token for the HTTP transport
  version   Print version
  help      Show this help`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	transport := fs.String("transport", "", "transport (overrides config)")
	addr := fs.String("addr", "", "HTTP listen address (overrides config)")
	fs.Parse(args)

	// On stdio the protocol owns stdout, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *transport != "" {
		cfg.Server.Transport = *transport
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	provider := db.NewProvider(cfg.Database)
	defer provider.Close()

	var auditLog audit.Logger = audit.Nop{}
	if cfg.Audit.Enabled {
		sqliteLog, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			logger.Error("opening audit log", "error", err)
			os.Exit(1)
		}
		defer sqliteLog.Close()
		auditLog = sqliteLog
	}

	eng := engine.New(provider, logger)
	cat := catalog.New(provider, logger)
	srv := mcp.NewServer(eng, cat, auditLog, cfg.Server.Transport, logger)

	logger.Info("sqlbridge starting",
		"version", version,
		"transport", cfg.Server.Transport,
		"host", cfg.Database.Host,
		"database", cfg.Database.Database,
	)

	switch cfg.Server.Transport {
	case "http":
		serveHTTP(cfg, srv, logger)
	default:
		if err := server.ServeStdio(srv); err != nil {
			logger.Error("stdio server error", "error", err)
			os.Exit(1)
		}
	}
}

func serveHTTP(cfg *config.Config, srv *server.MCPServer, logger *slog.Logger) {
	var handler http.Handler = server.NewStreamableHTTPServer(srv)
	if cfg.Auth.Enabled {
		handler = auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiryMin).Middleware(handler)
		logger.Info("HTTP auth enabled")
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)

	logger.Info("listening", "addr", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, mux); err != nil {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
}

func cmdToken(args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config.toml")
	subject := fs.String("subject", "cli", "token subject")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	token, err := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiryMin).GenerateToken(*subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generating token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
