// Package db acquires SQL Server connection pools for tool invocations. One
// pool is kept per target database; invocations borrow connections from it
// and never share state beyond that.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sync"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/hazyhaar/sqlbridge/internal/config"
)

const pingTimeout = 5 * time.Second

// Provider implements the engine's ConnectionProvider: Acquire("") targets the
// configured default database, Acquire(name) an explicit one. Pools open
// lazily and live for the process lifetime.
type Provider struct {
	cfg   config.DatabaseConfig
	mu    sync.Mutex
	pools map[string]*sql.DB
}

func NewProvider(cfg config.DatabaseConfig) *Provider {
	return &Provider{
		cfg:   cfg,
		pools: make(map[string]*sql.DB),
	}
}

func (p *Provider) Acquire(ctx context.Context, database string) (*sql.DB, error) {
	if database == "" {
		database = p.cfg.Database
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if pool, ok := p.pools[database]; ok {
		return pool, nil
	}

	pool, err := sql.Open("sqlserver", p.dsn(database))
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", database, err)
	}
	if p.cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(p.cfg.MaxOpenConns)
	}
	if p.cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(p.cfg.MaxIdleConns)
	}
	if p.cfg.ConnMaxLifetimeMin > 0 {
		pool.SetConnMaxLifetime(time.Duration(p.cfg.ConnMaxLifetimeMin) * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %q: %w", database, err)
	}

	p.pools[database] = pool
	return pool, nil
}

// Close releases every pool. Safe to call once at shutdown.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for name, pool := range p.pools {
		if err := pool.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.pools, name)
	}
	return firstErr
}

func (p *Provider) dsn(database string) string {
	u := &url.URL{
		Scheme: "sqlserver",
		User:   url.UserPassword(p.cfg.User, p.cfg.Password),
		Host:   fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port),
	}
	q := url.Values{}
	if database != "" {
		q.Set("database", database)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
