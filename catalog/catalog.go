// Kinograph - Conversational Movie Recommendation Engine
// Copyright 2026 The Kinograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kinograph/kinograph

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/kinograph/kinograph/internal/logging"
)

// queryTimeout bounds every catalog query.
const queryTimeout = 30 * time.Second

// Config controls how the catalog database is opened.
type Config struct {
	// Path is the DuckDB file path, or ":memory:" for an ephemeral
	// catalog.
	Path string

	// Threads is the DuckDB thread count. 0 uses all CPUs.
	Threads int

	// MaxMemory is the DuckDB memory limit, e.g. "1GB".
	MaxMemory string
}

// DB is the movie catalog: an embedded DuckDB database holding movies,
// their graph properties, watch interactions and embeddings. It backs
// the graph store, the resolvers and the interaction history the
// recommendation engine consumes.
type DB struct {
	conn *sql.DB

	// Fixed-shape lookups are prepared once and cached; dynamic queries
	// (IN lists of varying size) go through the connection directly.
	stmtMu    sync.RWMutex
	stmtCache map[string]*sql.Stmt
}

// Open opens (or creates) the catalog at cfg.Path and applies the
// schema.
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("catalog path is empty")
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	if cfg.Path != ":memory:" {
		dir := filepath.Dir(cfg.Path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create catalog directory %s: %w", dir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	db := &DB{
		conn:      conn,
		stmtCache: make(map[string]*sql.Stmt),
	}
	db.configurePool()

	if err := db.createTables(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("initialize catalog schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Int("threads", threads).
		Str("max_memory", maxMemory).Msg("catalog opened")
	return db, nil
}

func (db *DB) configurePool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// createTables applies the schema. Every statement is idempotent.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, query := range schemaStatements() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("execute schema statement: %w", err)
		}
	}
	return nil
}

func schemaStatements() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS movies (
			id        VARCHAR PRIMARY KEY,
			label     VARCHAR NOT NULL,
			year      INTEGER,
			language  VARCHAR,
			rating    DOUBLE,
			image_id  VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS movie_properties (
			movie_id    VARCHAR NOT NULL,
			property    VARCHAR NOT NULL,
			value       VARCHAR NOT NULL,
			value_label VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS interactions (
			user_id  VARCHAR NOT NULL,
			movie_id VARCHAR NOT NULL,
			"at"     TIMESTAMP DEFAULT current_timestamp
		)`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			movie_id VARCHAR PRIMARY KEY,
			vec      VARCHAR NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_movie ON movie_properties(movie_id)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_value ON movie_properties(property, value)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions(user_id)`,
	}
}

// Ping checks the catalog connection.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("catalog connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close closes all cached statements and the connection.
func (db *DB) Close() error {
	db.stmtMu.Lock()
	for _, stmt := range db.stmtCache {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				logging.Warn().Err(err).Msg("failed to close prepared statement")
			}
		}
	}
	db.stmtCache = make(map[string]*sql.Stmt)
	db.stmtMu.Unlock()

	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// stmt returns a cached prepared statement, preparing it on first use.
func (db *DB) stmt(ctx context.Context, query string) (*sql.Stmt, error) {
	db.stmtMu.RLock()
	stmt, ok := db.stmtCache[query]
	db.stmtMu.RUnlock()
	if ok {
		return stmt, nil
	}

	db.stmtMu.Lock()
	defer db.stmtMu.Unlock()
	if stmt, ok := db.stmtCache[query]; ok {
		return stmt, nil
	}

	stmt, err := db.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	db.stmtCache[query] = stmt
	return stmt, nil
}
