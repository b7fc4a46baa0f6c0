package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/sceneindex/markerd/internal/config"
	"github.com/sceneindex/markerd/internal/logging"
)

// DB wraps a DuckDB connection with the foreign library database attached
// as a read/write catalog named "lib".
type DB struct {
	conn *sql.DB

	// sqliteAvailable records whether the sqlite_scanner extension loaded
	// successfully; if false, Open already failed, but the flag is kept
	// for diagnostics and reported by SQLiteAvailable.
	sqliteAvailable bool
}

// Open attaches cfg.DatabasePath and returns a ready DB. Extensions are
// preloaded into an in-memory connection first: DuckDB caches loaded
// extensions per process, so by the time the real connection attaches the
// foreign catalog, sqlite_scanner is already resident and ATTACH ... (TYPE
// sqlite) does not need network access to fetch it.
func Open(cfg *config.Config) (*DB, error) {
	if err := preloadSQLiteScanner(); err != nil {
		logging.Warn().Err(err).Msg("failed to preload sqlite_scanner extension")
	}

	conn, err := sql.Open("duckdb", ":memory:?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.installExtensions(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("install extensions: %w", err)
	}
	db.sqliteAvailable = true

	if err := db.attach(cfg.DatabasePath); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("attach library database %s: %w", cfg.DatabasePath, err)
	}

	return db, nil
}

func (db *DB) installExtensions() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "INSTALL sqlite_scanner; LOAD sqlite_scanner;"); err != nil {
		return err
	}
	return nil
}

func (db *DB) attach(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stmt := fmt.Sprintf("ATTACH %s AS lib (TYPE sqlite);", quoteLiteral(path))
	_, err := db.conn.ExecContext(ctx, stmt)
	return err
}

// preloadSQLiteScanner loads sqlite_scanner in a throwaway in-memory
// connection so it is already cached by the process before Open's real
// connection needs it, avoiding a network install race under concurrent
// test setup.
func preloadSQLiteScanner() error {
	conn, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return err
	}
	defer closeQuietly(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = conn.ExecContext(ctx, "INSTALL sqlite_scanner; LOAD sqlite_scanner;")
	return err
}

// Close detaches the foreign catalog and closes the underlying connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = db.conn.ExecContext(ctx, "DETACH lib;")
	return db.conn.Close()
}

// Ping checks the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("library database not open")
	}
	return db.conn.PingContext(ctx)
}

// SQLiteAvailable reports whether the sqlite_scanner extension loaded.
func (db *DB) SQLiteAvailable() bool {
	return db.sqliteAvailable
}

func closeQuietly(c *sql.DB) {
	_ = c.Close()
}

// quoteLiteral escapes a filesystem path for use as a DuckDB string
// literal (single quotes doubled, per SQL string-literal escaping).
func quoteLiteral(s string) string {
	escaped := ""
	for _, r := range s {
		if r == '\'' {
			escaped += "''"
		} else {
			escaped += string(r)
		}
	}
	return "'" + escaped + "'"
}
