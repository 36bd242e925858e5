package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported SQL drivers, named as registered with database/sql.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DB wraps the SQL connection and knows which dialect it talks to.
type DB struct {
	conn   *sql.DB
	driver string
	log    *logrus.Entry
}

// New opens (or creates) the SQLite file at dbPath.
func New(dbPath string, log *logrus.Entry) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	return Open(DriverSQLite, dbPath+"?_journal_mode=WAL&_busy_timeout=5000", log)
}

// Open connects with driver and dsn and runs migrations. MySQL DSNs need
// parseTime=true.
func Open(driver, dsn string, log *logrus.Entry) (*DB, error) {
	switch driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return nil, fmt.Errorf("open: unsupported driver %q", driver)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite only supports one writer
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(5)
		conn.SetMaxIdleConns(2)
		conn.SetConnMaxLifetime(10 * time.Minute)
	}

	db := &DB{conn: conn, driver: driver, log: log.WithField("driver", driver)}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db.log.Debug("database ready")
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Driver returns the dialect name.
func (db *DB) Driver() string {
	return db.driver
}

// rebind rewrites ? placeholders to $n for postgres.
func (db *DB) rebind(q string) string {
	if db.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) migrate() error {
	var migrations []string
	switch db.driver {
	case DriverMySQL:
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS drawings (
				id VARCHAR(64) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				layers_json LONGTEXT NOT NULL,
				active_layer VARCHAR(64) NOT NULL DEFAULT '',
				created_at DATETIME(6) NOT NULL,
				updated_at DATETIME(6) NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS snapshots (
				id VARCHAR(64) PRIMARY KEY,
				drawing_id VARCHAR(64) NOT NULL,
				layer_id VARCHAR(64) NOT NULL DEFAULT '',
				label VARCHAR(255) NOT NULL DEFAULT '',
				shapes_json LONGTEXT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				INDEX idx_snapshots_drawing (drawing_id)
			)`,
			`CREATE TABLE IF NOT EXISTS mcp_approvals (
				id VARCHAR(64) PRIMARY KEY,
				tool VARCHAR(255) NOT NULL,
				description TEXT NOT NULL,
				status VARCHAR(16) NOT NULL DEFAULT 'pending',
				metadata TEXT NOT NULL,
				created_at DATETIME(6) NOT NULL
			)`,
		}
	default:
		ts := "DATETIME"
		if db.driver == DriverPostgres {
			ts = "TIMESTAMPTZ"
		}
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS drawings (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				layers_json TEXT NOT NULL DEFAULT '[]',
				active_layer TEXT NOT NULL DEFAULT '',
				created_at ` + ts + ` NOT NULL,
				updated_at ` + ts + ` NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS snapshots (
				id TEXT PRIMARY KEY,
				drawing_id TEXT NOT NULL,
				layer_id TEXT NOT NULL DEFAULT '',
				label TEXT NOT NULL DEFAULT '',
				shapes_json TEXT NOT NULL DEFAULT '[]',
				created_at ` + ts + ` NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_snapshots_drawing ON snapshots(drawing_id)`,
			`CREATE TABLE IF NOT EXISTS mcp_approvals (
				id TEXT PRIMARY KEY,
				tool TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL DEFAULT 'pending',
				metadata TEXT NOT NULL DEFAULT '{}',
				created_at ` + ts + ` NOT NULL
			)`,
		}
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
