package whatsapp

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Datastore is the SQL database backing the whatsmeow device store. It is shared with
// the validation audit log.
type Datastore struct {
	DB      *sql.DB
	Driver  string
	Dialect string
}

func NormalizeDatastoreDriver(driver string) string {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgresql", "postgres", "pgx":
		return "pgx"
	case "sqlite", "sqlite3", "":
		return "sqlite3"
	default:
		return strings.ToLower(driver)
	}
}

func datastoreDialect(driver string) (string, error) {
	switch driver {
	case "pgx":
		return "postgres", nil
	case "sqlite3":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported datastore driver %s", driver)
	}
}

func NormalizeDatastoreDSN(driver string, dsn string) string {
	appendParam := func(current string, key string, value string) string {
		if strings.Contains(current, key+"=") {
			return current
		}
		separator := "?"
		if strings.Contains(current, "?") {
			if strings.HasSuffix(current, "?") || strings.HasSuffix(current, "&") {
				separator = ""
			} else {
				separator = "&"
			}
		}
		return current + separator + key + "=" + value
	}

	switch driver {
	case "pgx":
		dsn = appendParam(dsn, "default_query_exec_mode", "simple_protocol")
	case "sqlite3":
		if !strings.HasPrefix(dsn, "file:") {
			dsn = "file:" + dsn
		}
		dsn = appendParam(dsn, "_foreign_keys", "on")
	}
	return dsn
}

func OpenDatastore(ctx context.Context, kind string, uri string) (*Datastore, error) {
	driver := NormalizeDatastoreDriver(kind)
	dialect, err := datastoreDialect(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, NormalizeDatastoreDSN(driver, uri))
	if err != nil {
		return nil, err
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(10 * time.Minute)
		db.SetConnMaxIdleTime(3 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("datastore ping failed: %w", err)
	}

	return &Datastore{DB: db, Driver: driver, Dialect: dialect}, nil
}

func (d *Datastore) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}
