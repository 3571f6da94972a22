package sql

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gocraft/dbr/v2"
	dbrdialect "github.com/gocraft/dbr/v2/dialect"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/MinaBasem/Striiimer/db"
)

func init() {
	for _, sqliteNameStyle := range []string{"sqlite", "sqlite3"} {
		if err := db.Register(sqliteNameStyle, &sqliteConnector{}); err != nil {
			panic(err)
		}
	}
}

type sqliteDialect struct {
	memmode bool
}

func (d *sqliteDialect) name() db.DialectName {
	return db.SQLITE
}

func (d *sqliteDialect) builder() dbr.Dialect {
	return dbrdialect.SQLite3
}

func (d *sqliteDialect) getType(id db.DataType) string {
	switch id {
	case db.DataTypeBigInt:
		return "INTEGER"
	case db.DataTypeDouble:
		return "REAL"
	case db.DataTypeText:
		return "TEXT"
	case db.DataTypeBoolean:
		return "BOOLEAN"
	case db.DataTypeTimestamp:
		return "TIMESTAMP"
	case db.DataTypeLongBlob:
		return "BLOB"
	default:
		return "TEXT"
	}
}

func (d *sqliteDialect) supportTransactions() bool {
	return true
}

func (d *sqliteDialect) canRollback(err error) bool {
	return true
}

func (d *sqliteDialect) table(table string) string {
	return d.builder().QuoteIdent(table)
}

func (d *sqliteDialect) schema() string {
	return ""
}

func (d *sqliteDialect) close() error {
	return nil
}

type sqliteConnector struct{}

func (c *sqliteConnector) ConnectionPool(cfg db.Config) (db.Database, error) {
	_, path, err := db.ParseScheme(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("db: cannot parse sqlite db path, err: %v", err)
	}

	if path == "" {
		return nil, fmt.Errorf("db: empty sqlite file path")
	}

	var dia = sqliteDialect{}
	if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		dia.memmode = true
	} else if !filepath.IsAbs(path) {
		return nil, fmt.Errorf("db: filepath '%v' is not absolute", db.SanitizeConn(cfg.ConnString))
	}

	var rwc *sql.DB
	if rwc, err = sql.Open("sqlite3", path); err != nil {
		return nil, fmt.Errorf("db: cannot open sqlite db at %v, err: %v", db.SanitizeConn(cfg.ConnString), err)
	}

	if dia.memmode {
		// every connection to :memory: is a separate database
		rwc.SetMaxOpenConns(1)
		rwc.SetMaxIdleConns(1)
	} else {
		options := `PRAGMA journal_mode=WAL;
			PRAGMA synchronous = NORMAL;`

		if _, err = rwc.Exec(options); err != nil {
			_ = rwc.Close()
			return nil, fmt.Errorf("db: failed to set sqlite options, err: %v", err)
		}

		rwc.SetMaxOpenConns(cfg.MaxOpenConns)
		rwc.SetMaxIdleConns(cfg.MaxOpenConns)
		rwc.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}

	return &sqlDatabase{
		rw:          &sqlQuerier{rwc},
		t:           &sqlQuerier{rwc},
		dialect:     &dia,
		dryRun:      cfg.DryRun,
		logTime:     cfg.LogOperationsTime,
		queryLogger: cfg.QueryLogger,
	}, nil
}

func (c *sqliteConnector) DialectName(scheme string) (db.DialectName, error) {
	return db.SQLITE, nil
}
