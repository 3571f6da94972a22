package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"net/url"

	"github.com/gocraft/dbr/v2"
	dbrdialect "github.com/gocraft/dbr/v2/dialect"
	_ "github.com/lib/pq" // postgres driver

	"github.com/MinaBasem/Striiimer/db"
	"github.com/MinaBasem/Striiimer/db/pgmbed"
)

func init() {
	for _, pgNameStyle := range []string{"postgres", "postgresql"} {
		if err := db.Register(pgNameStyle, &pgConnector{}); err != nil {
			panic(err)
		}
	}
}

type pgDialect struct {
	schemaName string
	embedded   bool
}

func (d *pgDialect) name() db.DialectName {
	return db.POSTGRES
}

func (d *pgDialect) builder() dbr.Dialect {
	return dbrdialect.PostgreSQL
}

func (d *pgDialect) getType(id db.DataType) string {
	switch id {
	case db.DataTypeBigInt:
		return "BIGINT"
	case db.DataTypeDouble:
		return "DOUBLE PRECISION"
	case db.DataTypeText:
		return "TEXT"
	case db.DataTypeBoolean:
		return "BOOLEAN"
	case db.DataTypeTimestamp:
		return "TIMESTAMP"
	case db.DataTypeLongBlob:
		return "BYTEA"
	default:
		return "TEXT"
	}
}

func (d *pgDialect) supportTransactions() bool {
	return true
}

func (d *pgDialect) canRollback(err error) bool {
	// pq marks the connection as bad after a timeout and returns driver.ErrBadConn
	return !errors.Is(err, context.Canceled)
}

func (d *pgDialect) table(table string) string {
	if d.schemaName != "" {
		return d.builder().QuoteIdent(d.schemaName + "." + table)
	}

	return d.builder().QuoteIdent(table)
}

func (d *pgDialect) schema() string {
	return d.schemaName
}

func (d *pgDialect) close() error {
	if d.embedded {
		return pgmbed.Terminate()
	}

	return nil
}

type pgConnector struct{}

// postgresSchemaAndConnString strips the custom schema parameter and disables SSL unless asked otherwise
func postgresSchemaAndConnString(cs string) (string, string, error) {
	const schemaParamName = "schema"
	const sslModeParamName = "sslmode"
	var schemaName string

	var u, err = url.Parse(cs)
	if err != nil {
		return "", "", fmt.Errorf("cannot parse connection url %v, err: %v", db.SanitizeConn(cs), err)
	}

	m, _ := url.ParseQuery(u.RawQuery)
	if s, ok := m[schemaParamName]; ok {
		schemaName = s[0]
		delete(m, schemaParamName)
	}
	if _, ok := m[sslModeParamName]; !ok {
		m[sslModeParamName] = []string{"disable"}
	}
	u.RawQuery = m.Encode()

	return schemaName, u.String(), nil
}

func initializePostgresDB(cs string, logger db.Logger) (string, *pgDialect, error) {
	var embeddedPostgresOpts *pgmbed.Opts
	var err error
	if cs, embeddedPostgresOpts, err = pgmbed.ParseOptions(cs); err != nil {
		return "", nil, fmt.Errorf("db: postgres: %v", err)
	}

	var schemaName string
	if schemaName, cs, err = postgresSchemaAndConnString(cs); err != nil {
		return "", nil, fmt.Errorf("db: postgres: %v", err)
	}

	var dia = &pgDialect{schemaName: schemaName}
	if embeddedPostgresOpts != nil && embeddedPostgresOpts.Enabled {
		if cs, err = pgmbed.Launch(cs, embeddedPostgresOpts, logger); err != nil {
			return "", nil, fmt.Errorf("db: cannot initialize embedded postgres: %v", err)
		}
		dia.embedded = true
	}

	return cs, dia, nil
}

func (c *pgConnector) ConnectionPool(cfg db.Config) (db.Database, error) {
	var cs, dia, err = initializePostgresDB(cfg.ConnString, cfg.SystemLogger)
	if err != nil {
		return nil, err
	}

	var rwc *sql.DB
	if rwc, err = sql.Open("postgres", cs); err != nil {
		_ = dia.close()
		return nil, fmt.Errorf("db: cannot connect to postgresql db at %v, err: %v", db.SanitizeConn(cfg.ConnString), err)
	}

	maxConn := int(math.Max(1, float64(cfg.MaxOpenConns)))
	rwc.SetMaxOpenConns(maxConn)
	rwc.SetMaxIdleConns(maxConn)
	rwc.SetConnMaxLifetime(cfg.MaxConnLifetime)

	return &sqlDatabase{
		rw:          &sqlQuerier{rwc},
		t:           &sqlQuerier{rwc},
		dialect:     dia,
		dryRun:      cfg.DryRun,
		logTime:     cfg.LogOperationsTime,
		queryLogger: cfg.QueryLogger,
	}, nil
}

func (c *pgConnector) DialectName(scheme string) (db.DialectName, error) {
	return db.POSTGRES, nil
}
