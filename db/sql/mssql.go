package sql

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	mssql "github.com/denisenkom/go-mssqldb" // mssql driver
	"github.com/gocraft/dbr/v2"
	dbrdialect "github.com/gocraft/dbr/v2/dialect"

	"github.com/MinaBasem/Striiimer/db"
)

func init() {
	for _, msNameStyle := range []string{"mssql", "sqlserver"} {
		if err := db.Register(msNameStyle, &msConnector{}); err != nil {
			panic(err)
		}
	}
}

type msDialect struct{}

func (d *msDialect) name() db.DialectName {
	return db.MSSQL
}

func (d *msDialect) builder() dbr.Dialect {
	return dbrdialect.MSSQL
}

func (d *msDialect) getType(id db.DataType) string {
	switch id {
	case db.DataTypeBigInt:
		return "BIGINT"
	case db.DataTypeDouble:
		return "FLOAT"
	case db.DataTypeText:
		return "NVARCHAR(MAX)"
	case db.DataTypeBoolean:
		return "BIT"
	case db.DataTypeTimestamp:
		return "DATETIME2(6)"
	case db.DataTypeLongBlob:
		return "VARBINARY(MAX)"
	default:
		return "NVARCHAR(MAX)"
	}
}

func (d *msDialect) isDeadlock(err error) bool {
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == 1205
	}
	return false
}

func (d *msDialect) supportTransactions() bool {
	return true
}

func (d *msDialect) canRollback(err error) bool {
	// mssql destroys a deadlocked transaction by itself
	return !d.isDeadlock(err)
}

func (d *msDialect) table(table string) string {
	return d.builder().QuoteIdent(table)
}

func (d *msDialect) schema() string {
	return ""
}

func (d *msDialect) close() error {
	return nil
}

type msConnector struct{}

// sqlserverConnString rewrites the mssql:// alias to the scheme the driver understands
func sqlserverConnString(cs string) (string, error) {
	var _, rest, err = db.ParseScheme(cs)
	if err != nil {
		return "", err
	}

	return "sqlserver://" + rest, nil
}

func (c *msConnector) ConnectionPool(cfg db.Config) (db.Database, error) {
	var cs, err = sqlserverConnString(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("sql: cannot parse sql server connection string, err: %v", err)
	}

	var rwc *sql.DB
	if rwc, err = sql.Open("sqlserver", cs); err != nil {
		return nil, fmt.Errorf("sql: cannot connect to sql server db at %v, err: %v", db.SanitizeConn(cfg.ConnString), err)
	}

	rwc.SetMaxOpenConns(int(math.Max(1, float64(cfg.MaxOpenConns))))

	if cfg.MaxConnLifetime > 0 {
		rwc.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}

	return &sqlDatabase{
		rw:          &sqlQuerier{rwc},
		t:           &sqlQuerier{rwc},
		dialect:     &msDialect{},
		dryRun:      cfg.DryRun,
		logTime:     cfg.LogOperationsTime,
		queryLogger: cfg.QueryLogger,
	}, nil
}

func (c *msConnector) DialectName(scheme string) (db.DialectName, error) {
	return db.MSSQL, nil
}
