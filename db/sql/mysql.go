package sql

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/go-sql-driver/mysql"
	"github.com/gocraft/dbr/v2"
	dbrdialect "github.com/gocraft/dbr/v2/dialect"

	"github.com/MinaBasem/Striiimer/db"
)

func init() {
	if err := db.Register("mysql", &mysqlConnector{}); err != nil {
		panic(err)
	}
}

type mysqlDialect struct{}

func (d *mysqlDialect) name() db.DialectName {
	return db.MYSQL
}

func (d *mysqlDialect) builder() dbr.Dialect {
	return dbrdialect.MySQL
}

func (d *mysqlDialect) getType(id db.DataType) string {
	switch id {
	case db.DataTypeBigInt:
		return "BIGINT"
	case db.DataTypeDouble:
		return "DOUBLE"
	case db.DataTypeText:
		return "LONGTEXT"
	case db.DataTypeBoolean:
		return "BOOLEAN"
	case db.DataTypeTimestamp:
		return "DATETIME(6)"
	case db.DataTypeLongBlob:
		return "LONGBLOB"
	default:
		return "LONGTEXT"
	}
}

func (d *mysqlDialect) supportTransactions() bool {
	return true
}

func (d *mysqlDialect) canRollback(err error) bool {
	return !errors.Is(err, mysql.ErrInvalidConn)
}

func (d *mysqlDialect) table(table string) string {
	return d.builder().QuoteIdent(table)
}

func (d *mysqlDialect) schema() string {
	return ""
}

func (d *mysqlDialect) close() error {
	return nil
}

type mysqlConnector struct{}

// mysqlDSN turns the part after mysql:// into a driver DSN with the options the sink relies on
func mysqlDSN(cs string, maxPacketSize int) (string, error) {
	var cfg, err = mysql.ParseDSN(cs)
	if err != nil {
		return "", err
	}

	cfg.ParseTime = true
	if maxPacketSize > 0 {
		cfg.MaxAllowedPacket = maxPacketSize
	}

	return cfg.FormatDSN(), nil
}

func (c *mysqlConnector) ConnectionPool(cfg db.Config) (db.Database, error) {
	var _, cs, err = db.ParseScheme(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("db: cannot parse mysql db path, err: %v", err)
	}

	var dsn string
	if dsn, err = mysqlDSN(cs, cfg.MaxPacketSize); err != nil {
		return nil, fmt.Errorf("db: invalid mysql dsn %v, err: %v", db.SanitizeConn(cfg.ConnString), err)
	}

	var rwc *sql.DB
	if rwc, err = sql.Open("mysql", dsn); err != nil {
		return nil, fmt.Errorf("db: cannot connect to mysql db at %v, err: %v", db.SanitizeConn(cfg.ConnString), err)
	}

	maxConn := int(math.Max(1, float64(cfg.MaxOpenConns)))
	rwc.SetMaxOpenConns(maxConn)
	rwc.SetMaxIdleConns(maxConn)

	if cfg.MaxConnLifetime > 0 {
		rwc.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}

	return &sqlDatabase{
		rw:          &sqlQuerier{rwc},
		t:           &sqlQuerier{rwc},
		dialect:     &mysqlDialect{},
		dryRun:      cfg.DryRun,
		logTime:     cfg.LogOperationsTime,
		queryLogger: cfg.QueryLogger,
	}, nil
}

func (c *mysqlConnector) DialectName(scheme string) (db.DialectName, error) {
	return db.MYSQL, nil
}
