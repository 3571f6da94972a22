// Package sql implements the relational sink adapters over database/sql.
package sql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/gocraft/dbr/v2"

	"github.com/MinaBasem/Striiimer/db"
)

/*
 * DB connection management
 */

type querier interface {
	execContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type accessor interface {
	querier

	ping(ctx context.Context) error
	stats() sql.DBStats
	rawSession() interface{}
	close() error
}

type transaction interface {
	querier

	commit() error
	rollback() error
}

type transactor interface {
	begin(ctx context.Context) (transaction, error)
}

func inTx(ctx context.Context, t transactor, d dialect, fn func(q querier, d dialect) error) error {
	tx, err := t.begin(ctx)
	if err != nil {
		return err
	}

	if err = fn(tx, d); err != nil {
		if err != driver.ErrBadConn && d.canRollback(err) {
			if rErr := tx.rollback(); rErr != nil {
				if err == context.Canceled && (rErr == sql.ErrTxDone || rErr == context.Canceled) {
					return err
				}
				return fmt.Errorf("during rollback tx with error %v, error occurred %v", err, rErr)
			}
		}
		return err
	}

	if err = tx.commit(); err == sql.ErrTxDone {
		select {
		case <-ctx.Done():
			// the runtime already rolled the tx back from its watcher goroutine
			err = context.Canceled
		default:
		}
	}

	return err
}

// sqlGateway executes statements through a querier
type sqlGateway struct {
	ctx     context.Context
	rw      querier
	dialect dialect
}

// Exec executes a query that doesn't return rows
func (g *sqlGateway) Exec(format string, args ...interface{}) (db.Result, error) {
	return g.rw.execContext(g.ctx, format, args...)
}

// QueryRow executes a query that returns a single row
func (g *sqlGateway) QueryRow(format string, args ...interface{}) db.Row {
	return g.rw.queryRowContext(g.ctx, format, args...)
}

type sqlSession struct {
	sqlGateway
	t transactor
}

// sqlDatabase is a connection pool of one dialect
type sqlDatabase struct {
	rw      accessor
	t       transactor
	dialect dialect

	dryRun      bool
	logTime     bool
	queryLogger db.Logger
}

// Ping pings the DB
func (d *sqlDatabase) Ping(ctx context.Context) error {
	var err = d.rw.ping(ctx)
	if err != nil && d.queryLogger != nil {
		d.queryLogger.Log("ping failed: %v", err)
	}

	return err
}

func (d *sqlDatabase) DialectName() db.DialectName {
	return d.dialect.name()
}

func (d *sqlDatabase) TableExists(tableName string) (bool, error) {
	var s = d.session(db.NewContext(context.Background()))
	return tableExists(s.rw, d.dialect, tableName)
}

func (d *sqlDatabase) CreateTable(tableName string, tableDefinition *db.TableDefinition) error {
	var s = d.session(db.NewContext(context.Background()))
	return inTx(s.ctx, s.t, d.dialect, func(q querier, dia dialect) error {
		return createTable(q, dia, tableName, tableDefinition)
	})
}

func (d *sqlDatabase) DropTable(name string) error {
	var s = d.session(db.NewContext(context.Background()))
	return dropTable(s.rw, d.dialect, name)
}

func (d *sqlDatabase) Session(c *db.Context) db.Session {
	return d.session(c)
}

func (d *sqlDatabase) session(c *db.Context) *sqlSession {
	return &sqlSession{
		sqlGateway: sqlGateway{
			ctx: c.Ctx,
			rw: wrappedQuerier{
				q:           d.rw,
				execTime:    c.ExecTime,
				queryTime:   c.QueryTime,
				statements:  c.Statements,
				dryRun:      d.dryRun,
				logTime:     d.logTime,
				queryLogger: d.queryLogger,
			},
			dialect: d.dialect,
		},
		t: wrappedTransactor{
			t:              d.t,
			beginTime:      c.BeginTime,
			execTime:       c.ExecTime,
			queryTime:      c.QueryTime,
			commitTime:     c.CommitTime,
			statements:     c.Statements,
			dryRun:         d.dryRun,
			logTime:        d.logTime,
			queryLogger:    d.queryLogger,
			txNotSupported: !d.dialect.supportTransactions(),
		},
	}
}

func (d *sqlDatabase) RawSession() interface{} {
	return d.rw.rawSession()
}

func (d *sqlDatabase) Stats() *db.Stats {
	sqlStats := d.rw.stats()
	return &db.Stats{OpenConnections: sqlStats.OpenConnections, Idle: sqlStats.Idle, InUse: sqlStats.InUse}
}

func (d *sqlDatabase) Close() error {
	var err = d.rw.close()
	if err != nil {
		return fmt.Errorf("close failed: %w", err)
	}

	return d.dialect.close()
}

type dialect interface {
	name() db.DialectName
	// builder quotes identifiers and renders positional placeholders
	builder() dbr.Dialect
	getType(dataType db.DataType) string
	supportTransactions() bool
	canRollback(err error) bool
	table(table string) string
	schema() string
	close() error
}
