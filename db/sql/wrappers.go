package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/atomic"

	"github.com/MinaBasem/Striiimer/db"
)

/*
Wrappers decorate the raw database/sql accessors with:
- dry-run mode: Exec statements are logged and skipped
- query logging
- time accounting into the counters of db.Context
*/

func logQuery(logger db.Logger, logTime bool, since time.Time, dryRun bool, query string, args ...interface{}) {
	if logger == nil {
		return
	}

	if dryRun {
		if !strings.Contains(query, "\n") {
			logger.Log("-- %s -- skip because of 'dry-run' mode", query)
		} else {
			logger.Log("-- skip because of 'dry-run' mode")
			logger.Log("/*\n%s\n*/", query)
		}

		return
	}

	var suffix string
	if len(args) > 0 {
		suffix = " -- " + db.DumpRecursive(args, " ")
	}
	if logTime {
		suffix += fmt.Sprintf(" -- duration: %v", time.Since(since))
	}

	logger.Log("%s%s", query, suffix)
}

func logTxOperation(logger db.Logger, logTime bool, since time.Time, txNotSupported bool, operation string) {
	if logger == nil {
		return
	}

	if txNotSupported {
		logger.Log("-- %s -- skip because dialect does not support transactions", operation)
		return
	}

	if logTime {
		logger.Log("%s -- duration: %v", operation, time.Since(since))
	} else {
		logger.Log(operation)
	}
}

// sqlSurrogateResult is returned for statements skipped in dry-run mode
type sqlSurrogateResult struct{}

func (r *sqlSurrogateResult) LastInsertId() (int64, error) {
	return 0, nil
}

func (r *sqlSurrogateResult) RowsAffected() (int64, error) {
	return 0, nil
}

// accountTime adds elapsed time since the given time to the atomic counter
func accountTime(t *atomic.Int64, since time.Time) {
	if t != nil {
		t.Add(time.Since(since).Nanoseconds())
	}
}

func countStatement(c *atomic.Int64) {
	if c != nil {
		c.Inc()
	}
}

type wrappedQuerier struct {
	q querier

	execTime   *atomic.Int64
	queryTime  *atomic.Int64
	statements *atomic.Int64

	dryRun      bool
	logTime     bool
	queryLogger db.Logger
}

func (wq wrappedQuerier) execContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer accountTime(wq.execTime, time.Now())
	countStatement(wq.statements)

	if wq.queryLogger != nil {
		defer func(since time.Time) {
			logQuery(wq.queryLogger, wq.logTime, since, wq.dryRun, query, args...)
		}(time.Now())
	}

	if wq.dryRun {
		return &sqlSurrogateResult{}, nil
	}

	return wq.q.execContext(ctx, query, args...)
}

func (wq wrappedQuerier) queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer accountTime(wq.queryTime, time.Now())
	countStatement(wq.statements)

	if wq.queryLogger != nil {
		defer func(since time.Time) {
			logQuery(wq.queryLogger, wq.logTime, since, false, query, args...)
		}(time.Now())
	}

	return wq.q.queryRowContext(ctx, query, args...)
}

type wrappedTransaction struct {
	tx transaction

	execTime   *atomic.Int64
	queryTime  *atomic.Int64
	commitTime *atomic.Int64
	statements *atomic.Int64

	dryRun         bool
	logTime        bool
	queryLogger    db.Logger
	txNotSupported bool
}

func (wtx wrappedTransaction) execContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return wrappedQuerier{
		q:           wtx.tx,
		execTime:    wtx.execTime,
		queryTime:   wtx.queryTime,
		statements:  wtx.statements,
		dryRun:      wtx.dryRun,
		logTime:     wtx.logTime,
		queryLogger: wtx.queryLogger,
	}.execContext(ctx, query, args...)
}

func (wtx wrappedTransaction) queryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return wrappedQuerier{
		q:           wtx.tx,
		queryTime:   wtx.queryTime,
		statements:  wtx.statements,
		logTime:     wtx.logTime,
		queryLogger: wtx.queryLogger,
	}.queryRowContext(ctx, query, args...)
}

func (wtx wrappedTransaction) commit() error {
	defer accountTime(wtx.commitTime, time.Now())

	if wtx.queryLogger != nil {
		defer func(since time.Time) {
			logTxOperation(wtx.queryLogger, wtx.logTime, since, wtx.txNotSupported, "COMMIT")
		}(time.Now())
	}

	return wtx.tx.commit()
}

func (wtx wrappedTransaction) rollback() error {
	defer accountTime(wtx.commitTime, time.Now())

	if wtx.queryLogger != nil {
		defer func(since time.Time) {
			logTxOperation(wtx.queryLogger, wtx.logTime, since, wtx.txNotSupported, "ROLLBACK")
		}(time.Now())
	}

	return wtx.tx.rollback()
}

type wrappedTransactor struct {
	t transactor

	beginTime  *atomic.Int64
	execTime   *atomic.Int64
	queryTime  *atomic.Int64
	commitTime *atomic.Int64
	statements *atomic.Int64

	dryRun         bool
	logTime        bool
	queryLogger    db.Logger
	txNotSupported bool
}

func (wt wrappedTransactor) begin(ctx context.Context) (transaction, error) {
	defer accountTime(wt.beginTime, time.Now())

	if wt.queryLogger != nil {
		defer func(since time.Time) {
			logTxOperation(wt.queryLogger, wt.logTime, since, wt.txNotSupported, "BEGIN")
		}(time.Now())
	}

	var t, err = wt.t.begin(ctx)
	if err != nil {
		return t, err
	}

	return wrappedTransaction{
		tx:             t,
		execTime:       wt.execTime,
		queryTime:      wt.queryTime,
		commitTime:     wt.commitTime,
		statements:     wt.statements,
		dryRun:         wt.dryRun,
		logTime:        wt.logTime,
		queryLogger:    wt.queryLogger,
		txNotSupported: wt.txNotSupported,
	}, nil
}
