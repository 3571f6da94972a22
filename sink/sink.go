// Package sink appends streamed rows to a relational table.
package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MinaBasem/Striiimer/dataset"
	"github.com/MinaBasem/Striiimer/db"
	"github.com/MinaBasem/Striiimer/logger"

	// register the sql adapters
	_ "github.com/MinaBasem/Striiimer/db/sql"
)

var errNotConnected = errors.New("sink is not connected")

// Defaults applied when no option overrides them
const (
	DefaultTable           = "test"
	DefaultDeliveryTimeout = 30 * time.Second
)

type options struct {
	table           string
	deliveryTimeout time.Duration
	logger          logger.Logger
	dryRun          bool
	logQueries      bool
	logQueryTime    bool
	maxConnLifetime time.Duration
	maxPacketSize   int
}

// Option configures a Handle
type Option func(*options)

// WithTable sets the target table of every delivery
func WithTable(name string) Option {
	return func(o *options) {
		if name != "" {
			o.table = name
		}
	}
}

// WithDeliveryTimeout bounds a single delivery, zero keeps the default
func WithDeliveryTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.deliveryTimeout = d
		}
	}
}

// WithLogger sets the logger used for connection and query messages
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDryRun logs INSERT statements instead of executing them
func WithDryRun(dryRun bool) Option {
	return func(o *options) {
		o.dryRun = dryRun
	}
}

// WithQueryLogging logs every statement at info level
func WithQueryLogging(enabled bool) Option {
	return func(o *options) {
		o.logQueries = enabled
	}
}

// WithQueryTimeLogging appends the duration of every statement to the query log.
// It enables query logging as well.
func WithQueryTimeLogging(enabled bool) Option {
	return func(o *options) {
		o.logQueryTime = enabled
	}
}

// WithMaxConnLifetime recycles the sink connection after d, zero keeps it forever
func WithMaxConnLifetime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.maxConnLifetime = d
		}
	}
}

// WithMaxPacketSize sets the MySQL maxAllowedPacket in bytes, other sinks ignore it
func WithMaxPacketSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPacketSize = n
		}
	}
}

func newOptions(opts []Option) *options {
	var o = &options{
		table:           DefaultTable,
		deliveryTimeout: DefaultDeliveryTimeout,
		logger:          logger.NewPlaneLogger(logger.LevelWarn, false),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// dbLogger adapts logger.Logger to the db.Logger used by the sql layer
type dbLogger struct {
	l     logger.Logger
	level logger.LogLevel
}

func (d dbLogger) Log(format string, args ...interface{}) {
	d.l.Log(d.level, format, args...)
}

// Connect opens a sink of the given kind with credentials and verifies it with a ping
func Connect(ctx context.Context, kind Kind, creds Credentials, opts ...Option) (*Handle, error) {
	var a = lookup(kind)
	if a == nil {
		return nil, &ConnectionError{Kind: kind, Err: &UnsupportedSinkError{Kind: kind}}
	}

	cs, err := a.connString(creds)
	if err != nil {
		return nil, &ConnectionError{Kind: a.kind, Err: err}
	}

	return open(ctx, a.kind, cs, newOptions(opts))
}

// Open opens a sink from a full connection string, the kind follows from its scheme
func Open(ctx context.Context, connString string, opts ...Option) (*Handle, error) {
	dialect, err := db.GetDialectName(connString)
	if err != nil {
		var scheme = Kind(strings.SplitN(connString, ":", 2)[0])
		return nil, &ConnectionError{Kind: scheme, Err: err}
	}

	return open(ctx, kindOf(dialect), connString, newOptions(opts))
}

func open(ctx context.Context, kind Kind, cs string, o *options) (*Handle, error) {
	var cfg = db.Config{
		ConnString:        cs,
		MaxOpenConns:      1,
		MaxConnLifetime:   o.maxConnLifetime,
		MaxPacketSize:     o.maxPacketSize,
		DryRun:            o.dryRun,
		LogOperationsTime: o.logQueryTime,
		SystemLogger:      dbLogger{l: o.logger, level: logger.LevelDebug},
	}
	if o.logQueries || o.logQueryTime || o.dryRun {
		cfg.QueryLogger = dbLogger{l: o.logger, level: logger.LevelInfo}
	}

	o.logger.Debug("connecting to %s sink at %s", kind, db.SanitizeConn(cs))

	database, err := db.Open(cfg)
	if err != nil {
		return nil, &ConnectionError{Kind: kind, Err: err}
	}

	if err = database.Ping(ctx); err != nil {
		_ = database.Close()
		return nil, &ConnectionError{Kind: kind, Err: err}
	}

	o.logger.Info("connected to %s sink, target table %s", kind, o.table)

	return newHandle(kind, database, o), nil
}

// NewHandle wraps a database opened elsewhere. An unknown kind yields a handle whose deliveries all fail.
func NewHandle(kind Kind, database db.Database, opts ...Option) *Handle {
	return newHandle(kind, database, newOptions(opts))
}

func newHandle(kind Kind, database db.Database, o *options) *Handle {
	var h = &Handle{
		kind:     kind,
		adapter:  lookup(kind),
		database: database,
		table:    o.table,
		timeout:  o.deliveryTimeout,
		logger:   o.logger,
		timing:   db.NewContext(context.Background()),
	}
	if h.adapter != nil {
		h.kind = h.adapter.kind
	}
	return h
}

// Handle is an established sink connection. Deliveries are meant to come from one goroutine.
type Handle struct {
	kind     Kind
	adapter  *adapter
	database db.Database
	table    string
	timeout  time.Duration
	logger   logger.Logger

	// timing accumulates the counters of all deliveries
	timing *db.Context
}

// Kind returns the kind the handle was built for
func (h *Handle) Kind() Kind {
	return h.kind
}

// Table returns the target table
func (h *Handle) Table() string {
	return h.table
}

// Deliver appends row to the target table
func (h *Handle) Deliver(ctx context.Context, row dataset.Row) error {
	if h.adapter == nil {
		return &UnsupportedSinkError{Kind: h.kind}
	}
	if h.database == nil {
		return &DeliveryError{Index: row.Index, Table: h.table, Err: errNotConnected}
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var c = &db.Context{
		Ctx:        ctx,
		BeginTime:  h.timing.BeginTime,
		ExecTime:   h.timing.ExecTime,
		QueryTime:  h.timing.QueryTime,
		CommitTime: h.timing.CommitTime,
		Statements: h.timing.Statements,
	}

	if _, err := h.database.Session(c).Insert(h.table, row.Columns, row.Values); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			// canceled by the caller, not rejected by the sink
			return ctx.Err()
		}
		return &DeliveryError{Index: row.Index, Table: h.table, Err: err}
	}

	return nil
}

// EnsureTable creates the target table when it is missing, column types follow the first row of t
func (h *Handle) EnsureTable(ctx context.Context, t *dataset.Table) error {
	if h.adapter == nil {
		return &UnsupportedSinkError{Kind: h.kind}
	}
	if h.database == nil {
		return errNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	exists, err := h.database.TableExists(h.table)
	if err != nil {
		return fmt.Errorf("cannot check table %s: %w", h.table, err)
	}
	if exists {
		h.logger.Debug("table %s already exists", h.table)
		return nil
	}

	var first = t.Row(0)
	var def = &db.TableDefinition{}
	for i, col := range first.Columns {
		def.TableRows = append(def.TableRows, db.TableRow{Name: col, Type: db.DataTypeOf(first.Values[i])})
	}

	if err = h.database.CreateTable(h.table, def); err != nil {
		return fmt.Errorf("cannot create table %s: %w", h.table, err)
	}

	h.logger.Info("created table %s with %d columns", h.table, len(def.TableRows))
	return nil
}

// Stats reports statement counters and timings of all deliveries so far
func (h *Handle) Stats() string {
	return h.timing.String()
}

// Close releases the connection
func (h *Handle) Close() error {
	if h.database == nil {
		return nil
	}
	return h.database.Close()
}
