// Package streamer replays a table into a sink at a paced rate.
package streamer

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/MinaBasem/Striiimer/dataset"
	"github.com/MinaBasem/Striiimer/logger"
	"github.com/MinaBasem/Striiimer/pacing"
	"github.com/MinaBasem/Striiimer/sink"
)

// RowTimeLayout is the timestamp layout of the per row output line
const RowTimeLayout = "2006-01-02 15:04:05"

// Sink receives the rows of a stream one at a time
type Sink interface {
	Deliver(ctx context.Context, row dataset.Row) error
}

// Option configures a Streamer
type Option func(*Streamer)

// WithLogger sets the operator log
func WithLogger(l logger.Logger) Option {
	return func(s *Streamer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOutput sets where the per row lines are printed, stdout by default
func WithOutput(w io.Writer) Option {
	return func(s *Streamer) {
		if w != nil {
			s.out = w
		}
	}
}

// WithRand sets the generator of variable delays
func WithRand(rnd *rand.Rand) Option {
	return func(s *Streamer) {
		s.rnd = rnd
	}
}

// WithSleeper replaces the wait between rows
func WithSleeper(fn Sleeper) Option {
	return func(s *Streamer) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

// Streamer owns a private copy of a table and replays it into its sink, one run at a time
type Streamer struct {
	table  *dataset.Table
	policy *pacing.Policy

	sink  Sink
	owned *sink.Handle

	logger logger.Logger
	out    io.Writer
	rnd    *rand.Rand
	sleep  Sleeper
	now    func() time.Time

	state   atomic.Int32
	running atomic.Bool
}

// New validates the table and pacing configuration. interval is in seconds, mode is fixed or variable.
func New(table *dataset.Table, interval float64, mode string, opts ...Option) (*Streamer, error) {
	if table == nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("%w: nil table", dataset.ErrNotTabular)}
	}
	if len(table.Columns()) == 0 {
		return nil, &ConfigurationError{Err: fmt.Errorf("%w: no columns", dataset.ErrNotTabular)}
	}
	if table.Len() == 0 {
		return nil, &ConfigurationError{Err: dataset.ErrEmpty}
	}

	cfg, err := pacing.NewConfig(interval, mode)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	var s = &Streamer{
		table:  table.Clone(),
		logger: logger.NewPlaneLogger(logger.LevelWarn, false),
		out:    os.Stdout,
		sleep:  Sleep,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.policy = pacing.NewPolicy(cfg, s.rnd)

	return s, nil
}

// Pacing returns the validated pacing configuration
func (s *Streamer) Pacing() pacing.Config {
	return s.policy.Config()
}

// State reports the state of the current or last run, safe for concurrent use
func (s *Streamer) State() State {
	return State(s.state.Load())
}

// Connect opens a sink of kind and installs it. On failure the previous sink is dropped.
func (s *Streamer) Connect(ctx context.Context, kind sink.Kind, creds sink.Credentials, opts ...sink.Option) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	s.release()

	h, err := sink.Connect(ctx, kind, creds, append([]sink.Option{sink.WithLogger(s.logger)}, opts...)...)
	if err != nil {
		s.logger.Error("%v", err)
		return err
	}

	s.sink = h
	s.owned = h
	return nil
}

// ConnectPostgres connects a PostgreSQL sink
func (s *Streamer) ConnectPostgres(ctx context.Context, database, user, password, host string, port int, opts ...sink.Option) error {
	return s.Connect(ctx, sink.Postgres, sink.Credentials{
		Database: database,
		User:     user,
		Password: password,
		Host:     host,
		Port:     port,
	}, opts...)
}

// ConnectMySQL connects a MySQL sink
func (s *Streamer) ConnectMySQL(ctx context.Context, database, user, password, host string, port int, opts ...sink.Option) error {
	return s.Connect(ctx, sink.MySQL, sink.Credentials{
		Database: database,
		User:     user,
		Password: password,
		Host:     host,
		Port:     port,
	}, opts...)
}

// SetSink installs a sink built elsewhere, its lifetime stays with the caller.
// The sink cannot be swapped while a run is in progress.
func (s *Streamer) SetSink(snk Sink) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	s.release()
	s.sink = snk
	return nil
}

// Close releases a sink opened by Connect. It fails with ErrAlreadyRunning during a run.
func (s *Streamer) Close() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	return s.closeOwned()
}

func (s *Streamer) closeOwned() error {
	var h = s.owned
	s.sink = nil
	s.owned = nil
	if h == nil {
		return nil
	}
	return h.Close()
}

func (s *Streamer) release() {
	if err := s.closeOwned(); err != nil {
		s.logger.Warn("closing previous sink: %v", err)
	}
}

// Stream replays every row into the sink. Failures and interruptions end the run as Aborted
// and are reported in the Result, the returned error is set only when the run could not start.
func (s *Streamer) Stream(ctx context.Context, params Params) (*Result, error) {
	var res = &Result{RunID: uuid.New(), State: Idle}
	var log = logger.NewRunLogger(s.logger, res.RunID.String())

	if !s.running.CompareAndSwap(false, true) {
		return res, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	// the run keeps the sink it started with
	var snk = s.sink
	if snk == nil {
		res.State = Failed
		res.Err = ErrNoSink
		s.state.Store(int32(Failed))
		log.Error("cannot start: %v", ErrNoSink)
		return res, ErrNoSink
	}

	if len(params) != 0 {
		log.Debug("params: %v", params)
	}
	log.Info("streaming %d rows, %s", s.table.Len(), s.policy.Config())

	res.StartedAt = s.now()
	res.State = Running
	s.state.Store(int32(Running))

	var err = s.table.Each(func(row dataset.Row) error {
		return s.emit(ctx, log, snk, res, row)
	})

	res.FinishedAt = s.now()
	if err != nil {
		res.Err = err
		res.State = Aborted
		if errors.Is(err, context.Canceled) {
			log.Warn("streaming interrupted by user after %d rows", res.Delivered)
		} else {
			log.Error("streaming aborted after %d rows: %+v", res.Delivered, err)
		}
	} else {
		res.State = Completed
		log.Info("streamed %d rows in %v", res.Delivered, res.FinishedAt.Sub(res.StartedAt))
	}

	if st, ok := snk.(interface{ Stats() string }); ok {
		log.Debug("sink %s", st.Stats())
	}

	s.state.Store(int32(res.State))
	return res, nil
}

// emit waits the next delay and delivers row, errors are not retried
func (s *Streamer) emit(ctx context.Context, log logger.Logger, snk Sink, res *Result, row dataset.Row) error {
	var delay = s.policy.Delay()
	log.Info("row %d: waiting %v", row.Index, delay)

	if err := s.sleep(ctx, delay); err != nil {
		return errors.Wrapf(err, "waiting before row %d", row.Index)
	}

	if err := snk.Deliver(ctx, row); err != nil {
		return errors.WithStack(err)
	}

	var at = s.now()
	fmt.Fprintf(s.out, "%s - Row %d: %s\n", at.Format(RowTimeLayout), row.Index, row)

	res.Deliveries = append(res.Deliveries, Delivery{Index: row.Index, Delay: delay, At: at})
	res.Delivered++
	return nil
}
