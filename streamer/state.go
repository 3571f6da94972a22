package streamer

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of a stream
type State int32

const (
	// Idle is the state before the first run
	Idle State = iota
	// Running is the state while rows are paced and delivered
	Running
	// Completed means every row was delivered
	Completed
	// Aborted means a delay or delivery failed, or the run was interrupted
	Aborted
	// Failed means the run never started, e.g. no sink was connected
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Running:
		return "RUNNING"
	case Completed:
		return "COMPLETED"
	case Aborted:
		return "ABORTED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

var (
	// ErrNoSink is returned by Stream when no sink was connected
	ErrNoSink = errors.New("no sink connected")

	// ErrAlreadyRunning is returned by Stream, Connect, SetSink and Close while a run of the same streamer is in progress
	ErrAlreadyRunning = errors.New("stream is already running")
)

// ConfigurationError is returned by New for input that cannot be streamed
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid stream configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Delivery records one row that reached the sink
type Delivery struct {
	Index int
	Delay time.Duration
	At    time.Time
}

// Result is the outcome of one run. Deliveries lists the rows that reached the sink, in order.
type Result struct {
	RunID      uuid.UUID
	State      State
	Delivered  int
	Deliveries []Delivery

	// Err is the failure that ended an aborted or failed run
	Err error

	StartedAt  time.Time
	FinishedAt time.Time
}

// Params are free-form run parameters, logged and otherwise unused
type Params map[string]interface{}
