// Package main is the striiimer command: it replays a dataset file into a database table as a paced stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/MinaBasem/Striiimer/dataset"
	"github.com/MinaBasem/Striiimer/logger"
	"github.com/MinaBasem/Striiimer/sink"
	"github.com/MinaBasem/Striiimer/streamer"
)

// Version is a version of striiimer
var Version = "1-main-dev"

// Exit codes
const (
	exitOK          = 0
	exitAborted     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args)
	if err != nil {
		if isHelp(err) {
			fmt.Fprintln(stdout, err)
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	var log = logger.NewPlaneLogger(logger.LevelFromVerbosity(len(opts.Common.Verbose), opts.Common.Quiet), false)
	log.Debug("striiimer version v%s", Version)

	connString, err := constructConnStringFromOpts(opts.Sink)
	if err != nil {
		log.Error("%v", err)
		return exitUsage
	}

	table, err := dataset.Load(opts.Stream.File)
	if err != nil {
		log.Error("cannot load dataset: %v", err)
		return exitUsage
	}
	table = table.Head(opts.Stream.Limit)
	log.Info("loaded %d rows with columns %v from %s", table.Len(), table.Columns(), opts.Stream.File)

	var rnd *rand.Rand
	if opts.Stream.RandSeed != 0 {
		rnd = rand.New(rand.NewSource(opts.Stream.RandSeed)) //nolint:gosec
	}

	s, err := streamer.New(table, opts.Stream.Interval, opts.Stream.Mode,
		streamer.WithLogger(log),
		streamer.WithOutput(stdout),
		streamer.WithRand(rnd))
	if err != nil {
		log.Error("%v", err)
		return exitUsage
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handleSignals(ctx, cancel, log)

	h, err := sink.Open(ctx, connString,
		sink.WithTable(opts.Sink.Table),
		sink.WithDeliveryTimeout(opts.Sink.DeliveryTimeout),
		sink.WithLogger(log),
		sink.WithDryRun(opts.Sink.DryRun),
		sink.WithQueryLogging(opts.Sink.LogQueries),
		sink.WithQueryTimeLogging(opts.Sink.LogQueryTime),
		sink.WithMaxConnLifetime(opts.Sink.MaxConnLifetime),
		sink.WithMaxPacketSize(opts.Sink.MaxPacketSize))
	if err != nil {
		log.Error("%v", err)
		return exitAborted
	}
	defer func() {
		if closeErr := h.Close(); closeErr != nil {
			log.Warn("closing sink: %v", closeErr)
		}
	}()

	if opts.Sink.CreateTable {
		if err = h.EnsureTable(ctx, table); err != nil {
			log.Error("%v", err)
			return exitAborted
		}
	}

	if err = s.SetSink(h); err != nil {
		log.Error("%v", err)
		return exitAborted
	}

	res, err := s.Stream(ctx, streamer.Params{"file": opts.Stream.File, "table": opts.Sink.Table})
	if err != nil {
		log.Error("%v", err)
		return exitAborted
	}

	switch {
	case res.State == streamer.Completed:
		return exitOK
	case errors.Is(res.Err, context.Canceled):
		return exitInterrupted
	default:
		return exitAborted
	}
}

// handleSignals cancels ctx on SIGINT or SIGTERM
func handleSignals(ctx context.Context, cancel context.CancelFunc, log logger.Logger) {
	var sigChan = make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			log.Info("Received signal %v, stopping the stream...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
}
