package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := parseOptions([]string{"-f", "rows.csv", "-vv"})
	require.NoError(t, err)

	assert.Equal(t, "rows.csv", opts.Stream.File)
	assert.Equal(t, 1.0, opts.Stream.Interval)
	assert.Equal(t, "fixed", opts.Stream.Mode)
	assert.Equal(t, "test", opts.Sink.Table)
	assert.Equal(t, 30*time.Second, opts.Sink.DeliveryTimeout)
	assert.Zero(t, opts.Sink.MaxConnLifetime)
	assert.Zero(t, opts.Sink.MaxPacketSize)
	assert.False(t, opts.Sink.LogQueryTime)
	assert.Len(t, opts.Common.Verbose, 2)
}

func TestParseOptionsFlags(t *testing.T) {
	opts, err := parseOptions([]string{
		"--file", "rows.parquet", "-i", "0.25", "-m", "variable", "-s", "42", "--limit", "10",
		"--driver", "postgres", "--database", "shop", "--port", "5433",
		"--table", "events", "--create-table", "--dry-run", "--delivery-timeout", "5s", "--log-queries", "-Q",
		"--log-query-time", "--max-conn-lifetime", "10m", "--max-packet-size", "16777216",
	})
	require.NoError(t, err)

	assert.Equal(t, 0.25, opts.Stream.Interval)
	assert.Equal(t, "variable", opts.Stream.Mode)
	assert.Equal(t, int64(42), opts.Stream.RandSeed)
	assert.Equal(t, 10, opts.Stream.Limit)
	assert.Equal(t, "postgres", opts.Sink.Driver)
	assert.Equal(t, 5433, opts.Sink.Port)
	assert.Equal(t, "events", opts.Sink.Table)
	assert.True(t, opts.Sink.CreateTable)
	assert.True(t, opts.Sink.DryRun)
	assert.True(t, opts.Sink.LogQueries)
	assert.Equal(t, 5*time.Second, opts.Sink.DeliveryTimeout)
	assert.True(t, opts.Sink.LogQueryTime)
	assert.Equal(t, 10*time.Minute, opts.Sink.MaxConnLifetime)
	assert.Equal(t, 16777216, opts.Sink.MaxPacketSize)
	assert.True(t, opts.Common.Quiet)
}

func TestParseOptionsErrors(t *testing.T) {
	_, err := parseOptions(nil)
	assert.ErrorContains(t, err, "dataset file is required")

	_, err = parseOptions([]string{"-f", "rows.csv", "--limit", "-1"})
	assert.Error(t, err)

	_, err = parseOptions([]string{"-f", "rows.csv", "--port", "70000"})
	assert.ErrorContains(t, err, "out of range")

	_, err = parseOptions([]string{"-f", "rows.csv", "--max-packet-size=-1"})
	assert.ErrorContains(t, err, "max-packet-size")

	_, err = parseOptions([]string{"-f", "rows.csv", "--max-conn-lifetime=-1s"})
	assert.ErrorContains(t, err, "max-conn-lifetime")

	_, err = parseOptions([]string{"-f", "rows.csv", "--no-such-flag"})
	assert.Error(t, err)

	_, err = parseOptions([]string{"-f", "rows.csv", "extra"})
	assert.ErrorContains(t, err, "unexpected arguments")

	_, err = parseOptions([]string{"--help"})
	assert.True(t, isHelp(err))
}

func TestParseOptionsConfigFile(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "striiimer.ini")
	require.NoError(t, os.WriteFile(path, []byte(
		"[Stream options]\n"+
			"file = from-ini.csv\n"+
			"\n"+
			"[Sink options]\n"+
			"driver = sqlite\n"+
			"create-table = true\n"+
			"table = from_ini\n"), 0o600))

	opts, err := parseOptions([]string{"--config", path, "--table", "from_cli"})
	require.NoError(t, err)

	assert.Equal(t, "from-ini.csv", opts.Stream.File)
	assert.Equal(t, "sqlite", opts.Sink.Driver)
	assert.True(t, opts.Sink.CreateTable)
	assert.Equal(t, "from_cli", opts.Sink.Table)

	_, err = parseOptions([]string{"--config", filepath.Join(t.TempDir(), "missing.ini"), "-f", "x.csv"})
	assert.ErrorContains(t, err, "cannot read config")
}
