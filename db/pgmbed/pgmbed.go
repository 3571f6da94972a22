// Package pgmbed runs a local PostgreSQL server for demo streams.
//
// It is enabled through connection string parameters:
//
//	postgres://localhost/postgres?embedded-postgres=true&ep-port=5433&ep-data-dir=/tmp/pg&ep-max-connections=16
package pgmbed

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"

	"github.com/MinaBasem/Striiimer/db"
)

const (
	paramEnabled        = "embedded-postgres"
	paramPort           = "ep-port"
	paramDataDir        = "ep-data-dir"
	paramMaxConnections = "ep-max-connections"
)

var (
	mu       sync.Mutex
	refCount int

	// one instance per process
	instance *embeddedpostgres.EmbeddedPostgres
)

// Opts is a structure to store all the embedded postgresql options
type Opts struct {
	Enabled        bool
	Port           int
	DataDir        string
	MaxConnections int
}

// ParseOptions extracts the embedded Postgres options and returns the connection string without them.
func ParseOptions(cs string) (string, *Opts, error) {
	parsedURL, err := url.Parse(cs)
	if err != nil {
		return "", nil, fmt.Errorf("pgmbed: invalid connection string: %v", err)
	}

	queryParams := parsedURL.Query()

	opts := &Opts{
		Port:           5433,
		MaxConnections: 64,
	}

	if enabled, exists := queryParams[paramEnabled]; exists {
		if opts.Enabled, err = strconv.ParseBool(enabled[0]); err != nil {
			return "", nil, fmt.Errorf("invalid value for %s: %v", paramEnabled, err)
		}
		delete(queryParams, paramEnabled)
	}

	if port, exists := queryParams[paramPort]; exists {
		if opts.Port, err = strconv.Atoi(port[0]); err != nil {
			return "", nil, fmt.Errorf("invalid value for %s: %v", paramPort, err)
		}
		delete(queryParams, paramPort)
	}

	if dataDir, exists := queryParams[paramDataDir]; exists {
		opts.DataDir = dataDir[0]
		delete(queryParams, paramDataDir)
	}

	if maxConns, exists := queryParams[paramMaxConnections]; exists {
		if opts.MaxConnections, err = strconv.Atoi(maxConns[0]); err != nil {
			return "", nil, fmt.Errorf("invalid value for %s: %v", paramMaxConnections, err)
		}
		delete(queryParams, paramMaxConnections)
	}

	parsedURL.RawQuery = queryParams.Encode()

	return parsedURL.String(), opts, nil
}

// packConnectionString points cs at the embedded server
func packConnectionString(cs string, opts *Opts) string {
	if cs == "" || opts == nil {
		return cs
	}

	var u, err = url.Parse(cs)
	if err != nil {
		return cs
	}

	u.Host = fmt.Sprintf("localhost:%d", opts.Port)
	u.User = url.UserPassword("postgres", "postgres")
	u.Path = "/postgres"

	return u.String()
}

// serverLog forwards server output line by line
type serverLog struct {
	logger db.Logger
}

func (l serverLog) Write(p []byte) (n int, err error) {
	if l.logger == nil {
		return len(p), nil
	}

	for _, line := range strings.Split(string(p), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			l.logger.Log("-- embedded postgres: %s", line)
		}
	}

	return len(p), nil
}

func dataDir(dir string, logger db.Logger) (string, error) {
	if dir == "" {
		dir = ".embedded-postgres-go"
		if userHome, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(userHome, dir)
		}
		dir = filepath.Join(dir, "data")
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if logger != nil {
			logger.Log("-- embedded postgres: creating data dir: %s", dir)
		}
		if err = os.MkdirAll(dir, os.ModePerm); err != nil {
			return "", fmt.Errorf("failed to create data directory: %v", err)
		}
	}

	if logger != nil {
		logger.Log("-- embedded postgres: using data dir: %s", dir)
	}

	return dir, nil
}

// Launch starts the embedded Postgres instance unless it is already running and
// returns a connection string pointing at it. Every successful Launch must be paired with Terminate.
func Launch(cs string, opts *Opts, logger db.Logger) (string, error) {
	if opts == nil || !opts.Enabled {
		return cs, nil
	}

	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		var port = uint32(opts.Port)
		var dir, err = dataDir(opts.DataDir, logger)
		if err != nil {
			return "", err
		}

		var pg = embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
			Port(port).
			DataPath(dir).
			Logger(serverLog{logger: logger}).
			StartParameters(map[string]string{
				"max_connections": strconv.Itoa(opts.MaxConnections),
				"jit":             "off",
			}))

		if err = pg.Start(); err != nil {
			if err.Error() != fmt.Sprintf("process already listening on port %d", port) {
				return "", fmt.Errorf("embedded Postgres DB start error: %v", err)
			}
			// someone else serves the port, nothing to stop later
			pg = nil
		}

		instance = pg
	}

	refCount++

	return packConnectionString(cs, opts), nil
}

// Terminate releases one Launch; the server stops with the last release.
func Terminate() error {
	mu.Lock()
	defer mu.Unlock()

	if refCount == 0 {
		return nil
	}

	refCount--
	if refCount != 0 || instance == nil {
		return nil
	}

	var err = instance.Stop()
	instance = nil

	if err != nil {
		return fmt.Errorf("embedded Postgres DB stop error: %v", err)
	}

	return nil
}
