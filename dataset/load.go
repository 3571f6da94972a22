package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned by Load for file extensions it has no reader for
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Load reads a table from path, the reader is picked by extension (.csv, .parquet)
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".parquet", ".pq":
		return LoadParquet(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
