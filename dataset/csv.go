package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadCSV reads a table from r. The first record is the header, cell values stay strings.
func ReadCSV(r io.Reader) (*Table, error) {
	var reader = csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: csv has no header", ErrNotTabular)
		}
		return nil, fmt.Errorf("%w: reading csv header: %v", ErrNotTabular, err)
	}

	var rows [][]interface{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotTabular, err)
		}

		var row = make([]interface{}, len(record))
		for i, v := range record {
			row[i] = v
		}
		rows = append(rows, row)
	}

	return New(header, rows)
}

// LoadCSV reads a table from the CSV file at path
func LoadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening csv file: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return t, nil
}
