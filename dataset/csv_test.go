package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	var input = "name, score\n\"Smith, J\", 10\nDoe,7\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "score"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []interface{}{"Smith, J", "10"}, tbl.Row(0).Values)
	assert.Equal(t, []interface{}{"Doe", "7"}, tbl.Row(1).Values)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNotTabular)

	_, err = ReadCSV(strings.NewReader("a,b\n"))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ReadCSV(strings.NewReader("a,b\n1,2\n3\n"))
	assert.ErrorIs(t, err, ErrNotTabular)
}

func TestLoadByExtension(t *testing.T) {
	var dir = t.TempDir()
	var path = filepath.Join(dir, "rows.CSV")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n2\n3\n"), 0o600))

	tbl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())

	_, err = Load(filepath.Join(dir, "rows.json"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadCSV(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}
