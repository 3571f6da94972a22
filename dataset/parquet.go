package dataset

import (
	"context"
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

const defaultBatchSize = 2048

// LoadParquet reads every row group of the parquet file at path
func LoadParquet(path string) (*Table, error) {
	var rdr, err = file.OpenParquetFile(path, true)
	if err != nil {
		return nil, fmt.Errorf("error opening parquet file: %v", err)
	}
	defer rdr.Close()

	var mem = memory.NewGoAllocator()
	var reader *pqarrow.FileReader
	if reader, err = pqarrow.NewFileReader(rdr, pqarrow.ArrowReadProperties{
		BatchSize: defaultBatchSize,
	}, mem); err != nil {
		return nil, fmt.Errorf("error creating Arrow file reader: %v", err)
	}

	var leaves []int
	for i := 0; i < rdr.MetaData().Schema.NumColumns(); i++ {
		leaves = append(leaves, i)
	}

	var rgrs []int
	for r := 0; r < rdr.NumRowGroups(); r++ {
		rgrs = append(rgrs, r)
	}

	var recordReader pqarrow.RecordReader
	if recordReader, err = reader.GetRecordReader(context.Background(), leaves, rgrs); err != nil {
		return nil, fmt.Errorf("error creating record reader: %v", err)
	}
	defer recordReader.Release()

	var schema = recordReader.Schema()
	var columns = make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		columns[i] = f.Name
	}

	var rows [][]interface{}
	for recordReader.Next() {
		var rec = recordReader.Record()
		for i := 0; i < int(rec.NumRows()); i++ {
			var row = make([]interface{}, 0, len(columns))
			for _, col := range rec.Columns() {
				v, err := valueAt(col, i)
				if err != nil {
					return nil, fmt.Errorf("%s: row %d: %w", path, len(rows), err)
				}
				row = append(row, v)
			}
			rows = append(rows, row)
		}
	}
	if err = recordReader.Err(); err != nil {
		return nil, fmt.Errorf("error reading parquet records: %v", err)
	}

	return New(columns, rows)
}

// valueAt copies the i-th value out of col, record buffers are released after reading
func valueAt(col arrow.Array, i int) (interface{}, error) {
	if col.IsNull(i) {
		return nil, nil
	}

	switch specificArray := col.(type) {
	case *array.Int32:
		return specificArray.Value(i), nil
	case *array.Int64:
		return specificArray.Value(i), nil
	case *array.Float32:
		return specificArray.Value(i), nil
	case *array.Float64:
		return specificArray.Value(i), nil
	case *array.Boolean:
		return specificArray.Value(i), nil
	case *array.String:
		return strings.Clone(specificArray.Value(i)), nil
	case *array.LargeString:
		return strings.Clone(specificArray.Value(i)), nil
	case *array.Binary:
		return append([]byte(nil), specificArray.Value(i)...), nil
	case *array.Timestamp:
		var unit = specificArray.DataType().(*arrow.TimestampType).Unit
		return specificArray.Value(i).ToTime(unit), nil
	case *array.List, *array.LargeList, *array.FixedSizeList, *array.Struct, *array.Map:
		return nil, fmt.Errorf("%w: nested column type %s cannot be stored in a single cell", ErrNotTabular, col.DataType())
	default:
		return nil, fmt.Errorf("%w: unsupported column type %s", ErrNotTabular, col.DataType())
	}
}
