package sql

import (
	"fmt"
	"strings"

	"github.com/MinaBasem/Striiimer/db"
)

// insertQuery renders a parameterized single row INSERT for the dialect
func insertQuery(d dialect, tableName string, columnNames []string) string {
	var b = d.builder()
	var columns = make([]string, len(columnNames))
	var placeholders = make([]string, len(columnNames))

	for i, col := range columnNames {
		columns[i] = b.QuoteIdent(col)
		placeholders[i] = b.Placeholder(i)
	}

	return fmt.Sprintf("INSERT INTO %s(%s) VALUES (%s)",
		d.table(tableName),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "))
}

// Insert appends one row to tableName
func (g *sqlGateway) Insert(tableName string, columnNames []string, values []interface{}) (db.Result, error) {
	if tableName == "" {
		return nil, fmt.Errorf("insert: empty table name")
	}

	if len(columnNames) == 0 {
		return nil, fmt.Errorf("insert into %s: no columns", tableName)
	}

	if len(columnNames) != len(values) {
		return nil, fmt.Errorf("insert into %s: %d columns but %d values", tableName, len(columnNames), len(values))
	}

	var result, err = g.rw.execContext(g.ctx, insertQuery(g.dialect, tableName, columnNames), values...)
	if err != nil {
		return nil, fmt.Errorf("DB exec failed: %w", err)
	}

	return result, nil
}
