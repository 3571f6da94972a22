package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/MinaBasem/Striiimer/db"
)

func tableExists(q querier, d dialect, name string) (bool, error) {
	var query string
	var args = []interface{}{name}
	var p = d.builder().Placeholder

	switch d.name() {
	case db.SQLITE:
		query = fmt.Sprintf(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = %s`, p(0))

	case db.MYSQL:
		query = fmt.Sprintf(`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = %s AND table_schema = DATABASE()`, p(0))

	case db.POSTGRES:
		query = fmt.Sprintf(`SELECT COUNT(*) FROM information_schema.tables WHERE table_type = 'BASE TABLE' AND table_name = %s`, p(0))
		if d.schema() != "" {
			query += fmt.Sprintf(" AND table_schema = %s", p(1))
			args = append(args, d.schema())
		} else {
			query += " AND table_schema = current_schema()"
		}

	case db.MSSQL:
		query = fmt.Sprintf(`SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' AND TABLE_NAME = %s`, p(0))

	default:
		return false, fmt.Errorf("unsupported driver: %s", d.name())
	}

	var exists int
	if err := q.queryRowContext(context.Background(), query, args...).Scan(&exists); err != nil && err != sql.ErrNoRows {
		return false, err
	}

	return exists != 0, nil
}

func constructSQLDDLQuery(d dialect, tableName string, tableDefinition *db.TableDefinition) string {
	if tableDefinition == nil || len(tableDefinition.TableRows) == 0 {
		return ""
	}

	var b = d.builder()
	var columns = make([]string, 0, len(tableDefinition.TableRows)+1)
	for _, row := range tableDefinition.TableRows {
		var column = fmt.Sprintf("%v %v", b.QuoteIdent(row.Name), d.getType(row.Type))
		if row.NotNull {
			column += " NOT NULL"
		}
		columns = append(columns, column)
	}

	if len(tableDefinition.PrimaryKey) != 0 {
		var keys = make([]string, len(tableDefinition.PrimaryKey))
		for i, key := range tableDefinition.PrimaryKey {
			keys[i] = b.QuoteIdent(key)
		}
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}

	var query = fmt.Sprintf("CREATE TABLE %v (%s)", d.table(tableName), strings.Join(columns, ", "))
	if tableDefinition.Engine != "" {
		query += " ENGINE = " + tableDefinition.Engine
	}

	return query
}

func createTable(q querier, d dialect, name string, tableDefinition *db.TableDefinition) error {
	if name == "" {
		return fmt.Errorf("create table: empty table name")
	}

	if exists, err := tableExists(q, d, name); err != nil {
		return fmt.Errorf("error checking table existence: %v", err)
	} else if exists {
		return nil
	}

	var ddlQuery = constructSQLDDLQuery(d, name, tableDefinition)
	if ddlQuery == "" {
		return fmt.Errorf("internal error: table %s needs to be created, but it has no columns", name)
	}

	if _, err := q.execContext(context.Background(), ddlQuery); err != nil {
		return fmt.Errorf("DB migration failed: %s, error: %v", ddlQuery, err)
	}

	return nil
}

// dropTable drops a table if it exists
func dropTable(q querier, d dialect, name string) error {
	var drop string
	if d.name() == db.MSSQL {
		drop = fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s", strings.ReplaceAll(name, "'", "''"), d.table(name))
	} else {
		drop = fmt.Sprintf("DROP TABLE IF EXISTS %v", d.table(name))
	}

	if _, err := q.execContext(context.Background(), drop); err != nil {
		return err
	}

	return nil
}
