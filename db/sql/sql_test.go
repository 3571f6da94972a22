package sql

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/MinaBasem/Striiimer/db"
)

const sqliteConnString = "sqlite://:memory:"

type TestingSuite struct {
	suite.Suite
	ConnString string
}

func TestDatabaseSuiteSQLite(t *testing.T) {
	suite.Run(t, &TestingSuite{ConnString: sqliteConnString})
}

type testLogger struct {
	t     *testing.T
	lines []string
}

func (l *testLogger) Log(format string, args ...interface{}) {
	var line = fmt.Sprintf(format, args...)
	l.lines = append(l.lines, line)
	l.t.Log(line)
}

func testTableDefinition() *db.TableDefinition {
	return &db.TableDefinition{
		TableRows: []db.TableRow{
			{Name: "id", Type: db.DataTypeBigInt, NotNull: true},
			{Name: "price", Type: db.DataTypeDouble},
			{Name: "name", Type: db.DataTypeText},
		},
	}
}

func (suite *TestingSuite) open(dryRun bool) (db.Database, *testLogger) {
	var logger = &testLogger{t: suite.T()}

	dbo, err := db.Open(db.Config{
		ConnString:  suite.ConnString,
		DryRun:      dryRun,
		QueryLogger: logger,
	})
	require.NoError(suite.T(), err, "making test database")

	suite.T().Cleanup(func() {
		_ = dbo.Close()
	})

	return dbo, logger
}

func (suite *TestingSuite) TestCreateTableIsIdempotent() {
	dbo, _ := suite.open(false)

	exists, err := dbo.TableExists("ticks")
	suite.Require().NoError(err)
	suite.False(exists)

	suite.Require().NoError(dbo.CreateTable("ticks", testTableDefinition()))
	suite.Require().NoError(dbo.CreateTable("ticks", testTableDefinition()))

	exists, err = dbo.TableExists("ticks")
	suite.Require().NoError(err)
	suite.True(exists)

	suite.Require().NoError(dbo.DropTable("ticks"))

	exists, err = dbo.TableExists("ticks")
	suite.Require().NoError(err)
	suite.False(exists)
}

func (suite *TestingSuite) TestInsertAppendsInOrder() {
	dbo, _ := suite.open(false)
	suite.Require().NoError(dbo.CreateTable("ticks", testTableDefinition()))

	var c = db.NewContext(context.Background())
	var s = dbo.Session(c)

	var columns = []string{"id", "price", "name"}
	for i, name := range []string{"first", "second", "third"} {
		_, err := s.Insert("ticks", columns, []interface{}{i, float64(i) + 0.5, name})
		suite.Require().NoError(err)
	}

	var count int
	suite.Require().NoError(s.QueryRow(`SELECT COUNT(*) FROM "ticks"`).Scan(&count))
	suite.Equal(3, count)

	var last string
	suite.Require().NoError(s.QueryRow(`SELECT name FROM "ticks" ORDER BY rowid DESC LIMIT 1`).Scan(&last))
	suite.Equal("third", last)

	suite.EqualValues(5, c.Statements.Load())
	suite.Positive(c.ExecTime.Load())
}

func (suite *TestingSuite) TestInsertValidatesShape() {
	dbo, _ := suite.open(false)
	var s = dbo.Session(db.NewContext(context.Background()))

	_, err := s.Insert("ticks", []string{"id", "name"}, []interface{}{1})
	suite.Error(err)

	_, err = s.Insert("", []string{"id"}, []interface{}{1})
	suite.Error(err)

	_, err = s.Insert("ticks", nil, nil)
	suite.Error(err)
}

func (suite *TestingSuite) TestInsertIntoMissingTableFails() {
	dbo, _ := suite.open(false)
	var s = dbo.Session(db.NewContext(context.Background()))

	_, err := s.Insert("nope", []string{"id"}, []interface{}{1})
	suite.Error(err)
}

func (suite *TestingSuite) TestDryRunSkipsInserts() {
	dbo, logger := suite.open(true)
	var s = dbo.Session(db.NewContext(context.Background()))

	result, err := s.Insert("ticks", []string{"id"}, []interface{}{7})
	suite.Require().NoError(err)

	affected, err := result.RowsAffected()
	suite.Require().NoError(err)
	suite.Zero(affected)

	suite.Require().NotEmpty(logger.lines)
	suite.Contains(logger.lines[len(logger.lines)-1], "skip because of 'dry-run' mode")

	exists, err := dbo.TableExists("ticks")
	suite.Require().NoError(err)
	suite.False(exists)
}

func (suite *TestingSuite) TestInsertsCommitOneByOne() {
	dbo, _ := suite.open(false)
	suite.Require().NoError(dbo.CreateTable("ticks", testTableDefinition()))

	var s = dbo.Session(db.NewContext(context.Background()))

	_, err := s.Insert("ticks", []string{"id"}, []interface{}{1})
	suite.Require().NoError(err)

	_, err = s.Insert("ticks", []string{"missing"}, []interface{}{2})
	suite.Require().Error(err)

	var count int
	suite.Require().NoError(s.QueryRow(`SELECT COUNT(*) FROM "ticks"`).Scan(&count))
	suite.Equal(1, count)
}

func TestSqliteRequiresAbsolutePath(t *testing.T) {
	_, err := db.Open(db.Config{ConnString: "sqlite://relative/file.db"})
	require.Error(t, err)

	_, err = db.Open(db.Config{ConnString: "sqlite://"})
	require.Error(t, err)
}

func TestGetDialectName(t *testing.T) {
	for cs, expected := range map[string]db.DialectName{
		"postgres://localhost/db":              db.POSTGRES,
		"postgresql://localhost/db":            db.POSTGRES,
		"mysql://user@tcp(localhost:3306)/db":  db.MYSQL,
		"sqlite://:memory:":                    db.SQLITE,
		"sqlserver://localhost?database=db":    db.MSSQL,
		"mssql://localhost?database=db":        db.MSSQL,
	} {
		dia, err := db.GetDialectName(cs)
		require.NoError(t, err, cs)
		assert.Equal(t, expected, dia, cs)
	}

	_, err := db.GetDialectName("oracle://localhost")
	assert.Error(t, err)
}
