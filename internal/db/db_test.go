package db

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func TestRunMigrationsWithMissingPath(t *testing.T) {
	dbx, mock := newMockDB(t)
	// zero .up.sql files touches nothing
	assert.NoError(t, RunMigrations(context.Background(), dbx, "./does-not-exist"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsSkipsRecordedFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("0002_rules.up.sql", "CREATE TABLE b (id int);")
	write("0001_init.up.sql", "CREATE TABLE a (id int);")
	write("0001_init.down.sql", "DROP TABLE a;")
	write("0003_empty.up.sql", "")

	dbx, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT filename FROM schema_migrations;")).
		WillReturnRows(sqlmock.NewRows([]string{"filename"}).AddRow("0001_init.up.sql"))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE b (id int);")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (filename) VALUES ($1);")).
		WithArgs("0002_rules.up.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (filename) VALUES ($1);")).
		WithArgs("0003_empty.up.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), dbx, dir))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrationsRollsBackFailedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0001_init.up.sql"), []byte("CREATE TABLE a (id int);"), 0o644))

	dbx, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT filename FROM schema_migrations;")).
		WillReturnRows(sqlmock.NewRows([]string{"filename"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a (id int);")).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := RunMigrations(context.Background(), dbx, dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0001_init.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitGivesUpWhenContextIsDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Init(ctx, "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
