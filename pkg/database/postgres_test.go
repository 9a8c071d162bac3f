package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/groupcal-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "groupcal", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=groupcal sslmode=disable", dsn)
}

func TestMigrateSkipsAppliedVersions(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "postgres")
	defer db.Close()

	files := fstest.MapFS{
		"0001_init.sql":  {Data: []byte("CREATE TABLE events (id TEXT)")},
		"0002_extra.sql": {Data: []byte("ALTER TABLE events ADD COLUMN title TEXT")},
		"README.md":      {Data: []byte("ignored")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("0001_init.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("0002_extra.sql").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("ALTER TABLE events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("0002_extra.sql").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	applied, err := Migrate(context.Background(), db, files)
	require.NoError(t, err)
	assert.Equal(t, []string{"0002_extra.sql"}, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}
