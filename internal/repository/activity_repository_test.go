package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/groupcal-api/internal/models"
)

func TestActivityRepositoryInsertDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO activity_log").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "u1", "Ava", "alpha", "admin", "CONFIG_UPDATE", []byte("{}")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := &models.ActivityEntry{UserID: "u1", UserName: "Ava", Site: "alpha", Role: models.RoleAdmin, ActionType: models.ActivityConfigUpdate}
	require.NoError(t, NewActivityRepository(db).Insert(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestActivityRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("FROM activity_log WHERE site = \\$1 ORDER BY occurred_at DESC LIMIT 20 OFFSET 20").
		WithArgs("alpha").
		WillReturnRows(sqlmock.NewRows([]string{"id", "occurred_at", "user_id", "user_name", "site", "role", "action_type", "details"}).
			AddRow("a1", now, "u1", "Ava", "alpha", "admin", "EVENT_CREATE", []byte(`{"title":"Rally"}`)))
	mock.ExpectQuery("SELECT COUNT").WithArgs("alpha").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	entries, total, err := NewActivityRepository(db).List(context.Background(), models.ActivityFilter{Site: "alpha", Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 21, total)
	require.Len(t, entries, 1)

	var details map[string]string
	require.NoError(t, json.Unmarshal(entries[0].Details, &details))
	assert.Equal(t, "Rally", details["title"])
}

func TestActivityRepositoryPruneBefore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("DELETE FROM activity_log WHERE occurred_at < \\$1").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := NewActivityRepository(db).PruneBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
