package calendar

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/groupcal-api/internal/models"
)

func strPtr(v string) *string { return &v }

func TestUpcomingFiltersAfterTruncation(t *testing.T) {
	now := utc(2024, 1, 15, 0, 0)
	categories := []models.Category{{ID: "war", Name: "War", Priority: intPtr(3)}}

	var events []models.Event
	for i := 1; i <= 10; i++ {
		e := recurring(fmt.Sprintf("e%02d", i), now.Add(time.Duration(i)*time.Hour), RecurrenceNone)
		if i >= 6 {
			e.CategoryID = strPtr("war")
		}
		events = append(events, e)
	}

	got, err := Upcoming(events, categories, UpcomingOptions{Now: now, Limit: 5, PriorityFilter: intPtr(3)})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Upcoming(events, categories, UpcomingOptions{Now: now, Limit: 5})
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "e01", got[0].ID)
	assert.Equal(t, "e05", got[4].ID)

	got, err = Upcoming(events, categories, UpcomingOptions{Now: now, Limit: 10, PriorityFilter: intPtr(3)})
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestUpcomingMergesAndSorts(t *testing.T) {
	now := utc(2024, 1, 15, 0, 0)
	events := []models.Event{
		recurring("later", utc(2024, 1, 16, 20, 0), RecurrenceNone),
		recurring("daily", utc(2024, 1, 1, 9, 0), RecurrenceDaily),
		recurring("gone", utc(2024, 1, 14, 9, 0), RecurrenceNone),
	}

	got, err := Upcoming(events, nil, UpcomingOptions{Now: now})
	require.NoError(t, err)
	require.Len(t, got, DefaultUpcomingLimit)

	assert.Equal(t, []time.Time{
		utc(2024, 1, 15, 9, 0),
		utc(2024, 1, 16, 9, 0),
		utc(2024, 1, 16, 20, 0),
		utc(2024, 1, 17, 9, 0),
		utc(2024, 1, 18, 9, 0),
	}, starts(got))
	assert.Equal(t, "later", got[2].ID)
	assert.Equal(t, "daily", AnchorID(got[0].ID))
}

func TestUpcomingDanglingCategoryUsesDefaultPriority(t *testing.T) {
	now := utc(2024, 1, 15, 0, 0)
	e := recurring("orphan", utc(2024, 1, 16, 9, 0), RecurrenceNone)
	e.CategoryID = strPtr("deleted")
	plain := recurring("plain", utc(2024, 1, 17, 9, 0), RecurrenceNone)
	unset := models.Category{ID: "unset", Name: "Unset"}
	third := recurring("unset", utc(2024, 1, 18, 9, 0), RecurrenceNone)
	third.CategoryID = strPtr("unset")

	got, err := Upcoming([]models.Event{e, plain, third}, []models.Category{unset}, UpcomingOptions{Now: now, PriorityFilter: intPtr(models.DefaultPriority)})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestUpcomingPropagatesInvalidEvents(t *testing.T) {
	now := utc(2024, 1, 15, 0, 0)
	bad := models.Event{ID: "bad", Start: now.Add(time.Hour), Duration: 0}

	_, err := Upcoming([]models.Event{bad}, nil, UpcomingOptions{Now: now})
	require.ErrorIs(t, err, ErrInvalidEvent)
}
