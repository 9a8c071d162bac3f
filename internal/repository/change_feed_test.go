package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/groupcal-api/internal/models"
)

func TestMemoryChangeFeedDeliversToSiteSubscribers(t *testing.T) {
	feed := NewMemoryChangeFeed()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alpha, err := feed.Subscribe(ctx, "alpha")
	require.NoError(t, err)
	beta, err := feed.Subscribe(ctx, "beta")
	require.NoError(t, err)

	notice, err := feed.Bump(context.Background(), "alpha", models.CollectionEvents)
	require.NoError(t, err)
	assert.Equal(t, int64(1), notice.Version)

	select {
	case got := <-alpha:
		assert.Equal(t, notice.Version, got.Version)
		assert.Equal(t, models.CollectionEvents, got.Collection)
	case <-time.After(time.Second):
		t.Fatal("alpha subscriber did not receive notice")
	}

	select {
	case <-beta:
		t.Fatal("beta subscriber received alpha notice")
	default:
	}

	v, err := feed.Version(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
}

func TestMemoryChangeFeedClosesOnCancel(t *testing.T) {
	feed := NewMemoryChangeFeed()
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := feed.Subscribe(ctx, "alpha")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription was not closed")
	}

	_, err = feed.Bump(context.Background(), "alpha", models.CollectionSettings)
	require.NoError(t, err)
}
