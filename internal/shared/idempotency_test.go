package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newIdempotencyStore(t *testing.T) (*IdempotencyStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewIdempotencyStore(client, time.Hour), mr
}

func TestIdempotencyReserveCompleteReplay(t *testing.T) {
	ctx := context.Background()
	store, mr := newIdempotencyStore(t)

	require.NoError(t, store.Reserve(ctx, "ledger", "abc"))

	err := store.Reserve(ctx, "ledger", "abc")
	require.ErrorIs(t, err, ErrIdempotencyConflict)
	var replay *IdempotencyReplay
	require.True(t, errors.As(err, &replay))
	require.Empty(t, replay.Result)

	require.NoError(t, store.Complete(ctx, "ledger", "abc", "42"))
	err = store.Reserve(ctx, "ledger", "abc")
	require.True(t, errors.As(err, &replay))
	require.Equal(t, "42", replay.Result)

	require.NoError(t, store.Reserve(ctx, "quotes", "abc"))

	mr.FastForward(2 * time.Hour)
	require.NoError(t, store.Reserve(ctx, "ledger", "abc"))
}

func TestIdempotencyDeleteReleasesKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newIdempotencyStore(t)

	require.NoError(t, store.Reserve(ctx, "ledger", "k1"))
	require.NoError(t, store.Delete(ctx, "ledger", "k1"))
	require.NoError(t, store.Reserve(ctx, "ledger", "k1"))

	require.Error(t, store.Reserve(ctx, "ledger", ""))
}

func TestNilIdempotencyStore(t *testing.T) {
	require.Nil(t, NewIdempotencyStore(nil, time.Minute))
	var store *IdempotencyStore
	require.NoError(t, store.Complete(context.Background(), "ledger", "k", "1"))
	require.Error(t, store.Reserve(context.Background(), "ledger", "k"))
}
