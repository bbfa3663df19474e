package blacklist

import (
	"context"
	"testing"

	"github.com/Shivanand-hulikatti/event-seat-booking/internal/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "test:blacklist"), mr
}

func TestStore_AddCheckRemove(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	olaf := model.Customer{Name: "Olaf", Address: "Street 1"}

	blocked, err := store.IsCustomerBlacklisted(ctx, olaf)
	require.NoError(t, err)
	assert.False(t, blocked)

	added, err := store.Add(ctx, olaf)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add(ctx, olaf)
	require.NoError(t, err)
	assert.False(t, added)

	blocked, err = store.IsCustomerBlacklisted(ctx, olaf)
	require.NoError(t, err)
	assert.True(t, blocked)

	n, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	removed, err := store.Remove(ctx, olaf)
	require.NoError(t, err)
	assert.True(t, removed)

	blocked, err = store.IsCustomerBlacklisted(ctx, olaf)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestStore_IdentityIsNameAndAddress(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Add(ctx, model.Customer{Name: "Olaf", Address: "Street 1"})
	require.NoError(t, err)

	for _, c := range []model.Customer{
		{Name: "Olaf", Address: "Street 2"},
		{Name: "Olaf|Street", Address: "1"},
		{Name: "olaf", Address: "Street 1"},
	} {
		blocked, err := store.IsCustomerBlacklisted(ctx, c)
		require.NoError(t, err)
		assert.False(t, blocked, "%+v", c)
	}
}

func TestStore_RejectsNamelessCustomer(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Add(context.Background(), model.Customer{Address: "x"})
	assert.ErrorIs(t, err, ErrInvalidCustomer)
}

func TestStore_RedisFailure(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	mr.SetError("LOADING")

	_, err := store.IsCustomerBlacklisted(ctx, model.Customer{Name: "Olaf"})
	assert.Error(t, err)

	mr.SetError("")
	assert.NoError(t, store.Ping(ctx))
}
