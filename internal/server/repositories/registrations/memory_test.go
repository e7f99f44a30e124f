package registrations

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/bidmarket/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	require.NoError(t, r.Upsert(ctx, pending()))

	again := pending()
	again.Code = "654321"
	require.NoError(t, r.Upsert(ctx, again))

	got, err := r.Get(ctx, "S@B.com")
	require.NoError(t, err)
	assert.Equal(t, "654321", got.Code)

	require.NoError(t, r.Delete(ctx, "s@b.com"))
	_, err = r.Get(ctx, "s@b.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryRepository_FailedAttempts(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()

	_, err := r.AddFailedAttempt(ctx, "s@b.com")
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, r.Upsert(ctx, pending()))
	for want := 1; want <= 2; want++ {
		n, err := r.AddFailedAttempt(ctx, "S@B.com")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	require.NoError(t, r.Upsert(ctx, pending()))
	got, err := r.Get(ctx, "s@b.com")
	require.NoError(t, err)
	assert.Zero(t, got.Attempts, "a new code resets the count")
}
