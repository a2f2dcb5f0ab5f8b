package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryJournal_ListNewestFirst(t *testing.T) {
	j := NewMemoryJournal(10)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, j.Record(ctx, settlement(fmt.Sprintf("s-%d", i), "caja-1", base.Add(time.Duration(i)*time.Second))))
	}

	list, err := j.List(ctx, "caja-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "s-2", list[0].ID)
	assert.Equal(t, "s-0", list[2].ID)
}

func TestMemoryJournal_EvictsOldest(t *testing.T) {
	j := NewMemoryJournal(2)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, j.Record(ctx, settlement(fmt.Sprintf("s-%d", i), "caja-1", base.Add(time.Duration(i)*time.Second))))
	}

	_, err := j.Get(ctx, "s-0")
	assert.ErrorIs(t, err, ErrSettlementNotFound)

	list, _ := j.List(ctx, "caja-1", 10)
	assert.Len(t, list, 2)
}

func TestMemoryJournal_DuplicateIgnored(t *testing.T) {
	j := NewMemoryJournal(10)
	ctx := context.Background()
	s := settlement("s-1", "caja-1", time.Now())

	require.NoError(t, j.Record(ctx, s))
	require.NoError(t, j.Record(ctx, s))

	list, _ := j.List(ctx, "caja-1", 10)
	assert.Len(t, list, 1)
}

func TestMemoryJournal_ReturnsCopies(t *testing.T) {
	j := NewMemoryJournal(10)
	ctx := context.Background()
	require.NoError(t, j.Record(ctx, settlement("s-1", "caja-1", time.Now())))

	got, _ := j.Get(ctx, "s-1")
	got.Message = "changed"

	again, _ := j.Get(ctx, "s-1")
	assert.Equal(t, "ok", again.Message)
}

func TestMemoryJournal_Outbox(t *testing.T) {
	j := NewMemoryJournal(10)
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, j.Record(ctx, settlement("s-2", "caja-2", base.Add(time.Second))))
	require.NoError(t, j.Record(ctx, settlement("s-1", "caja-1", base)))
	require.NoError(t, j.Record(ctx, settlement("s-3", "caja-1", base.Add(2*time.Second))))

	pending, err := j.Unpublished(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "s-1", pending[0].ID)
	assert.Equal(t, "s-2", pending[1].ID)

	require.NoError(t, j.MarkPublished(ctx, "s-1", base))
	pending, _ = j.Unpublished(ctx, 0)
	require.Len(t, pending, 2)
	assert.Equal(t, "s-2", pending[0].ID)

	got, _ := j.Get(ctx, "s-1")
	require.NotNil(t, got.PublishedAt)

	assert.ErrorIs(t, j.MarkPublished(ctx, "missing", base), ErrSettlementNotFound)
}
