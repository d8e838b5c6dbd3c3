package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desiyatra/bargainer/internal/common"
	"github.com/desiyatra/bargainer/internal/model"
)

func sampleSession(id string) *model.NegotiationSession {
	quote := 4000.0
	return &model.NegotiationSession{
		ID: id,
		Vendor: model.Vendor{
			Name:     "Hotel Mountain View",
			Contact:  "+919876543210",
			Category: "hotel",
		},
		Trip: model.TripContext{
			Destination: "Manali",
			VendorType:  "hotel",
			MarketRate:  1500,
			BudgetMax:   2000,
			PartySize:   2,
		},
		Status:       model.StatusOpen,
		CurrentQuote: &quote,
		Profile:      &model.VendorProfile{Style: model.StyleFlexible},
		History: []model.Utterance{
			{Speaker: model.SpeakerAgent, Text: "Is a room free?"},
			{Speaker: model.SpeakerVendor, Text: "Yes, four thousand"},
		},
		Round: 1,
	}
}

func TestMemoryStore_PutGetDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := sampleSession("call:+919876543210")
	require.NoError(t, store.Put(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, common.ErrSessionNotFound)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "call:+910000000000")
	assert.ErrorIs(t, err, common.ErrSessionNotFound)
}

func TestMemoryStore_DeleteMissingIsNotAnError(t *testing.T) {
	store := NewMemoryStore()

	assert.NoError(t, store.Delete(context.Background(), "call:+910000000000"))
}

func TestMemoryStore_CopiesOnTheWayInAndOut(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess := sampleSession("call:+919876543210")
	require.NoError(t, store.Put(ctx, sess))

	// Mutating the original after Put must not leak into the store.
	sess.Round = 99
	*sess.CurrentQuote = 1.0
	sess.History[0].Text = "tampered"

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Round)
	assert.InDelta(t, 4000.0, *got.CurrentQuote, 1e-9)
	assert.Equal(t, "Is a room free?", got.History[0].Text)

	// Mutating a Get result must not leak either.
	got.History = append(got.History, model.Utterance{Speaker: model.SpeakerVendor, Text: "extra"})
	again, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, again.History, 2)
}

func TestMemoryStore_RejectsInvalidInput(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.Error(t, store.Put(ctx, nil))
	assert.Error(t, store.Put(ctx, &model.NegotiationSession{}))

	_, err := store.Get(ctx, "")
	assert.Error(t, err)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "call:+919876543210")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("call:+91%010d", i)
			sess := sampleSession(id)
			assert.NoError(t, store.Put(ctx, sess))

			got, err := store.Get(ctx, id)
			if assert.NoError(t, err) {
				assert.Equal(t, id, got.ID)
			}
			assert.NoError(t, store.Delete(ctx, id))
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, store.Len())
}
