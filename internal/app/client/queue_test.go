package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinicsync/internal/domain/clinic"
	"clinicsync/internal/domain/operation"
)

func TestQueue_NextBatchTakesLowestReadyClass(t *testing.T) {
	store := openTestStorage(t)
	t.Cleanup(func() { _ = store.Close() })
	q := NewQueue(store, discardLogger())
	ctx := context.Background()

	a := &clinic.Client{FullName: "Иванов Иван", Phone: "+79991234567"}
	_, err := store.CreateClient(ctx, a, "op-a")
	require.NoError(t, err)
	p := &clinic.Patient{Name: "Барсик", Species: "кот", Gender: clinic.GenderMale, ClientID: a.ID}
	_, err = store.CreatePatient(ctx, p, "op-p")
	require.NoError(t, err)

	batch, err := q.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "op-a", batch[0].ID)

	require.NoError(t, q.MarkInFlight(ctx, batch[0]))
	assert.Equal(t, operation.StatusInFlight, batch[0].Status)
	require.NoError(t, q.MarkAcked(ctx, batch[0], 500))
	assert.Equal(t, operation.StatusAcked, batch[0].Status)

	// новый клиент младше по классу, чем освободившийся пациент
	b := &clinic.Client{FullName: "Петров Петр", Phone: "+79997654321"}
	_, err = store.CreateClient(ctx, b, "op-b")
	require.NoError(t, err)

	batch, err = q.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "op-b", batch[0].ID)

	require.NoError(t, q.MarkInFlight(ctx, batch[0]))
	require.NoError(t, q.MarkAcked(ctx, batch[0], 501))

	batch, err = q.NextBatch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "op-p", batch[0].ID)
	payload := batch[0].Payload.(operation.PatientPayload)
	assert.Equal(t, int64(500), payload.ClientID)
}

func TestQueue_NextBatchRespectsLimitAndOrder(t *testing.T) {
	store := openTestStorage(t)
	t.Cleanup(func() { _ = store.Close() })
	q := NewQueue(store, discardLogger())
	ctx := context.Background()

	for _, id := range []string{"op-1", "op-2", "op-3"} {
		_, err := store.CreateClient(ctx, &clinic.Client{FullName: id, Phone: "+79991234567"}, id)
		require.NoError(t, err)
	}

	batch, err := q.NextBatch(ctx, 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "op-1", batch[0].ID)
	assert.Equal(t, "op-2", batch[1].ID)
}

func TestQueue_FailReleaseAndCounts(t *testing.T) {
	store := openTestStorage(t)
	t.Cleanup(func() { _ = store.Close() })
	q := NewQueue(store, discardLogger())
	ctx := context.Background()

	for _, id := range []string{"op-1", "op-2"} {
		_, err := store.CreateClient(ctx, &clinic.Client{FullName: id, Phone: "+79991234567"}, id)
		require.NoError(t, err)
	}
	batch, err := q.NextBatch(ctx, 0)
	require.NoError(t, err)
	require.Len(t, batch, 2)

	require.NoError(t, q.MarkInFlight(ctx, batch[0]))
	require.NoError(t, q.MarkFailed(ctx, batch[0], errors.New("rejected")))
	require.NoError(t, q.MarkInFlight(ctx, batch[1]))
	require.NoError(t, q.Release(ctx, batch[1], errors.New("timeout")))

	size, err := q.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, size)
	failedCount, err := q.FailedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, failedCount)

	released, err := store.GetOperation(ctx, "op-2")
	require.NoError(t, err)
	assert.Equal(t, operation.StatusPending, released.Status)
	assert.Equal(t, 1, released.AttemptCount)
	require.NotNil(t, released.LastError)
	assert.Equal(t, "timeout", *released.LastError)

	require.NoError(t, q.Retry(ctx, "op-1"))
	failedCount, err = q.FailedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, failedCount)
}

func TestQueue_EnqueueDuplicateIgnored(t *testing.T) {
	store := openTestStorage(t)
	t.Cleanup(func() { _ = store.Close() })
	q := NewQueue(store, discardLogger())
	ctx := context.Background()

	c := &clinic.Client{FullName: "Иванов Иван", Phone: "+79991234567"}
	_, err := store.CreateClient(ctx, c, "op-1")
	require.NoError(t, err)

	op, err := store.GetOperation(ctx, "op-1")
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(ctx, op))

	size, err := q.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}
