package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagewatch/internal/domain/dispatch"
	"stagewatch/internal/shared/config"
	"stagewatch/internal/shared/logger"
)

func testDispatcherConfig() config.DispatcherConfig {
	return config.DispatcherConfig{
		Senders:        2,
		PumpInterval:   10 * time.Millisecond,
		BatchSize:      10,
		MaxAttempts:    3,
		InitialBackoff: time.Minute,
		MaxBackoff:     10 * time.Minute,
	}
}

func enqueueEntry(t *testing.T, q *memQueue, target string) *dispatch.QueueEntry {
	t.Helper()
	e, err := dispatch.NewQueueEntry(1, "ev-1", target, json.RawMessage(`{"kind":"sold_out"}`))
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(context.Background(), e))
	return e
}

func TestPumpOnceDeliversAndRemoves(t *testing.T) {
	q := newMemQueue()
	tr := &fakeTransport{}
	d := NewDispatcher(q, tr, nopRecorder{}, testDispatcherConfig(), logger.Nop())

	enqueueEntry(t, q, "a@example.com")
	enqueueEntry(t, q, "b@example.com")

	delivered, err := d.PumpOnce(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, tr.sends)

	pending, err := q.CountPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, pending, "delivered entries leave the queue")
}

func TestPumpOnceReschedulesFailureWithBackoff(t *testing.T) {
	q := newMemQueue()
	tr := &fakeTransport{fail: 1}
	d := NewDispatcher(q, tr, nopRecorder{}, testDispatcherConfig(), logger.Nop())

	e := enqueueEntry(t, q, "a@example.com")
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	delivered, err := d.PumpOnce(context.Background(), now)
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Equal(t, dispatch.StatusPending, e.Status())
	assert.Equal(t, 1, e.Attempts())
	require.NotNil(t, e.NextRetryAt())
	assert.Equal(t, now.Add(time.Minute), *e.NextRetryAt())

	// Not due yet: the next pump claims nothing.
	delivered, err = d.PumpOnce(context.Background(), now.Add(30*time.Second))
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Zero(t, len(tr.sends))

	// Due again and the transport recovered.
	delivered, err = d.PumpOnce(context.Background(), now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
}

func TestExhaustedEntryParksAsFailed(t *testing.T) {
	q := newMemQueue()
	tr := &fakeTransport{fail: 100}
	rec := &captureRecorder{}
	d := NewDispatcher(q, tr, rec, testDispatcherConfig(), logger.Nop())

	e := enqueueEntry(t, q, "a@example.com")
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		// Advance past any scheduled retry.
		_, err := d.PumpOnce(context.Background(), now.Add(time.Duration(i)*time.Hour))
		require.NoError(t, err)
	}

	assert.True(t, e.IsExhausted())
	failed, err := q.ListFailed(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)

	require.Len(t, rec.errors, 1, "permanent failure lands in the error log")
	assert.Equal(t, "dispatch", rec.errors[0].Scope)
	assert.Equal(t, "delivery_exhausted", rec.errors[0].Code)

	// A parked entry is never claimed again.
	delivered, err := d.PumpOnce(context.Background(), now.Add(100*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, delivered)
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	d := NewDispatcher(newMemQueue(), &fakeTransport{}, nopRecorder{}, testDispatcherConfig(), logger.Nop())

	assert.Equal(t, time.Minute, d.backoffFor(0))
	assert.Equal(t, 2*time.Minute, d.backoffFor(1))
	assert.Equal(t, 4*time.Minute, d.backoffFor(2))
	assert.Equal(t, 8*time.Minute, d.backoffFor(3))
	assert.Equal(t, 10*time.Minute, d.backoffFor(4), "capped at the maximum")
	assert.Equal(t, 10*time.Minute, d.backoffFor(20))
}
