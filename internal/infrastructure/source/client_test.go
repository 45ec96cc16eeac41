package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedConfig "stagewatch/internal/shared/config"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
)

func testSourceConfig(baseURL string) sharedConfig.SourceConfig {
	return sharedConfig.SourceConfig{
		ID:                  "hulaquan",
		BaseURL:             baseURL,
		CityDefault:         "上海",
		FetchTimeout:        2 * time.Second,
		BreakerFailures:     3,
		BreakerCooldown:     time.Minute,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxAttempts:    3,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(testSourceConfig(srv.URL), logger.Nop()), srv
}

func TestHTTPClient_Fetch(t *testing.T) {
	t.Run("decodes a full record", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/records/hq-1001", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"id": "hq-1001",
				"title": "连璧",
				"city": "上海",
				"summary": {"status": "on_sale", "left": 12},
				"tickets": [
					{"id": "t-1", "title": "周五晚场", "status": "on_sale", "price": 299, "total": 120, "left": 12}
				]
			}`))
		})

		record, err := client.Fetch(context.Background(), "hq-1001")
		require.NoError(t, err)
		assert.Equal(t, "hq-1001", record.SourceID)
		assert.Equal(t, "连璧", record.Title)
		assert.Equal(t, "上海", record.City)
		assert.JSONEq(t, `{"status":"on_sale","left":12}`, string(record.Payload))
		require.Len(t, record.Tickets, 1)
		assert.Equal(t, "t-1", record.Tickets[0].TicketID)
		require.NotNil(t, record.Tickets[0].Left)
		assert.Equal(t, 12, *record.Tickets[0].Left)
	})

	t.Run("missing city falls back to the configured default", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "hq-1", "title": "灯塔"}`))
		})

		record, err := client.Fetch(context.Background(), "hq-1")
		require.NoError(t, err)
		assert.Equal(t, "上海", record.City)
	})

	t.Run("missing summary falls back to the whole body", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "hq-1", "title": "灯塔", "status": "on_sale"}`))
		})

		record, err := client.Fetch(context.Background(), "hq-1")
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"hq-1","title":"灯塔","status":"on_sale"}`, string(record.Payload))
	})

	t.Run("retries transient server errors", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"id": "hq-1", "title": "灯塔"}`))
		})

		record, err := client.Fetch(context.Background(), "hq-1")
		require.NoError(t, err)
		assert.Equal(t, "灯塔", record.Title)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("missing record is permanent and not retried", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.Fetch(context.Background(), "hq-gone")
		require.Error(t, err)
		assert.False(t, errors.IsTransient(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("malformed body is permanent", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		})

		_, err := client.Fetch(context.Background(), "hq-1")
		require.Error(t, err)
		assert.False(t, errors.IsTransient(err))
	})

	t.Run("exhausted retries surface a transient error", func(t *testing.T) {
		var calls int32
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusInternalServerError)
		})

		_, err := client.Fetch(context.Background(), "hq-1")
		require.Error(t, err)
		assert.True(t, errors.IsTransient(err))
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})
}

func TestHTTPClient_Breaker(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	// three exhausted fetches trip the breaker
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(context.Background(), "hq-1")
		require.Error(t, err)
	}
	tripped := atomic.LoadInt32(&calls)

	_, err := client.Fetch(context.Background(), "hq-1")
	require.Error(t, err)
	assert.True(t, errors.IsTransient(err))
	assert.Contains(t, err.Error(), "circuit open")
	assert.Equal(t, tripped, atomic.LoadInt32(&calls), "open breaker must not hit the network")
}
