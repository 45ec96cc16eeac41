package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagewatch/internal/application/ingest"
	vo "stagewatch/internal/domain/play/valueobjects"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeReader struct {
	view *ingest.SnapshotView
	err  error
}

func (f *fakeReader) Get(_ context.Context, _ uint, _ string) (*ingest.SnapshotView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.view, nil
}

type fakeRefresh struct {
	linkID       uint
	err          error
	gotSource    vo.Source
	gotSourceID  string
	triggerCalls int
}

func (f *fakeRefresh) Trigger(_ context.Context, source vo.Source, sourceID string) (uint, error) {
	f.triggerCalls++
	f.gotSource = source
	f.gotSourceID = sourceID
	if f.err != nil {
		return 0, f.err
	}
	return f.linkID, nil
}

func performRequest(engine *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestSystemHandler_HealthCheck(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", NewSystemHandler().HealthCheck)

	w := performRequest(engine, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"service":"stagewatch"`)
}

func TestSnapshotHandler_GetSnapshot(t *testing.T) {
	newEngine := func(reader *fakeReader) *gin.Engine {
		engine := gin.New()
		h := NewSnapshotHandler(reader, logger.Nop())
		engine.GET("/plays/:id/snapshot", h.GetSnapshot)
		return engine
	}

	t.Run("returns the view", func(t *testing.T) {
		reader := &fakeReader{view: &ingest.SnapshotView{
			PlayID:   7,
			CityNorm: "上海",
			Payload:  json.RawMessage(`{"status":"on_sale"}`),
			Stale:    true,
		}}
		engine := newEngine(reader)

		w := performRequest(engine, http.MethodGet, "/plays/7/snapshot?city=上海", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success bool                `json:"success"`
			Data    ingest.SnapshotView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, uint(7), resp.Data.PlayID)
		assert.True(t, resp.Data.Stale)
		assert.JSONEq(t, `{"status":"on_sale"}`, string(resp.Data.Payload))
	})

	t.Run("invalid play ID is a 400", func(t *testing.T) {
		engine := newEngine(&fakeReader{})

		w := performRequest(engine, http.MethodGet, "/plays/abc/snapshot?city=上海", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing city is a 400", func(t *testing.T) {
		engine := newEngine(&fakeReader{})

		w := performRequest(engine, http.MethodGet, "/plays/7/snapshot", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "city query parameter is required")
	})

	t.Run("unknown pair is a 404", func(t *testing.T) {
		engine := newEngine(&fakeReader{err: errors.NewNotFoundError("snapshot not found")})

		w := performRequest(engine, http.MethodGet, "/plays/7/snapshot?city=上海", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRefreshHandler_TriggerRefresh(t *testing.T) {
	newEngine := func(refresh *fakeRefresh) *gin.Engine {
		engine := gin.New()
		h := NewRefreshHandler(refresh, logger.Nop())
		engine.POST("/refresh", h.TriggerRefresh)
		return engine
	}

	t.Run("accepted", func(t *testing.T) {
		refresh := &fakeRefresh{linkID: 42}
		engine := newEngine(refresh)

		body := []byte(`{"source":"hulaquan","source_id":"hlq-1"}`)
		w := performRequest(engine, http.MethodPost, "/refresh", body)

		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Contains(t, w.Body.String(), `"link_id":42`)
		assert.Equal(t, vo.SourceHulaquan, refresh.gotSource)
		assert.Equal(t, "hlq-1", refresh.gotSourceID)
	})

	t.Run("missing fields are a 400", func(t *testing.T) {
		refresh := &fakeRefresh{}
		engine := newEngine(refresh)

		w := performRequest(engine, http.MethodPost, "/refresh", []byte(`{"source":"hulaquan"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, refresh.triggerCalls)
	})

	t.Run("unknown provider is a 400", func(t *testing.T) {
		refresh := &fakeRefresh{}
		engine := newEngine(refresh)

		body := []byte(`{"source":"scalper","source_id":"x"}`)
		w := performRequest(engine, http.MethodPost, "/refresh", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Zero(t, refresh.triggerCalls)
	})

	t.Run("unknown link is a 404", func(t *testing.T) {
		refresh := &fakeRefresh{err: errors.NewNotFoundError("source link not found")}
		engine := newEngine(refresh)

		body := []byte(`{"source":"hulaquan","source_id":"missing"}`)
		w := performRequest(engine, http.MethodPost, "/refresh", body)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
