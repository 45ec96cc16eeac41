package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "stagewatch/internal/domain/play/valueobjects"
	sharedConfig "stagewatch/internal/shared/config"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
)

func TestRegistry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "hq-1", "title": "灯塔", "city": "上海"}`))
	}))
	defer srv.Close()

	cfg := testSourceConfig(srv.URL)
	cfg.ID = "hulaquan"
	reg := NewRegistry([]sharedConfig.SourceConfig{cfg}, logger.Nop())

	t.Run("routes to the configured provider", func(t *testing.T) {
		record, err := reg.Fetch(context.Background(), vo.SourceHulaquan, "hq-1")
		require.NoError(t, err)
		assert.Equal(t, "灯塔", record.Title)
	})

	t.Run("unconfigured provider is a permanent error", func(t *testing.T) {
		_, err := reg.Fetch(context.Background(), vo.SourceSaoju, "sj-1")
		require.Error(t, err)
		assert.False(t, errors.IsTransient(err))
	})

	t.Run("unknown config IDs are skipped", func(t *testing.T) {
		bad := testSourceConfig(srv.URL)
		bad.ID = "scalper"
		r := NewRegistry([]sharedConfig.SourceConfig{bad}, logger.Nop())
		_, err := r.Fetch(context.Background(), vo.SourceHulaquan, "hq-1")
		require.Error(t, err)
	})
}
