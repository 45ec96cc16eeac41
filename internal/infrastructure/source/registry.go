package source

import (
	"context"
	"fmt"

	"stagewatch/internal/application/ingest"
	vo "stagewatch/internal/domain/play/valueobjects"
	sharedConfig "stagewatch/internal/shared/config"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
)

// Registry routes fetches to the per-provider client. Each provider keeps
// its own retry policy and circuit breaker.
type Registry struct {
	clients map[vo.Source]*HTTPClient
}

// NewRegistry builds one HTTP client per configured provider. Configs whose
// ID is not a known provider are skipped with a warning so a config typo
// cannot take the whole poller down.
func NewRegistry(cfgs []sharedConfig.SourceConfig, log logger.Interface) *Registry {
	clients := make(map[vo.Source]*HTTPClient, len(cfgs))
	for _, cfg := range cfgs {
		src, err := vo.NewSource(cfg.ID)
		if err != nil {
			log.Warnw("skipping unknown source config", "id", cfg.ID)
			continue
		}
		clients[src] = NewHTTPClient(cfg, log)
	}
	return &Registry{clients: clients}
}

// Fetch dispatches to the provider's client.
func (r *Registry) Fetch(ctx context.Context, src vo.Source, sourceID string) (*ingest.RawRecord, error) {
	client, ok := r.clients[src]
	if !ok {
		return nil, errors.NewPermanentSourceError(fmt.Sprintf("no client configured for source %q", src))
	}
	return client.Fetch(ctx, sourceID)
}
