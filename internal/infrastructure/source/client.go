// Package source implements the provider-facing fetch client: one HTTP
// client per configured provider, with retry, timeout, and circuit-breaker
// policy applied before anything reaches the poll cycle.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"stagewatch/internal/application/ingest"
	"stagewatch/internal/shared/biztime"
	sharedConfig "stagewatch/internal/shared/config"
	"stagewatch/internal/shared/errors"
	"stagewatch/internal/shared/logger"
)

// wireTicket is one bookable unit as the provider serializes it.
type wireTicket struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Location  string     `json:"location"`
	StartTime *time.Time `json:"start_time"`
	Status    string     `json:"status"`
	Price     *float64   `json:"price"`
	Total     *int       `json:"total"`
	Left      *int       `json:"left"`
}

// wireRecord is the provider's record envelope. Summary is the object the
// diff engine fingerprints; when a provider omits it the whole body stands
// in.
type wireRecord struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	City    string          `json:"city"`
	Summary json.RawMessage `json:"summary"`
	Tickets []wireTicket    `json:"tickets"`
}

// HTTPClient fetches records from one provider endpoint. A breaker trips
// after consecutive fetch failures and rejects fetches until the cooldown
// passes, so a dead provider cannot eat the poll budget.
type HTTPClient struct {
	cfg      sharedConfig.SourceConfig
	http     *http.Client
	logger   logger.Interface
	inFlight chan struct{}

	mu        sync.Mutex
	failures  int
	openUntil time.Time
}

func NewHTTPClient(cfg sharedConfig.SourceConfig, log logger.Interface) *HTTPClient {
	c := &HTTPClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.FetchTimeout},
		logger: log.With("source", cfg.ID),
	}
	if cfg.MaxInFlight > 0 {
		c.inFlight = make(chan struct{}, cfg.MaxInFlight)
	}
	return c
}

// Fetch retrieves one record, retrying transient failures with exponential
// backoff up to the configured attempt budget.
func (c *HTTPClient) Fetch(ctx context.Context, sourceID string) (*ingest.RawRecord, error) {
	if err := c.checkBreaker(); err != nil {
		return nil, err
	}

	// Bound concurrent requests per provider; pollers beyond the budget wait
	// here instead of piling onto the endpoint.
	if c.inFlight != nil {
		select {
		case c.inFlight <- struct{}{}:
			defer func() { <-c.inFlight }()
		case <-ctx.Done():
			return nil, errors.NewTransientSourceError("fetch cancelled", ctx.Err().Error())
		}
	}

	expBackoff := backoff.NewExponentialBackOff()
	if c.cfg.RetryInitialBackoff > 0 {
		expBackoff.InitialInterval = c.cfg.RetryInitialBackoff
	}
	expBackoff.Reset()

	maxAttempts := c.cfg.RetryMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		record, err := c.fetchOnce(ctx, sourceID)
		if err == nil {
			c.recordSuccess()
			return record, nil
		}
		lastErr = err

		if !errors.IsTransient(err) {
			c.recordSuccess() // the provider answered, just not usefully
			return nil, err
		}
		if ctx.Err() != nil {
			break
		}
		if attempt == maxAttempts {
			break
		}

		delay := expBackoff.NextBackOff()
		if delay == backoff.Stop {
			break
		}
		c.logger.Debugw("retrying fetch", "source_id", sourceID, "attempt", attempt, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.NewTransientSourceError("fetch cancelled", ctx.Err().Error())
		case <-timer.C:
		}
	}

	c.recordFailure()
	return nil, lastErr
}

func (c *HTTPClient) fetchOnce(ctx context.Context, sourceID string) (*ingest.RawRecord, error) {
	reqCtx := ctx
	if c.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.cfg.FetchTimeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/records/%s", c.cfg.BaseURL, url.PathEscape(sourceID))
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewPermanentSourceError("failed to build fetch request", err.Error())
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.NewTransientSourceError("fetch request failed", err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransientSourceError("failed to read fetch response", err.Error())
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.NewPermanentSourceError(fmt.Sprintf("record %s not found at source", sourceID))
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusRequestTimeout,
		resp.StatusCode >= http.StatusInternalServerError:
		return nil, errors.NewTransientSourceError(fmt.Sprintf("source returned status %d", resp.StatusCode))
	default:
		return nil, errors.NewPermanentSourceError(fmt.Sprintf("source returned status %d", resp.StatusCode))
	}

	var record wireRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, errors.NewPermanentSourceError("failed to decode source record", err.Error())
	}
	return c.toRawRecord(sourceID, body, &record), nil
}

func (c *HTTPClient) toRawRecord(sourceID string, body []byte, record *wireRecord) *ingest.RawRecord {
	payload := record.Summary
	if len(payload) == 0 {
		payload = json.RawMessage(body)
	}

	city := record.City
	if city == "" {
		city = c.cfg.CityDefault
	}

	tickets := make([]ingest.RawTicket, 0, len(record.Tickets))
	for _, t := range record.Tickets {
		raw, err := json.Marshal(t)
		if err != nil {
			raw = nil
		}
		tickets = append(tickets, ingest.RawTicket{
			TicketID:  t.ID,
			Title:     t.Title,
			Location:  t.Location,
			StartTime: t.StartTime,
			Status:    t.Status,
			Price:     t.Price,
			Total:     t.Total,
			Left:      t.Left,
			Payload:   raw,
		})
	}

	id := record.ID
	if id == "" {
		id = sourceID
	}

	return &ingest.RawRecord{
		SourceID: id,
		Title:    record.Title,
		City:     city,
		Payload:  payload,
		Tickets:  tickets,
	}
}

func (c *HTTPClient) checkBreaker() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openUntil.IsZero() {
		return nil
	}
	now := biztime.NowUTC()
	if now.Before(c.openUntil) {
		return errors.NewTransientSourceError(
			fmt.Sprintf("source %s circuit open until %s", c.cfg.ID, c.openUntil.Format(time.RFC3339)))
	}
	// cooldown passed, half-open: allow one attempt through
	c.openUntil = time.Time{}
	return nil
}

func (c *HTTPClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.openUntil = time.Time{}
}

func (c *HTTPClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures++
	if c.cfg.BreakerFailures > 0 && c.failures >= c.cfg.BreakerFailures {
		c.openUntil = biztime.NowUTC().Add(c.cfg.BreakerCooldown)
		c.failures = 0
		c.logger.Warnw("source circuit opened", "cooldown", c.cfg.BreakerCooldown)
	}
}
