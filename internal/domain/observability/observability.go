// Package observability provides the durable metric and error-log records
// the pipeline emits: one per poll-cycle outcome and one per dispatch
// outcome.
package observability

import (
	"context"
	"time"
)

// Metric is one recorded measurement with free-form labels.
type Metric struct {
	ID     uint
	Name   string
	Value  float64
	Labels map[string]string
	At     time.Time
}

// ErrorRecord is one recorded failure scoped to the component that raised
// it.
type ErrorRecord struct {
	ID      uint
	Scope   string
	Code    string
	Message string
	Context map[string]string
	At      time.Time
}

// Recorder accepts structured metric and error events. The store is
// append-only; readers query it out of band.
type Recorder interface {
	RecordMetric(ctx context.Context, m Metric) error
	RecordError(ctx context.Context, e ErrorRecord) error
}

// Common metric names emitted by the pipeline.
const (
	MetricPollCycleOutcome = "poll_cycle_outcome"
	MetricDispatchOutcome  = "dispatch_outcome"
	MetricQueueBacklog     = "send_queue_backlog"
)
