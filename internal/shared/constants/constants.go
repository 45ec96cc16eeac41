package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// Default pagination
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	// Database table names
	TablePlays               = "plays"
	TablePlayAliases         = "play_aliases"
	TablePlaySourceLinks     = "play_source_links"
	TablePlaySnapshots       = "play_snapshots"
	TableChangeEvents        = "change_events"
	TableTickets             = "tickets"
	TableSubscriptions       = "subscriptions"
	TableSubscriptionTargets = "subscription_targets"
	TableSubscriptionOptions = "subscription_options"
	TableSendQueue           = "send_queue"
	TableMetrics             = "metrics"
	TableErrorLogs           = "error_logs"
)
