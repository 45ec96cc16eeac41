package valueobjects

import (
	"fmt"
	"time"
)

// Frequency is the minimum spacing a subscriber accepts between notices.
// Throttling is about cadence, not queuing: a suppressed event is simply
// not delivered, the next qualifying event re-evaluates normally.
type Frequency string

const (
	FrequencyRealtime Frequency = "realtime"
	FrequencyHourly   Frequency = "hourly"
	FrequencyDaily    Frequency = "daily"
)

// NewFrequency validates a frequency name.
func NewFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.IsValid() {
		return "", fmt.Errorf("unknown frequency: %q", s)
	}
	return f, nil
}

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyRealtime, FrequencyHourly, FrequencyDaily:
		return true
	}
	return false
}

// Interval returns the minimum duration between notices.
func (f Frequency) Interval() time.Duration {
	switch f {
	case FrequencyHourly:
		return time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}

func (f Frequency) String() string { return string(f) }
