package valueobjects

import "fmt"

// Source identifies one external ticketing provider.
type Source string

const (
	// SourceHulaquan is the primary live-show ticketing provider.
	SourceHulaquan Source = "hulaquan"
	// SourceSaoju is the musical timetable aggregator.
	SourceSaoju Source = "saoju"
	// SourceLegacy marks records carried over from the pre-catalog era.
	SourceLegacy Source = "legacy"
	// SourceCurated marks aliases entered by operators rather than ingested
	// from a provider.
	SourceCurated Source = "curated"
)

// NewSource validates a provider identifier.
func NewSource(s string) (Source, error) {
	src := Source(s)
	if !src.IsValid() {
		return "", fmt.Errorf("unknown source: %q", s)
	}
	return src, nil
}

func (s Source) IsValid() bool {
	switch s {
	case SourceHulaquan, SourceSaoju, SourceLegacy, SourceCurated:
		return true
	}
	return false
}

func (s Source) String() string {
	return string(s)
}
