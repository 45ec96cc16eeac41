package valueobjects

import "fmt"

// TargetKind says what a subscription target points at.
type TargetKind string

const (
	// TargetKindPlay watches one canonical play by ID.
	TargetKindPlay TargetKind = "play"
	// TargetKindSource watches every play ingested from one provider.
	TargetKindSource TargetKind = "source"
	// TargetKindCity watches every play in one normalized city.
	TargetKindCity TargetKind = "city"
)

// NewTargetKind validates a target kind.
func NewTargetKind(s string) (TargetKind, error) {
	k := TargetKind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown target kind: %q", s)
	}
	return k, nil
}

func (k TargetKind) IsValid() bool {
	switch k {
	case TargetKindPlay, TargetKindSource, TargetKindCity:
		return true
	}
	return false
}

func (k TargetKind) String() string { return string(k) }
