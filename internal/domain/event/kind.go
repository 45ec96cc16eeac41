package event

import "fmt"

// Kind classifies one detected change to a play's ticketing state.
type Kind string

const (
	// KindCreated marks the first ingested payload for a link, or a brand
	// new ticket batch where none existed.
	KindCreated Kind = "created"
	// KindUpdated marks a payload change that is not a terminal transition.
	KindUpdated Kind = "updated"
	// KindCancelled marks a run whose status moved to cancelled.
	KindCancelled Kind = "cancelled"
	// KindSoldOut marks remaining inventory hitting zero.
	KindSoldOut Kind = "sold_out"
	// KindResumed marks inventory recovering from zero (returned tickets).
	KindResumed Kind = "resumed"
)

// NewKind validates a change kind from persistence.
func NewKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", fmt.Errorf("unknown change kind: %q", s)
	}
	return k, nil
}

func (k Kind) IsValid() bool {
	switch k {
	case KindCreated, KindUpdated, KindCancelled, KindSoldOut, KindResumed:
		return true
	}
	return false
}

// IsTerminal reports whether the kind ends a run's sale window.
func (k Kind) IsTerminal() bool {
	return k == KindCancelled || k == KindSoldOut
}

// IsBroadcast reports whether the kind is announced to broadcast-allowed
// subscribers only. New-show announcements are broadcast; inventory moves
// on an already-tracked play are not.
func (k Kind) IsBroadcast() bool {
	return k == KindCreated
}

func (k Kind) String() string {
	return string(k)
}
