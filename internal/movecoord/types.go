// Package movecoord pairs one-sided "item left a container" and "item entered
// a container" notifications into single moves.
//
// Each list container only learns about its own side of a drag. The Engine
// holds whichever side reports first as a pending record for a short
// correlation window. If the opposite side reports in the same Category
// within the window, both calls describe one move and the departing payload
// is handed to the arriving side. Otherwise the record expires and its owner
// is told to fall back to an ordinary removal or insertion.
//
// Every pending record ends with exactly one Notice: Matched or Expired.
package movecoord

import (
	"errors"
	"fmt"

	"github.com/abelbrown/roomboard/internal/path"
)

var (
	// ErrNoCategory is returned for calls with an empty category.
	ErrNoCategory = errors.New("movecoord: category is required")
	// ErrInvalidIndex is returned for negative indices.
	ErrInvalidIndex = errors.New("movecoord: index must be non-negative")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("movecoord: engine closed")
)

// Category partitions coordination state by item kind. Departures and
// arrivals in different categories never correlate.
type Category string

const (
	CategoryElement Category = "element"
	CategoryRoom    Category = "room"
)

// Kind says which side of a move a record describes.
type Kind int

const (
	Departure Kind = iota
	Arrival
)

func (k Kind) String() string {
	if k == Arrival {
		return "arrival"
	}
	return "departure"
}

// State is the tag of an Outcome.
type State int

const (
	// Pending means no counterpart was waiting; a Notice will follow.
	Pending State = iota
	// Resolved means the call completed a move with a waiting counterpart.
	Resolved
	// Rejected means the call was invalid and recorded nothing.
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Ticket identifies one pending record.
type Ticket uint64

// Location is a position inside a container.
type Location struct {
	Path  path.Path
	Index int
}

func (l Location) String() string {
	return fmt.Sprintf("%s#%d", l.Path, l.Index)
}

// Outcome is the immediate result of RecordDeparture or RecordArrival.
//
// Pending: Ticket names the new record. Resolved: Ticket names the matched
// record, Counterpart is the location the waiting side reported and Payload
// is the moved data. Rejected: Err says why and nothing was recorded.
type Outcome[T any] struct {
	State       State
	Ticket      Ticket
	Counterpart Location
	Payload     T
	Err         error
}

// Terminal is how a pending record ended.
type Terminal int

const (
	Matched Terminal = iota
	Expired
)

func (t Terminal) String() string {
	if t == Expired {
		return "expired"
	}
	return "matched"
}

// Notice is the single terminal event of a pending record.
//
// Matched: Counterpart is the other side's location and Payload the moved
// data. Expired: the record was not part of a move; for a departure Payload
// is the data that left, for an arrival it is the zero value.
type Notice[T any] struct {
	Ticket      Ticket
	Kind        Kind
	Terminal    Terminal
	Category    Category
	Own         Location
	Counterpart Location
	Payload     T
}

// Stats counts engine activity since creation.
type Stats struct {
	Departures        int
	Arrivals          int
	Resolved          int
	ExpiredDepartures int
	ExpiredArrivals   int
	Rejected          int
}
