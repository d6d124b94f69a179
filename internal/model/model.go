package model

// Slot names one of the three planning keywords a headline can carry.
type Slot int

const (
	SlotScheduled Slot = iota
	SlotDeadline
	SlotClosed
)

// Slots lists the planning slots in the order they are inspected.
var Slots = [...]Slot{SlotScheduled, SlotDeadline, SlotClosed}

func (s Slot) String() string {
	switch s {
	case SlotScheduled:
		return "scheduled"
	case SlotDeadline:
		return "deadline"
	case SlotClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Keyword returns the Org planning keyword for s, e.g. "SCHEDULED".
func (s Slot) Keyword() string {
	switch s {
	case SlotScheduled:
		return "SCHEDULED"
	case SlotDeadline:
		return "DEADLINE"
	case SlotClosed:
		return "CLOSED"
	default:
		return ""
	}
}

// Planning holds the annotations of a headline's planning line. A nil field
// means the keyword is absent.
type Planning struct {
	Scheduled Annotation
	Deadline  Annotation
	Closed    Annotation
}

// Get returns the annotation stored in slot s, or nil.
func (p *Planning) Get(s Slot) Annotation {
	if p == nil {
		return nil
	}
	switch s {
	case SlotScheduled:
		return p.Scheduled
	case SlotDeadline:
		return p.Deadline
	case SlotClosed:
		return p.Closed
	default:
		return nil
	}
}

// Set stores a in slot s.
func (p *Planning) Set(s Slot, a Annotation) {
	switch s {
	case SlotScheduled:
		p.Scheduled = a
	case SlotDeadline:
		p.Deadline = a
	case SlotClosed:
		p.Closed = a
	}
}

// Empty reports whether no slot is set.
func (p *Planning) Empty() bool {
	return p == nil || (p.Scheduled == nil && p.Deadline == nil && p.Closed == nil)
}

// Headline is one outline entry.
type Headline struct {
	Level    int
	Keyword  string // TODO keyword, e.g. "TODO" or "DONE"
	Priority string // "A", "B", "C" or empty
	// Label is the title text as written, without stars, keyword, priority
	// cookie and tags. It is what the agenda displays.
	Label string
	Tags  []string
	Line  int // 1-based line number of the headline in the source

	Planning *Planning
}

// Document is one loaded and parsed source file.
//
// Filename identifies the document in file lists; RawText is kept for
// display. Neither is consulted when building the agenda.
type Document struct {
	Filename  string
	RawText   string
	Headlines []Headline
}
