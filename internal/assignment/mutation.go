package assignment

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownIntent is returned by ParseIntent for unrecognised names.
var ErrUnknownIntent = errors.New("unknown assignment intent")

// Intent names one of the assignment mutations. Toggle and the weighted
// add/remove pair act on the same multiset with different semantics and are
// kept as separate intents.
type Intent int

const (
	// IntentToggle flips a participant on or off an item (quantity 1 items).
	IntentToggle Intent = iota + 1
	// IntentAdd claims one more unit of an item.
	IntentAdd
	// IntentRemove releases one claimed unit of an item.
	IntentRemove
	// IntentTap picks toggle, add or remove from the item's quantity (see Tap).
	IntentTap
)

var intentNames = map[Intent]string{
	IntentToggle: "toggle",
	IntentAdd:    "add",
	IntentRemove: "remove",
	IntentTap:    "tap",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Intent(%d)", int(i))
}

// ParseIntent converts a wire name ("toggle", "add", "remove", "tap") into an Intent.
func ParseIntent(name string) (Intent, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for intent, n := range intentNames {
		if n == name {
			return intent, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownIntent, name)
}

// Mutation is one user action against an item.
type Mutation struct {
	Intent        Intent
	ItemID        string
	ParticipantID string
}

// Apply performs the mutation and reports whether the state was allowed to
// change. quantity is only consulted for IntentTap. Unknown intents are
// ignored and report false.
func (s *Store) Apply(m Mutation, quantity int) bool {
	switch m.Intent {
	case IntentToggle:
		s.ToggleAssignment(m.ItemID, m.ParticipantID)
	case IntentAdd:
		s.AddAssignment(m.ItemID, m.ParticipantID)
	case IntentRemove:
		s.RemoveAssignment(m.ItemID, m.ParticipantID)
	case IntentTap:
		return s.Tap(m.ItemID, m.ParticipantID, quantity)
	default:
		return false
	}
	return true
}

// Tap applies the assign-screen gesture of one participant on one item.
//
// Single-unit items toggle. Multi-unit items gain one occurrence while fewer
// than quantity units are claimed; once full, tapping a participant who holds
// a unit releases one of theirs, and tapping anyone else is refused.
func (s *Store) Tap(itemID, participantID string, quantity int) bool {
	if quantity <= 1 {
		s.ToggleAssignment(itemID, participantID)
		return true
	}
	if s.Claimed(itemID) < quantity {
		s.AddAssignment(itemID, participantID)
		return true
	}
	if s.Occurrences(itemID, participantID) > 0 {
		s.RemoveAssignment(itemID, participantID)
		return true
	}
	return false
}
