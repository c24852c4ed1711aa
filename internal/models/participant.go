package models

// Participant represents one person taking part in a split.
type Participant struct {
	// ID is an opaque identifier, unique within one receipt.
	ID string `json:"id"`

	// Name is the display name. Empty and duplicate names are allowed.
	Name string `json:"name"`
}

// Assignment links one line item to the participants claiming it.
//
// ParticipantIDs is a multiset: each occurrence is one claimed unit of the
// item, so a participant listed twice on a three-unit item pays for two of
// the three units. An Assignment with no participants is never stored.
type Assignment struct {
	// ItemID is the positional item identifier (see ItemID).
	ItemID string `json:"itemId"`

	// ParticipantIDs lists one entry per claimed unit, duplicates allowed.
	ParticipantIDs []string `json:"participantIds"`
}

// CloneParticipants returns a copy of participants.
func CloneParticipants(participants []Participant) []Participant {
	if participants == nil {
		return nil
	}
	out := make([]Participant, len(participants))
	copy(out, participants)
	return out
}

// CloneAssignments returns a deep copy of assignments.
func CloneAssignments(assignments []Assignment) []Assignment {
	if assignments == nil {
		return nil
	}
	out := make([]Assignment, len(assignments))
	for i, a := range assignments {
		out[i] = Assignment{
			ItemID:         a.ItemID,
			ParticipantIDs: append([]string(nil), a.ParticipantIDs...),
		}
	}
	return out
}
