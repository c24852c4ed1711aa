// Package assignment tracks which participants claim which receipt items.
//
// A Store owns the participant roster and the item→participant multiset map
// for one receipt. Every operation is total: unknown ids are ignored or
// create a fresh entry, nothing returns an error. A Store is not safe for
// concurrent use; callers serialise mutations.
package assignment

import (
	"slices"

	"github.com/google/uuid"

	"github.com/mmynk/receiptsplit/internal/models"
)

// Snapshot is the plain data form of a Store, suitable for persistence.
type Snapshot struct {
	Participants []models.Participant `json:"participants"`
	Assignments  []models.Assignment  `json:"assignments"`
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides how participant ids are generated.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// Store holds participants and assignments for one receipt.
//
// Invariants:
//   - at most one assignment per item id
//   - an assignment exists iff its participant list is non-empty
type Store struct {
	participants []models.Participant
	assignments  []models.Assignment
	newID        func() string
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore rebuilds a Store from persisted data. Empty assignments are
// dropped and a repeated item id keeps its first entry. Ids are not
// otherwise checked.
func Restore(snap Snapshot, opts ...Option) *Store {
	s := New(opts...)
	s.participants = models.CloneParticipants(snap.Participants)
	for _, a := range snap.Assignments {
		if len(a.ParticipantIDs) == 0 || s.find(a.ItemID) >= 0 {
			continue
		}
		s.assignments = append(s.assignments, models.Assignment{
			ItemID:         a.ItemID,
			ParticipantIDs: slices.Clone(a.ParticipantIDs),
		})
	}
	return s
}

// Participants returns a copy of the roster in insertion order.
func (s *Store) Participants() []models.Participant {
	return models.CloneParticipants(s.participants)
}

// Assignments returns a deep copy of the current assignments.
func (s *Store) Assignments() []models.Assignment {
	return models.CloneAssignments(s.assignments)
}

// Snapshot returns the current state as plain data.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Participants: s.Participants(),
		Assignments:  s.Assignments(),
	}
}

// Reset clears all participants and assignments.
func (s *Store) Reset() {
	s.participants = nil
	s.assignments = nil
}

// AddParticipant appends a participant with a fresh id and returns it.
// The name is stored as given; trimming and empty checks belong to the caller.
func (s *Store) AddParticipant(name string) models.Participant {
	p := models.Participant{ID: s.newID(), Name: name}
	s.participants = append(s.participants, p)
	return p
}

// RenameParticipant changes a participant's display name.
func (s *Store) RenameParticipant(id, name string) {
	for i := range s.participants {
		if s.participants[i].ID == id {
			s.participants[i].Name = name
			return
		}
	}
}

// RemoveParticipant deletes a participant and strips every occurrence of
// its id from all assignments, pruning assignments left empty.
func (s *Store) RemoveParticipant(id string) {
	idx := slices.IndexFunc(s.participants, func(p models.Participant) bool { return p.ID == id })
	if idx < 0 {
		return
	}
	s.participants = slices.Delete(s.participants, idx, idx+1)

	kept := s.assignments[:0]
	for _, a := range s.assignments {
		a.ParticipantIDs = slices.DeleteFunc(a.ParticipantIDs, func(pid string) bool { return pid == id })
		if len(a.ParticipantIDs) > 0 {
			kept = append(kept, a)
		}
	}
	clear(s.assignments[len(kept):])
	s.assignments = kept
}

// ToggleAssignment flips a participant between assigned and unassigned on
// an item. Toggling off removes every occurrence of the participant, so an
// item claimed twice by the same participant drops straight to zero.
func (s *Store) ToggleAssignment(itemID, participantID string) {
	idx := s.find(itemID)
	if idx >= 0 && slices.Contains(s.assignments[idx].ParticipantIDs, participantID) {
		ids := slices.DeleteFunc(s.assignments[idx].ParticipantIDs, func(pid string) bool { return pid == participantID })
		s.setOrPrune(idx, ids)
		return
	}
	s.AddAssignment(itemID, participantID)
}

// AddAssignment appends one occurrence of participantID to the item,
// creating the assignment if needed. The item's quantity is not enforced.
func (s *Store) AddAssignment(itemID, participantID string) {
	idx := s.find(itemID)
	if idx < 0 {
		s.assignments = append(s.assignments, models.Assignment{
			ItemID:         itemID,
			ParticipantIDs: []string{participantID},
		})
		return
	}
	s.assignments[idx].ParticipantIDs = append(s.assignments[idx].ParticipantIDs, participantID)
}

// RemoveAssignment removes the first occurrence of participantID from the
// item, pruning the assignment when it becomes empty.
func (s *Store) RemoveAssignment(itemID, participantID string) {
	idx := s.find(itemID)
	if idx < 0 {
		return
	}
	ids := s.assignments[idx].ParticipantIDs
	pos := slices.Index(ids, participantID)
	if pos < 0 {
		return
	}
	s.setOrPrune(idx, slices.Delete(ids, pos, pos+1))
}

// Occurrences reports how many units of the item participantID claims.
func (s *Store) Occurrences(itemID, participantID string) int {
	idx := s.find(itemID)
	if idx < 0 {
		return 0
	}
	n := 0
	for _, pid := range s.assignments[idx].ParticipantIDs {
		if pid == participantID {
			n++
		}
	}
	return n
}

// Claimed reports the total number of claimed units on the item.
func (s *Store) Claimed(itemID string) int {
	idx := s.find(itemID)
	if idx < 0 {
		return 0
	}
	return len(s.assignments[idx].ParticipantIDs)
}

func (s *Store) find(itemID string) int {
	return slices.IndexFunc(s.assignments, func(a models.Assignment) bool { return a.ItemID == itemID })
}

func (s *Store) setOrPrune(idx int, ids []string) {
	if len(ids) == 0 {
		s.assignments = slices.Delete(s.assignments, idx, idx+1)
		return
	}
	s.assignments[idx].ParticipantIDs = ids
}
