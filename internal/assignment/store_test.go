package assignment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/receiptsplit/internal/models"
)

// sequentialIDs returns a generator producing p1, p2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("p%d", n)
	}
}

func newTestStore() *Store {
	return New(WithIDGenerator(sequentialIDs()))
}

func TestAddParticipant(t *testing.T) {
	s := newTestStore()

	alice := s.AddParticipant("Alice")
	bob := s.AddParticipant("Bob")
	dup := s.AddParticipant("Alice")
	empty := s.AddParticipant("")

	assert.Equal(t, models.Participant{ID: "p1", Name: "Alice"}, alice)
	assert.Equal(t, "p2", bob.ID)
	assert.NotEqual(t, alice.ID, dup.ID)
	assert.Equal(t, "", empty.Name)
	assert.Len(t, s.Participants(), 4)
}

func TestDefaultIDsAreUnique(t *testing.T) {
	s := New()
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		p := s.AddParticipant("x")
		require.False(t, seen[p.ID], "duplicate id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestRenameParticipant(t *testing.T) {
	s := newTestStore()
	p := s.AddParticipant("Alice")

	s.RenameParticipant(p.ID, "Alicia")
	s.RenameParticipant("missing", "Nobody")

	assert.Equal(t, []models.Participant{{ID: p.ID, Name: "Alicia"}}, s.Participants())
}

func TestToggleAssignment(t *testing.T) {
	t.Run("toggle twice restores unassigned", func(t *testing.T) {
		s := newTestStore()
		s.ToggleAssignment("0", "p1")
		assert.Equal(t, 1, s.Occurrences("0", "p1"))

		s.ToggleAssignment("0", "p1")
		assert.Equal(t, 0, s.Claimed("0"))
		assert.Empty(t, s.Assignments())
	})

	t.Run("toggle twice leaves other participants untouched", func(t *testing.T) {
		s := newTestStore()
		s.ToggleAssignment("0", "p1")
		before := s.Assignments()

		s.ToggleAssignment("0", "p2")
		s.ToggleAssignment("0", "p2")

		assert.Equal(t, before, s.Assignments())
	})

	t.Run("toggle off collapses every occurrence", func(t *testing.T) {
		s := newTestStore()
		s.AddAssignment("0", "p1")
		s.AddAssignment("0", "p2")
		s.AddAssignment("0", "p1")

		s.ToggleAssignment("0", "p1")

		assert.Equal(t, []models.Assignment{{ItemID: "0", ParticipantIDs: []string{"p2"}}}, s.Assignments())
	})

	t.Run("toggle off last participant prunes the entry", func(t *testing.T) {
		s := newTestStore()
		s.AddAssignment("0", "p1")
		s.AddAssignment("0", "p1")

		s.ToggleAssignment("0", "p1")

		assert.Empty(t, s.Assignments())
	})
}

func TestAddAssignmentAllowsDuplicates(t *testing.T) {
	s := newTestStore()
	s.AddAssignment("2", "p1")
	s.AddAssignment("2", "p1")
	s.AddAssignment("2", "p2")
	s.AddAssignment("2", "p3")

	// The store does not cap occurrences at the item quantity.
	assert.Equal(t, 4, s.Claimed("2"))
	assert.Equal(t, 2, s.Occurrences("2", "p1"))
	assert.Equal(t, []models.Assignment{{ItemID: "2", ParticipantIDs: []string{"p1", "p1", "p2", "p3"}}}, s.Assignments())
}

func TestRemoveAssignment(t *testing.T) {
	t.Run("removes a single occurrence", func(t *testing.T) {
		s := newTestStore()
		s.AddAssignment("0", "p1")
		s.AddAssignment("0", "p2")
		s.AddAssignment("0", "p1")

		s.RemoveAssignment("0", "p1")

		assert.Equal(t, []models.Assignment{{ItemID: "0", ParticipantIDs: []string{"p2", "p1"}}}, s.Assignments())
	})

	t.Run("prunes when empty", func(t *testing.T) {
		s := newTestStore()
		s.AddAssignment("0", "p1")
		s.RemoveAssignment("0", "p1")
		assert.Empty(t, s.Assignments())
	})

	t.Run("unknown item or participant is a no-op", func(t *testing.T) {
		s := newTestStore()
		s.AddAssignment("0", "p1")

		s.RemoveAssignment("9", "p1")
		s.RemoveAssignment("0", "p7")

		assert.Equal(t, []models.Assignment{{ItemID: "0", ParticipantIDs: []string{"p1"}}}, s.Assignments())
	})
}

func TestRemoveParticipantCascades(t *testing.T) {
	s := newTestStore()
	alice := s.AddParticipant("Alice")
	bob := s.AddParticipant("Bob")

	s.AddAssignment("0", alice.ID)
	s.AddAssignment("1", alice.ID)
	s.AddAssignment("1", bob.ID)
	s.AddAssignment("1", alice.ID)

	s.RemoveParticipant(alice.ID)

	assert.Equal(t, []models.Participant{bob}, s.Participants())
	assert.Equal(t, []models.Assignment{{ItemID: "1", ParticipantIDs: []string{bob.ID}}}, s.Assignments())
	assert.Equal(t, 0, s.Claimed("0"))
}

func TestRemoveParticipantUnknownIsNoop(t *testing.T) {
	s := newTestStore()
	p := s.AddParticipant("Alice")
	s.AddAssignment("0", p.ID)
	before := s.Snapshot()

	s.RemoveParticipant("nope")

	assert.Equal(t, before, s.Snapshot())
}

func TestRemoveParticipantDoesNotTouchForeignIDs(t *testing.T) {
	s := newTestStore()
	p := s.AddParticipant("Alice")
	// Stale id that is not in the roster.
	s.AddAssignment("0", "ghost")
	s.AddAssignment("0", p.ID)

	s.RemoveParticipant(p.ID)

	assert.Equal(t, []models.Assignment{{ItemID: "0", ParticipantIDs: []string{"ghost"}}}, s.Assignments())
}

func TestSnapshotIsDetached(t *testing.T) {
	s := newTestStore()
	s.AddParticipant("Alice")
	s.AddAssignment("0", "p1")

	snap := s.Snapshot()
	snap.Participants[0].Name = "Mallory"
	snap.Assignments[0].ParticipantIDs[0] = "p9"

	assert.Equal(t, "Alice", s.Participants()[0].Name)
	assert.Equal(t, 1, s.Occurrences("0", "p1"))
}

func TestRestore(t *testing.T) {
	snap := Snapshot{
		Participants: []models.Participant{{ID: "a", Name: "Alice"}},
		Assignments: []models.Assignment{
			{ItemID: "0", ParticipantIDs: []string{"a", "a"}},
			{ItemID: "1", ParticipantIDs: nil},
			{ItemID: "0", ParticipantIDs: []string{"b"}},
			{ItemID: "2", ParticipantIDs: []string{"zombie"}},
		},
	}

	s := Restore(snap, WithIDGenerator(sequentialIDs()))

	assert.Equal(t, snap.Participants, s.Participants())
	assert.Equal(t, []models.Assignment{
		{ItemID: "0", ParticipantIDs: []string{"a", "a"}},
		{ItemID: "2", ParticipantIDs: []string{"zombie"}},
	}, s.Assignments())

	// Restored stores keep mutating normally.
	p := s.AddParticipant("Bob")
	assert.Equal(t, "p1", p.ID)
	snap.Assignments[0].ParticipantIDs[0] = "changed"
	assert.Equal(t, 2, s.Occurrences("0", "a"))
}

func TestReset(t *testing.T) {
	s := newTestStore()
	s.AddParticipant("Alice")
	s.AddAssignment("0", "p1")

	s.Reset()

	assert.Empty(t, s.Participants())
	assert.Empty(t, s.Assignments())
}
