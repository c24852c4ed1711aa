package assignment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/receiptsplit/internal/models"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		in   string
		want Intent
	}{
		{"toggle", IntentToggle},
		{"ADD", IntentAdd},
		{" remove ", IntentRemove},
		{"tap", IntentTap},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseIntent(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, intentNames[tt.want], got.String())
		})
	}

	_, err := ParseIntent("assign")
	assert.ErrorIs(t, err, ErrUnknownIntent)
}

func TestApply(t *testing.T) {
	s := newTestStore()

	assert.True(t, s.Apply(Mutation{Intent: IntentAdd, ItemID: "0", ParticipantID: "a"}, 3))
	assert.True(t, s.Apply(Mutation{Intent: IntentAdd, ItemID: "0", ParticipantID: "a"}, 3))
	assert.True(t, s.Apply(Mutation{Intent: IntentRemove, ItemID: "0", ParticipantID: "a"}, 3))
	assert.Equal(t, 1, s.Occurrences("0", "a"))

	assert.True(t, s.Apply(Mutation{Intent: IntentToggle, ItemID: "1", ParticipantID: "b"}, 1))
	assert.Equal(t, 1, s.Claimed("1"))

	assert.False(t, s.Apply(Mutation{Intent: Intent(99), ItemID: "1", ParticipantID: "b"}, 1))
	assert.Equal(t, 1, s.Claimed("1"))
}

func TestTap(t *testing.T) {
	t.Run("single unit toggles", func(t *testing.T) {
		s := newTestStore()
		assert.True(t, s.Tap("0", "a", 1))
		assert.True(t, s.Tap("0", "b", 1))
		assert.True(t, s.Tap("0", "a", 1))
		assert.Equal(t, []models.Assignment{{ItemID: "0", ParticipantIDs: []string{"b"}}}, s.Assignments())
	})

	t.Run("multi unit fills up to quantity", func(t *testing.T) {
		s := newTestStore()
		assert.True(t, s.Tap("0", "a", 3))
		assert.True(t, s.Tap("0", "a", 3))
		assert.True(t, s.Tap("0", "b", 3))
		assert.Equal(t, 3, s.Claimed("0"))

		// Full: someone without a unit is refused.
		assert.False(t, s.Tap("0", "c", 3))
		assert.Equal(t, 0, s.Occurrences("0", "c"))

		// Full: a claimant releases one unit.
		assert.True(t, s.Tap("0", "a", 3))
		assert.Equal(t, 1, s.Occurrences("0", "a"))
		assert.Equal(t, 2, s.Claimed("0"))
	})
}
