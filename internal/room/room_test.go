package room

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestNew_InitialState(t *testing.T) {
	r := New("Sprint 12")

	require.NotEmpty(t, r.ID)
	assert.Equal(t, "Sprint 12", r.Name)
	assert.Empty(t, r.Participants)
	assert.False(t, r.VotesRevealed)
	assert.NotZero(t, r.CreatedAt)
	assert.Nil(t, r.CurrentTicket)
	assert.Regexp(t, regexp.MustCompile(`^\d{2,3} \d{2,3} \d{2,3} \d{2,3}$`), r.InviteCode)
}

func TestAddRemoveParticipant(t *testing.T) {
	r := New("room")
	a := NewParticipant("alice", true)
	b := NewParticipant("bob", false)

	r.AddParticipant(a)
	r.AddParticipant(b)
	require.Len(t, r.Participants, 2)
	// join order preserved
	assert.Equal(t, "alice", r.Participants[0].Name)

	r.RemoveParticipant(a.ID)
	require.Len(t, r.Participants, 1)
	assert.Equal(t, b.ID, r.Participants[0].ID)

	// removing an unknown id is a no-op
	r.RemoveParticipant("nope")
	assert.Len(t, r.Participants, 1)
}

func TestSetVote_UnknownParticipantIgnored(t *testing.T) {
	r := New("room")
	p := NewParticipant("alice", false)
	r.AddParticipant(p)

	r.SetVote("missing", strptr("5"))
	assert.Nil(t, r.Participants[0].Vote)

	r.SetVote(p.ID, strptr("5"))
	require.NotNil(t, r.Participants[0].Vote)
	assert.Equal(t, "5", *r.Participants[0].Vote)

	r.SetVote(p.ID, nil)
	assert.Nil(t, r.Participants[0].Vote)
}

func TestResetVotes(t *testing.T) {
	r := New("room")
	a := NewParticipant("alice", false)
	b := NewParticipant("bob", false)
	r.AddParticipant(a)
	r.AddParticipant(b)
	r.SetVote(a.ID, strptr("8"))
	r.SetVote(b.ID, strptr("?"))
	r.VotesRevealed = true

	r.ResetVotes()

	assert.False(t, r.VotesRevealed)
	for _, p := range r.Participants {
		assert.Nil(t, p.Vote)
	}
}

func TestSummary_NumericAverage(t *testing.T) {
	r := New("room")
	for i, v := range []string{"1", "2", "3"} {
		p := NewParticipant("p", false)
		r.AddParticipant(p)
		r.SetVote(r.Participants[i].ID, strptr(v))
	}

	s := r.Summary()
	assert.Equal(t, 3, s.TotalVoters)
	assert.Equal(t, 3, s.VotedCount)
	require.NotNil(t, s.Average)
	assert.InDelta(t, 2.0, *s.Average, 1e-9)
}

func TestSummary_NonNumericVotesExcluded(t *testing.T) {
	r := New("room")
	a := NewParticipant("alice", false)
	b := NewParticipant("bob", false)
	r.AddParticipant(a)
	r.AddParticipant(b)
	r.SetVote(a.ID, strptr("?"))
	r.SetVote(b.ID, strptr("☕"))

	s := r.Summary()
	assert.Equal(t, 2, s.TotalVoters)
	assert.Equal(t, 2, s.VotedCount)
	assert.Nil(t, s.Average)
}

func TestSummary_PartialVotes(t *testing.T) {
	r := New("room")
	a := NewParticipant("alice", false)
	b := NewParticipant("bob", false)
	r.AddParticipant(a)
	r.AddParticipant(b)
	r.SetVote(a.ID, strptr("5"))

	s := r.Summary()
	assert.Equal(t, 2, s.TotalVoters)
	assert.Equal(t, 1, s.VotedCount)
	require.NotNil(t, s.Average)
	assert.InDelta(t, 5.0, *s.Average, 1e-9)
}

func TestNormalizeInviteCode(t *testing.T) {
	want := "51 58 87 72"
	assert.Equal(t, want, NormalizeInviteCode("51 58 87 72"))
	assert.Equal(t, want, NormalizeInviteCode("51-58-87-72"))
	assert.Equal(t, want, NormalizeInviteCode("51%2058%2087%2072"))
}

func TestGenerateInviteCode_Format(t *testing.T) {
	re := regexp.MustCompile(`^\d{2,3} \d{2,3} \d{2,3} \d{2,3}$`)
	for i := 0; i < 100; i++ {
		assert.Regexp(t, re, GenerateInviteCode())
	}
}

func TestClone_Isolated(t *testing.T) {
	r := New("room")
	p := NewParticipant("alice", false)
	r.AddParticipant(p)
	r.CurrentTicket = &Ticket{Key: "POK-1", Summary: "thing"}

	c := r.Clone()
	c.SetVote(p.ID, strptr("13"))
	c.CurrentTicket.Key = "POK-2"

	assert.Nil(t, r.Participants[0].Vote)
	assert.Equal(t, "POK-1", r.CurrentTicket.Key)
}
