package room

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoryPoints is the deck shown to clients. Votes are not validated against
// it; any string a participant sends is stored as-is.
var StoryPoints = []string{"?", "☕", "0", "0.5", "1", "2", "3", "5", "8", "13", "20", "40", "100"}

// Ticket is an external issue attached to a room for the current round.
type Ticket struct {
	Key         string  `json:"key"`
	Summary     string  `json:"summary"`
	Description *string `json:"description"`
	IssueType   *string `json:"issue_type"`
	Status      *string `json:"status"`
	URL         string  `json:"url"`
}

// Participant is one voting member of a room.
type Participant struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Vote   *string `json:"vote"`
	IsHost bool    `json:"is_host"`
}

func NewParticipant(name string, isHost bool) Participant {
	return Participant{
		ID:     uuid.NewString(),
		Name:   name,
		IsHost: isHost,
	}
}

// Room is a single estimation session. Participant order is join order.
type Room struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Participants  []Participant `json:"participants"`
	VotesRevealed bool          `json:"votes_revealed"`
	CreatedAt     int64         `json:"created_at"`
	InviteCode    string        `json:"invite_code"`
	CurrentTicket *Ticket       `json:"current_ticket"`
}

func New(name string) Room {
	return Room{
		ID:           uuid.NewString(),
		Name:         name,
		Participants: []Participant{},
		CreatedAt:    time.Now().Unix(),
		InviteCode:   GenerateInviteCode(),
	}
}

func (r *Room) AddParticipant(p Participant) {
	r.Participants = append(r.Participants, p)
}

func (r *Room) RemoveParticipant(participantID string) {
	kept := r.Participants[:0]
	for _, p := range r.Participants {
		if p.ID != participantID {
			kept = append(kept, p)
		}
	}
	r.Participants = kept
}

// SetVote records a vote for the given participant. A nil vote clears it.
// Unknown participant ids are ignored.
func (r *Room) SetVote(participantID string, vote *string) {
	for i := range r.Participants {
		if r.Participants[i].ID == participantID {
			r.Participants[i].Vote = vote
			return
		}
	}
}

// ResetVotes clears every vote and hides the cards again.
func (r *Room) ResetVotes() {
	for i := range r.Participants {
		r.Participants[i].Vote = nil
	}
	r.VotesRevealed = false
}

// VoteSummary is derived from the current votes and never stored.
type VoteSummary struct {
	TotalVoters int      `json:"total_voters"`
	VotedCount  int      `json:"voted_count"`
	Average     *float64 `json:"average"`
}

// Summary computes voting statistics. Tokens that don't parse as numbers
// ("?", the coffee card) count as cast votes but are excluded from the
// average; the average is absent when no vote is numeric.
func (r *Room) Summary() VoteSummary {
	s := VoteSummary{TotalVoters: len(r.Participants)}

	var sum float64
	var numeric int
	for _, p := range r.Participants {
		if p.Vote == nil {
			continue
		}
		s.VotedCount++
		if v, err := strconv.ParseFloat(*p.Vote, 64); err == nil {
			sum += v
			numeric++
		}
	}
	if numeric > 0 {
		avg := sum / float64(numeric)
		s.Average = &avg
	}
	return s
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the store's participant slice.
func (r *Room) Clone() Room {
	out := *r
	out.Participants = make([]Participant, len(r.Participants))
	copy(out.Participants, r.Participants)
	if r.CurrentTicket != nil {
		t := *r.CurrentTicket
		out.CurrentTicket = &t
	}
	return out
}

// GenerateInviteCode builds a human-readable code like "51 58 87 72": four
// bytes of a 64-bit hash of a fresh uuid, each printed as a zero-padded
// decimal group. Codes are not checked for collisions against existing
// rooms; on a four-byte space concurrent creates can collide.
func GenerateInviteCode() string {
	h := fnv.New64a()
	id := uuid.New()
	h.Write(id[:])
	v := h.Sum64()

	return fmt.Sprintf("%02d %02d %02d %02d",
		(v>>24)&0xFF,
		(v>>16)&0xFF,
		(v>>8)&0xFF,
		v&0xFF,
	)
}

// NormalizeInviteCode maps the forms an invite code shows up in (URL path
// segments, dashed variants) back to the stored display format. The two
// replacements are applied in this exact order regardless of source.
func NormalizeInviteCode(code string) string {
	code = strings.ReplaceAll(code, "%20", " ")
	return strings.ReplaceAll(code, "-", " ")
}
