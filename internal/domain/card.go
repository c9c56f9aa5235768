package domain

import "time"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Relation types for a relationship clarity card.
const (
	RelationPartner   = "partner"
	RelationFriend    = "friend"
	RelationFamily    = "family"
	RelationColleague = "colleague"
	RelationOther     = "other"
)

// summaryInterval is the number of user turns between thread summary refreshes.
const summaryInterval = 6

// ChatMessage is one turn in a card's chat thread. Immutable once appended.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// RelationshipCard captures one relationship concern and its companion chat
// thread. The thread preserves insertion order; ThreadSummary is overwritten
// by the caller every six user turns.
type RelationshipCard struct {
	ID            string        `json:"id"`
	Type          string        `json:"type"`
	RelationType  string        `json:"relationType"`
	Theme         string        `json:"theme"`
	Direction     string        `json:"direction"`
	PartnerMBTI   string        `json:"partnerMBTI,omitempty"`
	ChatThread    []ChatMessage `json:"chatThread"`
	ThreadSummary string        `json:"threadSummary,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// UserTurns counts the user-authored messages in the chat thread.
func (c *RelationshipCard) UserTurns() int {
	n := 0
	for i := range c.ChatThread {
		if c.ChatThread[i].Role == RoleUser {
			n++
		}
	}
	return n
}

// SummaryDue reports whether the thread summary should be recomputed: the
// user turn count is a positive multiple of the summary interval.
func (c *RelationshipCard) SummaryDue() bool {
	turns := c.UserTurns()
	return turns > 0 && turns%summaryInterval == 0
}

// ValidRelationType reports whether rt is one of the five relation types.
func ValidRelationType(rt string) bool {
	switch rt {
	case RelationPartner, RelationFriend, RelationFamily, RelationColleague, RelationOther:
		return true
	}
	return false
}
