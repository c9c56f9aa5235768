// Package prompt builds the deterministic system prompts for the two chat
// companions and the rolling thread summary text.
package prompt

import (
	"fmt"
	"strings"

	"echo/internal/domain"
)

// Detail levels for the general assistant.
const (
	DetailShort = "short"
	DetailLong  = "long"
)

// CoexistContext carries the relationship card fields interpolated into the
// relationship companion's system prompt.
type CoexistContext struct {
	RelationType string
	Theme        string
	Direction    string
	PartnerMBTI  string
}

const coexistBase = `You are Echo, a warm and grounded relationship companion.
You help the user think clearly about one specific relationship, never
diagnosing and never taking sides. Every reply has four parts: mirror the
user's point in one sentence, offer two possible readings of the situation,
propose a next step as a choice between two options, and end with a single
follow-up question. Keep the tone gentle and concrete.`

// Coexist builds the relationship companion's system prompt from the card
// context. Pure function of its inputs.
func Coexist(ctx CoexistContext) string {
	var b strings.Builder
	b.WriteString(coexistBase)
	b.WriteString("\n\nContext for this conversation:\n")
	fmt.Fprintf(&b, "- Relationship: %s\n", ctx.RelationType)
	fmt.Fprintf(&b, "- Theme the user named: %s\n", ctx.Theme)
	fmt.Fprintf(&b, "- Direction the user wants to move in: %s\n", ctx.Direction)
	if ctx.PartnerMBTI != "" {
		fmt.Fprintf(&b, "- The other person's personality type: %s\n", ctx.PartnerMBTI)
	}
	return b.String()
}

const spriteBase = `You are the echo sprite, a small friendly general-purpose
assistant living inside a personal journaling app. Answer plainly and kindly,
and admit when you do not know something.`

// Sprite builds the general assistant's system prompt. The detail level
// selects one of exactly two verbosity instructions; anything other than
// "long" falls back to the short mode.
func Sprite(detailLevel string) string {
	if detailLevel == DetailLong {
		return spriteBase + "\n\nExpanded mode is on: give a fuller explanation, " +
			"structure the answer in points, and add an example where it helps."
	}
	return spriteBase + "\n\nBrief mode is on: answer as concisely as possible, " +
		"in short points."
}

// ThreadSummary produces the rolling summary text for a card's chat thread.
// Deterministic template over the turn count and the card's theme and
// direction; recomputed by the caller every six user turns.
func ThreadSummary(card *domain.RelationshipCard) string {
	turns := card.UserTurns()
	return fmt.Sprintf(
		"This conversation spans %d user turns. The core issue is %s, and the "+
			"direction the user wants to move in is %s. Several possibilities were "+
			"explored, including speaking up directly and observing first. Keep "+
			"trying these options in practice and watch how the other person responds.",
		turns, card.Theme, card.Direction,
	)
}
