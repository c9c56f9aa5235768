package domain

import "time"

// Tone modes for a praise entry.
const (
	ToneGentle     = "gentle"
	ToneNeutral    = "neutral"
	ToneRestrained = "restrained"
)

// PraiseEntry is a self-affirmation record. Each line answers a fixed prompt;
// at least one of the three must be non-empty at creation.
type PraiseEntry struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Line1       string    `json:"line1"`
	Line2       string    `json:"line2"`
	Line3       string    `json:"line3"`
	ToneMode    string    `json:"toneMode"`
	CreatedAt   time.Time `json:"createdAt"`
	IsLowMoment *bool     `json:"isLowMoment,omitempty"`
}

// HasContent reports whether at least one of the three lines is non-empty.
func (p *PraiseEntry) HasContent() bool {
	return p.Line1 != "" || p.Line2 != "" || p.Line3 != ""
}

// ValidToneMode reports whether mode is one of the three tone modes.
func ValidToneMode(mode string) bool {
	switch mode {
	case ToneGentle, ToneNeutral, ToneRestrained:
		return true
	}
	return false
}
