// Package domain contains the persisted record types for the echo application.
package domain

import (
	"strconv"
	"time"
)

// Record type discriminators, carried on every persisted record and used to
// re-bucket records on backup import.
const (
	TypeJournal = "journal"
	TypePraise  = "praise"
	TypeCapsule = "capsule"
	TypeCard    = "relationship-clarity"
)

// Energy impact tags for a journal entry.
const (
	EnergyDraining = "draining"
	EnergyNeutral  = "neutral"
	EnergyCharging = "charging"
)

// JournalEntry is a single mood-journal record.
// Content is required at creation; the only mutations after creation are
// toggling the low-moment flag and touching UpdatedAt.
type JournalEntry struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	EmotionTags []string   `json:"tagsEmotion"`
	ContextTags []string   `json:"tagsContext"`
	EnergyTag   string     `json:"energyTag"`
	IsLowMoment *bool      `json:"isLowMoment,omitempty"`
}

// ValidEnergyTag reports whether tag is one of the three energy impact values.
func ValidEnergyTag(tag string) bool {
	switch tag {
	case EnergyDraining, EnergyNeutral, EnergyCharging:
		return true
	}
	return false
}

// NewID derives a string record id from a timestamp, millisecond precision.
func NewID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
