package domain

import (
	"fmt"
	"sort"
	"time"
)

// Capsule status values. Transitions: locked -> unlocked (time-triggered,
// idempotent) -> opened (explicit user action, irreversible).
const (
	CapsuleLocked   = "locked"
	CapsuleUnlocked = "unlocked"
	CapsuleOpened   = "opened"
)

// Capsule is a time-delayed message to one's future self. Content must never
// reach a reader before the unlock time; use SafeView for any code path that
// has not verified unlock.
type Capsule struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	UnlockAt  time.Time  `json:"unlockAt"`
	CreatedAt time.Time  `json:"createdAt"`
	Status    string     `json:"status"`
	OpenedAt  *time.Time `json:"openedAt,omitempty"`
	Reply     string     `json:"reply,omitempty"`
}

// SafeCapsule is a projection of Capsule without the Content field. The
// omission is structural: there is no field to leak, not a blanked value.
type SafeCapsule struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	UnlockAt  time.Time  `json:"unlockAt"`
	CreatedAt time.Time  `json:"createdAt"`
	Status    string     `json:"status"`
	OpenedAt  *time.Time `json:"openedAt,omitempty"`
	Reply     string     `json:"reply,omitempty"`
}

// IsUnlockedAt reports whether the capsule content is accessible at now.
// Pure function of the clock; must be re-evaluated on every access.
func (c *Capsule) IsUnlockedAt(now time.Time) bool {
	return c.Status == CapsuleUnlocked || c.Status == CapsuleOpened ||
		(c.Status == CapsuleLocked && !now.Before(c.UnlockAt))
}

// SafeView returns the content-free projection of the capsule.
func (c *Capsule) SafeView() SafeCapsule {
	return SafeCapsule{
		ID:        c.ID,
		Type:      c.Type,
		Title:     c.Title,
		UnlockAt:  c.UnlockAt,
		CreatedAt: c.CreatedAt,
		Status:    c.Status,
		OpenedAt:  c.OpenedAt,
		Reply:     c.Reply,
	}
}

// CapsuleTitle generates the automatic title for a capsule created at t.
func CapsuleTitle(t time.Time) string {
	return fmt.Sprintf("Written on %s", t.Format("2006-01-02"))
}

// SortCapsules orders capsules in place for display:
//  1. due but not yet opened, first
//  2. still locked, ascending by unlock time
//  3. opened, last
//
// Ties fall back to creation time, newest first.
func SortCapsules(capsules []Capsule, now time.Time) {
	sort.SliceStable(capsules, func(i, j int) bool {
		a, b := &capsules[i], &capsules[j]

		aReady := a.IsUnlockedAt(now) && a.Status != CapsuleOpened
		bReady := b.IsUnlockedAt(now) && b.Status != CapsuleOpened
		if aReady != bReady {
			return aReady
		}

		aOpened := a.Status == CapsuleOpened
		bOpened := b.Status == CapsuleOpened
		if aOpened != bOpened {
			return bOpened
		}

		if a.Status == CapsuleLocked && b.Status == CapsuleLocked {
			return a.UnlockAt.Before(b.UnlockAt)
		}

		return a.CreatedAt.After(b.CreatedAt)
	})
}
