package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"echo/internal/domain"
)

// Records is the record-level store for the four collections plus the filter
// state. Read-modify-write sequences run under one mutex so concurrent HTTP
// handlers cannot clobber each other at the whole-collection granularity.
//
// Storage failures never escape this layer: reads degrade to an empty list
// and writes degrade to a logged no-op, so callers can treat the store as
// always available.
type Records struct {
	mu  sync.Mutex
	kv  KV
	now func() time.Time
}

// NewRecords creates a record store over kv using the wall clock.
func NewRecords(kv KV) *Records {
	return NewRecordsWithClock(kv, time.Now)
}

// NewRecordsWithClock creates a record store with an injectable clock.
func NewRecordsWithClock(kv KV, now func() time.Time) *Records {
	return &Records{kv: kv, now: now}
}

// Now returns the store's current time. Callers use it to stamp new records
// so that tests drive record creation and unlock checks from one clock.
func (r *Records) Now() time.Time {
	return r.now()
}

func loadList[T any](ctx context.Context, kv KV, key string) []T {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		slog.Error("store: read failed, treating collection as empty", "key", key, "error", err)
		return []T{}
	}
	if !ok || raw == "" {
		return []T{}
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		slog.Error("store: corrupt collection, treating as empty", "key", key, "error", err)
		return []T{}
	}
	if items == nil {
		items = []T{}
	}
	return items
}

func saveList[T any](ctx context.Context, kv KV, key string, items []T) {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		slog.Error("store: marshal failed, write skipped", "key", key, "error", err)
		return
	}
	if err := kv.Set(ctx, key, string(data)); err != nil {
		slog.Error("store: write failed", "key", key, "error", err)
	}
}

// ---- Journal ----

// ListJournal returns all journal entries, newest first.
func (r *Records) ListJournal(ctx context.Context) []domain.JournalEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return loadList[domain.JournalEntry](ctx, r.kv, KeyJournal)
}

// AddJournal prepends a journal entry.
func (r *Records) AddJournal(ctx context.Context, entry domain.JournalEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := loadList[domain.JournalEntry](ctx, r.kv, KeyJournal)
	entries = append([]domain.JournalEntry{entry}, entries...)
	saveList(ctx, r.kv, KeyJournal, entries)
}

// DeleteJournal removes the entry with the given id.
func (r *Records) DeleteJournal(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := loadList[domain.JournalEntry](ctx, r.kv, KeyJournal)
	kept := entries[:0:0]
	found := false
	for _, e := range entries {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if found {
		saveList(ctx, r.kv, KeyJournal, kept)
	}
	return found
}

// SetJournalLowMoment toggles the low-moment flag and touches UpdatedAt.
func (r *Records) SetJournalLowMoment(ctx context.Context, id string, low bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := loadList[domain.JournalEntry](ctx, r.kv, KeyJournal)
	found := false
	for i := range entries {
		if entries[i].ID == id {
			flag := low
			now := r.now()
			entries[i].IsLowMoment = &flag
			entries[i].UpdatedAt = &now
			found = true
		}
	}
	if found {
		saveList(ctx, r.kv, KeyJournal, entries)
	}
	return found
}

// ---- Praise ----

// ListPraise returns all praise entries, newest first.
func (r *Records) ListPraise(ctx context.Context) []domain.PraiseEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return loadList[domain.PraiseEntry](ctx, r.kv, KeyPraise)
}

// AddPraise prepends a praise entry.
func (r *Records) AddPraise(ctx context.Context, entry domain.PraiseEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := loadList[domain.PraiseEntry](ctx, r.kv, KeyPraise)
	entries = append([]domain.PraiseEntry{entry}, entries...)
	saveList(ctx, r.kv, KeyPraise, entries)
}

// DeletePraise removes the entry with the given id.
func (r *Records) DeletePraise(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := loadList[domain.PraiseEntry](ctx, r.kv, KeyPraise)
	kept := entries[:0:0]
	found := false
	for _, e := range entries {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if found {
		saveList(ctx, r.kv, KeyPraise, kept)
	}
	return found
}

// SetPraiseLowMoment toggles the low-moment flag on a praise entry.
func (r *Records) SetPraiseLowMoment(ctx context.Context, id string, low bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := loadList[domain.PraiseEntry](ctx, r.kv, KeyPraise)
	found := false
	for i := range entries {
		if entries[i].ID == id {
			flag := low
			entries[i].IsLowMoment = &flag
			found = true
		}
	}
	if found {
		saveList(ctx, r.kv, KeyPraise, entries)
	}
	return found
}

// ---- Capsules ----

// ListCapsules returns all capsules in display order. Any locked capsule
// whose unlock time has passed is promoted to unlocked and the promotion is
// persisted before the list is returned.
func (r *Records) ListCapsules(ctx context.Context) []domain.Capsule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCapsulesLocked(ctx)
}

func (r *Records) listCapsulesLocked(ctx context.Context) []domain.Capsule {
	capsules := loadList[domain.Capsule](ctx, r.kv, KeyCapsules)
	now := r.now()

	promoted := false
	for i := range capsules {
		if capsules[i].Title == "" {
			capsules[i].Title = domain.CapsuleTitle(capsules[i].CreatedAt)
			promoted = true
		}
		if capsules[i].Status == domain.CapsuleLocked && !now.Before(capsules[i].UnlockAt) {
			capsules[i].Status = domain.CapsuleUnlocked
			promoted = true
		}
	}
	if promoted {
		saveList(ctx, r.kv, KeyCapsules, capsules)
	}

	domain.SortCapsules(capsules, now)
	return capsules
}

// AddCapsule prepends a capsule.
func (r *Records) AddCapsule(ctx context.Context, capsule domain.Capsule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	capsules := loadList[domain.Capsule](ctx, r.kv, KeyCapsules)
	capsules = append([]domain.Capsule{capsule}, capsules...)
	saveList(ctx, r.kv, KeyCapsules, capsules)
}

// DeleteCapsule removes the capsule with the given id.
func (r *Records) DeleteCapsule(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	capsules := loadList[domain.Capsule](ctx, r.kv, KeyCapsules)
	kept := capsules[:0:0]
	found := false
	for _, c := range capsules {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if found {
		saveList(ctx, r.kv, KeyCapsules, kept)
	}
	return found
}

// OpenCapsule marks an unlocked capsule as opened and stamps OpenedAt.
// Calling it on a capsule that has not reached its unlock time is a no-op:
// the capsule is returned unchanged with opened=false.
func (r *Records) OpenCapsule(ctx context.Context, id string) (capsule domain.Capsule, found, opened bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	capsules := loadList[domain.Capsule](ctx, r.kv, KeyCapsules)
	now := r.now()
	for i := range capsules {
		if capsules[i].ID != id {
			continue
		}
		found = true
		if !capsules[i].IsUnlockedAt(now) {
			slog.Info("store: open refused, capsule still locked", "id", id, "unlock_at", capsules[i].UnlockAt)
			return capsules[i], true, false
		}
		if capsules[i].Status != domain.CapsuleOpened {
			openedAt := now
			capsules[i].Status = domain.CapsuleOpened
			capsules[i].OpenedAt = &openedAt
			saveList(ctx, r.kv, KeyCapsules, capsules)
		}
		return capsules[i], true, true
	}
	return domain.Capsule{}, false, false
}

// SetCapsuleReply attaches or overwrites the reply on an opened capsule;
// last write wins. Replies on capsules that are not yet opened are refused.
func (r *Records) SetCapsuleReply(ctx context.Context, id string, reply string) (found, applied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	capsules := loadList[domain.Capsule](ctx, r.kv, KeyCapsules)
	for i := range capsules {
		if capsules[i].ID != id {
			continue
		}
		if capsules[i].Status != domain.CapsuleOpened {
			slog.Info("store: reply refused, capsule not opened", "id", id)
			return true, false
		}
		capsules[i].Reply = reply
		saveList(ctx, r.kv, KeyCapsules, capsules)
		return true, true
	}
	return false, false
}

// HasReadyCapsules reports whether any capsule is due but not yet opened.
func (r *Records) HasReadyCapsules(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	capsules := loadList[domain.Capsule](ctx, r.kv, KeyCapsules)
	now := r.now()
	for i := range capsules {
		if capsules[i].Status == domain.CapsuleOpened {
			continue
		}
		if capsules[i].IsUnlockedAt(now) {
			return true
		}
	}
	return false
}

// ---- Relationship cards ----

// ListCards returns all relationship cards, newest first.
func (r *Records) ListCards(ctx context.Context) []domain.RelationshipCard {
	r.mu.Lock()
	defer r.mu.Unlock()
	return loadList[domain.RelationshipCard](ctx, r.kv, KeyCards)
}

// GetCard returns the card with the given id.
func (r *Records) GetCard(ctx context.Context, id string) (domain.RelationshipCard, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cards := loadList[domain.RelationshipCard](ctx, r.kv, KeyCards)
	for i := range cards {
		if cards[i].ID == id {
			return cards[i], true
		}
	}
	return domain.RelationshipCard{}, false
}

// AddCard prepends a relationship card.
func (r *Records) AddCard(ctx context.Context, card domain.RelationshipCard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cards := loadList[domain.RelationshipCard](ctx, r.kv, KeyCards)
	cards = append([]domain.RelationshipCard{card}, cards...)
	saveList(ctx, r.kv, KeyCards, cards)
}

// DeleteCard removes the card with the given id.
func (r *Records) DeleteCard(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cards := loadList[domain.RelationshipCard](ctx, r.kv, KeyCards)
	kept := cards[:0:0]
	found := false
	for _, c := range cards {
		if c.ID == id {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if found {
		saveList(ctx, r.kv, KeyCards, kept)
	}
	return found
}

// AppendMessage appends one chat message with a fresh id and timestamp to the
// card's thread. The card's other fields are untouched.
func (r *Records) AppendMessage(ctx context.Context, cardID, role, content string) (domain.ChatMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cards := loadList[domain.RelationshipCard](ctx, r.kv, KeyCards)
	for i := range cards {
		if cards[i].ID != cardID {
			continue
		}
		now := r.now()
		msg := domain.ChatMessage{
			ID:        domain.NewID(now),
			Role:      role,
			Content:   content,
			CreatedAt: now,
		}
		cards[i].ChatThread = append(cards[i].ChatThread, msg)
		saveList(ctx, r.kv, KeyCards, cards)
		return msg, true
	}
	return domain.ChatMessage{}, false
}

// SetCardSummary overwrites the card's thread summary. The store never
// recomputes the summary on its own; the caller decides when one is due.
func (r *Records) SetCardSummary(ctx context.Context, cardID, summary string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cards := loadList[domain.RelationshipCard](ctx, r.kv, KeyCards)
	for i := range cards {
		if cards[i].ID == cardID {
			cards[i].ThreadSummary = summary
			saveList(ctx, r.kv, KeyCards, cards)
			return true
		}
	}
	return false
}

// ---- Filter state ----

// FilterState returns the persisted journal filter selection, or the default
// when nothing is stored or the stored value cannot be parsed.
func (r *Records) FilterState(ctx context.Context) domain.FilterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok, err := r.kv.Get(ctx, KeyFilter)
	if err != nil {
		slog.Error("store: read failed, using default filter state", "key", KeyFilter, "error", err)
		return domain.DefaultFilterState()
	}
	if !ok || raw == "" {
		return domain.DefaultFilterState()
	}
	var fs domain.FilterState
	if err := json.Unmarshal([]byte(raw), &fs); err != nil {
		slog.Error("store: corrupt filter state, using default", "error", err)
		return domain.DefaultFilterState()
	}
	return fs
}

// SaveFilterState persists the journal filter selection.
func (r *Records) SaveFilterState(ctx context.Context, fs domain.FilterState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.Marshal(fs)
	if err != nil {
		slog.Error("store: marshal failed, filter state not saved", "error", err)
		return
	}
	if err := r.kv.Set(ctx, KeyFilter, string(data)); err != nil {
		slog.Error("store: write failed", "key", KeyFilter, "error", err)
	}
}
