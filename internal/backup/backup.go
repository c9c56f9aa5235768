// Package backup serializes the four record collections into one portable
// JSON document and merges such documents back in with id-based deduplication.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"echo/internal/domain"
	"echo/internal/store"
)

// Version is the backup document format version.
const Version = "1.0.0"

// Document is the portable backup envelope. Records is a flat array mixing
// all four record kinds; each record carries its own type discriminator.
type Document struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exportedAt"`
	Records    []json.RawMessage `json:"records"`
}

// ImportResult reports how many records each kind gained from a merge import.
type ImportResult struct {
	Success       bool   `json:"success"`
	JournalAdded  int    `json:"journalAdded"`
	PraiseAdded   int    `json:"praiseAdded"`
	CapsulesAdded int    `json:"capsulesAdded"`
	CardsAdded    int    `json:"cardsAdded"`
	Error         string `json:"error,omitempty"`
}

// Export serializes all four collections into one backup document and
// returns the JSON text plus the total record count. It reads the store and
// nothing else.
func Export(ctx context.Context, records *store.Records, now time.Time) (string, int, error) {
	journal := records.ListJournal(ctx)
	praise := records.ListPraise(ctx)
	capsules := records.ListCapsules(ctx)
	cards := records.ListCards(ctx)

	all := make([]json.RawMessage, 0, len(journal)+len(praise)+len(capsules)+len(cards))
	appendRecords := func(v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		all = append(all, items...)
		return nil
	}
	for _, collection := range []any{journal, praise, capsules, cards} {
		if err := appendRecords(collection); err != nil {
			return "", 0, fmt.Errorf("serialize collection: %w", err)
		}
	}

	doc := Document{
		Version:    Version,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Records:    all,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("serialize backup document: %w", err)
	}
	return string(data), len(all), nil
}

// Validate performs the structural check on a backup document: string
// version, string exportedAt, array records. Individual record shapes are
// not validated here.
func Validate(doc *Document) bool {
	return doc != nil && doc.Version != "" && doc.ExportedAt != "" && doc.Records != nil
}

// ImportMerge parses a backup document and merges its records into the
// store. A malformed document produces zero writes. Records are bucketed by
// their type discriminator; records whose id already exists in the matching
// collection are skipped, as are records with an unrecognized type. Surviving
// records are prepended to their collections.
func ImportMerge(ctx context.Context, records *store.Records, jsonText string) ImportResult {
	var doc Document
	if err := json.Unmarshal([]byte(jsonText), &doc); err != nil {
		return ImportResult{Error: "backup document is not valid JSON"}
	}
	if !Validate(&doc) {
		return ImportResult{Error: "backup document has an invalid structure"}
	}

	var (
		journal  []domain.JournalEntry
		praise   []domain.PraiseEntry
		capsules []domain.Capsule
		cards    []domain.RelationshipCard
	)

	for _, raw := range doc.Records {
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			continue
		}
		switch probe.Type {
		case domain.TypeJournal:
			var e domain.JournalEntry
			if err := json.Unmarshal(raw, &e); err == nil {
				journal = append(journal, e)
			}
		case domain.TypePraise:
			var e domain.PraiseEntry
			if err := json.Unmarshal(raw, &e); err == nil {
				praise = append(praise, e)
			}
		case domain.TypeCapsule:
			var c domain.Capsule
			if err := json.Unmarshal(raw, &c); err == nil {
				capsules = append(capsules, c)
			}
		case domain.TypeCard:
			var c domain.RelationshipCard
			if err := json.Unmarshal(raw, &c); err == nil {
				cards = append(cards, c)
			}
		}
		// Unrecognized types are dropped silently.
	}

	result := ImportResult{Success: true}

	existing := idSet(records.ListJournal(ctx), func(e domain.JournalEntry) string { return e.ID })
	for i := len(journal) - 1; i >= 0; i-- {
		if existing[journal[i].ID] {
			continue
		}
		records.AddJournal(ctx, journal[i])
		result.JournalAdded++
	}

	existingPraise := idSet(records.ListPraise(ctx), func(e domain.PraiseEntry) string { return e.ID })
	for i := len(praise) - 1; i >= 0; i-- {
		if existingPraise[praise[i].ID] {
			continue
		}
		records.AddPraise(ctx, praise[i])
		result.PraiseAdded++
	}

	existingCapsules := idSet(records.ListCapsules(ctx), func(c domain.Capsule) string { return c.ID })
	for i := len(capsules) - 1; i >= 0; i-- {
		if existingCapsules[capsules[i].ID] {
			continue
		}
		records.AddCapsule(ctx, capsules[i])
		result.CapsulesAdded++
	}

	existingCards := idSet(records.ListCards(ctx), func(c domain.RelationshipCard) string { return c.ID })
	for i := len(cards) - 1; i >= 0; i-- {
		if existingCards[cards[i].ID] {
			continue
		}
		records.AddCard(ctx, cards[i])
		result.CardsAdded++
	}

	return result
}

func idSet[T any](items []T, id func(T) string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[id(item)] = true
	}
	return set
}
