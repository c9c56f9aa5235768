package backup_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echo/internal/backup"
	"echo/internal/domain"
	"echo/internal/store"
)

func newTestRecords() *store.Records {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return store.NewRecordsWithClock(store.NewMemKV(), func() time.Time { return base })
}

func seed(t *testing.T, r *store.Records) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	r.AddJournal(ctx, domain.JournalEntry{ID: "j1", Type: domain.TypeJournal, Content: "long day", CreatedAt: base})
	r.AddJournal(ctx, domain.JournalEntry{ID: "j2", Type: domain.TypeJournal, Content: "better day", CreatedAt: base.Add(time.Hour)})
	r.AddPraise(ctx, domain.PraiseEntry{ID: "p1", Type: domain.TypePraise, Line1: "showed up", ToneMode: domain.ToneGentle, CreatedAt: base})
	r.AddCapsule(ctx, domain.Capsule{
		ID:        "c1",
		Type:      domain.TypeCapsule,
		Title:     "Written on 2025-05-01",
		Content:   "hello future me",
		UnlockAt:  base.AddDate(0, 1, 0),
		CreatedAt: base,
		Status:    domain.CapsuleLocked,
	})
	r.AddCard(ctx, domain.RelationshipCard{
		ID:           "rc1",
		Type:         domain.TypeCard,
		RelationType: domain.RelationFriend,
		Theme:        "unanswered messages",
		Direction:    "say less, mean it more",
		CreatedAt:    base,
	})
}

func TestExportCountsAllCollections(t *testing.T) {
	ctx := context.Background()
	r := newTestRecords()
	seed(t, r)

	text, count, err := backup.Export(ctx, r, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	var doc backup.Document
	require.NoError(t, json.Unmarshal([]byte(text), &doc))
	assert.Equal(t, backup.Version, doc.Version)
	assert.Equal(t, "2025-06-02T00:00:00Z", doc.ExportedAt)
	assert.Len(t, doc.Records, 5)
}

func TestExportImportRoundtrip(t *testing.T) {
	ctx := context.Background()
	src := newTestRecords()
	seed(t, src)

	text, _, err := backup.Export(ctx, src, time.Now())
	require.NoError(t, err)

	dst := newTestRecords()
	result := backup.ImportMerge(ctx, dst, text)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.JournalAdded)
	assert.Equal(t, 1, result.PraiseAdded)
	assert.Equal(t, 1, result.CapsulesAdded)
	assert.Equal(t, 1, result.CardsAdded)

	// Order within each collection survives the roundtrip.
	journal := dst.ListJournal(ctx)
	require.Len(t, journal, 2)
	assert.Equal(t, "j2", journal[0].ID)
	assert.Equal(t, "j1", journal[1].ID)
}

func TestImportTwiceAddsNothing(t *testing.T) {
	ctx := context.Background()
	src := newTestRecords()
	seed(t, src)

	text, _, err := backup.Export(ctx, src, time.Now())
	require.NoError(t, err)

	dst := newTestRecords()
	first := backup.ImportMerge(ctx, dst, text)
	require.True(t, first.Success)

	second := backup.ImportMerge(ctx, dst, text)
	assert.True(t, second.Success)
	assert.Zero(t, second.JournalAdded)
	assert.Zero(t, second.PraiseAdded)
	assert.Zero(t, second.CapsulesAdded)
	assert.Zero(t, second.CardsAdded)

	assert.Len(t, dst.ListJournal(ctx), 2)
	assert.Len(t, dst.ListPraise(ctx), 1)
}

func TestImportMergeKeepsExistingRecords(t *testing.T) {
	ctx := context.Background()
	src := newTestRecords()
	seed(t, src)

	text, _, err := backup.Export(ctx, src, time.Now())
	require.NoError(t, err)

	dst := newTestRecords()
	dst.AddJournal(ctx, domain.JournalEntry{ID: "local", Type: domain.TypeJournal, Content: "kept", CreatedAt: time.Now()})

	result := backup.ImportMerge(ctx, dst, text)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.JournalAdded)

	ids := make([]string, 0)
	for _, e := range dst.ListJournal(ctx) {
		ids = append(ids, e.ID)
	}
	assert.Contains(t, ids, "local")
	assert.Len(t, ids, 3)
}

func TestImportMalformedDocumentWritesNothing(t *testing.T) {
	ctx := context.Background()
	dst := newTestRecords()

	for _, text := range []string{
		"{not json",
		`{"version":"1.0.0"}`,
		`{"version":"","exportedAt":"2025-06-02T00:00:00Z","records":[]}`,
		`{"version":"1.0.0","exportedAt":"2025-06-02T00:00:00Z"}`,
	} {
		result := backup.ImportMerge(ctx, dst, text)
		assert.False(t, result.Success, "document %q should be rejected", text)
		assert.NotEmpty(t, result.Error)
	}

	assert.Empty(t, dst.ListJournal(ctx))
	assert.Empty(t, dst.ListPraise(ctx))
	assert.Empty(t, dst.ListCapsules(ctx))
	assert.Empty(t, dst.ListCards(ctx))
}

func TestImportDropsUnknownRecordTypes(t *testing.T) {
	ctx := context.Background()
	dst := newTestRecords()

	text := `{
  "version": "1.0.0",
  "exportedAt": "2025-06-02T00:00:00Z",
  "records": [
    {"id": "x1", "type": "mystery", "content": "???"},
    {"id": "j1", "type": "journal", "content": "kept", "createdAt": "2025-05-01T09:00:00Z"}
  ]
}`
	result := backup.ImportMerge(ctx, dst, text)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.JournalAdded)

	journal := dst.ListJournal(ctx)
	require.Len(t, journal, 1)
	assert.Equal(t, "j1", journal[0].ID)
}
