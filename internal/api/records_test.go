package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echo/internal/apperr"
	"echo/internal/domain"
	"echo/internal/store"
)

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newRecordsServer(t *testing.T) (*httptest.Server, *store.Records, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	records := store.NewRecordsWithClock(store.NewMemKV(), clock.now)
	h := NewRecordsHandler(NewHandler(records, &fakeStreamer{}, testConfig()))
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, records, clock
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeMap(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	return got
}

// ---- Journal ----

func TestJournalCreateListDelete(t *testing.T) {
	srv, _, clock := newRecordsServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/journal", `{"content":"first","tagsEmotion":["calm"],"energyTag":"charging"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decodeMap(t, resp)
	assert.Equal(t, "first", first["content"])
	assert.Equal(t, domain.TypeJournal, first["type"])
	assert.NotEmpty(t, first["id"])

	clock.advance(time.Minute)
	resp = do(t, http.MethodPost, srv.URL+"/api/journal", `{"content":"second"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decodeMap(t, resp)
	// Energy tag defaults when omitted.
	assert.Equal(t, domain.EnergyNeutral, second["energyTag"])

	resp = do(t, http.MethodGet, srv.URL+"/api/journal", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0]["content"])
	assert.Equal(t, "first", list[1]["content"])

	resp = do(t, http.MethodDelete, srv.URL+"/api/journal/"+second["id"].(string), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodDelete, srv.URL+"/api/journal/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, apperr.CodeNotFound, decodeMap(t, resp)["error_code"])
}

func TestJournalValidation(t *testing.T) {
	srv, _, _ := newRecordsServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/journal", `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperr.CodeEmptyContent, decodeMap(t, resp)["error_code"])

	resp = do(t, http.MethodPost, srv.URL+"/api/journal", `{"content":"x","energyTag":"vibrating"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperr.CodeInvalidEnergyTag, decodeMap(t, resp)["error_code"])

	resp = do(t, http.MethodPost, srv.URL+"/api/journal", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperr.CodeInvalidBody, decodeMap(t, resp)["error_code"])
}

func TestJournalLowMomentToggle(t *testing.T) {
	srv, _, _ := newRecordsServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/journal", `{"content":"rough"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeMap(t, resp)["id"].(string)

	resp = do(t, http.MethodPatch, srv.URL+"/api/journal/"+id+"/low-moment", `{"isLowMoment":true}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/journal", "")
	var list []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, true, list[0]["isLowMoment"])
	assert.NotEmpty(t, list[0]["updatedAt"])
}

// ---- Praise ----

func TestPraiseRequiresOneLine(t *testing.T) {
	srv, _, _ := newRecordsServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/praise", `{"line1":"","line2":"","line3":""}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperr.CodeEmptyPraise, decodeMap(t, resp)["error_code"])

	resp = do(t, http.MethodPost, srv.URL+"/api/praise", `{"line2":"held my ground"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	got := decodeMap(t, resp)
	assert.Equal(t, domain.ToneGentle, got["toneMode"])
	assert.Equal(t, domain.TypePraise, got["type"])
}

// ---- Capsules ----

func TestCapsuleLifecycleOverHTTP(t *testing.T) {
	srv, _, clock := newRecordsServer(t)

	unlockAt := clock.now().Add(24 * time.Hour).Format(time.RFC3339)
	resp := do(t, http.MethodPost, srv.URL+"/api/capsules", `{"content":"dear future me","unlockAt":"`+unlockAt+`"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeMap(t, resp)
	id := created["id"].(string)
	// Locked from birth: the create response is a safe view.
	_, hasContent := created["content"]
	assert.False(t, hasContent)
	assert.Equal(t, "Written on 2025-06-01", created["title"])

	// Listing while locked also omits the content key.
	resp = do(t, http.MethodGet, srv.URL+"/api/capsules", "")
	var list []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	_, hasContent = list[0]["content"]
	assert.False(t, hasContent)
	assert.Equal(t, domain.CapsuleLocked, list[0]["status"])

	// Opening early changes nothing.
	resp = do(t, http.MethodPost, srv.URL+"/api/capsules/"+id+"/open", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, apperr.CodeCapsuleLocked, decodeMap(t, resp)["error_code"])

	// A reply needs an opened capsule.
	resp = do(t, http.MethodPut, srv.URL+"/api/capsules/"+id+"/reply", `{"reply":"hello past me"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, apperr.CodeNotOpened, decodeMap(t, resp)["error_code"])

	clock.advance(25 * time.Hour)

	resp = do(t, http.MethodGet, srv.URL+"/api/capsules/ready", "")
	assert.Equal(t, true, decodeMap(t, resp)["ready"])

	// Once due, the listing reveals the content.
	resp = do(t, http.MethodGet, srv.URL+"/api/capsules", "")
	list = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "dear future me", list[0]["content"])
	assert.Equal(t, domain.CapsuleUnlocked, list[0]["status"])

	resp = do(t, http.MethodPost, srv.URL+"/api/capsules/"+id+"/open", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	opened := decodeMap(t, resp)
	assert.Equal(t, domain.CapsuleOpened, opened["status"])
	assert.Equal(t, "dear future me", opened["content"])
	assert.NotEmpty(t, opened["openedAt"])

	resp = do(t, http.MethodPut, srv.URL+"/api/capsules/"+id+"/reply", `{"reply":"hello past me"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/capsules/ready", "")
	assert.Equal(t, false, decodeMap(t, resp)["ready"])
}

func TestCapsuleRejectsPastUnlockTime(t *testing.T) {
	srv, _, clock := newRecordsServer(t)

	past := clock.now().Add(-time.Hour).Format(time.RFC3339)
	resp := do(t, http.MethodPost, srv.URL+"/api/capsules", `{"content":"x","unlockAt":"`+past+`"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperr.CodeInvalidUnlockAt, decodeMap(t, resp)["error_code"])
}

// ---- Relationship cards ----

func TestCardFlowWithSummary(t *testing.T) {
	srv, _, clock := newRecordsServer(t)

	resp := do(t, http.MethodPost, srv.URL+"/api/cards", `{"relationType":"colleague","theme":"shared credit","direction":"raise it calmly"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := decodeMap(t, resp)["id"].(string)

	resp = do(t, http.MethodPost, srv.URL+"/api/cards", `{"relationType":"nemesis","theme":"t","direction":"d"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperr.CodeInvalidRelationType, decodeMap(t, resp)["error_code"])

	resp = do(t, http.MethodPost, srv.URL+"/api/cards/"+id+"/messages", `{"role":"narrator","content":"x"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperr.CodeInvalidRole, decodeMap(t, resp)["error_code"])

	// No summary before six user turns.
	resp = do(t, http.MethodPost, srv.URL+"/api/cards/"+id+"/summary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, decodeMap(t, resp)["updated"])

	for i := 0; i < 6; i++ {
		clock.advance(time.Second)
		resp = do(t, http.MethodPost, srv.URL+"/api/cards/"+id+"/messages", `{"role":"user","content":"turn"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		clock.advance(time.Second)
		resp = do(t, http.MethodPost, srv.URL+"/api/cards/"+id+"/messages", `{"role":"assistant","content":"reply"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/cards/"+id+"/summary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeMap(t, resp)
	assert.Equal(t, true, got["updated"])
	assert.Contains(t, got["summary"], "shared credit")

	resp = do(t, http.MethodGet, srv.URL+"/api/cards", "")
	var cards []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cards))
	require.Len(t, cards, 1)
	assert.Equal(t, got["summary"], cards[0]["threadSummary"])
	assert.Len(t, cards[0]["chatThread"], 12)
}

// ---- Filter state ----

func TestFilterStateDefaultsAndRoundtrip(t *testing.T) {
	srv, _, _ := newRecordsServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/filter", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeMap(t, resp)
	assert.Equal(t, domain.FilterAll, got["timeFilter"])

	resp = do(t, http.MethodPut, srv.URL+"/api/filter", `{"timeFilter":"week","tagFilter":{"type":"mood","value":"calm"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, srv.URL+"/api/filter", "")
	got = decodeMap(t, resp)
	assert.Equal(t, domain.FilterWeek, got["timeFilter"])
}
