package api

import (
	"net/http"
	"time"

	"echo/internal/apperr"
	"echo/internal/domain"
	"echo/internal/prompt"

	"github.com/go-chi/chi/v5"
)

// RecordsHandler exposes CRUD over the four record collections plus the
// persisted filter state.
type RecordsHandler struct {
	*Handler
}

// NewRecordsHandler creates a records handler on top of the base handler.
func NewRecordsHandler(base *Handler) *RecordsHandler {
	return &RecordsHandler{Handler: base}
}

// RegisterRoutes registers the record store routes.
func (h *RecordsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/journal", h.ListJournal)
		r.Post("/journal", h.AddJournal)
		r.Delete("/journal/{id}", h.DeleteJournal)
		r.Patch("/journal/{id}/low-moment", h.JournalLowMoment)

		r.Get("/praise", h.ListPraise)
		r.Post("/praise", h.AddPraise)
		r.Delete("/praise/{id}", h.DeletePraise)
		r.Patch("/praise/{id}/low-moment", h.PraiseLowMoment)

		r.Get("/capsules", h.ListCapsules)
		r.Get("/capsules/ready", h.ReadyCapsules)
		r.Post("/capsules", h.AddCapsule)
		r.Delete("/capsules/{id}", h.DeleteCapsule)
		r.Post("/capsules/{id}/open", h.OpenCapsule)
		r.Put("/capsules/{id}/reply", h.CapsuleReply)

		r.Get("/cards", h.ListCards)
		r.Post("/cards", h.AddCard)
		r.Delete("/cards/{id}", h.DeleteCard)
		r.Post("/cards/{id}/messages", h.AppendMessage)
		r.Post("/cards/{id}/summary", h.RecomputeSummary)

		r.Get("/filter", h.GetFilter)
		r.Put("/filter", h.PutFilter)
	})
}

// ---- Journal ----

// ListJournal returns all journal entries, newest first.
func (h *RecordsHandler) ListJournal(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.records.ListJournal(r.Context()))
}

type addJournalRequest struct {
	Content     string   `json:"content"`
	EmotionTags []string `json:"tagsEmotion"`
	ContextTags []string `json:"tagsContext"`
	EnergyTag   string   `json:"energyTag"`
	IsLowMoment *bool    `json:"isLowMoment"`
}

// AddJournal creates a journal entry.
func (h *RecordsHandler) AddJournal(w http.ResponseWriter, r *http.Request) {
	var req addJournalRequest
	if err := decode(r, &req); err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "request body is not valid JSON"))
		return
	}
	if req.Content == "" {
		Fail(w, apperr.BadRequest(apperr.CodeEmptyContent, "content is required"))
		return
	}
	if req.EnergyTag == "" {
		req.EnergyTag = domain.EnergyNeutral
	}
	if !domain.ValidEnergyTag(req.EnergyTag) {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidEnergyTag, "energyTag must be draining, neutral or charging"))
		return
	}

	now := h.records.Now()
	entry := domain.JournalEntry{
		ID:          domain.NewID(now),
		Type:        domain.TypeJournal,
		Content:     req.Content,
		CreatedAt:   now,
		EmotionTags: emptyIfNil(req.EmotionTags),
		ContextTags: emptyIfNil(req.ContextTags),
		EnergyTag:   req.EnergyTag,
		IsLowMoment: req.IsLowMoment,
	}
	h.records.AddJournal(r.Context(), entry)
	JSON(w, http.StatusCreated, entry)
}

// DeleteJournal removes a journal entry by id.
func (h *RecordsHandler) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.records.DeleteJournal(r.Context(), id) {
		Fail(w, apperr.NotFound("journal entry", id))
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type lowMomentRequest struct {
	IsLowMoment bool `json:"isLowMoment"`
}

// JournalLowMoment toggles the low-moment flag on a journal entry.
func (h *RecordsHandler) JournalLowMoment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req lowMomentRequest
	if err := decode(r, &req); err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "request body is not valid JSON"))
		return
	}
	if !h.records.SetJournalLowMoment(r.Context(), id, req.IsLowMoment) {
		Fail(w, apperr.NotFound("journal entry", id))
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ---- Praise ----

// ListPraise returns all praise entries, newest first.
func (h *RecordsHandler) ListPraise(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.records.ListPraise(r.Context()))
}

type addPraiseRequest struct {
	Line1       string `json:"line1"`
	Line2       string `json:"line2"`
	Line3       string `json:"line3"`
	ToneMode    string `json:"toneMode"`
	IsLowMoment *bool  `json:"isLowMoment"`
}

// AddPraise creates a praise entry.
func (h *RecordsHandler) AddPraise(w http.ResponseWriter, r *http.Request) {
	var req addPraiseRequest
	if err := decode(r, &req); err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "request body is not valid JSON"))
		return
	}
	if req.Line1 == "" && req.Line2 == "" && req.Line3 == "" {
		Fail(w, apperr.BadRequest(apperr.CodeEmptyPraise, "at least one line is required"))
		return
	}
	if req.ToneMode == "" {
		req.ToneMode = domain.ToneGentle
	}
	if !domain.ValidToneMode(req.ToneMode) {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidToneMode, "toneMode must be gentle, neutral or restrained"))
		return
	}

	now := h.records.Now()
	entry := domain.PraiseEntry{
		ID:          domain.NewID(now),
		Type:        domain.TypePraise,
		Line1:       req.Line1,
		Line2:       req.Line2,
		Line3:       req.Line3,
		ToneMode:    req.ToneMode,
		CreatedAt:   now,
		IsLowMoment: req.IsLowMoment,
	}
	h.records.AddPraise(r.Context(), entry)
	JSON(w, http.StatusCreated, entry)
}

// DeletePraise removes a praise entry by id.
func (h *RecordsHandler) DeletePraise(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.records.DeletePraise(r.Context(), id) {
		Fail(w, apperr.NotFound("praise entry", id))
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// PraiseLowMoment toggles the low-moment flag on a praise entry.
func (h *RecordsHandler) PraiseLowMoment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req lowMomentRequest
	if err := decode(r, &req); err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "request body is not valid JSON"))
		return
	}
	if !h.records.SetPraiseLowMoment(r.Context(), id, req.IsLowMoment) {
		Fail(w, apperr.NotFound("praise entry", id))
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ---- Capsules ----

// ListCapsules returns all capsules in display order. Capsules whose unlock
// time has not passed are rendered as safe views: the content field is
// structurally absent, not blanked.
func (h *RecordsHandler) ListCapsules(w http.ResponseWriter, r *http.Request) {
	capsules := h.records.ListCapsules(r.Context())
	now := h.records.Now()
	out := make([]interface{}, 0, len(capsules))
	for i := range capsules {
		if capsules[i].IsUnlockedAt(now) {
			out = append(out, capsules[i])
		} else {
			out = append(out, capsules[i].SafeView())
		}
	}
	JSON(w, http.StatusOK, out)
}

// ReadyCapsules reports whether any capsule is due but not yet opened.
func (h *RecordsHandler) ReadyCapsules(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"ready": h.records.HasReadyCapsules(r.Context()),
	})
}

type addCapsuleRequest struct {
	Content  string    `json:"content"`
	UnlockAt time.Time `json:"unlockAt"`
}

// AddCapsule creates a capsule locked until its unlock time.
func (h *RecordsHandler) AddCapsule(w http.ResponseWriter, r *http.Request) {
	var req addCapsuleRequest
	if err := decode(r, &req); err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "request body is not valid JSON"))
		return
	}
	if req.Content == "" {
		Fail(w, apperr.BadRequest(apperr.CodeEmptyContent, "content is required"))
		return
	}
	now := h.records.Now()
	if req.UnlockAt.Before(now) {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidUnlockAt, "unlockAt must not be in the past"))
		return
	}

	capsule := domain.Capsule{
		ID:        domain.NewID(now),
		Type:      domain.TypeCapsule,
		Title:     domain.CapsuleTitle(now),
		Content:   req.Content,
		UnlockAt:  req.UnlockAt,
		CreatedAt: now,
		Status:    domain.CapsuleLocked,
	}
	h.records.AddCapsule(r.Context(), capsule)
	// The capsule is locked from birth; echo it back content-free.
	JSON(w, http.StatusCreated, capsule.SafeView())
}

// DeleteCapsule removes a capsule by id.
func (h *RecordsHandler) DeleteCapsule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.records.DeleteCapsule(r.Context(), id) {
		Fail(w, apperr.NotFound("capsule", id))
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// OpenCapsule marks a due capsule as opened and returns it with content.
// Opening a capsule before its unlock time changes nothing and reports 409.
func (h *RecordsHandler) OpenCapsule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	capsule, found, opened := h.records.OpenCapsule(r.Context(), id)
	if !found {
		Fail(w, apperr.NotFound("capsule", id))
		return
	}
	if !opened {
		Fail(w, apperr.Conflict(apperr.CodeCapsuleLocked, "capsule has not reached its unlock time"))
		return
	}
	JSON(w, http.StatusOK, capsule)
}

type capsuleReplyRequest struct {
	Reply string `json:"reply"`
}

// CapsuleReply attaches a reply to an opened capsule; last write wins.
func (h *RecordsHandler) CapsuleReply(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req capsuleReplyRequest
	if err := decode(r, &req); err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "request body is not valid JSON"))
		return
	}
	found, applied := h.records.SetCapsuleReply(r.Context(), id, req.Reply)
	if !found {
		Fail(w, apperr.NotFound("capsule", id))
		return
	}
	if !applied {
		Fail(w, apperr.Conflict(apperr.CodeNotOpened, "capsule has not been opened yet"))
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ---- Relationship cards ----

// ListCards returns all relationship cards, newest first.
func (h *RecordsHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.records.ListCards(r.Context()))
}

type addCardRequest struct {
	RelationType string `json:"relationType"`
	Theme        string `json:"theme"`
	Direction    string `json:"direction"`
	PartnerMBTI  string `json:"partnerMBTI"`
}

// AddCard creates a relationship card with an empty chat thread.
func (h *RecordsHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	var req addCardRequest
	if err := decode(r, &req); err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "request body is not valid JSON"))
		return
	}
	if !domain.ValidRelationType(req.RelationType) {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidRelationType, "relationType must be one of partner, friend, family, colleague, other"))
		return
	}
	if req.Theme == "" || req.Direction == "" {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidRelationshipCard, "theme and direction are required"))
		return
	}

	now := h.records.Now()
	card := domain.RelationshipCard{
		ID:           domain.NewID(now),
		Type:         domain.TypeCard,
		RelationType: req.RelationType,
		Theme:        req.Theme,
		Direction:    req.Direction,
		PartnerMBTI:  req.PartnerMBTI,
		ChatThread:   []domain.ChatMessage{},
		CreatedAt:    now,
	}
	h.records.AddCard(r.Context(), card)
	JSON(w, http.StatusCreated, card)
}

// DeleteCard removes a relationship card by id.
func (h *RecordsHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.records.DeleteCard(r.Context(), id) {
		Fail(w, apperr.NotFound("relationship card", id))
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type appendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AppendMessage appends one chat message to a card's thread.
func (h *RecordsHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req appendMessageRequest
	if err := decode(r, &req); err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "request body is not valid JSON"))
		return
	}
	if req.Role != domain.RoleUser && req.Role != domain.RoleAssistant {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidRole, "role must be user or assistant"))
		return
	}
	if req.Content == "" {
		Fail(w, apperr.BadRequest(apperr.CodeEmptyContent, "content is required"))
		return
	}
	msg, found := h.records.AppendMessage(r.Context(), id, req.Role, req.Content)
	if !found {
		Fail(w, apperr.NotFound("relationship card", id))
		return
	}
	JSON(w, http.StatusCreated, msg)
}

// RecomputeSummary refreshes a card's thread summary when one is due: the
// user turn count is a positive multiple of six. The store never triggers
// this on its own.
func (h *RecordsHandler) RecomputeSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	card, found := h.records.GetCard(r.Context(), id)
	if !found {
		Fail(w, apperr.NotFound("relationship card", id))
		return
	}
	if !card.SummaryDue() {
		JSON(w, http.StatusOK, map[string]interface{}{"success": true, "updated": false})
		return
	}
	summary := prompt.ThreadSummary(&card)
	h.records.SetCardSummary(r.Context(), id, summary)
	JSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": true,
		"summary": summary,
	})
}

// ---- Filter state ----

// GetFilter returns the persisted journal filter selection.
func (h *RecordsHandler) GetFilter(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.records.FilterState(r.Context()))
}

// PutFilter persists the journal filter selection.
func (h *RecordsHandler) PutFilter(w http.ResponseWriter, r *http.Request) {
	var fs domain.FilterState
	if err := decode(r, &fs); err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "request body is not valid JSON"))
		return
	}
	if fs.TimeFilter == "" {
		fs.TimeFilter = domain.FilterAll
	}
	h.records.SaveFilterState(r.Context(), fs)
	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
