package api

import (
	"log/slog"
	"net/http"

	"echo/internal/apperr"
	"echo/internal/llm"
	"echo/internal/prompt"

	"github.com/go-chi/chi/v5"
)

// Upstream error code prefixes per endpoint family.
const (
	prefixCoexist = "DEEPSEEK"
	prefixSprite  = "SPRITE"
)

// ChatHandler exposes the stream relay endpoints. It validates the request,
// builds the system prompt, and re-emits the upstream token stream to the
// client as an incrementally flushed plain-text body.
type ChatHandler struct {
	*Handler
}

// NewChatHandler creates a chat handler on top of the base handler.
func NewChatHandler(base *Handler) *ChatHandler {
	return &ChatHandler{Handler: base}
}

// RegisterRoutes registers the relay routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.Chat)
		r.Post("/sprite-chat", h.SpriteChat)
		r.Post("/test-ai", h.TestAI)
	})
}

type cardContext struct {
	RelationType string `json:"relationType"`
	Theme        string `json:"theme"`
	Direction    string `json:"direction"`
	PartnerMBTI  string `json:"partnerMBTI"`
}

type chatRequest struct {
	UserMessage      string        `json:"userMessage"`
	RelationshipCard *cardContext  `json:"relationshipCard"`
	ChatHistory      []llm.Message `json:"chatHistory"`
}

// Chat relays the relationship companion conversation.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decode(r, &req); err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "request body is not valid JSON"))
		return
	}
	if req.UserMessage == "" {
		Fail(w, apperr.BadRequest(apperr.CodeMissingUserMessage, "userMessage is required"))
		return
	}
	if req.RelationshipCard == nil {
		Fail(w, apperr.BadRequest(apperr.CodeMissingRelationshipCard, "relationshipCard is required"))
		return
	}
	card := req.RelationshipCard
	if card.RelationType == "" || card.Theme == "" || card.Direction == "" {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidRelationshipCard, "relationshipCard is missing required fields"))
		return
	}

	system := prompt.Coexist(prompt.CoexistContext{
		RelationType: card.RelationType,
		Theme:        card.Theme,
		Direction:    card.Direction,
		PartnerMBTI:  card.PartnerMBTI,
	})
	messages := assemble(system, req.ChatHistory, req.UserMessage)

	h.relay(w, r, messages, llm.Options{
		Model:       h.cfg.Coexist.Model,
		Temperature: h.cfg.Coexist.Temperature,
	}, prefixCoexist)
}

type spriteRequest struct {
	UserMessage string        `json:"userMessage"`
	ChatHistory []llm.Message `json:"chatHistory"`
	DetailLevel string        `json:"detailLevel"`
}

// SpriteChat relays the general assistant conversation.
func (h *ChatHandler) SpriteChat(w http.ResponseWriter, r *http.Request) {
	var req spriteRequest
	if err := decode(r, &req); err != nil {
		Fail(w, apperr.BadRequest(apperr.CodeInvalidBody, "request body is not valid JSON"))
		return
	}
	if req.UserMessage == "" {
		Fail(w, apperr.BadRequest(apperr.CodeMissingUserMessage, "userMessage is required"))
		return
	}

	messages := assemble(prompt.Sprite(req.DetailLevel), req.ChatHistory, req.UserMessage)

	h.relay(w, r, messages, llm.Options{
		Model:       h.cfg.Sprite.Model,
		Temperature: h.cfg.Sprite.Temperature,
	}, prefixSprite)
}

type testAIRequest struct {
	Prompt string `json:"prompt"`
}

// TestAI is a minimal connectivity probe for the upstream model. It keeps
// the legacy error shape with an errorType field instead of error_code.
func (h *ChatHandler) TestAI(w http.ResponseWriter, r *http.Request) {
	var req testAIRequest
	if err := decode(r, &req); err != nil || req.Prompt == "" {
		JSON(w, http.StatusBadRequest, map[string]interface{}{
			"success":   false,
			"error":     "prompt is required",
			"errorType": apperr.CodeMissingPrompt,
		})
		return
	}

	fw := newFlushWriter(w)
	_, err := h.streamer.Stream(r.Context(), []llm.Message{{Role: "user", Content: req.Prompt}}, llm.Options{
		Model:       h.cfg.Sprite.Model,
		Temperature: h.cfg.Sprite.Temperature,
	}, fw)
	if err != nil {
		cause := llm.Classify(err)
		slog.Error("test-ai: upstream request failed", "cause", cause, "error", err)
		if fw.wrote {
			return
		}
		JSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success":   false,
			"error":     cause.Message(),
			"errorType": cause.Code(prefixCoexist),
		})
		return
	}
	fw.ensureHeader()
}

// assemble builds the upstream message array: system prompt, then the
// chronological role-tagged history, then the new user message.
func assemble(system string, history []llm.Message, userMessage string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: "user", Content: userMessage})
	return messages
}

// relay streams the upstream reply to the client. Validation has already
// happened; from here a failure before the first byte becomes a classified
// JSON error, and a failure mid-stream can only be logged since the
// plain-text headers are already out.
func (h *ChatHandler) relay(w http.ResponseWriter, r *http.Request, messages []llm.Message, opts llm.Options, prefix string) {
	fw := newFlushWriter(w)
	full, err := h.streamer.Stream(r.Context(), messages, opts, fw)
	if err != nil {
		cause := llm.Classify(err)
		slog.Error("relay: upstream stream failed",
			"code", cause.Code(prefix), "partial_bytes", len(full), "error", err)
		if fw.wrote {
			return
		}
		Fail(w, apperr.Internal(cause.Code(prefix), cause.Message()))
		return
	}
	fw.ensureHeader()
	slog.Info("relay: stream complete", "model", opts.Model, "reply_bytes", len(full))
}

// flushWriter writes the chunked plain-text relay body, sending headers on
// the first chunk and flushing after every write so the client sees tokens
// as they arrive.
type flushWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	wrote   bool
}

func newFlushWriter(w http.ResponseWriter) *flushWriter {
	fw := &flushWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		fw.flusher = f
	}
	return fw
}

func (fw *flushWriter) ensureHeader() {
	if fw.wrote {
		return
	}
	fw.wrote = true
	fw.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fw.w.Header().Set("Cache-Control", "no-cache")
	fw.w.WriteHeader(http.StatusOK)
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	fw.ensureHeader()
	n, err := fw.w.Write(p)
	if fw.flusher != nil {
		fw.flusher.Flush()
	}
	return n, err
}
