package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heysagnik/chikki/internal/api/middleware"
	"github.com/heysagnik/chikki/internal/infrastructure/logging"
	"github.com/heysagnik/chikki/internal/providers/gemini"
)

// MaxPromptLength is the longest prompt accepted, in characters.
const MaxPromptLength = 15000

const (
	msgInvalidPrompt   = `Invalid or missing "prompt" in request body.`
	msgPromptTooLong   = `"prompt" exceeds the maximum length of 15000 characters.`
	msgInvalidConfig   = `"generationConfig" must be an object.`
	msgInvalidBody     = "Request body must be valid JSON."
	msgBodyTooLarge    = "Request body too large"
	msgUpstreamFailed  = "Failed to get response from AI service."
	msgMissingText     = "Failed to extract text from AI response."
	msgUpstreamTimeout = "AI service timed out. Please try again."
	msgUnavailable     = "AI service is temporarily unavailable. Please try again later."
)

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Prompt           json.RawMessage `json:"prompt"`
	GenerationConfig json.RawMessage `json:"generationConfig"`
}

// Generate forwards a prompt to the generation API and returns the text.
func (h *Handlers) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if middleware.IsBodyTooLarge(err) {
			fail(c, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	prompt, status, msg := validatePrompt(req.Prompt)
	if status != 0 {
		fail(c, status, msg)
		return
	}
	config, valid := normalizeConfig(req.GenerationConfig)
	if !valid {
		fail(c, http.StatusBadRequest, msgInvalidConfig)
		return
	}

	if h.metrics != nil {
		h.metrics.ObservePrompt(utf8.RuneCountInString(prompt))
	}

	log := h.logger.With(zap.String("request_id", middleware.GetRequestID(c)))
	log.Info("generate request",
		zap.String("prompt_preview", logging.Preview(prompt, 50)),
		zap.Int("prompt_chars", utf8.RuneCountInString(prompt)),
	)

	start := h.now()
	text, err := h.generator.Generate(c.Request.Context(), prompt, config)
	latency := h.now().Sub(start)
	if err != nil {
		status, msg := generateErrorStatus(err)
		log.Warn("generate failed",
			zap.Error(err),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		)
		fail(c, status, msg)
		return
	}

	log.Info("generate succeeded",
		zap.String("response_preview", logging.Preview(text, 50)),
		zap.Duration("latency", latency),
	)
	h.recordUsage(c)
	ok(c, http.StatusOK, text)
}

// validatePrompt returns the prompt, or a non-zero status and message.
func validatePrompt(raw json.RawMessage) (string, int, string) {
	var prompt string
	if len(raw) == 0 || json.Unmarshal(raw, &prompt) != nil {
		return "", http.StatusBadRequest, msgInvalidPrompt
	}
	if strings.TrimSpace(prompt) == "" {
		return "", http.StatusBadRequest, msgInvalidPrompt
	}
	if utf8.RuneCountInString(prompt) > MaxPromptLength {
		return "", http.StatusBadRequest, msgPromptTooLong
	}
	return prompt, 0, ""
}

// normalizeConfig drops absent or null configs and rejects non-objects.
func normalizeConfig(raw json.RawMessage) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, true
	}
	if trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

func generateErrorStatus(err error) (int, string) {
	var upstream *gemini.UpstreamError
	switch {
	case errors.Is(err, gemini.ErrUnavailable):
		return http.StatusServiceUnavailable, msgUnavailable
	case errors.Is(err, gemini.ErrTimeout):
		return http.StatusGatewayTimeout, msgUpstreamTimeout
	case errors.Is(err, gemini.ErrMissingText):
		return http.StatusBadGateway, msgMissingText
	case errors.As(err, &upstream):
		return upstream.ClientStatus(), msgUpstreamFailed
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, msgUpstreamFailed
	default:
		return http.StatusBadGateway, msgUpstreamFailed
	}
}

func (h *Handlers) recordUsage(c *gin.Context) {
	if h.accounts == nil {
		return
	}
	token := bearerToken(c)
	if token == "" {
		return
	}
	user, err := h.accounts.Authenticate(token)
	if err != nil {
		return
	}
	h.accounts.RecordUsage(user.ID)
}
