// Package llm turns a conversation into one Gemini call and normalizes the
// answer. The system instruction and the action tags it teaches come from a
// versioned vocabulary embedded in the binary.
package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/observability"
)

var (
	// ErrEmptyResponse is returned when the provider answers with no text.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrNoAPIKey is returned when no API key was configured.
	ErrNoAPIKey = errors.New("llm: no API key configured")
)

const validationPrompt = "test"

var jsonFence = regexp.MustCompile("```json\\n([\\s\\S]*?)\\n```")

var tracer = otel.Tracer("llm")

// Client answers prompts within a conversation.
type Client struct {
	gen   Generator
	vocab *Vocabulary
}

// New returns a Client. A nil gen yields a client whose calls fail with
// ErrNoAPIKey, which is how a missing key surfaces at login.
func New(gen Generator, vocab *Vocabulary) *Client {
	return &Client{gen: gen, vocab: vocab}
}

// Vocabulary returns the vocabulary in use.
func (c *Client) Vocabulary() *Vocabulary { return c.vocab }

// ValidateAPIKey issues a minimal generation and reports whether it worked.
func (c *Client) ValidateAPIKey(ctx context.Context) bool {
	ctx, span := tracer.Start(ctx, "llm.validate")
	defer span.End()

	if c.gen == nil {
		zerolog.Ctx(ctx).Error().Err(ErrNoAPIKey).Msg("gemini api key validation failed")
		observability.LLMRequests.WithLabelValues("validate", "error").Inc()
		return false
	}
	if _, err := c.gen.Generate(ctx, "", []Turn{{Role: RoleUser, Text: validationPrompt}}); err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Msg("gemini api key validation failed")
		observability.LLMRequests.WithLabelValues("validate", "error").Inc()
		return false
	}
	observability.LLMRequests.WithLabelValues("validate", "ok").Inc()
	return true
}

// Respond sends history plus prompt (as the final user turn) under the
// vocabulary's system instruction. When the answer contains a ```json fenced
// block, only its trimmed content is returned.
func (c *Client) Respond(ctx context.Context, prompt string, history []domain.Message) (string, error) {
	ctx, span := tracer.Start(ctx, "llm.respond")
	defer span.End()
	span.SetAttributes(
		attribute.Int("llm.history_len", len(history)),
		attribute.String("llm.vocabulary", c.vocab.Version),
	)

	if c.gen == nil {
		observability.LLMRequests.WithLabelValues("respond", "error").Inc()
		return "", ErrNoAPIKey
	}

	text, err := c.gen.Generate(ctx, c.vocab.Instruction, Turns(history, prompt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.LLMRequests.WithLabelValues("respond", "error").Inc()
		return "", err
	}
	if text == "" {
		span.SetStatus(codes.Error, ErrEmptyResponse.Error())
		observability.LLMRequests.WithLabelValues("respond", "empty").Inc()
		return "", ErrEmptyResponse
	}
	observability.LLMRequests.WithLabelValues("respond", "ok").Inc()
	return ExtractJSON(text), nil
}

// Turns maps stored messages to provider turns (user messages as user, AI
// messages as model) and appends prompt as the final user turn.
func Turns(history []domain.Message, prompt string) []Turn {
	turns := make([]Turn, 0, len(history)+1)
	for _, m := range history {
		role := RoleModel
		if m.Sender == domain.SenderUser {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Text: m.Text})
	}
	return append(turns, Turn{Role: RoleUser, Text: prompt})
}

// ExtractJSON returns the trimmed body of the first ```json block in text,
// or the trimmed text when there is none.
func ExtractJSON(text string) string {
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		if inner := strings.TrimSpace(m[1]); inner != "" {
			return inner
		}
	}
	return strings.TrimSpace(text)
}
