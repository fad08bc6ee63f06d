// Package services – MessageService
//
// This file implements MessageService, which owns the life of one user
// message: it checks the session, records the user message, asks the LLM for
// a reply, lets the dispatcher act on WordPress, and records the assistant
// reply together with the action audit row.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// the session and user identifiers and pagination parameters.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/wp-category-assistant/internal/conversation"
	"github.com/tbourn/wp-category-assistant/internal/dispatch"
	"github.com/tbourn/wp-category-assistant/internal/domain"
	"github.com/tbourn/wp-category-assistant/internal/i18n"
	"github.com/tbourn/wp-category-assistant/internal/repo"
	"github.com/tbourn/wp-category-assistant/internal/session"
	"github.com/tbourn/wp-category-assistant/internal/utils"
	"github.com/tbourn/wp-category-assistant/internal/wordpress"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Sessions is the session surface the pipeline needs.
type Sessions interface {
	Get(id string) (session.Snapshot, error)
	BeginSend(id string) (wordpress.Credentials, func(), error)
}

// Responder produces the model reply for a prompt within a conversation.
type Responder interface {
	Respond(ctx context.Context, prompt string, history []domain.Message) (string, error)
}

// Dispatcher turns a model reply into the assistant's answer.
type Dispatcher interface {
	Dispatch(ctx context.Context, creds wordpress.Credentials, text string) dispatch.Result
}

// MessageService coordinates one message round trip.
type MessageService struct {
	// DB, when set, makes the assistant reply and its audit row one
	// transaction and backs the paginated reads. Log must then use a
	// conversation.GormStore over the same database.
	DB *gorm.DB

	Sessions   Sessions
	Log        *conversation.Log
	LLM        Responder
	Dispatcher Dispatcher
	Loc        *i18n.Localizer

	// Optional guard
	MaxPromptRunes int
}

// Send processes text on behalf of userID within sessionID and returns the
// assistant message. An LLM failure (including an empty reply) is not an
// error: a generic localized message is recorded and returned instead.
func (s *MessageService) Send(ctx context.Context, userID, sessionID, text string) (*domain.Message, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	snap, err := s.Sessions.Get(sessionID)
	if err != nil || snap.UserID != userID {
		return nil, ErrSessionNotFound
	}
	creds, release, err := s.Sessions.BeginSend(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	defer release()

	// Once reserved, a send always ends with one AI message, even when the
	// client goes away. Request values (logger, span) are kept.
	ctx = context.WithoutCancel(ctx)

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(text) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	history, err := s.Log.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Log.Append(ctx, userID, domain.SenderUser, text); err != nil {
		return nil, err
	}

	var res dispatch.Result
	reply, err := s.LLM.Respond(ctx, text, history)
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("session_id", sessionID).Msg("llm response failed")
		res = dispatch.Result{Text: s.Loc.Text(i18n.SendFailed)}
	} else {
		res = s.Dispatcher.Dispatch(ctx, creds, reply)
	}
	span.SetAttributes(
		attribute.String("assistant.action", res.Action),
		attribute.String("assistant.outcome", string(res.Outcome)),
	)

	ai, err := s.Log.Stamp(ctx, userID, domain.SenderAI, res.Text)
	if err != nil {
		return nil, err
	}
	if err := s.persistReply(ctx, userID, &ai, res); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &ai, nil
}

// persistReply stores the assistant message and, for an action, its audit
// row. With a database both go in one transaction.
func (s *MessageService) persistReply(ctx context.Context, conv string, ai *domain.Message, res dispatch.Result) error {
	if s.DB == nil {
		return s.Log.Store().Append(ctx, conv, ai)
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := conversation.NewGormStore(tx).Append(ctx, conv, ai); err != nil {
			return err
		}
		if res.Action == "" {
			return nil
		}
		return repo.CreateActionLog(ctx, tx, &domain.ActionLog{
			ConversationID: conv,
			MessageID:      ai.ID,
			Action:         res.Action,
			CategoryName:   res.CategoryName,
			Outcome:        string(res.Outcome),
		})
	})
}

// Replay returns a previously produced assistant message of userID.
func (s *MessageService) Replay(ctx context.Context, userID string, messageID int64) (*domain.Message, error) {
	if s.DB == nil {
		return nil, repo.ErrNotFound
	}
	return repo.GetMessage(ctx, s.DB, userID, messageID)
}

// ListPage returns a page of the user's conversation and the total count.
func (s *MessageService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	page, pageSize = utils.ClampPage(page, pageSize)
	offset := utils.Offset(page, pageSize)

	if s.DB == nil {
		all, err := s.Log.Load(ctx, userID)
		if err != nil {
			return nil, 0, err
		}
		total := int64(len(all))
		if offset >= len(all) {
			return []domain.Message{}, total, nil
		}
		end := min(offset+pageSize, len(all))
		return all[offset:end], total, nil
	}

	total, err := repo.CountMessages(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}
	items, err := repo.ListMessagesPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Export returns the whole conversation in its JSON wire form.
func (s *MessageService) Export(ctx context.Context, userID string) ([]byte, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Export", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	msgs, err := s.Log.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return conversation.Encode(msgs)
}
