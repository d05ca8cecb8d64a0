package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"healthhub/internal/content"
	"healthhub/internal/model"
	"healthhub/internal/remote"
)

type ChatMode string

const (
	ChatCompact ChatMode = "compact"
	ChatFull    ChatMode = "full"
)

type Capabilities struct {
	DeleteMessages bool `json:"delete_messages"`
	DeleteSession  bool `json:"delete_session"`
	Retry          bool `json:"retry"`
}

// ChatOptions configures one chat view. The floating widget and the chat
// page are the same service with different options.
type ChatOptions struct {
	Mode         ChatMode
	Capabilities Capabilities
	ReplyDelay   time.Duration
	HistoryLimit int
}

func CompactChatOptions(replyDelay time.Duration, historyLimit int) ChatOptions {
	return ChatOptions{
		Mode:         ChatCompact,
		Capabilities: Capabilities{Retry: true},
		ReplyDelay:   replyDelay,
		HistoryLimit: historyLimit,
	}
}

func FullChatOptions(replyDelay time.Duration, historyLimit int) ChatOptions {
	return ChatOptions{
		Mode:         ChatFull,
		Capabilities: Capabilities{DeleteMessages: true, DeleteSession: true, Retry: true},
		ReplyDelay:   replyDelay,
		HistoryLimit: historyLimit,
	}
}

type ChatAPI interface {
	SendMessage(ctx context.Context, sessionID, content string) (json.RawMessage, error)
	DeleteMessage(ctx context.Context, sessionID, messageID string) error
}

type ChatMessageView struct {
	model.Message
	Parsed content.Parsed  `json:"parsed"`
	Cards  []content.Card `json:"cards,omitempty"`
}

type ChatSnapshot struct {
	SessionID    string            `json:"session_id"`
	Mode         ChatMode          `json:"mode"`
	Capabilities Capabilities      `json:"capabilities"`
	Messages     []ChatMessageView `json:"messages"`
	IsLoading    bool              `json:"is_loading"`
}

type ChatService struct {
	opts          ChatOptions
	sessions      *SessionStore
	history       *HistoryLoader
	api           ChatAPI
	cache         HistoryCache
	conversations *Conversations
	alerts        *Alerts
	log           logrus.FieldLogger
	now           func() time.Time
}

func NewChatService(
	opts ChatOptions,
	sessions *SessionStore,
	history *HistoryLoader,
	api ChatAPI,
	cache HistoryCache,
	conversations *Conversations,
	alerts *Alerts,
	log logrus.FieldLogger,
) *ChatService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 200
	}
	return &ChatService{
		opts:          opts,
		sessions:      sessions,
		history:       history,
		api:           api,
		cache:         cache,
		conversations: conversations,
		alerts:        alerts,
		log:           log.WithField("chat_mode", string(opts.Mode)),
		now:           time.Now,
	}
}

func (s *ChatService) Options() ChatOptions {
	return s.opts
}

// StartSession establishes a session from the intake form and seeds the
// conversation with the first assistant message.
func (s *ChatService) StartSession(ctx context.Context, userID uint, form model.IntakeForm) (*ChatSnapshot, error) {
	previous, err := s.sessions.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	session, first, err := s.sessions.Establish(ctx, userID, form)
	if err != nil {
		return nil, err
	}
	if previous != nil && previous.SessionID != session.SessionID {
		s.dropHistory(ctx, previous.SessionID)
	}
	s.conversations.For(userID).Reset(session.SessionID, []model.Message{*first})
	s.markDirty(ctx, session.SessionID)
	return s.Snapshot(userID), nil
}

// CheckSession validates the stored session. An invalid session also resets
// the conversation.
func (s *ChatService) CheckSession(ctx context.Context, userID uint) (*model.HealthSession, error) {
	current, err := s.sessions.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		s.conversations.For(userID).Reset("", nil)
		return &model.HealthSession{}, nil
	}

	valid, err := s.sessions.Validate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !valid {
		s.conversations.For(userID).Reset("", nil)
		s.dropHistory(ctx, current.SessionID)
		return &model.HealthSession{SessionID: current.SessionID, IsValid: false}, nil
	}
	return current, nil
}

func (s *ChatService) EndSession(ctx context.Context, userID uint) error {
	if !s.opts.Capabilities.DeleteSession {
		return ErrCapability
	}
	id, err := s.sessions.Delete(ctx, userID)
	if err != nil {
		return err
	}
	s.conversations.For(userID).Reset("", nil)
	s.dropHistory(ctx, id)
	return nil
}

// LoadHistory replaces the conversation with the remote history. On failure
// the conversation is left empty and the error is surfaced.
func (s *ChatService) LoadHistory(ctx context.Context, userID uint) (*ChatSnapshot, error) {
	current, err := s.sessions.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoSession
	}

	conv := s.conversations.For(userID)
	messages, err := s.history.Load(ctx, current.SessionID)
	if err != nil {
		conv.Reset(current.SessionID, nil)
		s.alerts.Raise(ctx, userID, err)
		return s.Snapshot(userID), err
	}
	if len(messages) > s.opts.HistoryLimit {
		messages = messages[len(messages)-s.opts.HistoryLimit:]
	}
	conv.Reset(current.SessionID, messages)
	return s.Snapshot(userID), nil
}

// Send appends the user message at once, then appends the assistant reply
// once the remote answers. A failed call marks the user message failed.
func (s *ChatService) Send(ctx context.Context, userID uint, text string) (*ChatSnapshot, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageEmpty
	}
	current, err := s.sessions.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrNoSession
	}

	conv := s.conversations.For(userID)
	if conv.SessionID() != current.SessionID {
		conv.Reset(current.SessionID, nil)
	}
	now := s.now()
	msg := model.Message{
		SessionID:      current.SessionID,
		Role:           model.RoleUser,
		Content:        text,
		Timestamp:      now.UTC().Format(timestampLayout),
		MessageID:      syntheticID(now, 0),
		DeliveryStatus: model.DeliveryPending,
	}
	conv.Append(msg)
	s.markDirty(ctx, current.SessionID)

	err = s.deliver(ctx, userID, conv, msg)
	return s.Snapshot(userID), err
}

// Retry re-sends a failed user message in place.
func (s *ChatService) Retry(ctx context.Context, userID uint, messageID string) (*ChatSnapshot, error) {
	if !s.opts.Capabilities.Retry {
		return nil, ErrCapability
	}
	conv := s.conversations.For(userID)
	msg, ok := conv.Find(messageID)
	if !ok {
		return nil, ErrMessageNotFound
	}
	if msg.Role != model.RoleUser || msg.DeliveryStatus != model.DeliveryFailed {
		return nil, ErrNotRetryable
	}
	conv.SetStatus(messageID, model.DeliveryPending)

	err := s.deliver(ctx, userID, conv, msg)
	return s.Snapshot(userID), err
}

func (s *ChatService) deliver(ctx context.Context, userID uint, conv *Conversation, msg model.Message) error {
	conv.begin()
	defer conv.end()

	reply, err := s.api.SendMessage(ctx, msg.SessionID, msg.Content)
	if err == nil {
		err = s.wait(ctx)
	}
	if err != nil {
		conv.SetStatus(msg.MessageID, model.DeliveryFailed)
		s.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "session_id": msg.SessionID}).Warn("send message failed")
		if status := remote.StatusOf(err); status == http.StatusUnauthorized || status == http.StatusNotFound || status == http.StatusGone {
			err = fmt.Errorf("%w: %w", ErrSessionInvalid, err)
		}
		s.alerts.Raise(ctx, userID, err)
		return err
	}

	conv.SetStatus(msg.MessageID, model.DeliverySent)
	now := s.now()
	conv.Append(model.Message{
		SessionID:      msg.SessionID,
		Role:           model.RoleAssistant,
		Content:        assistantContent(reply),
		Timestamp:      now.UTC().Format(timestampLayout),
		MessageID:      syntheticID(now, 1),
		DeliveryStatus: model.DeliverySent,
	})
	return nil
}

func (s *ChatService) wait(ctx context.Context) error {
	if s.opts.ReplyDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.opts.ReplyDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DeleteMessage removes a record after the remote confirms. Records that never
// reached the remote are removed locally. Records sent from here carry a local
// id, which is resolved against the remote history first.
func (s *ChatService) DeleteMessage(ctx context.Context, userID uint, messageID string) (*ChatSnapshot, error) {
	if !s.opts.Capabilities.DeleteMessages {
		return nil, ErrCapability
	}
	conv := s.conversations.For(userID)
	msg, ok := conv.Find(messageID)
	if !ok {
		return nil, ErrMessageNotFound
	}

	if msg.DeliveryStatus != model.DeliveryFailed {
		remoteID, err := s.remoteMessageID(ctx, msg)
		if err != nil {
			return nil, err
		}
		if err := s.api.DeleteMessage(ctx, msg.SessionID, remoteID); err != nil {
			s.alerts.Raise(ctx, userID, fmt.Errorf("delete message: %w", err))
			return nil, err
		}
	}
	conv.Remove(messageID)
	s.markDirty(ctx, msg.SessionID)
	return s.Snapshot(userID), nil
}

// remoteMessageID returns the id the remote stored msg under. A local id is
// matched to the latest remote record with the same role and content.
func (s *ChatService) remoteMessageID(ctx context.Context, msg model.Message) (string, error) {
	if !isSyntheticID(msg.MessageID) {
		return msg.MessageID, nil
	}
	records, err := s.history.Load(ctx, msg.SessionID)
	if err != nil {
		return "", err
	}
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		if rec.Role == msg.Role && rec.Content == msg.Content && !isSyntheticID(rec.MessageID) {
			return rec.MessageID, nil
		}
	}
	return "", ErrMessageNotDeletable
}

func (s *ChatService) Snapshot(userID uint) *ChatSnapshot {
	sessionID, messages, loading := s.conversations.For(userID).Snapshot()
	views := make([]ChatMessageView, 0, len(messages))
	for _, m := range messages {
		parsed := content.ForMessage(m.Role, m.Content)
		view := ChatMessageView{Message: m, Parsed: parsed}
		if parsed.Kind == content.KindRecommendations && s.opts.Mode == ChatFull {
			view.Cards = content.Cards(parsed.Recommendations)
		}
		views = append(views, view)
	}
	return &ChatSnapshot{
		SessionID:    sessionID,
		Mode:         s.opts.Mode,
		Capabilities: s.opts.Capabilities,
		Messages:     views,
		IsLoading:    loading,
	}
}

func (s *ChatService) markDirty(ctx context.Context, sessionID string) {
	if s.cache == nil || sessionID == "" {
		return
	}
	log := s.log.WithField("session_id", sessionID)
	if err := s.cache.MarkDirty(ctx, sessionID); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("mark history dirty failed")
	}
	if err := s.cache.DeleteHistory(ctx, sessionID); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Warn("delete cached history failed")
	}
}

func (s *ChatService) dropHistory(ctx context.Context, sessionID string) {
	if s.cache == nil || sessionID == "" {
		return
	}
	if err := s.cache.ClearSession(ctx, sessionID); err != nil && !errors.Is(err, context.Canceled) {
		s.log.WithError(err).WithField("session_id", sessionID).Warn("clear session cache failed")
	}
}
