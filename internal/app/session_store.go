package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"healthhub/internal/content"
	"healthhub/internal/model"
	"healthhub/internal/remote"
	"healthhub/internal/repository"
)

// ClientStorage is the durable per-user key/value store.
type ClientStorage interface {
	Get(ctx context.Context, ownerID uint, key string) (string, bool, error)
	Set(ctx context.Context, ownerID uint, key, value string) error
	Delete(ctx context.Context, ownerID uint, keys ...string) error
}

type SessionAPI interface {
	CreateSession(ctx context.Context, form model.IntakeForm) (*remote.CreatedSession, error)
	ValidateSession(ctx context.Context, sessionID string) (bool, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// SessionStore owns the single health session of each user. Every transition
// is written to durable storage before it is reported.
type SessionStore struct {
	storage ClientStorage
	api     SessionAPI
	alerts  *Alerts
	log     logrus.FieldLogger
	locks   *keyedMutex
	now     func() time.Time
}

func NewSessionStore(storage ClientStorage, api SessionAPI, alerts *Alerts, log logrus.FieldLogger) *SessionStore {
	return &SessionStore{
		storage: storage,
		api:     api,
		alerts:  alerts,
		log:     log,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
}

// Current returns the stored session, or nil when there is none.
func (s *SessionStore) Current(ctx context.Context, userID uint) (*model.HealthSession, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	id, ok, err := s.storage.Get(ctx, userID, repository.KeyHealthSessionID)
	if err != nil {
		return nil, err
	}
	if !ok || id == "" {
		return nil, nil
	}
	return &model.HealthSession{SessionID: id, IsValid: true}, nil
}

// Establish opens a session from the intake form and returns it with the
// first assistant message. A session it replaces is deleted on the remote
// once the new one is stored. On failure the stored state is left unchanged.
func (s *SessionStore) Establish(ctx context.Context, userID uint, form model.IntakeForm) (*model.HealthSession, *model.Message, error) {
	if userID == 0 {
		return nil, nil, ErrInvalidInput
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	previous, _, err := s.storage.Get(ctx, userID, repository.KeyHealthSessionID)
	if err != nil {
		return nil, nil, err
	}

	created, err := s.api.CreateSession(ctx, form)
	if err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("create health session: %w", err))
		return nil, nil, err
	}
	if err := s.storage.Set(ctx, userID, repository.KeyHealthSessionID, created.SessionID); err != nil {
		return nil, nil, err
	}
	log := s.log.WithFields(logrus.Fields{"user_id": userID, "session_id": created.SessionID})
	log.Info("health session established")

	if previous != "" && previous != created.SessionID {
		if err := s.api.DeleteSession(ctx, previous); err != nil {
			log.WithError(err).WithField("previous_session_id", previous).Warn("delete replaced health session failed")
		}
	}

	first := model.Message{
		SessionID:      created.SessionID,
		Role:           model.RoleAssistant,
		Content:        assistantContent(created.Reply),
		Timestamp:      s.now().UTC().Format(timestampLayout),
		MessageID:      syntheticID(s.now(), 0),
		DeliveryStatus: model.DeliverySent,
	}
	return &model.HealthSession{SessionID: created.SessionID, IsValid: true}, &first, nil
}

// Validate checks the stored session with the remote. An invalid or expired
// session is cleared. A transport failure is returned and the stored id is
// kept; nothing is retried.
func (s *SessionStore) Validate(ctx context.Context, userID uint) (bool, error) {
	if userID == 0 {
		return false, ErrInvalidInput
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	id, ok, err := s.storage.Get(ctx, userID, repository.KeyHealthSessionID)
	if err != nil {
		return false, err
	}
	if !ok || id == "" {
		return false, nil
	}

	valid, err := s.api.ValidateSession(ctx, id)
	if err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("validate health session: %w", err))
		return false, err
	}
	if valid {
		return true, nil
	}

	if err := s.storage.Delete(ctx, userID, repository.KeyHealthSessionID); err != nil {
		return false, err
	}
	s.log.WithFields(logrus.Fields{"user_id": userID, "session_id": id}).Info("health session expired")
	s.alerts.Raise(ctx, userID, ErrSessionInvalid)
	return false, nil
}

// Clear forgets the stored session locally.
func (s *SessionStore) Clear(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrInvalidInput
	}
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.storage.Delete(ctx, userID, repository.KeyHealthSessionID)
}

// Delete ends the session remotely and then clears it.
func (s *SessionStore) Delete(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", ErrInvalidInput
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	id, ok, err := s.storage.Get(ctx, userID, repository.KeyHealthSessionID)
	if err != nil {
		return "", err
	}
	if !ok || id == "" {
		return "", ErrNoSession
	}
	if err := s.api.DeleteSession(ctx, id); err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("delete health session: %w", err))
		return "", err
	}
	if err := s.storage.Delete(ctx, userID, repository.KeyHealthSessionID); err != nil {
		return "", err
	}
	return id, nil
}

const emptyReply = "The assistant returned an empty response."

// assistantContent stores assistant payloads as JSON documents. Plain text
// replies are wrapped as chat payloads so they parse like any other.
func assistantContent(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return content.WrapChat(emptyReply)
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return assistantText(text)
	}
	return string(raw)
}

func assistantText(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return content.WrapChat(emptyReply)
	}
	if strings.HasPrefix(trimmed, "{") {
		return trimmed
	}
	return content.WrapChat(text)
}
