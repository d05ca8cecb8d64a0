package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"healthhub/internal/model"
	"healthhub/internal/remote"
)

// Notifier delivers a user-visible notification. The rabbitmq publisher and
// DirectNotifier implement it.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	ListUnread(ctx context.Context, userID uint, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, userID uint, id string) (bool, error)
}

// DirectNotifier writes notifications straight to the store when no broker is
// configured.
type DirectNotifier struct {
	store NotificationStore
}

func NewDirectNotifier(store NotificationStore) *DirectNotifier {
	return &DirectNotifier{store: store}
}

func (n *DirectNotifier) Notify(ctx context.Context, notification model.Notification) error {
	return n.store.Create(ctx, &notification)
}

// Alerts turns surfaced errors into notifications and log lines.
type Alerts struct {
	notifier Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewAlerts(notifier Notifier, log logrus.FieldLogger) *Alerts {
	return &Alerts{notifier: notifier, log: log, now: time.Now}
}

// Raise reports err to the user. The kind is derived from the error unless
// one is given.
func (a *Alerts) Raise(ctx context.Context, userID uint, err error, kind ...string) {
	if a == nil || err == nil {
		return
	}
	k := classify(err)
	if len(kind) > 0 {
		k = kind[0]
	}
	a.send(ctx, userID, model.NotificationError, k, err.Error())
}

func (a *Alerts) Info(ctx context.Context, userID uint, kind, message string) {
	if a == nil {
		return
	}
	a.send(ctx, userID, model.NotificationInfo, kind, message)
}

func (a *Alerts) send(ctx context.Context, userID uint, level, kind, message string) {
	entry := a.log.WithFields(logrus.Fields{"user_id": userID, "kind": kind})
	if level == model.NotificationError {
		entry.Warn(message)
	} else {
		entry.Info(message)
	}
	if a.notifier == nil {
		return
	}

	n := model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Level:     level,
		Kind:      kind,
		Message:   message,
		CreatedAt: a.now(),
	}
	// The request may already be canceled; the notification should still land.
	if err := a.notifier.Notify(context.WithoutCancel(ctx), n); err != nil {
		entry.WithError(err).Error("deliver notification failed")
	}
}

func classify(err error) string {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr), errors.Is(err, ErrInvalidInput):
		return model.KindValidation
	case errors.Is(err, ErrSessionInvalid), errors.Is(err, ErrNoSession):
		return model.KindSession
	case errors.Is(err, remote.ErrInvalidPayload):
		return model.KindParse
	}
	switch remote.StatusOf(err) {
	case http.StatusUnauthorized, http.StatusGone:
		return model.KindSession
	}
	return model.KindNetwork
}

type NotificationFeed struct {
	Items               []model.Notification `json:"items"`
	PollIntervalSeconds int                  `json:"poll_interval_seconds"`
}

type NotificationService struct {
	store        NotificationStore
	pollInterval time.Duration
}

func NewNotificationService(store NotificationStore, pollInterval time.Duration) *NotificationService {
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	return &NotificationService{store: store, pollInterval: pollInterval}
}

func (s *NotificationService) Unread(ctx context.Context, userID uint) (*NotificationFeed, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	items, err := s.store.ListUnread(ctx, userID, 50)
	if err != nil {
		return nil, err
	}
	return &NotificationFeed{Items: items, PollIntervalSeconds: int(s.pollInterval / time.Second)}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID uint, id string) error {
	if userID == 0 || id == "" {
		return ErrInvalidInput
	}
	ok, err := s.store.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}
