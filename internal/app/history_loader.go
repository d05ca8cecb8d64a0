package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"healthhub/internal/model"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

type HistoryAPI interface {
	GetHistory(ctx context.Context, sessionID string) ([]map[string]any, error)
}

// HistoryCache is satisfied by cache.HistoryCache.
type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, sessionID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, sessionID string) error
	ClearSession(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

type HistoryLoader struct {
	api   HistoryAPI
	cache HistoryCache
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewHistoryLoader accepts a nil cache.
func NewHistoryLoader(api HistoryAPI, cache HistoryCache, log logrus.FieldLogger) *HistoryLoader {
	return &HistoryLoader{api: api, cache: cache, log: log, now: time.Now}
}

// Load returns the ordered, normalized history of a session. On failure it
// returns an empty list together with the error.
func (l *HistoryLoader) Load(ctx context.Context, sessionID string) ([]model.Message, error) {
	if sessionID == "" {
		return []model.Message{}, ErrNoSession
	}

	if l.cache != nil {
		dirty, err := l.cache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := l.cache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	records, err := l.api.GetHistory(ctx, sessionID)
	if err != nil {
		return []model.Message{}, fmt.Errorf("load history: %w", err)
	}
	messages := NormalizeRecords(records, sessionID, l.now())

	if l.cache != nil {
		if dirty, dirtyErr := l.cache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			if err := l.cache.SetHistory(ctx, sessionID, messages); err != nil {
				l.log.WithError(err).WithField("session_id", sessionID).Warn("cache history failed")
			}
		}
	}
	return messages, nil
}

// NormalizeRecords maps heterogeneous history records onto Message. Records
// without an id get a synthetic one that is unique within the call.
func NormalizeRecords(records []map[string]any, sessionID string, now time.Time) []model.Message {
	messages := make([]model.Message, 0, len(records))
	for i, rec := range records {
		msg := model.Message{
			SessionID:      firstString(rec, "session_id", "sessionId"),
			Role:           normalizeRole(firstString(rec, "role", "sender", "author")),
			Timestamp:      normalizeTimestamp(firstValue(rec, "timestamp", "created_at", "createdAt"), now),
			MessageID:      firstString(rec, "message_id", "messageId", "id"),
			DeliveryStatus: model.DeliverySent,
		}
		if msg.SessionID == "" {
			msg.SessionID = sessionID
		}
		if msg.MessageID == "" {
			msg.MessageID = syntheticID(now, i)
		}
		msg.Content = contentString(firstValue(rec, "content", "message", "text"))
		if msg.Role == model.RoleAssistant {
			msg.Content = assistantText(msg.Content)
		}
		messages = append(messages, msg)
	}
	return messages
}

const syntheticPrefix = "msg-"

// syntheticID is "msg-<unix millis>-<index>-<random>".
func syntheticID(now time.Time, index int) string {
	return fmt.Sprintf("%s%d-%d-%s", syntheticPrefix, now.UnixMilli(), index, uuid.NewString()[:8])
}

func isSyntheticID(id string) bool {
	return strings.HasPrefix(id, syntheticPrefix)
}

func firstValue(rec map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(rec map[string]any, keys ...string) string {
	switch v := firstValue(rec, keys...).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func normalizeRole(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user", "human":
		return model.RoleUser
	default:
		return model.RoleAssistant
	}
}

func contentString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// normalizeTimestamp renders ISO-8601. Numbers are unix seconds, or millis
// when too large to be seconds.
func normalizeTimestamp(v any, now time.Time) string {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) != "" {
			return t
		}
	case float64:
		if t > 1e12 {
			return time.UnixMilli(int64(t)).UTC().Format(timestampLayout)
		}
		sec, frac := math.Modf(t)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC().Format(timestampLayout)
	}
	return now.UTC().Format(timestampLayout)
}
