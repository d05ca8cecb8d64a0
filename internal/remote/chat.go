package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"healthhub/internal/model"
)

type CreatedSession struct {
	SessionID string
	// Reply is the first assistant payload, exactly as the remote sent it.
	Reply json.RawMessage
}

type createSessionResponse struct {
	SessionID  json.RawMessage `json:"session_id"`
	SessionID2 json.RawMessage `json:"sessionId"`
	ID         json.RawMessage `json:"id"`
	Message    json.RawMessage `json:"message"`
	Response   json.RawMessage `json:"response"`
	Content    json.RawMessage `json:"content"`
}

func (c *Client) CreateSession(ctx context.Context, form model.IntakeForm) (*CreatedSession, error) {
	res, err := do("create session", c.request(ctx).SetBody(form), http.MethodPost, "/health/sessions",
		http.StatusCreated, http.StatusOK)
	if err != nil {
		return nil, err
	}

	var body createSessionResponse
	if err := Decode(res.Body(), &body); err != nil {
		return nil, err
	}
	id := idString(firstRaw(body.SessionID, body.SessionID2, body.ID))
	if id == "" {
		return nil, fmt.Errorf("%w: create session response has no session id", ErrInvalidPayload)
	}
	return &CreatedSession{SessionID: id, Reply: firstRaw(body.Message, body.Response, body.Content)}, nil
}

type validateResponse struct {
	Valid   *bool `json:"valid"`
	IsValid *bool `json:"is_valid"`
}

// ValidateSession asks whether the remote still knows the session. A 401,
// 404 or 410 answer means invalid.
func (c *Client) ValidateSession(ctx context.Context, sessionID string) (bool, error) {
	res, err := do("validate session", c.request(ctx), http.MethodGet, sessionPath(sessionID, "validate"),
		http.StatusOK)
	if err != nil {
		switch StatusOf(err) {
		case http.StatusUnauthorized, http.StatusNotFound, http.StatusGone:
			return false, nil
		}
		return false, err
	}

	var body validateResponse
	if err := Decode(res.Body(), &body); err != nil {
		return false, err
	}
	switch {
	case body.Valid != nil:
		return *body.Valid, nil
	case body.IsValid != nil:
		return *body.IsValid, nil
	default:
		return true, nil
	}
}

// GetHistory returns the raw history records. Their shape varies; callers
// normalize them.
func (c *Client) GetHistory(ctx context.Context, sessionID string) ([]map[string]any, error) {
	res, err := do("get history", c.request(ctx), http.MethodGet, sessionPath(sessionID, "history"),
		http.StatusOK)
	if err != nil {
		return nil, err
	}

	var raw any
	if err := Decode(res.Body(), &raw); err != nil {
		return nil, err
	}
	if obj, ok := raw.(map[string]any); ok {
		for _, key := range []string{"messages", "history", "items"} {
			if list, ok := obj[key]; ok {
				raw = list
				break
			}
		}
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: history is not a list", ErrInvalidPayload)
	}
	records := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

type sendMessageResponse struct {
	Response json.RawMessage `json:"response"`
	Message  json.RawMessage `json:"message"`
	Content  json.RawMessage `json:"content"`
}

// SendMessage posts one user message and returns the assistant payload.
func (c *Client) SendMessage(ctx context.Context, sessionID, content string) (json.RawMessage, error) {
	res, err := do("send message", c.request(ctx).SetBody(sendMessageRequest{Message: content}),
		http.MethodPost, sessionPath(sessionID, "messages"), http.StatusOK, http.StatusCreated)
	if err != nil {
		return nil, err
	}

	var body sendMessageResponse
	if err := Decode(res.Body(), &body); err != nil {
		return nil, err
	}
	reply := firstRaw(body.Response, body.Message, body.Content)
	if reply == nil {
		// The whole body is the assistant payload.
		reply = json.RawMessage(unwrapEnvelope(res.Body()))
	}
	return reply, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := do("delete session", c.request(ctx), http.MethodDelete, sessionPath(sessionID),
		http.StatusOK, http.StatusNoContent)
	return err
}

func (c *Client) DeleteMessage(ctx context.Context, sessionID, messageID string) error {
	_, err := do("delete message", c.request(ctx), http.MethodDelete, sessionPath(sessionID, "messages", messageID),
		http.StatusOK, http.StatusNoContent)
	return err
}

func sessionPath(sessionID string, rest ...string) string {
	parts := []string{"/health/sessions", url.PathEscape(sessionID)}
	for _, r := range rest {
		parts = append(parts, url.PathEscape(r))
	}
	return strings.Join(parts, "/")
}

// idString accepts ids sent either as JSON strings or numbers.
func idString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstRaw(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}
