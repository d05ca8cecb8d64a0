// Package content turns raw chat message payloads into a tagged variant that
// the chat views render: plain chat text, a structured recommendation plan, or
// an inline parse error.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindChat            Kind = "chat"
	KindRecommendations Kind = "recommendations"
	KindError           Kind = "error"
)

type Chat struct {
	Message string `json:"message"`
	HTML    string `json:"html"`
}

// Recommendations holds the four plan sections after provider envelopes have
// been unwrapped. Any section may be nil.
type Recommendations struct {
	UserData                any `json:"user_data"`
	GoalPlan                any `json:"goal_plan"`
	MealRecommendations     any `json:"meal_recommendations"`
	ExerciseRecommendations any `json:"exercise_recommendations"`
}

type Failure struct {
	Error string `json:"error"`
}

// Parsed is exactly one of Chat, Recommendations or Error, selected by Kind.
type Parsed struct {
	Kind            Kind             `json:"type"`
	Chat            *Chat            `json:"chat,omitempty"`
	Recommendations *Recommendations `json:"recommendations,omitempty"`
	Error           *Failure         `json:"error,omitempty"`
}

var (
	errNotObject      = errors.New("content is not a JSON object")
	errMissingMessage = errors.New("chat payload has no message")
	errNoSections     = errors.New("recommendations payload has no sections")
)

// Parse decodes an assistant payload. It never panics; anything that is not a
// well-formed JSON object of a known shape yields an Error variant.
func Parse(raw string) Parsed {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return failed(errNotObject)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return failed(err)
	}

	kind, _ := payload["type"].(string)
	if kind == "" {
		kind = string(KindChat)
	}

	if kind == string(KindRecommendations) {
		rec, err := parseRecommendations(payload)
		if err != nil {
			return failed(err)
		}
		return Parsed{Kind: KindRecommendations, Recommendations: rec}
	}

	message, ok := chatMessage(payload)
	if !ok {
		return failed(errMissingMessage)
	}
	return Parsed{Kind: KindChat, Chat: &Chat{Message: message, HTML: RenderChat(message)}}
}

// ForMessage renders user-authored records as plain chat and parses
// everything else.
func ForMessage(role, raw string) Parsed {
	if role == "user" {
		return Parsed{Kind: KindChat, Chat: &Chat{Message: raw, HTML: RenderChat(raw)}}
	}
	return Parse(raw)
}

// WrapChat encodes plain assistant text in the chat payload shape so that
// stored assistant records are always parseable.
func WrapChat(text string) string {
	b, _ := json.Marshal(map[string]any{
		"type":    string(KindChat),
		"content": map[string]string{"message": text},
	})
	return string(b)
}

func failed(err error) Parsed {
	return Parsed{Kind: KindError, Error: &Failure{Error: fmt.Sprintf("Invalid response format: %s", err.Error())}}
}

func chatMessage(payload map[string]any) (string, bool) {
	switch c := payload["content"].(type) {
	case string:
		return c, true
	case map[string]any:
		for _, key := range []string{"message", "text", "response"} {
			if s, ok := c[key].(string); ok {
				return s, true
			}
		}
	}
	for _, key := range []string{"message", "response"} {
		if s, ok := payload[key].(string); ok {
			return s, true
		}
	}
	return "", false
}

func parseRecommendations(payload map[string]any) (*Recommendations, error) {
	source := payload
	if inner, ok := payload["content"].(map[string]any); ok && hasAnySection(inner) {
		source = inner
	} else if inner, ok := payload["data"].(map[string]any); ok && hasAnySection(inner) {
		source = inner
	}
	if !hasAnySection(source) {
		return nil, errNoSections
	}

	userData := source["user_data"]
	if userData == nil {
		userData = source["input_data"]
	}

	rec := &Recommendations{}
	var err error
	if rec.UserData, err = unwrapSection(userData); err != nil {
		return nil, fmt.Errorf("user_data: %w", err)
	}
	if rec.GoalPlan, err = unwrapSection(source["goal_plan"]); err != nil {
		return nil, fmt.Errorf("goal_plan: %w", err)
	}
	if rec.MealRecommendations, err = unwrapSection(source["meal_recommendations"]); err != nil {
		return nil, fmt.Errorf("meal_recommendations: %w", err)
	}
	if rec.ExerciseRecommendations, err = unwrapSection(source["exercise_recommendations"]); err != nil {
		return nil, fmt.Errorf("exercise_recommendations: %w", err)
	}
	return rec, nil
}

func hasAnySection(m map[string]any) bool {
	for _, key := range []string{"user_data", "input_data", "goal_plan", "meal_recommendations", "exercise_recommendations"} {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

// unwrapSection removes at most one provider envelope
// (candidates[0].content.parts[0].text holding JSON) and returns the
// structured value. Values without an envelope pass through unchanged.
func unwrapSection(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if text, ok := envelopeText(v); ok {
		return decodeEmbedded(text)
	}
	if s, ok := v.(string); ok {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			return decodeEmbedded(trimmed)
		}
	}
	return v, nil
}

func envelopeText(v any) (string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	candidates, ok := obj["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return "", false
	}
	first, ok := candidates[0].(map[string]any)
	if !ok {
		return "", false
	}
	inner, ok := first["content"].(map[string]any)
	if !ok {
		return "", false
	}
	parts, ok := inner["parts"].([]any)
	if !ok || len(parts) == 0 {
		return "", false
	}
	part, ok := parts[0].(map[string]any)
	if !ok {
		return "", false
	}
	text, ok := part["text"].(string)
	return text, ok
}

func decodeEmbedded(text string) (any, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	var out any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// stripCodeFence drops a ```json ... ``` wrapper that providers often add
// around generated JSON.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
