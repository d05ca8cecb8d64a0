package content

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChatRendersPhaseHeader(t *testing.T) {
	raw := `{"type":"chat","content":{"message":"**Phase 1:** Build habits"}}`

	parsed := Parse(raw)
	require.Equal(t, KindChat, parsed.Kind)
	require.NotNil(t, parsed.Chat)
	assert.Nil(t, parsed.Recommendations)
	assert.Nil(t, parsed.Error)

	assert.Contains(t, parsed.Chat.HTML, "<strong>Phase 1:</strong><br>Build habits")
	assert.NotContains(t, parsed.Chat.HTML, "*")
}

func TestParseDefaultsToChat(t *testing.T) {
	parsed := Parse(`{"content":"hello there"}`)
	require.Equal(t, KindChat, parsed.Kind)
	assert.Equal(t, "hello there", parsed.Chat.Message)

	parsed = Parse(`{"response":"top level"}`)
	require.Equal(t, KindChat, parsed.Kind)
	assert.Equal(t, "top level", parsed.Chat.Message)
}

func TestParseInvalidInputsDegradeToError(t *testing.T) {
	inputs := []string{
		"",
		"plain words",
		"{",
		"{not json}",
		`{"type":"chat"}`,
		`{"type":"recommendations"}`,
		`{"type":"recommendations","goal_plan":{"candidates":[{"content":{"parts":[{"text":"{broken"}]}}]}}`,
		"[1,2,3]",
		"   {\"type\": 5",
		"\x00\xff",
	}
	for _, in := range inputs {
		parsed := Parse(in)
		assert.Equal(t, KindError, parsed.Kind, "input %q", in)
		require.NotNil(t, parsed.Error, "input %q", in)
		assert.True(t, strings.HasPrefix(parsed.Error.Error, "Invalid response format: "), parsed.Error.Error)
		assert.Nil(t, parsed.Chat)
		assert.Nil(t, parsed.Recommendations)
	}
}

func TestParseRecommendationsSingleAndDoubleEncodedMatch(t *testing.T) {
	goalPlan := map[string]any{
		"goal":           "muscle gain",
		"daily_calories": 2800.0,
		"phases":         []any{"Phase 1: adapt", "Phase 2: load"},
	}
	meals := map[string]any{"meals": []any{map[string]any{"name": "Oats"}, map[string]any{"name": "Chicken rice"}}}

	single, err := json.Marshal(map[string]any{
		"type":                 "recommendations",
		"user_data":            map[string]any{"age": 30.0, "gender": "male"},
		"goal_plan":            goalPlan,
		"meal_recommendations": meals,
	})
	require.NoError(t, err)

	double, err := json.Marshal(map[string]any{
		"type":                 "recommendations",
		"input_data":           providerEnvelope(t, map[string]any{"age": 30.0, "gender": "male"}),
		"goal_plan":            providerEnvelope(t, goalPlan),
		"meal_recommendations": providerEnvelope(t, meals),
	})
	require.NoError(t, err)

	a := Parse(string(single))
	b := Parse(string(double))
	require.Equal(t, KindRecommendations, a.Kind)
	require.Equal(t, KindRecommendations, b.Kind)
	assert.Equal(t, a.Recommendations, b.Recommendations)
	assert.Nil(t, a.Recommendations.ExerciseRecommendations)
}

func TestParseRecommendationsUnwrapsOneLevelOnly(t *testing.T) {
	inner := providerEnvelope(t, map[string]any{"goal": "x"})
	outer := providerEnvelope(t, inner)
	raw, err := json.Marshal(map[string]any{"type": "recommendations", "goal_plan": outer})
	require.NoError(t, err)

	parsed := Parse(string(raw))
	require.Equal(t, KindRecommendations, parsed.Kind)
	// The second envelope is data, not a wrapper.
	_, stillWrapped := envelopeText(parsed.Recommendations.GoalPlan)
	assert.True(t, stillWrapped)
}

func TestParseRecommendationsCodeFence(t *testing.T) {
	env := map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": "```json\n{\"goal\":\"fat loss\"}\n```"}}},
		}},
	}
	raw, err := json.Marshal(map[string]any{"type": "recommendations", "content": map[string]any{"goal_plan": env}})
	require.NoError(t, err)

	parsed := Parse(string(raw))
	require.Equal(t, KindRecommendations, parsed.Kind)
	assert.Equal(t, "fat loss", Field(parsed.Recommendations.GoalPlan, "goal"))
}

func TestForMessage(t *testing.T) {
	parsed := ForMessage("user", "I want **strength**")
	require.Equal(t, KindChat, parsed.Kind)
	assert.Equal(t, "I want <strong>strength</strong>", parsed.Chat.HTML)

	parsed = ForMessage("assistant", WrapChat("plain answer"))
	require.Equal(t, KindChat, parsed.Kind)
	assert.Equal(t, "plain answer", parsed.Chat.Message)
}

func providerEnvelope(t *testing.T, v any) map[string]any {
	t.Helper()
	text, err := json.Marshal(v)
	require.NoError(t, err)
	return map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{"parts": []any{map[string]any{"text": string(text)}}},
		}},
	}
}
