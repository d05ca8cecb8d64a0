package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthhub/internal/repository"
)

func newOnboarding(env *testEnv) (*OnboardingService, *ProfileService) {
	profiles := newProfileService(env, &fakeClock{t: time.Now()})
	return NewOnboardingService(env.storage, profiles), profiles
}

func TestOnboardingStepValidation(t *testing.T) {
	env := newTestEnv(t)
	svc, _ := newOnboarding(env)
	ctx := context.Background()

	_, err := svc.SaveStep(ctx, 1, StepBasics, json.RawMessage(`{"gender":"robot","age":9,"height_cm":170,"weight_kg":70}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be one of male female other", verr.Fields["gender"])
	assert.Equal(t, "must be at least 13", verr.Fields["age"])
	assert.NotContains(t, verr.Fields, "height_cm")

	_, err = svc.SaveStep(ctx, 1, StepBasics, json.RawMessage(`not json`))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.SaveStep(ctx, 1, "goals", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownStep)

	_, err = svc.SaveStep(ctx, 1, StepPreferences, json.RawMessage(`{"dietary_preference":"none","workout_days":["mon","mon"]}`))
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "workout_days")

	draft, err := svc.Draft(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, draft.Basics)
	assert.Equal(t, StepBasics, draft.NextStep)
}

func TestOnboardingComplete(t *testing.T) {
	env := newTestEnv(t)
	svc, profiles := newOnboarding(env)
	ctx := context.Background()

	draft, err := svc.SaveStep(ctx, 1, StepBasics, json.RawMessage(`{"gender":"female","age":34,"height_cm":168,"weight_kg":61.5}`))
	require.NoError(t, err)
	assert.Equal(t, StepActivity, draft.NextStep)

	_, err = svc.Complete(ctx, 1, "Ana")
	require.ErrorIs(t, err, ErrOnboardingIncomplete)

	_, err = svc.SaveStep(ctx, 1, StepActivity, json.RawMessage(`{"activity_level":"moderate","fitness_goal":"maintain"}`))
	require.NoError(t, err)
	draft, err = svc.SaveStep(ctx, 1, StepPreferences, json.RawMessage(`{"dietary_preference":"vegan","workout_days":["mon","thu"]}`))
	require.NoError(t, err)
	assert.Empty(t, draft.NextStep)

	profile, err := svc.Complete(ctx, 1, "Ana")
	require.NoError(t, err)
	assert.Equal(t, "female", profile.Gender)
	assert.Equal(t, []string{"mon", "thu"}, profile.WorkoutDays)
	require.Len(t, env.api.updated, 1)
	assert.Equal(t, 1, env.api.updated[0].UserID)

	done, err := profiles.Completed(ctx, 1)
	require.NoError(t, err)
	assert.True(t, done)

	_, ok, err := env.storage.Get(ctx, 1, repository.KeyOnboardingDraft)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOnboardingCompleteFailureKeepsDraft(t *testing.T) {
	env := newTestEnv(t)
	svc, profiles := newOnboarding(env)
	ctx := context.Background()

	for step, body := range map[string]string{
		StepBasics:      `{"gender":"male","age":40,"height_cm":180,"weight_kg":82}`,
		StepActivity:    `{"activity_level":"light","fitness_goal":"lose_weight"}`,
		StepPreferences: `{"dietary_preference":"none","workout_days":["sat"]}`,
	} {
		_, err := svc.SaveStep(ctx, 1, step, json.RawMessage(body))
		require.NoError(t, err)
	}

	env.api.profileErr = errNetwork
	_, err := svc.Complete(ctx, 1, "Ben")
	require.ErrorIs(t, err, errNetwork)

	done, err := profiles.Completed(ctx, 1)
	require.NoError(t, err)
	assert.False(t, done)

	draft, err := svc.Draft(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, draft.NextStep)
}
