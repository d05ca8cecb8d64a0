package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthhub/internal/model"
)

func TestRecordMeasurementValidatesFirst(t *testing.T) {
	env := newTestEnv(t)
	svc := NewMeasurementService(env.api, FeedSettings{DefaultPageSize: 5, MaxPageSize: 20}, env.alerts)
	ctx := context.Background()

	_, err := svc.Record(ctx, 1, model.MeasurementInput{WeightKg: 0, BodyFatPct: 80})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["weight_kg"])
	assert.Equal(t, "must be at most 70", verr.Fields["body_fat_pct"])
	assert.Empty(t, env.api.measurements, "invalid input never reaches the network")
}

func TestRecordMeasurementAppendsToFeed(t *testing.T) {
	env := newTestEnv(t)
	svc := NewMeasurementService(env.api, FeedSettings{DefaultPageSize: 5, MaxPageSize: 20}, env.alerts)
	fixed := time.Date(2026, 5, 2, 7, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	st, err := svc.List(ctx, 1, FeedQuery{})
	require.NoError(t, err)
	assert.Empty(t, st.Items)

	m, err := svc.Record(ctx, 1, model.MeasurementInput{WeightKg: 72.4, BodyFatPct: 18})
	require.NoError(t, err)
	assert.Equal(t, fixed, m.MeasuredAt)
	assert.Zero(t, m.WaistCm)

	acc, ok := svc.feeds.Lookup(1, "measurements")
	require.True(t, ok)
	state := acc.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, 1, state.TotalCount)

	at := fixed.Add(-24 * time.Hour)
	m, err = svc.Record(ctx, 1, model.MeasurementInput{WeightKg: 72, WaistCm: 81, MeasuredAt: &at})
	require.NoError(t, err)
	assert.Equal(t, at, m.MeasuredAt)
}
