package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"healthhub/internal/model"
	"healthhub/internal/paging"
)

type MeasurementAPI interface {
	ListMeasurements(ctx context.Context, req paging.Request) (paging.Page[model.Measurement], error)
	RecordMeasurement(ctx context.Context, m model.Measurement) (*model.Measurement, error)
}

type MeasurementService struct {
	api      MeasurementAPI
	feeds    *FeedRegistry[model.Measurement]
	validate *validator.Validate
	alerts   *Alerts
	now      func() time.Time
}

func NewMeasurementService(api MeasurementAPI, settings FeedSettings, alerts *Alerts) *MeasurementService {
	return &MeasurementService{
		api:      api,
		feeds:    NewFeedRegistry[model.Measurement](settings, alerts),
		validate: newValidator(),
		alerts:   alerts,
		now:      time.Now,
	}
}

func (s *MeasurementService) EvictIdle(cutoff time.Time) int {
	return s.feeds.EvictIdle(cutoff)
}

func (s *MeasurementService) List(ctx context.Context, userID uint, q FeedQuery) (paging.State[model.Measurement], error) {
	if userID == 0 {
		return paging.State[model.Measurement]{}, ErrInvalidInput
	}
	acc := s.feeds.Feed(userID, "measurements", s.api.ListMeasurements)
	return s.feeds.Apply(ctx, acc, q)
}

// Record validates the measurement before anything reaches the network.
func (s *MeasurementService) Record(ctx context.Context, userID uint, input model.MeasurementInput) (*model.Measurement, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if err := validateStruct(s.validate, input); err != nil {
		return nil, err
	}

	measuredAt := s.now().UTC()
	if input.MeasuredAt != nil {
		measuredAt = input.MeasuredAt.UTC()
	}
	recorded, err := s.api.RecordMeasurement(ctx, model.Measurement{
		UserID:     int(userID),
		WeightKg:   input.WeightKg,
		BodyFatPct: input.BodyFatPct,
		WaistCm:    input.WaistCm,
		MeasuredAt: measuredAt,
	})
	if err != nil {
		s.alerts.Raise(ctx, userID, fmt.Errorf("record measurement: %w", err))
		return nil, err
	}
	if acc, ok := s.feeds.Lookup(userID, "measurements"); ok {
		acc.Append(*recorded)
	}
	return recorded, nil
}
