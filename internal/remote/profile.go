package remote

import (
	"context"
	"net/http"

	"healthhub/internal/model"
)

func (c *Client) GetProfile(ctx context.Context) (*model.Profile, error) {
	res, err := do("get profile", c.request(ctx), http.MethodGet, "/profile", http.StatusOK)
	if err != nil {
		return nil, err
	}
	var profile model.Profile
	if err := Decode(res.Body(), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, profile model.Profile) (*model.Profile, error) {
	res, err := do("update profile", c.request(ctx).SetBody(profile), http.MethodPut, "/profile", http.StatusOK)
	if err != nil {
		return nil, err
	}
	var updated model.Profile
	if err := Decode(res.Body(), &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) RecordMeasurement(ctx context.Context, m model.Measurement) (*model.Measurement, error) {
	res, err := do("record measurement", c.request(ctx).SetBody(m), http.MethodPost, "/measurements",
		http.StatusCreated)
	if err != nil {
		return nil, err
	}
	var recorded model.Measurement
	if err := Decode(res.Body(), &recorded); err != nil {
		return nil, err
	}
	return &recorded, nil
}
