package api

import (
	"context"
	"net/url"
)

// List retrieves the organization's fine-tuning jobs.
func (s FineTunesService) List(ctx context.Context) (*FineTuneList, error) {
	resp, err := s.Get(ctx, "/fine-tunes")
	if err != nil {
		return nil, err
	}
	var result FineTuneList
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create starts a fine-tuning job. params must include training_file.
func (s FineTunesService) Create(ctx context.Context, params Params) (*FineTune, error) {
	resp, err := s.JSONPost(ctx, "/fine-tunes", params, nil)
	if err != nil {
		return nil, err
	}
	var result FineTune
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Retrieve fetches a fine-tuning job.
func (s FineTunesService) Retrieve(ctx context.Context, id string) (*FineTune, error) {
	resp, err := s.Get(ctx, "/fine-tunes/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var result FineTune
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Cancel stops a running fine-tuning job.
func (s FineTunesService) Cancel(ctx context.Context, id string) (*FineTune, error) {
	resp, err := s.JSONPost(ctx, "/fine-tunes/"+url.PathEscape(id)+"/cancel", nil, nil)
	if err != nil {
		return nil, err
	}
	var result FineTune
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Events lists the progress events of a fine-tuning job.
func (s FineTunesService) Events(ctx context.Context, id string) (*FineTuneEventList, error) {
	resp, err := s.Get(ctx, "/fine-tunes/"+url.PathEscape(id)+"/events")
	if err != nil {
		return nil, err
	}
	var result FineTuneEventList
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteModel removes the model produced by a fine-tuning job.
func (s FineTunesService) DeleteModel(ctx context.Context, model string) (*DeleteResult, error) {
	return deleteModel(ctx, s.Client, model)
}
