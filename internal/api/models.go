package api

import (
	"context"
	"net/url"
)

// List retrieves the models available to the credential.
func (s ModelsService) List(ctx context.Context) (*ModelList, error) {
	return listModels(ctx, s.Client)
}

func listModels(ctx context.Context, d Dispatcher) (*ModelList, error) {
	resp, err := d.Get(ctx, "/models")
	if err != nil {
		return nil, err
	}
	var result ModelList
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Retrieve fetches a single model by ID.
func (s ModelsService) Retrieve(ctx context.Context, id string) (*Model, error) {
	return retrieveModel(ctx, s.Client, id)
}

func retrieveModel(ctx context.Context, d Dispatcher, id string) (*Model, error) {
	resp, err := d.Get(ctx, "/models/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var result Model
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes a fine-tuned model owned by the organization.
func (s ModelsService) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	return deleteModel(ctx, s.Client, id)
}

func deleteModel(ctx context.Context, d Dispatcher, id string) (*DeleteResult, error) {
	resp, err := d.Delete(ctx, "/models/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var result DeleteResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
