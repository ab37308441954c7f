package api

import (
	"context"
	"io"
	"net/url"
)

// List retrieves the uploaded files.
func (s FilesService) List(ctx context.Context) (*FileList, error) {
	resp, err := s.Get(ctx, "/files")
	if err != nil {
		return nil, err
	}
	var result FileList
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Upload sends a file (typically JSONL training data) with its purpose.
func (s FilesService) Upload(ctx context.Context, filename string, content io.Reader, purpose string) (*File, error) {
	return uploadFile(ctx, s.Client, filename, content, purpose)
}

func uploadFile(ctx context.Context, d Dispatcher, filename string, content io.Reader, purpose string) (*File, error) {
	form := NewForm().Field("purpose", purpose).File("file", filename, content)
	resp, err := d.MultipartPost(ctx, "/files", form)
	if err != nil {
		return nil, err
	}
	var result File
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Retrieve fetches metadata of a single file.
func (s FilesService) Retrieve(ctx context.Context, id string) (*File, error) {
	resp, err := s.Get(ctx, "/files/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var result File
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Content downloads the raw contents of a file.
func (s FilesService) Content(ctx context.Context, id string) ([]byte, error) {
	resp, err := s.Get(ctx, "/files/"+url.PathEscape(id)+"/content")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Delete removes a file.
func (s FilesService) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	resp, err := s.Client.Delete(ctx, "/files/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}
	var result DeleteResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
