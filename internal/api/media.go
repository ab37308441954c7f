package api

import "context"

// Generate creates images from a prompt.
func (s ImagesService) Generate(ctx context.Context, params Params) (*Response, error) {
	return s.JSONPost(ctx, "/images/generations", params, nil)
}

// Edit creates an edited image from an image, optional mask and a prompt.
func (s ImagesService) Edit(ctx context.Context, form *Form) (*Response, error) {
	return s.MultipartPost(ctx, "/images/edits", form)
}

// Variations creates variations of an image.
func (s ImagesService) Variations(ctx context.Context, form *Form) (*Response, error) {
	return s.MultipartPost(ctx, "/images/variations", form)
}

// Transcribe turns audio into text in the spoken language.
func (s AudioService) Transcribe(ctx context.Context, form *Form) (*Response, error) {
	return s.MultipartPost(ctx, "/audio/transcriptions", form)
}

// Translate turns audio into English text.
func (s AudioService) Translate(ctx context.Context, form *Form) (*Response, error) {
	return s.MultipartPost(ctx, "/audio/translations", form)
}
