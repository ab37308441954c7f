package api

import "context"

// Chat creates a chat completion. Pass onData together with
// params["stream"] = true to receive the response as it is generated.
func (c *Client) Chat(ctx context.Context, params Params, onData StreamFunc) (*Response, error) {
	return c.JSONPost(ctx, "/chat/completions", params, onData)
}

// Completions creates a text completion, optionally streamed like Chat.
func (c *Client) Completions(ctx context.Context, params Params, onData StreamFunc) (*Response, error) {
	return c.JSONPost(ctx, "/completions", params, onData)
}

// Edits creates an edit of the given input.
func (c *Client) Edits(ctx context.Context, params Params) (*Response, error) {
	return c.JSONPost(ctx, "/edits", params, nil)
}

// Embeddings creates embedding vectors for the input.
func (c *Client) Embeddings(ctx context.Context, params Params) (*Response, error) {
	return c.JSONPost(ctx, "/embeddings", params, nil)
}

// Moderations classifies the input against the content policy.
func (c *Client) Moderations(ctx context.Context, params Params) (*Response, error) {
	return c.JSONPost(ctx, "/moderations", params, nil)
}
