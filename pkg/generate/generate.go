// Package generate defines the sequence generation client interface for evoprobe.
package generate

import (
	"context"
	"encoding/json"
)

// Request asks the model to continue Sequence by NumTokens symbols.
type Request struct {
	Sequence  string `json:"sequence"`
	NumTokens int    `json:"num_tokens"`
	TopK      int    `json:"top_k"`
}

// Response is a generated continuation. Sequence may be shorter than the
// requested length if the service truncates. Raw is the full response body.
type Response struct {
	Sequence string
	Raw      json.RawMessage
}

// Client is a minimal interface for calling a sequence generation API.
// Implementations provide the actual HTTP transport to a specific provider.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
