// Package nvcf implements generate.Client against the NVIDIA hosted Evo2
// generation endpoint.
package nvcf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jxucoder/evoprobe/pkg/generate"
)

// DefaultEndpoint is the Evo2 40B generation endpoint.
const DefaultEndpoint = "https://health.api.nvidia.com/v1/biology/arc/evo2-40b/generate"

// DefaultTimeout bounds a single generation call.
const DefaultTimeout = 5 * time.Minute

// Client implements generate.Client using the NVCF REST API.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint overrides the generation URL.
func WithEndpoint(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.endpoint = url
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// New creates a client authenticating with apiKey as a bearer token.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) Generate(ctx context.Context, req generate.Request) (*generate.Response, error) {
	raw, err := doJSONRoundTrip(ctx, c.client, http.MethodPost, c.endpoint,
		map[string]string{
			"Content-Type":  "application/json",
			"Accept":        "application/json",
			"Authorization": "Bearer " + c.apiKey,
		},
		req)
	if err != nil {
		return nil, fmt.Errorf("nvcf API: %w", err)
	}

	var result struct {
		Sequence *string `json:"sequence"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("nvcf API: %w", &generate.Error{
			Kind: generate.KindMalformedResponse,
			Body: string(raw),
			Err:  fmt.Errorf("parsing response: %w", err),
		})
	}
	if result.Sequence == nil {
		return nil, fmt.Errorf("nvcf API: %w", &generate.Error{
			Kind: generate.KindMalformedResponse,
			Body: string(raw),
			Err:  fmt.Errorf("no sequence in response"),
		})
	}
	return &generate.Response{Sequence: *result.Sequence, Raw: raw}, nil
}

// doJSONRoundTrip sends reqBody as JSON and returns the raw 2xx response
// body. Failures are reported as *generate.Error.
func doJSONRoundTrip(
	ctx context.Context,
	client *http.Client,
	method, url string,
	headers map[string]string,
	reqBody any,
) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &generate.Error{Kind: generate.KindTransport, Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &generate.Error{Kind: generate.KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &generate.Error{Kind: generate.KindTransport, Err: fmt.Errorf("reading response: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &generate.Error{Kind: generate.KindUnauthorized, Status: resp.StatusCode, Body: string(body)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &generate.Error{Kind: generate.KindRemote, Status: resp.StatusCode, Body: string(body)}
	}
	if !json.Valid(body) {
		return nil, &generate.Error{Kind: generate.KindMalformedResponse, Body: string(body), Err: fmt.Errorf("response is not JSON")}
	}
	return body, nil
}
