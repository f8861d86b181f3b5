package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RelayGenerateIn is the wire request of the relay endpoint. The image is a
// base64 string, optionally with a data-URL prefix.
type RelayGenerateIn struct {
	Image          string `json:"image"`
	Prompt         string `json:"prompt"`
	ReferenceImage string `json:"referenceImage,omitempty"`
	MimeType       string `json:"mimeType,omitempty"`
}

type RelayGenerateOut struct {
	ImageURL *string `json:"imageUrl"`
	Text     string  `json:"text,omitempty"`
}

type RelayErrorOut struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RelayClient is a typed client for a remote relay endpoint. It implements
// ImageGenProvider so the batch orchestrator can run either against the
// model directly (server side) or against a relay over HTTP (CLI side).
type RelayClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewRelayClient(baseURL string) *RelayClient {
	return &RelayClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *RelayClient) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	wireReq := RelayGenerateIn{
		Image:    EncodeDataURL(req.Image, req.MimeType),
		Prompt:   req.Prompt,
		MimeType: req.MimeType,
	}
	if len(req.Reference) > 0 {
		wireReq.ReferenceImage = EncodeDataURL(req.Reference, req.ReferenceMimeType)
	}

	body, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode relay request: %v", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create relay request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("relay request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read relay response: %v", err)
	}

	// Any non-2xx is a per-item failure; surface the server-provided error
	// string when present, a generic fallback otherwise.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var wireErr RelayErrorOut
		if err := json.Unmarshal(respBody, &wireErr); err == nil && wireErr.Error != "" {
			return nil, fmt.Errorf("relay returned status %d: %s", resp.StatusCode, wireErr.Error)
		}
		return nil, fmt.Errorf("relay returned status %d", resp.StatusCode)
	}

	var wireResp RelayGenerateOut
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return nil, fmt.Errorf("malformed relay response: %v", err)
	}
	if wireResp.ImageURL == nil || *wireResp.ImageURL == "" {
		return nil, fmt.Errorf("relay returned no image")
	}

	return &GenerationResult{
		ImageURL: *wireResp.ImageURL,
		Text:     wireResp.Text,
	}, nil
}
