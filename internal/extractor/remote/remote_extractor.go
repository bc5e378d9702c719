// Package remote implements port.FieldExtractor over a provider's HTTP API.
// The provider receives the source bytes and returns raw fields keyed by
// canonical field name; everything behind the endpoint is opaque to the core.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"apflow/internal/port"
)

const defaultTimeout = 120 * time.Second

type extractRequest struct {
	ContentType string `json:"content_type"`
	FileBase64  string `json:"file_base64"`
}

type extractResponse struct {
	Fields    map[string]port.RawField `json:"fields"`
	LineItems []port.RawLineItem       `json:"line_items"`
}

type remoteExtractor struct {
	name       string
	url        string
	httpClient *http.Client
}

// NewExtractor creates a FieldExtractor calling the provider at url. The
// name is used only in error messages to tell the two providers apart.
func NewExtractor(name, url string) port.FieldExtractor {
	return &remoteExtractor{
		name:       name,
		url:        url,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

func (e *remoteExtractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractResult, error) {
	payload, err := json.Marshal(extractRequest{
		ContentType: input.ContentType,
		FileBase64:  base64.StdEncoding.EncodeToString(input.FileBytes),
	})
	if err != nil {
		return nil, fmt.Errorf("%s extractor: marshaling request: %w", e.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s extractor: building request: %w", e.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s extractor: calling provider: %w", e.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s extractor: reading response: %w", e.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s extractor: provider returned status %d: %s",
			e.name, resp.StatusCode, truncate(body, 200))
	}

	var out extractResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%s extractor: decoding response: %w", e.name, err)
	}
	if out.Fields == nil {
		out.Fields = map[string]port.RawField{}
	}

	return &port.ExtractResult{
		Fields:    out.Fields,
		LineItems: out.LineItems,
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
