// Package classifier calls an OpenAI-compatible Responses endpoint with a JSON
// schema constrained output to label free text.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

const (
	responsesPath = "/v1/responses"
	schemaName    = "emerging_themes"
	sampleSep     = "\n\n---\n\n"
	maxErrorBody  = 512
)

// themesOutput is the structured reply the model must produce.
type themesOutput struct {
	EmergingThemes []string `json:"emerging_themes" jsonschema:"3-5 distinct, emerging mental health themes or trends observed in the provided text samples"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string    `json:"model"`
	Input []message `json:"input"`
	Text  struct {
		Format map[string]any `json:"format"`
	} `json:"text"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
}

// Client implements themes.Classifier over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	schema  map[string]any
}

// New creates a Client. The output schema is derived from themesOutput.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")

	schema, err := jsonschema.For[themesOutput](nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := json.Unmarshal(raw, &c.schema); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return c, nil
}

// Classify sends the instruction and the joined sample and returns the labels.
func (c *Client) Classify(ctx context.Context, instruction string, sample []string) ([]string, error) {
	req := responsesRequest{
		Model: c.model,
		Input: []message{
			{Role: "system", Content: instruction},
			{Role: "user", Content: "Analyze these reports:" + sampleSep + strings.Join(sample, sampleSep)},
		},
	}
	req.Text.Format = map[string]any{
		"type":   "json_schema",
		"name":   schemaName,
		"schema": c.schema,
		"strict": true,
	}

	var resp responsesResponse
	if err := c.post(ctx, responsesPath, req, &resp); err != nil {
		return nil, err
	}

	text, refusal := outputText(resp)
	if refusal != "" {
		return nil, fmt.Errorf("%w: %s", ErrRefused, refusal)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyOutput
	}
	var out themesOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("decode classifier output: %w", err)
	}
	return out.EmergingThemes, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("encode classifier request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build classifier request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read classifier response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode classifier response: %w", err)
	}
	return nil
}

func outputText(resp responsesResponse) (string, string) {
	var text strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			switch c.Type {
			case "output_text":
				text.WriteString(c.Text)
			case "refusal":
				return "", c.Refusal
			}
		}
	}
	return text.String(), ""
}
