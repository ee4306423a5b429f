// Package ollama adapts a local Ollama server to the generative-text and
// entity-recognition capability ports. Both capabilities are best effort:
// callers check Available before use and degrade when it reports false.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/biasharahub/docintel/internal/core/domain"
	"github.com/biasharahub/docintel/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	maxTokens  int
	httpClient *http.Client
	executor   *resilience.Executor
}

type Options struct {
	MaxTokens          int
	RequestTimeout     time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model string, options Options) *Client {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	maxTokens := options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		maxTokens:  maxTokens,
		httpClient: &http.Client{Timeout: timeout},
		executor:   options.ResilienceExecutor,
	}
}

// Available reports whether the backend responds to a model listing. A
// timeout or any transport error means unavailable, never an error.
func (c *Client) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := c.listModels(probeCtx)
	return err == nil
}

func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	models, err := c.listModels(ctx)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("list models", err)
	}
	return models, nil
}

func (c *Client) listModels(ctx context.Context) ([]string, error) {
	var response struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/tags", &response, "tags"); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(response.Models))
	for _, model := range response.Models {
		names = append(names, model.Name)
	}
	return names, nil
}

// Generate runs one bounded text generation. The token budget keeps a slow
// backend from stalling a batch; callers add their own deadline on top.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"options": map[string]any{
			"num_predict": c.maxTokens,
		},
	}
	return c.generate(ctx, "generate", reqBody)
}

func (c *Client) generateJSON(ctx context.Context, operation, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"num_predict": c.maxTokens,
		},
	}
	return c.generate(ctx, operation, reqBody)
}

func (c *Client) generate(ctx context.Context, operation string, reqBody map[string]any) (string, error) {
	var response struct {
		Response string `json:"response"`
	}
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/generate", reqBody, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama."+operation, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return strings.TrimSpace(response.Response), nil
}

// Recognizer exposes entity recognition over the same backend.
type Recognizer struct {
	client *Client
}

func NewRecognizer(client *Client) *Recognizer {
	return &Recognizer{client: client}
}

func (r *Recognizer) Available(ctx context.Context) bool {
	return r.client.Available(ctx)
}

func (r *Recognizer) RecognizeEntities(ctx context.Context, text string) ([]domain.EntitySpan, error) {
	respText, err := r.client.generateJSON(ctx, "entities", buildEntityPrompt(text))
	if err != nil {
		return nil, err
	}

	var result struct {
		Entities []struct {
			Text     string `json:"text"`
			Category string `json:"category"`
		} `json:"entities"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(respText)), &result); err != nil {
		return nil, fmt.Errorf("parse entity json: %w", err)
	}

	spans := make([]domain.EntitySpan, 0, len(result.Entities))
	for _, ent := range result.Entities {
		category, ok := parseCategory(ent.Category)
		if !ok || strings.TrimSpace(ent.Text) == "" {
			continue
		}
		spans = append(spans, domain.EntitySpan{
			Text:     strings.TrimSpace(ent.Text),
			Category: category,
		})
	}
	return spans, nil
}

func parseCategory(raw string) (domain.EntityCategory, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "organization", "org", "company":
		return domain.EntityOrganization, true
	case "person", "people":
		return domain.EntityPerson, true
	case "place", "location", "gpe":
		return domain.EntityPlace, true
	case "date":
		return domain.EntityDate, true
	case "money", "amount":
		return domain.EntityMoney, true
	default:
		return "", false
	}
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
