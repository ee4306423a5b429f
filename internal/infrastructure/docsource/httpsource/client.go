// Package httpsource implements the document-source port against a remote
// document repository's REST API.
package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/biasharahub/docintel/internal/core/domain"
	"github.com/biasharahub/docintel/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor

	mu      sync.RWMutex
	session string
}

type Options struct {
	RequestTimeout     time.Duration
	RequestsPerSecond  float64
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiToken string, options Options) *Client {
	timeout := options.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := options.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiToken:   apiToken,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		executor:   options.ResilienceExecutor,
	}
}

// Authenticate exchanges the configured API token for a run-scoped session
// token. It is called once per run; failure is fatal to the run.
func (c *Client) Authenticate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sessions", nil)
	if err != nil {
		return fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrAuthFailed, "open session", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return domain.WrapError(domain.ErrAuthFailed, "open session",
			fmt.Errorf("status %s", resp.Status))
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("open session: unexpected status %s", resp.Status)
	}

	var payload struct {
		Session string `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode session response: %w", err)
	}
	if payload.Session == "" {
		return domain.WrapError(domain.ErrAuthFailed, "open session",
			fmt.Errorf("empty session token"))
	}

	c.mu.Lock()
	c.session = payload.Session
	c.mu.Unlock()
	return nil
}

func (c *Client) ListDocuments(ctx context.Context, page, pageSize int) ([]domain.DocumentRef, bool, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))

	var payload struct {
		Documents []domain.DocumentRef `json:"documents"`
		HasMore   bool                 `json:"has_more"`
	}
	if err := c.getJSON(ctx, "/v1/documents?"+query.Encode(), &payload, "list documents"); err != nil {
		return nil, false, err
	}
	return payload.Documents, payload.HasMore, nil
}

func (c *Client) FetchText(ctx context.Context, documentID string) (string, error) {
	var text string
	call := func(callCtx context.Context) error {
		if err := c.limiter.Wait(callCtx); err != nil {
			return err
		}
		req, err := c.newSessionRequest(callCtx, http.MethodGet,
			"/v1/documents/"+url.PathEscape(documentID)+"/text")
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("fetch text request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return domain.WrapError(domain.ErrDocumentNotFound, "fetch text",
				fmt.Errorf("document %s", documentID))
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("fetch text: unexpected status %s", resp.Status)
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read text body: %w", err)
		}
		text = string(body)
		return nil
	}

	if c.executor != nil {
		if err := c.executor.Execute(ctx, "docsource.fetch", call, classifySourceError); err != nil {
			return "", err
		}
		return text, nil
	}
	if err := call(ctx); err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any, operation string) error {
	call := func(callCtx context.Context) error {
		if err := c.limiter.Wait(callCtx); err != nil {
			return err
		}
		req, err := c.newSessionRequest(callCtx, http.MethodGet, path)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s request: %w", operation, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return fmt.Errorf("%s: unexpected status %s", operation, resp.Status)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", operation, err)
		}
		return nil
	}

	if c.executor != nil {
		return c.executor.Execute(ctx, "docsource.list", call, classifySourceError)
	}
	return call(ctx)
}

func (c *Client) newSessionRequest(ctx context.Context, method, path string) (*http.Request, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if session != "" {
		req.Header.Set("Authorization", "Bearer "+session)
	}
	return req, nil
}

func classifySourceError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if domain.IsKind(err, domain.ErrDocumentNotFound) || domain.IsKind(err, domain.ErrAuthFailed) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
