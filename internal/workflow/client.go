// Package workflow запускает у внешнего планировщика workflow напоминаний
// о продлении подписки.
package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const triggerPath = "/v2/workflows/trigger"

// Client HTTP-клиент планировщика.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient создаёт клиент планировщика по базовому адресу и токену.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Trigger запускает workflow и возвращает идентификатор запуска.
// Любой ответ кроме 2xx считается ошибкой.
func (c *Client) Trigger(ctx context.Context, tr TriggerRequest) (string, error) {
	const op = "workflow.Client.Trigger"
	if c.baseURL == "" {
		return "", fmt.Errorf("%s: scheduler url is not configured", op)
	}

	req, err := c.newRequest(ctx, http.MethodPost, triggerPath, tr)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%s: unexpected status %s: %s", op, resp.Status, strings.TrimSpace(string(msg)))
	}

	var out TriggerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if out.WorkflowRunID == "" {
		return "", fmt.Errorf("%s: %w", op, errors.New("empty workflow run id"))
	}
	return out.WorkflowRunID, nil
}
