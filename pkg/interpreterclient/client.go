/**
 * @description
 * This package provides a client for the external interpretation service,
 * which turns a natural language savings instruction into structured fields.
 * It encapsulates the authenticated HTTP request, context payload
 * construction, and response parsing.
 *
 * @dependencies
 * - bytes, context, encoding/json, fmt, net/http, time: Standard Go libraries.
 * - internal/domain: The interpretation payload shape.
 */
package interpreterclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/DanSamedov/api-smart-savings-sub000/internal/domain"
)

// Client is a client for the interpretation service.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new interpretation service client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// interpretRequest is the context payload sent to the interpretation service.
type interpretRequest struct {
	Prompt     string            `json:"prompt"`
	UserGroups map[string]string `json:"user_groups"`
	UserGoals  map[string]string `json:"user_goals"`
}

// interpretResponse is the expected response envelope.
type interpretResponse struct {
	Intent    string                `json:"intent"`
	RawPrompt string                `json:"raw_prompt"`
	Data      domain.Interpretation `json:"data"`
}

// ErrorResponse represents an error from the interpretation service.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func (e *ErrorResponse) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("interpreter error: %s", e.Detail)
	}
	return "unknown interpreter error"
}

// Interpret sends the prompt and the caller's pool/goal context to the
// interpretation service and returns the structured interpretation.
func (c *Client) Interpret(ctx context.Context, prompt string, knownGroups, knownGoals map[string]string) (*domain.Interpretation, error) {
	payload := interpretRequest{
		Prompt:     prompt,
		UserGroups: knownGroups,
		UserGoals:  knownGoals,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal interpret request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/interpret", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create interpret request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute interpret request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read interpret response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp ErrorResponse
		if err := json.Unmarshal(bodyBytes, &errResp); err != nil {
			log.Printf("level=warn component=interpreter_client status=%d msg=\"non-2xx response (unparsable error body)\"", resp.StatusCode)
			return nil, fmt.Errorf("failed to decode error response (status %d)", resp.StatusCode)
		}
		log.Printf("level=warn component=interpreter_client status=%d detail=%q", resp.StatusCode, errResp.Detail)
		return nil, &errResp
	}

	var successResp interpretResponse
	if err := json.Unmarshal(bodyBytes, &successResp); err != nil {
		return nil, fmt.Errorf("failed to decode interpret response: %w", err)
	}

	return &successResp.Data, nil
}
