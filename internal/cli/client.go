package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fintwin/internal/game"
)

// ErrNetwork marks requests that never got an HTTP response.
var ErrNetwork = errors.New("network failure")

type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

const gamePath = "/api/financial-game"

func DecisionPath(sessionID string) string {
	return gamePath + "/" + url.PathEscape(sessionID) + "/decision"
}

func (c *Client) Careers(ctx context.Context) ([]game.CareerView, error) {
	var out struct {
		Careers []game.CareerView `json:"careers"`
	}
	err := c.jsonRequest(ctx, http.MethodGet, gamePath+"/careers", nil, &out, "")
	return out.Careers, err
}

func (c *Client) StartGame(ctx context.Context, playerName, career string) (game.StartResult, error) {
	var out game.StartResult
	err := c.jsonRequest(ctx, http.MethodPost, gamePath+"/start", map[string]any{
		"playerName":   playerName,
		"careerChoice": career,
	}, &out, "")
	return out, err
}

// DecisionBody is the request body for a free-text decision or a menu kind.
func DecisionBody(text, kind string) map[string]any {
	if strings.TrimSpace(kind) != "" {
		return map[string]any{"kind": kind}
	}
	return map[string]any{"decision": text}
}

func (c *Client) Decide(ctx context.Context, sessionID, text, kind, idem string) (game.TurnResult, error) {
	var out game.TurnResult
	err := c.jsonRequest(ctx, http.MethodPost, DecisionPath(sessionID), DecisionBody(text, kind), &out, idem)
	return out, err
}

func (c *Client) Session(ctx context.Context, sessionID string) (game.SessionView, error) {
	var out game.SessionView
	err := c.jsonRequest(ctx, http.MethodGet, gamePath+"/"+url.PathEscape(sessionID), nil, &out, "")
	return out, err
}

func (c *Client) EndGame(ctx context.Context, sessionID string) (game.EndResult, error) {
	var out game.EndResult
	err := c.jsonRequest(ctx, http.MethodPost, gamePath+"/"+url.PathEscape(sessionID)+"/end", nil, &out, "")
	return out, err
}

func (c *Client) Do(ctx context.Context, method, path string, body map[string]any, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, method, path, body, &out, idem)
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
