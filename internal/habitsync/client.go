// Package habitsync keeps the local habit store and the remote habits store
// in agreement: one hydration read at startup, then debounced full-snapshot
// pushes after local toggles.
package habitsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pulseboard/pulseboard/internal/habit"
)

type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// RemoteClient talks to the habits store. Neither call retries transport
// failures: a failed push is simply superseded by the next debounced push,
// and a failed fetch is retried on the rehydration cadence.
type RemoteClient interface {
	FetchHabits(ctx context.Context, userID string) (habit.Snapshot, error)
	PushHabits(ctx context.Context, userID string, snapshot habit.Snapshot) error
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) FetchHabits(ctx context.Context, userID string) (habit.Snapshot, error) {
	var out struct {
		Daily   habit.Completions `json:"dailyHabits"`
		Weekly  habit.Completions `json:"weeklyHabits"`
		Monthly habit.Completions `json:"monthlyHabits"`
	}
	path := "/v1/habits/" + url.PathEscape(userID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return habit.Snapshot{}, err
	}
	return habit.Snapshot{
		Daily:   out.Daily,
		Weekly:  out.Weekly,
		Monthly: out.Monthly,
	}, nil
}

func (c *HTTPClient) PushHabits(ctx context.Context, userID string, snapshot habit.Snapshot) error {
	body := map[string]any{
		"userId":        userID,
		"dailyHabits":   orEmpty(snapshot.Daily),
		"weeklyHabits":  orEmpty(snapshot.Weekly),
		"monthlyHabits": orEmpty(snapshot.Monthly),
	}
	return c.doJSON(ctx, http.MethodPost, "/v1/habits", body, nil)
}

func orEmpty(m habit.Completions) habit.Completions {
	if m == nil {
		return habit.Completions{}
	}
	return m
}

func (c *HTTPClient) doJSON(ctx context.Context, method, requestPath string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	payloadBytes, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return readErr
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if out == nil || len(payloadBytes) == 0 {
			return nil
		}
		return json.Unmarshal(payloadBytes, out)
	}

	var errPayload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(payloadBytes, &errPayload)
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Code:       errPayload.Code,
		Message:    errPayload.Message,
	}
}
