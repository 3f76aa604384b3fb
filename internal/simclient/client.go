// Package simclient talks to the remote GHG simulation service.
//
// The client keeps no state between calls. Every request carries the caller's
// session id in the X-Session-ID header so the service can keep concurrent
// playthroughs apart.
//
//	client := simclient.New(simclient.Config{BaseURL: "http://localhost:58000/ghg"})
//	initial, err := client.FetchInitialState(ctx, sessionID)
package simclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tatianab/ghg-game/internal/models"
)

// SessionHeader carries the playthrough id on every request.
const SessionHeader = "X-Session-ID"

// Config holds configuration for the simulation client.
type Config struct {
	// BaseURL is the service root, including any route prefix (e.g. "http://host:58000/ghg").
	BaseURL string

	// HTTPClient allows injecting a custom HTTP client (useful for testing).
	// Defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// UserAgent overrides the User-Agent header. Optional.
	UserAgent string
}

// Client is a GHG simulation service client.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
}

// New creates a client for the service at cfg.BaseURL.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		http:      httpClient,
		userAgent: cfg.UserAgent,
	}
}

// Response fields are pointers so a missing key can be told apart from zero.
type initialResponse struct {
	Year  *int     `json:"year"`
	GHG   *float64 `json:"GHG"`
	Error *string  `json:"error"`
}

type inputRequest struct {
	X1   float64 `json:"x_1"`
	X2   float64 `json:"x_2"`
	X3   float64 `json:"x_3"`
	Year int     `json:"year"`
}

type outputResponse struct {
	GHG              *float64 `json:"GHG"`
	Story            string   `json:"story"`
	Year             *int     `json:"year"`
	CertificateLevel *string  `json:"certificate_level"`
	Error            *string  `json:"error"`
}

// FetchInitialState asks the service for the starting year and GHG reading.
// Calling it also resets any server-side state held for sessionID.
func (c *Client) FetchInitialState(ctx context.Context, sessionID string) (models.InitialState, error) {
	var resp initialResponse
	if err := c.do(ctx, http.MethodGet, "/initial", sessionID, nil, &resp); err != nil {
		return models.InitialState{}, err
	}
	if err := checkFields("/initial", resp.Error, resp.Year, resp.GHG); err != nil {
		return models.InitialState{}, err
	}
	return models.InitialState{StartYear: *resp.Year, InitialGHG: *resp.GHG}, nil
}

// SubmitRound posts one round's inputs for the given year.
func (c *Client) SubmitRound(ctx context.Context, sessionID string, inputs models.PolicyInputs, year int) error {
	body := inputRequest{
		X1:   inputs.Reforestation,
		X2:   inputs.Travel,
		X3:   inputs.Energy,
		Year: year,
	}
	return c.do(ctx, http.MethodPost, "/input", sessionID, body, nil)
}

// FetchRoundResult returns the outcome of the most recently submitted round.
func (c *Client) FetchRoundResult(ctx context.Context, sessionID string) (models.RoundResult, error) {
	var resp outputResponse
	if err := c.do(ctx, http.MethodGet, "/output", sessionID, nil, &resp); err != nil {
		return models.RoundResult{}, err
	}
	if err := checkFields("/output", resp.Error, resp.Year, resp.GHG); err != nil {
		return models.RoundResult{}, err
	}
	result := models.RoundResult{
		GHG:   *resp.GHG,
		Story: resp.Story,
		Year:  *resp.Year,
	}
	if resp.CertificateLevel != nil {
		result.CertificateTier = *resp.CertificateLevel
	}
	return result, nil
}

// do sends one request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path, sessionID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("simclient: marshal %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("simclient: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", models.ErrServiceUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", models.ErrServiceUnavailable, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", models.ErrServiceUnavailable, path, err)
	}
	return nil
}

// checkFields rejects a success response that reports an error or lacks the
// year and GHG keys.
func checkFields(path string, errMsg *string, year *int, ghg *float64) error {
	if errMsg != nil {
		return fmt.Errorf("%w: %s: service reported %q", models.ErrServiceUnavailable, path, *errMsg)
	}
	if year == nil || ghg == nil {
		return fmt.Errorf("%w: %s: response missing year or GHG", models.ErrServiceUnavailable, path)
	}
	return nil
}
