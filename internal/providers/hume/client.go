package hume

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options configures the Hume client.
type Options struct {
	APIKey     string
	SecretKey  string
	BaseURL    string
	HTTPClient *http.Client
}

// Client covers the two Hume calls the gateway relays: the
// client-credentials token exchange and prosody batch job submission.
type Client struct {
	apiKey    string
	secretKey string
	baseURL   string
	client    *http.Client
}

const (
	defaultTimeout = 15 * time.Second
	defaultBaseURL = "https://api.hume.ai"
)

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" || strings.TrimSpace(opts.SecretKey) == "" {
		return nil, errors.New("hume api key and secret key are required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:    strings.TrimSpace(opts.APIKey),
		secretKey: strings.TrimSpace(opts.SecretKey),
		baseURL:   baseURL,
		client:    client,
	}, nil
}

// Token is the bearer token returned by the client-credentials grant.
type Token struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// AccessToken exchanges the configured credentials for a short-lived
// bearer token.
func (c *Client) AccessToken(ctx context.Context) (*Token, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.apiKey},
		"client_secret": {c.secretKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth2-cc/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("hume: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hume: token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hume: token exchange failed with status %d", resp.StatusCode)
	}

	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("hume: decode token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("hume: token exchange returned empty access token")
	}
	return &token, nil
}

type prosodyJobRequest struct {
	Models struct {
		Prosody struct{} `json:"prosody"`
	} `json:"models"`
	Transcription struct {
		Language string `json:"language"`
	} `json:"transcription"`
	Files []prosodyFile `json:"files"`
}

type prosodyFile struct {
	Data        string `json:"data"`
	ContentType string `json:"content_type"`
}

type prosodyJobResponse struct {
	JobID string `json:"job_id"`
}

// SubmitProsodyJob starts a batch prosody analysis over base64 WAV
// audio and returns the job identifier.
func (c *Client) SubmitProsodyJob(ctx context.Context, accessToken, audioData string) (string, error) {
	var payload prosodyJobRequest
	payload.Transcription.Language = "en"
	payload.Files = []prosodyFile{{Data: audioData, ContentType: "audio/wav"}}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("hume: marshal job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v0/batch/jobs", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("hume: build job request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("hume: submit prosody job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("hume: prosody job failed with status %d", resp.StatusCode)
	}

	var job prosodyJobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return "", fmt.Errorf("hume: decode job response: %w", err)
	}
	return job.JobID, nil
}
