package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"server/internal/domain"
)

// Options configures the Supabase directory client.
type Options struct {
	BaseURL        string
	ServiceRoleKey string
	HTTPClient     *http.Client
}

// SupabaseDirectory resolves users by email through the Supabase
// GoTrue admin API. It is read-only: a miss is a miss, never a create.
type SupabaseDirectory struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

const defaultTimeout = 10 * time.Second

func NewSupabaseDirectory(opts Options) (*SupabaseDirectory, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("supabase base url is required")
	}
	if strings.TrimSpace(opts.ServiceRoleKey) == "" {
		return nil, errors.New("supabase service role key is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &SupabaseDirectory{
		baseURL:    baseURL,
		serviceKey: strings.TrimSpace(opts.ServiceRoleKey),
		client:     client,
	}, nil
}

type adminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type listUsersResponse struct {
	Users []adminUser `json:"users"`
}

// FindByEmail returns the directory entry for email, or
// domain.ErrNotFound when the identity provider has no such user.
func (d *SupabaseDirectory) FindByEmail(ctx context.Context, email string) (*domain.DirectoryUser, error) {
	endpoint := fmt.Sprintf("%s/auth/v1/admin/users?email=%s&per_page=1", d.baseURL, url.QueryEscape(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("identity: build request: %w", err)
	}
	req.Header.Set("apikey", d.serviceKey)
	req.Header.Set("Authorization", "Bearer "+d.serviceKey)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity: list users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity: list users: %w: status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var payload listUsersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("identity: decode response: %w", err)
	}

	for _, u := range payload.Users {
		if strings.EqualFold(u.Email, email) && u.ID != "" {
			return &domain.DirectoryUser{ID: u.ID, Email: u.Email}, nil
		}
	}
	return nil, domain.ErrNotFound
}

var _ domain.UserDirectory = (*SupabaseDirectory)(nil)
