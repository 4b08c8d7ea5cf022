// Package youtrack is a minimal REST client for the YouTrack API.
package youtrack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrUnauthorized marks a credential rejection (401/403) so callers can
// distinguish a bad token from a transient upstream failure.
var ErrUnauthorized = errors.New("youtrack authentication failed")

// Config holds the connection settings for one YouTrack instance.
type Config struct {
	// BaseURL is the normalized instance URL including the /api suffix.
	BaseURL string
	// Token is the permanent token sent as a Bearer credential.
	Token string
}

// Client is the interface for interacting with one YouTrack instance
// under a fixed credential. Construct one per chat/credential pair.
type Client interface {
	ValidateToken() (bool, error)
	ListProjects() ([]Project, error)
	CreateIssue(draft IssueDraft) error
	FetchFeed() ([]RawFeedRecord, error)
}

// restClient is the production Client over the YouTrack REST API. It holds
// no mutable state and is safe for concurrent use.
type restClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a client for the given instance and token.
func NewClient(cfg Config) Client {
	return &restClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *restClient) do(method, path string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
	case http.StatusTooManyRequests:
		resp.Body.Close()
		retryAfter := resp.Header.Get("Retry-After")
		if retryAfter != "" {
			return nil, fmt.Errorf("YouTrack rate limit exceeded (429), retry after %s seconds", retryAfter)
		}
		return nil, fmt.Errorf("YouTrack rate limit exceeded (429)")
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("YouTrack API returned status %d for %s", resp.StatusCode, path)
	}
}

// ValidateToken checks whether the configured credential can read project
// metadata. A false return with nil error means the credential was rejected.
func (c *restClient) ValidateToken() (bool, error) {
	resp, err := c.do(http.MethodGet, "/admin/projects?fields=id,name", nil)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return false, nil
		}
		return false, err
	}
	resp.Body.Close()
	return true, nil
}

// ListProjects returns the projects visible to the credential.
func (c *restClient) ListProjects() ([]Project, error) {
	resp, err := c.do(http.MethodGet, "/admin/projects?fields=id,name", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var projects []Project
	if err := json.NewDecoder(resp.Body).Decode(&projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects response: %w", err)
	}
	log.Debug().Int("count", len(projects)).Msg("Fetched YouTrack projects")
	return projects, nil
}

// CreateIssue submits a new issue draft.
func (c *restClient) CreateIssue(draft IssueDraft) error {
	resp, err := c.do(http.MethodPost, "/issues", draft)
	if err != nil {
		return err
	}
	resp.Body.Close()
	log.Info().Str("project", draft.Project.ID).Msg("Created YouTrack issue")
	return nil
}

// FetchFeed returns the currently-available notification feed records.
// The records are opaque here; decoding lives in the feed package.
func (c *restClient) FetchFeed() ([]RawFeedRecord, error) {
	resp, err := c.do(http.MethodGet, "/notifications?fields=id,content,metadata", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var records []RawFeedRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode notification feed: %w", err)
	}
	return records, nil
}
