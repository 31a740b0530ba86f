// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/reposhare/reposhare/internal/domain/model"
	"github.com/reposhare/reposhare/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

const defaultTokenURL = "https://github.com/login/oauth/access_token"

// Client implements the driven.GitHubClient port. API clients are built per
// access token because every call acts on behalf of a different owner; built
// clients are memoized so each token keeps its own conditional-request cache
// and rate-limit state, and caching never crosses authorization boundaries.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	baseURL      string // non-empty only in tests, points go-github at an httptest server
	exchange     *http.Client

	mu      sync.Mutex
	clients map[string]*gh.Client // keyed by access token
}

// NewClient creates a Client for the real GitHub endpoints. clientID and
// clientSecret identify the OAuth application used for code exchange.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     defaultTokenURL,
		exchange:     cleanhttp.DefaultClient(),
		clients:      make(map[string]*gh.Client),
	}
}

// NewClientWithBaseURL creates a Client whose REST and token-exchange calls
// go to the given base URLs. This constructor is intended for testing,
// allowing injection of an httptest server.
func NewClientWithBaseURL(httpClient *http.Client, apiBaseURL, tokenURL, clientID, clientSecret string) (*Client, error) {
	if _, err := url.Parse(apiBaseURL); err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	// go-github requires a trailing slash to resolve relative endpoint URLs.
	if !strings.HasSuffix(apiBaseURL, "/") {
		apiBaseURL += "/"
	}

	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		baseURL:      apiBaseURL,
		exchange:     httpClient,
		clients:      make(map[string]*gh.Client),
	}, nil
}

// ExchangeCode trades an OAuth authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (string, error) {
	form := url.Values{
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.exchange.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read token exchange response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange returned status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
		ErrorDesc   string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode token exchange response: %w", err)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("token exchange rejected: %s (%s)", payload.Error, payload.ErrorDesc)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token exchange response missing access_token")
	}

	return payload.AccessToken, nil
}

// ListRepositories returns the full repository listing visible to the token's
// user, projected to {id, full_name}. Pagination is handled automatically.
func (c *Client) ListRepositories(ctx context.Context, token string) ([]model.RemoteRepo, error) {
	client := c.apiClient(token)

	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Sort:        "full_name",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var all []model.RemoteRepo

	for {
		repos, resp, err := client.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, classify(resp, fmt.Errorf("listing repositories (page %d): %w", opts.Page, err))
		}

		logRateLimit(resp, "user/repos", opts.Page, len(repos))

		for _, repo := range repos {
			all = append(all, model.RemoteRepo{
				ID:       repo.GetID(),
				FullName: repo.GetFullName(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if all == nil {
		all = []model.RemoteRepo{}
	}

	return all, nil
}

// FetchContents returns the contents at path in the given repository. The
// directory-vs-file variant is decided here, once; file payloads arrive
// base64-encoded from the API and are decoded before returning.
func (c *Client) FetchContents(ctx context.Context, token, repoFullName, path string) (*model.RepoContent, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	client := c.apiClient(token)

	fileContent, dirContent, resp, err := client.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, classify(resp, fmt.Errorf("fetching contents of %s at %q: %w", repoFullName, path, err))
	}

	logRateLimit(resp, repoFullName+"/contents", 0, len(dirContent))

	if fileContent != nil {
		text, err := fileContent.GetContent()
		if err != nil {
			return nil, fmt.Errorf("decoding file content of %s at %q: %w", repoFullName, path, err)
		}
		return &model.RepoContent{Kind: model.ContentFile, Text: text}, nil
	}

	entries := make([]model.ContentEntry, 0, len(dirContent))
	for _, entry := range dirContent {
		entries = append(entries, model.ContentEntry{
			Name: entry.GetName(),
			Path: entry.GetPath(),
			Kind: model.ContentKind(entry.GetType()),
		})
	}

	return &model.RepoContent{Kind: model.ContentDir, Entries: entries}, nil
}

// apiClient returns the memoized go-github client for the given token,
// building it on first use with the transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with bearer auth)
func (c *Client) apiClient(token string) *gh.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[token]; ok {
		return client
	}

	var client *gh.Client
	if c.baseURL != "" {
		client = gh.NewClient(c.exchange).WithAuthToken(token)
		if u, err := url.Parse(c.baseURL); err == nil {
			client.BaseURL = u
		}
	} else {
		cacheTransport := httpcache.NewMemoryCacheTransport()
		rateLimitClient := github_ratelimit.NewClient(cacheTransport)
		client = gh.NewClient(rateLimitClient).WithAuthToken(token)
	}

	c.clients[token] = client
	return client
}

// classify maps a 401 response to driven.ErrRemoteUnauthorized so the
// gateway can revoke the vaulted credential; everything else passes through.
func classify(resp *gh.Response, err error) error {
	if resp != nil && resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", driven.ErrRemoteUnauthorized, err)
	}
	return err
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
