package github_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/reposhare/reposhare/internal/adapter/driven/github"
	"github.com/reposhare/reposhare/internal/domain/model"
	"github.com/reposhare/reposhare/internal/domain/port/driven"
)

// newTestClient creates a Client backed by the given httptest handler for
// both the REST API and the OAuth token endpoint.
func newTestClient(t *testing.T, handler http.Handler) (*ghAdapter.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithBaseURL(
		server.Client(),
		server.URL+"/",
		server.URL+"/login/oauth/access_token",
		"test-client-id",
		"test-client-secret",
	)
	require.NoError(t, err)

	return client, server
}

// repoJSON is a helper struct for building GitHub API repository responses.
type repoJSON struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

func TestExchangeCode_Success(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/login/oauth/access_token", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "test-client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "gho_fresh"})
	}))

	token, err := client.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "gho_fresh", token)
}

func TestExchangeCode_ErrorBody(t *testing.T) {
	// GitHub reports a bad code with HTTP 200 and an error field.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "bad_verification_code",
			"error_description": "The code passed is incorrect or expired.",
		})
	}))

	_, err := client.ExchangeCode(context.Background(), "stale-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad_verification_code")
}

func TestListRepositories_Paginated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user/repos", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			_ = json.NewEncoder(w).Encode([]repoJSON{{ID: 44, FullName: "alice/third"}})
			return
		}
		// go-github only reads the query params of the next-page URL.
		w.Header().Set("Link", `<https://api.github.com/user/repos?page=2>; rel="next"`)
		_ = json.NewEncoder(w).Encode([]repoJSON{
			{ID: 42, FullName: "alice/api"},
			{ID: 43, FullName: "alice/worker"},
		})
	})
	client, _ := newTestClient(t, mux)

	repos, err := client.ListRepositories(context.Background(), "gho_token")
	require.NoError(t, err)
	assert.Equal(t, []model.RemoteRepo{
		{ID: 42, FullName: "alice/api"},
		{ID: 43, FullName: "alice/worker"},
		{ID: 44, FullName: "alice/third"},
	}, repos)
}

func TestListRepositories_Unauthorized(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Bad credentials"})
	}))

	_, err := client.ListRepositories(context.Background(), "gho_revoked")
	assert.ErrorIs(t, err, driven.ErrRemoteUnauthorized)
}

func TestListRepositories_UpstreamFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.ListRepositories(context.Background(), "gho_token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, driven.ErrRemoteUnauthorized)
}

func TestFetchContents_Directory(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/alice/api/contents/src", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]string{
			{"name": "main.go", "path": "src/main.go", "type": "file"},
			{"name": "internal", "path": "src/internal", "type": "dir"},
		})
	}))

	content, err := client.FetchContents(context.Background(), "gho_token", "alice/api", "src")
	require.NoError(t, err)
	require.Equal(t, model.ContentDir, content.Kind)
	assert.Equal(t, []model.ContentEntry{
		{Name: "main.go", Path: "src/main.go", Kind: "file"},
		{Name: "internal", Path: "src/internal", Kind: "dir"},
	}, content.Entries)
}

func TestFetchContents_FileDecodesBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("package main\n"))

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"type":     "file",
			"name":     "main.go",
			"path":     "main.go",
			"encoding": "base64",
			"content":  encoded,
		})
	}))

	content, err := client.FetchContents(context.Background(), "gho_token", "alice/api", "main.go")
	require.NoError(t, err)
	require.Equal(t, model.ContentFile, content.Kind)
	assert.Equal(t, "package main\n", content.Text)
}

func TestFetchContents_InvalidRepoName(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	_, err := client.FetchContents(context.Background(), "gho_token", "not-a-full-name", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected owner/repo")
}
