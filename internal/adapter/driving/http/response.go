package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/reposhare/reposhare/internal/domain/apperr"
	"github.com/reposhare/reposhare/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","message":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}

// writeAppError is the single translation point from domain errors to HTTP.
// Typed errors carry their own status and caller-facing message; anything
// else is logged and hidden behind a generic 500.
func writeAppError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperr.From(err); ok {
		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "path", r.URL.Path, "error", err)
		}
		writeError(w, appErr.Status, appErr.Message)
		return
	}

	logger.Error("request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// AuthorizeRequest is the JSON body for the GitHub authorization endpoint.
type AuthorizeRequest struct {
	Code string `json:"code"`
}

// AuthorizeResponse acknowledges a completed authorization.
type AuthorizeResponse struct {
	Authorized bool `json:"authorized"`
}

// RepoResponse is the JSON representation of a repository in a listing or a
// link's scope.
type RepoResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// CreateLinkRequest is the JSON body for the create link endpoint.
type CreateLinkRequest struct {
	RepoIDs     []int64    `json:"repo_ids"`
	CustomSlug  string     `json:"custom_slug"`
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// UpdateLinkRequest is the JSON body for the update link endpoint. Absent
// fields leave the stored value unchanged.
type UpdateLinkRequest struct {
	CustomSlug  *string    `json:"custom_slug"`
	Description *string    `json:"description"`
	RepoIDs     []int64    `json:"repo_ids"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// LinkResponse is the owner-facing JSON representation of a share link.
type LinkResponse struct {
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Clicks      int64          `json:"clicks"`
	Repos       []RepoResponse `json:"repos"`
	CreatedAt   string         `json:"created_at"`
	ExpiresAt   string         `json:"expires_at"`
}

// SharedLinkResponse is the public view of a link: scope and expiry only,
// never the owner identity or click counter.
type SharedLinkResponse struct {
	Slug        string         `json:"slug"`
	Description string         `json:"description"`
	Repos       []RepoResponse `json:"repos"`
	ExpiresAt   string         `json:"expires_at"`
}

// ContentEntryResponse is one entry in a directory listing.
type ContentEntryResponse struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// ContentResponse is the JSON representation of fetched repository content:
// a directory listing or a decoded file body, discriminated by Type.
type ContentResponse struct {
	Type    string                 `json:"type"`
	Entries []ContentEntryResponse `json:"entries,omitempty"`
	Content *string                `json:"content,omitempty"` // pointer so an empty file still serializes
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toRepoResponse converts a scoped repository to its JSON representation.
func toRepoResponse(repo model.ScopedRepo) RepoResponse {
	return RepoResponse{ID: repo.ID, FullName: repo.FullName}
}

// toRepoResponses converts a link's scope, always emitting an array.
func toRepoResponses(repos []model.ScopedRepo) []RepoResponse {
	out := make([]RepoResponse, 0, len(repos))
	for _, repo := range repos {
		out = append(out, toRepoResponse(repo))
	}
	return out
}

// toLinkResponse converts a domain ShareLink to its owner-facing JSON
// representation.
func toLinkResponse(link model.ShareLink) LinkResponse {
	return LinkResponse{
		Slug:        link.Slug,
		Description: link.Description,
		Status:      string(link.Status),
		Clicks:      link.Clicks,
		Repos:       toRepoResponses(link.Repos),
		CreatedAt:   link.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:   link.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// toSharedLinkResponse converts a domain ShareLink to its public JSON
// representation.
func toSharedLinkResponse(link model.ShareLink) SharedLinkResponse {
	return SharedLinkResponse{
		Slug:        link.Slug,
		Description: link.Description,
		Repos:       toRepoResponses(link.Repos),
		ExpiresAt:   link.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// toContentResponse converts fetched repository content to its JSON
// representation.
func toContentResponse(content model.RepoContent) ContentResponse {
	if content.Kind == model.ContentFile {
		text := content.Text
		return ContentResponse{
			Type:    string(model.ContentFile),
			Content: &text,
		}
	}

	entries := make([]ContentEntryResponse, 0, len(content.Entries))
	for _, e := range content.Entries {
		entries = append(entries, ContentEntryResponse{
			Name: e.Name,
			Path: e.Path,
			Type: string(e.Kind),
		})
	}

	return ContentResponse{
		Type:    string(model.ContentDir),
		Entries: entries,
	}
}
