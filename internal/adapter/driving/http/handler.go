package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/reposhare/reposhare/internal/application"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	gateway *application.GatewayService
	links   *application.LinkService
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(gateway *application.GatewayService, links *application.LinkService, logger *slog.Logger) *Handler {
	return &Handler{
		gateway: gateway,
		links:   links,
		logger:  logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware. Private routes require a caller
// identity; shared routes pass the link access guard instead.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/github/authorize", h.requireOwner(h.AuthorizeGitHub))
	mux.HandleFunc("GET /api/v1/github/repos", h.requireOwner(h.ListRepos))

	mux.HandleFunc("POST /api/v1/links", h.requireOwner(h.CreateLink))
	mux.HandleFunc("GET /api/v1/links", h.requireOwner(h.ListLinks))
	mux.HandleFunc("PUT /api/v1/links/{slug}", h.requireOwner(h.UpdateLink))
	mux.HandleFunc("POST /api/v1/links/{slug}/deactivate", h.requireOwner(h.DeactivateLink))
	mux.HandleFunc("DELETE /api/v1/links/{slug}", h.requireOwner(h.DeleteLink))

	mux.HandleFunc("GET /api/v1/shared/{slug}", h.guardLink(h.GetSharedLink))
	mux.HandleFunc("GET /api/v1/shared/{slug}/repos/{id}/contents/{path...}", h.guardLink(h.GetSharedContents))

	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// AuthorizeGitHub exchanges an OAuth code and vaults the resulting token for
// the caller.
func (h *Handler) AuthorizeGitHub(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := h.gateway.Authorize(r.Context(), ownerFromContext(r.Context()), req.Code); err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthorizeResponse{Authorized: true})
}

// ListRepos returns the caller's live repository listing from the remote host.
func (h *Handler) ListRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := h.gateway.ListRepositories(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	resp := make([]RepoResponse, 0, len(repos))
	for _, repo := range repos {
		resp = append(resp, RepoResponse{ID: repo.ID, FullName: repo.FullName})
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateLink creates a share link scoped to the requested repositories.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.links.Create(r.Context(), ownerFromContext(r.Context()), application.CreateLinkParams{
		RepoIDs:     req.RepoIDs,
		CustomSlug:  req.CustomSlug,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLinkResponse(*link))
}

// ListLinks returns all of the caller's share links.
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.links.List(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	resp := make([]LinkResponse, 0, len(links))
	for _, link := range links {
		resp = append(resp, toLinkResponse(link))
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateLink applies a partial update to the caller's link.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	var req UpdateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.links.Update(r.Context(), ownerFromContext(r.Context()), r.PathValue("slug"), application.UpdateLinkParams{
		CustomSlug:  req.CustomSlug,
		Description: req.Description,
		RepoIDs:     req.RepoIDs,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toLinkResponse(*link))
}

// DeactivateLink turns off public access to the caller's link.
func (h *Handler) DeactivateLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.links.Deactivate(r.Context(), ownerFromContext(r.Context()), r.PathValue("slug"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toLinkResponse(*link))
}

// DeleteLink removes the caller's link.
func (h *Handler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	if err := h.links.Delete(r.Context(), ownerFromContext(r.Context()), r.PathValue("slug")); err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetSharedLink returns the public view of an authorized link.
func (h *Handler) GetSharedLink(w http.ResponseWriter, r *http.Request) {
	link := linkFromContext(r.Context())
	writeJSON(w, http.StatusOK, toSharedLinkResponse(*link))
}

// GetSharedContents serves repository content through an authorized link.
// The repository must be in the link's scope; the fetch runs with the link
// owner's vaulted token, never a visitor credential.
func (h *Handler) GetSharedContents(w http.ResponseWriter, r *http.Request) {
	link := linkFromContext(r.Context())

	repoID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid repository id")
		return
	}

	repo := link.Repo(repoID)
	if repo == nil {
		writeError(w, http.StatusNotFound, "repository not in link scope")
		return
	}

	content, err := h.gateway.FetchContent(r.Context(), link.OwnerID, repo.FullName, r.PathValue("path"))
	if err != nil {
		writeAppError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toContentResponse(*content))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
