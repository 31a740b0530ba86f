package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/go-secure-stdlib/base62"

	"github.com/reposhare/reposhare/internal/domain/apperr"
	"github.com/reposhare/reposhare/internal/domain/model"
	"github.com/reposhare/reposhare/internal/domain/port/driven"
)

// slugLength gives ~8x10^17 combinations over the base62 alphabet, enough to
// make generated-slug collisions negligible. Generation still checks for an
// existing slug, and the store's unique index backstops the race.
const slugLength = 10

// slugAttempts bounds generation retries when a random slug collides.
const slugAttempts = 5

// LinkService owns the shareable link lifecycle: creation with scope
// snapshotting, owner-gated mutation, lazy expiry, and the access-guard
// authorization used on every public request.
type LinkService struct {
	links   driven.LinkStore
	gateway *GatewayService
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time // injected clock, time.Now outside tests
}

// NewLinkService creates a LinkService. ttl is the default link lifetime
// applied when the owner supplies no expiry.
func NewLinkService(links driven.LinkStore, gateway *GatewayService, ttl time.Duration, logger *slog.Logger) *LinkService {
	if ttl <= 0 {
		ttl = model.DefaultLinkTTL
	}
	return &LinkService{
		links:   links,
		gateway: gateway,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateLinkParams are the owner-supplied inputs for Create.
type CreateLinkParams struct {
	RepoIDs     []int64
	CustomSlug  string
	Description string
	ExpiresAt   *time.Time
}

// UpdateLinkParams is the patch applied by Update. Nil fields are left
// unchanged.
type UpdateLinkParams struct {
	CustomSlug  *string
	Description *string
	RepoIDs     []int64
	ExpiresAt   *time.Time
}

// Create validates the requested scope against the owner's live listing and
// persists a new active link.
//
// Scope ids absent from the live listing are silently dropped: the snapshot
// records what is actually shareable, so a stale client cannot block
// creation. An empty intersection is still BadRequest. Contrast with Update,
// which rejects invalid ids outright.
func (s *LinkService) Create(ctx context.Context, ownerID string, p CreateLinkParams) (*model.ShareLink, error) {
	if len(p.RepoIDs) == 0 {
		return nil, apperr.BadRequest("repos cannot be empty")
	}

	if p.CustomSlug != "" {
		existing, err := s.links.GetBySlug(ctx, p.CustomSlug)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.Conflict("custom URL already exists")
		}
	}

	live, err := s.gateway.ListRepositories(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	scope := snapshotScope(p.RepoIDs, live)
	if len(scope) == 0 {
		return nil, apperr.BadRequest("none of the requested repositories are shareable")
	}

	slug := p.CustomSlug
	if slug == "" {
		slug, err = s.generateSlug(ctx)
		if err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	if p.ExpiresAt != nil {
		expiresAt = p.ExpiresAt.UTC()
	}

	link := model.ShareLink{
		OwnerID:     ownerID,
		Slug:        slug,
		Description: p.Description,
		Status:      model.LinkStatusActive,
		Repos:       scope,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}

	inserted, err := s.links.Insert(ctx, link)
	if err != nil {
		// Two concurrent creates with the same slug both pass the existence
		// check; the unique index rejects the loser.
		if isSlugTaken(err) {
			return nil, apperr.Conflict("custom URL already exists").WithCause(err)
		}
		return nil, err
	}

	s.logger.Info("link created", "owner", ownerID, "slug", inserted.Slug, "repos", len(inserted.Repos))
	return &inserted, nil
}

// Update applies the patch to the owner's link, re-validating any new scope
// against a fresh live listing. Unlike Create, an update naming any id
// absent from the listing fails with BadRequest listing the invalid ids —
// an explicit edit of an existing grant should never silently shrink.
func (s *LinkService) Update(ctx context.Context, ownerID, slug string, p UpdateLinkParams) (*model.ShareLink, error) {
	link, err := s.ownedLink(ctx, ownerID, slug)
	if err != nil {
		return nil, err
	}

	if p.CustomSlug != nil && *p.CustomSlug != link.Slug {
		existing, err := s.links.GetBySlug(ctx, *p.CustomSlug)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.Conflict("custom URL already exists")
		}
		link.Slug = *p.CustomSlug
	}

	if p.RepoIDs != nil {
		if len(p.RepoIDs) == 0 {
			return nil, apperr.BadRequest("repos cannot be empty")
		}

		live, err := s.gateway.ListRepositories(ctx, ownerID)
		if err != nil {
			return nil, err
		}

		if invalid := invalidIDs(p.RepoIDs, live); len(invalid) > 0 {
			return nil, apperr.BadRequest("invalid repository IDs: %s", joinIDs(invalid))
		}

		link.Repos = snapshotScope(p.RepoIDs, live)
	}

	if p.Description != nil {
		link.Description = *p.Description
	}
	if p.ExpiresAt != nil {
		link.ExpiresAt = p.ExpiresAt.UTC()
	}

	if err := s.links.Update(ctx, *link); err != nil {
		if isSlugTaken(err) {
			return nil, apperr.Conflict("custom URL already exists").WithCause(err)
		}
		return nil, err
	}

	return link, nil
}

// Deactivate transitions the owner's link to DEACTIVATED. Idempotent: it
// applies regardless of current status, including already-expired links, and
// the link never returns to active.
func (s *LinkService) Deactivate(ctx context.Context, ownerID, slug string) (*model.ShareLink, error) {
	link, err := s.ownedLink(ctx, ownerID, slug)
	if err != nil {
		return nil, err
	}

	if err := s.links.SetStatus(ctx, link.ID, model.LinkStatusDeactivated); err != nil {
		return nil, err
	}
	link.Status = model.LinkStatusDeactivated

	s.logger.Info("link deactivated", "owner", ownerID, "slug", slug)
	return link, nil
}

// Delete removes the owner's link.
func (s *LinkService) Delete(ctx context.Context, ownerID, slug string) error {
	if _, err := s.ownedLink(ctx, ownerID, slug); err != nil {
		return err
	}

	if err := s.links.Delete(ctx, ownerID, slug); err != nil {
		if isLinkNotFound(err) {
			return apperr.NotFound("link not found").WithCause(err)
		}
		return err
	}

	s.logger.Info("link deleted", "owner", ownerID, "slug", slug)
	return nil
}

// List returns all links owned by the caller. Any active link whose expiry
// has passed is flipped to EXPIRED and persisted before returning — expiry
// is detected on read, not by a background sweep.
func (s *LinkService) List(ctx context.Context, ownerID string) ([]model.ShareLink, error) {
	links, err := s.links.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range links {
		if links[i].Status == model.LinkStatusActive && links[i].TimeExpired(now) {
			if err := s.links.MarkExpired(ctx, links[i].ID); err != nil {
				return nil, err
			}
			links[i].Status = model.LinkStatusExpired
		}
	}

	return links, nil
}

// ResolvePublic resolves a link by its public slug without authorization
// checks. Callers wanting access enforcement use Authorize.
func (s *LinkService) ResolvePublic(ctx context.Context, slug string) (*model.ShareLink, error) {
	link, err := s.links.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, apperr.NotFound("link not found")
	}
	return link, nil
}

// Authorize is the access guard evaluated before any handler serving public
// link content. Deactivated and expired links are rejected; an active link
// past its expiry is flipped to EXPIRED (persisted, exactly once under
// concurrent access) and rejected.
func (s *LinkService) Authorize(ctx context.Context, slug string) (*model.ShareLink, error) {
	link, err := s.ResolvePublic(ctx, slug)
	if err != nil {
		return nil, err
	}

	if link.Status == model.LinkStatusDeactivated || link.Status == model.LinkStatusExpired {
		return nil, apperr.Unauthorized("Link Expired")
	}

	if link.TimeExpired(s.now()) {
		if err := s.links.MarkExpired(ctx, link.ID); err != nil {
			return nil, err
		}
		return nil, apperr.Unauthorized("Link Expired")
	}

	return link, nil
}

// RecordClick bumps the link's click counter. Best-effort: failures are
// logged, never surfaced, so a counter hiccup can't break public access.
func (s *LinkService) RecordClick(ctx context.Context, link *model.ShareLink) {
	if err := s.links.IncrementClicks(ctx, link.ID); err != nil {
		s.logger.Error("record click failed", "slug", link.Slug, "error", err)
	}
}

// ownedLink resolves slug and enforces that ownerID owns it.
func (s *LinkService) ownedLink(ctx context.Context, ownerID, slug string) (*model.ShareLink, error) {
	link, err := s.links.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, apperr.NotFound("link not found")
	}
	if link.OwnerID != ownerID {
		return nil, apperr.Unauthorized("not the link owner")
	}
	return link, nil
}

// generateSlug draws random base62 slugs until one is free. The uniqueness
// check keeps the common case clean; the store's unique index decides races.
func (s *LinkService) generateSlug(ctx context.Context) (string, error) {
	for i := 0; i < slugAttempts; i++ {
		slug, err := base62.Random(slugLength)
		if err != nil {
			return "", fmt.Errorf("generate slug: %w", err)
		}

		existing, err := s.links.GetBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return slug, nil
		}
	}

	return "", fmt.Errorf("generate slug: %d attempts exhausted", slugAttempts)
}

// snapshotScope intersects the requested ids with the live listing,
// preserving request order and dropping duplicates and unknown ids.
func snapshotScope(ids []int64, live []model.RemoteRepo) []model.ScopedRepo {
	byID := make(map[int64]string, len(live))
	for _, repo := range live {
		byID[repo.ID] = repo.FullName
	}

	scope := make([]model.ScopedRepo, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		fullName, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		scope = append(scope, model.ScopedRepo{ID: id, FullName: fullName})
	}

	return scope
}

// invalidIDs returns the requested ids absent from the live listing.
func invalidIDs(ids []int64, live []model.RemoteRepo) []int64 {
	byID := make(map[int64]bool, len(live))
	for _, repo := range live {
		byID[repo.ID] = true
	}

	var invalid []int64
	for _, id := range ids {
		if !byID[id] {
			invalid = append(invalid, id)
		}
	}

	return invalid
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return strings.Join(parts, ", ")
}

func isSlugTaken(err error) bool    { return errors.Is(err, driven.ErrSlugTaken) }
func isLinkNotFound(err error) bool { return errors.Is(err, driven.ErrLinkNotFound) }
