package driven

import (
	"context"
	"errors"

	"github.com/reposhare/reposhare/internal/domain/model"
)

// Sentinel errors returned by LinkStore implementations.
var (
	// ErrLinkNotFound indicates the requested link does not exist.
	ErrLinkNotFound = errors.New("link not found")

	// ErrSlugTaken indicates another link already owns the slug. The store's
	// unique index is the authority: two concurrent inserts with the same
	// slug both pass the service's existence check, and the loser gets this.
	ErrSlugTaken = errors.New("slug already exists")
)

// LinkStore defines the driven port for shareable link persistence.
type LinkStore interface {
	// Insert persists a new link and returns it with its assigned ID.
	// Returns ErrSlugTaken if the slug violates the unique index.
	Insert(ctx context.Context, link model.ShareLink) (model.ShareLink, error)

	// Update rewrites the mutable fields (slug, description, repos,
	// expires_at, status) of the link identified by link.ID.
	// Returns ErrSlugTaken if the new slug violates the unique index.
	Update(ctx context.Context, link model.ShareLink) error

	// GetBySlug retrieves a link by its public slug.
	// Returns nil, nil if the slug is unknown.
	GetBySlug(ctx context.Context, slug string) (*model.ShareLink, error)

	// ListByOwner returns all links owned by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.ShareLink, error)

	// Delete removes the link with the given slug owned by ownerID.
	// Returns ErrLinkNotFound if no such link exists.
	Delete(ctx context.Context, ownerID, slug string) error

	// MarkExpired flips the link to expired only if it is currently active,
	// so concurrent lazy-expiry reads commit the transition exactly once.
	MarkExpired(ctx context.Context, id int64) error

	// SetStatus sets the link's status unconditionally (owner deactivation).
	SetStatus(ctx context.Context, id int64, status model.LinkStatus) error

	// IncrementClicks adds one to the link's click counter.
	IncrementClicks(ctx context.Context, id int64) error
}
