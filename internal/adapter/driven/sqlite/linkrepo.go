package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reposhare/reposhare/internal/domain/model"
	"github.com/reposhare/reposhare/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LinkStore = (*LinkRepo)(nil)

// LinkRepo is the SQLite implementation of the LinkStore port interface.
// The resource-scope snapshot is stored as a JSON array in the repos column;
// it is read and written whole, never queried into.
type LinkRepo struct {
	db *DB
}

// NewLinkRepo creates a new LinkRepo backed by the given DB.
func NewLinkRepo(db *DB) *LinkRepo {
	return &LinkRepo{db: db}
}

// Insert persists a new link and returns it with its assigned ID. A slug
// collision (unique index violation) is reported as driven.ErrSlugTaken so
// racing creates surface as a conflict, not a generic failure.
func (r *LinkRepo) Insert(ctx context.Context, link model.ShareLink) (model.ShareLink, error) {
	repos, err := json.Marshal(link.Repos)
	if err != nil {
		return model.ShareLink{}, fmt.Errorf("marshal repos for link %s: %w", link.Slug, err)
	}

	const query = `
		INSERT INTO share_links (owner_id, slug, description, clicks, status, repos, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.Writer.ExecContext(ctx, query,
		link.OwnerID, link.Slug, link.Description, link.Clicks, string(link.Status),
		string(repos), link.CreatedAt.UTC().Format(time.RFC3339), link.ExpiresAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return model.ShareLink{}, fmt.Errorf("insert link %s: %w", link.Slug, driven.ErrSlugTaken)
		}
		return model.ShareLink{}, fmt.Errorf("insert link %s: %w", link.Slug, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.ShareLink{}, fmt.Errorf("last insert id for link %s: %w", link.Slug, err)
	}
	link.ID = id

	return link, nil
}

// Update rewrites the mutable fields of the link identified by link.ID.
func (r *LinkRepo) Update(ctx context.Context, link model.ShareLink) error {
	repos, err := json.Marshal(link.Repos)
	if err != nil {
		return fmt.Errorf("marshal repos for link %s: %w", link.Slug, err)
	}

	const query = `
		UPDATE share_links
		SET slug = ?, description = ?, status = ?, repos = ?, expires_at = ?
		WHERE id = ?`

	_, err = r.db.Writer.ExecContext(ctx, query,
		link.Slug, link.Description, string(link.Status), string(repos),
		link.ExpiresAt.UTC().Format(time.RFC3339), link.ID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return fmt.Errorf("update link %s: %w", link.Slug, driven.ErrSlugTaken)
		}
		return fmt.Errorf("update link %s: %w", link.Slug, err)
	}

	return nil
}

// GetBySlug retrieves a link by its public slug. Returns nil, nil if the
// slug is unknown.
func (r *LinkRepo) GetBySlug(ctx context.Context, slug string) (*model.ShareLink, error) {
	const query = `
		SELECT id, owner_id, slug, description, clicks, status, repos, created_at, expires_at
		FROM share_links WHERE slug = ?`

	link, err := scanShareLink(r.db.Reader.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get link %s: %w", slug, err)
	}

	return link, nil
}

// ListByOwner returns all links owned by ownerID, newest first.
func (r *LinkRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.ShareLink, error) {
	const query = `
		SELECT id, owner_id, slug, description, clicks, status, repos, created_at, expires_at
		FROM share_links WHERE owner_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Reader.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list links for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var links []model.ShareLink
	for rows.Next() {
		link, err := scanShareLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, *link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}

	return links, nil
}

// Delete removes the link with the given slug owned by ownerID. Returns
// driven.ErrLinkNotFound if no such link exists.
func (r *LinkRepo) Delete(ctx context.Context, ownerID, slug string) error {
	const query = `DELETE FROM share_links WHERE owner_id = ? AND slug = ?`

	res, err := r.db.Writer.ExecContext(ctx, query, ownerID, slug)
	if err != nil {
		return fmt.Errorf("delete link %s: %w", slug, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete link %s: %w", slug, driven.ErrLinkNotFound)
	}

	return nil
}

// MarkExpired flips the link to expired only while it is still active, so
// concurrent lazy-expiry reads commit the transition exactly once.
func (r *LinkRepo) MarkExpired(ctx context.Context, id int64) error {
	const query = `UPDATE share_links SET status = ? WHERE id = ? AND status = ?`

	_, err := r.db.Writer.ExecContext(ctx, query,
		string(model.LinkStatusExpired), id, string(model.LinkStatusActive))
	if err != nil {
		return fmt.Errorf("mark link %d expired: %w", id, err)
	}
	return nil
}

// SetStatus sets the link's status unconditionally.
func (r *LinkRepo) SetStatus(ctx context.Context, id int64, status model.LinkStatus) error {
	const query = `UPDATE share_links SET status = ? WHERE id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("set link %d status %s: %w", id, status, err)
	}
	return nil
}

// IncrementClicks adds one to the link's click counter.
func (r *LinkRepo) IncrementClicks(ctx context.Context, id int64) error {
	const query = `UPDATE share_links SET clicks = clicks + 1 WHERE id = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment clicks for link %d: %w", id, err)
	}
	return nil
}

func scanShareLink(s scanner) (*model.ShareLink, error) {
	var link model.ShareLink
	var status, repos, createdAt, expiresAt string

	if err := s.Scan(
		&link.ID, &link.OwnerID, &link.Slug, &link.Description, &link.Clicks,
		&status, &repos, &createdAt, &expiresAt,
	); err != nil {
		return nil, err
	}

	link.Status = model.LinkStatus(status)

	if err := json.Unmarshal([]byte(repos), &link.Repos); err != nil {
		return nil, fmt.Errorf("unmarshal repos for link %s: %w", link.Slug, err)
	}

	var err error
	if link.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at for link %s: %w", link.Slug, err)
	}
	if link.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at for link %s: %w", link.Slug, err)
	}

	return &link, nil
}
