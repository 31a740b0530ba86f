package model

import "time"

// LinkStatus is the lifecycle state of a shareable link.
type LinkStatus string

const (
	// LinkStatusActive means the link is live and publicly resolvable.
	LinkStatusActive LinkStatus = "active"
	// LinkStatusDeactivated means the owner switched the link off. One-way.
	LinkStatusDeactivated LinkStatus = "deactivated"
	// LinkStatusExpired means the expiry time passed. Set lazily on read.
	LinkStatusExpired LinkStatus = "expired"
)

// DefaultLinkTTL is the lifetime of a link when the owner supplies no expiry.
const DefaultLinkTTL = 7 * 24 * time.Hour

// ScopedRepo is one entry of a link's resource scope: a snapshot of a
// repository the owner could share at creation/update time.
type ScopedRepo struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
}

// ShareLink is a revocable, expiring grant to browse a fixed set of the
// owner's repositories. Repos is an ordered snapshot validated against the
// owner's live listing whenever it is set; it is never empty on a persisted
// link. Slug is globally unique.
type ShareLink struct {
	ID          int64
	OwnerID     string
	Slug        string
	Description string
	Clicks      int64
	Status      LinkStatus
	Repos       []ScopedRepo
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// TimeExpired reports whether the link's expiry has passed at now,
// independent of its persisted status.
func (l *ShareLink) TimeExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// Repo returns the scoped repository with the given remote id, or nil when
// the id is not part of this link's snapshot.
func (l *ShareLink) Repo(id int64) *ScopedRepo {
	for i := range l.Repos {
		if l.Repos[i].ID == id {
			return &l.Repos[i]
		}
	}
	return nil
}
