package application

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reposhare/reposhare/internal/crypto"
	"github.com/reposhare/reposhare/internal/domain/model"
	"github.com/reposhare/reposhare/internal/domain/port/driven"
)

// --- Mock implementations ---

type mockCredStore struct {
	creds   map[string]model.Credential // keyed owner|host
	getErr  error
	deletes []string
}

func newMockCredStore() *mockCredStore {
	return &mockCredStore{creds: make(map[string]model.Credential)}
}

func credKey(ownerID, host string) string { return ownerID + "|" + host }

func (m *mockCredStore) Upsert(_ context.Context, cred model.Credential) error {
	m.creds[credKey(cred.OwnerID, cred.Host)] = cred
	return nil
}

func (m *mockCredStore) Get(_ context.Context, ownerID, host string) (*model.Credential, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	cred, ok := m.creds[credKey(ownerID, host)]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (m *mockCredStore) Delete(_ context.Context, ownerID, host string) error {
	key := credKey(ownerID, host)
	delete(m.creds, key)
	m.deletes = append(m.deletes, key)
	return nil
}

type mockGitHub struct {
	exchangeToken string
	exchangeErr   error
	repos         []model.RemoteRepo
	listErr       error
	content       *model.RepoContent
	contentErr    error
	listCalls     int
	lastToken     string
}

func (m *mockGitHub) ExchangeCode(_ context.Context, _ string) (string, error) {
	return m.exchangeToken, m.exchangeErr
}

func (m *mockGitHub) ListRepositories(_ context.Context, token string) ([]model.RemoteRepo, error) {
	m.listCalls++
	m.lastToken = token
	return m.repos, m.listErr
}

func (m *mockGitHub) FetchContents(_ context.Context, token, _, _ string) (*model.RepoContent, error) {
	m.lastToken = token
	return m.content, m.contentErr
}

type mockLinkStore struct {
	links     map[string]*model.ShareLink // by slug
	nextID    int64
	insertErr error
	updateErr error
}

func newMockLinkStore() *mockLinkStore {
	return &mockLinkStore{links: make(map[string]*model.ShareLink)}
}

func (m *mockLinkStore) Insert(_ context.Context, link model.ShareLink) (model.ShareLink, error) {
	if m.insertErr != nil {
		return model.ShareLink{}, m.insertErr
	}
	if _, taken := m.links[link.Slug]; taken {
		return model.ShareLink{}, driven.ErrSlugTaken
	}
	m.nextID++
	link.ID = m.nextID
	m.links[link.Slug] = &link
	return link, nil
}

func (m *mockLinkStore) Update(_ context.Context, link model.ShareLink) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if existing, taken := m.links[link.Slug]; taken && existing.ID != link.ID {
		return driven.ErrSlugTaken
	}
	for slug, l := range m.links {
		if l.ID == link.ID {
			delete(m.links, slug)
			break
		}
	}
	m.links[link.Slug] = &link
	return nil
}

func (m *mockLinkStore) GetBySlug(_ context.Context, slug string) (*model.ShareLink, error) {
	link, ok := m.links[slug]
	if !ok {
		return nil, nil
	}
	copied := *link
	return &copied, nil
}

func (m *mockLinkStore) ListByOwner(_ context.Context, ownerID string) ([]model.ShareLink, error) {
	var out []model.ShareLink
	for _, link := range m.links {
		if link.OwnerID == ownerID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (m *mockLinkStore) Delete(_ context.Context, ownerID, slug string) error {
	link, ok := m.links[slug]
	if !ok || link.OwnerID != ownerID {
		return fmt.Errorf("delete link %s: %w", slug, driven.ErrLinkNotFound)
	}
	delete(m.links, slug)
	return nil
}

func (m *mockLinkStore) MarkExpired(_ context.Context, id int64) error {
	for _, link := range m.links {
		if link.ID == id && link.Status == model.LinkStatusActive {
			link.Status = model.LinkStatusExpired
		}
	}
	return nil
}

func (m *mockLinkStore) SetStatus(_ context.Context, id int64, status model.LinkStatus) error {
	for _, link := range m.links {
		if link.ID == id {
			link.Status = status
		}
	}
	return nil
}

func (m *mockLinkStore) IncrementClicks(_ context.Context, id int64) error {
	for _, link := range m.links {
		if link.ID == id {
			link.Clicks++
		}
	}
	return nil
}

// Compile-time checks that the mocks satisfy the ports.
var (
	_ driven.CredentialStore = (*mockCredStore)(nil)
	_ driven.GitHubClient    = (*mockGitHub)(nil)
	_ driven.LinkStore       = (*mockLinkStore)(nil)
)

// --- Shared fixtures ---

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testCipher(t *testing.T) *crypto.Cipher {
	t.Helper()
	c, err := crypto.New("test-secret")
	require.NoError(t, err)
	return c
}

// fixedClock pins a LinkService to a settable time for expiry tests.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }
