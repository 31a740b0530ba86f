package driven

import (
	"context"
	"errors"

	"github.com/reposhare/reposhare/internal/domain/model"
)

// ErrRemoteUnauthorized indicates the remote host rejected the supplied
// token (HTTP 401). The gateway reacts by revoking the vaulted credential;
// the adapter only classifies.
var ErrRemoteUnauthorized = errors.New("remote host rejected token")

// GitHubClient defines the driven port for the remote source-hosting API.
// Methods take the plaintext token per call because tokens are owned per
// user and supplied by the Vault, never held by the adapter.
type GitHubClient interface {
	// ExchangeCode trades an OAuth authorization code for an access token.
	ExchangeCode(ctx context.Context, code string) (string, error)

	// ListRepositories returns the full repository listing visible to the
	// token's user, projected to {id, full_name}. The listing is
	// materialized because scope validation needs random access by id.
	ListRepositories(ctx context.Context, token string) ([]model.RemoteRepo, error)

	// FetchContents returns the contents at path in the given repository:
	// a directory listing, or file text with base64 payloads already decoded.
	FetchContents(ctx context.Context, token, repoFullName, path string) (*model.RepoContent, error)
}
