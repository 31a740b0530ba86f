package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/reposhare/reposhare/internal/domain/apperr"
	"github.com/reposhare/reposhare/internal/domain/model"
	"github.com/reposhare/reposhare/internal/domain/port/driven"
)

// GatewayService fetches live repository data from the remote host on behalf
// of an owner, supplying the owner's vaulted token to each call. A 401 from
// the remote host revokes the vaulted credential before the failure
// surfaces; no call is ever retried.
type GatewayService struct {
	vault  *VaultService
	github driven.GitHubClient
	logger *slog.Logger
}

// NewGatewayService creates a GatewayService.
func NewGatewayService(vault *VaultService, github driven.GitHubClient, logger *slog.Logger) *GatewayService {
	return &GatewayService{
		vault:  vault,
		github: github,
		logger: logger,
	}
}

// Authorize exchanges an OAuth authorization code for an access token and
// stores it in the vault. Called once per (re-)authorization.
func (s *GatewayService) Authorize(ctx context.Context, ownerID, code string) error {
	token, err := s.github.ExchangeCode(ctx, code)
	if err != nil {
		return apperr.BadGateway("error getting auth token").WithCause(err)
	}

	if err := s.vault.Store(ctx, ownerID, model.HostGitHub, token); err != nil {
		return err
	}

	s.logger.Info("remote account authorized", "owner", ownerID, "host", model.HostGitHub)
	return nil
}

// ListRepositories returns the owner's live repository listing projected to
// {id, full_name}. The listing is fully materialized because scope
// validation needs random access by id.
func (s *GatewayService) ListRepositories(ctx context.Context, ownerID string) ([]model.RemoteRepo, error) {
	token, err := s.vault.Fetch(ctx, ownerID, model.HostGitHub)
	if err != nil {
		return nil, err
	}

	repos, err := s.github.ListRepositories(ctx, token)
	if err != nil {
		return nil, s.classify(ctx, ownerID, err)
	}

	return repos, nil
}

// FetchContent returns the contents at path in the given repository, fetched
// with the owner's vaulted token: a directory listing or decoded file text.
func (s *GatewayService) FetchContent(ctx context.Context, ownerID, repoFullName, path string) (*model.RepoContent, error) {
	token, err := s.vault.Fetch(ctx, ownerID, model.HostGitHub)
	if err != nil {
		return nil, err
	}

	content, err := s.github.FetchContents(ctx, token, repoFullName, path)
	if err != nil {
		return nil, s.classify(ctx, ownerID, err)
	}

	return content, nil
}

// classify maps remote failures to the domain taxonomy. A 401 means the
// external grant was revoked out-of-band: the vaulted credential is deleted
// so the next attempt fails fast with "no credential", and the caller is
// told to re-authorize. Everything else is an upstream failure.
func (s *GatewayService) classify(ctx context.Context, ownerID string, err error) error {
	if errors.Is(err, driven.ErrRemoteUnauthorized) {
		s.logger.Warn("remote host rejected token, revoking credential", "owner", ownerID)
		if revErr := s.vault.Revoke(ctx, ownerID, model.HostGitHub); revErr != nil {
			s.logger.Error("revoke after remote 401 failed", "owner", ownerID, "error", revErr)
		}
		return apperr.Unauthorized("token expired / revoked").WithCause(err)
	}

	return apperr.BadGateway("upstream request failed").WithCause(err)
}
