// Package application contains the services orchestrating the credential
// vault, the remote repository gateway, and the shareable link lifecycle.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reposhare/reposhare/internal/crypto"
	"github.com/reposhare/reposhare/internal/domain/apperr"
	"github.com/reposhare/reposhare/internal/domain/model"
	"github.com/reposhare/reposhare/internal/domain/port/driven"
)

// VaultService stores third-party access tokens encrypted at rest and
// supplies them decrypted to outbound calls. The cipher key is derived once
// at startup and injected here; plaintext tokens never outlive the call
// stack of the operation that requested them.
type VaultService struct {
	creds  driven.CredentialStore
	cipher *crypto.Cipher
	logger *slog.Logger
}

// NewVaultService creates a VaultService.
func NewVaultService(creds driven.CredentialStore, cipher *crypto.Cipher, logger *slog.Logger) *VaultService {
	return &VaultService{
		creds:  creds,
		cipher: cipher,
		logger: logger,
	}
}

// Store encrypts token and upserts it for (ownerID, host). Repeated
// authorization overwrites the prior token and IV atomically.
func (s *VaultService) Store(ctx context.Context, ownerID, host, token string) error {
	iv, ciphertext, err := s.cipher.Encrypt(token)
	if err != nil {
		return fmt.Errorf("encrypt token for owner %s: %w", ownerID, err)
	}

	return s.creds.Upsert(ctx, model.Credential{
		OwnerID:    ownerID,
		Host:       host,
		IV:         iv,
		Ciphertext: ciphertext,
	})
}

// Fetch returns the decrypted token for (ownerID, host).
//
// A missing credential is Unauthorized("no credential") — the expected signal
// that the owner must (re-)authorize. A decryption failure means the stored
// credential is unusable; it is revoked before the CryptoFailure surfaces, so
// the next attempt fails fast with "no credential" instead of re-decrypting.
func (s *VaultService) Fetch(ctx context.Context, ownerID, host string) (string, error) {
	cred, err := s.creds.Get(ctx, ownerID, host)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", apperr.Unauthorized("no credential")
	}

	token, err := s.cipher.Decrypt(cred.IV, cred.Ciphertext)
	if err != nil {
		s.logger.Warn("credential decrypt failed, revoking",
			"owner", ownerID,
			"host", host,
			"error", err,
		)
		if delErr := s.creds.Delete(ctx, ownerID, host); delErr != nil {
			s.logger.Error("revoke after decrypt failure failed",
				"owner", ownerID,
				"host", host,
				"error", delErr,
			)
		}
		return "", apperr.CryptoFailure(err)
	}

	return token, nil
}

// Revoke deletes the credential for (ownerID, host). It models "the external
// grant was revoked out-of-band": the gateway calls it on observing a 401
// from the remote host, never in response to direct caller action.
func (s *VaultService) Revoke(ctx context.Context, ownerID, host string) error {
	return s.creds.Delete(ctx, ownerID, host)
}
