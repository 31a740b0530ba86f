package driven

import (
	"context"

	"github.com/reposhare/reposhare/internal/domain/model"
)

// CredentialStore defines the driven port for encrypted credential
// persistence. The store holds ciphertext only; encryption and decryption
// happen in the Vault service above it.
type CredentialStore interface {
	// Upsert stores or atomically replaces the credential for
	// (cred.OwnerID, cred.Host). Token and IV are written in a single
	// document write.
	Upsert(ctx context.Context, cred model.Credential) error

	// Get retrieves the credential for (ownerID, host).
	// Returns nil, nil if no credential exists.
	Get(ctx context.Context, ownerID, host string) (*model.Credential, error)

	// Delete removes the credential for (ownerID, host). Deleting a
	// nonexistent credential is not an error.
	Delete(ctx context.Context, ownerID, host string) error
}
