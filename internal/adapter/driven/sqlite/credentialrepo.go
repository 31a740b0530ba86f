package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reposhare/reposhare/internal/domain/model"
	"github.com/reposhare/reposhare/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port
// interface. Rows hold the hex IV and ciphertext produced by the Vault;
// this adapter never sees plaintext.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Upsert stores or replaces the credential for (cred.OwnerID, cred.Host).
// Token and IV are written atomically in a single statement.
func (r *CredentialRepo) Upsert(ctx context.Context, cred model.Credential) error {
	const query = `
		INSERT INTO credentials (owner_id, host, iv, ciphertext, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (owner_id, host) DO UPDATE SET
			iv = excluded.iv,
			ciphertext = excluded.ciphertext,
			updated_at = CURRENT_TIMESTAMP`

	_, err := r.db.Writer.ExecContext(ctx, query, cred.OwnerID, cred.Host, cred.IV, cred.Ciphertext)
	if err != nil {
		return fmt.Errorf("upsert credential for owner %s host %s: %w", cred.OwnerID, cred.Host, err)
	}
	return nil
}

// Get retrieves the credential for (ownerID, host). Returns nil, nil if no
// credential exists.
func (r *CredentialRepo) Get(ctx context.Context, ownerID, host string) (*model.Credential, error) {
	const query = `
		SELECT id, owner_id, host, iv, ciphertext, updated_at
		FROM credentials WHERE owner_id = ? AND host = ?`

	var cred model.Credential
	var updatedAt string
	err := r.db.Reader.QueryRowContext(ctx, query, ownerID, host).Scan(
		&cred.ID, &cred.OwnerID, &cred.Host, &cred.IV, &cred.Ciphertext, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential for owner %s host %s: %w", ownerID, host, err)
	}

	cred.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at for credential owner %s: %w", ownerID, err)
	}

	return &cred, nil
}

// Delete removes the credential for (ownerID, host). Deleting a nonexistent
// credential is a no-op.
func (r *CredentialRepo) Delete(ctx context.Context, ownerID, host string) error {
	const query = `DELETE FROM credentials WHERE owner_id = ? AND host = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, ownerID, host)
	if err != nil {
		return fmt.Errorf("delete credential for owner %s host %s: %w", ownerID, host, err)
	}
	return nil
}
