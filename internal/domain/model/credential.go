package model

import "time"

// HostGitHub identifies the GitHub remote host in credential records.
// Host is a column, not a constant baked into queries, so additional remote
// hosts can be supported without a schema change.
const HostGitHub = "github"

// Credential holds an owner's encrypted access token for a remote host.
// The plaintext token exists only inside the Vault's decrypt call; IV and
// Ciphertext are hex-encoded, produced by the crypto package.
type Credential struct {
	ID         int64
	OwnerID    string
	Host       string
	IV         string
	Ciphertext string
	UpdatedAt  time.Time
}
