package models

import "context"

// Credential proves control of a blockchain account to the identity network.
type Credential interface {
	// AccountID is the CAIP-10 account the credential speaks for.
	AccountID() string
	// Authenticate signs the challenge message issued by the network.
	Authenticate(ctx context.Context, message string) (string, error)
}

// RecordStore reads and partially updates records of one authenticated identity.
type RecordStore interface {
	GetRecord(ctx context.Context, schema string) (Record, error)
	MergeRecord(ctx context.Context, schema string, patch map[string]any) (Record, error)
}

// Revoker is implemented by record stores that hold a server-side session.
type Revoker interface {
	Revoke(ctx context.Context) error
}

// Identity is an authenticated identity: its DID and the capability to
// make record calls on its behalf.
type Identity struct {
	ID      string
	Records RecordStore
}
