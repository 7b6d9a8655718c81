package client

import (
	"context"

	"github.com/dmitrijs2005/selfkeeper/internal/client/models"
)

// Client is the identity network as seen by the CLI.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Establish(ctx context.Context, cred models.Credential) (*models.Identity, error)
}
var _ Client = (*GRPCClient)(nil)
