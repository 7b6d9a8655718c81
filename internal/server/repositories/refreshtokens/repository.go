// Package refreshtokens declares the server-side repository contract for
// refresh tokens, with PostgreSQL and SQLite implementations.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking refresh tokens.
type Repository interface {
	// Create stores a new refresh token for subject with an expiry of now+validity.
	Create(ctx context.Context, subject string, token string, validity time.Duration) error

	// Find looks up a refresh token by its opaque token string.
	// It returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token. Deleting a missing token is not an error.
	Delete(ctx context.Context, token string) error
}
