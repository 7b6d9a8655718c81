package grpc

import (
	"context"

	"github.com/dmitrijs2005/selfkeeper/internal/server/challenges"
	"github.com/dmitrijs2005/selfkeeper/internal/server/models"
	"github.com/dmitrijs2005/selfkeeper/internal/server/services"
)

type fakeSessions struct {
	challenge    *challenges.Challenge
	challengeErr error
	session      *services.Session
	authErr      error
	pair         *services.TokenPair
	refreshErr   error
	revokeErr    error
	revoked      []string
}

func (f *fakeSessions) Challenge(ctx context.Context, accountID string) (*challenges.Challenge, error) {
	return f.challenge, f.challengeErr
}

func (f *fakeSessions) Authenticate(ctx context.Context, challengeID, signature string) (*services.Session, error) {
	return f.session, f.authErr
}

func (f *fakeSessions) RefreshToken(ctx context.Context, token string) (*services.TokenPair, error) {
	return f.pair, f.refreshErr
}

func (f *fakeSessions) Revoke(ctx context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return f.revokeErr
}

type fakeRecords struct {
	rec        *models.Record
	err        error
	gotDID     string
	gotSchema  string
	gotPatch   map[string]any
	mergeCalls int
}

func (f *fakeRecords) Get(ctx context.Context, controller, schemaName string) (*models.Record, error) {
	f.gotDID, f.gotSchema = controller, schemaName
	return f.rec, f.err
}

func (f *fakeRecords) Merge(ctx context.Context, controller, schemaName string, patch map[string]any) (*models.Record, error) {
	f.gotDID, f.gotSchema, f.gotPatch = controller, schemaName, patch
	f.mergeCalls++
	return f.rec, f.err
}
