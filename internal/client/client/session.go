package client

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/selfkeeper/internal/client/models"
	pb "github.com/dmitrijs2005/selfkeeper/internal/proto"
)

// Session is an authenticated identity session. It implements
// models.RecordStore and models.Revoker.
type Session struct {
	c   *GRPCClient
	did string

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	revoked      bool
}

func (s *Session) DID() string {
	return s.did
}

func (s *Session) currentAccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken
}

// refresh rotates the token pair unless another call already replaced stale.
func (s *Session) refresh(ctx context.Context, stale string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.revoked {
		return "", ErrNotSignedIn
	}
	if s.accessToken != stale {
		return s.accessToken, nil
	}
	if s.refreshToken == "" {
		return "", ErrUnauthorized
	}

	// RefreshToken must not go through the session branch of the interceptor.
	resp, err := s.c.client.RefreshToken(withSession(ctx, nil), &pb.RefreshTokenRequest{RefreshToken: s.refreshToken})
	if err != nil {
		return "", s.c.mapError(err)
	}

	s.accessToken = resp.AccessToken
	s.refreshToken = resp.RefreshToken
	return s.accessToken, nil
}

func (s *Session) checkActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.revoked {
		return ErrNotSignedIn
	}
	return nil
}

func (s *Session) GetRecord(ctx context.Context, schema string) (models.Record, error) {
	if err := s.checkActive(); err != nil {
		return models.Record{}, err
	}

	resp, err := s.c.client.GetRecord(withSession(ctx, s), &pb.GetRecordRequest{Schema: schema})
	if err != nil {
		return models.Record{}, s.c.mapError(err)
	}
	return fromWire(resp.Record), nil
}

func (s *Session) MergeRecord(ctx context.Context, schema string, patch map[string]any) (models.Record, error) {
	if err := s.checkActive(); err != nil {
		return models.Record{}, err
	}

	resp, err := s.c.client.MergeRecord(withSession(ctx, s), &pb.MergeRecordRequest{Schema: schema, Patch: patch})
	if err != nil {
		return models.Record{}, s.c.mapError(err)
	}
	return fromWire(resp.Record), nil
}

// Revoke ends the session on the server. It is idempotent; after it the
// session refuses record calls.
func (s *Session) Revoke(ctx context.Context) error {
	s.mu.Lock()
	if s.revoked {
		s.mu.Unlock()
		return nil
	}
	refresh := s.refreshToken
	s.revoked = true
	s.accessToken = ""
	s.refreshToken = ""
	s.mu.Unlock()

	if refresh == "" {
		return nil
	}
	if _, err := s.c.client.Revoke(ctx, &pb.RevokeRequest{RefreshToken: refresh}); err != nil {
		return s.c.mapError(err)
	}
	return nil
}

func fromWire(r pb.Record) models.Record {
	rec := models.Record{StreamID: r.StreamID, Version: r.Version}
	if r.Exists {
		rec.Content = r.Content
		if rec.Content == nil {
			rec.Content = map[string]any{}
		}
	}
	return rec
}
