package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/selfkeeper/internal/caip"
	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/dmitrijs2005/selfkeeper/internal/dbx"
	"github.com/dmitrijs2005/selfkeeper/internal/logging"
	"github.com/dmitrijs2005/selfkeeper/internal/server/auth"
	"github.com/dmitrijs2005/selfkeeper/internal/server/challenges"
	"github.com/dmitrijs2005/selfkeeper/internal/server/config"
	"github.com/dmitrijs2005/selfkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/selfkeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/selfkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	StepChallenge    = "challenge"
	StepAuthenticate = "authenticate"
	StepRefresh      = "refresh"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Session is the result of a successful sign-in.
type Session struct {
	DID    string
	Tokens TokenPair
}

// SessionService provides the sign-in handshake:
//   - Challenge: issue a one-time sign-in message for an account
//   - Authenticate: check the signed message and mint a session
//   - RefreshToken: rotate refresh tokens and mint new access tokens
//   - Revoke: drop a refresh token
type SessionService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	challenges   *challenges.Store
	limiter      *ratelimit.MapLimiter
	observer     Observer
	logger       logging.Logger
	jwtSecret    []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	challengeTTL time.Duration
	domain       string
	chainID      uint64
	now          func() time.Time
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, store *challenges.Store,
	limiter *ratelimit.MapLimiter, observer Observer, logger logging.Logger, cfg *config.Config) (*SessionService, error) {

	chainID, err := caip.ChainID(cfg.Network)
	if err != nil {
		return nil, err
	}
	if observer == nil {
		observer = nopObserver{}
	}

	return &SessionService{
		db:           db,
		repomanager:  m,
		challenges:   store,
		limiter:      limiter,
		observer:     observer,
		logger:       logger.With("module", "session"),
		jwtSecret:    []byte(cfg.SecretKey),
		accessTTL:    cfg.AccessTokenTTL,
		refreshTTL:   cfg.RefreshTokenTTL,
		challengeTTL: cfg.ChallengeTTL,
		domain:       cfg.Domain,
		chainID:      chainID,
		now:          time.Now,
	}, nil
}

// Challenge issues a sign-in message for a CAIP-10 account on the node's chain.
func (s *SessionService) Challenge(ctx context.Context, accountID string) (*challenges.Challenge, error) {
	acct, err := caip.ParseAccountID(accountID)
	if err != nil {
		s.observer.ObserveHandshake(StepChallenge, metrics.ResultRejected)
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidAccountID, err)
	}
	if acct.ChainID != s.chainID {
		s.observer.ObserveHandshake(StepChallenge, metrics.ResultRejected)
		return nil, fmt.Errorf("%w: chain %d is not served here", common.ErrInvalidAccountID, acct.ChainID)
	}

	now := s.now()
	if !s.limiter.Allow(acct.String(), now) {
		s.observer.ObserveHandshake(StepChallenge, metrics.ResultRejected)
		return nil, common.ErrRateLimited
	}

	nonce, err := common.MakeRandHexString(16)
	if err != nil {
		s.observer.ObserveHandshake(StepChallenge, metrics.ResultError)
		return nil, common.ErrorInternal
	}

	msg := auth.NewSignInMessage(s.domain, acct, nonce, now, s.challengeTTL)
	ch := challenges.Challenge{
		ID:        uuid.NewString(),
		Account:   acct,
		Message:   msg.String(),
		ExpiresAt: msg.ExpirationTime,
	}
	s.challenges.Put(ch)

	s.observer.ObserveHandshake(StepChallenge, metrics.ResultOK)
	s.logger.Debug(ctx, "challenge issued", "account", acct.String(), "challenge_id", ch.ID)
	return &ch, nil
}

// Authenticate consumes a challenge and, if signature was made by the
// challenged account, returns the account's DID with a fresh token pair.
func (s *SessionService) Authenticate(ctx context.Context, challengeID string, signature string) (*Session, error) {
	ch, err := s.challenges.Take(challengeID)
	if err != nil {
		s.observer.ObserveHandshake(StepAuthenticate, metrics.ResultRejected)
		return nil, err
	}

	now := s.now()
	if !s.limiter.Allow(ch.Account.String(), now) {
		s.observer.ObserveHandshake(StepAuthenticate, metrics.ResultRejected)
		return nil, common.ErrRateLimited
	}
	if now.After(ch.ExpiresAt) {
		s.observer.ObserveHandshake(StepAuthenticate, metrics.ResultRejected)
		return nil, common.ErrChallengeNotFound
	}

	if err := auth.VerifySignature(ch.Message, signature, ch.Account.Address); err != nil {
		s.observer.ObserveHandshake(StepAuthenticate, metrics.ResultRejected)
		s.logger.Info(ctx, "signature rejected", "account", ch.Account.String())
		return nil, err
	}

	did := ch.Account.DID()
	pair, err := s.generateTokenPair(ctx, did, s.db)
	if err != nil {
		s.observer.ObserveHandshake(StepAuthenticate, metrics.ResultError)
		return nil, err
	}

	s.observer.ObserveHandshake(StepAuthenticate, metrics.ResultOK)
	s.logger.Info(ctx, "session established", "did", did)
	return &Session{DID: did, Tokens: *pair}, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *SessionService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		s.observer.ObserveHandshake(StepRefresh, metrics.ResultRejected)
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(s.now()) {
		s.observer.ObserveHandshake(StepRefresh, metrics.ResultRejected)
		_ = repo.Delete(ctx, refreshToken)
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.Subject, tx)
		return genErr
	}); err != nil {
		s.observer.ObserveHandshake(StepRefresh, metrics.ResultError)
		return nil, err
	}

	s.observer.ObserveHandshake(StepRefresh, metrics.ResultOK)
	return pair, nil
}

// Revoke forgets a refresh token. Unknown tokens are not an error.
func (s *SessionService) Revoke(ctx context.Context, refreshToken string) error {
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	return nil
}

func (s *SessionService) generateTokenPair(ctx context.Context, did string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(did, s.jwtSecret, s.accessTTL)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, did, refresh, s.refreshTTL); err != nil {
		s.logger.Error(ctx, "storing refresh token failed", "error", err)
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
