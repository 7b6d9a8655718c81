package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/selfkeeper/internal/client/models"
	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"github.com/dmitrijs2005/selfkeeper/internal/logging"
	pb "github.com/dmitrijs2005/selfkeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.IdentityServiceClient
	logger      logging.Logger
}

type sessionKey struct{}

// withSession marks ctx so the interceptor authenticates the call as s.
func withSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func sessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the session's access token to calls made
// on behalf of a session. An expired token is refreshed once and the call
// is retried with the new one.
func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	s := sessionFromContext(ctx)
	if s == nil {
		return invoker(ctx, method, req, reply, cc, opts...)
	}

	token := s.currentAccessToken()
	err := invoker(withAccessToken(ctx, token), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if st.Code() != codes.Unauthenticated {
		return err
	}
	if st.Message() != common.ErrTokenExpired.Error() {
		return err
	}

	fresh, rerr := s.refresh(ctx, token)
	if rerr != nil {
		c.logger.Debug(ctx, "token refresh failed", "method", method, "error", rerr)
		return err
	}

	return invoker(withAccessToken(ctx, fresh), method, req, reply, cc, opts...)
}

// NewIdentityClient creates a client for the identity node at endpointURL.
// The connection is established lazily; extra dial options are appended.
func NewIdentityClient(endpointURL string, logger logging.Logger, opts ...grpc.DialOption) (*GRPCClient, error) {
	if logger == nil {
		logger = logging.Nop{}
	}
	c := &GRPCClient{endpointURL: endpointURL, logger: logger.With("module", "identity-client")}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(c.endpointURL, dialOpts...)
	if err != nil {
		return err
	}
	c.conn = conn
	c.client = pb.NewIdentityServiceClient(conn)
	return nil
}

// Establish runs the sign-in handshake for cred: it fetches a challenge for
// the credential's account, has the credential sign it, and exchanges the
// signature for a session.
func (c *GRPCClient) Establish(ctx context.Context, cred models.Credential) (*models.Identity, error) {
	ch, err := c.client.Challenge(ctx, &pb.ChallengeRequest{AccountID: cred.AccountID()})
	if err != nil {
		return nil, c.mapError(err)
	}

	sig, err := cred.Authenticate(ctx, ch.Message)
	if err != nil {
		return nil, fmt.Errorf("sign challenge: %w", err)
	}

	resp, err := c.client.Authenticate(ctx, &pb.AuthenticateRequest{ChallengeID: ch.ChallengeID, Signature: sig})
	if err != nil {
		return nil, c.mapError(err)
	}

	c.logger.Info(ctx, "session established", "did", resp.DID)

	s := &Session{
		c:            c,
		did:          resp.DID,
		accessToken:  resp.AccessToken,
		refreshToken: resp.RefreshToken,
	}
	return &models.Identity{ID: resp.DID, Records: s}, nil
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(ctx, &pb.PingRequest{})
	if err != nil {
		return c.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *GRPCClient) mapError(err error) error {
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated:
			return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
		case codes.PermissionDenied, codes.FailedPrecondition:
			return fmt.Errorf("%w: %s", ErrRejected, st.Message())
		case codes.InvalidArgument:
			if strings.Contains(st.Message(), common.ErrInvalidRecord.Error()) {
				return fmt.Errorf("%w: %s", ErrInvalidRecord, st.Message())
			}
			return fmt.Errorf("%w: %s", ErrRejected, st.Message())
		case codes.ResourceExhausted:
			return ErrRateLimited
		case codes.NotFound:
			return fmt.Errorf("%w: %s", ErrUnknownSchema, st.Message())
		case codes.Unavailable, codes.DeadlineExceeded:
			return ErrUnavailable
		case codes.Canceled:
			return context.Canceled
		}
	}
	return fmt.Errorf("rpc error: %w", err)
}
