// Package grpc exposes the identity node over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/selfkeeper/internal/logging"
	pb "github.com/dmitrijs2005/selfkeeper/internal/proto"
	"github.com/dmitrijs2005/selfkeeper/internal/server/challenges"
	"github.com/dmitrijs2005/selfkeeper/internal/server/models"
	"github.com/dmitrijs2005/selfkeeper/internal/server/services"
	"google.golang.org/grpc"
)

// SessionAPI is the sign-in side of the node, implemented by services.SessionService.
type SessionAPI interface {
	Challenge(ctx context.Context, accountID string) (*challenges.Challenge, error)
	Authenticate(ctx context.Context, challengeID string, signature string) (*services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Revoke(ctx context.Context, refreshToken string) error
}

// RecordAPI is the record side of the node, implemented by services.RecordService.
type RecordAPI interface {
	Get(ctx context.Context, controller, schemaName string) (*models.Record, error)
	Merge(ctx context.Context, controller, schemaName string, patch map[string]any) (*models.Record, error)
}

type GRPCServer struct {
	pb.UnimplementedIdentityServiceServer
	address      string
	sessions     SessionAPI
	records      RecordAPI
	logger       logging.Logger
	jwtSecret    []byte
	interceptors []grpc.UnaryServerInterceptor
}

// NewGRPCServer wires the handlers. Extra interceptors run before the
// access token check, so they observe rejected calls too.
func NewGRPCServer(address string, l logging.Logger, sessions SessionAPI, records RecordAPI,
	secretKey string, interceptors ...grpc.UnaryServerInterceptor) *GRPCServer {
	return &GRPCServer{
		address:      address,
		logger:       l.With("module", "grpc_server"),
		sessions:     sessions,
		records:      records,
		jwtSecret:    []byte(secretKey),
		interceptors: interceptors,
	}
}

// NewServer builds a *grpc.Server with the service registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	chain := append(append([]grpc.UnaryServerInterceptor{}, s.interceptors...), s.accessTokenInterceptor)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(chain...))
	pb.RegisterIdentityServiceServer(srv, s)
	return srv
}

// Run listens on the configured address until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
