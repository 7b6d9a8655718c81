package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/selfkeeper/internal/proto"
	"github.com/dmitrijs2005/selfkeeper/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) fail(ctx context.Context, method string, err error) error {
	st, known := toStatus(err)
	if !known {
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
	}
	return st
}

func (s *GRPCServer) Challenge(ctx context.Context, req *pb.ChallengeRequest) (*pb.ChallengeResponse, error) {
	ch, err := s.sessions.Challenge(ctx, req.AccountID)
	if err != nil {
		return nil, s.fail(ctx, "Challenge", err)
	}
	return &pb.ChallengeResponse{ChallengeID: ch.ID, Message: ch.Message, ExpiresAt: ch.ExpiresAt}, nil
}

func (s *GRPCServer) Authenticate(ctx context.Context, req *pb.AuthenticateRequest) (*pb.AuthenticateResponse, error) {
	if req.ChallengeID == "" || req.Signature == "" {
		return nil, status.Error(codes.InvalidArgument, "challenge id and signature are required")
	}

	sess, err := s.sessions.Authenticate(ctx, req.ChallengeID, req.Signature)
	if err != nil {
		return nil, s.fail(ctx, "Authenticate", err)
	}

	s.logger.Info(ctx, "Authenticated", "did", sess.DID)
	return &pb.AuthenticateResponse{
		DID:          sess.DID,
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
	}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *pb.RefreshTokenRequest) (*pb.RefreshTokenResponse, error) {
	pair, err := s.sessions.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.fail(ctx, "RefreshToken", err)
	}
	return &pb.RefreshTokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *GRPCServer) Revoke(ctx context.Context, req *pb.RevokeRequest) (*pb.RevokeResponse, error) {
	if req.RefreshToken == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token is required")
	}
	if err := s.sessions.Revoke(ctx, req.RefreshToken); err != nil {
		return nil, s.fail(ctx, "Revoke", err)
	}
	return &pb.RevokeResponse{}, nil
}

func (s *GRPCServer) GetRecord(ctx context.Context, req *pb.GetRecordRequest) (*pb.GetRecordResponse, error) {
	did, ok := didFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	rec, err := s.records.Get(ctx, did, req.Schema)
	if err != nil {
		return nil, s.fail(ctx, "GetRecord", err)
	}
	return &pb.GetRecordResponse{Record: toWire(rec)}, nil
}

func (s *GRPCServer) MergeRecord(ctx context.Context, req *pb.MergeRecordRequest) (*pb.MergeRecordResponse, error) {
	did, ok := didFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}
	if req.Patch == nil {
		return nil, status.Error(codes.InvalidArgument, "patch is required")
	}

	rec, err := s.records.Merge(ctx, did, req.Schema, req.Patch)
	if err != nil {
		return nil, s.fail(ctx, "MergeRecord", err)
	}

	s.logger.Info(ctx, "Record merged", "did", did, "schema", req.Schema, "version", rec.Version)
	return &pb.MergeRecordResponse{Record: toWire(rec)}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: "OK"}, nil
}

func toWire(rec *models.Record) pb.Record {
	return pb.Record{
		StreamID: rec.StreamID,
		Exists:   rec.Version > 0,
		Content:  rec.Content,
		Version:  rec.Version,
	}
}
