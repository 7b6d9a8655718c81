package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/selfkeeper/internal/common"
	pb "github.com/dmitrijs2005/selfkeeper/internal/proto"
	"github.com/dmitrijs2005/selfkeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const didKey ctxKey = "did"

// protectedMethods need a valid access token.
var protectedMethods = map[string]bool{
	pb.MethodGetRecord:   true,
	pb.MethodMergeRecord: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	did, err := auth.GetDIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		// clients refresh on exactly this message
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	}

	return handler(context.WithValue(ctx, didKey, did), req)
}

func didFromContext(ctx context.Context) (string, bool) {
	did, ok := ctx.Value(didKey).(string)
	return did, ok && did != ""
}
