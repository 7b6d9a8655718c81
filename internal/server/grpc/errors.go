package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/selfkeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrInvalidAccountID, codes.InvalidArgument},
	{common.ErrInvalidRecord, codes.InvalidArgument},
	{common.ErrChallengeNotFound, codes.FailedPrecondition},
	{common.ErrSignatureMismatch, codes.PermissionDenied},
	{common.ErrRateLimited, codes.ResourceExhausted},
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrRefreshTokenExpired, codes.Unauthenticated},
	{common.ErrInvalidToken, codes.Unauthenticated},
	{common.ErrorUnauthorized, codes.Unauthenticated},
	{common.ErrUnknownSchema, codes.NotFound},
	{common.ErrVersionConflict, codes.Aborted},
	{context.Canceled, codes.Canceled},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
}

// toStatus maps service errors to gRPC statuses. Unknown errors are
// reported as a bare internal error and logged by the caller.
func toStatus(err error) (error, bool) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return status.Error(ec.code, err.Error()), true
		}
	}
	return status.Error(codes.Internal, common.ErrorInternal.Error()), false
}
