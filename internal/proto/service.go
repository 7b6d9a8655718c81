package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "selfkeeper.identity.v1.IdentityService"

const (
	MethodChallenge    = "/" + ServiceName + "/Challenge"
	MethodAuthenticate = "/" + ServiceName + "/Authenticate"
	MethodRefreshToken = "/" + ServiceName + "/RefreshToken"
	MethodRevoke       = "/" + ServiceName + "/Revoke"
	MethodGetRecord    = "/" + ServiceName + "/GetRecord"
	MethodMergeRecord  = "/" + ServiceName + "/MergeRecord"
	MethodPing         = "/" + ServiceName + "/Ping"
)

// IdentityServiceServer is the server API of the identity network node.
type IdentityServiceServer interface {
	Challenge(context.Context, *ChallengeRequest) (*ChallengeResponse, error)
	Authenticate(context.Context, *AuthenticateRequest) (*AuthenticateResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Revoke(context.Context, *RevokeRequest) (*RevokeResponse, error)
	GetRecord(context.Context, *GetRecordRequest) (*GetRecordResponse, error)
	MergeRecord(context.Context, *MergeRecordRequest) (*MergeRecordResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// UnimplementedIdentityServiceServer can be embedded to stay forward compatible.
type UnimplementedIdentityServiceServer struct{}

func (UnimplementedIdentityServiceServer) Challenge(context.Context, *ChallengeRequest) (*ChallengeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Challenge not implemented")
}
func (UnimplementedIdentityServiceServer) Authenticate(context.Context, *AuthenticateRequest) (*AuthenticateResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Authenticate not implemented")
}
func (UnimplementedIdentityServiceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedIdentityServiceServer) Revoke(context.Context, *RevokeRequest) (*RevokeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Revoke not implemented")
}
func (UnimplementedIdentityServiceServer) GetRecord(context.Context, *GetRecordRequest) (*GetRecordResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetRecord not implemented")
}
func (UnimplementedIdentityServiceServer) MergeRecord(context.Context, *MergeRecordRequest) (*MergeRecordResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MergeRecord not implemented")
}
func (UnimplementedIdentityServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

// unary adapts a typed server method to grpc.MethodHandler.
func unary[Req any, Resp any](fullMethod string, call func(IdentityServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(IdentityServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(IdentityServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var IdentityServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Challenge", Handler: unary(MethodChallenge, IdentityServiceServer.Challenge)},
		{MethodName: "Authenticate", Handler: unary(MethodAuthenticate, IdentityServiceServer.Authenticate)},
		{MethodName: "RefreshToken", Handler: unary(MethodRefreshToken, IdentityServiceServer.RefreshToken)},
		{MethodName: "Revoke", Handler: unary(MethodRevoke, IdentityServiceServer.Revoke)},
		{MethodName: "GetRecord", Handler: unary(MethodGetRecord, IdentityServiceServer.GetRecord)},
		{MethodName: "MergeRecord", Handler: unary(MethodMergeRecord, IdentityServiceServer.MergeRecord)},
		{MethodName: "Ping", Handler: unary(MethodPing, IdentityServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "selfkeeper/identity/v1",
}

func RegisterIdentityServiceServer(s grpc.ServiceRegistrar, srv IdentityServiceServer) {
	s.RegisterService(&IdentityServiceDesc, srv)
}

// IdentityServiceClient is the client API of the identity network node.
type IdentityServiceClient interface {
	Challenge(ctx context.Context, in *ChallengeRequest, opts ...grpc.CallOption) (*ChallengeResponse, error)
	Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*AuthenticateResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error)
	Revoke(ctx context.Context, in *RevokeRequest, opts ...grpc.CallOption) (*RevokeResponse, error)
	GetRecord(ctx context.Context, in *GetRecordRequest, opts ...grpc.CallOption) (*GetRecordResponse, error)
	MergeRecord(ctx context.Context, in *MergeRecordRequest, opts ...grpc.CallOption) (*MergeRecordResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
}

type identityServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewIdentityServiceClient returns a client that always uses the JSON codec.
func NewIdentityServiceClient(cc grpc.ClientConnInterface) IdentityServiceClient {
	return &identityServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *identityServiceClient) Challenge(ctx context.Context, in *ChallengeRequest, opts ...grpc.CallOption) (*ChallengeResponse, error) {
	return invoke[ChallengeResponse](ctx, c.cc, MethodChallenge, in, opts)
}

func (c *identityServiceClient) Authenticate(ctx context.Context, in *AuthenticateRequest, opts ...grpc.CallOption) (*AuthenticateResponse, error) {
	return invoke[AuthenticateResponse](ctx, c.cc, MethodAuthenticate, in, opts)
}

func (c *identityServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *identityServiceClient) Revoke(ctx context.Context, in *RevokeRequest, opts ...grpc.CallOption) (*RevokeResponse, error) {
	return invoke[RevokeResponse](ctx, c.cc, MethodRevoke, in, opts)
}

func (c *identityServiceClient) GetRecord(ctx context.Context, in *GetRecordRequest, opts ...grpc.CallOption) (*GetRecordResponse, error) {
	return invoke[GetRecordResponse](ctx, c.cc, MethodGetRecord, in, opts)
}

func (c *identityServiceClient) MergeRecord(ctx context.Context, in *MergeRecordRequest, opts ...grpc.CallOption) (*MergeRecordResponse, error) {
	return invoke[MergeRecordResponse](ctx, c.cc, MethodMergeRecord, in, opts)
}

func (c *identityServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}
