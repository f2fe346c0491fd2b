package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "gophauth.v1.AuthInternalService"

// TokenVerifier is the part of services.AuthService other backends call.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthInternalService is served without generated stubs; messages travel as
// structpb.Struct.
type AuthInternalService interface {
	VerifyToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

type AuthInternalServer struct {
	verifier TokenVerifier
}

func NewAuthInternalServer(v TokenVerifier) *AuthInternalServer {
	return &AuthInternalServer{verifier: v}
}

func Register(server grpc.ServiceRegistrar, svc AuthInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*AuthInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "VerifyToken", Handler: verifyTokenHandler(svc)},
			{MethodName: "Ping", Handler: pingHandler(svc)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "gophauth/v1/auth_internal.proto",
	}, svc)
}

func (s *AuthInternalServer) VerifyToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	token := req.GetFields()["token"].GetStringValue()
	if token == "" {
		return nil, status.Error(codes.InvalidArgument, "missing token")
	}

	claims, err := s.verifier.VerifyToken(ctx, token)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrMissingToken):
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	default:
		return nil, status.Error(codes.Internal, "unexpected error")
	}

	var expiresAt int64
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Unix()
	}

	resp, err := structpb.NewStruct(map[string]any{
		"valid":      true,
		"email":      claims.Email(),
		"expires_at": expiresAt,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *AuthInternalServer) Ping(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"status": "OK"})
}

type unaryHandler = grpc.MethodHandler

func unary[Req any, PReq interface {
	*Req
}](method string, call func(context.Context, PReq) (*structpb.Struct, error)) unaryHandler {
	fullMethod := "/" + serviceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := PReq(new(Req))
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(PReq)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}

func verifyTokenHandler(svc AuthInternalService) unaryHandler {
	return unary[structpb.Struct]("VerifyToken", svc.VerifyToken)
}

func pingHandler(svc AuthInternalService) unaryHandler {
	return unary[emptypb.Empty]("Ping", svc.Ping)
}
