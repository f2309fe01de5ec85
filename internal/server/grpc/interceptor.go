package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	pb "github.com/dmitrijs2005/notekeeper/internal/proto"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/metrics"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var protectedMethods = map[string]bool{
	pb.AuthService_VerifyToken_FullMethodName: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			header = values[0]
		}
	}

	student, err := s.gate.Authenticate(ctx, header)
	if err != nil {
		code, msg, outcome := classifyAuthError(err)
		s.metrics.ObserveTokenVerification(outcome)
		if code == codes.Internal {
			s.logger.Error(ctx, "token verification failed", "method", info.FullMethod, "error", err)
		}
		return nil, status.Error(code, msg)
	}

	s.metrics.ObserveTokenVerification(metrics.OutcomeSuccess)
	return handler(auth.WithStudent(ctx, student), req)
}

func classifyAuthError(err error) (codes.Code, string, string) {
	switch {
	case errors.Is(err, common.ErrAuthRequired):
		return codes.Unauthenticated, "authentication required", metrics.OutcomeMissing
	case errors.Is(err, common.ErrTokenExpired):
		return codes.Unauthenticated, "token expired", metrics.OutcomeExpired
	case errors.Is(err, common.ErrTokenSubjectNotFound):
		return codes.Unauthenticated, "invalid token", metrics.OutcomeUnknown
	case errors.Is(err, common.ErrTokenMalformed):
		return codes.Unauthenticated, "invalid token", metrics.OutcomeMalformed
	default:
		return codes.Internal, "internal server error", metrics.OutcomeError
	}
}
