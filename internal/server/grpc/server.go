// Package grpc is the gRPC transport of the account lifecycle:
// notekeeper.v1.AuthService with Register, Login and the token-gated
// VerifyToken.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
	pb "github.com/dmitrijs2005/notekeeper/internal/proto"
	"github.com/dmitrijs2005/notekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"google.golang.org/grpc"
)

// AccountService is implemented by *services.AccountService.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, studentID, password string) (*services.LoginResult, error)
}

// Authenticator is implemented by *auth.Gate.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*models.Account, error)
}

type GRPCServer struct {
	pb.UnimplementedAuthServiceServer
	address  string
	accounts AccountService
	gate     Authenticator
	logger   logging.Logger
	metrics  *metrics.Metrics
}

func NewGRPCServer(a string, l logging.Logger, as AccountService, gate Authenticator, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		accounts: as,
		gate:     gate,
		metrics:  m,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	pb.RegisterAuthServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
