package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/common"
	pb "github.com/dmitrijs2005/notekeeper/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.AuthServiceClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewNotekeeperClient creates a lazily connecting client for endpointURL.
// Extra dial options are appended after the defaults.
func NewNotekeeperClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewAuthServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// SetToken replaces the bearer token sent with every call. An empty token
// sends none.
func (s *GRPCClient) SetToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) Register(ctx context.Context, r RegisterRequest) error {
	req, err := structpb.NewStruct(map[string]any{
		"student_id": r.StudentID,
		"password":   r.Password,
		"first_name": r.FirstName,
		"last_name":  r.LastName,
	})
	if err != nil {
		return err
	}

	if _, err := s.client.Register(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Login(ctx context.Context, studentID, password string) (*LoginResponse, error) {
	req, err := structpb.NewStruct(map[string]any{"student_id": studentID, "password": password})
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Login(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	fields := resp.GetFields()
	expiresAt, err := time.Parse(time.RFC3339, fields["expires_at"].GetStringValue())
	if err != nil {
		return nil, fmt.Errorf("bad expires_at in login response: %w", err)
	}

	out := &LoginResponse{
		Student:   studentFrom(fields["student"].GetStructValue()),
		Token:     fields["token"].GetStringValue(),
		ExpiresAt: expiresAt,
		Activated: fields["activated"].GetBoolValue(),
	}
	s.SetToken(out.Token)
	return out, nil
}

func (s *GRPCClient) VerifyToken(ctx context.Context) (*models.Student, error) {
	resp, err := s.client.VerifyToken(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	st := studentFrom(resp.GetFields()["student"].GetStructValue())
	return &st, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func studentFrom(v *structpb.Struct) models.Student {
	f := v.GetFields()
	return models.Student{
		ID:        f["id"].GetStringValue(),
		StudentID: f["student_id"].GetStringValue(),
		FirstName: f["first_name"].GetStringValue(),
		LastName:  f["last_name"].GetStringValue(),
	}
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
