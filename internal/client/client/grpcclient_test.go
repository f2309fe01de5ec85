package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	pb "github.com/dmitrijs2005/notekeeper/internal/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// fakeServer records what it received and answers with preset values.
type fakeServer struct {
	pb.UnimplementedAuthServiceServer

	lastRegister *structpb.Struct
	lastLogin    *structpb.Struct
	lastAuth     []string

	registerErr error
	loginResp   map[string]any
	loginErr    error
	verifyErr   error
}

func (f *fakeServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f.lastRegister = in
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return structpb.NewStruct(map[string]any{})
}

func (f *fakeServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	f.lastLogin = in
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return structpb.NewStruct(f.loginResp)
}

func (f *fakeServer) VerifyToken(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	f.lastAuth = md.Get(common.AuthorizationHeaderName)
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return structpb.NewStruct(map[string]any{
		"student": map[string]any{"id": "acc-1", "student_id": "s100", "first_name": "Ann", "last_name": "Lee"},
	})
}

func newBufconnClient(t *testing.T, srv pb.AuthServiceServer) *GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	pb.RegisterAuthServiceServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()

	c, err := NewNotekeeperClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		gs.Stop()
	})
	return c
}

func TestRegister_SendsFields(t *testing.T) {
	srv := &fakeServer{}
	c := newBufconnClient(t, srv)

	err := c.Register(context.Background(), RegisterRequest{StudentID: "s100", Password: "secret1", FirstName: "Ann"})
	require.NoError(t, err)

	f := srv.lastRegister.GetFields()
	assert.Equal(t, "s100", f["student_id"].GetStringValue())
	assert.Equal(t, "secret1", f["password"].GetStringValue())
	assert.Equal(t, "Ann", f["first_name"].GetStringValue())
	assert.Equal(t, "", f["last_name"].GetStringValue())
}

func TestLogin_StoresTokenAndSendsItLater(t *testing.T) {
	exp := time.Date(2030, 5, 6, 7, 8, 9, 0, time.UTC)
	srv := &fakeServer{loginResp: map[string]any{
		"student":    map[string]any{"id": "acc-1", "student_id": "s100"},
		"token":      "tok-1",
		"expires_at": exp.Format(time.RFC3339),
		"activated":  true,
	}}
	c := newBufconnClient(t, srv)
	ctx := context.Background()

	resp, err := c.Login(ctx, "s100", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.True(t, resp.Activated)
	assert.True(t, resp.ExpiresAt.Equal(exp))
	assert.Equal(t, "s100", resp.Student.StudentID)

	st, err := c.VerifyToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ann", st.FirstName)
	assert.Equal(t, []string{"Bearer tok-1"}, srv.lastAuth)
}

func TestVerifyToken_NoTokenSendsNoHeader(t *testing.T) {
	srv := &fakeServer{verifyErr: status.Error(codes.Unauthenticated, "authentication required")}
	c := newBufconnClient(t, srv)

	_, err := c.VerifyToken(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "authentication required")
	assert.Empty(t, srv.lastAuth)
}

func TestLogin_BadExpiry(t *testing.T) {
	srv := &fakeServer{loginResp: map[string]any{"token": "t", "expires_at": "tomorrow"}}
	c := newBufconnClient(t, srv)

	_, err := c.Login(context.Background(), "s100", "secret1")
	require.ErrorContains(t, err, "bad expires_at")
	assert.Empty(t, c.token())
}

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"unauthenticated", status.Error(codes.Unauthenticated, "x"), ErrUnauthorized},
		{"permission", status.Error(codes.PermissionDenied, "x"), ErrUnauthorized},
		{"unavailable", status.Error(codes.Unavailable, "x"), ErrUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "x"), ErrUnavailable},
		{"exists", status.Error(codes.AlreadyExists, "x"), ErrAlreadyExists},
		{"invalid", status.Error(codes.InvalidArgument, "x"), ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, c.mapError(tt.in), tt.want)
		})
	}

	assert.NoError(t, c.mapError(nil))

	other := c.mapError(status.Error(codes.Internal, "boom"))
	assert.ErrorContains(t, other, "rpc error")
	for _, sentinel := range []error{ErrUnauthorized, ErrUnavailable, ErrAlreadyExists, ErrInvalidInput} {
		assert.False(t, errors.Is(other, sentinel))
	}
}

func TestSetToken_ClearsHeader(t *testing.T) {
	srv := &fakeServer{}
	c := newBufconnClient(t, srv)

	c.SetToken("a")
	_, err := c.VerifyToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer a"}, srv.lastAuth)

	c.SetToken("")
	_, err = c.VerifyToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, srv.lastAuth)
}

func TestWithAccessToken_ReplacesExisting(t *testing.T) {
	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AuthorizationHeaderName, "Bearer old", "x-other", "1")
	ctx = withAccessToken(ctx, "new")

	md, ok := metadata.FromOutgoingContext(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"Bearer new"}, md.Get(common.AuthorizationHeaderName))
	assert.Equal(t, []string{"1"}, md.Get("x-other"))
}
