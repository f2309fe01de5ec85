package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/dmitrijs2005/notekeeper/internal/server/validate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := validate.RegisterRequest{
		StudentID: stringField(req, "student_id"),
		Password:  stringField(req, "password"),
		FirstName: stringField(req, "first_name"),
		LastName:  stringField(req, "last_name"),
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, "Validation failed: "+err.Error())
	}

	reg, err := s.accounts.Register(ctx, services.RegisterInput{
		StudentID: in.StudentID,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateRegistration) {
			return nil, status.Error(codes.AlreadyExists, "Student ID already registered")
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	r := reg.Registration()
	return structpb.NewStruct(map[string]any{
		"registration": map[string]any{
			"id":                r.ID,
			"student_id":        r.StudentID,
			"first_name":        r.FirstName,
			"last_name":         r.LastName,
			"registration_date": r.RegistrationDate.Format(time.RFC3339),
		},
	})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := validate.LoginRequest{
		StudentID: stringField(req, "student_id"),
		Password:  stringField(req, "password"),
	}
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, status.Error(codes.InvalidArgument, "Validation failed: "+err.Error())
	}

	res, err := s.accounts.Login(ctx, in.StudentID, in.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			return nil, status.Error(codes.Unauthenticated, "Invalid student ID or password")
		}
		return nil, status.Error(codes.Internal, "internal error")
	}

	return structpb.NewStruct(map[string]any{
		"student":    studentFields(res.Student),
		"token":      res.Token.Value,
		"expires_at": res.Token.ExpiresAt.Format(time.RFC3339),
		"activated":  res.Activated,
	})
}

func (s *GRPCServer) VerifyToken(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	student, ok := auth.StudentFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	return structpb.NewStruct(map[string]any{"student": studentFields(student)})
}

func studentFields(a *models.Account) map[string]any {
	st := a.Student()
	return map[string]any{
		"id":                st.ID,
		"student_id":        st.StudentID,
		"first_name":        st.FirstName,
		"last_name":         st.LastName,
		"registration_date": st.RegistrationDate.Format(time.RFC3339),
		"first_login_date":  st.FirstLoginDate.Format(time.RFC3339),
	}
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}
