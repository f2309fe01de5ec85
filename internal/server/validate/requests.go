// Package validate holds the request payloads shared by the HTTP and gRPC
// transports together with their validation rules.
package validate

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	studentIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	namePattern      = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	colorPattern     = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

type RegisterRequest struct {
	StudentID string `json:"student_id"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (r *RegisterRequest) Normalize() {
	r.StudentID = strings.TrimSpace(r.StudentID)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r RegisterRequest) Validate() error {
	const sidMsg = "Student ID must be 3-20 characters and can contain letters, numbers, hyphens, and underscores"
	return validation.ValidateStruct(&r,
		validation.Field(&r.StudentID,
			validation.Required.Error(sidMsg),
			validation.RuneLength(3, 20).Error(sidMsg),
			validation.Match(studentIDPattern).Error(sidMsg),
		),
		validation.Field(&r.Password,
			validation.Required.Error("Password must be at least 6 characters long"),
			validation.RuneLength(6, 0).Error("Password must be at least 6 characters long"),
		),
		validation.Field(&r.FirstName,
			validation.RuneLength(1, 50).Error("First name must be at most 50 characters"),
			validation.Match(namePattern).Error("First name must contain only letters and spaces"),
		),
		validation.Field(&r.LastName,
			validation.RuneLength(1, 50).Error("Last name must be at most 50 characters"),
			validation.Match(namePattern).Error("Last name must contain only letters and spaces"),
		),
	)
}

type LoginRequest struct {
	StudentID string `json:"student_id"`
	Password  string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	r.StudentID = strings.TrimSpace(r.StudentID)
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.StudentID, validation.Required.Error("Student ID is required")),
		validation.Field(&r.Password, validation.Required.Error("Password is required")),
	)
}

// NoteRequest is the body of note create and update calls.
type NoteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Color    string `json:"color"`
	IsPinned bool   `json:"is_pinned"`
}

func (r *NoteRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Content = strings.TrimSpace(r.Content)
}

func (r NoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("Title is required and must be less than 255 characters"),
			validation.RuneLength(1, 255).Error("Title is required and must be less than 255 characters"),
		),
		validation.Field(&r.Content,
			validation.RuneLength(0, 10000).Error("Content must be less than 10000 characters"),
		),
		validation.Field(&r.Color,
			validation.Match(colorPattern).Error("Color must be a valid hex color code"),
		),
	)
}
