package models

import "time"

// Session is the locally cached result of a successful login.
type Session struct {
	Token     string
	StudentID string
	FirstName string
	LastName  string
	ExpiresAt time.Time
}

// Expired reports whether the token is no longer accepted at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// DisplayName is the student's full name, or the student id if none was given.
func (s *Session) DisplayName() string {
	switch {
	case s.FirstName != "" && s.LastName != "":
		return s.FirstName + " " + s.LastName
	case s.FirstName != "":
		return s.FirstName
	case s.LastName != "":
		return s.LastName
	default:
		return s.StudentID
	}
}

// Student is the profile the server reports for a verified token.
type Student struct {
	ID        string
	StudentID string
	FirstName string
	LastName  string
}
