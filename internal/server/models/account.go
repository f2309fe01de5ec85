package models

import "time"

// AccountStatus tags which stage of the lifecycle an account is in.
type AccountStatus string

const (
	// StatusPending marks a registration that never logged in.
	StatusPending AccountStatus = "pending"
	// StatusActive marks a student that has logged in at least once.
	StatusActive AccountStatus = "active"
)

// Account is the single stored record behind both a Registration and a
// Student. The pending -> active transition happens exactly once.
type Account struct {
	ID           string
	StudentID    string
	PasswordHash string
	FirstName    string
	LastName     string
	Status       AccountStatus
	RegisteredAt time.Time
	FirstLoginAt *time.Time
}

func (a *Account) IsPending() bool { return a.Status == StatusPending }
func (a *Account) IsActive() bool  { return a.Status == StatusActive }

// Registration is the public view of a pending account.
type Registration struct {
	ID               string    `json:"id"`
	StudentID        string    `json:"student_id"`
	FirstName        string    `json:"first_name,omitempty"`
	LastName         string    `json:"last_name,omitempty"`
	RegistrationDate time.Time `json:"registration_date"`
}

// Student is the public view of an active account. RegistrationID points to
// the record the student was activated from and is kept for profile joins only.
type Student struct {
	ID               string    `json:"id"`
	StudentID        string    `json:"student_id"`
	FirstName        string    `json:"first_name,omitempty"`
	LastName         string    `json:"last_name,omitempty"`
	RegistrationID   string    `json:"-"`
	RegistrationDate time.Time `json:"registration_date"`
	FirstLoginDate   time.Time `json:"first_login_date"`
}

// Registration returns the pending view. The password hash is never copied.
func (a *Account) Registration() Registration {
	return Registration{
		ID:               a.ID,
		StudentID:        a.StudentID,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		RegistrationDate: a.RegisteredAt,
	}
}

// Student returns the active view. The password hash is never copied.
func (a *Account) Student() Student {
	s := Student{
		ID:               a.ID,
		StudentID:        a.StudentID,
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		RegistrationID:   a.ID,
		RegistrationDate: a.RegisteredAt,
	}
	if a.FirstLoginAt != nil {
		s.FirstLoginDate = *a.FirstLoginAt
	}
	return s
}
