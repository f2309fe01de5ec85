package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/client/client"
	"github.com/dmitrijs2005/notekeeper/internal/client/models"
	"github.com/dmitrijs2005/notekeeper/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a student id, password and optional names and
// creates a pending registration.
func (a *App) Register(ctx context.Context) error {
	studentID, err := getSimpleText(a.reader, "Enter student ID", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	firstName, err := getSimpleText(a.reader, "First name (optional)", a.out)
	if err != nil {
		return err
	}
	lastName, err := getSimpleText(a.reader, "Last name (optional)", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	err = a.auth.Register(ctx, client.RegisterRequest{
		StudentID: studentID,
		Password:  string(password),
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		a.report(err)
		return err
	}

	fmt.Fprintln(a.out, "Registration successful! You can now sign in with your credentials.")
	return nil
}

// Login authenticates and keeps the session for later commands and runs.
func (a *App) Login(ctx context.Context) error {
	studentID, err := getSimpleText(a.reader, "Enter student ID", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	resp, err := a.auth.Login(ctx, studentID, password)
	if err != nil {
		a.report(err)
		return err
	}

	a.session = &models.Session{
		Token:     resp.Token,
		StudentID: resp.Student.StudentID,
		FirstName: resp.Student.FirstName,
		LastName:  resp.Student.LastName,
		ExpiresAt: resp.ExpiresAt,
	}

	if resp.Activated {
		fmt.Fprintln(a.out, "First login successful - account activated!")
	} else {
		fmt.Fprintln(a.out, "Login successful")
	}
	fmt.Fprintf(a.out, "Session valid until %s\n", resp.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

// WhoAmI asks the server who the current token belongs to.
func (a *App) WhoAmI(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return common.ErrAuthRequired
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	st, err := a.auth.WhoAmI(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.session = nil
			fmt.Fprintln(a.out, "Session is no longer valid, please log in again")
			return err
		}
		a.report(err)
		return err
	}

	fmt.Fprintf(a.out, "%s (%s)\n", st.StudentID, displayName(st))
	return nil
}

// Logout forgets the session locally.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		a.report(err)
		return err
	}
	a.session = nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) report(err error) {
	switch {
	case errors.Is(err, client.ErrAlreadyExists):
		fmt.Fprintln(a.out, "Student ID already registered")
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(a.out, "Invalid student ID or password")
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Server unavailable, try again later")
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
}

func displayName(st *models.Student) string {
	s := models.Session{StudentID: st.StudentID, FirstName: st.FirstName, LastName: st.LastName}
	return s.DisplayName()
}
