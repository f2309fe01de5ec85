// Package rest is the HTTP transport: JSON endpoints for registration, login,
// token verification, profile and notes, routed with gorilla/mux.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/dmitrijs2005/notekeeper/internal/server/validate"
	"github.com/gorilla/mux"
)

// AccountService is implemented by *services.AccountService.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, studentID, password string) (*services.LoginResult, error)
	Profile(ctx context.Context, id string) (*models.Account, error)
}

// NoteService is implemented by *services.NoteService.
type NoteService interface {
	List(ctx context.Context, accountID string) ([]*models.Note, error)
	Get(ctx context.Context, accountID string, id int64) (*models.Note, error)
	Create(ctx context.Context, accountID string, in services.NoteInput) (*models.Note, error)
	Update(ctx context.Context, accountID string, id int64, in services.NoteInput) (*models.Note, error)
	Delete(ctx context.Context, accountID string, id int64) (*models.Note, error)
	TogglePin(ctx context.Context, accountID string, id int64) (*models.Note, error)
}

type Handler struct {
	accounts AccountService
	notes    NoteService
	logger   logging.Logger
}

func NewHandler(as AccountService, ns NoteService, l logging.Logger) *Handler {
	return &Handler{accounts: as, notes: ns, logger: l.With("module", "http_handler")}
}

type loginData struct {
	Student   models.Student `json:"student"`
	Token     string         `json:"token"`
	ExpiresAt string         `json:"expires_at"`
}

// decode reads a JSON body into a new R, normalizes it and runs its validation.
// It writes the 400 response itself and returns false on failure.
func decode[T interface {
	*R
	Normalize()
	Validate() error
}, R any](w http.ResponseWriter, r *http.Request) (*R, bool) {
	var req R
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return nil, false
	}
	p := T(&req)
	p.Normalize()
	if err := p.Validate(); err != nil {
		writeValidation(w, err)
		return nil, false
	}
	return &req, true
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, "OK", nil)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[*validate.RegisterRequest](w, r)
	if !ok {
		return
	}

	reg, err := h.accounts.Register(r.Context(), services.RegisterInput{
		StudentID: req.StudentID,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateRegistration) {
			writeError(w, http.StatusConflict, msgDuplicate)
			return
		}
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	writeOK(w, http.StatusCreated, "Registration successful! You can now sign in with your credentials.",
		map[string]any{"registration": reg.Registration()})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[*validate.LoginRequest](w, r)
	if !ok {
		return
	}

	res, err := h.accounts.Login(r.Context(), req.StudentID, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, msgInvalidCredentials)
			return
		}
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	msg := "Login successful"
	if res.Activated {
		msg = "First login successful - account activated!"
	}
	writeOK(w, http.StatusOK, msg, loginData{
		Student:   res.Student.Student(),
		Token:     res.Token.Value,
		ExpiresAt: res.Token.ExpiresAt.Format(time.RFC3339),
	})
}

func (h *Handler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	student, ok := auth.StudentFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgAuthRequired)
		return
	}
	writeOK(w, http.StatusOK, "Token is valid", map[string]any{"student": student.Student()})
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.StudentFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, msgAuthRequired)
		return
	}

	student, err := h.accounts.Profile(r.Context(), caller.ID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	writeOK(w, http.StatusOK, "Profile retrieved successfully", map[string]any{"student": student.Student()})
}

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.StudentFromContext(r.Context())

	list, err := h.notes.List(r.Context(), caller.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error while retrieving notes")
		return
	}
	writeOK(w, http.StatusOK, "Notes retrieved successfully", map[string]any{"notes": list, "count": len(list)})
}

func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.StudentFromContext(r.Context())
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	n, err := h.notes.Get(r.Context(), caller.ID, id)
	if err != nil {
		writeNoteError(w, err, "Internal server error while retrieving note")
		return
	}
	writeOK(w, http.StatusOK, "Note retrieved successfully", map[string]any{"note": n})
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.StudentFromContext(r.Context())
	req, ok := decode[*validate.NoteRequest](w, r)
	if !ok {
		return
	}

	n, err := h.notes.Create(r.Context(), caller.ID, noteInput(req))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error while creating note")
		return
	}
	writeOK(w, http.StatusCreated, "Note created successfully", map[string]any{"note": n})
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.StudentFromContext(r.Context())
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	req, ok := decode[*validate.NoteRequest](w, r)
	if !ok {
		return
	}

	n, err := h.notes.Update(r.Context(), caller.ID, id, noteInput(req))
	if err != nil {
		writeNoteError(w, err, "Internal server error while updating note")
		return
	}
	writeOK(w, http.StatusOK, "Note updated successfully", map[string]any{"note": n})
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.StudentFromContext(r.Context())
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	n, err := h.notes.Delete(r.Context(), caller.ID, id)
	if err != nil {
		writeNoteError(w, err, "Internal server error while deleting note")
		return
	}
	writeOK(w, http.StatusOK, "Note deleted successfully", map[string]any{"note": n})
}

func (h *Handler) TogglePin(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.StudentFromContext(r.Context())
	id, ok := noteID(w, r)
	if !ok {
		return
	}

	n, err := h.notes.TogglePin(r.Context(), caller.ID, id)
	if err != nil {
		writeNoteError(w, err, "Internal server error while toggling pin status")
		return
	}
	msg := "Note unpinned successfully"
	if n.IsPinned {
		msg = "Note pinned successfully"
	}
	writeOK(w, http.StatusOK, msg, map[string]any{"note": n})
}

func noteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, msgInvalidNoteID)
		return 0, false
	}
	return id, true
}

func noteInput(req *validate.NoteRequest) services.NoteInput {
	return services.NoteInput{Title: req.Title, Content: req.Content, Color: req.Color, IsPinned: req.IsPinned}
}

func writeNoteError(w http.ResponseWriter, err error, internalMsg string) {
	if errors.Is(err, common.ErrorNotFound) {
		writeError(w, http.StatusNotFound, msgNoteNotFound)
		return
	}
	writeError(w, http.StatusInternalServerError, internalMsg)
}
