package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/metrics"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/notes"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testEnv struct {
	router http.Handler
	repo   *accounts.InMemoryRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	l := logging.NewNopLogger()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)

	accountRepo := accounts.NewInMemoryRepository()
	tokens := auth.NewTokenService([]byte(testSecret), 24*time.Hour, accountRepo)
	as := services.NewAccountService(accountRepo, hasher, tokens, l, m)
	ns := services.NewNoteService(notes.NewInMemoryRepository(), l)

	return &testEnv{
		router: NewRouter(NewHandler(as, ns, l), auth.NewGate(tokens), l, m, reg),
		repo:   accountRepo,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func dataMap(t *testing.T, resp Response) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func (e *testEnv) login(t *testing.T, sid, pw string) string {
	t.Helper()
	w, resp := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"student_id": sid, "password": pw})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return dataMap(t, resp)["token"].(string)
}

func (e *testEnv) registerAndLogin(t *testing.T, sid string) string {
	t.Helper()
	w, _ := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"student_id": sid, "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	return e.login(t, sid, "secret1")
}

func TestExampleFlow(t *testing.T) {
	e := newTestEnv(t)

	w, resp := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"student_id": "s100", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	registration := dataMap(t, resp)["registration"].(map[string]any)
	assert.Equal(t, "s100", registration["student_id"])
	assert.NotContains(t, w.Body.String(), "password")

	w, resp = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"student_id": "s100", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid student ID or password", resp.Message)
	assert.False(t, resp.Success)

	w, resp = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"student_id": "s100", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "First login successful - account activated!", resp.Message)
	first := dataMap(t, resp)
	assert.NotEmpty(t, first["token"])
	assert.NotContains(t, w.Body.String(), "password_hash")

	w, resp = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"student_id": "s100", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Login successful", resp.Message)
	second := dataMap(t, resp)
	assert.NotEqual(t, first["token"], second["token"])
	assert.Equal(t, first["student"].(map[string]any)["id"], second["student"].(map[string]any)["id"])
	assert.Equal(t, registration["id"], second["student"].(map[string]any)["id"])

	assert.Equal(t, 1, e.repo.CountActive("s100"))
}

func TestLogin_UnknownAndWrongPasswordLookTheSame(t *testing.T) {
	e := newTestEnv(t)
	e.registerAndLogin(t, "active1")
	e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"student_id": "pending1", "password": "secret1"})

	var bodies []string
	for _, sid := range []string{"active1", "pending1", "nobody"} {
		w, _ := e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"student_id": sid, "password": "wrong-pw"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		bodies = append(bodies, w.Body.String())
	}
	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[0], bodies[2])
}

func TestRegister_DuplicateAndValidation(t *testing.T) {
	e := newTestEnv(t)

	w, _ := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"student_id": "dup1", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)

	w, resp := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"student_id": "dup1", "password": "secret2"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Student ID already registered", resp.Message)

	w, resp = e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"student_id": "x", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", resp.Message)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, "password", resp.Errors[0].Field)
	assert.Equal(t, "student_id", resp.Errors[1].Field)

	w, resp = e.do(t, http.MethodPost, "/auth/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", resp.Message)

	w, resp = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, resp.Errors, 2)
}

func TestVerifyTokenAndProfile(t *testing.T) {
	e := newTestEnv(t)
	token := e.registerAndLogin(t, "s200")

	w, resp := e.do(t, http.MethodPost, "/auth/verify-token", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Token is valid", resp.Message)
	assert.Equal(t, "s200", dataMap(t, resp)["student"].(map[string]any)["student_id"])

	w, resp = e.do(t, http.MethodGet, "/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	student := dataMap(t, resp)["student"].(map[string]any)
	assert.Equal(t, "s200", student["student_id"])
	assert.NotEmpty(t, student["first_login_date"])
}

func TestAuthGate_Rejections(t *testing.T) {
	e := newTestEnv(t)
	token := e.registerAndLogin(t, "s300")
	student, err := e.repo.GetStudentByStudentID(context.Background(), "s300")
	require.NoError(t, err)

	past := time.Now().Add(-25 * time.Hour)
	expired, err := auth.NewTokenService([]byte(testSecret), 24*time.Hour, e.repo).
		WithClock(func() time.Time { return past }).
		Issue(student)
	require.NoError(t, err)

	forged, err := auth.NewTokenService([]byte("other"), time.Hour, e.repo).Issue(student)
	require.NoError(t, err)

	ghost, err := auth.NewTokenService([]byte(testSecret), time.Hour, e.repo).
		Issue(&models.Account{ID: "9d7c1c5e-0000-4000-8000-000000000000", StudentID: "ghost"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{name: "missing", header: "", wantMsg: "authentication required"},
		{name: "wrong scheme", header: "Basic " + token, wantMsg: "authentication required"},
		{name: "expired", header: "Bearer " + expired.Value, wantMsg: "token expired"},
		{name: "forged", header: "Bearer " + forged.Value, wantMsg: "invalid token"},
		{name: "garbage", header: "Bearer abc", wantMsg: "invalid token"},
		{name: "unknown subject", header: "Bearer " + ghost.Value, wantMsg: "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{"/auth/verify-token", "/notes"} {
				method := http.MethodPost
				if path == "/notes" {
					method = http.MethodGet
				}
				req := httptest.NewRequest(method, path, nil)
				if tt.header != "" {
					req.Header.Set("Authorization", tt.header)
				}
				w := httptest.NewRecorder()
				e.router.ServeHTTP(w, req)

				assert.Equal(t, http.StatusUnauthorized, w.Code, path)
				var resp Response
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantMsg, resp.Message, path)
			}
		})
	}
}

type brokenGate struct{}

func (brokenGate) Authenticate(context.Context, string) (*models.Account, error) {
	return nil, common.ErrStorageUnavailable
}

func TestAuthMiddleware_StorageFailureIs500(t *testing.T) {
	mw := AuthMiddleware(brokenGate{}, logging.NewNopLogger(), nil)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer t")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestNotes_CRUD(t *testing.T) {
	e := newTestEnv(t)
	alice := e.registerAndLogin(t, "alice")
	bob := e.registerAndLogin(t, "bob")

	w, resp := e.do(t, http.MethodPost, "/notes", alice, map[string]any{"title": "Groceries", "content": "milk"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	note := dataMap(t, resp)["note"].(map[string]any)
	assert.Equal(t, "#FFFFFF", note["color"])
	id := int64(note["id"].(float64))
	path := "/notes/" + strconv.FormatInt(id, 10)

	w, resp = e.do(t, http.MethodGet, "/notes", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.0, dataMap(t, resp)["count"])

	w, resp = e.do(t, http.MethodGet, "/notes", bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, dataMap(t, resp)["count"])

	w, resp = e.do(t, http.MethodGet, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Note not found", resp.Message)

	w, resp = e.do(t, http.MethodGet, "/notes/abc", alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid note ID", resp.Message)

	w, resp = e.do(t, http.MethodPut, path, alice, map[string]any{"title": "Groceries", "content": "milk, eggs", "color": "#00FF00"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "milk, eggs", dataMap(t, resp)["note"].(map[string]any)["content"])

	w, resp = e.do(t, http.MethodPut, path, alice, map[string]any{"title": "", "color": "green"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, resp.Errors, 2)

	w, resp = e.do(t, http.MethodPatch, path+"/toggle-pin", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Note pinned successfully", resp.Message)
	w, resp = e.do(t, http.MethodPatch, path+"/toggle-pin", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Note unpinned successfully", resp.Message)

	w, _ = e.do(t, http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = e.do(t, http.MethodDelete, path, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Note deleted successfully", resp.Message)

	w, _ = e.do(t, http.MethodGet, path, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthMetricsAndNotFound(t *testing.T) {
	e := newTestEnv(t)

	w, resp := e.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"student_id": "nobody", "password": "whatever"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mw := httptest.NewRecorder()
	e.router.ServeHTTP(mw, req)
	require.Equal(t, http.StatusOK, mw.Code)
	body := mw.Body.String()
	assert.Contains(t, body, `notekeeper_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, body, `notekeeper_auth_attempts_total{operation="login",outcome="invalid_credentials"} 1`)

	w, resp = e.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Route not found", resp.Message)
}

type failingAccounts struct{}

func (failingAccounts) Register(context.Context, services.RegisterInput) (*models.Account, error) {
	return nil, common.ErrStorageUnavailable
}

func (failingAccounts) Login(context.Context, string, string) (*services.LoginResult, error) {
	return nil, errors.New("db down")
}

func (failingAccounts) Profile(context.Context, string) (*models.Account, error) {
	return nil, common.ErrStorageUnavailable
}

func TestHandlers_InternalErrors(t *testing.T) {
	l := logging.NewNopLogger()
	r := NewRouter(NewHandler(failingAccounts{}, nil, l), brokenGate{}, l, nil, nil)
	e := &testEnv{router: r}

	w, resp := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{"student_id": "s100", "password": "secret1"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", resp.Message)

	w, _ = e.do(t, http.MethodPost, "/auth/login", "", map[string]string{"student_id": "s100", "password": "secret1"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestRecoveryMiddleware(t *testing.T) {
	r := mux.NewRouter()
	r.Use(RecoveryMiddleware(logging.NewNopLogger()))
	r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}
