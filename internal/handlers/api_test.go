package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samvaad/apiserver/internal/handlers"
	"github.com/samvaad/apiserver/internal/notify"
	"github.com/samvaad/apiserver/internal/services"
	"github.com/samvaad/apiserver/internal/store/inmem"
	"github.com/samvaad/apiserver/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

// testAPI wires the full route tree over the in-memory store, the way
// the server package does for the memory driver.
type testAPI struct {
	router *chi.Mux
	mem    *inmem.Store
}

func newTestAPI(t *testing.T, notifier *notify.Publisher) *testAPI {
	t.Helper()

	mem := inmem.NewStore()

	accountService := services.NewAccountService(mem.Accounts())
	requestService := services.NewRequestService(mem.Requests())
	studentService := services.NewStudentService(mem.Students())
	sessionService := services.NewSessionService(mem.Sessions(), mem.Students())
	workflowService := services.NewWorkflowService(mem.Requests(), mem.Students(), mem.Sessions())

	authHandler := handlers.NewAuthHandler(accountService, testJWTSecret, time.Hour)
	adminHandler := handlers.NewAdminHandler(accountService)
	requestHandler := handlers.NewRequestHandler(requestService, workflowService, notifier)
	studentHandler := handlers.NewStudentHandler(studentService)
	sessionHandler := handlers.NewSessionHandler(sessionService)

	staff := func(next http.Handler) http.Handler {
		return authHandler.RequireAuth(authHandler.RequireApproved(next))
	}

	router := chi.NewRouter()
	router.Route("/api/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler, nil)
	})
	router.Route("/api/admin", func(r chi.Router) {
		handlers.AdminRouter(r, adminHandler, authHandler.RequireAuth, authHandler.RequireAdmin)
	})
	router.Route("/api/requests", func(r chi.Router) {
		handlers.RequestRouter(r, requestHandler, nil, staff)
	})
	router.Route("/api/students", func(r chi.Router) {
		handlers.StudentRouter(r, studentHandler, staff)
	})
	router.Route("/api/sessions", func(r chi.Router) {
		handlers.SessionRouter(r, sessionHandler, staff)
	})

	return &testAPI{router: router, mem: mem}
}

// do performs a request against the router and returns the recorder.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// seedAccount creates an account directly in the store with the given
// role and status. The password is always "password123".
func (a *testAPI) seedAccount(t *testing.T, email string, role types.Role, status types.AccountStatus) types.Account {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	account, err := a.mem.Accounts().Create(context.Background(), types.Account{
		Email:        email,
		Name:         "Test Operator",
		Role:         role,
		Status:       status,
		PasswordHash: string(hashed),
	})
	require.NoError(t, err)
	return account
}

// login returns a token for a seeded account.
func (a *testAPI) login(t *testing.T, email string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	parsed := decodeBody[handlers.AuthResponse](t, rec)
	require.NotEmpty(t, parsed.Token)
	return parsed.Token
}

// adminToken seeds an approved admin and logs it in.
func (a *testAPI) adminToken(t *testing.T) string {
	t.Helper()
	a.seedAccount(t, "admin@example.com", types.RoleAdmin, types.StatusApproved)
	return a.login(t, "admin@example.com")
}

// counsellorToken seeds an approved counsellor and logs it in.
func (a *testAPI) counsellorToken(t *testing.T) string {
	t.Helper()
	a.seedAccount(t, "counsellor@example.com", types.RoleCounsellor, types.StatusApproved)
	return a.login(t, "counsellor@example.com")
}
