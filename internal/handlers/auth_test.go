package handlers_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/samvaad/apiserver/internal/handlers"
	"github.com/samvaad/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCreatesPendingCounsellor(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     "Asha Verma",
		"email":    "asha@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	parsed := decodeBody[handlers.RegisterResponse](t, rec)
	assert.Equal(t, types.StatusPending, parsed.Status)
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t, nil)

	cases := map[string]map[string]string{
		"missing name":   {"email": "a@example.com", "password": "password123"},
		"bad email":      {"name": "Asha", "email": "not-an-email", "password": "password123"},
		"short password": {"name": "Asha", "email": "a@example.com", "password": "12345"},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/api/auth/register", "", payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	api := newTestAPI(t, nil)
	payload := map[string]string{
		"name":     "Asha Verma",
		"email":    "asha@example.com",
		"password": "password123",
	}

	rec := api.do(t, http.MethodPost, "/api/auth/register", "", payload)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/auth/register", "", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already registered")
}

func TestLoginPendingCounsellorForbidden(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seedAccount(t, "pending@example.com", types.RoleCounsellor, types.StatusPending)

	rec := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "pending@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "pending approval")
}

func TestLoginBlockedCounsellorForbidden(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seedAccount(t, "blocked@example.com", types.RoleCounsellor, types.StatusBlocked)

	rec := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "blocked@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "blocked")
}

func TestLoginWrongPassword(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seedAccount(t, "asha@example.com", types.RoleCounsellor, types.StatusApproved)

	rec := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "asha@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownEmailSameErrorAsWrongPassword(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seedAccount(t, "asha@example.com", types.RoleCounsellor, types.StatusApproved)

	unknown := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "password123",
	})
	wrong := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "asha@example.com",
		"password": "wrong-password",
	})

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String(), "must not reveal whether the email exists")
}

func TestLoginResponseOmitsPasswordHash(t *testing.T) {
	api := newTestAPI(t, nil)
	api.seedAccount(t, "asha@example.com", types.RoleCounsellor, types.StatusApproved)

	rec := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "asha@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "password"), "password material must never leak")
}

func TestMeReturnsCurrentAccount(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.counsellorToken(t)

	rec := api.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	account := decodeBody[types.Account](t, rec)
	assert.Equal(t, "counsellor@example.com", account.Email)
	assert.Equal(t, types.RoleCounsellor, account.Role)
}

func TestProtectedRoutesRejectMissingOrBadToken(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/api/requests/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/requests/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBlockTakesEffectOnExistingToken(t *testing.T) {
	api := newTestAPI(t, nil)
	account := api.seedAccount(t, "asha@example.com", types.RoleCounsellor, types.StatusApproved)
	token := api.login(t, "asha@example.com")

	rec := api.do(t, http.MethodGet, "/api/requests/", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, err := api.mem.Accounts().UpdateStatus(context.Background(), account.ID, types.StatusBlocked)
	require.NoError(t, err)

	rec = api.do(t, http.MethodGet, "/api/requests/", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code, "status is re-read per request, not trusted from the token")
}

func TestPendingCounsellorTokenRejectedOnProtectedRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	account := api.seedAccount(t, "asha@example.com", types.RoleCounsellor, types.StatusApproved)
	token := api.login(t, "asha@example.com")

	_, err := api.mem.Accounts().UpdateStatus(context.Background(), account.ID, types.StatusPending)
	require.NoError(t, err)

	rec := api.do(t, http.MethodGet, "/api/students/", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
