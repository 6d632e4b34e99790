package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/samvaad/apiserver/internal/services"
	"github.com/samvaad/apiserver/internal/store"
	"github.com/samvaad/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// AuthHandler provides registration, login and the current-profile
// endpoint. Tokens are identity-only: role and approval status are
// re-read from the account directory on every protected request, so
// blocking a counsellor takes effect immediately.
type AuthHandler struct {
	accounts *services.AccountService
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(accounts *services.AccountService, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
	}
}

// AuthRouter registers auth routes on the given router. The public
// middleware (rate limiting) guards register and login.
func AuthRouter(r chi.Router, handler *AuthHandler, public func(http.Handler) http.Handler) {
	if public != nil {
		r.With(public).Post("/register", handler.Register)
		r.With(public).Post("/login", handler.Login)
	} else {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
	}
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth validates the bearer token and loads the current account
// from the directory into the request context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		accountID, err := parseTokenSubject(tokenString, h.secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		account, err := h.accounts.GetByID(r.Context(), accountID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to load account")
			return
		}

		ctx := context.WithValue(r.Context(), contextAccountKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireApproved allows admins and approved counsellors only. It runs
// after RequireAuth, so the context account reflects the directory's
// current status, not the token's issue-time state.
func (h *AuthHandler) RequireApproved(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := accountFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if account.Role != types.RoleAdmin && account.Status != types.StatusApproved {
			writeError(w, http.StatusForbidden, "account not approved")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin allows admin accounts only. It runs after RequireAuth.
func (h *AuthHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, err := accountFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if account.Role != types.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register creates a pending counsellor account. It does not log the
// caller in: the account must be approved by an admin first.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "name and a valid email are required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	_, err = h.accounts.Create(r.Context(), types.Account{
		Email:        req.Email,
		Name:         req.Name,
		Role:         types.RoleCounsellor,
		Status:       types.StatusPending,
		PasswordHash: string(hashed),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "email already registered")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "registration received, awaiting admin approval",
		Status:  types.StatusPending,
	})
}

// Login verifies credentials and returns a JWT plus the profile.
// Wrong credentials are an authentication failure (401); a counsellor
// that is not approved gets an authorization failure (403) instead.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	account, err := h.accounts.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if account.Role == types.RoleCounsellor {
		switch account.Status {
		case types.StatusApproved:
		case types.StatusBlocked:
			writeError(w, http.StatusForbidden, "account blocked")
			return
		default:
			writeError(w, http.StatusForbidden, "account pending approval")
			return
		}
	}

	token, err := issueToken(account.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, Account: account})
}

// Me returns the current authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := accountFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Message string              `json:"message"`
	Status  types.AccountStatus `json:"status"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token   string        `json:"token"`
	Account types.Account `json:"account"`
}

func issueToken(accountID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(accountID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (int, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}
	accountID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || accountID < 1 {
		return 0, errors.New("invalid subject")
	}
	return accountID, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
