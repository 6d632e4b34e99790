//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/samvaad/apiserver/config"
	"github.com/samvaad/apiserver/internal/server"
)

const (
	serverPort = 18080
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := startServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

// TestCounsellingLifecycle walks the full workflow: a counsellor
// registers and is gated, an admin approves the account, a student
// submits an anonymous request, the counsellor schedules it, logs a
// session and the request ends up archived and linked.
func TestCounsellingLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	suffix := time.Now().UnixNano()
	counsellorEmail := fmt.Sprintf("counsellor_%d@example.com", suffix)
	adminEmail := fmt.Sprintf("admin_%d@example.com", suffix)
	password := "testpass123!"
	phone := fmt.Sprintf("9%09d", suffix%1_000_000_000)

	if err := registerAccount(t, baseURL, counsellorEmail, password); err != nil {
		t.Fatalf("register counsellor: %v", err)
	}
	if code, _ := tryLogin(t, baseURL, counsellorEmail, password); code != http.StatusForbidden {
		t.Fatalf("expected 403 for unapproved counsellor login, got %d", code)
	}

	if err := registerAccount(t, baseURL, adminEmail, password); err != nil {
		t.Fatalf("register admin-to-be: %v", err)
	}
	if err := promoteToAdmin(adminEmail); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
	_, adminToken := mustLogin(t, baseURL, adminEmail, password)

	counsellorID, err := findCounsellorID(t, baseURL, adminToken, counsellorEmail)
	if err != nil {
		t.Fatalf("find counsellor: %v", err)
	}
	if err := setCounsellorStatus(t, baseURL, adminToken, counsellorID, "approved"); err != nil {
		t.Fatalf("approve counsellor: %v", err)
	}
	_, counsellorToken := mustLogin(t, baseURL, counsellorEmail, password)

	requestID, err := submitRequest(t, baseURL, phone)
	if err != nil {
		t.Fatalf("submit request: %v", err)
	}

	if err := patchRequestStatus(t, baseURL, counsellorToken, requestID, "scheduled", http.StatusOK); err != nil {
		t.Fatalf("schedule request: %v", err)
	}

	// new -> in_progress is not a legal edge, so a stale client is
	// rejected once the request moved on and back.
	if err := patchRequestStatus(t, baseURL, counsellorToken, requestID, "new", http.StatusOK); err != nil {
		t.Fatalf("reset request: %v", err)
	}
	if err := patchRequestStatus(t, baseURL, counsellorToken, requestID, "in_progress", http.StatusConflict); err != nil {
		t.Fatalf("expected conflict for illegal transition: %v", err)
	}
	if err := patchRequestStatus(t, baseURL, counsellorToken, requestID, "scheduled", http.StatusOK); err != nil {
		t.Fatalf("reschedule request: %v", err)
	}

	studentID, err := logSession(t, baseURL, counsellorToken, requestID)
	if err != nil {
		t.Fatalf("log session: %v", err)
	}

	request, err := fetchRequest(t, baseURL, counsellorToken, requestID)
	if err != nil {
		t.Fatalf("fetch request: %v", err)
	}
	if request.Status != "archived" {
		t.Fatalf("expected archived request, got %q", request.Status)
	}
	if request.StudentID == nil || *request.StudentID != studentID {
		t.Fatalf("expected request linked to student %d, got %v", studentID, request.StudentID)
	}

	// Archived is terminal.
	if err := patchRequestStatus(t, baseURL, counsellorToken, requestID, "new", http.StatusConflict); err != nil {
		t.Fatalf("expected conflict reopening archived request: %v", err)
	}

	// Second request from the same phone resolves to the same student.
	secondID, err := submitRequest(t, baseURL, phone)
	if err != nil {
		t.Fatalf("submit second request: %v", err)
	}
	if err := patchRequestStatus(t, baseURL, counsellorToken, secondID, "scheduled", http.StatusOK); err != nil {
		t.Fatalf("schedule second request: %v", err)
	}
	secondStudentID, err := logSession(t, baseURL, counsellorToken, secondID)
	if err != nil {
		t.Fatalf("log second session: %v", err)
	}
	if secondStudentID != studentID {
		t.Fatalf("expected student reuse, got %d and %d", studentID, secondStudentID)
	}

	// Deleting the student removes the sessions with it.
	if err := deleteStudent(t, baseURL, counsellorToken, studentID); err != nil {
		t.Fatalf("delete student: %v", err)
	}
	orphans, err := countSessions(studentID)
	if err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected no orphan sessions, got %d", orphans)
	}
}

type requestResponse struct {
	ID        int    `json:"id"`
	Status    string `json:"status"`
	StudentID *int   `json:"student_id"`
}

type sessionResponse struct {
	ID        int `json:"id"`
	StudentID int `json:"student_id"`
}

type accountResponse struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	Token string `json:"token"`
}

func registerAccount(t *testing.T, baseURL, email, password string) error {
	t.Helper()

	status, body, err := postJSON(baseURL+"/api/auth/register", "", map[string]string{
		"name":     "E2E Operator",
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return fmt.Errorf("register status %d: %s", status, body)
	}
	return nil
}

func tryLogin(t *testing.T, baseURL, email, password string) (int, string) {
	t.Helper()

	status, body, err := postJSON(baseURL+"/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	return status, body
}

func mustLogin(t *testing.T, baseURL, email, password string) (int, string) {
	t.Helper()

	status, body := tryLogin(t, baseURL, email, password)
	if status != http.StatusOK {
		t.Fatalf("login status %d: %s", status, body)
	}
	var parsed authResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if parsed.Token == "" {
		t.Fatalf("missing token in login response")
	}
	return status, parsed.Token
}

func promoteToAdmin(email string) error {
	cfg := config.LoadConfig()
	db, err := sql.Open("postgres", cfg.Database.URL())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = db.ExecContext(ctx,
		"UPDATE accounts SET role = 'admin', status = 'approved', updated_at = NOW() WHERE email = $1",
		strings.ToLower(email))
	return err
}

func findCounsellorID(t *testing.T, baseURL, token, email string) (int, error) {
	t.Helper()

	status, body, err := getJSON(baseURL+"/api/admin/counsellors", token)
	if err != nil {
		return 0, err
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("list counsellors status %d: %s", status, body)
	}

	var counsellors []accountResponse
	if err := json.Unmarshal([]byte(body), &counsellors); err != nil {
		return 0, err
	}
	for _, account := range counsellors {
		if account.Email == strings.ToLower(email) {
			return account.ID, nil
		}
	}
	return 0, fmt.Errorf("counsellor %s not in listing", email)
}

func setCounsellorStatus(t *testing.T, baseURL, token string, id int, status string) error {
	t.Helper()

	code, body, err := doJSON(http.MethodPatch, fmt.Sprintf("%s/api/admin/counsellors/%d", baseURL, id), token, map[string]string{
		"status": status,
	})
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("set status %d: %s", code, body)
	}
	return nil
}

func submitRequest(t *testing.T, baseURL, phone string) (int, error) {
	t.Helper()

	status, body, err := postJSON(baseURL+"/api/requests/", "", map[string]string{
		"phone": phone,
		"issue": "e2e intake",
	})
	if err != nil {
		return 0, err
	}
	if status != http.StatusCreated {
		return 0, fmt.Errorf("submit status %d: %s", status, body)
	}

	var parsed requestResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return 0, err
	}
	return parsed.ID, nil
}

func patchRequestStatus(t *testing.T, baseURL, token string, id int, status string, want int) error {
	t.Helper()

	code, body, err := doJSON(http.MethodPatch, fmt.Sprintf("%s/api/requests/%d", baseURL, id), token, map[string]string{
		"status": status,
	})
	if err != nil {
		return err
	}
	if code != want {
		return fmt.Errorf("patch to %s: status %d (want %d): %s", status, code, want, body)
	}
	return nil
}

func logSession(t *testing.T, baseURL, token string, requestID int) (int, error) {
	t.Helper()

	code, body, err := doJSON(http.MethodPost, fmt.Sprintf("%s/api/requests/%d/sessions", baseURL, requestID), token, map[string]string{
		"topic":    "Exam Stress",
		"problems": "e2e session",
	})
	if err != nil {
		return 0, err
	}
	if code != http.StatusCreated {
		return 0, fmt.Errorf("log session status %d: %s", code, body)
	}

	var parsed sessionResponse
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return 0, err
	}
	return parsed.StudentID, nil
}

func fetchRequest(t *testing.T, baseURL, token string, id int) (requestResponse, error) {
	t.Helper()

	status, body, err := getJSON(baseURL+"/api/requests/", token)
	if err != nil {
		return requestResponse{}, err
	}
	if status != http.StatusOK {
		return requestResponse{}, fmt.Errorf("list requests status %d: %s", status, body)
	}

	var requests []requestResponse
	if err := json.Unmarshal([]byte(body), &requests); err != nil {
		return requestResponse{}, err
	}
	for _, request := range requests {
		if request.ID == id {
			return request, nil
		}
	}
	return requestResponse{}, fmt.Errorf("request %d not in listing", id)
}

func deleteStudent(t *testing.T, baseURL, token string, id int) error {
	t.Helper()

	code, body, err := doJSON(http.MethodDelete, fmt.Sprintf("%s/api/students/%d", baseURL, id), token, nil)
	if err != nil {
		return err
	}
	if code != http.StatusNoContent {
		return fmt.Errorf("delete student status %d: %s", code, body)
	}
	return nil
}

func countSessions(studentID int) (int, error) {
	cfg := config.LoadConfig()
	db, err := sql.Open("postgres", cfg.Database.URL())
	if err != nil {
		return 0, err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE student_id = $1", studentID).Scan(&count)
	return count, err
}

func postJSON(url, token string, payload any) (int, string, error) {
	return doJSON(http.MethodPost, url, token, payload)
}

func getJSON(url, token string) (int, string, error) {
	return doJSON(http.MethodGet, url, token, nil)
}

func doJSON(method, url, token string, payload any) (int, string, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, "", err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return 0, "", err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", err
	}
	return resp.StatusCode, strings.TrimSpace(string(body)), nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	db, err := sql.Open("postgres", cfg.Database.URL())
	if err != nil {
		return err
	}
	defer db.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("postgres ping timeout: %w", err)
		case <-ticker.C:
		}
	}
}

func waitForHealth(ctx context.Context, url string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check failed: %w", err)
			}
			return fmt.Errorf("health check failed with status")
		case <-ticker.C:
		}
	}
}

func runMigrations(root string) error {
	cfg := config.LoadConfig()
	migrationsPath := filepath.Join(root, "internal", "db", "migrations")
	migrationsURL := "file://" + migrationsPath

	migrator, err := migrate.New(migrationsURL, cfg.Database.URL())
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func startServer() (*server.Server, error) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "samvaad")
	_ = os.Setenv("DB_PASSWORD", "password")
	_ = os.Setenv("DB_NAME", "samvaad_db")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("RATE_LIMIT_MAX", "10000")

	cfg := config.LoadConfig()
	srv, err := server.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}
