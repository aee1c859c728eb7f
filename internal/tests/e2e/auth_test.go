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
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/tabzpay/progress-sub002/config"
	"github.com/tabzpay/progress-sub002/internal/db"
	"github.com/tabzpay/progress-sub002/internal/server"
	"go.uber.org/zap"
)

const (
	serverPort = 18080
)

// postgrest is a stand-in for the managed backend that keeps rows per table
// in memory and honours the id and user_id filters.
type postgrest struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string][]map[string]any
}

func (p *postgrest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	table := strings.TrimPrefix(r.URL.Path, "/rest/v1/")
	q := r.URL.Query()

	p.mu.Lock()
	defer p.mu.Unlock()

	match := func(row map[string]any) bool {
		for _, col := range []string{"id", "user_id", "status", "customer_id"} {
			want := strings.TrimPrefix(q.Get(col), "eq.")
			if want != "" && fmt.Sprint(row[col]) != want {
				return false
			}
		}
		return true
	}

	var out []map[string]any
	switch r.Method {
	case http.MethodGet:
		for _, row := range p.rows[table] {
			if match(row) {
				out = append(out, row)
			}
		}
	case http.MethodPost:
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p.nextID++
		row["id"] = float64(p.nextID)
		p.rows[table] = append(p.rows[table], row)
		out = append(out, row)
	case http.MethodPatch:
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, row := range p.rows[table] {
			if match(row) {
				for k, v := range patch {
					row[k] = v
				}
				out = append(out, row)
			}
		}
	case http.MethodDelete:
		kept := p.rows[table][:0]
		for _, row := range p.rows[table] {
			if match(row) {
				out = append(out, row)
				continue
			}
			kept = append(kept, row)
		}
		p.rows[table] = kept
	}
	if out == nil {
		out = []map[string]any{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

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

	backend := httptest.NewServer(&postgrest{rows: map[string][]map[string]any{}})
	setEnv(backend.URL)

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

	srv, err := startServer(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown(context.Background())
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown(context.Background())
	backend.Close()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestAuthLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	email := fmt.Sprintf("lender_%d@example.com", time.Now().UnixNano())
	password := "testpass123!"

	status, body := postJSON(t, baseURL+"/register", "", map[string]string{
		"email":       email,
		"password":    password,
		"displayName": "Test Lender",
	})
	if status != http.StatusCreated {
		t.Fatalf("register status %d: %s", status, body)
	}

	status, body = postJSON(t, baseURL+"/register", "", map[string]string{"email": email, "password": "other"})
	if status != http.StatusBadRequest {
		t.Fatalf("duplicate register status %d: %s", status, body)
	}

	wrongStatus, wrongBody := postJSON(t, baseURL+"/login", "", map[string]string{"email": email, "password": "nope"})
	unknownStatus, unknownBody := postJSON(t, baseURL+"/login", "", map[string]string{"email": "missing-" + email, "password": "nope"})
	if wrongStatus != http.StatusUnauthorized || unknownStatus != http.StatusUnauthorized {
		t.Fatalf("unexpected login failure statuses %d and %d", wrongStatus, unknownStatus)
	}
	if !bytes.Equal(wrongBody, unknownBody) {
		t.Fatalf("login failures differ: %q vs %q", wrongBody, unknownBody)
	}

	status, body = postJSON(t, baseURL+"/login", "", map[string]string{"email": email, "password": password})
	if status != http.StatusOK {
		t.Fatalf("login status %d: %s", status, body)
	}
	var parsed authResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if parsed.Token == "" || parsed.User.Email != email {
		t.Fatalf("unexpected login response: %s", body)
	}

	status, body = getJSON(t, baseURL+"/auth/me", parsed.Token)
	if status != http.StatusOK {
		t.Fatalf("me status %d: %s", status, body)
	}
}

func TestLoanLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	email := fmt.Sprintf("loans_%d@example.com", time.Now().UnixNano())

	status, body := postJSON(t, baseURL+"/auth/register", "", map[string]string{"email": email, "password": "pw"})
	if status != http.StatusCreated {
		t.Fatalf("register status %d: %s", status, body)
	}
	var auth authResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		t.Fatalf("decode register: %v", err)
	}

	status, body = postJSON(t, baseURL+"/customers", auth.Token, map[string]any{"name": "Ada", "type": "individual"})
	if status != http.StatusCreated {
		t.Fatalf("create customer status %d: %s", status, body)
	}
	var customer struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &customer); err != nil {
		t.Fatalf("decode customer: %v", err)
	}

	status, body = postJSON(t, baseURL+"/loans", auth.Token, map[string]any{
		"customer_id":   customer.ID,
		"type":          "personal",
		"principal":     "250.00",
		"interest_rate": "5",
		"currency":      "usd",
		"due_date":      time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339),
	})
	if status != http.StatusCreated {
		t.Fatalf("create loan status %d: %s", status, body)
	}
	var loan struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &loan); err != nil {
		t.Fatalf("decode loan: %v", err)
	}
	if loan.Status != "PENDING" {
		t.Fatalf("unexpected initial status %q", loan.Status)
	}

	status, body = doJSON(t, http.MethodPatch, fmt.Sprintf("%s/loans/%d/status", baseURL, loan.ID), auth.Token, map[string]string{"status": "ACTIVE"})
	if status != http.StatusOK {
		t.Fatalf("update status %d: %s", status, body)
	}

	status, body = getJSON(t, baseURL+"/loans?status=ACTIVE", auth.Token)
	if status != http.StatusOK || !strings.Contains(string(body), `"ACTIVE"`) {
		t.Fatalf("list active loans status %d: %s", status, body)
	}

	status, body = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/loans/%d", baseURL, loan.ID), auth.Token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete loan status %d: %s", status, body)
	}
	status, _ = getJSON(t, fmt.Sprintf("%s/loans/%d", baseURL, loan.ID), auth.Token)
	if status != http.StatusNotFound {
		t.Fatalf("expected deleted loan to be missing, got %d", status)
	}
}

type authResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    int    `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func postJSON(t *testing.T, url, token string, payload any) (int, []byte) {
	t.Helper()
	return doJSON(t, http.MethodPost, url, token, payload)
}

func getJSON(t *testing.T, url, token string) (int, []byte) {
	t.Helper()
	return doJSON(t, http.MethodGet, url, token, nil)
}

func doJSON(t *testing.T, method, url, token string, payload any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode payload: %v", err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, bytes.TrimSpace(data)
}

func setEnv(supabaseURL string) {
	_ = os.Setenv("JWT_SECRET", "test-secret")
	_ = os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	_ = os.Setenv("DB_HOST", "localhost")
	_ = os.Setenv("DB_PORT", "5432")
	_ = os.Setenv("DB_USER", "loantracker")
	_ = os.Setenv("DB_PASSWORD", "loantracker")
	_ = os.Setenv("DB_NAME", "loantracker")
	_ = os.Setenv("DB_USE_SSL", "false")
	_ = os.Setenv("SUPABASE_URL", supabaseURL)
	_ = os.Setenv("SUPABASE_KEY", "anon")
	_ = os.Setenv("STORAGE_DRIVER", "local")
	_ = os.Setenv("UI_STATE_DIR", filepath.Join(os.TempDir(), "loantracker-e2e"))
	_ = os.Setenv("MQ_DRIVER", "none")
}

func startServer(ctx context.Context) (*server.Server, error) {
	cfg := config.LoadConfig()
	srv, err := server.New(ctx, cfg, zap.NewNop())
	if err != nil {
		return nil, err
	}

	go func() {
		_ = srv.Start()
	}()

	return srv, nil
}

func waitForPostgres(ctx context.Context) error {
	cfg := config.LoadConfig()
	conn, err := sql.Open("postgres", db.DSN(cfg.Database))
	if err != nil {
		return err
	}
	defer conn.Close()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := conn.PingContext(pingCtx)
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
	migrationsURL := "file://" + filepath.Join(root, "internal", "db", "migrations")

	migrator, err := migrate.New(migrationsURL, db.DSN(cfg.Database))
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
