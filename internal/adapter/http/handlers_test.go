package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/deepscout/deepscout/internal/adapter/memstore"
	"github.com/deepscout/deepscout/internal/domain"
	"github.com/deepscout/deepscout/internal/domain/research"
	"github.com/deepscout/deepscout/internal/domain/user"
	"github.com/deepscout/deepscout/internal/port/websearch"
	"github.com/deepscout/deepscout/internal/service"
)

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	if strings.HasPrefix(prompt, "Break down") {
		return "Q1\nQ2", nil
	}
	return "Generated report body.", nil
}

type stubSearcher struct{}

func (stubSearcher) Search(context.Context, string, int) ([]websearch.Result, error) {
	return []websearch.Result{{Title: "T", URL: "https://example.com", Snippet: "s"}}, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(context.Context, string) (string, error) {
	return "short", nil
}

func newTestRouter() (chi.Router, *memstore.Store) {
	store := memstore.New()
	orch := service.NewOrchestrator(store, stubGenerator{}, stubSearcher{}, stubExtractor{}, nil, nil, 3)
	researchSvc := service.NewResearch(store, orch, nil, 2)
	userSvc := service.NewUsers(&fakeUserStore{users: map[string]*user.User{}})

	r := chi.NewRouter()
	MountRoutes(r, NewHandlers(researchSvc, userSvc))
	return r, store
}

func TestStartResearch(t *testing.T) {
	r, _ := newTestRouter()

	body := bytes.NewBufferString(`{"query":"ev markets"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/research", body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["task_id"] == "" {
		t.Fatal("expected task_id in response")
	}
}

func TestStartResearchBlankQuery(t *testing.T) {
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/research", bytes.NewBufferString(`{"query":"  "}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestStartResearchBadBody(t *testing.T) {
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/research", bytes.NewBufferString(`{not json`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetResearchStatusUnknown(t *testing.T) {
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/research/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetResearchStatus(t *testing.T) {
	r, store := newTestRouter()
	task := research.NewTask("task-1", "q")
	if err := store.Create(context.Background(), task); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/research/task-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var snap research.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.TaskID != "task-1" || snap.Status != research.StatusInitialized {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestDownloadReportBeforeCompletion(t *testing.T) {
	r, store := newTestRouter()
	if err := store.Create(context.Background(), research.NewTask("task-1", "q")); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/research/task-1/download", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDownloadReportAfterCompletion(t *testing.T) {
	r, store := newTestRouter()
	ctx := context.Background()
	if err := store.Create(ctx, research.NewTask("task-1", "q")); err != nil {
		t.Fatalf("create: %v", err)
	}
	_ = store.SetReport(ctx, "task-1", "final report text")
	_ = store.SetStatus(ctx, "task-1", research.StatusCompleted)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/research/task-1/download", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %q", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `filename="research_report_task-1.txt"`) {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if w.Body.String() != "final report text" {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestListResearch(t *testing.T) {
	r, store := newTestRouter()
	ctx := context.Background()
	_ = store.Create(ctx, research.NewTask("a", "q1"))
	_ = store.Create(ctx, research.NewTask("b", "q2"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/research", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var snaps []research.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snaps); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
}

type stubConnCounter int

func (c stubConnCounter) ConnectionCount() int { return int(c) }

func TestHealthHandler(t *testing.T) {
	h := HealthHandler("nats://localhost:4222", stubConnCounter(3))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Status        string `json:"status"`
		NATS          string `json:"nats"`
		WSConnections int    `json:"ws_connections"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ok" || resp.NATS != "nats://localhost:4222" || resp.WSConnections != 3 {
		t.Fatalf("unexpected health body: %+v", resp)
	}
}

func TestMountRoutesLeavesHealthToCaller(t *testing.T) {
	// /health carries hub and broker diagnostics, so the caller
	// registers it; MountRoutes claiming the path would shadow that
	// handler with a second registration.
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unmounted /health, got %d", w.Code)
	}
}

// --- user handlers ---

type fakeUserStore struct {
	users map[string]*user.User
}

func (s *fakeUserStore) CreateUser(_ context.Context, u *user.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) GetUser(_ context.Context, id string) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", id, domain.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("get user by email %s: %w", email, domain.ErrNotFound)
}

func (s *fakeUserStore) ListUsers(context.Context) ([]user.User, error) {
	var out []user.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeUserStore) UpdateUser(_ context.Context, u *user.User) error {
	if _, ok := s.users[u.ID]; !ok {
		return fmt.Errorf("update user %s: %w", u.ID, domain.ErrNotFound)
	}
	s.users[u.ID] = u
	return nil
}

func (s *fakeUserStore) DeleteUser(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("delete user %s: %w", id, domain.ErrNotFound)
	}
	delete(s.users, id)
	return nil
}

func TestCreateUser(t *testing.T) {
	r, _ := newTestRouter()

	body := bytes.NewBufferString(`{"email":"a@example.com","name":"Analyst","password":"longenough"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp userResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Email != "a@example.com" || resp.ID == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatal("response must not leak password fields")
	}
}

func TestCreateUserInvalid(t *testing.T) {
	r, _ := newTestRouter()

	body := bytes.NewBufferString(`{"email":"not-an-email","name":"X","password":"longenough"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetUserNotFound(t *testing.T) {
	r, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteUser(t *testing.T) {
	store := &fakeUserStore{users: map[string]*user.User{
		"u1": {ID: "u1", Email: "a@example.com", Name: "A"},
	}}
	r := chi.NewRouter()
	memTasks := memstore.New()
	orch := service.NewOrchestrator(memTasks, stubGenerator{}, stubSearcher{}, stubExtractor{}, nil, nil, 3)
	MountRoutes(r, NewHandlers(service.NewResearch(memTasks, orch, nil, 1), service.NewUsers(store)))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/users/u1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if len(store.users) != 0 {
		t.Fatal("user not deleted")
	}
}
