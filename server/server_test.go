package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebridge/companiond/assistant"
	"github.com/carebridge/companiond/conversations"
	"github.com/carebridge/companiond/llm"
	"github.com/carebridge/companiond/memory"
	"github.com/carebridge/companiond/migrations"
	"github.com/carebridge/companiond/profile"
	"github.com/carebridge/companiond/reminders"
	"github.com/carebridge/companiond/runtime"
	"github.com/carebridge/companiond/summaries"

	_ "github.com/mattn/go-sqlite3"
)

type fakeLLM struct {
	mu      sync.Mutex
	respond func(prompt string) (string, error)
}

func (f *fakeLLM) Synchronous(_ context.Context, req *llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	respond := f.respond
	f.mu.Unlock()

	content, err := respond(req.Messages[len(req.Messages)-1].Content)
	if err != nil {
		return nil, err
	}
	return &llm.Response{Content: content}, nil
}

func (f *fakeLLM) set(respond func(prompt string) (string, error)) {
	f.mu.Lock()
	f.respond = respond
	f.mu.Unlock()
}

type serverEnv struct {
	server *Server
	fake   *fakeLLM
	db     *sql.DB
	turns  *conversations.Store
}

func newServerEnv(t *testing.T) *serverEnv {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.RunMigrations(db, filepath.Join("..", "migrations"), zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	memoryStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"related_memories": []string{}})
	}))
	t.Cleanup(memoryStub.Close)

	fake := &fakeLLM{respond: func(string) (string, error) { return "hello", nil }}
	gateway := llm.NewGateway(fake, "test-model", 512, 0, zerolog.Nop())
	turns := conversations.NewStore(db)

	service := assistant.NewService(
		turns,
		reminders.NewStore(db),
		summaries.NewStore(db),
		profile.NewStore(db),
		memory.NewClient(memoryStub.URL, time.Second, zerolog.Nop()),
		gateway,
		runtime.NewPool(1, 16, zerolog.Nop()),
		zerolog.Nop(),
	)

	srv := New(":0", service, reminders.NewStore(db), summaries.NewStore(db), zerolog.Nop())
	return &serverEnv{server: srv, fake: fake, db: db, turns: turns}
}

func (e *serverEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newServerEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestChatEndpoint(t *testing.T) {
	env := newServerEnv(t)
	env.fake.set(func(prompt string) (string, error) {
		return "Good morning! How did you sleep?", nil
	})

	rec := env.do(t, http.MethodPost, "/v1/chat", map[string]string{
		"user_id": "alice",
		"message": "good morning",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Answer string `json:"answer"`
	}
	decodeBody(t, rec, &resp)
	if resp.Answer != "Good morning! How did you sleep?" {
		t.Errorf("unexpected answer %q", resp.Answer)
	}
}

func TestChatEndpointValidation(t *testing.T) {
	env := newServerEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/chat", map[string]string{"user_id": "alice"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing message: status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString("{not json"))
	rec2 := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("bad JSON: status = %d, want 400", rec2.Code)
	}
}

func TestChatEndpointGenerationFailure(t *testing.T) {
	env := newServerEnv(t)
	env.fake.set(func(prompt string) (string, error) {
		return "", errors.New("provider down")
	})

	rec := env.do(t, http.MethodPost, "/v1/chat", map[string]string{
		"user_id": "alice",
		"message": "hello",
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestWelcomeEndpoint(t *testing.T) {
	env := newServerEnv(t)
	env.fake.set(func(prompt string) (string, error) {
		return "Hello! Lovely to see you today.", nil
	})

	rec := env.do(t, http.MethodPost, "/v1/chat/welcome", map[string]string{"user_id": "alice"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Answer string `json:"answer"`
	}
	decodeBody(t, rec, &resp)
	if resp.Answer != "Hello! Lovely to see you today." {
		t.Errorf("unexpected answer %q", resp.Answer)
	}

	rec = env.do(t, http.MethodPost, "/v1/chat/welcome", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing user_id: status = %d, want 400", rec.Code)
	}
}

func TestChatHistoryEndpoint(t *testing.T) {
	env := newServerEnv(t)
	ctx := context.Background()
	if err := env.turns.AppendUserTurn(ctx, "alice", "first"); err != nil {
		t.Fatalf("AppendUserTurn: %v", err)
	}
	if err := env.turns.AppendAssistantTurn(ctx, "alice", "second"); err != nil {
		t.Fatalf("AppendAssistantTurn: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/v1/chat/history?user_id=alice&limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Turns []struct {
			Text     string `json:"text"`
			FromUser bool   `json:"from_user"`
		} `json:"turns"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Turns) != 2 || resp.Turns[0].Text != "first" || resp.Turns[1].FromUser {
		t.Errorf("unexpected history %+v", resp.Turns)
	}
}

func TestReminderLifecycle(t *testing.T) {
	env := newServerEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/reminders", map[string]any{
		"user_id": "alice",
		"title":   "Take pills",
		"due_at":  "2030-05-10T09:00:00Z",
		"tags":    []string{"medication", "BOGUS"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID   string   `json:"id"`
		Tags []string `json:"tags"`
	}
	decodeBody(t, rec, &created)
	if created.ID == "" {
		t.Fatal("expected an assigned reminder ID")
	}
	// Unrecognized tags are dropped at the boundary.
	if len(created.Tags) != 1 || created.Tags[0] != "MEDICATION" {
		t.Errorf("tags = %v, want [MEDICATION]", created.Tags)
	}

	rec = env.do(t, http.MethodGet, "/v1/reminders?user_id=alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", rec.Code)
	}
	var list struct {
		Reminders []struct {
			Status string `json:"status"`
		} `json:"reminders"`
	}
	decodeBody(t, rec, &list)
	if len(list.Reminders) != 1 || list.Reminders[0].Status != "INCOMPLETE" {
		t.Fatalf("unexpected list %+v", list.Reminders)
	}

	rec = env.do(t, http.MethodPatch, "/v1/reminders/"+created.ID+"/complete", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("complete status = %d, want 204", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/v1/reminders/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/v1/reminders/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestExtractRemindersEndpoint(t *testing.T) {
	env := newServerEnv(t)
	env.fake.set(func(prompt string) (string, error) {
		return "Task: Dentist\nDate: 2030-06-01 10:00\nDescription: Cleaning\nTags: APPOINTMENT", nil
	})

	rec := env.do(t, http.MethodPost, "/v1/reminders/extract", map[string]string{
		"user_id": "alice",
		"message": "I have a dentist appointment June first at ten",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Reminders []struct {
			Title string `json:"title"`
		} `json:"reminders"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Reminders) != 1 || resp.Reminders[0].Title != "Dentist" {
		t.Errorf("unexpected reminders %+v", resp.Reminders)
	}
}

func TestGenerateSummaryEndpointPreconditions(t *testing.T) {
	env := newServerEnv(t)

	// Today's date cannot be summarized yet.
	today := time.Now().UTC().Format("2006-01-02")
	rec := env.do(t, http.MethodPost, "/v1/summaries/generate", map[string]any{
		"user_id":            "alice",
		"date":               today,
		"utc_offset_seconds": 0,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestGenerateSummaryEndpoint(t *testing.T) {
	env := newServerEnv(t)
	env.fake.set(func(prompt string) (string, error) {
		return `{"summary": "A fine day.", "scores": {"health": 7, "exercise": 5, "mental": 6, "social": 8, "productivity": 4}, "analysis": "Details."}`, nil
	})

	at := time.Date(2024, 4, 1, 14, 0, 0, 0, time.UTC)
	if err := env.turns.AppendTurnAt(context.Background(), "alice", "hello", true, at); err != nil {
		t.Fatalf("AppendTurnAt: %v", err)
	}

	rec := env.do(t, http.MethodPost, "/v1/summaries/generate", map[string]any{
		"user_id":            "alice",
		"date":               "2024-04-01",
		"utc_offset_seconds": 0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Summary string         `json:"summary"`
		Scores  map[string]int `json:"scores"`
	}
	decodeBody(t, rec, &resp)
	if resp.Summary != "A fine day." || resp.Scores["social"] != 8 {
		t.Errorf("unexpected response %+v", resp)
	}

	// Fetch it back, then delete it.
	rec = env.do(t, http.MethodGet, "/v1/summaries?user_id=alice&date=2024-04-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/v1/summaries?user_id=alice&date=2024-04-01", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/v1/summaries?user_id=alice&date=2024-04-01", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestMergeCoreInformationEndpoint(t *testing.T) {
	env := newServerEnv(t)
	env.fake.set(func(prompt string) (string, error) {
		return "Enjoys gardening. Daughter lives nearby.", nil
	})

	rec := env.do(t, http.MethodPost, "/v1/memory/core", map[string]string{
		"user_id":     "alice",
		"information": "She enjoys gardening",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		CoreInformation string `json:"core_information"`
	}
	decodeBody(t, rec, &resp)
	if resp.CoreInformation != "Enjoys gardening. Daughter lives nearby." {
		t.Errorf("unexpected blob %q", resp.CoreInformation)
	}
}

func TestAddContextualMemoryEndpoint(t *testing.T) {
	env := newServerEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/memory/context", map[string]string{
		"user_id": "alice",
		"text":    "Visited the garden centre today.",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204: %s", rec.Code, rec.Body.String())
	}
}
