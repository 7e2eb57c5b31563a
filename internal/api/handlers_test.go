package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/LeventeLantos/direct-messaging/internal/auth"
	"github.com/LeventeLantos/direct-messaging/internal/health"
	"github.com/LeventeLantos/direct-messaging/internal/model"
	"github.com/LeventeLantos/direct-messaging/internal/policy"
	"github.com/LeventeLantos/direct-messaging/internal/repo"
	"github.com/LeventeLantos/direct-messaging/internal/service"
)

type testServer struct {
	mux    http.Handler
	tokens *auth.Tokens
	store  *repo.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repo.NewMemoryStore()
	for _, u := range []model.User{
		{Username: "alice", FirstName: "Alice", LastName: "Anderson", Phone: "+3610"},
		{Username: "bob", FirstName: "Bob", LastName: "Brown", Phone: "+3620"},
		{Username: "carol", FirstName: "Carol", LastName: "Clark", Phone: "+3630"},
	} {
		if err := store.CreateUser(context.Background(), u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	svc, err := service.New(store, policy.New(), 160)
	if err != nil {
		t.Fatalf("service.New: %v", err)
	}
	tokens, err := auth.NewTokens(auth.Config{Secret: "test-secret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("auth.NewTokens: %v", err)
	}

	return &testServer{
		mux:    Router(NewHandler(svc, nil), tokens),
		tokens: tokens,
		store:  store,
	}
}

func (s *testServer) do(t *testing.T, as, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if as != "" {
		token, err := s.tokens.Issue(as)
		if err != nil {
			t.Fatalf("Issue: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) send(t *testing.T, from, to, body string) int64 {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"to_username": to, "body": body})
	rr := s.do(t, from, http.MethodPost, "/v1/messages", string(payload))
	if rr.Code != http.StatusCreated {
		t.Fatalf("send: expected 201, got %d body=%q", rr.Code, rr.Body.String())
	}
	msg := decodeJSON(t, rr)["message"].(map[string]any)
	return int64(msg["id"].(float64))
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("failed to decode json: %v body=%q", err, rr.Body.String())
	}
	return m
}

func TestHealth_NoChecker(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "", http.MethodGet, "/v1/health", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}

	body := decodeJSON(t, rr)
	if v, ok := body["ok"].(bool); !ok || !v {
		t.Fatalf("expected {ok:true}, got %v", body)
	}
}

func TestHealth_ReportsFailingProbe(t *testing.T) {
	checker := health.NewChecker(time.Second).
		Add("postgres", func(context.Context) error { return errors.New("db down") })
	checker.Run(context.Background())

	mux := Router(NewHandler(&fakeService{}, checker), &fakeVerifier{})
	req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d body=%q", rr.Code, rr.Body.String())
	}
	body := decodeJSON(t, rr)
	checks := body["checks"].(map[string]any)
	pg := checks["postgres"].(map[string]any)
	if pg["error"] != "db down" {
		t.Fatalf("expected postgres error in checks, got %v", checks)
	}
}

func TestSendMessage_Created(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "alice", http.MethodPost, "/v1/messages", `{"to_username":"bob","body":"hi"}`)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%q", rr.Code, rr.Body.String())
	}
	msg, ok := decodeJSON(t, rr)["message"].(map[string]any)
	if !ok {
		t.Fatalf("expected message envelope, got %s", rr.Body.String())
	}
	if msg["from_username"] != "alice" || msg["to_username"] != "bob" || msg["body"] != "hi" {
		t.Fatalf("unexpected message %v", msg)
	}
	if _, ok := msg["id"].(float64); !ok {
		t.Fatalf("expected numeric id, got %v", msg["id"])
	}
	if sentAt, _ := msg["sent_at"].(string); sentAt == "" {
		t.Fatalf("expected sent_at, got %v", msg)
	}
	if _, present := msg["read_at"]; present {
		t.Fatalf("creation response must not include read_at, got %v", msg)
	}
}

func TestSendMessage_ValidationAndReferenceErrors(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"to_username":`, "invalid request body"},
		{"unknown field", `{"to_username":"bob","body":"hi","from_username":"carol"}`, "invalid request body"},
		{"empty body", `{"to_username":"bob","body":""}`, "body is required"},
		{"unknown recipient", `{"to_username":"mallory","body":"hi"}`, "unknown recipient"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := s.do(t, "alice", http.MethodPost, "/v1/messages", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%q", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), tc.want) {
				t.Fatalf("expected body to contain %q, got %q", tc.want, rr.Body.String())
			}
		})
	}
}

func TestGetMessage_ParticipantsSeeEmbeddedUsers(t *testing.T) {
	s := newTestServer(t)
	id := s.send(t, "alice", "bob", "hi")

	for _, who := range []string{"alice", "bob"} {
		rr := s.do(t, who, http.MethodGet, "/v1/messages/"+itoa(id), "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d body=%q", who, rr.Code, rr.Body.String())
		}

		msg := decodeJSON(t, rr)["message"].(map[string]any)
		if msg["body"] != "hi" {
			t.Fatalf("%s: unexpected body %v", who, msg["body"])
		}
		if msg["read_at"] != nil {
			t.Fatalf("%s: expected read_at null, got %v", who, msg["read_at"])
		}
		from := msg["from_user"].(map[string]any)
		to := msg["to_user"].(map[string]any)
		if from["username"] != "alice" || from["first_name"] != "Alice" || from["phone"] != "+3610" {
			t.Fatalf("%s: unexpected from_user %v", who, from)
		}
		if to["username"] != "bob" || to["last_name"] != "Brown" {
			t.Fatalf("%s: unexpected to_user %v", who, to)
		}
	}
}

func TestGetMessage_ThirdPartyForbidden(t *testing.T) {
	s := newTestServer(t)
	id := s.send(t, "alice", "bob", "hi")

	rr := s.do(t, "carol", http.MethodGet, "/v1/messages/"+itoa(id), "")

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%q", rr.Code, rr.Body.String())
	}
	if got := decodeJSON(t, rr)["error"]; got != "This message cannot be read." {
		t.Fatalf("unexpected error message %v", got)
	}
}

func TestGetMessage_NotFoundAndBadID(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "alice", http.MethodGet, "/v1/messages/999", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%q", rr.Code, rr.Body.String())
	}

	for _, bad := range []string{"abc", "0", "-4"} {
		rr = s.do(t, "alice", http.MethodGet, "/v1/messages/"+bad, "")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %d body=%q", bad, rr.Code, rr.Body.String())
		}
	}
}

func TestMessages_RequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	routes := []struct{ method, path, body string }{
		{http.MethodGet, "/v1/messages/1", ""},
		{http.MethodPost, "/v1/messages", `{"to_username":"bob","body":"hi"}`},
		{http.MethodPost, "/v1/messages/1/read", ""},
	}
	for _, rt := range routes {
		rr := s.do(t, "", rt.method, rt.path, rt.body)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", rt.method, rt.path, rr.Code)
		}
	}
}

func TestMarkRead_RecipientOnly(t *testing.T) {
	s := newTestServer(t)
	id := s.send(t, "alice", "bob", "hi")
	path := "/v1/messages/" + itoa(id) + "/read"

	for _, who := range []string{"alice", "carol"} {
		rr := s.do(t, who, http.MethodPost, path, "")
		if rr.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403, got %d body=%q", who, rr.Code, rr.Body.String())
		}
	}

	rr := s.do(t, "bob", http.MethodPost, path, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	msg := decodeJSON(t, rr)["message"].(map[string]any)
	if int64(msg["id"].(float64)) != id {
		t.Fatalf("unexpected id %v", msg["id"])
	}
	firstReadAt, _ := msg["read_at"].(string)
	if firstReadAt == "" {
		t.Fatalf("expected read_at, got %v", msg)
	}

	// Second mark-read keeps the original timestamp.
	rr = s.do(t, "bob", http.MethodPost, path, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat, got %d", rr.Code)
	}
	again := decodeJSON(t, rr)["message"].(map[string]any)
	if again["read_at"] != firstReadAt {
		t.Fatalf("expected read_at %v to be kept, got %v", firstReadAt, again["read_at"])
	}

	rr = s.do(t, "alice", http.MethodGet, "/v1/messages/"+itoa(id), "")
	got := decodeJSON(t, rr)["message"].(map[string]any)
	if got["read_at"] != firstReadAt {
		t.Fatalf("expected fetched read_at %v, got %v", firstReadAt, got["read_at"])
	}
}

func TestMarkRead_NotFound(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "bob", http.MethodPost, "/v1/messages/77/read", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%q", rr.Code, rr.Body.String())
	}
}

func TestStoreFaultReturns500WithoutLeakingDetails(t *testing.T) {
	fs := &fakeService{err: errors.New("db down")}
	mux := Router(NewHandler(fs, nil), &fakeVerifier{username: "alice"})

	req := httptest.NewRequest(http.MethodGet, "/v1/messages/1", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d body=%q", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "db down") {
		t.Fatalf("expected internal error to be hidden, got %q", rr.Body.String())
	}
	if fs.gotRequester.Username != "alice" || fs.gotID != 1 {
		t.Fatalf("expected service called with alice/1, got %+v/%d", fs.gotRequester, fs.gotID)
	}
}

func TestRouterRoot(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, "", http.MethodGet, "/", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%q", rr.Code, rr.Body.String())
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "direct-messaging" {
		t.Fatalf("expected body %q, got %q", "direct-messaging", got)
	}
}

type fakeService struct {
	gotRequester model.Requester
	gotID        int64
	err          error
}

var _ MessageService = (*fakeService)(nil)

func (f *fakeService) FetchForUser(ctx context.Context, requester model.Requester, id int64) (model.Message, error) {
	f.gotRequester, f.gotID = requester, id
	return model.Message{}, f.err
}

func (f *fakeService) Send(ctx context.Context, requester model.Requester, toUsername, body string) (model.SentMessage, error) {
	f.gotRequester = requester
	return model.SentMessage{}, f.err
}

func (f *fakeService) MarkReadForUser(ctx context.Context, requester model.Requester, id int64) (model.ReadReceipt, error) {
	f.gotRequester, f.gotID = requester, id
	return model.ReadReceipt{}, f.err
}

type fakeVerifier struct {
	username string
}

func (f *fakeVerifier) Verify(string) (string, error) {
	if f.username == "" {
		return "", auth.ErrInvalidToken
	}
	return f.username, nil
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
