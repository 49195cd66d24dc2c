package itest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap/zaptest"

	"github.com/mergington/activities-api/internal/adapters/httpapi"
	memactivityrepo "github.com/mergington/activities-api/internal/adapters/memory/activityrepo"
	memclock "github.com/mergington/activities-api/internal/adapters/memory/clock"
	memidempotency "github.com/mergington/activities-api/internal/adapters/memory/idempotency"
	pgactivityrepo "github.com/mergington/activities-api/internal/adapters/postgres/activityrepo"
	postgres_testutil "github.com/mergington/activities-api/internal/adapters/postgres/testutil"
	redisidempotency "github.com/mergington/activities-api/internal/adapters/redis/idempotency"
	"github.com/mergington/activities-api/internal/app/activities"
	"github.com/mergington/activities-api/internal/domain"
	"github.com/mergington/activities-api/internal/platform/metrics"
	activityrepoport "github.com/mergington/activities-api/internal/ports/out/activityrepo"
	idempotencyport "github.com/mergington/activities-api/internal/ports/out/idempotency"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "memory":
		return []backend{backendMemory}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected memory|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

// newTestServer wires the full router the way cmd/api does. The memory backend pairs with the
// go-cache idempotency store; the postgres backend pairs with Redis (served by miniredis).
func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	var (
		repo      activityrepoport.Repository
		idemStore idempotencyport.Store
	)

	switch b {
	case backendPostgres:
		pool := postgres_testutil.OpenMigratedPool(t)
		repo = pgactivityrepo.NewRepo(pool)
		mr := miniredis.RunT(t)
		client := redisidempotency.NewClient(mr.Addr(), "", 0)
		t.Cleanup(func() { _ = client.Close() })
		idemStore = redisidempotency.NewStore(client, time.Hour)
	case backendMemory:
		repo = memactivityrepo.NewRepo()
		idemStore = memidempotency.NewStore(time.Hour)
	default:
		t.Fatalf("unknown backend: %s", b)
	}
	if err := repo.Seed(context.Background(), domain.SeedActivities()); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	log := zaptest.NewLogger(t)
	m := metrics.New()
	api := httpapi.NewServer(activities.NewService(repo, log), idemStore)
	api.Clock = memclock.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	api.Log = log
	api.Metrics = m
	handler := httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{Logger: log, Metrics: m})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := srv.Client()
	client.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &testServer{
		baseURL: srv.URL,
		client:  client,
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) do(t *testing.T, method string, path string, idemKey string) (int, []byte, http.Header) {
	t.Helper()

	req, err := http.NewRequest(method, s.url(path), nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type activityResponse struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

func requireDetailContains(t *testing.T, status int, body []byte, wantStatus int, wantSubstr string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status=%d want=%d body=%s", status, wantStatus, string(body))
	}
	got := mustUnmarshal[errorResponse](t, body)
	if !strings.Contains(strings.ToLower(got.Detail), wantSubstr) {
		t.Fatalf("detail=%q want substring %q", got.Detail, wantSubstr)
	}
}

func requireMessage(t *testing.T, status int, body []byte, want string) {
	t.Helper()
	if status != http.StatusOK {
		t.Fatalf("status=%d want=200 body=%s", status, string(body))
	}
	got := mustUnmarshal[messageResponse](t, body)
	if got.Message != want {
		t.Fatalf("message=%q want=%q", got.Message, want)
	}
}

func (s *testServer) participants(t *testing.T, name string) []string {
	t.Helper()
	status, body, _ := s.do(t, http.MethodGet, "/activities", "")
	if status != http.StatusOK {
		t.Fatalf("GET /activities status=%d body=%s", status, string(body))
	}
	all := mustUnmarshal[map[string]activityResponse](t, body)
	a, ok := all[name]
	if !ok {
		t.Fatalf("activity %q missing from /activities", name)
	}
	return a.Participants
}
