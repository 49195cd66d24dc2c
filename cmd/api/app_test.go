package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mergington/activities-api/internal/platform/config"
)

func memoryConfig() config.Config {
	return config.Config{
		Port:               "0",
		StorageBackend:     config.BackendMemory,
		IdempotencyBackend: config.BackendMemory,
		IdempotencyTTL:     time.Hour,
		ShutdownTimeout:    time.Second,
	}
}

func TestBuildApp_Memory(t *testing.T) {
	a, err := buildApp(context.Background(), memoryConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	rr := httptest.NewRecorder()
	a.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/activities", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"Chess Club"`)
}

func TestBuildApp_EnforceCapacity(t *testing.T) {
	cfg := memoryConfig()
	cfg.EnforceCapacity = true
	a, err := buildApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	// Tennis Club seeds with 10 places; fill the remaining ones.
	signup := func(email string) int {
		rr := httptest.NewRecorder()
		a.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/activities/Tennis%20Club/signup?email="+email, nil))
		return rr.Code
	}
	status := http.StatusOK
	for i := 0; status == http.StatusOK && i < 20; i++ {
		status = signup("s" + string(rune('a'+i)) + "@mergington.edu")
	}
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBuildApp_RedisIdempotency(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.IdempotencyBackend = config.BackendRedis
	cfg.RedisAddr = mr.Addr()

	a, err := buildApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/activities/Chess%20Club/signup?email=r%40mergington.edu", nil)
		req.Header.Set("Idempotency-Key", "k")
		rr := httptest.NewRecorder()
		a.Handler.ServeHTTP(rr, req)
		return rr.Code
	}
	require.Equal(t, http.StatusOK, do())
	require.Equal(t, http.StatusOK, do())
	assert.NotEmpty(t, mr.Keys())
}

func TestBuildApp_RedisUnreachable(t *testing.T) {
	cfg := memoryConfig()
	cfg.IdempotencyBackend = config.BackendRedis
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := buildApp(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestRootCmd_PortFlagBindsIntoConfig(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9191"}))
	v, err := cmd.Flags().GetString("port")
	require.NoError(t, err)
	assert.Equal(t, "9191", v)

	sub, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, "serve", sub.Name())
	assert.NotNil(t, sub.InheritedFlags().Lookup("port"))
}
