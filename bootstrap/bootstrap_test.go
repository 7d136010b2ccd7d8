package bootstrap_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/artpar/wildgate/bootstrap"
	"github.com/artpar/wildgate/config"
	"github.com/artpar/wildgate/domain/game"
	"github.com/artpar/wildgate/ports/mock"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wildgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func keepLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(prev) })
}

const testConfig = `
environment: test
logging:
  level: error
engine:
  seed: 7
`

func TestNew(t *testing.T) {
	keepLevel(t)

	app, err := bootstrap.New(bootstrap.Options{ConfigPath: writeConfig(t, testConfig), Version: "1.2.3"})
	require.NoError(t, err)
	defer app.Shutdown()

	assert.NotNil(t, app.HTTPServer)
	assert.NotNil(t, app.Metrics)
	assert.NotNil(t, app.Registry)
	assert.Equal(t, 4, app.Service.Len())
	assert.True(t, app.Service.Registry().Frozen())
	assert.Equal(t, "0.0.0.0:8080", app.HTTPServer.Addr)
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := bootstrap.New(bootstrap.Options{ConfigPath: writeConfig(t, "environment: qa\n")})
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestApp_Routes(t *testing.T) {
	keepLevel(t)

	app, err := bootstrap.New(bootstrap.Options{ConfigPath: writeConfig(t, testConfig), Version: "1.2.3"})
	require.NoError(t, err)
	defer app.Shutdown()

	srv := httptest.NewServer(app.HTTPServer.Handler)
	defer srv.Close()

	for _, tc := range []struct {
		path   string
		status int
	}{
		{"/health", http.StatusOK},
		{"/health/ready", http.StatusOK},
		{"/version", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/openapi.json", http.StatusOK},
		{"/v1/engine", http.StatusOK},
		{"/v1/positions/starting", http.StatusOK},
		{"/v1/positions/nowhere", http.StatusNotFound},
		{"/v2/anything", http.StatusNotFound},
	} {
		resp, err := http.Get(srv.URL + tc.path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, tc.status, resp.StatusCode, tc.path)
	}

	resp, err := http.Get(srv.URL + "/v1/engine")
	require.NoError(t, err)
	defer resp.Body.Close()
	var info game.EngineInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, game.EngineInfo{Name: "wildgate", Evaluator: "random", Version: "1.2.3"}, info)
}

func TestApp_DocsAndMetricsDisabled(t *testing.T) {
	keepLevel(t)

	app, err := bootstrap.New(bootstrap.Options{ConfigPath: writeConfig(t, testConfig+`
metrics:
  enabled: false
docs:
  enabled: false
`)})
	require.NoError(t, err)
	defer app.Shutdown()

	assert.Nil(t, app.Metrics)
	for _, path := range []string{"/metrics", "/openapi.json", "/docs"} {
		rec := httptest.NewRecorder()
		app.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestApp_ReadinessFollowsDomain(t *testing.T) {
	keepLevel(t)
	ctrl := gomock.NewController(t)
	d := mock.NewMockDomain(ctrl)
	d.EXPECT().Info(gomock.Any()).Return(game.EngineInfo{}, errors.New("engine offline"))

	app, err := bootstrap.New(bootstrap.Options{ConfigPath: writeConfig(t, testConfig), Domain: d})
	require.NoError(t, err)
	defer app.Shutdown()

	rec := httptest.NewRecorder()
	app.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "engine offline")
}

func TestReadiness_NotFrozen(t *testing.T) {
	check := bootstrap.Readiness(nil, nil)
	assert.ErrorIs(t, check(context.Background()), bootstrap.ErrNotReady)
}

func TestApp_ServeAndShutdown(t *testing.T) {
	keepLevel(t)

	app, err := bootstrap.New(bootstrap.Options{ConfigPath: writeConfig(t, testConfig)})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	url := fmt.Sprintf("http://%s/health", ln.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.NoError(t, app.Shutdown())
}

func TestApp_ServeReturnsAfterShutdown(t *testing.T) {
	keepLevel(t)

	app, err := bootstrap.New(bootstrap.Options{ConfigPath: writeConfig(t, testConfig)})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Serve(context.Background(), ln) }()

	url := fmt.Sprintf("http://%s/health", ln.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, app.Shutdown())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestApp_ReloadAppliesLogLevel(t *testing.T) {
	keepLevel(t)
	path := writeConfig(t, testConfig)

	app, err := bootstrap.New(bootstrap.Options{ConfigPath: path})
	require.NoError(t, err)
	defer app.Shutdown()
	require.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())

	require.NoError(t, os.WriteFile(path, []byte("environment: test\nlogging:\n  level: warn\n"), 0644))
	require.NoError(t, app.Config.Reload())
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	rec := httptest.NewRecorder()
	app.HTTPServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "wildgate_config_reloads_total 1")
}

func TestNewLogger_File(t *testing.T) {
	keepLevel(t)
	path := filepath.Join(t.TempDir(), "logs", "wildgate.log")

	logger, closer, err := bootstrap.NewLogger(config.LoggingConfig{
		Level: "info", Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1,
	})
	require.NoError(t, err)
	logger.Info().Str("k", "v").Msg("written to file")
	logger.Debug().Msg("filtered out")
	require.NoError(t, closer.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "written to file", line["message"])
	assert.Equal(t, "wildgate", line["service"])
	assert.Equal(t, "v", line["k"])
}

func TestNewLogger_BadLevel(t *testing.T) {
	keepLevel(t)
	_, _, err := bootstrap.NewLogger(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestBuildService(t *testing.T) {
	cfg := config.Default()
	cfg.Environment = config.Production

	svc, err := bootstrap.BuildService(cfg, bootstrap.NewEngine(cfg, "dev", nil), "dev")
	require.NoError(t, err)

	doc, err := svc.OpenAPI()
	require.NoError(t, err)
	var parsed struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
	}
	require.NoError(t, json.Unmarshal(doc, &parsed))
	assert.Equal(t, "wildgate", parsed.Info.Title)
	assert.Equal(t, "dev", parsed.Info.Version)
}
