package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meridian-hq/stratum/internal/storetest"
	"meridian-hq/stratum/pkg/admin"
	"meridian-hq/stratum/pkg/config"
	"meridian-hq/stratum/pkg/environment"
	"meridian-hq/stratum/pkg/resolver"
	"meridian-hq/stratum/pkg/security/auth"
	"meridian-hq/stratum/pkg/telemetry/health"
	"meridian-hq/stratum/pkg/telemetry/metrics"
)

// newTestServer assembles a server over a mock store with one QA
// environment and a couple of entries.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	st := storetest.NewMockStore()
	st.AddEnvironment(1, "QA")
	st.AddEntry("feature.batch_size", "250", storetest.EnvID(1))
	st.AddEntry("database.password", "hunter2-secret", storetest.EnvID(1))

	env := environment.NewResolver(st, nil)
	env.SetOverride("QA")

	res := resolver.New(st, env, nil)
	manager := admin.NewManager(res, env)

	checker := health.New(time.Second)
	checker.RegisterCheck("store", health.StoreCheck(st))
	checker.RegisterCheck("environment", health.EnvironmentCheck(env))

	validator := auth.NewValidator([]*auth.APIKey{
		{Key: "stk_admin", Name: "ops", Role: auth.RoleAdmin, Enabled: true},
		{Key: "stk_reader", Name: "dashboard", Role: auth.RoleReadOnly, Enabled: true},
	})
	authMW := auth.NewMiddleware(validator, auth.DefaultKeySources())

	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "test"}, nil)

	cfg := &config.ServiceConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: time.Second,
		RequestTimeout:  2 * time.Second,
	}

	return NewServer(cfg, Deps{
		Resolver:    res,
		Environment: env,
		Admin:       manager,
		Auth:        authMW,
		Health:      checker,
		Metrics:     collector,
		Version:     "1.2.0",
		Commit:      "4f1c9aa",
		BuildTime:   "2026-08-25T00:00:00Z",
	})
}

func get(t *testing.T, handler http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func post(t *testing.T, handler http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Health(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", rec.Code)
	}

	rec = get(t, handler, "/ready", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /ready, got %d", rec.Code)
	}
}

func TestHandler_Version(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, "/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var info health.VersionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if info.Version != "1.2.0" {
		t.Errorf("Expected version 1.2.0, got %s", info.Version)
	}
}

func TestHandler_Metrics(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", rec.Code)
	}
}

func TestHandler_MetricsOmittedWhenNil(t *testing.T) {
	srv := newTestServer(t)
	srv.deps.Metrics = nil
	handler := srv.Handler()

	rec := get(t, handler, "/metrics", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without collector, got %d", rec.Code)
	}
}

func TestHandler_Environment(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, "/api/v1/environment", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response admin.EnvironmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if response.Environment != "QA" {
		t.Errorf("Expected environment QA, got %q", response.Environment)
	}
	if !response.Resolvable {
		t.Error("Expected QA resolvable against the store")
	}
}

func TestHandler_Resolve(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, "/api/v1/resolve?key=feature.batch_size", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response admin.ResolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if response.Value != "250" {
		t.Errorf("Expected general value in clear, got %q", response.Value)
	}
	if response.Source != "environment" {
		t.Errorf("Expected environment source, got %q", response.Source)
	}
}

func TestHandler_ResolveMasksCredentials(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, "/api/v1/resolve?key=database.password", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var response admin.ResolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if response.Value == "hunter2-secret" {
		t.Error("Expected credential value masked")
	}
	if response.Category != "CREDENTIAL" {
		t.Errorf("Expected CREDENTIAL category, got %q", response.Category)
	}
}

func TestHandler_AdminRequiresKey(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, "/admin/cache/stats", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without key, got %d", rec.Code)
	}

	rec = get(t, handler, "/admin/cache/stats", map[string]string{"X-API-Key": "stk_reader"})
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with readonly key, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandler_AdminMutationsRequireAdminRole(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := post(t, handler, "/admin/cache/clear", map[string]string{"X-API-Key": "stk_reader"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for readonly key, got %d", rec.Code)
	}

	rec = post(t, handler, "/admin/cache/clear", map[string]string{"X-API-Key": "stk_admin"})
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with admin key, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = post(t, handler, "/admin/cache/sweep", map[string]string{"X-API-Key": "stk_admin"})
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from sweep, got %d", rec.Code)
	}

	rec = post(t, handler, "/admin/cache/refresh", map[string]string{"X-API-Key": "stk_admin"})
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from refresh, got %d", rec.Code)
	}
}

func TestHandler_AuditRouteOmittedWithoutStorage(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, "/admin/audit/events", map[string]string{"X-API-Key": "stk_reader"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without audit storage, got %d", rec.Code)
	}
}

func TestHandler_AdminRoutesOmittedWithoutAuth(t *testing.T) {
	srv := newTestServer(t)
	srv.deps.Auth = nil
	handler := srv.Handler()

	rec := get(t, handler, "/admin/cache/stats", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected admin routes unmounted, got %d", rec.Code)
	}
}

func TestHandler_RequestIDHeader(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := get(t, handler, "/health", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected X-Request-ID header on responses")
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for !srv.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if !srv.IsRunning() {
		t.Fatal("Server did not start")
	}

	srv.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Server did not stop")
	}

	if srv.IsRunning() {
		t.Error("Expected server stopped")
	}
}
