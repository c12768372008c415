package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/kredible/internal/config"
	"github.com/jonathan/kredible/internal/db"
	"github.com/jonathan/kredible/internal/email"
	"github.com/jonathan/kredible/internal/server/ratelimit"
	"github.com/jonathan/kredible/internal/types"
)

type testServer struct {
	*Server
	handler http.Handler
	store   db.Store
	mailer  *fakeMailer
	clock   *clock
}

type testOption func(cfg *config.Config, deps *Deps)

func withDebug() testOption {
	return func(cfg *config.Config, _ *Deps) { cfg.DebugEndpoints = true }
}

func withRateLimit(rl *ratelimit.Config) testOption {
	return func(_ *config.Config, deps *Deps) { deps.RateLimit = rl }
}

const (
	testOperator = "owner@kredible.dev"
	testPassword = "correct horse battery"
)

func withAuth(t *testing.T) testOption {
	t.Helper()
	passwords := &config.PasswordConfig{BcryptCost: 10}
	hash, err := passwords.HashPassword(testPassword)
	require.NoError(t, err)
	return func(cfg *config.Config, deps *Deps) {
		cfg.DashboardEmail = testOperator
		cfg.DashboardPasswordHash = hash
		deps.JWT = &config.JWTConfig{Secret: "test-secret-key-0123456789", ExpirationHours: 1}
		deps.Passwords = passwords
	}
}

func newTestServer(t *testing.T, opts ...testOption) *testServer {
	t.Helper()
	cfg := newTestConfig()
	store := db.NewMemoryStore("")
	mailer := &fakeMailer{}
	deps := Deps{
		Store:     store,
		Email:     mailer,
		RateLimit: &ratelimit.Config{Enabled: false},
	}
	for _, opt := range opts {
		opt(cfg, &deps)
	}

	s, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)

	clk := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	s.requests.now = clk.Now

	return &testServer{Server: s, handler: s.Handler(), store: store, mailer: mailer, clock: clk}
}

// do sends a request through the full middleware chain and decodes the JSON body.
func (ts *testServer) do(t *testing.T, method, path string, body any, header ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "body: %s", w.Body.String())
	}
	return w, resp
}

func (ts *testServer) createRequest(t *testing.T) (token, id string) {
	t.Helper()
	w, resp := ts.do(t, http.MethodPost, "/recruiter-request", validInput())
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	data := resp["data"].(map[string]any)
	return data["token"].(string), data["requestId"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "memory", resp["storage"])
	assert.Equal(t, false, resp["auth"])
}

func TestCreateRequestEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodPost, "/recruiter-request", validInput())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "Candidate invitation sent successfully", resp["message"])

	data := resp["data"].(map[string]any)
	assert.NotEmpty(t, data["requestId"])
	assert.NotEmpty(t, data["token"])
	assert.Equal(t, "jane@x.com", data["candidateEmail"])
	assert.NotEmpty(t, data["expiresAt"])
	require.Len(t, ts.mailer.invitations, 1)
}

func TestCreateRequestEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		mailerErr  error
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed json",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantError:  MsgInvalidBody,
		},
		{
			name:       "empty body",
			body:       "",
			wantStatus: http.StatusBadRequest,
			wantError:  MsgInvalidBody,
		},
		{
			name:       "missing fields",
			body:       map[string]string{"firstName": "Ada"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "provider failure",
			body:       validInput(),
			mailerErr:  &email.ProviderError{StatusCode: 403, Message: "The from address does not match a verified Sender Identity"},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Failed to send invitation email: The from address does not match a verified Sender Identity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.mailer.inviteErr = tt.mailerErr

			w, resp := ts.do(t, http.MethodPost, "/recruiter-request", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, false, resp["success"])
			if tt.wantError != "" {
				assert.Contains(t, resp["error"], tt.wantError)
			} else {
				assert.NotEmpty(t, resp["error"])
			}
		})
	}
}

func TestGetRequestEndpoint(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.createRequest(t)

	for _, path := range []string{
		"/recruiter-request?token=" + token,
		"/candidate-submit?token=" + token,
		"/candidate-form/" + token,
	} {
		t.Run(path, func(t *testing.T) {
			w, resp := ts.do(t, http.MethodGet, path, nil)
			require.Equal(t, http.StatusOK, w.Code)

			data := resp["data"].(map[string]any)
			assert.Equal(t, "Ada Lovelace", data["recruiterName"])
			assert.Equal(t, "Acme", data["recruiterCompany"])
			assert.Equal(t, "Jane Roe", data["candidateName"])
			assert.Equal(t, "pending", data["status"])
			assert.NotContains(t, data, "token")
			assert.NotContains(t, data, "id")
		})
	}
}

func TestGetRequestEndpoint_Errors(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.createRequest(t)

	w, resp := ts.do(t, http.MethodGet, "/recruiter-request", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Token is required", resp["error"])

	w, resp = ts.do(t, http.MethodGet, "/recruiter-request?token=missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, MsgTokenNotFound, resp["error"])

	ts.clock.Advance(types.RequestTTL + time.Minute)
	w, resp = ts.do(t, http.MethodGet, "/candidate-submit?token="+token, nil)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, MsgTokenExpired, resp["error"])

	w, _ = ts.do(t, http.MethodGet, "/candidate-form/"+token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "expired record is gone after the first read")
}

func TestCandidateSubmit_GithubOnly(t *testing.T) {
	ts := newTestServer(t)
	token, id := ts.createRequest(t)

	w, resp := ts.do(t, http.MethodPost, "/candidate-submit", map[string]any{
		"token":          token,
		"githubUsername": "janedoe",
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	assert.Equal(t, "Profile submitted successfully", resp["message"])
	data := resp["data"].(map[string]any)
	assert.Equal(t, id, data["requestId"])
	assert.Equal(t, "Jane Roe", data["candidateName"])

	w, resp = ts.do(t, http.MethodGet, "/dashboard/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	profiles := resp["profiles"].([]any)
	require.Len(t, profiles, 1)
	entry := profiles[0].(map[string]any)
	assert.Equal(t, token, entry["token"])
	profile := entry["profile"].(map[string]any)
	assert.Equal(t, "janedoe", profile["githubUsername"])
	assert.Equal(t, []any{}, profile["additionalProfiles"])

	w, resp = ts.do(t, http.MethodGet, "/dashboard/requests", nil)
	require.Equal(t, http.StatusOK, w.Code)
	requests := resp["requests"].([]any)
	require.Len(t, requests, 1)
	assert.Equal(t, "completed", requests[0].(map[string]any)["status"])
}

func TestCandidateSubmit_BadLinkedInKeepsPending(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.createRequest(t)

	w, resp := ts.do(t, http.MethodPost, "/candidate-submit", map[string]any{
		"token":       token,
		"linkedinUrl": "ftp://bad",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid LinkedIn URL format", resp["error"])

	_, resp = ts.do(t, http.MethodGet, "/dashboard/requests", nil)
	requests := resp["requests"].([]any)
	require.Len(t, requests, 1)
	row := requests[0].(map[string]any)
	assert.Equal(t, "pending", row["status"])
	assert.Nil(t, row["candidateData"])
}

func TestCandidateSubmit_StatusCodes(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.createRequest(t)

	w, resp := ts.do(t, http.MethodPost, "/candidate-submit", map[string]any{"githubUsername": "janedoe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Token is required", resp["error"])

	w, _ = ts.do(t, http.MethodPost, "/candidate-submit", map[string]any{"token": "nope", "githubUsername": "janedoe"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, resp = ts.do(t, http.MethodPost, "/candidate-submit", map[string]any{"token": token, "fullName": "Jane"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "At least one professional profile is required", resp["error"])

	w, _ = ts.do(t, http.MethodPost, "/candidate-submit", map[string]any{"token": token, "portfolioUrl": "https://jane.dev"})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = ts.do(t, http.MethodPost, "/candidate-submit", map[string]any{"token": token, "portfolioUrl": "https://jane.dev"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, MsgAlreadyCompleted, resp["error"])

	// Still live at the expiry instant.
	ts.clock.Advance(types.RequestTTL)
	w, _ = ts.do(t, http.MethodPost, "/candidate-submit", map[string]any{"token": token, "portfolioUrl": "https://jane.dev"})
	assert.Equal(t, http.StatusConflict, w.Code)

	ts.clock.Advance(time.Second)
	w, _ = ts.do(t, http.MethodPost, "/candidate-submit", map[string]any{"token": token, "portfolioUrl": "https://jane.dev"})
	assert.Equal(t, http.StatusGone, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/recruiter-request?token="+token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboard_EmptyLists(t *testing.T) {
	ts := newTestServer(t)

	_, resp := ts.do(t, http.MethodGet, "/dashboard/requests", nil)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, []any{}, resp["requests"])

	_, resp = ts.do(t, http.MethodGet, "/dashboard/profiles", nil)
	assert.Equal(t, []any{}, resp["profiles"])
}

func TestTestEmailEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w, resp := ts.do(t, http.MethodPost, "/test-email", map[string]string{"email": "ops@kredible.dev"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, float64(202), resp["statusCode"])
	assert.Equal(t, "msg-test", resp["messageId"])
	assert.Equal(t, []string{"ops@kredible.dev"}, ts.mailer.tests)

	w, _ = ts.do(t, http.MethodPost, "/test-email", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.mailer.testErr = &email.ProviderError{StatusCode: 401, Message: "The provided authorization grant is invalid"}
	w, resp = ts.do(t, http.MethodPost, "/test-email", map[string]string{"email": "ops@kredible.dev"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, float64(401), resp["statusCode"])
	assert.Contains(t, resp["error"], "authorization grant is invalid")
}

func TestDebugStorage(t *testing.T) {
	ts := newTestServer(t)
	w, resp := ts.do(t, http.MethodGet, "/debug/storage", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "debug routes are off by default")
	assert.Nil(t, resp)

	ts = newTestServer(t, withDebug())
	token, id := ts.createRequest(t)

	w, resp = ts.do(t, http.MethodGet, "/debug/storage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["totalRequests"])
	row := resp["requests"].([]any)[0].(map[string]any)
	assert.Equal(t, id, row["id"])
	assert.Equal(t, token, row["token"])

	w, resp = ts.do(t, http.MethodPost, "/debug/storage", map[string]string{"action": "drop"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid action", resp["error"])

	w, _ = ts.do(t, http.MethodPost, "/debug/storage", map[string]string{"action": "clear"})
	require.Equal(t, http.StatusOK, w.Code)
	all, err := ts.store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDashboardAuth(t *testing.T) {
	ts := newTestServer(t, withAuth(t), withDebug())

	w, resp := ts.do(t, http.MethodGet, "/dashboard/requests", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", resp["error"])

	w, _ = ts.do(t, http.MethodGet, "/debug/storage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp = ts.do(t, http.MethodPost, "/auth/login", map[string]string{"email": testOperator, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, MsgInvalidCredential, resp["error"])

	w, _ = ts.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "someone@else.dev", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, resp = ts.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "Owner@Kredible.dev", "password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	token := resp["data"].(map[string]any)["token"].(string)
	require.NotEmpty(t, token)

	w, resp = ts.do(t, http.MethodGet, "/dashboard/requests", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])

	w, _ = ts.do(t, http.MethodGet, "/dashboard/profiles", nil, "Authorization", "Bearer "+token+"x")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Candidate-facing routes never need the dashboard token.
	w, _ = ts.do(t, http.MethodPost, "/recruiter-request", validInput())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_DisabledWithoutJWT(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodPost, "/auth/login", map[string]string{"email": testOperator, "password": testPassword})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLogin_Validation(t *testing.T) {
	ts := newTestServer(t, withAuth(t))

	w, resp := ts.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp["error"], "Email")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, func(cfg *config.Config, _ *Deps) {
		cfg.CORSAllowedOrigins = []string{"https://app.kredible.dev"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/recruiter-request", nil)
	req.Header.Set("Origin", "https://app.kredible.dev")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, "https://app.kredible.dev", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, withRateLimit(&ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  300,
		DefaultWindow: time.Minute,
		EndpointConfigs: []ratelimit.EndpointConfig{
			{Path: "/test-email", Method: "POST", Limit: 2, Window: time.Hour, Burst: 2},
		},
	}))

	body := map[string]string{"email": "ops@kredible.dev"}
	for i := 0; i < 2; i++ {
		w, _ := ts.do(t, http.MethodPost, "/test-email", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w, resp := ts.do(t, http.MethodPost, "/test-email", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w, _ = ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code, "other endpoints keep their own allowance")
}

func TestRecovery(t *testing.T) {
	ts := newTestServer(t)
	h := ts.withRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, MsgInternal, resp["error"])
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(newTestConfig(), Deps{Email: &fakeMailer{}})
	assert.Error(t, err)

	_, err = New(newTestConfig(), Deps{Store: db.NewMemoryStore("")})
	assert.Error(t, err)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ts := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.True(t, err == nil || errors.Is(err, context.Canceled), "unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
