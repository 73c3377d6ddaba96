package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/teamtasks/internal/auth"
	"github.com/redmonkez12/teamtasks/internal/config"
	"github.com/redmonkez12/teamtasks/internal/database/dbtest"
	httpapi "github.com/redmonkez12/teamtasks/internal/http"
	"github.com/redmonkez12/teamtasks/internal/logging"
	"github.com/redmonkez12/teamtasks/internal/password"
	"github.com/redmonkez12/teamtasks/internal/token"
	"github.com/redmonkez12/teamtasks/internal/user"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

type app struct {
	router http.Handler
	clock  *clock
}

const tokenTTL = time.Hour

func newApp(t *testing.T, env string, db httpapi.Pinger) *app {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			Env:            env,
			TrustedOrigins: []string{"http://localhost:3000"},
		},
	}

	c := &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := token.NewCodec(token.Config{
		Algorithm: "HS256",
		Secret:    []byte("router-test-secret"),
		TTL:       tokenTTL,
	}, token.WithClock(c.Now))
	require.NoError(t, err)

	hasher, err := password.NewHasher(password.AlgorithmBcrypt, 4)
	require.NoError(t, err)

	store := user.NewRepository(dbtest.NewSQLite(t))
	logger := logging.Discard()

	svc := auth.NewService(store, hasher, codec, logger, auth.Options{DefaultAvatar: "/path/to/default/avatar.jpg"})
	router := httpapi.NewRouter(cfg, auth.NewHandler(svc, nil, logger), auth.NewMiddleware(svc), db, logger)

	return &app{router: router, clock: c}
}

func (a *app) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *app) signUp(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-up", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return a.do(req)
}

func (a *app) signIn(email, pw string) *httptest.ResponseRecorder {
	form := url.Values{"username": {email}, "password": {pw}}
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-in", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

func (a *app) currentUser(accessToken string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/user", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return a.do(req)
}

func accessToken(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok token.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	require.Equal(t, "bearer", tok.TokenType)
	require.NotEmpty(t, tok.AccessToken)
	return tok.AccessToken
}

func TestAuthScenario(t *testing.T) {
	a := newApp(t, "prod", nil)

	signUpToken := accessToken(t, a.signUp(`{"username":"alice","email":"a@x.com","password":"pw123"}`))

	signInToken := accessToken(t, a.signIn("a@x.com", "pw123"))
	assert.NotEqual(t, signUpToken, signInToken)

	rec := a.signIn("a@x.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.currentUser(signUpToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"a@x.com","username":"alice"}`, rec.Body.String())

	a.clock.Advance(tokenTTL)
	rec = a.currentUser(signUpToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cannot validate token")
}

func TestAuthScenario_DuplicateSignUp(t *testing.T) {
	a := newApp(t, "prod", nil)
	body := `{"username":"alice","email":"a@x.com","password":"pw123"}`

	accessToken(t, a.signUp(body))

	rec := a.signUp(body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "User already exists")
}

func TestCurrentUser_MissingHeader(t *testing.T) {
	a := newApp(t, "prod", nil)

	rec := a.do(httptest.NewRequest(http.MethodGet, "/auth/user", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestHealth(t *testing.T) {
	a := newApp(t, "prod", pingerFunc(func(context.Context) error { return nil }))

	rec := a.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := newApp(t, "prod", pingerFunc(func(context.Context) error { return errors.New("connection refused") }))
	rec = down.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSwaggerOnlyInDevelopment(t *testing.T) {
	dev := newApp(t, "dev", nil)
	rec := dev.do(httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	prod := newApp(t, "prod", nil)
	rec = prod.do(httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmRouteRequiresConfirmation(t *testing.T) {
	a := newApp(t, "prod", nil)

	rec := a.do(httptest.NewRequest(http.MethodGet, "/auth/confirm?token=abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSecurityHeaders(t *testing.T) {
	a := newApp(t, "prod", nil)

	rec := a.signIn("nobody@x.com", "pw")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	rec = a.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestCORS(t *testing.T) {
	a := newApp(t, "prod", nil)

	req := httptest.NewRequest(http.MethodOptions, "/auth/sign-in", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := a.do(req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/auth/sign-in", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = a.do(req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
