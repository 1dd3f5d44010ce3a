package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexusglobal/internal/apiclient"
	apphttp "nexusglobal/internal/gateway/app/http"
	"nexusglobal/internal/gateway/app/http/respond"
	"nexusglobal/internal/gateway/app/services"
	"nexusglobal/internal/gateway/config"
	portsservices "nexusglobal/internal/gateway/ports/services"
	"nexusglobal/internal/gateway/resilience"
	"nexusglobal/internal/nexus"
	"nexusglobal/internal/session"
)

const cookieName = "nexus_session"

func mintToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// backend - фейковый бэкенд NEXUS.
type backend struct {
	t            *testing.T
	fresh        session.Credentials
	refreshCalls atomic.Int32
	logoutCalls  atomic.Int32
}

func (b *backend) reply(w http.ResponseWriter, status int, success bool, data any, msg string, errs ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(b.t, json.NewEncoder(w).Encode(map[string]any{
		"success": success, "data": data, "message": msg, "errors": errs,
	}))
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method + " " + r.URL.Path {
	case "POST /api/auth/login":
		assert.Empty(b.t, r.Header.Get("Authorization"))
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&body))
		if body.Password != "secret" {
			b.reply(w, http.StatusUnauthorized, false, nil, "Credenciales invalidas")
			return
		}
		b.reply(w, http.StatusOK, true, map[string]any{
			"user":         map[string]any{"id": "user-1", "email": body.Email, "firstName": "Ana"},
			"accessToken":  b.fresh.AccessToken,
			"refreshToken": b.fresh.RefreshToken,
		}, "ok")
	case "POST " + session.RefreshEndpoint:
		b.refreshCalls.Add(1)
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&body))
		if body.RefreshToken != "refresh-1" {
			b.reply(w, http.StatusUnauthorized, false, nil, "Refresh token invalido")
			return
		}
		b.reply(w, http.StatusOK, true, b.fresh, "ok")
	case "POST /api/auth/logout":
		b.logoutCalls.Add(1)
		b.reply(w, http.StatusOK, true, nil, "ok")
	case "GET /api/points/user-points":
		if r.Header.Get("Authorization") != "Bearer "+b.fresh.AccessToken {
			b.reply(w, http.StatusUnauthorized, false, nil, "Unauthorized")
			return
		}
		b.reply(w, http.StatusOK, true, map[string]any{"leftPoints": 120, "rightPoints": 80}, "ok")
	case "POST /api/leads":
		assert.Empty(b.t, r.Header.Get("Authorization"))
		b.reply(w, http.StatusCreated, true, map[string]any{"id": "lead-1", "fullName": "Luis", "status": nexus.LeadStatusNew}, "ok")
	case "POST /api/auth/register":
		assert.Empty(b.t, r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&body))
		if body["email"] == "taken@nexus.test" {
			b.reply(w, http.StatusConflict, false, nil, "El email ya esta registrado", "email")
			return
		}
		assert.Equal(b.t, "LEFT", body["position"])
		b.reply(w, http.StatusCreated, true, map[string]any{"id": "user-9", "email": body["email"], "firstName": body["firstName"]}, "ok")
	case "POST /api/auth/forgot-password":
		assert.Empty(b.t, r.Header.Get("Authorization"))
		b.reply(w, http.StatusOK, true, nil, "ok")
	case "POST /api/auth/reset-password":
		var body struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		require.NoError(b.t, json.NewDecoder(r.Body).Decode(&body))
		if body.Token != "reset-token" {
			b.reply(w, http.StatusBadRequest, false, nil, "Token invalido o expirado")
			return
		}
		b.reply(w, http.StatusOK, true, nil, "ok")
	case "POST /api/withdrawals":
		b.reply(w, http.StatusUnprocessableEntity, false, nil, "Saldo insuficiente", "amount")
	default:
		b.reply(w, http.StatusNotFound, false, nil, "not found")
	}
}

type gateway struct {
	app     *fiber.App
	store   *session.MemoryStore
	backend *backend
}

func newGateway(t *testing.T) *gateway {
	t.Helper()

	b := &backend{t: t, fresh: session.Credentials{AccessToken: mintToken(t, time.Hour), RefreshToken: "refresh-2"}}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	base, err := apiclient.New(apiclient.Config{Context: apiclient.Server, BaseURL: srv.URL, Timeout: 2 * time.Second})
	require.NoError(t, err)

	store := session.NewMemoryStore()
	policy := session.NewPolicy(session.NewAPIRefresher(base))
	auth := services.NewAuthService(base, policy, store, resilience.NewServiceResilience("nexus-auth"))
	portal := services.NewPortalService(base, resilience.NewServiceResilience("nexus-api"), nil, resilience.NewServiceResilience("culqi"))

	app := fiber.New(fiber.Config{ErrorHandler: respond.ErrorHandler})
	apphttp.SetupRouter(app, auth, portal, config.SessionConfig{CookieName: cookieName, TTL: time.Hour})

	return &gateway{app: app, store: store, backend: b}
}

func (g *gateway) seed(t *testing.T, creds session.Credentials, tag session.ErrorTag) *session.Session {
	t.Helper()
	s, err := session.Restore(session.Snapshot{
		ID:          "sess-1",
		User:        session.User{ID: "user-1", Email: "ana@nexus.test"},
		Credentials: creds,
		Error:       tag,
	})
	require.NoError(t, err)
	require.NoError(t, g.store.Save(context.Background(), s))
	return s
}

func (g *gateway) do(t *testing.T, method, target, body, cookie string) (*http.Response, respond.Envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: cookie})
	}

	resp, err := g.app.Test(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var env respond.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestLoginSetsSessionCookie(t *testing.T) {
	g := newGateway(t)

	resp, env := g.do(t, http.MethodPost, "/api/auth/login", `{"email":" ana@nexus.test ","password":"secret"}`, "")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var sessionCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.True(t, sessionCookie.HttpOnly)

	stored, err := g.store.Load(context.Background(), sessionCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "ana@nexus.test", stored.User().Email)
	assert.Equal(t, g.backend.fresh, stored.Credentials())

	data, err := json.Marshal(env.Data)
	require.NoError(t, err)
	assert.NotContains(t, string(data), g.backend.fresh.AccessToken)
}

func TestLoginRejected(t *testing.T) {
	g := newGateway(t)

	resp, env := g.do(t, http.MethodPost, "/api/auth/login", `{"email":"ana@nexus.test","password":"wrong"}`, "")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "Credenciales invalidas", env.Message.String())
}

func TestLoginValidation(t *testing.T) {
	g := newGateway(t)

	resp, _ := g.do(t, http.MethodPost, "/api/auth/login", `{"email":"","password":""}`, "")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtectedRouteWithoutCookie(t *testing.T) {
	g := newGateway(t)

	resp, env := g.do(t, http.MethodGet, "/api/points", "", "")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, respond.MsgSessionRequired, env.Message.String())
}

func TestProtectedRouteUnknownSession(t *testing.T) {
	g := newGateway(t)

	resp, _ := g.do(t, http.MethodGet, "/api/points", "", "missing")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTaggedSessionIsRejected(t *testing.T) {
	g := newGateway(t)
	g.seed(t, session.Credentials{AccessToken: mintToken(t, time.Hour), RefreshToken: "refresh-1"}, session.TagRefreshAccessTokenError)

	resp, env := g.do(t, http.MethodGet, "/api/points", "", "sess-1")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, []string{"RefreshAccessTokenError"}, env.Errors)
	assert.Equal(t, int32(0), g.backend.refreshCalls.Load())
}

func TestStaleSessionRefreshedOnce(t *testing.T) {
	g := newGateway(t)
	g.seed(t, session.Credentials{AccessToken: mintToken(t, -time.Minute), RefreshToken: "refresh-1"}, session.TagNone)

	resp, env := g.do(t, http.MethodGet, "/api/points", "", "sess-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	resp, _ = g.do(t, http.MethodGet, "/api/points", "", "sess-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, int32(1), g.backend.refreshCalls.Load())

	stored, err := g.store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, g.backend.fresh, stored.Credentials())
}

func TestFailedRefreshTagsSession(t *testing.T) {
	g := newGateway(t)
	g.seed(t, session.Credentials{AccessToken: mintToken(t, -time.Minute), RefreshToken: "revoked"}, session.TagNone)

	resp, env := g.do(t, http.MethodGet, "/api/auth/session", "", "sess-1")

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, []string{"RefreshAccessTokenError"}, env.Errors)

	stored, err := g.store.Load(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, session.TagRefreshAccessTokenError, stored.Error())
}

func TestSessionEndpoint(t *testing.T) {
	g := newGateway(t)
	g.seed(t, g.backend.fresh, session.TagNone)

	resp, env := g.do(t, http.MethodGet, "/api/auth/session", "", "sess-1")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	user, ok := data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ana@nexus.test", user["email"])
}

func TestLogout(t *testing.T) {
	g := newGateway(t)
	g.seed(t, g.backend.fresh, session.TagNone)

	resp, env := g.do(t, http.MethodPost, "/api/auth/logout", "", "sess-1")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)
	assert.Equal(t, int32(1), g.backend.logoutCalls.Load())

	_, err := g.store.Load(context.Background(), "sess-1")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestRegister(t *testing.T) {
	g := newGateway(t)

	resp, env := g.do(t, http.MethodPost, "/api/auth/register",
		`{"email":" new@nexus.test ","password":"secret","firstName":"Rosa","position":"LEFT"}`, "")

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "new@nexus.test", data["email"])

	for _, c := range resp.Cookies() {
		assert.NotEqual(t, cookieName, c.Name)
	}
}

func TestRegisterConflict(t *testing.T) {
	g := newGateway(t)

	resp, env := g.do(t, http.MethodPost, "/api/auth/register", `{"email":"taken@nexus.test","password":"secret"}`, "")

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "El email ya esta registrado", env.Message.String())
	assert.Equal(t, []string{"email"}, env.Errors)
}

func TestRegisterValidation(t *testing.T) {
	g := newGateway(t)

	resp, _ := g.do(t, http.MethodPost, "/api/auth/register", `{"email":"new@nexus.test"}`, "")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestForgotPassword(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "sent", body: `{"email":"ana@nexus.test"}`, wantStatus: http.StatusOK},
		{name: "empty email", body: `{"email":"  "}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t)

			resp, _ := g.do(t, http.MethodPost, "/api/auth/forgot-password", tt.body, "")

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestResetPassword(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{name: "updated", body: `{"token":"reset-token","password":"nueva"}`, wantStatus: http.StatusOK, wantMsg: "Password updated"},
		{name: "expired token", body: `{"token":"old","password":"nueva"}`, wantStatus: http.StatusBadRequest, wantMsg: "Token invalido o expirado"},
		{name: "missing password", body: `{"token":"reset-token"}`, wantStatus: http.StatusBadRequest, wantMsg: "token and password are required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGateway(t)

			resp, env := g.do(t, http.MethodPost, "/api/auth/reset-password", tt.body, "")

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMsg, env.Message.String())
		})
	}
}

func TestPublicLeadCapture(t *testing.T) {
	g := newGateway(t)

	resp, env := g.do(t, http.MethodPost, "/api/leads", `{"fullName":"Luis","email":"luis@mail.test","phone":"999"}`, "")

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, env.Success)
}

func TestBackendErrorPassthrough(t *testing.T) {
	g := newGateway(t)
	g.seed(t, g.backend.fresh, session.TagNone)

	resp, env := g.do(t, http.MethodPost, "/api/withdrawals", `{"amount":50,"reason":"fin de mes"}`, "sess-1")

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "Saldo insuficiente", env.Message.String())
	assert.Equal(t, []string{"amount"}, env.Errors)
}

func TestCulqiNotConfigured(t *testing.T) {
	g := newGateway(t)

	resp, env := g.do(t, http.MethodPost, "/api/culqi/tokens", `{"card_number":"4111111111111111"}`, "")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestPaymentRequiresMultipart(t *testing.T) {
	g := newGateway(t)
	g.seed(t, g.backend.fresh, session.TagNone)

	resp, _ := g.do(t, http.MethodPost, "/api/payments", `{"amount":10}`, "sess-1")

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestRouteNotFound(t *testing.T) {
	g := newGateway(t)

	resp, env := g.do(t, http.MethodGet, "/missing", "", "")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, respond.MsgRouteNotFound, env.Message.String())
}

// panickingPortal падает на любом обращении к очкам.
type panickingPortal struct {
	portsservices.PortalService
}

func (panickingPortal) Points(context.Context, *session.Session) (*nexus.PointsSummary, error) {
	panic("boom")
}

func TestPanicRecovery(t *testing.T) {
	g := newGateway(t)
	g.seed(t, g.backend.fresh, session.TagNone)

	base, err := apiclient.New(apiclient.Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	auth := services.NewAuthService(base, session.NewPolicy(session.NewAPIRefresher(base)), g.store, resilience.NewServiceResilience("nexus-auth"))

	app := fiber.New(fiber.Config{ErrorHandler: respond.ErrorHandler})
	apphttp.SetupRouter(app, auth, panickingPortal{}, config.SessionConfig{CookieName: cookieName, TTL: time.Hour})
	g.app = app

	resp, env := g.do(t, http.MethodGet, "/api/points", "", "sess-1")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, respond.MsgInternal, env.Message.String())
}
