package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"userdash/internal/app/auth"
	"userdash/internal/app/profile"
	"userdash/internal/app/qrcode"
	"userdash/internal/app/user"
	"userdash/internal/configs"
	"userdash/internal/pkg/auth/jwt"
	"userdash/internal/pkg/errs"
	"userdash/internal/pkg/limiter"
)

type denyAll struct{}

func (denyAll) Allow(context.Context, string) bool { return false }

func newTestServer(t *testing.T, authLimiter limiter.Limiter) *httptest.Server {
	t.Helper()
	return newTestServerWithProxies(t, authLimiter, nil)
}

func newTestServerWithProxies(t *testing.T, authLimiter limiter.Limiter, trusted []netip.Prefix) *httptest.Server {
	t.Helper()

	cfg := &configs.AppConfig{
		Environment:          "development",
		PublicBaseURL:        "https://dash.example.com",
		AvatarBaseURL:        "https://ui-avatars.com/api/",
		TrustedProxyPrefixes: trusted,
	}

	store := user.NewMemoryStore()
	authSvc, err := auth.NewService(store, jwt.NewSigner("test-secret", time.Hour), auth.Options{
		BcryptCost:    bcrypt.MinCost,
		AvatarBaseURL: cfg.AvatarBaseURL,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(Router(&AppDeps{
		Config:      cfg,
		Users:       store,
		Auth:        authSvc,
		Profiles:    profile.NewService(store),
		QRCodes:     qrcode.NewService(store, qrcode.Options{Size: 128, PublicBaseURL: cfg.PublicBaseURL}),
		AuthLimiter: authLimiter,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func register(t *testing.T, srv *httptest.Server, name, email string) (token, id string) {
	t.Helper()

	status, body := do(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["token"].(string), body["user"].(map[string]any)["id"].(string)
}

func errorCode(body map[string]any) int {
	code, _ := body["code"].(float64)
	return int(code)
}

func TestAnnScenario(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := do(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ann", "email": "ann@x.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	registered := body["user"].(map[string]any)
	assert.Equal(t, "ann@x.com", registered["email"])
	assert.NotContains(t, registered, "password")
	assert.NotContains(t, registered, "PasswordHash")

	status, body = do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@x.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, registered["id"], body["user"].(map[string]any)["id"])

	status, body = do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@x.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, errs.ErrInvalidCredentials, errorCode(body))

	status, body = do(t, srv, http.MethodGet, "/api/qrcode/user/"+registered["id"].(string), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"name": "Ann", "email": "ann@x.com", "membership": "Basic"}, body["user"])
	assert.True(t, strings.HasPrefix(body["qrCode"].(string), "data:image/png;base64,"))
	assert.Equal(t, registered["avatar"], body["avatar"])
}

func TestLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "Ann", "ann@x.com")

	s1, wrong := do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@x.com", "password": "nope"})
	s2, unknown := do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "bob@x.com", "password": "nope"})

	assert.Equal(t, s1, s2)
	assert.Equal(t, wrong, unknown)
}

func TestRegister_Errors(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "Ann", "ann@x.com")

	status, body := do(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ann", "email": "ann@x.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errs.ErrDuplicateEmail, errorCode(body))

	status, body = do(t, srv, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "", "email": "x@x.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errs.ErrInvalidParams, errorCode(body))
	assert.Contains(t, body["message"], "name")

	status, body = do(t, srv, http.MethodPost, "/api/auth/register", "", map[string]any{
		"name": "Ann", "email": "y@x.com", "password": "secret123", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errs.ErrInvalidJSONFormat, errorCode(body))
}

func TestRegister_WrongContentType(t *testing.T) {
	srv := newTestServer(t, nil)

	res, err := srv.Client().Post(srv.URL+"/api/auth/register", "text/plain", strings.NewReader("name=Ann"))
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, res.StatusCode)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	srv := newTestServer(t, nil)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/users/profile"},
		{http.MethodPut, "/api/users/profile"},
		{http.MethodPost, "/api/users/avatar"},
		{http.MethodPost, "/api/qrcode/generate"},
	}

	for _, rt := range routes {
		status, body := do(t, srv, rt.method, rt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, rt.path)
		assert.Equal(t, errs.ErrMissingToken, errorCode(body), rt.path)

		status, body = do(t, srv, rt.method, rt.path, "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, status, rt.path)
		assert.Equal(t, errs.ErrInvalidToken, errorCode(body), rt.path)
	}
}

func TestProfile_UpdateRoundTrip(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := register(t, srv, "Ann", "ann@x.com")

	status, body := do(t, srv, http.MethodPut, "/api/users/profile", token, map[string]string{
		"name": "Ann B", "email": "annb@x.com", "membership": "Premium",
	})
	require.Equal(t, http.StatusOK, status, body)
	updated := body["user"]

	status, body = do(t, srv, http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, updated, body["user"])
	assert.Equal(t, "Premium", body["user"].(map[string]any)["membership"])

	status, body = do(t, srv, http.MethodPut, "/api/users/profile", token, map[string]string{
		"name": "Ann B", "email": "annb@x.com", "membership": "Gold",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errs.ErrInvalidParams, errorCode(body))
}

func TestProfile_EmailTakenByAnotherUser(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := register(t, srv, "Ann", "ann@x.com")
	register(t, srv, "Bob", "bob@x.com")

	status, body := do(t, srv, http.MethodPut, "/api/users/profile", token, map[string]string{
		"name": "Ann", "email": "bob@x.com",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errs.ErrDuplicateEmail, errorCode(body))
}

func TestSetAvatar(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := register(t, srv, "Ann", "ann@x.com")

	status, body := do(t, srv, http.MethodPost, "/api/users/avatar", token, map[string]string{"avatarUrl": "ftp://x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, errs.ErrInvalidParams, errorCode(body))

	status, body = do(t, srv, http.MethodPost, "/api/users/avatar", token, map[string]string{"avatarUrl": "https://cdn.example.com/a.png"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "https://cdn.example.com/a.png", body["user"].(map[string]any)["avatar"])
}

func TestGenerateQRCode(t *testing.T) {
	srv := newTestServer(t, nil)
	token, id := register(t, srv, "Ann", "ann@x.com")

	status, body := do(t, srv, http.MethodPost, "/api/qrcode/generate", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, strings.HasPrefix(body["qrCode"].(string), "data:image/png;base64,"))
	assert.NotContains(t, body, "downloadUrl")

	userData := body["userData"].(map[string]any)
	assert.Equal(t, id, userData["userId"])
	assert.Equal(t, "https://dash.example.com/user/"+id, userData["profileUrl"])
	assert.NotEmpty(t, userData["generatedAt"])
}

func TestLookupQRCode_NotFound(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := do(t, srv, http.MethodGet, "/api/qrcode/user/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, errs.ErrUserNotFound, errorCode(body))
}

func TestQRCodeImage(t *testing.T) {
	srv := newTestServer(t, nil)
	_, id := register(t, srv, "Ann", "ann@x.com")

	res, err := srv.Client().Get(srv.URL + "/api/qrcode/user/" + id + "/image.png")
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("\x89PNG")))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	register(t, srv, "Ann", "ann@x.com")

	status, body := do(t, srv, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body["status"])
	assert.EqualValues(t, 1, body["usersCount"])
}

func TestAuthRoutes_RateLimited(t *testing.T) {
	srv := newTestServer(t, denyAll{})

	status, body := do(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@x.com", "password": "x"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, errs.ErrRateLimitExceeded, errorCode(body))

	status, _ = do(t, srv, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, status, "only auth routes are limited")
}

func TestAuthRoutes_IPLimiterBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := newTestServer(t, limiter.NewIPRateLimiter(ctx, rate.Every(time.Hour), 2, time.Minute))
	creds := map[string]string{"email": "a@x.com", "password": "x"}

	for range 2 {
		status, _ := do(t, srv, http.MethodPost, "/api/auth/login", "", creds)
		assert.Equal(t, http.StatusBadRequest, status)
	}

	status, _ := do(t, srv, http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, status)
}

func loginFrom(t *testing.T, srv *httptest.Server, forwardedFor string) int {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/auth/login",
		strings.NewReader(`{"email":"a@x.com","password":"x"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)

	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)
	return res.StatusCode
}

func TestAuthRoutes_ForwardedForCannotDodgeLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ipLimiter := limiter.NewIPRateLimiter(ctx, rate.Every(time.Hour), 2, time.Minute)
	srv := newTestServer(t, ipLimiter)

	statuses := make([]int, 0, 10)
	for i := range 10 {
		statuses = append(statuses, loginFrom(t, srv, "10.0.0."+strconv.Itoa(i)))
	}

	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest}, statuses[:2])
	for _, status := range statuses[2:] {
		assert.Equal(t, http.StatusTooManyRequests, status)
	}
	assert.Equal(t, 1, ipLimiter.Len(), "all requests share the socket address key")
}

func TestAuthRoutes_TrustedProxyForwardsClientIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ipLimiter := limiter.NewIPRateLimiter(ctx, rate.Every(time.Hour), 1, time.Minute)
	srv := newTestServerWithProxies(t, ipLimiter, []netip.Prefix{
		netip.MustParsePrefix("127.0.0.0/8"),
		netip.MustParsePrefix("::1/128"),
	})

	assert.Equal(t, http.StatusBadRequest, loginFrom(t, srv, "203.0.113.1"))
	assert.Equal(t, http.StatusBadRequest, loginFrom(t, srv, "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(t, srv, "203.0.113.1"))
	assert.Equal(t, 2, ipLimiter.Len())
}
