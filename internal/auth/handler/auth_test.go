package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartinventory/smartinventory-backend/internal/auth/family"
	"github.com/smartinventory/smartinventory-backend/internal/auth/handler"
	"github.com/smartinventory/smartinventory-backend/internal/auth/jwt"
	"github.com/smartinventory/smartinventory-backend/internal/auth/service"
	"github.com/smartinventory/smartinventory-backend/pkg/config"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/permissions"
	"github.com/smartinventory/smartinventory-backend/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	masterKey   = "master-key-0123456789abcdef0123456789"
	readonlyKey = "readonly-key-0123456789abcdef01234567"
)

type testEnv struct {
	router http.Handler
	svc    *service.AuthService
}

func newTestEnv(t *testing.T, enforce bool) *testEnv {
	t.Helper()
	dir := family.NewDirectory(bcrypt.MinCost)
	require.NoError(t, dir.SeedDemo())

	manager := jwt.NewManager(&config.JWTConfig{
		Secret: "test-secret", AccessExpiry: time.Hour, RefreshExpiry: 2 * time.Hour, Issuer: "smartinventory",
	})
	svc := service.NewAuthService(dir, manager, config.AuthConfig{
		Enforce: enforce, MasterAPIKey: masterKey, ReadonlyAPIKey: readonlyKey,
	}, logger.Nop())
	mw := handler.NewMiddleware(svc, logger.Nop())

	r := chi.NewRouter()
	r.Use(mw.Authenticate)
	handler.NewAuthHandler(svc, logger.Nop()).Register(r, mw)

	// A protected inventory-style route for permission checks.
	r.With(mw.RequirePermission(permissions.ItemsDelete)).Delete("/api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		svc.RecordActivity(r.Context(), "item.deleted", map[string]any{"itemId": chi.URLParam(r, "id")})
		httputil.NoContent(w)
	})

	return &testEnv{router: r, svc: svc}
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rr := testutil.ExecuteRequest(e.router, testutil.NewJSONRequest(http.MethodPost, "/api/auth/login",
		map[string]string{"username": username, "password": password}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body service.LoginResponse
	testutil.ParseJSONBody(t, rr, &body)
	require.True(t, body.Success)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestLoginAndMe(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.login(t, "엄마", "mom123")

	rr := testutil.ExecuteRequest(env.router, authed(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), token))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var me service.UserInfo
	testutil.DecodeEnvelope(t, rr, &me)
	assert.Equal(t, "user_mom", me.ID)
	assert.Equal(t, permissions.RoleParent, me.Role)
	assert.Contains(t, me.Permissions, permissions.FamilyManage)
	assert.NotNil(t, me.LastLogin)
}

func TestLogin_Failures(t *testing.T) {
	env := newTestEnv(t, true)

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"wrong password", map[string]string{"username": "엄마", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "삼촌", "password": "mom123"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"username": "엄마"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := testutil.ExecuteRequest(env.router, testutil.NewJSONRequest(http.MethodPost, "/api/auth/login", tt.body))
			testutil.AssertStatus(t, rr, tt.status)
		})
	}
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t, true)

	rr := testutil.ExecuteRequest(env.router, testutil.NewJSONRequest(http.MethodPost, "/api/auth/login",
		map[string]string{"username": "아빠", "password": "dad123"}))
	var login service.LoginResponse
	testutil.ParseJSONBody(t, rr, &login)

	rr = testutil.ExecuteRequest(env.router, testutil.NewJSONRequest(http.MethodPost, "/api/auth/refresh",
		map[string]string{"refreshToken": login.RefreshToken}))
	testutil.AssertStatus(t, rr, http.StatusOK)

	var pair jwt.TokenPair
	testutil.DecodeEnvelope(t, rr, &pair)
	assert.NotEmpty(t, pair.AccessToken)

	rr = testutil.ExecuteRequest(env.router, testutil.NewJSONRequest(http.MethodPost, "/api/auth/refresh",
		map[string]string{"refreshToken": "garbage"}))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)
}

func TestPermissions(t *testing.T) {
	env := newTestEnv(t, true)
	mom := env.login(t, "엄마", "mom123")
	child := env.login(t, "첫째", "child123")

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"anonymous", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }, http.StatusUnauthorized},
		{"child lacks delete", func(r *http.Request) { authed(r, child) }, http.StatusForbidden},
		{"parent may delete", func(r *http.Request) { authed(r, mom) }, http.StatusNoContent},
		{"master key", func(r *http.Request) { r.Header.Set(handler.APIKeyHeader, masterKey) }, http.StatusNoContent},
		{"readonly key", func(r *http.Request) { r.Header.Set(handler.APIKeyHeader, readonlyKey) }, http.StatusForbidden},
		{"unknown key", func(r *http.Request) { r.Header.Set(handler.APIKeyHeader, "nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/items/1", nil)
			tt.setup(req)
			testutil.AssertStatus(t, testutil.ExecuteRequest(env.router, req), tt.status)
		})
	}
}

func TestPermissions_NotEnforcedAllowsAnonymous(t *testing.T) {
	env := newTestEnv(t, false)

	rr := testutil.ExecuteRequest(env.router, httptest.NewRequest(http.MethodDelete, "/api/items/1", nil))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	child := env.login(t, "첫째", "child123")
	rr = testutil.ExecuteRequest(env.router, authed(httptest.NewRequest(http.MethodDelete, "/api/items/1", nil), child))
	testutil.AssertStatus(t, rr, http.StatusForbidden)
}

func TestRegisterMembersAndActivities(t *testing.T) {
	env := newTestEnv(t, true)
	admin := env.login(t, "관리자", "admin123")
	child := env.login(t, "둘째", "child123")

	req := authed(testutil.NewJSONRequest(http.MethodPost, "/api/auth/register",
		map[string]string{"username": "할머니", "password": "grandma1", "role": "parent"}), admin)
	rr := testutil.ExecuteRequest(env.router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	req = authed(testutil.NewJSONRequest(http.MethodPost, "/api/auth/register",
		map[string]string{"username": "친구", "password": "friend1"}), child)
	testutil.AssertStatus(t, testutil.ExecuteRequest(env.router, req), http.StatusForbidden)

	rr = testutil.ExecuteRequest(env.router, authed(httptest.NewRequest(http.MethodGet, "/api/family/members", nil), child))
	testutil.AssertStatus(t, rr, http.StatusOK)
	var members []service.UserInfo
	testutil.DecodeEnvelope(t, rr, &members)
	assert.Len(t, members, 6)

	rr = testutil.ExecuteRequest(env.router, authed(httptest.NewRequest(http.MethodGet, "/api/family/activities?limit=2", nil), admin))
	testutil.AssertStatus(t, rr, http.StatusOK)
	var acts []family.Activity
	testutil.DecodeEnvelope(t, rr, &acts)
	require.Len(t, acts, 2)
	assert.Equal(t, "register", acts[0].Action)

	rr = testutil.ExecuteRequest(env.router, authed(httptest.NewRequest(http.MethodGet, "/api/auth/activities", nil), child))
	var own []family.Activity
	testutil.DecodeEnvelope(t, rr, &own)
	require.Len(t, own, 1)
	assert.Equal(t, "login", own[0].Action)
}

func TestRecordActivity_FromProtectedRoute(t *testing.T) {
	env := newTestEnv(t, true)
	mom := env.login(t, "엄마", "mom123")

	rr := testutil.ExecuteRequest(env.router, authed(httptest.NewRequest(http.MethodDelete, "/api/items/7", nil), mom))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.ExecuteRequest(env.router, authed(httptest.NewRequest(http.MethodGet, "/api/auth/activities", nil), mom))
	var own []family.Activity
	testutil.DecodeEnvelope(t, rr, &own)
	require.NotEmpty(t, own)
	assert.Equal(t, "item.deleted", own[0].Action)
	assert.Equal(t, "7", own[0].Details["itemId"])
}
