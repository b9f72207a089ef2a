package handler

import (
	"net/http"
	"strings"

	"github.com/smartinventory/smartinventory-backend/internal/auth/service"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/permissions"
)

// APIKeyHeader carries a master or readonly key.
const APIKeyHeader = "X-API-Key"

// Middleware resolves the caller and enforces permissions.
type Middleware struct {
	service *service.AuthService
	logger  *logger.Logger
}

// NewMiddleware creates the auth middleware.
func NewMiddleware(svc *service.AuthService, log *logger.Logger) *Middleware {
	return &Middleware{service: svc, logger: log}
}

// Authenticate attaches a principal when the request carries a bearer token or an
// API key. A token that is present but invalid is rejected; no credentials at all
// leaves the request anonymous.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get(APIKeyHeader); key != "" {
			p, ok := m.service.AuthenticateAPIKey(key)
			if !ok {
				httputil.ErrorLocalized(w, r, errors.Unauthorized("invalid api key"))
				return
			}
			next.ServeHTTP(w, r.WithContext(httputil.WithPrincipal(r.Context(), p)))
			return
		}

		token, ok := bearer(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		p, err := m.service.Authenticate(r.Context(), token)
		if err != nil {
			m.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("token rejected")
			httputil.ErrorLocalized(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(httputil.WithPrincipal(r.Context(), p)))
	})
}

// RequireAuth rejects anonymous requests regardless of enforcement.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httputil.GetPrincipal(r.Context()) == nil {
			httputil.ErrorLocalized(w, r, errors.Unauthorized("not authenticated"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission rejects callers lacking permission. Anonymous callers pass
// unless enforcement is on.
func (m *Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := httputil.GetPrincipal(r.Context())
			switch {
			case p == nil && m.service.Enforced():
				httputil.ErrorLocalized(w, r, errors.Unauthorized("not authenticated"))
				return
			case p != nil && !permissions.HasPermission(p.Permissions, permission):
				m.logger.Warn().
					Str("user_id", p.UserID).
					Str("permission", permission).
					Msg("permission denied")
				httputil.ErrorLocalized(w, r, errors.Forbidden("missing permission "+permission))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}
