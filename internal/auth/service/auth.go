// Package service implements family login, membership and the activity log.
package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/smartinventory/smartinventory-backend/internal/auth/family"
	"github.com/smartinventory/smartinventory-backend/internal/auth/jwt"
	"github.com/smartinventory/smartinventory-backend/pkg/config"
	"github.com/smartinventory/smartinventory-backend/pkg/errors"
	"github.com/smartinventory/smartinventory-backend/pkg/httputil"
	"github.com/smartinventory/smartinventory-backend/pkg/logger"
	"github.com/smartinventory/smartinventory-backend/pkg/permissions"
)

// API key principals
const (
	MasterKeyUserID   = "api_master"
	ReadonlyKeyUserID = "api_readonly"
)

// AuthService handles authentication logic
type AuthService struct {
	directory  *family.Directory
	jwtManager *jwt.Manager
	config     config.AuthConfig
	logger     *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(dir *family.Directory, jwtManager *jwt.Manager, cfg config.AuthConfig, log *logger.Logger) *AuthService {
	return &AuthService{
		directory:  dir,
		jwtManager: jwtManager,
		config:     cfg,
		logger:     log.WithComponent("auth"),
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest adds a member to the caller's family
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin parent child guest"`
	Avatar   string `json:"avatar"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Success      bool      `json:"success"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
	User         *UserInfo `json:"user"`
}

// UserInfo represents user information
type UserInfo struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	Avatar      string     `json:"avatar"`
	FamilyID    string     `json:"familyId"`
	Permissions []string   `json:"permissions"`
	LastLogin   *time.Time `json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func userInfo(u *family.User) *UserInfo {
	return &UserInfo{
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
		Avatar:      u.Avatar,
		FamilyID:    u.FamilyID,
		Permissions: u.Permissions(),
		LastLogin:   u.LastLogin,
		CreatedAt:   u.CreatedAt,
	}
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.directory.Authenticate(req.Username, req.Password)
	if err != nil {
		s.logger.Warn().Str("username", req.Username).Msg("login failed")
		return nil, err
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.directory.Record(user.ID, "login", "", map[string]any{"username": user.Username})
	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")

	return &LoginResponse{
		Success:      true,
		Token:        tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		TokenType:    tokens.TokenType,
		User:         userInfo(user),
	}, nil
}

// Refresh issues a new token pair for a valid refresh token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	user := s.directory.User(claims.UserID)
	if user == nil {
		return nil, errors.TokenInvalid()
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *family.User) (*jwt.TokenPair, error) {
	tokens, err := s.jwtManager.GenerateTokenPair(&jwt.UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		FamilyID:    user.FamilyID,
		Role:        user.Role,
		Permissions: user.Permissions(),
	})
	if err != nil {
		return nil, errors.Internal("failed to generate tokens")
	}
	return tokens, nil
}

// Authenticate resolves a bearer token to a principal. Role permissions are read
// from the directory so a changed role takes effect without a new token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*httputil.Principal, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return nil, err
	}
	user := s.directory.User(claims.UserID)
	if user == nil {
		return nil, errors.TokenInvalid()
	}
	return &httputil.Principal{
		UserID:      user.ID,
		Username:    user.Username,
		FamilyID:    user.FamilyID,
		Role:        user.Role,
		Permissions: user.Permissions(),
	}, nil
}

// AuthenticateAPIKey maps the master key to admin and the readonly key to guest.
func (s *AuthService) AuthenticateAPIKey(key string) (*httputil.Principal, bool) {
	switch {
	case key == "":
		return nil, false
	case keyEqual(key, s.config.MasterAPIKey):
		return &httputil.Principal{
			UserID: MasterKeyUserID, Username: "master", FamilyID: family.DemoFamilyID,
			Role: permissions.RoleAdmin, Permissions: permissions.ForRole(permissions.RoleAdmin),
		}, true
	case keyEqual(key, s.config.ReadonlyAPIKey):
		return &httputil.Principal{
			UserID: ReadonlyKeyUserID, Username: "readonly", FamilyID: family.DemoFamilyID,
			Role: permissions.RoleGuest, Permissions: permissions.ForRole(permissions.RoleGuest),
		}, true
	}
	return nil, false
}

func keyEqual(given, configured string) bool {
	return configured != "" && subtle.ConstantTimeCompare([]byte(given), []byte(configured)) == 1
}

// Enforced reports whether anonymous requests are rejected.
func (s *AuthService) Enforced() bool {
	return s.config.Enforce
}

// Me returns the caller's profile
func (s *AuthService) Me(ctx context.Context) (*UserInfo, error) {
	p := httputil.GetPrincipal(ctx)
	if p == nil {
		return nil, errors.Unauthorized("not authenticated")
	}
	user := s.directory.User(p.UserID)
	if user == nil {
		return &UserInfo{ID: p.UserID, Username: p.Username, Role: p.Role, FamilyID: p.FamilyID, Permissions: p.Permissions}, nil
	}
	return userInfo(user), nil
}

// Register adds a member to the caller's family
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*UserInfo, error) {
	p := httputil.GetPrincipal(ctx)
	if p == nil {
		return nil, errors.Unauthorized("not authenticated")
	}
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.directory.Register(family.NewUser{
		FamilyID: p.FamilyID,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		Avatar:   req.Avatar,
		Email:    req.Email,
	})
	if err != nil {
		return nil, err
	}

	s.directory.Record(p.UserID, "register", user.ID, map[string]any{"username": user.Username, "role": user.Role})
	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("family member registered")
	return userInfo(user), nil
}

// Members lists the caller's family
func (s *AuthService) Members(ctx context.Context) ([]*UserInfo, error) {
	p := httputil.GetPrincipal(ctx)
	if p == nil {
		return nil, errors.Unauthorized("not authenticated")
	}
	members := s.directory.Members(p.FamilyID)
	out := make([]*UserInfo, len(members))
	for i := range members {
		out[i] = userInfo(&members[i])
	}
	return out, nil
}

// FamilyActivities lists the caller's family activity, newest first
func (s *AuthService) FamilyActivities(ctx context.Context, limit int) ([]family.Activity, error) {
	p := httputil.GetPrincipal(ctx)
	if p == nil {
		return nil, errors.Unauthorized("not authenticated")
	}
	return s.directory.FamilyActivities(p.FamilyID, limit), nil
}

// OwnActivities lists the caller's own activity, newest first
func (s *AuthService) OwnActivities(ctx context.Context, limit int) ([]family.Activity, error) {
	p := httputil.GetPrincipal(ctx)
	if p == nil {
		return nil, errors.Unauthorized("not authenticated")
	}
	return s.directory.UserActivities(p.UserID, limit), nil
}

// RecordActivity logs an inventory action for the calling member. Anonymous and
// API key callers are not logged.
func (s *AuthService) RecordActivity(ctx context.Context, action string, details map[string]any) {
	if p := httputil.GetPrincipal(ctx); p != nil {
		s.directory.Record(p.UserID, action, "", details)
	}
}
