package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/photocard-store/internal/users"
	pkgAuth "github.com/angelmondragon/photocard-store/pkg/auth"
	"github.com/angelmondragon/photocard-store/pkg/auth/session"
	"github.com/angelmondragon/photocard-store/pkg/config"
	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/logger"
	"github.com/angelmondragon/photocard-store/pkg/security"
	"github.com/google/uuid"
)

const (
	invalidCredentialsMessage = "Invalid email or password"
	invalidTokenMessage       = "Invalid or expired token"
)

type userStore interface {
	Create(ctx context.Context, in users.CreateInput) (users.User, error)
	Get(ctx context.Context, id int64) (users.User, error)
	FindByEmail(ctx context.Context, email string) (users.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (users.User, error)
	LinkGoogle(ctx context.Context, id int64, googleID string) (users.User, error)
	SetPasswordHash(ctx context.Context, id int64, hash string) (users.User, error)
}

type sessionManager interface {
	Start(ctx context.Context, userID int64) (session.Issued, error)
	Rotate(ctx context.Context, oldAccessID, refreshToken string) (session.Issued, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
// Sessions is optional; without it no refresh tokens are issued. Google
// sign-in needs both Google and States.
type ServiceParams struct {
	Users        userStore
	Sessions     sessionManager
	JWT          config.JWTConfig
	Password     config.PasswordConfig
	BootstrapKey string
	Google       GoogleProvider
	States       StateStore
	Logger       *logger.Logger
	Now          func() time.Time
}

// Service issues and resolves bearer tokens for storefront accounts.
type Service struct {
	users        userStore
	sessions     sessionManager
	jwtCfg       config.JWTConfig
	passwordCfg  config.PasswordConfig
	bootstrapKey string
	google       GoogleProvider
	states       StateStore
	logg         *logger.Logger
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if params.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.Google != nil && params.States == nil {
		return nil, fmt.Errorf("oauth state store is required for google sign-in")
	}
	return &Service{
		users:        params.Users,
		sessions:     params.Sessions,
		jwtCfg:       params.JWT,
		passwordCfg:  params.Password,
		bootstrapKey: params.BootstrapKey,
		google:       params.Google,
		states:       params.States,
		logg:         params.Logger,
		now:          params.Now,
	}, nil
}

// SessionsEnabled reports whether refresh tokens are issued.
func (s *Service) SessionsEnabled() bool { return s.sessions != nil }

// Register creates a regular account and signs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Result, error) {
	user, err := s.createWithPassword(ctx, req, enums.UserRoleUser)
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID), "auth.registered")
	return s.issue(ctx, user)
}

// CreateAdmin creates an admin account. key must match the configured
// bootstrap key; the endpoint is closed when no key is configured.
func (s *Service) CreateAdmin(ctx context.Context, key string, req RegisterRequest) (users.Profile, error) {
	if s.bootstrapKey == "" {
		return users.Profile{}, pkgerrors.New(pkgerrors.CodeForbidden, "admin bootstrap is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.bootstrapKey)) != 1 {
		return users.Profile{}, pkgerrors.New(pkgerrors.CodeForbidden, "invalid bootstrap key")
	}
	user, err := s.createWithPassword(ctx, req, enums.UserRoleAdmin)
	if err != nil {
		return users.Profile{}, err
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID), "auth.admin_created")
	return user.Profile(), nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*Result, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if users.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, err
	}
	if !user.HasPassword() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	valid, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	if security.IsLegacyHash(user.PasswordHash) {
		s.upgradeHash(ctx, user, req.Password)
	}
	return s.issue(ctx, user)
}

// Me loads the current profile of the token holder.
func (s *Service) Me(ctx context.Context, id Identity) (users.Profile, error) {
	user, err := s.users.Get(ctx, id.ID)
	if err != nil {
		if users.IsNotFound(err) {
			return users.Profile{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
		}
		return users.Profile{}, err
	}
	return user.Profile(), nil
}

// Logout drops the refresh session tied to the token. Access tokens stay
// valid until they expire unless the session check is enabled.
func (s *Service) Logout(ctx context.Context, id Identity) error {
	if s.sessions == nil || id.SessionID == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, id.SessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Refresh rotates a refresh session and mints a new access token for it.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*Result, error) {
	if s.sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "refresh sessions are not enabled")
	}
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, strings.TrimSpace(req.AccessToken))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
	}
	issued, err := s.sessions.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}
	if issued.UserID != claims.UserID {
		_ = s.sessions.Revoke(ctx, issued.AccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	}

	user, err := s.users.Get(ctx, issued.UserID)
	if err != nil {
		return nil, err
	}
	token, err := s.mint(user, issued.AccessID)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, RefreshToken: issued.RefreshToken, User: user.Profile()}, nil
}

// Resolve validates a bearer token and returns the identity it carries.
func (s *Service) Resolve(_ context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required")
	}
	claims, err := pkgAuth.ParseAccessToken(s.jwtCfg, token)
	if err != nil {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
	}
	if !claims.Role.IsValid() {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidTokenMessage)
	}
	return Identity{
		ID:        claims.UserID,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      claims.Role,
		SessionID: claims.ID,
	}, nil
}

func (s *Service) createWithPassword(ctx context.Context, req RegisterRequest, role enums.UserRole) (users.User, error) {
	details := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		details["name"] = "required"
	}
	if users.NormalizeEmail(req.Email) == "" {
		details["email"] = "required"
	}
	if minLen := s.minPasswordLength(); len(req.Password) < minLen {
		details["password"] = fmt.Sprintf("must be at least %d characters long", minLen)
	}
	if len(details) > 0 {
		return users.User{}, pkgerrors.New(pkgerrors.CodeValidation, "Email, name, and password are required").WithDetails(details)
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return users.User{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return s.users.Create(ctx, users.CreateInput{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         role,
	})
}

func (s *Service) minPasswordLength() int {
	if s.passwordCfg.MinLength > 0 {
		return s.passwordCfg.MinLength
	}
	return 6
}

// upgradeHash swaps a bcrypt hash for Argon2id. Failure only costs another
// upgrade attempt on the next login.
func (s *Service) upgradeHash(ctx context.Context, user users.User, password string) {
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err == nil {
		_, err = s.users.SetPasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.logg.Warn(s.logg.WithField(s.logg.WithUserID(ctx, user.ID), "error", err.Error()), "auth.rehash_failed")
		return
	}
	s.logg.Info(s.logg.WithUserID(ctx, user.ID), "auth.rehashed")
}

// issue mints an access token and, when sessions are on, a refresh token
// bound to its jti.
func (s *Service) issue(ctx context.Context, user users.User) (*Result, error) {
	accessID := uuid.NewString()
	var refresh string
	if s.sessions != nil {
		issued, err := s.sessions.Start(ctx, user.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh session")
		}
		accessID, refresh = issued.AccessID, issued.RefreshToken
	}
	token, err := s.mint(user, accessID)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, RefreshToken: refresh, User: user.Profile()}, nil
}

func (s *Service) mint(user users.User, jti string) (string, error) {
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
		JTI:    jti,
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}
