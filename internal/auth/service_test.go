package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/photocard-store/internal/users"
	pkgAuth "github.com/angelmondragon/photocard-store/pkg/auth"
	"github.com/angelmondragon/photocard-store/pkg/auth/session"
	"github.com/angelmondragon/photocard-store/pkg/config"
	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/jsonstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var testJWT = config.JWTConfig{
	Secret:                 "secret",
	Issuer:                 "photocard-store",
	ExpirationMinutes:      60,
	RefreshTokenTTLMinutes: 120,
}

var testPassword = config.PasswordConfig{
	MinLength:        6,
	ArgonMemoryKB:    8192,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

type fakeSessions struct {
	byAccess map[string]session.Issued
	next     int
	fail     error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byAccess: map[string]session.Issued{}}
}

func (f *fakeSessions) Start(_ context.Context, userID int64) (session.Issued, error) {
	if f.fail != nil {
		return session.Issued{}, f.fail
	}
	f.next++
	issued := session.Issued{
		AccessID:     "access-" + string(rune('a'+f.next)),
		RefreshToken: "refresh-" + string(rune('a'+f.next)),
		UserID:       userID,
	}
	f.byAccess[issued.AccessID] = issued
	return issued, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, oldAccessID, refreshToken string) (session.Issued, error) {
	current, ok := f.byAccess[oldAccessID]
	if !ok || current.RefreshToken != refreshToken {
		return session.Issued{}, session.ErrInvalidRefreshToken
	}
	delete(f.byAccess, oldAccessID)
	return f.Start(ctx, current.UserID)
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	delete(f.byAccess, accessID)
	return nil
}

type testEnv struct {
	svc      *Service
	users    *users.Store
	sessions *fakeSessions
}

func newTestEnv(t *testing.T, mutate func(*ServiceParams)) testEnv {
	t.Helper()
	dir, err := jsonstore.Open(context.Background(), t.TempDir(), nil, nil)
	require.NoError(t, err)
	store, err := users.OpenStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	sessions := newFakeSessions()
	params := ServiceParams{
		Users:        store,
		Sessions:     sessions,
		JWT:          testJWT,
		Password:     testPassword,
		BootstrapKey: "bootstrap",
	}
	if mutate != nil {
		mutate(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return testEnv{svc: svc, users: store, sessions: sessions}
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	registered, err := env.svc.Register(ctx, RegisterRequest{Name: "Fan", Email: "Fan@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "fan@example.com", registered.User.Email)
	assert.Equal(t, enums.UserRoleUser, registered.User.Role)
	assert.NotEmpty(t, registered.RefreshToken)

	result, err := env.svc.Login(ctx, LoginRequest{Email: "fan@example.com", Password: "secret1"})
	require.NoError(t, err)

	id, err := env.svc.Resolve(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, id.ID)
	assert.Equal(t, "Fan", id.Name)
	assert.Equal(t, enums.UserRoleUser, id.Role)
	assert.NotEmpty(t, id.SessionID)
	assert.Contains(t, env.sessions.byAccess, id.SessionID)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	_, err := env.svc.Register(ctx, RegisterRequest{Name: "Fan", Email: "fan@example.com", Password: "123"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Contains(t, typed.Details().(map[string]string), "password")

	_, err = env.svc.Register(ctx, RegisterRequest{Name: "Fan", Email: "fan@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = env.svc.Register(ctx, RegisterRequest{Name: "Again", Email: "FAN@example.com", Password: "secret1"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	_, err := env.svc.Register(ctx, RegisterRequest{Name: "Fan", Email: "fan@example.com", Password: "secret1"})
	require.NoError(t, err)
	_, err = env.users.Create(ctx, users.CreateInput{Email: "google@example.com", Name: "G", GoogleID: "g-1"})
	require.NoError(t, err)

	for _, req := range []LoginRequest{
		{Email: "fan@example.com", Password: "wrong-pass"},
		{Email: "nobody@example.com", Password: "secret1"},
		{Email: "google@example.com", Password: "anything"},
	} {
		_, err := env.svc.Login(ctx, req)
		assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err), req.Email)
	}
}

func TestLoginUpgradesLegacyHash(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	legacy, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	created, err := env.users.Create(ctx, users.CreateInput{Email: "old@example.com", Name: "Old", PasswordHash: string(legacy)})
	require.NoError(t, err)

	_, err = env.svc.Login(ctx, LoginRequest{Email: "old@example.com", Password: "password123"})
	require.NoError(t, err)

	stored, err := env.users.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.PasswordHash, "$argon2id$")

	_, err = env.svc.Login(ctx, LoginRequest{Email: "old@example.com", Password: "password123"})
	require.NoError(t, err)
}

func TestResolveRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)

	_, err := env.svc.Resolve(ctx, "")
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
	_, err = env.svc.Resolve(ctx, "not-a-jwt")
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))

	expired, err := pkgAuth.MintAccessToken(testJWT, time.Now().Add(-2*time.Hour), pkgAuth.AccessTokenPayload{
		UserID: 1, Role: enums.UserRoleUser,
	})
	require.NoError(t, err)
	_, err = env.svc.Resolve(ctx, expired)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
}

func TestRefreshRotatesSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	first, err := env.svc.Register(ctx, RegisterRequest{Name: "Fan", Email: "fan@example.com", Password: "secret1"})
	require.NoError(t, err)

	next, err := env.svc.Refresh(ctx, RefreshRequest{AccessToken: first.Token, RefreshToken: first.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, next.RefreshToken)
	assert.Equal(t, first.User.ID, next.User.ID)

	_, err = env.svc.Refresh(ctx, RefreshRequest{AccessToken: first.Token, RefreshToken: first.RefreshToken})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
}

func TestLogoutRevokesSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	result, err := env.svc.Register(ctx, RegisterRequest{Name: "Fan", Email: "fan@example.com", Password: "secret1"})
	require.NoError(t, err)
	id, err := env.svc.Resolve(ctx, result.Token)
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, id))
	assert.NotContains(t, env.sessions.byAccess, id.SessionID)
}

func TestWithoutSessions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, func(p *ServiceParams) { p.Sessions = nil })
	assert.False(t, env.svc.SessionsEnabled())

	result, err := env.svc.Register(ctx, RegisterRequest{Name: "Fan", Email: "fan@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Empty(t, result.RefreshToken)

	id, err := env.svc.Resolve(ctx, result.Token)
	require.NoError(t, err)
	require.NoError(t, env.svc.Logout(ctx, id))

	_, err = env.svc.Refresh(ctx, RefreshRequest{AccessToken: result.Token, RefreshToken: "x"})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestSessionStartFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	env.sessions.fail = errors.New("redis down")

	_, err := env.svc.Register(ctx, RegisterRequest{Name: "Fan", Email: "fan@example.com", Password: "secret1"})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}

func TestCreateAdminRequiresBootstrapKey(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	req := RegisterRequest{Name: "Admin", Email: "admin@example.com", Password: "secret1"}

	_, err := env.svc.CreateAdmin(ctx, "wrong", req)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	profile, err := env.svc.CreateAdmin(ctx, "bootstrap", req)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, profile.Role)

	closed := newTestEnv(t, func(p *ServiceParams) { p.BootstrapKey = "" })
	_, err = closed.svc.CreateAdmin(ctx, "", req)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil)
	result, err := env.svc.Register(ctx, RegisterRequest{Name: "Fan", Email: "fan@example.com", Password: "secret1"})
	require.NoError(t, err)

	profile, err := env.svc.Me(ctx, Identity{ID: result.User.ID})
	require.NoError(t, err)
	assert.Equal(t, "Fan", profile.Name)

	_, err = env.svc.Me(ctx, Identity{ID: 404})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))
}
