package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/photocard-store/internal/users"
	"github.com/angelmondragon/photocard-store/pkg/config"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	redisclient "github.com/angelmondragon/photocard-store/pkg/redis"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const (
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	oauthStateTTL     = 10 * time.Minute
)

// errGoogleNotConfigured is returned by the Google endpoints when no client
// credentials are configured.
func errGoogleNotConfigured() error {
	return pkgerrors.New(pkgerrors.CodeDependency, "Google OAuth not configured")
}

// GoogleProfile is the subset of the userinfo response we use.
type GoogleProfile struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// GoogleProvider builds consent URLs and turns an authorization code into a profile.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Profile(ctx context.Context, code string) (GoogleProfile, error)
}

// StateStore keeps OAuth state values until the callback consumes them.
type StateStore interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	// Consume reports whether state was saved and not yet used.
	Consume(ctx context.Context, state string) (bool, error)
}

// GoogleOAuth is the x/oauth2 backed GoogleProvider.
type GoogleOAuth struct {
	conf *oauth2.Config
}

func NewGoogleOAuth(cfg config.GoogleOAuthConfig) *GoogleOAuth {
	return &GoogleOAuth{conf: &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.CallbackURL,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     endpoints.Google,
	}}
}

func (g *GoogleOAuth) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *GoogleOAuth) Profile(ctx context.Context, code string) (GoogleProfile, error) {
	token, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("exchange code: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return GoogleProfile{}, err
	}
	resp, err := g.conf.Client(ctx, token).Do(req)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return GoogleProfile{}, fmt.Errorf("userinfo returned %s", resp.Status)
	}
	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return GoogleProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	return profile, nil
}

// RedisStateStore keeps OAuth state in Redis so any instance can finish the flow.
type RedisStateStore struct {
	client *redisclient.Client
}

func NewRedisStateStore(client *redisclient.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (r *RedisStateStore) Save(ctx context.Context, state string, ttl time.Duration) error {
	return r.client.Set(ctx, r.client.OAuthStateKey(state), "1", ttl)
}

func (r *RedisStateStore) Consume(ctx context.Context, state string) (bool, error) {
	_, err := r.client.Take(ctx, r.client.OAuthStateKey(state))
	if errors.Is(err, redisclient.Nil) {
		return false, nil
	}
	return err == nil, err
}

// MemoryStateStore is the single-process StateStore used when Redis is off.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: map[string]time.Time{}, now: time.Now}
}

func (m *MemoryStateStore) Save(_ context.Context, state string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for s, exp := range m.states {
		if now.After(exp) {
			delete(m.states, s)
		}
	}
	m.states[state] = now.Add(ttl)
	return nil
}

func (m *MemoryStateStore) Consume(_ context.Context, state string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.states[state]
	delete(m.states, state)
	return ok && !m.now().After(exp), nil
}

func (s *Service) GoogleEnabled() bool { return s.google != nil }

// GoogleLoginURL starts the consent flow.
func (s *Service) GoogleLoginURL(ctx context.Context) (string, error) {
	if s.google == nil {
		return "", errGoogleNotConfigured()
	}
	state := uuid.NewString()
	if err := s.states.Save(ctx, state, oauthStateTTL); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store oauth state")
	}
	return s.google.AuthCodeURL(state), nil
}

// GoogleCallback finishes the flow. The account is found by Google id, else
// linked by a verified email, else created with the user role.
func (s *Service) GoogleCallback(ctx context.Context, state, code string) (*Result, error) {
	if s.google == nil {
		return nil, errGoogleNotConfigured()
	}
	if state == "" || code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "state and code are required")
	}
	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read oauth state")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid oauth state")
	}

	profile, err := s.google.Profile(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "google sign-in failed")
	}
	if profile.Subject == "" || strings.TrimSpace(profile.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "google profile is missing an id or email")
	}

	user, err := s.resolveGoogleUser(ctx, profile)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *Service) resolveGoogleUser(ctx context.Context, profile GoogleProfile) (users.User, error) {
	user, err := s.users.FindByGoogleID(ctx, profile.Subject)
	if err == nil {
		return user, nil
	}
	if !users.IsNotFound(err) {
		return users.User{}, err
	}

	user, err = s.users.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		// Only a verified address may take over an existing account.
		if !profile.EmailVerified {
			s.logg.Warn(s.logg.WithUserID(ctx, user.ID), "auth.google_link_unverified")
			return users.User{}, pkgerrors.New(pkgerrors.CodeConflict, "An account with this email already exists")
		}
		linked, err := s.users.LinkGoogle(ctx, user.ID, profile.Subject)
		if err != nil {
			return users.User{}, err
		}
		s.logg.Info(s.logg.WithUserID(ctx, linked.ID), "auth.google_linked")
		return linked, nil
	case !users.IsNotFound(err):
		return users.User{}, err
	}

	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = profile.Email
	}
	created, err := s.users.Create(ctx, users.CreateInput{
		Email:    profile.Email,
		Name:     name,
		GoogleID: profile.Subject,
	})
	if err != nil {
		return users.User{}, err
	}
	s.logg.Info(s.logg.WithUserID(ctx, created.ID), "auth.google_registered")
	return created, nil
}
