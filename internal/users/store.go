package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/jsonstore"
)

// FileName is the users collection file (without extension).
const FileName = "users"

type collection interface {
	Name() string
	Load(ctx context.Context) ([]User, error)
	Update(ctx context.Context, fn func([]User) ([]User, error)) error
	Ensure(ctx context.Context, seed []User) (bool, error)
}

// Store persists accounts in users.json.
type Store struct {
	users collection
	now   func() time.Time
}

func NewStore(users collection, now func() time.Time) (*Store, error) {
	if users == nil {
		return nil, errors.New("collection required")
	}
	if now == nil {
		now = time.Now
	}
	return &Store{users: users, now: now}, nil
}

func OpenStore(dir *jsonstore.Dir) (*Store, error) {
	return NewStore(jsonstore.OpenCollection[User](dir, FileName), nil)
}

// Init creates an empty users file when none exists.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.users.Ensure(ctx, []User{}); err != nil {
		return s.readError(err)
	}
	return nil
}

// Create appends a user with the next id. The email must not be taken, and a
// Google id, when given, must not be linked to another account.
func (s *Store) Create(ctx context.Context, in CreateInput) (User, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return User{}, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	role := in.Role
	if role == "" {
		role = enums.UserRoleUser
	}
	if !role.IsValid() {
		return User{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}

	var created User
	err := s.mutate(ctx, func(users []User) ([]User, error) {
		for _, u := range users {
			if NormalizeEmail(u.Email) == email {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "user with this email already exists")
			}
			if in.GoogleID != "" && u.GoogleID != nil && *u.GoogleID == in.GoogleID {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "google account already linked")
			}
		}
		now := s.now().UTC()
		created = User{
			ID:           nextID(users),
			Email:        email,
			Name:         strings.TrimSpace(in.Name),
			PasswordHash: in.PasswordHash,
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if in.GoogleID != "" {
			gid := in.GoogleID
			created.GoogleID = &gid
		}
		return append(users, created), nil
	})
	return created, err
}

// Get returns the user with id or a not-found error.
func (s *Store) Get(ctx context.Context, id int64) (User, error) {
	return s.find(ctx, func(u User) bool { return u.ID == id })
}

// FindByEmail matches case-insensitively.
func (s *Store) FindByEmail(ctx context.Context, email string) (User, error) {
	email = NormalizeEmail(email)
	return s.find(ctx, func(u User) bool { return email != "" && NormalizeEmail(u.Email) == email })
}

func (s *Store) FindByGoogleID(ctx context.Context, googleID string) (User, error) {
	return s.find(ctx, func(u User) bool {
		return googleID != "" && u.GoogleID != nil && *u.GoogleID == googleID
	})
}

// LinkGoogle attaches googleID to an existing account.
func (s *Store) LinkGoogle(ctx context.Context, id int64, googleID string) (User, error) {
	return s.modify(ctx, id, func(u *User) {
		gid := googleID
		u.GoogleID = &gid
	})
}

// SetPasswordHash replaces the stored hash, used to upgrade legacy hashes.
func (s *Store) SetPasswordHash(ctx context.Context, id int64, hash string) (User, error) {
	return s.modify(ctx, id, func(u *User) { u.PasswordHash = hash })
}

func (s *Store) modify(ctx context.Context, id int64, fn func(*User)) (User, error) {
	var updated User
	err := s.mutate(ctx, func(users []User) ([]User, error) {
		for i := range users {
			if users[i].ID != id {
				continue
			}
			fn(&users[i])
			users[i].UpdatedAt = s.now().UTC()
			updated = users[i]
			return users, nil
		}
		return nil, errNotFound()
	})
	return updated, err
}

func (s *Store) find(ctx context.Context, match func(User) bool) (User, error) {
	users, err := s.users.Load(ctx)
	if err != nil {
		return User{}, s.readError(err)
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return User{}, errNotFound()
}

func (s *Store) mutate(ctx context.Context, fn func([]User) ([]User, error)) error {
	err := s.users.Update(ctx, fn)
	if err == nil || pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return s.readError(err)
}

func (s *Store) readError(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to access "+s.users.Name())
}

func errNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
}

// IsNotFound reports whether err is the store's not-found error.
func IsNotFound(err error) bool {
	return pkgerrors.CodeOf(err) == pkgerrors.CodeNotFound
}

func nextID(users []User) int64 {
	var maxID int64
	for _, u := range users {
		maxID = max(maxID, u.ID)
	}
	return maxID + 1
}
