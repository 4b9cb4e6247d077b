package users

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/angelmondragon/photocard-store/pkg/enums"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/jsonstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := t.TempDir()
	dir, err := jsonstore.Open(context.Background(), path, nil, nil)
	require.NoError(t, err)
	store, err := OpenStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	return store, path
}

func TestCreateNormalizesEmailAndAssignsIDs(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	first, err := store.Create(ctx, CreateInput{Email: "  Fan@Example.COM ", Name: "Fan", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, "fan@example.com", first.Email)
	assert.Equal(t, enums.UserRoleUser, first.Role)
	assert.Nil(t, first.GoogleID)

	second, err := store.Create(ctx, CreateInput{Email: "admin@example.com", Name: "Admin", Role: enums.UserRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
	assert.Equal(t, enums.UserRoleAdmin, second.Role)
}

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Create(ctx, CreateInput{Email: "fan@example.com", Name: "Fan"})
	require.NoError(t, err)
	_, err = store.Create(ctx, CreateInput{Email: "FAN@example.com", Name: "Other"})
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	_, err := store.Create(ctx, CreateInput{Email: "  ", Name: "Nobody"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
	_, err = store.Create(ctx, CreateInput{Email: "a@b.c", Role: "owner"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestLookups(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	created, err := store.Create(ctx, CreateInput{Email: "fan@example.com", Name: "Fan", GoogleID: "g-1"})
	require.NoError(t, err)

	byEmail, err := store.FindByEmail(ctx, "FAN@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byGoogle, err := store.FindByGoogleID(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byGoogle.ID)

	_, err = store.FindByGoogleID(ctx, "")
	assert.True(t, IsNotFound(err))
	_, err = store.Get(ctx, 99)
	assert.True(t, IsNotFound(err))
}

func TestLinkGoogleAndSetPasswordHash(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	created, err := store.Create(ctx, CreateInput{Email: "fan@example.com", Name: "Fan", PasswordHash: "old"})
	require.NoError(t, err)

	linked, err := store.LinkGoogle(ctx, created.ID, "g-9")
	require.NoError(t, err)
	require.NotNil(t, linked.GoogleID)
	assert.Equal(t, "g-9", *linked.GoogleID)
	assert.Equal(t, "old", linked.PasswordHash)

	rehashed, err := store.SetPasswordHash(ctx, created.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", rehashed.PasswordHash)

	_, err = store.LinkGoogle(ctx, 42, "g-x")
	assert.True(t, IsNotFound(err))
}

func TestProfileOmitsCredentials(t *testing.T) {
	u := User{ID: 1, Email: "fan@example.com", Name: "Fan", PasswordHash: "secret", Role: enums.UserRoleUser}
	raw, err := json.Marshal(u.Profile())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "password")
	assert.NotContains(t, string(raw), "googleId")
}

func TestStoredFileKeepsPasswordField(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	_, err := store.Create(ctx, CreateInput{Email: "fan@example.com", Name: "Fan", PasswordHash: "$2a$10$abc"})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(path, FileName+".json"))
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(raw, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "$2a$10$abc", rows[0]["password"])
	assert.Nil(t, rows[0]["googleId"])
}

func TestCorruptFileIsDependencyError(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(path, FileName+".json"), []byte("{not json"), 0o644))

	_, err := store.FindByEmail(ctx, "fan@example.com")
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
	_, err = store.Create(ctx, CreateInput{Email: "fan@example.com"})
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.CodeOf(err))
}
