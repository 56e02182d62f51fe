package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyodo/backend/internal/common/db/dbtest"
	"github.com/kyodo/backend/internal/common/entityid"
	"github.com/kyodo/backend/internal/user/domain"
)

func newUser(name, login string) domain.User {
	return domain.User{ID: entityid.Generate[domain.Kind](), Name: name, Login: login}
}

// exerciseRepository runs the same behaviour checks against any backend.
func exerciseRepository(t *testing.T, repo Repository) {
	ctx := context.Background()

	t.Run("create and find", func(t *testing.T) {
		alice := newUser("Alice", "alice1")
		require.NoError(t, repo.Create(ctx, alice, "hash-a"))

		creds, err := repo.FindCredentialsByLogin(ctx, "alice1")
		require.NoError(t, err)
		assert.Equal(t, alice, creds.User)
		assert.Equal(t, "hash-a", creds.PasswordHash)

		found, err := repo.FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, alice, found)
	})

	t.Run("duplicate login keeps the first row", func(t *testing.T) {
		first := newUser("Bob", "bob")
		require.NoError(t, repo.Create(ctx, first, "hash-first"))

		err := repo.Create(ctx, newUser("Impostor", "bob"), "hash-second")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLoginTaken)

		creds, err := repo.FindCredentialsByLogin(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, first.ID, creds.ID)
		assert.Equal(t, "Bob", creds.Name)
		assert.Equal(t, "hash-first", creds.PasswordHash)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.FindCredentialsByLogin(ctx, "nobody")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = repo.FindByID(ctx, entityid.Generate[domain.Kind]())
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestSQLiteRepository(t *testing.T) {
	exerciseRepository(t, NewSQLiteRepository(dbtest.OpenSQLite(t)))
}

func TestPgRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("postgres integration test")
	}
	exerciseRepository(t, NewPgRepository(dbtest.OpenPostgres(t)))
}
