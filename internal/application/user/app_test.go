package userapp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/repos/memory"
	userapp "gitlab.com/sellcourse/sellcourse-backend/internal/application/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
)

func seed(t *testing.T, repo *memory.UserRepo, email string, r role.Role) *user.User {
	t.Helper()
	u, err := user.Create(user.CreateArgs{
		ID:       user.NewID(),
		Email:    email,
		PassHash: []byte("hash"),
		Username: "Bob",
		Role:     r,
	})
	require.NoError(t, err)
	repo.SeedUser(t, u)
	return u
}

func TestGetMe(t *testing.T) {
	t.Parallel()
	repo := memory.NewUserRepo(nil)
	app := userapp.NewApp(userapp.Args{Repo: repo})
	u := seed(t, repo, "bob@b.com", role.Customer)

	got, err := app.GetMe(t.Context(), "Bob@B.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID(), got.ID())
	assert.Equal(t, "Bob", got.Username())

	_, err = app.GetMe(t.Context(), "ghost@b.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestChangeRole(t *testing.T) {
	t.Parallel()
	events := memory.NewEventLog()
	repo := memory.NewUserRepo(events)
	app := userapp.NewApp(userapp.Args{Repo: repo})
	admin := seed(t, repo, "admin@b.com", role.Admin)
	bob := seed(t, repo, "bob@b.com", role.Customer)

	t.Run("promote", func(t *testing.T) {
		got, err := app.ChangeRole(t.Context(), userapp.ChangeRole{
			ActorEmail: admin.Email(),
			UserID:     bob.ID(),
			Role:       "instructor",
		})
		require.NoError(t, err)
		assert.Equal(t, role.Instructor, got.Role())

		stored, err := repo.GetUserByID(t.Context(), bob.ID())
		require.NoError(t, err)
		assert.Equal(t, role.Instructor, stored.Role())

		evt := memory.Last[*user.UserRoleChanged](t, events)
		assert.Equal(t, role.Customer, evt.Previous)
		assert.Equal(t, role.Instructor, evt.Current)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := app.ChangeRole(t.Context(), userapp.ChangeRole{ActorEmail: admin.Email(), UserID: bob.ID(), Role: "owner"})
		assert.ErrorIs(t, err, user.ErrInvalidRole)
	})

	t.Run("own role", func(t *testing.T) {
		_, err := app.ChangeRole(t.Context(), userapp.ChangeRole{ActorEmail: admin.Email(), UserID: admin.ID(), Role: "customer"})
		assert.ErrorIs(t, err, userapp.ErrOwnRole)

		stored, err := repo.GetUserByID(t.Context(), admin.ID())
		require.NoError(t, err)
		assert.Equal(t, role.Admin, stored.Role())
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := app.ChangeRole(t.Context(), userapp.ChangeRole{ActorEmail: admin.Email(), UserID: user.NewID(), Role: "admin"})
		assert.ErrorIs(t, err, user.ErrNotFound)
	})
}

func TestChangeRole_SameRoleRecordsNothing(t *testing.T) {
	t.Parallel()
	events := memory.NewEventLog()
	repo := memory.NewUserRepo(events)
	app := userapp.NewApp(userapp.Args{Repo: repo})
	admin := seed(t, repo, "admin@b.com", role.Admin)
	bob := seed(t, repo, "bob@b.com", role.Instructor)

	got, err := app.ChangeRole(t.Context(), userapp.ChangeRole{ActorEmail: admin.Email(), UserID: bob.ID(), Role: "INSTRUCTOR"})
	require.NoError(t, err)
	assert.Equal(t, role.Instructor, got.Role())
	events.AssertEventNotExists(t, &user.UserRoleChanged{})
}
