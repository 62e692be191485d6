package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"interntrack/internal/auth"
	"interntrack/internal/model"
	"interntrack/internal/testutil"
	"interntrack/pkg/rbac"
)

const testSecret = "test-secret"

func newUserService() (*UserService, *testutil.UserStore) {
	store := &testutil.UserStore{}
	return NewUserService(store, testSecret, time.Hour, zap.NewNop()), store
}

func TestRegister_FirstUserIsAdmin(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: "Ada@Example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, first.Role)
	assert.Equal(t, "ada@example.com", first.Email)
	assert.True(t, first.Active)
	assert.NotEqual(t, "password1", first.PasswordHash)

	second, err := svc.Register(ctx, RegisterInput{Name: "Bob", Email: "bob@example.com", Password: "password2"})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleIntern, second.Role)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@b.co", Password: "password1"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "password1"}},
		{"display name email", RegisterInput{Name: "A", Email: "A <a@b.co>", Password: "password1"}},
		{"short password", RegisterInput{Name: "A", Email: "a@b.co", Password: "short"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.co", Password: "password1"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Name: "B", Email: "A@B.CO", Password: "password1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, store := newUserService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.co", Password: "password1"})
	require.NoError(t, err)

	sess, err := svc.Login(ctx, LoginInput{Email: "a@b.co", Password: "password1"})
	require.NoError(t, err)
	claims, err := auth.ParseJWT(sess.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, rbac.RoleAdmin, claims.Role)

	_, err = svc.Login(ctx, LoginInput{Email: "a@b.co", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@b.co", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	u.Active = false
	_, err = store.Update(ctx, u)
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginInput{Email: "a@b.co", Password: "password1"})
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestUserAdminOperations(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	root, err := svc.Register(ctx, RegisterInput{Name: "Root", Email: "root@b.co", Password: "password1"})
	require.NoError(t, err)
	actor := admin
	actor.UserID = root.ID

	pw := "password9"
	name, email := "Intern", "intern@b.co"
	created, err := svc.Create(ctx, actor, UserInput{Name: &name, Email: &email, Password: &pw})
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleIntern, created.Role)

	internActor := intern
	internActor.UserID = created.ID
	_, err = svc.List(ctx, internActor, model.UserFilter{})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Get(ctx, internActor, root.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	self, err := svc.Get(ctx, internActor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "intern@b.co", self.Email)

	demote := rbac.RoleIntern
	_, err = svc.Update(ctx, actor, root.ID, UserInput{Role: &demote})
	assert.ErrorIs(t, err, ErrValidation)

	bad := "2024-05-01"
	early := "2024-04-01"
	_, err = svc.Update(ctx, actor, created.ID, UserInput{StartDate: &bad, EndDate: &early})
	assert.ErrorIs(t, err, ErrValidation)

	assert.ErrorIs(t, svc.Delete(ctx, actor, root.ID), ErrValidation)
	require.NoError(t, svc.Delete(ctx, actor, created.ID))
	_, err = svc.Get(ctx, actor, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
