package service

import (
	"context"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/auth"
	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T, allowAdminSignup bool) (*UserService, *auth.Issuer) {
	t.Helper()
	f := newFixture(t)
	issuer := auth.NewIssuer("test-secret-that-is-long-enough-for-hs256", time.Hour, "smartevent", "smartevent-clients")
	return NewUserService(f.store.Users(), issuer, allowAdminSignup, zerolog.Nop()), issuer
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates user and token", func(t *testing.T) {
		svc, issuer := newUserService(t, false)
		res, err := svc.RegisterUser(ctx, model.RegisterUserRequest{Name: " Ada ", Email: " Ada@Example.com "})
		require.NoError(t, err)
		require.True(t, res.Success)
		require.Equal(t, "Ada", res.Data.User.Name)
		require.Equal(t, "ada@example.com", res.Data.User.Email)
		require.False(t, res.Data.User.IsAdmin)

		claims, err := issuer.Validate(res.Data.Token)
		require.NoError(t, err)
		require.Equal(t, res.Data.User.ID, claims.UserID())
		require.Equal(t, auth.RoleUser, claims.Role)
	})

	t.Run("existing email returns same user", func(t *testing.T) {
		svc, _ := newUserService(t, false)
		first, err := svc.RegisterUser(ctx, model.RegisterUserRequest{Name: "Ada", Email: "ada@example.com"})
		require.NoError(t, err)
		second, err := svc.RegisterUser(ctx, model.RegisterUserRequest{Name: "Someone", Email: "ADA@example.com"})
		require.NoError(t, err)
		require.True(t, second.Success)
		require.Equal(t, first.Data.User.ID, second.Data.User.ID)
		require.Equal(t, "Ada", second.Data.User.Name)
	})

	t.Run("admin flag ignored by default", func(t *testing.T) {
		svc, _ := newUserService(t, false)
		res, err := svc.RegisterUser(ctx, model.RegisterUserRequest{Name: "Eve", Email: "eve@example.com", IsAdmin: true})
		require.NoError(t, err)
		require.False(t, res.Data.User.IsAdmin)
	})

	t.Run("admin flag honoured when allowed", func(t *testing.T) {
		svc, issuer := newUserService(t, true)
		res, err := svc.RegisterUser(ctx, model.RegisterUserRequest{Name: "Root", Email: "root@example.com", IsAdmin: true})
		require.NoError(t, err)
		require.True(t, res.Data.User.IsAdmin)
		claims, err := issuer.Validate(res.Data.Token)
		require.NoError(t, err)
		require.Equal(t, auth.RoleAdmin, claims.Role)
	})

	t.Run("invalid request", func(t *testing.T) {
		svc, _ := newUserService(t, false)
		res, err := svc.RegisterUser(ctx, model.RegisterUserRequest{Name: "", Email: "nope"})
		require.NoError(t, err)
		require.False(t, res.Success)
		require.Equal(t, model.ReasonInvalidRequest, res.Reason)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc, issuer := newUserService(t, false)

	created, err := svc.RegisterUser(ctx, model.RegisterUserRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, "  ADA@example.com")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, created.Data.User.ID, res.Data.User.ID)
	_, err = issuer.Validate(res.Data.Token)
	require.NoError(t, err)

	missing, err := svc.Login(ctx, "ghost@example.com")
	requireReason(t, missing, err, model.ReasonUserNotFound)

	bad, err := svc.Login(ctx, "not-an-email")
	require.NoError(t, err)
	require.Equal(t, model.ReasonInvalidRequest, bad.Reason)
}

func TestCurrentUserAndLogout(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t, false)

	created, err := svc.RegisterUser(ctx, model.RegisterUserRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	res, err := svc.CurrentUser(ctx, created.Data.User.ID)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "ada@example.com", res.Data.Email)

	missing, err := svc.CurrentUser(ctx, "missing")
	requireReason(t, missing, err, model.ReasonUserNotFound)

	require.True(t, svc.Logout(ctx, created.Data.User.ID).Success)
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUserService(t, false)

	admin, err := svc.EnsureAdmin(ctx, "Admin", "Admin@SmartEvent.com")
	require.NoError(t, err)
	require.True(t, admin.IsAdmin)
	require.Equal(t, "admin@smartevent.com", admin.Email)

	again, err := svc.EnsureAdmin(ctx, "Admin", "admin@smartevent.com")
	require.NoError(t, err)
	require.Equal(t, admin.ID, again.ID)

	_, err = svc.EnsureAdmin(ctx, "Admin", "  ")
	require.Error(t, err)
}
