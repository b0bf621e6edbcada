package auth

import (
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func testUser(admin bool) *model.User {
	return &model.User{ID: "user-1", Name: "Ada", Email: "ada@example.com", IsAdmin: admin}
}

func TestIssueValidate(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour, "smartevent", "smartevent-clients")

	for _, tc := range []struct {
		name  string
		admin bool
		role  Role
	}{
		{"user", false, RoleUser},
		{"admin", true, RoleAdmin},
	} {
		t.Run(tc.name, func(t *testing.T) {
			token, err := issuer.Issue(testUser(tc.admin))
			require.NoError(t, err)

			claims, err := issuer.Validate(token)
			require.NoError(t, err)
			require.Equal(t, "user-1", claims.UserID())
			require.Equal(t, "ada@example.com", claims.Email)
			require.Equal(t, "Ada", claims.Name)
			require.Equal(t, tc.role, claims.Role)
		})
	}
}

func TestIssueRejectsMissingUser(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour, "smartevent", "")
	_, err := issuer.Issue(nil)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.Issue(&model.User{})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejects(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour, "smartevent", "smartevent-clients")
	token, err := issuer.Issue(testUser(false))
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := issuer.Validate("  ")
		require.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewIssuer("another-secret-that-is-long-enough-x", time.Hour, "smartevent", "smartevent-clients")
		_, err := other.Validate(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewIssuer(testSecret, time.Hour, "someone-else", "smartevent-clients")
		_, err := other.Validate(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := NewIssuer(testSecret, time.Hour, "smartevent", "other-clients")
		_, err := other.Validate(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewIssuer(testSecret, time.Hour, "smartevent", "smartevent-clients")
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Validate(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		claims := &Claims{
			Role: RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				Issuer:    "smartevent",
				Audience:  jwt.ClaimStrings{"smartevent-clients"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Validate(unsigned)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestTokenFromHeader(t *testing.T) {
	_, err := TokenFromHeader("nope")
	require.ErrorIs(t, err, ErrMissingToken)

	token, err := TokenFromHeader("Bearer abc.def")
	require.NoError(t, err)
	require.Equal(t, "abc.def", token)

	token, err = TokenFromHeader("bearer xyz")
	require.NoError(t, err)
	require.Equal(t, "xyz", token)
}

func TestNormalizeRole(t *testing.T) {
	require.Equal(t, RoleAdmin, NormalizeRole(" Admin "))
	require.Equal(t, RoleUser, NormalizeRole("User"))
	require.Equal(t, RoleUser, NormalizeRole("superuser"))
	require.Equal(t, RoleAdmin, RoleFor(testUser(true)))
	require.Equal(t, RoleUser, RoleFor(nil))
}
