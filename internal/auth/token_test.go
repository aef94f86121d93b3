package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kbadu/datashop/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	tm := TokenManager{secretKey: []byte("testsecret")}
	token, err := tm.GenerateToken(42, RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := tm.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, 42, userID)
	require.Equal(t, RoleAdmin, role)
}

func TestParseInvalidToken(t *testing.T) {
	tm := TokenManager{secretKey: []byte("testsecret")}

	_, _, err := tm.ParseToken("invalid.token.string")
	require.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestParseTokenWithWrongSignature(t *testing.T) {
	tm := TokenManager{secretKey: []byte("testsecret")}

	claims := jwt.MapClaims{
		"user_id": 1,
		"role":    RoleAdmin,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	badTokenStr, _ := token.SignedString([]byte("wrongsecret"))

	_, _, err := tm.ParseToken(badTokenStr)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestParseExpiredToken(t *testing.T) {
	tm := TokenManager{secretKey: []byte("testsecret")}

	claims := jwt.MapClaims{
		"user_id": 1,
		"role":    RoleAdmin,
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	expiredTokenStr, _ := token.SignedString([]byte("testsecret"))

	_, _, err := tm.ParseToken(expiredTokenStr)
	require.ErrorIs(t, err, errs.ErrInvalidToken)
}

func TestTokenWithoutRole(t *testing.T) {
	tm := TokenManager{secretKey: []byte("testsecret")}

	claims := jwt.MapClaims{
		"user_id": 7,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, _ := token.SignedString([]byte("testsecret"))

	userID, role, err := tm.ParseToken(tokenStr)
	require.NoError(t, err)
	require.Equal(t, 7, userID)
	require.Empty(t, role)
}
