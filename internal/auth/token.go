package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kbadu/datashop/internal/errs"
)

const RoleAdmin = "admin"

type TokenManager struct {
	secretKey []byte
}

func NewTokenManager(secretKey string) *TokenManager {
	return &TokenManager{[]byte(secretKey)}
}

func (tm *TokenManager) GenerateToken(userID int, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secretKey)
}

func (tm *TokenManager) ParseToken(tokenStr string) (int, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errs.ErrInvalidToken
		}
		return tm.secretKey, nil
	})

	if err != nil || !token.Valid {
		return 0, "", errs.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errs.ErrInvalidToken
	}

	idFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", errs.ErrInvalidToken
	}

	role, _ := claims["role"].(string)

	return int(idFloat), role, nil
}
