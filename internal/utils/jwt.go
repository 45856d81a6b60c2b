package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type jwtCustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenClaims is the identity carried by an access token.
type TokenClaims struct {
	UserID uuid.UUID
	Role   string
}

// GenerateToken creates a signed HS256 JWT for the user and role.
func GenerateToken(secret string, userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &jwtCustomClaims{
		UserID: userID.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the embedded identity.
func ParseToken(secret, tokenString string) (TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return TokenClaims{}, err
	}

	claims, ok := token.Claims.(*jwtCustomClaims)
	if !ok || !token.Valid {
		return TokenClaims{}, jwt.ErrTokenInvalidClaims
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return TokenClaims{}, jwt.ErrTokenInvalidClaims
	}
	return TokenClaims{UserID: id, Role: claims.Role}, nil
}
