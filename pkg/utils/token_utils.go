package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Unsubscribe tokens are embedded in campaign mail footers so a
// recipient can opt out without logging in. They carry only the user id.

const unsubscribeTokenTTL = 90 * 24 * time.Hour

// UnsubscribeClaims is the JWT claims structure for mailing opt-out links.
type UnsubscribeClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// GenerateUnsubscribeToken signs an opt-out token for the given user.
func GenerateUnsubscribeToken(secret []byte, userID int64) (string, error) {
	claims := &UnsubscribeClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(unsubscribeTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "acroyoga-club-mailing",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign unsubscribe token: %w", err)
	}
	return signed, nil
}

// ValidateUnsubscribeToken parses and validates an opt-out token,
// returning the user id it was issued for.
func ValidateUnsubscribeToken(secret []byte, tokenString string) (int64, error) {
	claims := &UnsubscribeClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}
	return claims.UserID, nil
}
