package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/pkg/errors"
)

const AccessTokenType = "access_token"

// GenerateToken signs an HS256 access token for the user.
func GenerateToken(userID uint, email, role, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret key is missing")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"id":    userID,
		"email": email,
		"role":  role,
		"type":  AccessTokenType,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAndGetClaims parses token and returns its claims if the signature
// and expiry are valid.
func ValidateAndGetClaims(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parse token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims["type"] != AccessTokenType {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}

// UserIDFromClaims reads the numeric id claim.
func UserIDFromClaims(claims jwt.MapClaims) (uint, error) {
	switch v := claims["id"].(type) {
	case float64:
		return uint(v), nil
	default:
		return 0, errors.New("invalid userID format")
	}
}
