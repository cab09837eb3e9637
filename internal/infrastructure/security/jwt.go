// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// SessionClaims carries the identity embedded in a session token.
type SessionClaims struct {
	UserID   string
	UserName string
}

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// SessionFromClaims extracts the session identity from JWT claims.
func SessionFromClaims(claims jwt.MapClaims) (*SessionClaims, error) {
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return nil, errors.New("missing subject claim")
	}
	userName, _ := claims["name"].(string)
	return &SessionClaims{UserID: userID, UserName: userName}, nil
}

// GenerateSessionToken creates a signed JWT for a user session.
func GenerateSessionToken(userID, userName, jwtSecret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"name": userName,
		"iat":  time.Now().UTC().Unix(),
		"exp":  time.Now().UTC().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// CheckOpsPassword compares a plaintext ops password against the configured bcrypt hash.
func CheckOpsPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// HashOpsPassword generates a bcrypt hash for an ops password.
func HashOpsPassword(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
