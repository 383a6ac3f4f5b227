// Package auth issues and validates the signed session tokens the barista
// terminal hands out after a successful PIN unlock, and verifies the PIN
// itself against its bcrypt hash.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoffee-app/hoffee/config"
)

// Claims holds the typed JWT payload for a staff session.
type Claims struct {
	Terminal string `json:"terminal"`
	jwt.RegisteredClaims
}

func secret() []byte {
	return []byte(config.JWTSecret())
}

// GenerateToken creates a signed staff session token for the named terminal.
// Sessions expire after a shift-length 12 hours.
func GenerateToken(terminal string) (string, error) {
	claims := Claims{
		Terminal: terminal,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
}

// ValidateToken parses and validates a staff session token.
func ValidateToken(t string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(t, &Claims{}, func(tok *jwt.Token) (interface{}, error) {
		return secret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

// HashPin returns a bcrypt hash of the plain-text terminal PIN.
// Used by the `hoffee pin` command to generate STAFF_PIN_HASH.
func HashPin(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPin compares the configured bcrypt hash against the candidate PIN.
func CheckPin(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
