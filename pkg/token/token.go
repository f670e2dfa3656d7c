// Package token issues and validates unlock tokens for password-protected
// notes. A token proves that the holder verified the note's password earlier
// in the session; it carries the note id and nothing else.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	NoteID string `json:"note_id"`
	jwt.RegisteredClaims
}

// Generate signs an unlock token for noteID valid for ttl.
func Generate(noteID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &Claims{
		NoteID: noteID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   noteID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign unlock token: %w", err)
	}

	return signed, nil
}

// Validate parses tokenString and returns its claims if the signature and
// expiry check out.
func Validate(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid unlock token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid unlock token claims")
	}

	return claims, nil
}

// Unlocks reports whether tokenString is a valid unlock token for noteID.
func Unlocks(tokenString, noteID, secret string) bool {
	if tokenString == "" {
		return false
	}

	claims, err := Validate(tokenString, secret)
	if err != nil {
		return false
	}

	return claims.NoteID == noteID
}
