package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sylvester-francis/atcc-interview-test/internal/apperr"
)

const resetPurpose = "password_reset"

// ResetToken is a signed, single use password reset token. Only a hash of
// ID is stored server side so a leaked table cannot be replayed.
type ResetToken struct {
	Token string
	ID    string
	Exp   time.Time
}

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// NewResetToken signs an HS256 token for userID that expires after ttl.
func NewResetToken(secret, userID string, ttl time.Duration) (ResetToken, error) {
	id, err := RandomHex(16)
	if err != nil {
		return ResetToken{}, err
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := resetClaims{
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return ResetToken{}, err
	}
	return ResetToken{Token: signed, ID: id, Exp: exp}, nil
}

// ParseResetToken verifies token and returns its subject and id. Expired
// tokens yield apperr.ErrTokenExpired, anything else wrong yields
// apperr.ErrInvalidToken.
func ParseResetToken(secret, token string) (userID, id string, err error) {
	var claims resetClaims
	_, err = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", "", apperr.ErrTokenExpired
	case err != nil:
		return "", "", apperr.Wrapf(apperr.ErrInvalidToken, "%v", err)
	case claims.Purpose != resetPurpose || claims.Subject == "" || claims.ID == "":
		return "", "", apperr.ErrInvalidToken
	}
	return claims.Subject, claims.ID, nil
}

// HashTokenID returns the SHA-256 of a token id as hex, the form kept in
// the database.
func HashTokenID(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}
