// Package csrf issues and verifies double-submit tokens. A per-session
// secret stays on the server; every token handed to the client is a fresh
// salt plus a MAC of that salt under the secret, so any number of tokens
// validate against one secret and none survive a secret rotation.
package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

const (
	secretBytes = 18
	saltLength  = 8
	saltChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var ErrMalformed = errors.New("csrf: malformed token")

// NewSecret returns a random url-safe secret.
func NewSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Token derives a new token from secret. Two calls never return the same
// token.
func Token(secret string) (string, error) {
	salt, err := randomSalt()
	if err != nil {
		return "", err
	}
	return salt + "-" + sign(secret, salt), nil
}

// Verify reports whether token was derived from secret.
func Verify(secret, token string) bool {
	if secret == "" {
		return false
	}
	salt, mac, err := split(token)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(mac), []byte(sign(secret, salt)))
}

func split(token string) (salt, mac string, err error) {
	i := strings.IndexByte(token, '-')
	if i != saltLength || len(token) == i+1 {
		return "", "", ErrMalformed
	}
	return token[:i], token[i+1:], nil
}

func sign(secret, salt string) string {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write([]byte(salt))
	return base64.RawURLEncoding.EncodeToString(m.Sum(nil))
}

func randomSalt() (string, error) {
	b := make([]byte, saltLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = saltChars[int(b[i])%len(saltChars)]
	}
	return string(b), nil
}
