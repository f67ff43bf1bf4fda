package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/cloo-solutions/finder/internal/domain"
)

const apiTokenPrefix = "fnd_"

// TokenAuthenticator resolves static admin bearer tokens to user ids. Only
// token hashes are kept in memory.
type TokenAuthenticator struct {
	users map[string]int64
}

// NewTokenAuthenticator indexes tokens (token -> user id) by hash. Malformed
// tokens are rejected up front.
func NewTokenAuthenticator(tokens map[string]int64) (*TokenAuthenticator, error) {
	users := make(map[string]int64, len(tokens))
	for token, userID := range tokens {
		if !IsValidAPIToken(token) {
			return nil, domain.NewDomainError(domain.ErrCodeValidation, "admin token must look like "+apiTokenPrefix+"<64 hex chars>")
		}
		users[hashToken(token)] = userID
	}
	return &TokenAuthenticator{users: users}, nil
}

// ValidateToken returns the user id bound to token.
func (a *TokenAuthenticator) ValidateToken(ctx context.Context, token string) (int64, error) {
	if !IsValidAPIToken(token) {
		return 0, domain.ErrInvalidToken
	}

	hash := hashToken(token)
	var (
		userID int64
		found  bool
	)
	for known, id := range a.users {
		if subtle.ConstantTimeCompare([]byte(known), []byte(hash)) == 1 {
			userID, found = id, true
		}
	}
	if !found {
		return 0, domain.ErrInvalidToken
	}
	return userID, nil
}

// Len reports how many tokens are configured.
func (a *TokenAuthenticator) Len() int {
	return len(a.users)
}

// GenerateAPIToken returns a fresh random admin token.
func GenerateAPIToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return apiTokenPrefix + hex.EncodeToString(bytes), nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

func IsValidAPIToken(token string) bool {
	if !strings.HasPrefix(token, apiTokenPrefix) {
		return false
	}
	hexPart := token[len(apiTokenPrefix):]
	if len(hexPart) != 64 {
		return false
	}
	for _, c := range hexPart {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
