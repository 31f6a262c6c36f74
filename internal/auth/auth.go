package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
)

func HashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether tok hashes to hash.
func Matches(tok, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashToken(tok)), []byte(hash)) == 1
}

// Bearer extracts the token from an "Authorization: Bearer <token>" header.
func Bearer(r *http.Request) (string, bool) {
	got := r.Header.Get("Authorization")
	tok, ok := strings.CutPrefix(got, "Bearer ")
	if !ok || tok == "" {
		return "", false
	}
	return tok, true
}
