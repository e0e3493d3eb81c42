package utils

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(s string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
}

func ComparePassword(hashed string, normal string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(normal))
}

func IsPasswordHash(stored string) bool {
	return strings.HasPrefix(stored, "$2")
}

// CheckPassword accepts a bcrypt hash or a legacy plain-text credential.
func CheckPassword(stored string, given string) bool {
	if IsPasswordHash(stored) {
		return ComparePassword(stored, given) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}
