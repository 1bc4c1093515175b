package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost mirrors the cost the platform has always used for
// password storage. Lower costs are accepted for tests.
const DefaultBcryptCost = 12

// HashPassword returns a salted bcrypt hash of the supplied password.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares the hashed password with the plaintext candidate.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
