package util

import (
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is fixed; changing it only affects newly stored hashes, existing
// ones keep verifying at the cost they were written with.
const bcryptCost = 8

// HashPassword turns a plaintext password into a bcrypt hash.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword verifies a plaintext password against a bcrypt hash.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
