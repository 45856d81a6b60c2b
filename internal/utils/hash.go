package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var ErrPasswordTooShort = errors.New("password must be at least 6 characters")

// HashPassword returns a bcrypt hash of the provided password.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a bcrypt hashed password with its possible plaintext equivalent.
func CheckPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
