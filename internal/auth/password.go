package auth

import "golang.org/x/crypto/bcrypt"

// HashCost is the bcrypt cost used for new hashes.
const HashCost = 12

// HashPassword returns a bcrypt hash suitable for the roster's hash field.
func HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrPasswordRequired
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), HashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares plaintext against a stored hash.
func CheckPassword(hash, plaintext string) error {
	if hash == "" {
		return ErrMissingHash
	}
	// A stored value that is not a bcrypt hash fails the same way as a
	// mismatch.
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}
