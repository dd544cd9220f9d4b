package memberauth

import (
	"unicode"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted password length
var MinPasswordLength = 8

// HashPassword will generate a password hash. Weak passwords are rejected
// before hashing, never silently accepted.
func HashPassword(password string) (string, error) {
	if err := CheckPasswordStrength(password); err != nil {
		return "", err
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to hash password")
	}
	return string(h), nil
}

// ComparePasswordAndHash will validate the given cleartext password matches
// the hashed password. The comparison is constant time.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to compare password hash")
	}
	return nil
}

// CheckPasswordStrength enforces minimum length and character class
// diversity: upper, lower, digit. The returned error carries a
// reason-specific metadata entry so forms can highlight the failing rule.
func CheckPasswordStrength(password string) error {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	switch {
	case !hasUpper:
		return weakPasswordError("password needs an uppercase letter", "missing_class", "upper")
	case !hasLower:
		return weakPasswordError("password needs a lowercase letter", "missing_class", "lower")
	case !hasDigit:
		return weakPasswordError("password needs a digit", "missing_class", "digit")
	}

	if len(password) < MinPasswordLength {
		return weakPasswordError("password is too short", "min_length", MinPasswordLength)
	}

	return nil
}

func weakPasswordError(message, key string, val any) error {
	return errors.New(message, errors.CategoryValidation).
		WithCode(errors.CodeBadRequest).
		WithTextCode(TextCodeWeakPassword).
		WithMetadata(map[string]any{key: val})
}
