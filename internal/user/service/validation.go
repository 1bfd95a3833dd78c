package service

import (
	"regexp"
	"unicode"

	pkgerrors "sqlquest/pkg/errors"
)

var (
	loginPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateLogin checks login format: 3-32 word characters.
func ValidateLogin(login string) error {
	if !loginPattern.MatchString(login) {
		return pkgerrors.New(pkgerrors.InvalidLogin)
	}
	return nil
}

// ValidateEmail checks basic email shape.
func ValidateEmail(email string) error {
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return pkgerrors.New(pkgerrors.InvalidEmail)
	}
	return nil
}

// ValidatePassword requires at least 8 characters with a letter and a digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return pkgerrors.New(pkgerrors.PasswordTooWeak)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return pkgerrors.New(pkgerrors.PasswordTooWeak)
	}
	return nil
}
