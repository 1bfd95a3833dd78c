package service

import (
	"strings"
	"testing"

	pkgerrors "sqlquest/pkg/errors"
)

func TestValidateLogin(t *testing.T) {
	cases := []struct {
		login string
		ok    bool
	}{
		{"alice", true},
		{"al", false},
		{"a_very_long_but_still_valid_name", true},
		{strings.Repeat("a", 33), false},
		{"with space", false},
		{"dash-name", false},
		{"Cyrillic_ок", false},
		{"under_score_9", true},
		{"", false},
	}
	for _, tc := range cases {
		err := ValidateLogin(tc.login)
		if tc.ok && err != nil {
			t.Fatalf("ValidateLogin(%q) = %v, want nil", tc.login, err)
		}
		if !tc.ok {
			if !pkgerrors.Is(err, pkgerrors.InvalidLogin) {
				t.Fatalf("ValidateLogin(%q) = %v, want invalid login", tc.login, err)
			}
		}
	}
}

func TestValidateEmail(t *testing.T) {
	cases := []struct {
		email string
		ok    bool
	}{
		{"alice@example.com", true},
		{"a@b.co", true},
		{"no-at-sign", false},
		{"two@@example.com", false},
		{"missing@tld", false},
		{"spaces in@example.com", false},
		{"", false},
	}
	for _, tc := range cases {
		err := ValidateEmail(tc.email)
		if tc.ok && err != nil {
			t.Fatalf("ValidateEmail(%q) = %v, want nil", tc.email, err)
		}
		if !tc.ok && !pkgerrors.Is(err, pkgerrors.InvalidEmail) {
			t.Fatalf("ValidateEmail(%q) = %v, want invalid email", tc.email, err)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Passw0rd", true},
		{"longenough1", true},
		{"short1", false},
		{"lettersonly", false},
		{"12345678", false},
		{"", false},
	}
	for _, tc := range cases {
		err := ValidatePassword(tc.password)
		if tc.ok && err != nil {
			t.Fatalf("ValidatePassword(%q) = %v, want nil", tc.password, err)
		}
		if !tc.ok && !pkgerrors.Is(err, pkgerrors.PasswordTooWeak) {
			t.Fatalf("ValidatePassword(%q) = %v, want weak password", tc.password, err)
		}
	}
}
