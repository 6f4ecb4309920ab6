package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinNameLength     = 2
	MaxNameLength     = 100
	MinPasswordLength = 6
	// bcrypt ignores anything past 72 bytes.
	MaxPasswordLength = 72
)

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// ValidateProfile checks a display name and email address.
func ValidateProfile(name, email string) []string {
	var problems []string
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < MinNameLength || n > MaxNameLength {
		problems = append(problems, fmt.Sprintf("name must be between %d and %d characters", MinNameLength, MaxNameLength))
	}
	email = strings.TrimSpace(email)
	if email == "" {
		problems = append(problems, "email is required")
	} else if !emailRegexp.MatchString(email) {
		problems = append(problems, "email must be a valid address")
	}
	return problems
}

// ValidatePassword enforces the password strength rule.
func ValidatePassword(password string) []string {
	var problems []string
	if utf8.RuneCountInString(password) < MinPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength))
	}
	return problems
}
