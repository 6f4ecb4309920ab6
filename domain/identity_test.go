package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProfile(t *testing.T) {
	assert.Empty(t, ValidateProfile("Alice", "alice@example.com"))

	problems := ValidateProfile("A", "not-an-email")
	assert.Len(t, problems, 2)

	assert.Contains(t, ValidateProfile("Alice", "  "), "email is required")
	assert.Len(t, ValidateProfile(strings.Repeat("n", MaxNameLength+1), "a@b.co"), 1)
}

func TestValidatePassword(t *testing.T) {
	assert.Empty(t, ValidatePassword("secret"))
	assert.Len(t, ValidatePassword("12345"), 1)
	assert.Len(t, ValidatePassword(strings.Repeat("p", MaxPasswordLength+1)), 1)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}
