package usecase

import (
	"time"

	"github.com/fastygo/taskboard/domain"
)

// Clock is injected wherever "now" or "today" matters so tests can pin time.
type Clock interface {
	Now() time.Time
	Today() domain.Date
}

// PasswordHasher turns plaintext into an opaque digest and checks guesses
// against it. Implementations never log or return the plaintext.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// SystemClock reads the wall clock. Today is evaluated in Location (UTC when nil).
type SystemClock struct {
	Location *time.Location
}

func (c SystemClock) Now() time.Time {
	return time.Now().UTC()
}

func (c SystemClock) Today() domain.Date {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return domain.DateOf(time.Now().In(loc))
}

// ClockFunc adapts a function to Clock; Today is the UTC day of its result.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

func (f ClockFunc) Today() domain.Date {
	return domain.DateOf(f().UTC())
}
