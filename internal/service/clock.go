package service

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current time. Tests replace it with a fixed value.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
