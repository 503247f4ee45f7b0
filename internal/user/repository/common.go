package repository

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateSid  = errors.New("sid already exists")
	ErrAlreadyLinked = errors.New("problem already linked to user")
)

// toMicros stores timestamps as unix microseconds in UTC.
func toMicros(t time.Time) int64 {
	return t.UTC().UnixMicro()
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}
