package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	pkgerrors "campusdesk/pkg/errors"
)

// Sid: 1-32 chars of letters, numbers, dot, underscore, hyphen.
var sidPattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,32}$`)

const (
	minPasswordLen = 6
	maxPasswordLen = 72 // bcrypt ignores anything longer
	maxNameLen     = 100
)

func validateSid(sid string) error {
	if sid == "" {
		return pkgerrors.ValidationError("sid", "is required")
	}
	if !sidPattern.MatchString(sid) {
		return pkgerrors.New(pkgerrors.InvalidSid)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return pkgerrors.ValidationError("name", "is required")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return pkgerrors.New(pkgerrors.InvalidName).WithMessage("Name is too long")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return pkgerrors.ValidationError("password", "is required")
	}
	if len(password) < minPasswordLen {
		return pkgerrors.New(pkgerrors.InvalidPassword).WithMessage("Password must be at least 6 characters")
	}
	if len(password) > maxPasswordLen {
		return pkgerrors.New(pkgerrors.InvalidPassword).WithMessage("Password is too long")
	}
	return nil
}

func normalizeSid(sid string) string {
	return strings.TrimSpace(sid)
}
