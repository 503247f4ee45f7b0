package model

import (
	"strings"
	"time"
)

// Role is the closed set of account roles. A role never changes after registration.
type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleProfessor Role = "PROFESSOR"
	RoleAdmin     Role = "ADMIN"
)

// ParseRole accepts a role name in any case. An empty name means STUDENT.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", RoleStudent:
		return RoleStudent, true
	case RoleProfessor:
		return RoleProfessor, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleProfessor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// User is a stored account.
type User struct {
	ID           string    `json:"id"`
	SID          string    `json:"sid"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public view of a user returned by the API.
type Profile struct {
	ID       string   `json:"id"`
	SID      string   `json:"sid"`
	Name     string   `json:"name"`
	Role     Role     `json:"role"`
	Problems []string `json:"problems,omitempty"`
}

// Profile returns the public view of u.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, SID: u.SID, Name: u.Name, Role: u.Role}
}
