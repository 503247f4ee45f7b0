package model

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a problem. Any status may follow any other.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "INPROGRESS"
	StatusResolved   Status = "RESOLVED"
)

// ParseStatus accepts a status name in any case; "IN_PROGRESS" is read as INPROGRESS.
func ParseStatus(raw string) (Status, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", "")
	switch Status(normalized) {
	case StatusPending:
		return StatusPending, true
	case StatusInProgress:
		return StatusInProgress, true
	case StatusResolved:
		return StatusResolved, true
	default:
		return "", false
	}
}

// Problem is a grievance submitted by a student.
type Problem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Status      Status    `json:"status"`
	Response    *string   `json:"response,omitempty"`
	CreatedBy   string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Owner is the identity of the student who created a problem.
type Owner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SID  string `json:"sid"`
}

// ProblemView is a problem with its owner resolved.
type ProblemView struct {
	Problem
	Owner Owner `json:"createdBy"`
}

// Patch lists the fields a professor may change. Nil fields are left alone.
type Patch struct {
	Response *string
	Status   *Status
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Response == nil && p.Status == nil
}

// NormalizeTags trims tags, drops blanks and repeats, and keeps the first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
