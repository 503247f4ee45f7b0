package client

import "time"

// Roles accepted by the server.
const (
	RoleStudent   = "STUDENT"
	RoleProfessor = "PROFESSOR"
	RoleAdmin     = "ADMIN"
)

// Problem statuses accepted by the server.
const (
	StatusPending    = "PENDING"
	StatusInProgress = "INPROGRESS"
	StatusResolved   = "RESOLVED"
)

// User is the public profile of an account.
type User struct {
	ID       string   `json:"id"`
	SID      string   `json:"sid"`
	Name     string   `json:"name"`
	Role     string   `json:"role"`
	Problems []string `json:"problems,omitempty"`
}

// Owner identifies the student who submitted a problem.
type Owner struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SID  string `json:"sid"`
}

// Problem is a grievance as returned by the API.
type Problem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Status      string    `json:"status"`
	Response    *string   `json:"response,omitempty"`
	CreatedBy   Owner     `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RegisterRequest creates an account. An empty Role registers a student.
type RegisterRequest struct {
	SID      string `json:"sid"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginResult is returned by Login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// CreateProblemRequest submits a grievance.
type CreateProblemRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

// RespondRequest records a professor's response. An empty Status means INPROGRESS.
type RespondRequest struct {
	Response string `json:"response"`
	Status   string `json:"status,omitempty"`
}

type changePasswordRequest struct {
	SID         string `json:"sid"`
	OldPassword string `json:"oldPassword"`
	Password    string `json:"password"`
}

type loginRequest struct {
	SID      string `json:"sid"`
	Password string `json:"password"`
}
