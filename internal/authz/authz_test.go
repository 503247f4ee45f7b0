package authz

import (
	"net/http"
	"testing"

	"campusdesk/internal/user/model"
	pkgerrors "campusdesk/pkg/errors"
)

func TestRequireRole(t *testing.T) {
	student := &model.User{ID: "u1", Role: model.RoleStudent}
	professor := &model.User{ID: "u2", Role: model.RoleProfessor}

	tests := []struct {
		name       string
		actor      *model.User
		roles      []model.Role
		wantStatus int
		wantMsg    string
	}{
		{"student allowed", student, []model.Role{model.RoleStudent}, http.StatusOK, ""},
		{"student rejected by professor guard", student, []model.Role{model.RoleProfessor}, http.StatusForbidden, "Access denied: Professors only."},
		{"professor rejected by student guard", professor, []model.Role{model.RoleStudent}, http.StatusForbidden, "Access denied: Students only."},
		{"any of several", professor, []model.Role{model.RoleStudent, model.RoleProfessor}, http.StatusOK, ""},
		{"missing actor", nil, []model.Role{model.RoleStudent}, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireRole(tt.actor, tt.roles...)
			if got := pkgerrors.GetCode(err).HTTPStatus(); got != tt.wantStatus {
				t.Fatalf("status = %d, want %d (err %v)", got, tt.wantStatus, err)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Fatalf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	student := &model.User{ID: "u1", Role: model.RoleStudent}

	if !IsStudent(student) || IsProfessor(student) {
		t.Fatal("student predicates wrong")
	}
	if IsStudent(nil) || IsProfessor(nil) {
		t.Fatal("nil actor must not match any role")
	}
	if !IsOwner(student, "u1") || IsOwner(student, "u2") || IsOwner(student, "") {
		t.Fatal("owner predicate wrong")
	}
}
