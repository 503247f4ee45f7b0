package service

import (
	"testing"
	"time"

	"campusdesk/internal/user/model"
	pkgerrors "campusdesk/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestTokenManager_IssueVerify(t *testing.T) {
	m := NewTokenManager(testSecret, "", 0)
	raw, issued, err := m.Issue("S1", model.RoleStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if m.TTL() != 7*24*time.Hour {
		t.Fatalf("default ttl = %v", m.TTL())
	}

	claims, err := m.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.SID != "S1" || claims.Role != model.RoleStudent {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID == "" || claims.ID != issued.ID {
		t.Fatalf("jti mismatch: %q vs %q", claims.ID, issued.ID)
	}
	if got := claims.ExpiresAtTime().Sub(claims.IssuedAtTime()); got != 7*24*time.Hour {
		t.Fatalf("validity window = %v", got)
	}
}

func TestTokenManager_VerifyFailures(t *testing.T) {
	m := NewTokenManager(testSecret, "campusdesk", time.Hour)
	raw, _, err := m.Issue("S1", model.RoleProfessor)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewTokenManager([]byte("another-secret-another-secret-xx"), "campusdesk", time.Hour)
	otherRaw, _, _ := other.Issue("S1", model.RoleProfessor)

	wrongIssuer := NewTokenManager(testSecret, "someone-else", time.Hour)
	wrongIssuerRaw, _, _ := wrongIssuer.Issue("S1", model.RoleProfessor)

	noneToken := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SID: "S1", Role: model.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "campusdesk"}})
	noneRaw, _ := noneToken.SignedString(jwt.UnsafeAllowNoneSignatureType)

	badRole := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{SID: "S1", Role: "JANITOR",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "campusdesk"}})
	badRoleRaw, _ := badRole.SignedString(testSecret)

	tests := []struct {
		name string
		raw  string
		code pkgerrors.ErrorCode
	}{
		{"empty", "", pkgerrors.TokenMissing},
		{"garbage", "not-a-jwt", pkgerrors.TokenInvalid},
		{"tampered", raw[:len(raw)-2] + "xx", pkgerrors.TokenInvalid},
		{"wrong secret", otherRaw, pkgerrors.TokenInvalid},
		{"wrong issuer", wrongIssuerRaw, pkgerrors.TokenInvalid},
		{"alg none", noneRaw, pkgerrors.TokenInvalid},
		{"unknown role", badRoleRaw, pkgerrors.TokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.raw)
			if got := pkgerrors.GetCode(err); got != tt.code {
				t.Fatalf("code = %v, want %v (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager(testSecret, "", time.Hour)
	start := time.Now()
	m.now = func() time.Time { return start }
	raw, _, err := m.Issue("S1", model.RoleStudent)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = m.Verify(raw)
	if !pkgerrors.Is(err, pkgerrors.TokenExpired) {
		t.Fatalf("expected TokenExpired, got %v", err)
	}
}

func TestTokenManager_NoSecret(t *testing.T) {
	m := NewTokenManager(nil, "", 0)
	_, _, err := m.Issue("S1", model.RoleStudent)
	if !pkgerrors.Is(err, pkgerrors.TokenGenerationFailed) {
		t.Fatalf("expected TokenGenerationFailed, got %v", err)
	}
	if _, err := m.Verify("a.b.c"); !pkgerrors.Is(err, pkgerrors.TokenInvalid) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}
