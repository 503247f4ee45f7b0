package access

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusdesk/internal/user/model"
	"campusdesk/internal/user/service"
	pkgerrors "campusdesk/pkg/errors"
	"campusdesk/pkg/utils/contextkey"

	"github.com/gin-gonic/gin"
)

type fakeAuthenticator struct {
	users map[string]*model.User
	err   error
	seen  string
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, raw string) (*model.User, *service.Claims, error) {
	f.seen = raw
	if f.err != nil {
		return nil, nil, f.err
	}
	user, ok := f.users[raw]
	if !ok {
		return nil, nil, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return user, &service.Claims{SID: user.SID, Role: user.Role}, nil
}

func newRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := func(c *gin.Context) {
		user := CurrentUser(c)
		claims := CurrentClaims(c)
		sid, _ := c.Request.Context().Value(contextkey.UserSID).(string)
		c.JSON(http.StatusOK, gin.H{"success": true, "sid": user.SID, "claims": claims.SID, "ctx_sid": sid})
	}
	r.GET("/any", Authenticate(auth), handler)
	r.GET("/professor", Authenticate(auth), RequireRole(model.RoleProfessor), handler)
	r.GET("/unguarded", RequireRole(model.RoleStudent), handler)
	return r
}

func do(r http.Handler, path string, setup func(*http.Request)) (int, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w.Code, body
}

func TestAuthenticate(t *testing.T) {
	auth := &fakeAuthenticator{users: map[string]*model.User{
		"student-token":   {ID: "u1", SID: "S1", Role: model.RoleStudent},
		"professor-token": {ID: "u2", SID: "P1", Role: model.RoleProfessor},
	}}
	r := newRouter(auth)

	tests := []struct {
		name   string
		path   string
		setup  func(*http.Request)
		status int
	}{
		{"no token", "/any", nil, http.StatusUnauthorized},
		{"bad token", "/any", func(r *http.Request) { r.Header.Set("Authorization", "Bearer junk") }, http.StatusUnauthorized},
		{"non bearer header", "/any", func(r *http.Request) { r.Header.Set("Authorization", "Basic student-token") }, http.StatusUnauthorized},
		{"cookie", "/any", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "student-token"}) }, http.StatusOK},
		{"bearer", "/any", func(r *http.Request) { r.Header.Set("Authorization", "bearer professor-token") }, http.StatusOK},
		{"student on professor route", "/professor", func(r *http.Request) { r.Header.Set("Authorization", "Bearer student-token") }, http.StatusForbidden},
		{"professor on professor route", "/professor", func(r *http.Request) { r.Header.Set("Authorization", "Bearer professor-token") }, http.StatusOK},
		{"role guard without identity", "/unguarded", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(r, tt.path, tt.setup)
			if status != tt.status {
				t.Fatalf("status = %d, want %d (body %v)", status, tt.status, body)
			}
			if status != http.StatusOK {
				if body["success"] != false {
					t.Fatalf("expected success=false, got %v", body)
				}
				if _, ok := body["message"].(string); !ok {
					t.Fatalf("expected message, got %v", body)
				}
			}
		})
	}
}

func TestAuthenticate_AttachesIdentity(t *testing.T) {
	auth := &fakeAuthenticator{users: map[string]*model.User{
		"t": {ID: "u1", SID: "S1", Role: model.RoleStudent},
	}}
	status, body := do(newRouter(auth), "/any", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieName, Value: "t"})
		r.Header.Set("Authorization", "Bearer ignored")
	})
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if auth.seen != "t" {
		t.Fatalf("cookie should win over header, saw %q", auth.seen)
	}
	if body["sid"] != "S1" || body["claims"] != "S1" || body["ctx_sid"] != "S1" {
		t.Fatalf("identity not attached: %v", body)
	}
}

func TestAuthenticate_StaleCookieFallsBackToHeader(t *testing.T) {
	auth := &fakeAuthenticator{users: map[string]*model.User{
		"fresh": {ID: "u1", SID: "S1", Role: model.RoleStudent},
	}}
	r := newRouter(auth)

	status, body := do(r, "/any", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieName, Value: "expired"})
		r.Header.Set("Authorization", "Bearer fresh")
	})
	if status != http.StatusOK || body["sid"] != "S1" {
		t.Fatalf("status = %d, body %v", status, body)
	}

	status, _ = do(r, "/any", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: CookieName, Value: "expired"})
		r.Header.Set("Authorization", "Bearer junk")
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestAuthenticate_StaleUserIsUnauthorized(t *testing.T) {
	auth := &fakeAuthenticator{err: pkgerrors.New(pkgerrors.UserNotFound)}
	status, _ := do(newRouter(auth), "/any", func(r *http.Request) { r.Header.Set("Authorization", "Bearer t") })
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"Bearer":       "",
		"Bearer  abc ": "abc",
		"BEARER abc":   "abc",
		"Token abc":    "",
	}
	for in, want := range cases {
		if got := extractBearerToken(in); got != want {
			t.Errorf("extractBearerToken(%q) = %q, want %q", in, got, want)
		}
	}
}
