package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"campusdesk/internal/testutil"
)

func TestLoginStoresTokenAndSendsBearer(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "User logged in successfully",
			"token":   "tok-" + req.SID,
			"user":    map[string]string{"id": "u1", "sid": req.SID, "role": RoleStudent},
		})
	})
	mux.HandleFunc("/api/v1/auth/check", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"user":    map[string]interface{}{"id": "u1", "sid": "S1", "role": RoleStudent, "problems": []string{"p1"}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	result, err := c.Login(context.Background(), "S1", "secret1")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, result.Token, "tok-S1")
	testutil.AssertEqual(t, c.Token(), "tok-S1")

	user, err := c.Check(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, gotAuth, "Bearer tok-S1")
	testutil.AssertDeepEqual(t, user.Problems, []string{"p1"})
}

func TestErrorEnvelopeBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success":false,"message":"User already exists"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Register(context.Background(), RegisterRequest{SID: "S1", Name: "A", Password: "secret1"})
	testutil.AssertTrue(t, err != nil, "expected error")
	testutil.AssertEqual(t, StatusCode(err), http.StatusConflict)
	testutil.AssertEqual(t, err.Error(), "http 409: User already exists")
}

func TestNonJSONErrorUsesStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, WithBasePath("api/v2/")).AllProblems(context.Background())
	testutil.AssertEqual(t, StatusCode(err), http.StatusBadGateway)
}

func TestEmptyProblemListIsNonNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"problems":null}`))
	}))
	defer srv.Close()

	problems, err := New(srv.URL, WithToken("t")).MyProblems(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, problems != nil, "expected non-nil slice")
	testutil.AssertEqual(t, len(problems), 0)
}

func TestStatusCodeOfPlainError(t *testing.T) {
	testutil.AssertEqual(t, StatusCode(context.Canceled), 0)
}
