package tests

import (
	"net/http"
	"testing"

	echoapi "github.com/shuleni/mahudhurio/apps/api/echo"
	"github.com/shuleni/mahudhurio/core/user"
	testutil "github.com/shuleni/mahudhurio/tests"
)

func TestUserAPI_login(t *testing.T) {
	sch := testutil.CreateSchool(t, schRepo, "Login School")
	usr := testutil.CreateUser(t, usrRepo,
		"Login User", "login.user", "login@test.cd", "hakuna-matata", sch.ID, []string{user.RoleTeacher}, true)
	inactive := testutil.CreateUser(t, usrRepo,
		"Gone User", "gone.user", "", "hakuna-matata", sch.ID, []string{user.RoleTeacher}, false)

	tests := []struct {
		name     string
		body     echoapi.LoginRequest
		wantCode int
	}{
		{name: "by username", body: echoapi.LoginRequest{Username: usr.Username, Password: "hakuna-matata"}, wantCode: http.StatusOK},
		{name: "by email", body: echoapi.LoginRequest{Username: usr.Email, Password: "hakuna-matata"}, wantCode: http.StatusOK},
		{name: "wrong password", body: echoapi.LoginRequest{Username: usr.Username, Password: "nope"}, wantCode: http.StatusBadRequest},
		{name: "unknown user", body: echoapi.LoginRequest{Username: "who", Password: "hakuna-matata"}, wantCode: http.StatusBadRequest},
		{name: "deactivated account", body: echoapi.LoginRequest{Username: inactive.Username, Password: "hakuna-matata"}, wantCode: http.StatusForbidden},
		{name: "missing fields", body: echoapi.LoginRequest{}, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", marshallObj(t, tt.body))
			app.ServeHTTP(rec, req)
			checkCode(t, rec, tt.wantCode)

			if tt.wantCode == http.StatusOK {
				var res echoapi.LoginResponse
				decodeBody(t, rec, &res)
				if res.Token == "" {
					t.Error("token is empty")
				}
			}
		})
	}
}

func TestUserAPI_tokenRefresh(t *testing.T) {
	sch := testutil.CreateSchool(t, schRepo, "Refresh School")
	usr := testutil.CreateUser(t, usrRepo,
		"Refresh User", "refresh.user", "", "hakuna-matata", sch.ID, []string{user.RoleTeacher}, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusOK)

	var res echoapi.LoginResponse
	decodeBody(t, rec, &res)
	if res.Token == "" {
		t.Error("token is empty")
	}

	// no token, no refresh
	req, rec = newRequest(http.MethodPost, "/v1/users/token-refresh")
	app.ServeHTTP(rec, req)
	checkCode(t, rec, http.StatusUnauthorized)
}
