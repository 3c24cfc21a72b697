package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	echoapi "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/user"
	emailsvc "github.com/darasahq/darasa/services/email"
	testutil "github.com/darasahq/darasa/tests"
)

func Test_userApi_userQuery(t *testing.T) {
	app := setup(t)

	path := func(search string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			v.Add("is_active", strconv.FormatBool(*isActive))
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		return "/api/users?" + v.Encode()
	}
	bPtr := func(b bool) *bool { return &b }

	now := time.Now()
	t1 := now.Add(1 * time.Hour)
	t2 := now.Add(2 * time.Hour)
	t3 := now.Add(3 * time.Hour)

	usr1 := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "", nil, true, t1)
	usr2 := testutil.CreateUser(t, usrRepo, "King", "user02", "king@test.cd", "", nil, true)
	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "user3@test.cd", "", []string{user.RoleMember}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true, t2)
	owner := testutil.CreateUser(t, usrRepo, "Owner", "owner1", "owner@test.cd", "", []string{user.RoleAdminOwner}, true)
	tester := testutil.CreateUser(t, usrRepo, "Tester", "tester", "tester@test.cd", "", []string{user.RoleBeta, user.RoleMember}, true, t3)
	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleMember}, false) // 😂

	adminToken := getToken(t, admin)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/api/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/api/users", token: getToken(t, member), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", path: "/api/users", token: adminToken,
			wantData: marchallList(t, usr1, usr2, member, admin, owner, tester, naughty),
		},
		// filtering
		{name: "search (unknown)", path: path("lol", nil), token: adminToken, wantData: empty},
		{
			name: "search=USE", path: path("USE", nil),
			token: adminToken, wantData: marchallList(t, usr1, member, usr2),
		},
		{name: "role (unknown)", path: path("", nil, "lol"), token: adminToken, wantData: empty},
		{
			name: "role=admin:", path: path("", nil, user.RoleAdmin),
			token: adminToken, wantData: marchallList(t, admin, owner),
		},
		{
			name: "role=beta:", path: path("", nil, user.RoleBeta),
			token: adminToken, wantData: marchallList(t, tester),
		},
		{
			name: "role=beta:,member:", path: path("", nil, user.RoleBeta, user.RoleMember),
			token: adminToken, wantData: marchallList(t, tester, member, naughty),
		},
		{
			name: "is_active=true", path: path("", bPtr(true)),
			token: adminToken, wantData: marchallList(t, usr1, usr2, member, admin, owner, tester),
		},
		{name: "is_active=false", path: path("", bPtr(false)), token: adminToken, wantData: marchallList(t, naughty)},
		{name: "search & role combo (empty)", path: path("USE", nil, user.RoleAdminOwner), token: adminToken, wantData: empty},
		{
			name: "search & role combo (found)", path: path("tester", bPtr(true), user.RoleBeta),
			token: adminToken, wantData: marchallList(t, tester),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// the created_at window filter is applied by the repository
	t.Run("created_from - created_to", func(t *testing.T) {
		got, err := usrRepo.QueryUsers(context.Background(), &user.QueryFilter{CreatedFrom: t1.UTC(), CreatedTo: t2.UTC()}, nil)
		if err != nil {
			t.Fatalf("QueryUsers(): %v", err)
		}
		if len(got) != 2 || got[0].ID != usr1.ID || got[1].ID != admin.ID {
			t.Errorf("QueryUsers() = %v; want [%s %s]", got, usr1.ID, admin.ID)
		}
		if got, err = usrRepo.QueryUsers(context.Background(), &user.QueryFilter{CreatedFrom: t3.Add(time.Hour).UTC()}, nil); err != nil || len(got) != 0 {
			t.Errorf("QueryUsers() = %v, err %v; want empty", got, err)
		}
	})
}

func Test_userApi_userCreate(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleMember}, true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, member), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "roles beyond own max role", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Boss", Username: "bigboss", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
				Roles: []string{user.RoleAdminOwner},
			}),
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{
			name: "invalid roles", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Boss", Username: "bigboss", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
				Roles: []string{"boss:"},
			}),
			wantData: marchallObj(t, map[string]string{"roles": "invalid roles"}),
		},
		{
			name: "duplicate username", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Hero Again", Username: "hero", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
			}),
			wantData: marchallObj(t, map[string]string{"username": "a user with this username already exists"}),
		},
		{
			name: "duplicate email", token: adminToken, wantCode: http.StatusBadRequest,
			body: marchallObj(t, user.NewUser{
				Name: "Hero Again", Username: "somehero", Email: "hero@test.cd", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
			}),
			wantData: marchallObj(t, map[string]string{"email": "a user with this email already exists"}),
		},
		{
			name: "user created", token: adminToken, wantCode: http.StatusCreated,
			body: marchallObj(t, user.NewUser{
				Name: "New Kid", Username: "newkid", Email: "kid@test.cd", Password: "LolC@t123", PasswordConfirm: "LolC@t123",
				Roles: []string{user.RoleMember}, PaymentStatus: user.PaymentStatusPaid,
			}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users/register"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.ID == "" {
					t.Error("failed! empty ID")
				}
				if respData.Username != "newkid" || respData.PaymentStatus != user.PaymentStatusPaid || !respData.Active() {
					t.Errorf("failed! unexpected user %+v", respData)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userLogin(t *testing.T) {
	app := setup(t)

	_ = testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "LolC@t123", []string{user.RoleMember}, true)
	_ = testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "LolC@t123", []string{user.RoleMember}, false)

	login := func(uname, pwd string) []byte {
		return marchallObj(t, echoapi.LoginRequest{Username: uname, Password: pwd})
	}
	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{name: "unknown user", body: login("lol", "lol"), wantCode: http.StatusBadRequest, wantData: authFailed},
		{name: "wrong password", body: login("hero", "lol"), wantCode: http.StatusBadRequest, wantData: authFailed},
		{
			name: "inactive user", body: login("ndog", "LolC@t123"), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "login with username", body: login("hero", "LolC@t123"), wantCode: http.StatusOK},
		{name: "login with email", body: login("hero@test.cd", "LolC@t123"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users/login"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess the token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userRetrieve(t *testing.T) {
	app := setup(t)

	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleMember}, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleMember}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	tests := []httpTest{
		{name: "Auth required", path: "/api/users/" + member.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Get self", path: "/api/users/" + member.ID, token: getToken(t, member), wantCode: http.StatusOK, wantData: marchallObj(t, member)},
		{
			name: "Get other (non-admin)", path: "/api/users/" + other.ID, token: getToken(t, member), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "Get other (admin)", path: "/api/users/" + other.ID, token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, other)},
		{
			name: "Unknown ID (admin)", path: "/api/users/lol", token: getToken(t, admin), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userUpdate(t *testing.T) {
	app := setup(t)

	sPtr := func(s string) *string { return &s }
	bPtr := func(b bool) *bool { return &b }

	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleMember}, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleMember}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	type extraTest struct {
		check func(t *testing.T, respData user.User)
	}
	tests := []httpTest{
		{name: "Auth required", path: "/api/users/" + member.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Update other (non-admin)", path: "/api/users/" + other.ID, token: getToken(t, member),
			body: marchallObj(t, user.UpdateUser{Name: "Hax"}), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Non-admin cannot set roles", path: "/api/users/" + member.ID, token: getToken(t, member),
			body: marchallObj(t, user.UpdateUser{Roles: []string{user.RoleAdmin}}), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "Non-admin cannot set is_active", path: "/api/users/" + member.ID, token: getToken(t, member),
			body: marchallObj(t, user.UpdateUser{IsActive: bPtr(false)}), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "Non-admin cannot set payment_status", path: "/api/users/" + member.ID, token: getToken(t, member),
			body: marchallObj(t, user.UpdateUser{PaymentStatus: sPtr(user.PaymentStatusPaid)}), wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "Update own name", path: "/api/users/" + member.ID, token: getToken(t, member),
			body: marchallObj(t, user.UpdateUser{Name: "Captain Hero"}), wantCode: http.StatusOK,
			extra: extraTest{check: func(t *testing.T, respData user.User) {
				if respData.Name != "Captain Hero" {
					t.Errorf("failed! name = %s; want Captain Hero", respData.Name)
				}
			}},
		},
		{
			name: "Admin grants paid access", path: "/api/users/" + other.ID, token: getToken(t, admin),
			body: marchallObj(t, user.UpdateUser{PaymentStatus: sPtr(user.PaymentStatusPaid)}), wantCode: http.StatusOK,
			extra: extraTest{check: func(t *testing.T, respData user.User) {
				if !respData.HasPaidAccess() {
					t.Errorf("failed! payment_status = %s; want %s", respData.PaymentStatus, user.PaymentStatusPaid)
				}
			}},
		},
		{
			name: "Admin grants beta role", path: "/api/users/" + other.ID, token: getToken(t, admin),
			body: marchallObj(t, user.UpdateUser{Roles: []string{user.RoleMember, user.RoleBeta}}), wantCode: http.StatusOK,
			extra: extraTest{check: func(t *testing.T, respData user.User) {
				if !respData.IsBeta() {
					t.Errorf("failed! roles = %v; want beta", respData.Roles)
				}
			}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if extra, ok := tt.extra.(extraTest); ok {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				extra.check(t, respData)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userDestroy(t *testing.T) {
	app := setup(t)

	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleMember}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", path: "/api/users/" + member.ID, wantCode: http.StatusUnauthorized},
		{name: "Admin required", path: "/api/users/" + admin.ID, token: getToken(t, member), wantCode: http.StatusForbidden},
		{name: "No suicide", path: "/api/users/" + admin.ID, token: adminToken, wantCode: http.StatusForbidden},
		{name: "User deleted", path: "/api/users/" + member.ID, token: adminToken, wantCode: http.StatusNoContent},
	}
	for _, tt := range tests {
		tt.method = http.MethodDelete

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			if tt.wantCode == http.StatusNoContent {
				if _, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: member.ID}); err != user.ErrNotFound {
					t.Errorf("GetUser() error = %v, want ErrNotFound", err)
				}
			}
		})
	}
}

func Test_userApi_userRefreshToken(t *testing.T) {
	app := setup(t)

	naughty := testutil.CreateUser(t, usrRepo, "N Dog", "ndog", "ndog@test.cd", "", []string{user.RoleMember}, false) // 😂
	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleMember}, true)

	now := time.Now()
	unrefreshableClaims := &echoapi.Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   member.ID,
			Audience:  "Learners",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Username:     member.Username,
		Email:        member.Email,
		Roles:        member.Roles,
	}
	unrefreshableToken, err := echoapi.GenerateToken(unrefreshableClaims)
	if err != nil {
		t.Fatalf("GenerateToken(): %v", err)
	}

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"})},
		{name: "Refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})},
		{name: "Token refreshed", token: getToken(t, member), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users/token-refresh"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			// cannot guess new token.. just check that it's not empty
			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData echoapi.LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Token == "" {
					t.Error("failed! empty token")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userResetPassword(t *testing.T) {
	app := setup(t)

	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleMember}, true)
	successData := marchallObj(t, echoapi.SuccessResponse{Success: "If the email address supplied is associated with an active account on this system, " +
		"an email will arrive in your inbox shortly with instructions to reset your password."})

	pathRegex, err := regexp.Compile("/password-reset/.+/.+")
	if err != nil {
		t.Fatalf("regexp.Compile(): %v", err)
	}

	type extraTest struct {
		emailSent bool
		to        mail.Address
	}
	tests := []httpTest{
		{name: "required fields", wantCode: http.StatusBadRequest, wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "this field is required"})},
		{
			name: "invalid email", wantCode: http.StatusBadRequest, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol"}),
			wantData: marchallObj(t, echoapi.PasswordResetRequest{Email: "email must be a valid email address"}),
		},
		{
			name: "unknown email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: "lol@test.com"}),
			wantData: successData, extra: extraTest{emailSent: false},
		},
		{
			name: "known email", wantCode: http.StatusOK, body: marchallObj(t, echoapi.PasswordResetRequest{Email: member.Email}),
			wantData: successData, extra: extraTest{emailSent: true, to: mail.Address{Name: member.Name, Address: member.Email}},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users/password-reset"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil // reset

			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if extra, ok := tt.extra.(extraTest); ok {
				if extra.emailSent {
					if len(emailsvc.SentMessages) != 1 {
						t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
					}
					msg := emailsvc.SentMessages[0]
					if msg.To[0] != extra.to {
						t.Errorf("failed! To = %v; want %v", msg.To[0], extra.to)
					}
					if !strings.Contains(msg.TextContent, extra.to.Name) {
						t.Errorf("failed! text content does not contain recipient's name %q", extra.to.Name)
					}
					if !strings.Contains(msg.HTMLContent, extra.to.Name) {
						t.Errorf("failed! HTML content does not contain recipient's name %q", extra.to.Name)
					}
					if !pathRegex.MatchString(msg.TextContent) {
						t.Errorf("failed! text content does not match pathRegex %v", pathRegex)
					}
					if !pathRegex.MatchString(msg.HTMLContent) {
						t.Errorf("failed! HTML content does not match pathRegex %v", pathRegex)
					}
				} else {
					if len(emailsvc.SentMessages) > 0 {
						t.Errorf("failed! len(SentMessages) = %d; want 0", len(emailsvc.SentMessages))
					}
				}
			}
		})
	}
}

func Test_userApi_userConfirmPasswordReset(t *testing.T) {
	app := setup(t)

	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "lol", []string{user.RoleMember}, true)
	validUID := user.EncodeUID(member)
	validToken, err := user.MakeToken(member)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}

	// generate an expired token
	dayLate := core.Conf.PasswordResetTimeoutDelta + (24 * time.Hour)
	user.NowFunc = func() time.Time { return time.Now().Add(-dayLate) }
	expiredToken, err := user.MakeToken(member)
	if err != nil {
		t.Fatalf("MakeToken(): %v", err)
	}
	user.NowFunc = time.Now // reset

	reqMsg := "this field is required"
	invalidToken := marchallObj(t, httpErr{Error: "invalid token"})
	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, user.ResetUserPassword{Token: reqMsg, UID: reqMsg, Password: "password must contain at least 8 characters", PasswordConfirm: reqMsg}),
		},
		{
			name: "invalid pwd: min len", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must contain at least 8 characters"}),
		},
		{
			name: "invalid pwd: no whitespace", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "l o loll", PasswordConfirm: "l o loll"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must not contain whitespace"}),
		},
		{
			name: "invalid pwd: not all numeric", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "12345678", PasswordConfirm: "12345678"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password cannot be entirely numeric"}),
		},
		{
			name: "invalid pwd: complexity", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "lol12345", PasswordConfirm: "lol12345"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}),
		},
		{
			name: "invalid pwd: too common", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "P@$$w0rd", PasswordConfirm: "P@$$w0rd"}),
			wantData: marchallObj(t, user.ResetUserPassword{Password: "password is too common"}),
		},
		{
			name: "PasswordConfirm must = Password", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "lol", Password: "LolC@t123", PasswordConfirm: "lol"}),
			wantData: marchallObj(t, user.ResetUserPassword{PasswordConfirm: "password_confirm must be equal to Password"}),
		},
		{
			name: "invalid uid", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "b G9s", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: invalidToken,
		},
		{
			name: "user not found", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "lol", UID: "bG9s", Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: invalidToken,
		},
		{
			name: "invalid token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: "HE4TS-sigsig-sig", UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: invalidToken,
		},
		{
			name: "expired token", wantCode: http.StatusBadRequest,
			body:     marchallObj(t, user.ResetUserPassword{Token: expiredToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, httpErr{Error: "token expired"}),
		},
		{
			name: "valid token", wantCode: http.StatusOK,
			body:     marchallObj(t, user.ResetUserPassword{Token: validToken, UID: validUID, Password: "LolC@t123", PasswordConfirm: "LolC@t123"}),
			wantData: marchallObj(t, echoapi.SuccessResponse{Success: "Password has been reset with the new password."}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/users/password-reset-confirm"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if tt.wantCode == http.StatusOK {
				refreshed, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: member.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshed.PasswordHash, member.PasswordHash) {
					t.Fatal("failed to update new password")
				}
			}
		})
	}
}
