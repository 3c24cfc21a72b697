package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/darasahq/darasa/core/beta"
	"github.com/darasahq/darasa/core/user"
	emailsvc "github.com/darasahq/darasa/services/email"
	testutil "github.com/darasahq/darasa/tests"
)

func createApplication(t *testing.T, usr user.User, status string) beta.Application {
	t.Helper()

	app, err := betaRepo.CreateApplication(context.Background(), beta.Application{
		UserID:     usr.ID,
		Email:      usr.Email,
		Motivation: "I want early access to the shell module to prepare my bootcamp cohort",
		Status:     status,
	})
	if err != nil {
		t.Fatalf("CreateApplication(): %v", err)
	}
	return app
}

func Test_betaApi_apply(t *testing.T) {
	app := setup(t)

	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleMember}, true)
	tester := testutil.CreateUser(t, usrRepo, "Tester", "tester", "tester@test.cd", "", []string{user.RoleBeta, user.RoleMember}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	rejected := testutil.CreateUser(t, usrRepo, "Loser", "loser", "loser@test.cd", "", []string{user.RoleMember}, true)
	createApplication(t, rejected, beta.StatusRejected)

	motivation := "I want early access to the shell module to prepare my bootcamp cohort"

	type extraTest struct {
		wantEmails int
	}
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "required fields", token: getToken(t, member), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, beta.NewApplication{}),
			wantData: marchallObj(t, map[string]string{"motivation": "this field is required"}),
		},
		{
			name: "motivation too short", token: getToken(t, member), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, beta.NewApplication{Motivation: "let me in"}),
			wantData: marchallObj(t, map[string]string{"motivation": "motivation must be at least 20 characters in length"}),
		},
		{
			name: "Beta testers cannot re-apply", token: getToken(t, tester), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, beta.NewApplication{Motivation: motivation}),
			wantData: marchallObj(t, httpErr{Error: "this user already has beta access"}),
		},
		{
			name: "Admins need no application", token: getToken(t, admin), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, beta.NewApplication{Motivation: motivation}),
			wantData: marchallObj(t, httpErr{Error: "this user already has beta access"}),
		},
		{
			name: "application filed", token: getToken(t, member), wantCode: http.StatusCreated,
			body:  marchallObj(t, beta.NewApplication{Motivation: motivation}),
			extra: extraTest{wantEmails: 1},
		},
		{
			name: "one pending application per user", token: getToken(t, member), wantCode: http.StatusBadRequest,
			body:     marchallObj(t, beta.NewApplication{Motivation: motivation}),
			wantData: marchallObj(t, httpErr{Error: "a pending application already exists for this user"}),
		},
		{
			name: "A decided application allows a new one", token: getToken(t, rejected), wantCode: http.StatusCreated,
			body:  marchallObj(t, beta.NewApplication{Motivation: motivation}),
			extra: extraTest{wantEmails: 1},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/api/beta/applications"

		t.Run(tt.name, func(t *testing.T) {
			emailsvc.SentMessages = nil

			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if extra, ok := tt.extra.(extraTest); ok {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData beta.Application
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if respData.ID == "" || respData.Status != beta.StatusPending || respData.DecidedBy != nil {
					t.Errorf("failed! unexpected application %+v", respData)
				}
				if len(emailsvc.SentMessages) != extra.wantEmails {
					t.Fatalf("len(SentMessages) = %v, want %v", len(emailsvc.SentMessages), extra.wantEmails)
				}
				if subj := emailsvc.SentMessages[0].Subject; subj != "We received your beta application" {
					t.Errorf("Subject = %q", subj)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_betaApi_applicationQuery(t *testing.T) {
	app := setup(t)

	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleMember}, true)
	other := testutil.CreateUser(t, usrRepo, "Woodstock", "wstock", "wstock@test.cd", "", []string{user.RoleMember}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	memberApp := createApplication(t, member, beta.StatusPending)
	otherApp := createApplication(t, other, beta.StatusRejected)

	tests := []httpTest{
		{name: "Auth required", path: "/api/beta/applications", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/api/beta/applications", token: getToken(t, member), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", path: "/api/beta/applications", token: getToken(t, admin),
			wantData: marchallList(t, memberApp, otherApp),
		},
		{
			name: "status filter", path: "/api/beta/applications?status=pending", token: getToken(t, admin),
			wantData: marchallList(t, memberApp),
		},
		{
			name: "user filter", path: "/api/beta/applications?user_id=" + other.ID, token: getToken(t, admin),
			wantData: marchallList(t, otherApp),
		},
		{
			name: "no match", path: "/api/beta/applications?status=approved", token: getToken(t, admin),
			wantData: marchallList(t),
		},
		{
			name: "Own applications", path: "/api/beta/applications/mine", token: getToken(t, member),
			wantData: marchallList(t, memberApp),
		},
		{
			name: "Own applications when none", path: "/api/beta/applications/mine", token: getToken(t, admin),
			wantData: marchallList(t),
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
}

func Test_betaApi_applicationApprove(t *testing.T) {
	app := setup(t)

	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleMember}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	pending := createApplication(t, member, beta.StatusPending)

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/beta/applications/"+pending.ID+"/approve", "")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("Admin required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/beta/applications/"+pending.ID+"/approve", getToken(t, member))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("Unknown application", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/beta/applications/lol/approve", getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("Application approved", func(t *testing.T) {
		emailsvc.SentMessages = nil

		req, rec := newAuthRequest(http.MethodPost, "/api/beta/applications/"+pending.ID+"/approve", getToken(t, admin))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var respData beta.Application
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if respData.Status != beta.StatusApproved || respData.DecidedBy == nil || *respData.DecidedBy != admin.ID || respData.DecidedAt == nil {
			t.Errorf("failed! unexpected application %+v", respData)
		}

		// the applicant gained the beta role
		usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: member.ID})
		if err != nil {
			t.Fatalf("GetUser(): %v", err)
		}
		if !usr.IsBeta() {
			t.Errorf("IsBeta() = false, roles %v", usr.Roles)
		}

		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("len(SentMessages) = %v, want 1", len(emailsvc.SentMessages))
		}
		if subj := emailsvc.SentMessages[0].Subject; subj != "Welcome to the beta!" {
			t.Errorf("Subject = %q", subj)
		}
	})

	t.Run("Already decided", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/beta/applications/"+pending.ID+"/approve", getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "this application has already been decided"}),
		}, rec)
	})
}

func Test_betaApi_applicationReject(t *testing.T) {
	app := setup(t)

	member := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleMember}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	pending := createApplication(t, member, beta.StatusPending)

	t.Run("Application rejected", func(t *testing.T) {
		emailsvc.SentMessages = nil

		req, rec := newAuthRequest(http.MethodPost, "/api/beta/applications/"+pending.ID+"/reject", getToken(t, admin))
		app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
		var respData beta.Application
		if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if respData.Status != beta.StatusRejected || respData.DecidedBy == nil || *respData.DecidedBy != admin.ID {
			t.Errorf("failed! unexpected application %+v", respData)
		}

		// no beta role for rejected applicants
		usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: member.ID})
		if err != nil {
			t.Fatalf("GetUser(): %v", err)
		}
		if usr.IsBeta() {
			t.Errorf("IsBeta() = true, roles %v", usr.Roles)
		}

		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("len(SentMessages) = %v, want 1", len(emailsvc.SentMessages))
		}
		if subj := emailsvc.SentMessages[0].Subject; subj != "About your beta application" {
			t.Errorf("Subject = %q", subj)
		}
	})

	t.Run("Already decided", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/beta/applications/"+pending.ID+"/reject", getToken(t, admin))
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "this application has already been decided"}),
		}, rec)
	})
}
