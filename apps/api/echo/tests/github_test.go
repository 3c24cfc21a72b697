package tests

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/darasahq/darasa/core/user"
	emailsvc "github.com/darasahq/darasa/services/email"
	testutil "github.com/darasahq/darasa/tests"
)

func Test_authApi_githubLogin(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/api/auth/github")
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusTemporaryRedirect)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("url.Parse() failed, %v", err)
	}
	if loc.Host != "github.com" || !strings.HasPrefix(loc.Path, "/login/oauth/authorize") {
		t.Errorf("Location = %v", loc)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Error("no state in the authorize URL")
	}

	res := rec.Result()
	var cookie *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "oauth_state" {
			cookie = c
			break
		}
	}
	if cookie == nil {
		t.Fatal("oauth_state cookie not set")
	}
	if cookie.Value != state {
		t.Errorf("cookie state = %v, want %v", cookie.Value, state)
	}
	if !cookie.HttpOnly {
		t.Error("oauth_state cookie is not HttpOnly")
	}
}

func Test_authApi_githubCallback_stateMismatch(t *testing.T) {
	app := setup(t)

	wantData := marchallObj(t, httpErr{Error: "invalid oauth state"})

	t.Run("no state cookie", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/auth/github/callback?state=lol&code=lol")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: wantData}, rec)
	})

	t.Run("state mismatch", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/auth/github/callback?state=lol&code=lol")
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "mdr"})
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: wantData}, rec)
	})

	t.Run("missing code", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/auth/github/callback?state=lol")
		req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "lol"})
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: wantData}, rec)
	})
}

func Test_userService_SyncGitHubAccount(t *testing.T) {
	_ = setup(t)

	svc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock())
	ctx := context.Background()

	t.Run("first login creates a member account", func(t *testing.T) {
		emailsvc.SentMessages = nil

		usr, created, err := svc.SyncGitHubAccount(ctx, user.GitHubAccount{ID: 42, Login: "Octocat", Name: "The Octocat", Email: "Octo@Test.CD"})
		if err != nil {
			t.Fatalf("SyncGitHubAccount() failed, %v", err)
		}
		if !created {
			t.Error("created = false, want true")
		}
		if usr.ID == "" || usr.Username != "octocat" || usr.Email != "octo@test.cd" || usr.GitHubID != 42 || !usr.Active() {
			t.Errorf("failed! unexpected user %+v", usr)
		}
		if len(usr.Roles) != 1 || usr.Roles[0] != user.RoleMember {
			t.Errorf("Roles = %v, want [%v]", usr.Roles, user.RoleMember)
		}
		if len(emailsvc.SentMessages) != 1 || emailsvc.SentMessages[0].Subject != "Welcome aboard!" {
			t.Errorf("failed! unexpected messages %+v", emailsvc.SentMessages)
		}
	})

	t.Run("repeat logins match by GitHub ID", func(t *testing.T) {
		usr, created, err := svc.SyncGitHubAccount(ctx, user.GitHubAccount{ID: 42, Login: "octocat"})
		if err != nil {
			t.Fatalf("SyncGitHubAccount() failed, %v", err)
		}
		if created {
			t.Error("created = true, want false")
		}
		if usr.Username != "octocat" {
			t.Errorf("failed! unexpected user %+v", usr)
		}
	})

	t.Run("existing account is linked by email", func(t *testing.T) {
		existing := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleMember}, true)

		usr, created, err := svc.SyncGitHubAccount(ctx, user.GitHubAccount{ID: 77, Login: "herodev", Email: "hero@test.cd"})
		if err != nil {
			t.Fatalf("SyncGitHubAccount() failed, %v", err)
		}
		if created {
			t.Error("created = true, want false")
		}
		if usr.ID != existing.ID || usr.GitHubID != 77 || usr.GitHubLogin != "herodev" {
			t.Errorf("failed! unexpected user %+v", usr)
		}
	})
}
