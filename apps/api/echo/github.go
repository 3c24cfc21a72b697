package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/prospect"
	"github.com/darasahq/darasa/core/user"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 10 * time.Minute

	githubUserURL       = "https://api.github.com/user"
	githubUserEmailsURL = "https://api.github.com/user/emails"
)

var errOAuthStateMismatch = echo.NewHTTPError(http.StatusBadRequest, "invalid oauth state")

type authApi struct {
	usrSvc      user.ServiceInterface
	prospectSvc *prospect.Service
}

func registerAuthAPI(g *echo.Group, usrSvc user.ServiceInterface, prospectSvc *prospect.Service) {
	api := authApi{
		usrSvc:      usrSvc,
		prospectSvc: prospectSvc,
	}

	ag := g.Group("/auth/github")
	ag.GET("", api.login)
	ag.GET("/callback", api.callback)
}

func oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     core.Conf.Github.ClientID,
		ClientSecret: core.Conf.Github.ClientSecret,
		RedirectURL:  core.Conf.Github.RedirectURL,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     githuboauth.Endpoint,
	}
}

// login redirects to GitHub's authorize page, pinning a random state in a
// short-lived cookie.
func (api *authApi) login(ctx echo.Context) error {
	state := uuid.New().String()
	ctx.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth/github",
		MaxAge:   int(oauthStateMaxAge / time.Second),
		HttpOnly: true,
		Secure:   !core.Conf.Debug,
		SameSite: http.SameSiteLaxMode,
	})
	return ctx.Redirect(http.StatusTemporaryRedirect, oauthConfig().AuthCodeURL(state))
}

// callback completes the OAuth flow: code exchange, profile fetch, account
// sync, prospect conversion and JWT issuance.
func (api *authApi) callback(ctx echo.Context) error {
	cookie, err := ctx.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != ctx.QueryParam("state") {
		return errOAuthStateMismatch
	}

	code := ctx.QueryParam("code")
	if code == "" {
		return errOAuthStateMismatch
	}

	reqCtx := ctx.Request().Context()
	token, err := oauthConfig().Exchange(reqCtx, code)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "github code exchange failed").SetInternal(err)
	}

	acct, err := fetchGitHubAccount(reqCtx, token)
	if err != nil {
		return errors.Wrap(err, "fetching github profile")
	}

	usr, created, err := api.usrSvc.SyncGitHubAccount(reqCtx, acct)
	if err != nil {
		return errors.Wrap(err, "syncing github account")
	}
	if !usr.Active() {
		return errAccountDeactivated
	}

	if created && usr.Email != "" {
		if err := api.prospectSvc.MarkConverted(reqCtx, usr.Email, usr); err != nil {
			ctx.Logger().Errorf("%+v", errors.Wrap(err, "converting prospect"))
		}
	}

	usr, err = api.usrSvc.SetLastLogin(reqCtx, usr)
	if err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}

	jwtToken, err := GenerateToken(GetUserClaims(usr))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: jwtToken})
}

// fetchGitHubAccount loads the authenticated GitHub profile, falling back to
// the primary verified address when the public email is hidden.
func fetchGitHubAccount(ctx context.Context, token *oauth2.Token) (user.GitHubAccount, error) {
	client := oauthConfig().Client(ctx, token)

	var acct user.GitHubAccount
	if err := getJSON(client, githubUserURL, &acct); err != nil {
		return user.GitHubAccount{}, err
	}

	if acct.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(client, githubUserEmailsURL, &emails); err != nil {
			return user.GitHubAccount{}, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				acct.Email = e.Email
				break
			}
		}
	}
	return acct, nil
}

func getJSON(client *http.Client, url string, out interface{}) error {
	res, err := client.Get(url)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return errors.Errorf("GET %s: %s", url, res.Status)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
