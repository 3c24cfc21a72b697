package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/beta"
	"github.com/darasahq/darasa/core/user"
)

type betaApi struct {
	svc      *beta.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerBetaAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *beta.Service,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := betaApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	bg := g.Group("/beta/applications", jwt)
	bg.POST("", api.apply)
	bg.GET("/mine", api.mine)
	bg.GET("", api.query, adminMiddleware())
	bg.POST("/:id/approve", api.approve, adminMiddleware())
	bg.POST("/:id/reject", api.reject, adminMiddleware())
}

// Handlers

func (api *betaApi) apply(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data beta.NewApplication
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewApplication")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	app, err := api.svc.Apply(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "applying for beta access")
	}
	return ctx.JSON(http.StatusCreated, app)
}

func (api *betaApi) mine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	apps, err := api.svc.Query(ctx.Request().Context(), &beta.QueryFilter{UserID: ctxUsr.ID})
	if err != nil {
		return errors.Wrap(err, "querying own applications")
	}
	if apps == nil {
		apps = []beta.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *betaApi) query(ctx echo.Context) error {
	filter := new(beta.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []beta.Application{})
	}
	filter.Clean()

	apps, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying applications")
	}
	if apps == nil {
		apps = []beta.Application{}
	}
	return ctx.JSON(http.StatusOK, apps)
}

func (api *betaApi) approve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.svc.Approve(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		if errors.Cause(err) == beta.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "approving application")
	}
	return ctx.JSON(http.StatusOK, app)
}

func (api *betaApi) reject(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	app, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		if errors.Cause(err) == beta.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "rejecting application")
	}
	return ctx.JSON(http.StatusOK, app)
}
