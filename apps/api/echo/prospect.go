package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/prospect"
)

type prospectApi struct {
	svc      *prospect.Service
	validate *validator.Validate
}

func registerProspectAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *prospect.Service,
	validate *validator.Validate,
) {
	api := prospectApi{
		svc:      svc,
		validate: validate,
	}

	pg := g.Group("/prospects")
	pg.POST("", api.capture) // public: landing-page signups

	ag := pg.Group("", jwt, adminMiddleware())
	ag.GET("", api.query)
	ag.POST("/reconcile", api.reconcile)
}

type ReconcileResponse struct {
	Converted int `json:"converted"`
}

// Handlers

func (api *prospectApi) capture(ctx echo.Context) error {
	var data prospect.NewProspect
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProspect")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Capture(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "capturing prospect")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *prospectApi) query(ctx echo.Context) error {
	filter := new(prospect.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []prospect.Prospect{})
	}
	filter.Clean()

	prospects, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying prospects")
	}
	if prospects == nil {
		prospects = []prospect.Prospect{}
	}
	return ctx.JSON(http.StatusOK, prospects)
}

func (api *prospectApi) reconcile(ctx echo.Context) error {
	n, err := api.svc.Reconcile(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "reconciling prospects")
	}
	return ctx.JSON(http.StatusOK, ReconcileResponse{Converted: n})
}
