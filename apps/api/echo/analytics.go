package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/analytics"
)

type analyticsApi struct {
	svc      *analytics.Service
	validate *validator.Validate
}

func registerAnalyticsAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *analytics.Service,
	validate *validator.Validate,
) {
	api := analyticsApi{
		svc:      svc,
		validate: validate,
	}

	g.POST("/pageviews", api.record) // public: tracked before login too

	ag := g.Group("/analytics", jwt, adminMiddleware())
	ag.GET("/pageviews", api.summary)
}

// Handlers

func (api *analyticsApi) record(ctx echo.Context) error {
	var data analytics.NewPageView
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPageView")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	var userID string
	if clms := parseOptionalClaims(ctx); clms != nil {
		userID = clms.Subject
	}

	pv, err := api.svc.Record(ctx.Request().Context(), data, userID, ctx.Request().UserAgent())
	if err != nil {
		return errors.Wrap(err, "recording page view")
	}
	return ctx.JSON(http.StatusCreated, pv)
}

func (api *analyticsApi) summary(ctx echo.Context) error {
	var filter analytics.SummaryFilter
	if from := ctx.QueryParam("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "from: expected RFC 3339 timestamp")
		}
		filter.From = t
	}
	if to := ctx.QueryParam("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "to: expected RFC 3339 timestamp")
		}
		filter.To = t
	}

	sum, err := api.svc.Summarize(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing page views")
	}
	return ctx.JSON(http.StatusOK, sum)
}
