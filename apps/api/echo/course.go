package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/user"
)

type courseApi struct {
	svc      *course.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *course.Service,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := courseApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	mg := g.Group("/modules", jwt)
	mg.GET("", api.query)
	mg.POST("", api.create, adminMiddleware())

	dg := mg.Group("/:slug")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/days", api.createDay, adminMiddleware())
	dg.PUT("/days/:dayID", api.updateDay, adminMiddleware())
	dg.DELETE("/days/:dayID", api.destroyDay, adminMiddleware())
}

type (
	// ModuleAccess is a module decorated with the caller's access decision.
	ModuleAccess struct {
		course.Module
		Access course.Access `json:"access"`
	}

	// ModuleDetail additionally carries the days visible to the caller.
	ModuleDetail struct {
		course.Module
		Access course.Access `json:"access"`
		Days   []course.Day  `json:"days"`
	}
)

// getModuleBySlug resolves :slug, hiding unpublished modules from non-admins.
func (api *courseApi) getModuleBySlug(ctx echo.Context, usr user.User) (course.Module, error) {
	mod, err := api.svc.GetBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Module{}, errHttpNotFound
		}
		return course.Module{}, errors.Wrap(err, "finding module by slug")
	}
	if !mod.IsPublished && !usr.IsAdmin() {
		return course.Module{}, errHttpNotFound
	}
	return mod, nil
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []ModuleAccess{})
	}
	filter.Clean()
	if !ctxUsr.IsAdmin() {
		published := true
		filter.IsPublished = &published
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	modules, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying modules")
	}

	res := make([]ModuleAccess, 0, len(modules))
	for _, mod := range modules {
		access, err := api.svc.Access(ctx.Request().Context(), ctxUsr, mod)
		if err != nil {
			return errors.Wrap(err, "evaluating module access")
		}
		res = append(res, ModuleAccess{Module: mod, Access: access})
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	mod, err := api.getModuleBySlug(ctx, ctxUsr)
	if err != nil {
		return err
	}

	access, err := api.svc.Access(ctx.Request().Context(), ctxUsr, mod)
	if err != nil {
		return errors.Wrap(err, "evaluating module access")
	}
	if !access.Granted() {
		return echo.NewHTTPError(http.StatusForbidden, string(access))
	}

	days, err := api.svc.Days(ctx.Request().Context(), ctxUsr, mod)
	if err != nil {
		return errors.Wrap(err, "querying module days")
	}
	if days == nil {
		days = []course.Day{}
	}
	return ctx.JSON(http.StatusOK, ModuleDetail{Module: mod, Access: access, Days: days})
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	mod, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating module")
	}
	return ctx.JSON(http.StatusCreated, mod)
}

func (api *courseApi) update(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	mod, err := api.getModuleBySlug(ctx, ctxUsr)
	if err != nil {
		return err
	}

	var data course.UpdateModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateModule")
	}
	if err := data.Validate(mod, api.validate, api.svc); err != nil {
		return err
	}

	mod, err = api.svc.Update(ctx.Request().Context(), mod.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating module")
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	mod, err := api.getModuleBySlug(ctx, ctxUsr)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), mod.ID); err != nil {
		return errors.Wrap(err, "deleting module")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) createDay(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	mod, err := api.getModuleBySlug(ctx, ctxUsr)
	if err != nil {
		return err
	}

	var data course.NewDay
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDay")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	day, err := api.svc.CreateDay(ctx.Request().Context(), mod, data)
	if err != nil {
		return errors.Wrap(err, "creating day")
	}
	return ctx.JSON(http.StatusCreated, day)
}

func (api *courseApi) updateDay(ctx echo.Context) error {
	var data course.UpdateDay
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDay")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	day, err := api.svc.UpdateDay(ctx.Request().Context(), ctx.Param("dayID"), data)
	if err != nil {
		if errors.Cause(err) == course.ErrDayNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating day")
	}
	return ctx.JSON(http.StatusOK, day)
}

func (api *courseApi) destroyDay(ctx echo.Context) error {
	if err := api.svc.DeleteDay(ctx.Request().Context(), ctx.Param("dayID")); err != nil {
		if errors.Cause(err) == course.ErrDayNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting day")
	}
	return ctx.NoContent(http.StatusNoContent)
}
