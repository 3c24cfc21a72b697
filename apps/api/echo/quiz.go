package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core/course"
	"github.com/darasahq/darasa/core/quiz"
	"github.com/darasahq/darasa/core/user"
)

type quizApi struct {
	svc       *quiz.Service
	courseSvc *course.Service
	usrSvc    user.ServiceInterface
	validate  *validator.Validate
}

func registerQuizAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *quiz.Service,
	courseSvc *course.Service,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := quizApi{
		svc:       svc,
		courseSvc: courseSvc,
		usrSvc:    usrSvc,
		validate:  validate,
	}

	tg := g.Group("/modules/:slug/test", jwt)
	tg.GET("", api.retrieve)
	tg.POST("", api.create, adminMiddleware())
	tg.PUT("", api.update, adminMiddleware())
	tg.DELETE("", api.destroy, adminMiddleware())
	tg.GET("/submissions", api.querySubmissions)
	tg.POST("/submissions", api.submit)
}

// accessibleModule resolves :slug and enforces the caller's access decision.
func (api *quizApi) accessibleModule(ctx echo.Context, usr user.User) (course.Module, error) {
	mod, err := api.courseSvc.GetBySlug(ctx.Request().Context(), ctx.Param("slug"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Module{}, errHttpNotFound
		}
		return course.Module{}, errors.Wrap(err, "finding module by slug")
	}
	if !mod.IsPublished && !usr.IsAdmin() {
		return course.Module{}, errHttpNotFound
	}
	access, err := api.courseSvc.Access(ctx.Request().Context(), usr, mod)
	if err != nil {
		return course.Module{}, errors.Wrap(err, "evaluating module access")
	}
	if !access.Granted() {
		return course.Module{}, echo.NewHTTPError(http.StatusForbidden, string(access))
	}
	return mod, nil
}

func (api *quizApi) moduleTest(ctx echo.Context, usr user.User) (quiz.Test, error) {
	mod, err := api.accessibleModule(ctx, usr)
	if err != nil {
		return quiz.Test{}, err
	}
	test, err := api.svc.GetByModuleID(ctx.Request().Context(), mod.ID)
	if err != nil {
		if errors.Cause(err) == quiz.ErrNotFound {
			return quiz.Test{}, errHttpNotFound
		}
		return quiz.Test{}, errors.Wrap(err, "finding module test")
	}
	return test, nil
}

// Handlers

func (api *quizApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	test, err := api.moduleTest(ctx, ctxUsr)
	if err != nil {
		return err
	}
	if ctxUsr.IsAdmin() {
		return ctx.JSON(http.StatusOK, test)
	}
	return ctx.JSON(http.StatusOK, test.Public())
}

func (api *quizApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	mod, err := api.accessibleModule(ctx, ctxUsr)
	if err != nil {
		return err
	}

	var data quiz.NewTest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	test, err := api.svc.Create(ctx.Request().Context(), mod.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating test")
	}
	return ctx.JSON(http.StatusCreated, test)
}

func (api *quizApi) update(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	test, err := api.moduleTest(ctx, ctxUsr)
	if err != nil {
		return err
	}

	var data quiz.UpdateTest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	test, err = api.svc.Update(ctx.Request().Context(), test.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating test")
	}
	return ctx.JSON(http.StatusOK, test)
}

func (api *quizApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	test, err := api.moduleTest(ctx, ctxUsr)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), test.ID); err != nil {
		return errors.Wrap(err, "deleting test")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *quizApi) submit(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	test, err := api.moduleTest(ctx, ctxUsr)
	if err != nil {
		return err
	}

	var data quiz.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), ctxUsr.ID, test, data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *quizApi) querySubmissions(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	test, err := api.moduleTest(ctx, ctxUsr)
	if err != nil {
		return err
	}

	filter := quiz.SubmissionFilter{TestID: test.ID, UserID: ctxUsr.ID}
	// admins may inspect another learner's submissions
	if uid := ctx.QueryParam("user_id"); uid != "" && ctxUsr.IsAdmin() {
		filter.UserID = uid
	}

	subs, err := api.svc.Submissions(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []quiz.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}
