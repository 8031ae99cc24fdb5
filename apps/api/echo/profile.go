package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusign/screener/core/student"
	"github.com/edusign/screener/core/user"
)

type profileApi struct {
	svc     student.Service
	userSvc user.Service
}

func registerProfileAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc student.Service, userSvc user.Service) {
	api := profileApi{svc: svc, userSvc: userSvc}

	pg := g.Group("/profile", jwt, studentMiddleware())
	pg.GET("", api.retrieve)
	pg.PUT("", api.save)

	// counselors review any student's profile
	g.GET("/students/:id/profile", api.retrieveByID, jwt, counselorMiddleware())
}

// Handlers

func (api *profileApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	profile, err := api.svc.Get(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

// save records the intake survey; saving again overwrites the previous
// answers and keeps completed_intake set.
func (api *profileApi) save(ctx echo.Context) error {
	var data student.IntakeSurvey
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to IntakeSurvey")
	}
	if err := data.Validate(ctx.Request().Context()); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	profile, err := api.svc.Save(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}

func (api *profileApi) retrieveByID(ctx echo.Context) error {
	profile, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, profile)
}
