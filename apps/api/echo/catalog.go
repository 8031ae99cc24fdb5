package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusign/screener/core/assessment"
)

// catalogApi manages programs and assessment definitions; counselors
// and admins maintain the catalog, students never see these routes.
type catalogApi struct {
	svc assessment.Service
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc assessment.Service) {
	api := catalogApi{svc: svc}

	pg := g.Group("/programs", jwt, counselorMiddleware())
	pg.GET("", api.queryPrograms)
	pg.POST("", api.createProgram)
	pg.GET("/:id", api.retrieveProgram)
	pg.PUT("/:id", api.updateProgram)
	pg.DELETE("/:id", api.destroyProgram)

	dg := g.Group("/definitions", jwt, counselorMiddleware())
	dg.GET("", api.queryDefinitions)
	dg.POST("", api.createDefinition)
	dg.GET("/:id", api.retrieveDefinition)
	dg.PUT("/:id", api.updateDefinition)
	dg.DELETE("/:id", api.destroyDefinition)
}

// Program handlers

func (api *catalogApi) queryPrograms(ctx echo.Context) error {
	programs, err := api.svc.QueryPrograms(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying programs")
	}
	if programs == nil {
		programs = []assessment.Program{}
	}
	return ctx.JSON(http.StatusOK, programs)
}

func (api *catalogApi) createProgram(ctx echo.Context) error {
	var data assessment.NewProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgram")
	}
	if err := data.Validate(ctx.Request().Context()); err != nil {
		return err
	}

	p, err := api.svc.CreateProgram(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating program")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *catalogApi) retrieveProgram(ctx echo.Context) error {
	p, err := api.svc.GetProgram(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting program")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *catalogApi) updateProgram(ctx echo.Context) error {
	orig, err := api.svc.GetProgram(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting program")
	}

	var data assessment.UpdateProgram
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProgram")
	}
	if err := data.Validate(ctx.Request().Context(), orig); err != nil {
		return err
	}

	p, err := api.svc.UpdateProgram(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating program")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *catalogApi) destroyProgram(ctx echo.Context) error {
	if err := api.svc.DeleteProgram(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting program")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Definition handlers

func (api *catalogApi) queryDefinitions(ctx echo.Context) error {
	filter := new(assessment.DefinitionFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []assessment.Definition{})
	}
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, "name", "kind", "difficulty", "created_at", "updated_at"); err != nil {
		return err
	}

	defs, err := api.svc.QueryDefinitions(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying definitions")
	}
	if defs == nil {
		defs = []assessment.Definition{}
	}
	return ctx.JSON(http.StatusOK, defs)
}

func (api *catalogApi) createDefinition(ctx echo.Context) error {
	var data assessment.NewDefinition
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDefinition")
	}
	if err := data.Validate(ctx.Request().Context()); err != nil {
		return err
	}

	def, err := api.svc.CreateDefinition(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating definition")
	}
	return ctx.JSON(http.StatusCreated, def)
}

func (api *catalogApi) retrieveDefinition(ctx echo.Context) error {
	def, err := api.svc.GetDefinition(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting definition")
	}
	return ctx.JSON(http.StatusOK, def)
}

func (api *catalogApi) updateDefinition(ctx echo.Context) error {
	orig, err := api.svc.GetDefinition(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting definition")
	}

	var data assessment.UpdateDefinition
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDefinition")
	}
	if err := data.Validate(ctx.Request().Context(), orig); err != nil {
		return err
	}

	def, err := api.svc.UpdateDefinition(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating definition")
	}
	return ctx.JSON(http.StatusOK, def)
}

func (api *catalogApi) destroyDefinition(ctx echo.Context) error {
	if err := api.svc.DeleteDefinition(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting definition")
	}
	return ctx.NoContent(http.StatusNoContent)
}
