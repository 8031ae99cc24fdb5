package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusign/screener/core/assessment"
	"github.com/edusign/screener/core/result"
	"github.com/edusign/screener/core/user"
)

// assessmentApi serves the student-facing assessment flow: browse the
// catalog (answers stripped), submit answers, review own results.
type assessmentApi struct {
	svc       assessment.Service
	resultSvc result.Service
	userSvc   user.Service
}

func registerAssessmentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc assessment.Service,
	resultSvc result.Service,
	userSvc user.Service,
) {
	api := assessmentApi{svc: svc, resultSvc: resultSvc, userSvc: userSvc}

	ag := g.Group("/assessments", jwt)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.POST("/:id/submit", api.submit, studentMiddleware())

	rg := g.Group("/results", jwt)
	rg.GET("", api.queryOwnResults)
	rg.GET("/latest", api.latestOwnResults)
	rg.GET("/:id", api.retrieveResult)
}

// Handlers

func (api *assessmentApi) query(ctx echo.Context) error {
	filter := new(assessment.DefinitionFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []assessment.Definition{})
	}
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, "name", "kind", "difficulty", "created_at"); err != nil {
		return err
	}

	defs, err := api.svc.QueryDefinitions(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying definitions")
	}

	pub := make([]assessment.Definition, 0, len(defs))
	for _, def := range defs {
		pub = append(pub, def.Public())
	}
	return ctx.JSON(http.StatusOK, pub)
}

func (api *assessmentApi) retrieve(ctx echo.Context) error {
	def, err := api.svc.GetDefinition(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting definition")
	}
	return ctx.JSON(http.StatusOK, def.Public())
}

func (api *assessmentApi) submit(ctx echo.Context) error {
	def, err := api.svc.GetDefinition(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting definition")
	}

	var data result.Submission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err := data.Validate(ctx.Request().Context()); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.resultSvc.Submit(ctx.Request().Context(), ctxUsr.ID, def, data)
	if err != nil {
		return errors.Wrap(err, "submitting answers")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *assessmentApi) queryOwnResults(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	ordering := new(Ordering)
	if err := ordering.Bind(ctx, "kind", "score", "created_at"); err != nil {
		return err
	}

	results, err := api.resultSvc.QueryByUser(ctx.Request().Context(), ctxUsr.ID, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	if results == nil {
		results = []result.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *assessmentApi) latestOwnResults(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	results, err := api.resultSvc.LatestPerKind(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying latest results")
	}
	if results == nil {
		results = []result.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

// retrieveResult serves a single result; students only see their own,
// counselors and admins see any.
func (api *assessmentApi) retrieveResult(ctx echo.Context) error {
	res, err := api.resultSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting result")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	if !claims.CanReview() && res.UserID != claims.Subject {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, res)
}
