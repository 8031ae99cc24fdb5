package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edusign/screener/core/report"
	"github.com/edusign/screener/core/result"
	"github.com/edusign/screener/core/user"
)

// reportApi serves the counselor dashboard: student listings, per-kind
// aggregates, chart series and the CSV export.
type reportApi struct {
	svc     report.Service
	userSvc user.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc report.Service, userSvc user.Service) {
	api := reportApi{svc: svc, userSvc: userSvc}

	rg := g.Group("/reports", jwt, counselorMiddleware())
	rg.GET("/overview", api.overview)
	rg.GET("/students", api.students)
	rg.GET("/students/:id/results", api.studentResults)
	rg.GET("/graph", api.graph)
	rg.GET("/export", api.export)
}

// Handlers

func (api *reportApi) overview(ctx echo.Context) error {
	count, err := api.svc.StudentCount(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	aggs, err := api.svc.Aggregates(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying aggregates")
	}
	return ctx.JSON(http.StatusOK, OverviewResponse{StudentCount: count, Aggregates: aggs})
}

func (api *reportApi) students(ctx echo.Context) error {
	students, err := api.svc.Students(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *reportApi) studentResults(ctx echo.Context) error {
	results, err := api.svc.StudentResults(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying student results")
	}
	if results == nil {
		results = []result.Result{}
	}
	return ctx.JSON(http.StatusOK, results)
}

func (api *reportApi) graph(ctx echo.Context) error {
	metric := ctx.QueryParam("metric")
	if metric == "" {
		metric = report.MetricAvgScore
	}

	points, err := api.svc.ChartSeries(ctx.Request().Context(), metric)
	if err != nil {
		return errors.Wrap(err, "building chart series")
	}
	return ctx.JSON(http.StatusOK, points)
}

func (api *reportApi) export(ctx echo.Context) error {
	filter := new(report.ExportFilter)
	if err := ctx.Bind(filter); err != nil {
		filter = new(report.ExportFilter)
	}

	var buff bytes.Buffer
	if _, err := api.svc.ExportCSV(ctx.Request().Context(), &buff, filter); err != nil {
		return errors.Wrap(err, "exporting results")
	}

	fname := fmt.Sprintf("results-%s.csv", time.Now().UTC().Format("20060102-150405"))
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fname))
	return ctx.Blob(http.StatusOK, "text/csv", buff.Bytes())
}

type OverviewResponse struct {
	StudentCount int                    `json:"student_count"`
	Aggregates   []report.KindAggregate `json:"aggregates"`
}
