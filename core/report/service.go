package report

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/edusign/screener/core"
	"github.com/edusign/screener/core/result"
	"github.com/edusign/screener/core/user"
)

// Chart metrics.
const (
	MetricAvgScore     = "avg-score"
	MetricResultCount  = "result-count"
	MetricFlaggedCount = "flagged-count"
)

var errUnknownMetric = errors.New("unknown metric")

type (
	// KindAggregate summarizes all recorded results of one assessment kind.
	KindAggregate struct {
		Kind     string  `json:"kind"`
		AvgScore float64 `json:"avg_score"`
		Total    int     `json:"total"`
		Flagged  int     `json:"flagged"`
	}

	ChartPoint struct {
		Label string  `json:"label"`
		Value float64 `json:"value"`
	}

	// ExportRow is one line of the CSV export; a result joined with its
	// student and assessment name.
	ExportRow struct {
		StudentName    string
		Username       string
		AssessmentName string
		Kind           string
		Score          int
		MaxScore       int
		Band           string
		Flagged        bool
		Message        string
		CreatedAt      string
	}

	ExportFilter struct {
		StudentID string `query:"student_id"`
		Kind      string `query:"kind"`
	}

	Repository interface {
		QueryKindAggregates(ctx context.Context) ([]KindAggregate, error)
		QueryExportRows(ctx context.Context, filter *ExportFilter) ([]ExportRow, error)
		CountStudents(ctx context.Context) (int, error)
	}

	Service interface {
		StudentCount(ctx context.Context) (int, error)
		Students(ctx context.Context) ([]user.User, error)
		StudentResults(ctx context.Context, studentID string) ([]result.Result, error)
		Aggregates(ctx context.Context) ([]KindAggregate, error)
		// ChartSeries reshapes the aggregates into label/value points for
		// the given metric.
		ChartSeries(ctx context.Context, metric string) ([]ChartPoint, error)
		// ExportCSV writes the filtered results as CSV and returns the
		// number of data rows written.
		ExportCSV(ctx context.Context, w io.Writer, filter *ExportFilter) (int, error)
	}

	service struct {
		repo      Repository
		userSvc   user.Service
		resultSvc result.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, userSvc user.Service, resultSvc result.Service) Service {
	return &service{repo: repo, userSvc: userSvc, resultSvc: resultSvc}
}

func (svc *service) StudentCount(ctx context.Context) (int, error) {
	return svc.repo.CountStudents(ctx)
}

func (svc *service) Students(ctx context.Context) ([]user.User, error) {
	filter := &user.QueryFilter{Role: user.RoleStudent}
	ordering := []core.DBOrdering{{Field: "name", Ascending: true}}
	return svc.userSvc.Query(ctx, filter, ordering)
}

func (svc *service) StudentResults(ctx context.Context, studentID string) ([]result.Result, error) {
	ordering := []core.DBOrdering{{Field: "created_at"}}
	return svc.resultSvc.QueryByUser(ctx, studentID, ordering)
}

func (svc *service) Aggregates(ctx context.Context) ([]KindAggregate, error) {
	aggs, err := svc.repo.QueryKindAggregates(ctx)
	if err != nil {
		return nil, err
	}
	if aggs == nil {
		aggs = []KindAggregate{}
	}
	return aggs, nil
}

func (svc *service) ChartSeries(ctx context.Context, metric string) ([]ChartPoint, error) {
	switch metric {
	case MetricAvgScore, MetricResultCount, MetricFlaggedCount:
	default:
		return nil, core.NewValidationError(errUnknownMetric, core.FieldError{Field: "metric", Error: "must be one of avg-score, result-count, flagged-count"})
	}

	aggs, err := svc.Aggregates(ctx)
	if err != nil {
		return nil, err
	}

	points := make([]ChartPoint, 0, len(aggs))
	for _, agg := range aggs {
		pt := ChartPoint{Label: agg.Kind}
		switch metric {
		case MetricAvgScore:
			pt.Value = agg.AvgScore
		case MetricResultCount:
			pt.Value = float64(agg.Total)
		case MetricFlaggedCount:
			pt.Value = float64(agg.Flagged)
		}
		points = append(points, pt)
	}
	return points, nil
}

var exportHeader = []string{"Student", "Username", "Assessment", "Kind", "Score", "Max Score", "Band", "Flagged", "Message", "Date"}

func (svc *service) ExportCSV(ctx context.Context, w io.Writer, filter *ExportFilter) (int, error) {
	rows, err := svc.repo.QueryExportRows(ctx, filter)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err = cw.Write(exportHeader); err != nil {
		return 0, errors.Wrap(err, "writing csv header")
	}
	for _, row := range rows {
		flagged := "No"
		if row.Flagged {
			flagged = "Yes"
		}
		record := []string{
			row.StudentName,
			row.Username,
			row.AssessmentName,
			row.Kind,
			strconv.Itoa(row.Score),
			strconv.Itoa(row.MaxScore),
			row.Band,
			flagged,
			row.Message,
			row.CreatedAt,
		}
		if err = cw.Write(record); err != nil {
			return 0, errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return len(rows), errors.Wrap(cw.Error(), "flushing csv")
}
