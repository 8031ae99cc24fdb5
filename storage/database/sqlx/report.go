package sqlxrepos

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edusign/screener/core/report"
	"github.com/edusign/screener/core/user"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sqlx.DB) report.Repository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) QueryKindAggregates(ctx context.Context) ([]report.KindAggregate, error) {
	q := `
	SELECT
		kind,
		COALESCE(AVG(score), 0) AS avg_score,
		COUNT(*) AS total,
		COUNT(*) FILTER (WHERE flagged) AS flagged
	FROM assessment_result
	GROUP BY kind
	ORDER BY kind`
	rows := make([]struct {
		Kind     string  `db:"kind"`
		AvgScore float64 `db:"avg_score"`
		Total    int     `db:"total"`
		Flagged  int     `db:"flagged"`
	}, 0)
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying aggregates")
	}

	aggs := make([]report.KindAggregate, 0, len(rows))
	for _, r := range rows {
		aggs = append(aggs, report.KindAggregate(r))
	}
	return aggs, nil
}

func (repo *reportRepository) QueryExportRows(ctx context.Context, filter *report.ExportFilter) ([]report.ExportRow, error) {
	q := `
	SELECT
		u.name AS student_name,
		u.username,
		d.name AS assessment_name,
		r.kind,
		r.score,
		r.max_score,
		r.band,
		r.flagged,
		r.message,
		to_char(r.created_at, 'YYYY-MM-DD HH24:MI:SS') AS created_at
	FROM assessment_result r
	JOIN "user" u ON u.id = r.user_id
	JOIN assessment_definition d ON d.id = r.definition_id`

	var clauses []string
	var args []interface{}
	if filter != nil {
		if filter.StudentID != "" {
			args = append(args, filter.StudentID)
			clauses = append(clauses, "r.user_id = $1")
		}
		if filter.Kind != "" {
			args = append(args, filter.Kind)
			clauses = append(clauses, fmt.Sprintf("r.kind = $%d", len(args)))
		}
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY r.created_at DESC"

	rows := make([]struct {
		StudentName    string `db:"student_name"`
		Username       string `db:"username"`
		AssessmentName string `db:"assessment_name"`
		Kind           string `db:"kind"`
		Score          int    `db:"score"`
		MaxScore       int    `db:"max_score"`
		Band           string `db:"band"`
		Flagged        bool   `db:"flagged"`
		Message        string `db:"message"`
		CreatedAt      string `db:"created_at"`
	}, 0)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying export rows")
	}

	exportRows := make([]report.ExportRow, 0, len(rows))
	for _, r := range rows {
		exportRows = append(exportRows, report.ExportRow(r))
	}
	return exportRows, nil
}

func (repo *reportRepository) CountStudents(ctx context.Context) (int, error) {
	var count int
	q := `SELECT COUNT(*) FROM "user" WHERE role = $1`
	if err := repo.db.GetContext(ctx, &count, q, user.RoleStudent); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return count, nil
}
