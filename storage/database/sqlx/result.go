package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edusign/screener/core"
	"github.com/edusign/screener/core/result"
)

type resultRow struct {
	ID           string           `db:"id"`
	UserID       string           `db:"user_id"`
	DefinitionID string           `db:"definition_id"`
	Kind         string           `db:"kind"`
	Score        int              `db:"score"`
	MaxScore     int              `db:"max_score"`
	Total        int              `db:"total"`
	Band         string           `db:"band"`
	Flagged      bool             `db:"flagged"`
	Message      string           `db:"message"`
	Answers      result.AnswerSet `db:"answers"`
	DurationSecs int              `db:"duration_secs"`
	CreatedAt    time.Time        `db:"created_at"`
}

func (r resultRow) toResult() result.Result {
	return result.Result(r)
}

func toResults(rows []resultRow) []result.Result {
	results := make([]result.Result, 0, len(rows))
	for _, r := range rows {
		results = append(results, r.toResult())
	}
	return results
}

type resultRepository struct {
	db *sqlx.DB
}

var _ result.Repository = (*resultRepository)(nil) // interface compliance check

func NewResultRepository(db *sqlx.DB) result.Repository {
	return &resultRepository{db: db}
}

func (repo *resultRepository) CreateResult(ctx context.Context, res result.Result) (result.Result, error) {
	q := `
	INSERT INTO assessment_result
		(user_id, definition_id, kind, score, max_score, total, band, flagged, message, answers, duration_secs, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id`
	err := repo.db.QueryRowxContext(
		ctx, q,
		res.UserID, res.DefinitionID, res.Kind, res.Score, res.MaxScore, res.Total,
		res.Band, res.Flagged, res.Message, res.Answers, res.DurationSecs, res.CreatedAt,
	).Scan(&res.ID)
	if err != nil {
		return result.Result{}, errors.Wrap(err, "creating result")
	}
	return res, nil
}

func (repo *resultRepository) GetResult(ctx context.Context, id string) (result.Result, error) {
	var row resultRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM assessment_result WHERE id = $1`, id); err != nil {
		return result.Result{}, trapNoRowsErr(err, result.ErrNotFound)
	}
	return row.toResult(), nil
}

func (repo *resultRepository) QueryResultsByUser(ctx context.Context, userID string, ordering []core.DBOrdering) ([]result.Result, error) {
	q := `SELECT * FROM assessment_result WHERE user_id = $1` + orderBy(ordering, "created_at DESC")
	rows := make([]resultRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	return toResults(rows), nil
}

func (repo *resultRepository) LatestPerKind(ctx context.Context, userID string) ([]result.Result, error) {
	q := `
	SELECT DISTINCT ON (kind) *
	FROM assessment_result
	WHERE user_id = $1
	ORDER BY kind, created_at DESC`
	rows := make([]resultRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying latest results")
	}
	return toResults(rows), nil
}

func (repo *resultRepository) CountByUserAndDefinition(ctx context.Context, userID, definitionID string) (int, error) {
	var count int
	q := `SELECT COUNT(*) FROM assessment_result WHERE user_id = $1 AND definition_id = $2`
	if err := repo.db.GetContext(ctx, &count, q, userID, definitionID); err != nil {
		return 0, errors.Wrap(err, "counting attempts")
	}
	return count, nil
}
