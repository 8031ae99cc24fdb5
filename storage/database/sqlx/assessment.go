package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/edusign/screener/core"
	"github.com/edusign/screener/core/assessment"
)

type programRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Focus       string    `db:"focus"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r programRow) toProgram() assessment.Program {
	return assessment.Program(r)
}

type definitionRow struct {
	ID            string                 `db:"id"`
	ProgramID     null.String            `db:"program_id"`
	Name          string                 `db:"name"`
	Kind          string                 `db:"kind"`
	Description   string                 `db:"description"`
	Difficulty    string                 `db:"difficulty"`
	ScoringRule   string                 `db:"scoring_rule"`
	Questions     assessment.QuestionSet `db:"questions"`
	FlagThreshold null.Int               `db:"flag_threshold"`
	Bands         assessment.BandSet     `db:"bands"`
	CreatedAt     time.Time              `db:"created_at"`
	UpdatedAt     time.Time              `db:"updated_at"`
}

func (r definitionRow) toDefinition() assessment.Definition {
	def := assessment.Definition{
		ID:          r.ID,
		ProgramID:   r.ProgramID.String,
		Name:        r.Name,
		Kind:        r.Kind,
		Description: r.Description,
		Difficulty:  r.Difficulty,
		ScoringRule: r.ScoringRule,
		Questions:   r.Questions,
		Bands:       r.Bands,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.FlagThreshold.Valid {
		threshold := r.FlagThreshold.Int
		def.FlagThreshold = &threshold
	}
	return def
}

type assessmentRepository struct {
	db *sqlx.DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *sqlx.DB) assessment.Repository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) CreateProgram(ctx context.Context, p assessment.Program) (assessment.Program, error) {
	q := `
	INSERT INTO program (name, description, focus, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id`
	err := repo.db.QueryRowxContext(ctx, q, p.Name, p.Description, p.Focus, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		if isPqError(err, pqUniqueViolation) {
			return assessment.Program{}, assessment.ErrProgramExists
		}
		return assessment.Program{}, errors.Wrap(err, "creating program")
	}
	return p, nil
}

func (repo *assessmentRepository) GetProgram(ctx context.Context, id string) (assessment.Program, error) {
	var row programRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM program WHERE id = $1`, id); err != nil {
		return assessment.Program{}, trapNoRowsErr(err, assessment.ErrProgramNotFound)
	}
	return row.toProgram(), nil
}

func (repo *assessmentRepository) QueryPrograms(ctx context.Context) ([]assessment.Program, error) {
	rows := make([]programRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM program ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "querying programs")
	}
	programs := make([]assessment.Program, 0, len(rows))
	for _, r := range rows {
		programs = append(programs, r.toProgram())
	}
	return programs, nil
}

func (repo *assessmentRepository) UpdateProgram(ctx context.Context, p assessment.Program) (assessment.Program, error) {
	q := `
	UPDATE program SET name = $2, description = $3, focus = $4, updated_at = $5
	WHERE id = $1
	RETURNING *`
	var row programRow
	err := repo.db.GetContext(ctx, &row, q, p.ID, p.Name, p.Description, p.Focus, p.UpdatedAt)
	if err != nil {
		if isPqError(err, pqUniqueViolation) {
			return assessment.Program{}, assessment.ErrProgramExists
		}
		return assessment.Program{}, trapNoRowsErr(err, assessment.ErrProgramNotFound)
	}
	return row.toProgram(), nil
}

func (repo *assessmentRepository) DeleteProgram(ctx context.Context, id string) error {
	// assessment_definition.program_id is ON DELETE SET NULL; definitions
	// survive their program.
	res, err := repo.db.ExecContext(ctx, `DELETE FROM program WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting program")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assessment.ErrProgramNotFound
	}
	return nil
}

func (repo *assessmentRepository) CreateDefinition(ctx context.Context, d assessment.Definition) (assessment.Definition, error) {
	q := `
	INSERT INTO assessment_definition
		(program_id, name, kind, description, difficulty, scoring_rule, questions, flag_threshold, bands, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`
	err := repo.db.QueryRowxContext(
		ctx, q,
		null.NewString(d.ProgramID, d.ProgramID != ""), d.Name, d.Kind, d.Description, d.Difficulty,
		d.ScoringRule, d.Questions, null.IntFromPtr(d.FlagThreshold), d.Bands, d.CreatedAt, d.UpdatedAt,
	).Scan(&d.ID)
	if err != nil {
		if isPqError(err, pqUniqueViolation) {
			return assessment.Definition{}, assessment.ErrDefinitionExists
		}
		if isPqError(err, pqForeignKeyViolation) {
			return assessment.Definition{}, assessment.ErrProgramNotFound
		}
		return assessment.Definition{}, errors.Wrap(err, "creating assessment definition")
	}
	return d, nil
}

func (repo *assessmentRepository) GetDefinition(ctx context.Context, id string) (assessment.Definition, error) {
	var row definitionRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM assessment_definition WHERE id = $1`, id); err != nil {
		return assessment.Definition{}, trapNoRowsErr(err, assessment.ErrDefinitionNotFound)
	}
	return row.toDefinition(), nil
}

func (repo *assessmentRepository) QueryDefinitions(ctx context.Context, filter *assessment.DefinitionFilter, ordering []core.DBOrdering) ([]assessment.Definition, error) {
	q := `SELECT * FROM assessment_definition`
	var clauses []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Kind != "" {
			clauses = append(clauses, "kind = "+arg(filter.Kind))
		}
		if filter.ProgramID != "" {
			clauses = append(clauses, "program_id = "+arg(filter.ProgramID))
		}
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			clauses = append(clauses, fmt.Sprintf("(name ILIKE %[1]s OR description ILIKE %[1]s)", p))
		}
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += orderBy(ordering, "name")

	rows := make([]definitionRow, 0)
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying assessment definitions")
	}
	defs := make([]assessment.Definition, 0, len(rows))
	for _, r := range rows {
		defs = append(defs, r.toDefinition())
	}
	return defs, nil
}

func (repo *assessmentRepository) UpdateDefinition(ctx context.Context, d assessment.Definition) (assessment.Definition, error) {
	q := `
	UPDATE assessment_definition SET
		program_id = $2, name = $3, kind = $4, description = $5, difficulty = $6,
		scoring_rule = $7, questions = $8, flag_threshold = $9, bands = $10, updated_at = $11
	WHERE id = $1
	RETURNING *`
	var row definitionRow
	err := repo.db.GetContext(
		ctx, &row, q,
		d.ID, null.NewString(d.ProgramID, d.ProgramID != ""), d.Name, d.Kind, d.Description, d.Difficulty,
		d.ScoringRule, d.Questions, null.IntFromPtr(d.FlagThreshold), d.Bands, d.UpdatedAt,
	)
	if err != nil {
		if isPqError(err, pqUniqueViolation) {
			return assessment.Definition{}, assessment.ErrDefinitionExists
		}
		if isPqError(err, pqForeignKeyViolation) {
			return assessment.Definition{}, assessment.ErrProgramNotFound
		}
		return assessment.Definition{}, trapNoRowsErr(err, assessment.ErrDefinitionNotFound)
	}
	return row.toDefinition(), nil
}

func (repo *assessmentRepository) DeleteDefinition(ctx context.Context, id string) error {
	// assessment_result.definition_id is ON DELETE RESTRICT; the FK
	// violation means recorded results reference this definition.
	res, err := repo.db.ExecContext(ctx, `DELETE FROM assessment_definition WHERE id = $1`, id)
	if err != nil {
		if isPqError(err, pqForeignKeyViolation) {
			return assessment.ErrDefinitionInUse
		}
		return errors.Wrap(err, "deleting assessment definition")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return assessment.ErrDefinitionNotFound
	}
	return nil
}
