package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edusign/screener/core/student"
)

type profileRow struct {
	UserID                string    `db:"user_id"`
	Age                   int       `db:"age"`
	Gender                string    `db:"gender"`
	Course                string    `db:"course"`
	Year                  string    `db:"year"`
	LearningStyle         string    `db:"learning_style"`
	DiagnosedDifficulties string    `db:"diagnosed_difficulties"`
	AgeGroup              string    `db:"age_group"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

func (r profileRow) toProfile() student.Profile {
	return student.Profile(r)
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) GetProfile(ctx context.Context, userID string) (student.Profile, error) {
	var row profileRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM student_profile WHERE user_id = $1`, userID)
	if err != nil {
		return student.Profile{}, trapNoRowsErr(err, student.ErrProfileNotFound)
	}
	return row.toProfile(), nil
}

func (repo *studentRepository) UpsertProfile(ctx context.Context, p student.Profile) (student.Profile, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return student.Profile{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `
	INSERT INTO student_profile (user_id, age, gender, course, year, learning_style, diagnosed_difficulties, age_group, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	ON CONFLICT (user_id) DO UPDATE SET
		age = EXCLUDED.age,
		gender = EXCLUDED.gender,
		course = EXCLUDED.course,
		year = EXCLUDED.year,
		learning_style = EXCLUDED.learning_style,
		diagnosed_difficulties = EXCLUDED.diagnosed_difficulties,
		age_group = EXCLUDED.age_group,
		updated_at = EXCLUDED.updated_at
	RETURNING *`
	var row profileRow
	err = tx.GetContext(
		ctx, &row, q,
		p.UserID, p.Age, p.Gender, p.Course, p.Year, p.LearningStyle, p.DiagnosedDifficulties, p.AgeGroup, p.UpdatedAt,
	)
	if err != nil {
		return student.Profile{}, errors.Wrap(err, "saving student profile")
	}

	if _, err = tx.ExecContext(ctx, `UPDATE "user" SET completed_intake = true WHERE id = $1`, p.UserID); err != nil {
		return student.Profile{}, errors.Wrap(err, "marking intake completed")
	}

	if err = tx.Commit(); err != nil {
		return student.Profile{}, errors.Wrap(err, "committing transaction")
	}
	return row.toProfile(), nil
}
