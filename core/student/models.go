package student

import (
	"context"
	"time"

	"github.com/edusign/screener/core"
)

// Learning styles captured by the intake survey.
const (
	StyleVisual      = "visual"
	StyleAuditory    = "auditory"
	StyleKinesthetic = "kinesthetic"
	StyleReading     = "reading-writing"
)

// Profile holds a student's one-time "get to know you" intake answers.
// There is at most one per student; edits overwrite (last write wins).
type Profile struct {
	UserID                string    `json:"user_id"`
	Age                   int       `json:"age"`
	Gender                string    `json:"gender"`
	Course                string    `json:"course"`
	Year                  string    `json:"year"`
	LearningStyle         string    `json:"learning_style"`
	DiagnosedDifficulties string    `json:"diagnosed_difficulties"`
	AgeGroup              string    `json:"age_group"`
	CreatedAt             time.Time `json:"created_at"` // UTC
	UpdatedAt             time.Time `json:"updated_at"` // UTC
}

// IntakeSurvey is the payload of the "get to know you" form.
type IntakeSurvey struct {
	Age                   int    `json:"age" validate:"required,gte=5,lte=100"`
	Gender                string `json:"gender" validate:"required"`
	Course                string `json:"course" validate:"required"`
	Year                  string `json:"year" validate:"required"`
	LearningStyle         string `json:"learning_style" validate:"required,oneof=visual auditory kinesthetic reading-writing"`
	DiagnosedDifficulties string `json:"diagnosed_difficulties"`
	AgeGroup              string `json:"age_group"`
}

func (is *IntakeSurvey) Validate(ctx context.Context) error {
	is.Gender = core.CleanString(is.Gender)
	is.Course = core.CleanString(is.Course)
	is.Year = core.CleanString(is.Year)
	is.LearningStyle = core.CleanString(is.LearningStyle, true /* lower */)
	is.DiagnosedDifficulties = core.CleanString(is.DiagnosedDifficulties)
	is.AgeGroup = core.CleanString(is.AgeGroup)

	return core.Validate.StructCtx(ctx, is)
}
