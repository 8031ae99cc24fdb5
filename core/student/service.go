package student

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrProfileNotFound = errors.New("student profile not found")

type (
	Repository interface {
		GetProfile(ctx context.Context, userID string) (Profile, error)
		// UpsertProfile inserts or overwrites the profile and marks the
		// owning user's intake as completed, atomically.
		UpsertProfile(ctx context.Context, p Profile) (Profile, error)
	}

	Service interface {
		Get(ctx context.Context, userID string) (Profile, error)
		Save(ctx context.Context, userID string, is IntakeSurvey) (Profile, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Get(ctx context.Context, userID string) (Profile, error) {
	return svc.repo.GetProfile(ctx, userID)
}

func (svc *service) Save(ctx context.Context, userID string, is IntakeSurvey) (Profile, error) {
	now := time.Now().UTC()
	p := Profile{
		UserID:                userID,
		Age:                   is.Age,
		Gender:                is.Gender,
		Course:                is.Course,
		Year:                  is.Year,
		LearningStyle:         is.LearningStyle,
		DiagnosedDifficulties: is.DiagnosedDifficulties,
		AgeGroup:              is.AgeGroup,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	return svc.repo.UpsertProfile(ctx, p)
}
