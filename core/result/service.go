package result

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edusign/screener/core"
	"github.com/edusign/screener/core/assessment"
)

var ErrNotFound = errors.New("result not found")

type (
	Repository interface {
		CreateResult(ctx context.Context, res Result) (Result, error)
		GetResult(ctx context.Context, id string) (Result, error)
		QueryResultsByUser(ctx context.Context, userID string, ordering []core.DBOrdering) ([]Result, error)
		// LatestPerKind returns the newest result of each kind the user has
		// attempted.
		LatestPerKind(ctx context.Context, userID string) ([]Result, error)
		CountByUserAndDefinition(ctx context.Context, userID, definitionID string) (int, error)
	}

	Service interface {
		// Submit scores the answers against the definition and records the
		// attempt. The stored result is immutable.
		Submit(ctx context.Context, userID string, def assessment.Definition, sub Submission) (Result, error)
		Get(ctx context.Context, id string) (Result, error)
		QueryByUser(ctx context.Context, userID string, ordering []core.DBOrdering) ([]Result, error)
		LatestPerKind(ctx context.Context, userID string) ([]Result, error)
		CountAttempts(ctx context.Context, userID, definitionID string) (int, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Submit(ctx context.Context, userID string, def assessment.Definition, sub Submission) (Result, error) {
	ev, err := def.Evaluate(sub.Answers)
	if err != nil {
		return Result{}, err
	}

	return svc.repo.CreateResult(ctx, Result{
		UserID:       userID,
		DefinitionID: def.ID,
		Kind:         def.Kind,
		Score:        ev.Score,
		MaxScore:     ev.MaxScore,
		Total:        ev.Total,
		Band:         ev.Band,
		Flagged:      ev.Flagged,
		Message:      ev.Message,
		Answers:      sub.Answers,
		DurationSecs: sub.DurationSecs,
		CreatedAt:    time.Now().UTC(),
	})
}

func (svc *service) Get(ctx context.Context, id string) (Result, error) {
	return svc.repo.GetResult(ctx, id)
}

func (svc *service) QueryByUser(ctx context.Context, userID string, ordering []core.DBOrdering) ([]Result, error) {
	return svc.repo.QueryResultsByUser(ctx, userID, ordering)
}

func (svc *service) LatestPerKind(ctx context.Context, userID string) ([]Result, error) {
	return svc.repo.LatestPerKind(ctx, userID)
}

func (svc *service) CountAttempts(ctx context.Context, userID, definitionID string) (int, error) {
	return svc.repo.CountByUserAndDefinition(ctx, userID, definitionID)
}
