package assessment

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edusign/screener/core"
)

var (
	// errors
	ErrProgramNotFound    = errors.New("program not found")
	ErrDefinitionNotFound = errors.New("assessment not found")
	ErrProgramExists      = errors.New("a program with this name already exists")
	ErrDefinitionExists   = errors.New("an assessment with this name already exists")
	// ErrDefinitionInUse rejects deleting a definition that results still
	// reference; the result history must stay intact.
	ErrDefinitionInUse = errors.New("assessment has recorded results and cannot be deleted")
)

type (
	// DefinitionFilter fields are combined with AND.
	DefinitionFilter struct {
		Kind      string `query:"kind"`
		ProgramID string `query:"program_id"`
		Search    string `query:"search"`
	}

	Repository interface {
		CreateProgram(ctx context.Context, p Program) (Program, error)
		GetProgram(ctx context.Context, id string) (Program, error)
		QueryPrograms(ctx context.Context) ([]Program, error)
		UpdateProgram(ctx context.Context, p Program) (Program, error)
		// DeleteProgram detaches the program's definitions before deleting.
		DeleteProgram(ctx context.Context, id string) error

		CreateDefinition(ctx context.Context, d Definition) (Definition, error)
		GetDefinition(ctx context.Context, id string) (Definition, error)
		QueryDefinitions(ctx context.Context, filter *DefinitionFilter, ordering []core.DBOrdering) ([]Definition, error)
		UpdateDefinition(ctx context.Context, d Definition) (Definition, error)
		// DeleteDefinition fails with ErrDefinitionInUse when results
		// reference the definition.
		DeleteDefinition(ctx context.Context, id string) error
	}

	Service interface {
		CreateProgram(ctx context.Context, np NewProgram) (Program, error)
		GetProgram(ctx context.Context, id string) (Program, error)
		QueryPrograms(ctx context.Context) ([]Program, error)
		UpdateProgram(ctx context.Context, id string, up UpdateProgram) (Program, error)
		DeleteProgram(ctx context.Context, id string) error

		CreateDefinition(ctx context.Context, nd NewDefinition) (Definition, error)
		GetDefinition(ctx context.Context, id string) (Definition, error)
		QueryDefinitions(ctx context.Context, filter *DefinitionFilter, ordering []core.DBOrdering) ([]Definition, error)
		UpdateDefinition(ctx context.Context, id string, ud UpdateDefinition) (Definition, error)
		DeleteDefinition(ctx context.Context, id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CreateProgram(ctx context.Context, np NewProgram) (Program, error) {
	now := time.Now().UTC()
	return svc.repo.CreateProgram(ctx, Program{
		Name:        np.Name,
		Description: np.Description,
		Focus:       np.Focus,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *service) GetProgram(ctx context.Context, id string) (Program, error) {
	return svc.repo.GetProgram(ctx, id)
}

func (svc *service) QueryPrograms(ctx context.Context) ([]Program, error) {
	return svc.repo.QueryPrograms(ctx)
}

func (svc *service) UpdateProgram(ctx context.Context, id string, up UpdateProgram) (Program, error) {
	return svc.repo.UpdateProgram(ctx, Program{
		ID:          id,
		Name:        up.Name,
		Description: up.Description,
		Focus:       up.Focus,
		UpdatedAt:   time.Now().UTC(),
	})
}

func (svc *service) DeleteProgram(ctx context.Context, id string) error {
	return svc.repo.DeleteProgram(ctx, id)
}

func (svc *service) CreateDefinition(ctx context.Context, nd NewDefinition) (Definition, error) {
	now := time.Now().UTC()
	return svc.repo.CreateDefinition(ctx, Definition{
		ProgramID:     nd.ProgramID,
		Name:          nd.Name,
		Kind:          nd.Kind,
		Description:   nd.Description,
		Difficulty:    nd.Difficulty,
		ScoringRule:   nd.ScoringRule,
		Questions:     nd.Questions,
		FlagThreshold: nd.FlagThreshold,
		Bands:         nd.Bands,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (svc *service) GetDefinition(ctx context.Context, id string) (Definition, error) {
	return svc.repo.GetDefinition(ctx, id)
}

func (svc *service) QueryDefinitions(ctx context.Context, filter *DefinitionFilter, ordering []core.DBOrdering) ([]Definition, error) {
	return svc.repo.QueryDefinitions(ctx, filter, ordering)
}

func (svc *service) UpdateDefinition(ctx context.Context, id string, ud UpdateDefinition) (Definition, error) {
	return svc.repo.UpdateDefinition(ctx, Definition{
		ID:            id,
		ProgramID:     ud.ProgramID,
		Name:          ud.Name,
		Kind:          ud.Kind,
		Description:   ud.Description,
		Difficulty:    ud.Difficulty,
		ScoringRule:   ud.ScoringRule,
		Questions:     ud.Questions,
		FlagThreshold: ud.FlagThreshold,
		Bands:         ud.Bands,
		UpdatedAt:     time.Now().UTC(),
	})
}

func (svc *service) DeleteDefinition(ctx context.Context, id string) error {
	return svc.repo.DeleteDefinition(ctx, id)
}
