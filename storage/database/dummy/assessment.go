package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/edusign/screener/core"
	"github.com/edusign/screener/core/assessment"
)

type assessmentRepository struct {
	db *DB
}

var _ assessment.Repository = (*assessmentRepository)(nil) // interface compliance check

func NewAssessmentRepository(db *DB) assessment.Repository {
	return &assessmentRepository{db: db}
}

func (repo *assessmentRepository) CreateProgram(_ context.Context, p assessment.Program) (assessment.Program, error) {
	repo.db.program.Lock()
	defer repo.db.program.Unlock()

	for _, prog := range repo.db.program.table {
		if prog.Name == p.Name {
			return assessment.Program{}, assessment.ErrProgramExists
		}
	}
	p.ID = newPK()
	repo.db.program.table[p.ID] = &p
	return p, nil
}

func (repo *assessmentRepository) GetProgram(_ context.Context, id string) (assessment.Program, error) {
	repo.db.program.RLock()
	defer repo.db.program.RUnlock()

	if p, ok := repo.db.program.table[id]; ok {
		return *p, nil
	}
	return assessment.Program{}, assessment.ErrProgramNotFound
}

func (repo *assessmentRepository) QueryPrograms(_ context.Context) ([]assessment.Program, error) {
	repo.db.program.RLock()
	defer repo.db.program.RUnlock()

	programs := make([]assessment.Program, 0, len(repo.db.program.table))
	for _, p := range repo.db.program.table {
		programs = append(programs, *p)
	}
	sort.Slice(programs, func(i, j int) bool { return programs[i].Name < programs[j].Name })
	return programs, nil
}

func (repo *assessmentRepository) UpdateProgram(_ context.Context, p assessment.Program) (assessment.Program, error) {
	repo.db.program.Lock()
	defer repo.db.program.Unlock()

	orig, ok := repo.db.program.table[p.ID]
	if !ok {
		return assessment.Program{}, assessment.ErrProgramNotFound
	}
	p.CreatedAt = orig.CreatedAt
	repo.db.program.table[p.ID] = &p
	return p, nil
}

func (repo *assessmentRepository) DeleteProgram(_ context.Context, id string) error {
	repo.db.program.Lock()
	if _, ok := repo.db.program.table[id]; !ok {
		repo.db.program.Unlock()
		return assessment.ErrProgramNotFound
	}
	delete(repo.db.program.table, id)
	repo.db.program.Unlock()

	// detach definitions, matching the FK's ON DELETE SET NULL
	repo.db.definition.Lock()
	for _, def := range repo.db.definition.table {
		if def.ProgramID == id {
			def.ProgramID = ""
		}
	}
	repo.db.definition.Unlock()
	return nil
}

func (repo *assessmentRepository) CreateDefinition(_ context.Context, d assessment.Definition) (assessment.Definition, error) {
	repo.db.definition.Lock()
	defer repo.db.definition.Unlock()

	for _, def := range repo.db.definition.table {
		if def.Name == d.Name {
			return assessment.Definition{}, assessment.ErrDefinitionExists
		}
	}
	d.ID = newPK()
	repo.db.definition.table[d.ID] = &d
	return d, nil
}

func (repo *assessmentRepository) GetDefinition(_ context.Context, id string) (assessment.Definition, error) {
	repo.db.definition.RLock()
	defer repo.db.definition.RUnlock()

	if d, ok := repo.db.definition.table[id]; ok {
		return *d, nil
	}
	return assessment.Definition{}, assessment.ErrDefinitionNotFound
}

func (repo *assessmentRepository) QueryDefinitions(_ context.Context, filter *assessment.DefinitionFilter, _ []core.DBOrdering) ([]assessment.Definition, error) {
	repo.db.definition.RLock()
	defer repo.db.definition.RUnlock()

	defs := make([]assessment.Definition, 0, len(repo.db.definition.table))
	for _, d := range repo.db.definition.table {
		if filter != nil {
			if filter.Kind != "" && d.Kind != filter.Kind {
				continue
			}
			if filter.ProgramID != "" && d.ProgramID != filter.ProgramID {
				continue
			}
			if filter.Search != "" {
				search := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(d.Name), search) &&
					!strings.Contains(strings.ToLower(d.Description), search) {
					continue
				}
			}
		}
		defs = append(defs, *d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

func (repo *assessmentRepository) UpdateDefinition(_ context.Context, d assessment.Definition) (assessment.Definition, error) {
	repo.db.definition.Lock()
	defer repo.db.definition.Unlock()

	orig, ok := repo.db.definition.table[d.ID]
	if !ok {
		return assessment.Definition{}, assessment.ErrDefinitionNotFound
	}
	d.CreatedAt = orig.CreatedAt
	repo.db.definition.table[d.ID] = &d
	return d, nil
}

func (repo *assessmentRepository) DeleteDefinition(_ context.Context, id string) error {
	repo.db.result.RLock()
	for _, res := range repo.db.result.table {
		if res.DefinitionID == id {
			repo.db.result.RUnlock()
			return assessment.ErrDefinitionInUse
		}
	}
	repo.db.result.RUnlock()

	repo.db.definition.Lock()
	defer repo.db.definition.Unlock()
	if _, ok := repo.db.definition.table[id]; !ok {
		return assessment.ErrDefinitionNotFound
	}
	delete(repo.db.definition.table, id)
	return nil
}
