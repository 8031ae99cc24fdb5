package dummydb

import (
	"context"
	"sort"

	"github.com/edusign/screener/core"
	"github.com/edusign/screener/core/result"
)

type resultRepository struct {
	db *resultTable
}

var _ result.Repository = (*resultRepository)(nil) // interface compliance check

func NewResultRepository(db *DB) result.Repository {
	return &resultRepository{db: db.result}
}

func (repo *resultRepository) CreateResult(_ context.Context, res result.Result) (result.Result, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	res.ID = newPK()
	repo.db.table[res.ID] = &res
	return res, nil
}

func (repo *resultRepository) GetResult(_ context.Context, id string) (result.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if res, ok := repo.db.table[id]; ok {
		return *res, nil
	}
	return result.Result{}, result.ErrNotFound
}

func (repo *resultRepository) QueryResultsByUser(_ context.Context, userID string, _ []core.DBOrdering) ([]result.Result, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	results := make([]result.Result, 0)
	for _, res := range repo.db.table {
		if res.UserID == userID {
			results = append(results, *res)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CreatedAt.After(results[j].CreatedAt) })
	return results, nil
}

func (repo *resultRepository) LatestPerKind(ctx context.Context, userID string) ([]result.Result, error) {
	all, err := repo.QueryResultsByUser(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	latest := make([]result.Result, 0)
	seen := make(map[string]bool)
	for _, res := range all { // already newest first
		if seen[res.Kind] {
			continue
		}
		seen[res.Kind] = true
		latest = append(latest, res)
	}
	sort.Slice(latest, func(i, j int) bool { return latest[i].Kind < latest[j].Kind })
	return latest, nil
}

func (repo *resultRepository) CountByUserAndDefinition(_ context.Context, userID, definitionID string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var count int
	for _, res := range repo.db.table {
		if res.UserID == userID && res.DefinitionID == definitionID {
			count++
		}
	}
	return count, nil
}
