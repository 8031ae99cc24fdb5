package dummydb

import (
	"context"
	"sort"

	"github.com/edusign/screener/core/report"
	"github.com/edusign/screener/core/user"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) QueryKindAggregates(_ context.Context) ([]report.KindAggregate, error) {
	repo.db.result.RLock()
	defer repo.db.result.RUnlock()

	byKind := make(map[string]*report.KindAggregate)
	sums := make(map[string]int)
	for _, res := range repo.db.result.table {
		agg, ok := byKind[res.Kind]
		if !ok {
			agg = &report.KindAggregate{Kind: res.Kind}
			byKind[res.Kind] = agg
		}
		agg.Total++
		sums[res.Kind] += res.Score
		if res.Flagged {
			agg.Flagged++
		}
	}

	aggs := make([]report.KindAggregate, 0, len(byKind))
	for kind, agg := range byKind {
		agg.AvgScore = float64(sums[kind]) / float64(agg.Total)
		aggs = append(aggs, *agg)
	}
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].Kind < aggs[j].Kind })
	return aggs, nil
}

func (repo *reportRepository) QueryExportRows(_ context.Context, filter *report.ExportFilter) ([]report.ExportRow, error) {
	repo.db.result.RLock()
	defer repo.db.result.RUnlock()

	rows := make([]report.ExportRow, 0)
	for _, res := range repo.db.result.table {
		if filter != nil {
			if filter.StudentID != "" && res.UserID != filter.StudentID {
				continue
			}
			if filter.Kind != "" && res.Kind != filter.Kind {
				continue
			}
		}

		row := report.ExportRow{
			Kind:      res.Kind,
			Score:     res.Score,
			MaxScore:  res.MaxScore,
			Band:      res.Band,
			Flagged:   res.Flagged,
			Message:   res.Message,
			CreatedAt: res.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		repo.db.user.RLock()
		if usr, ok := repo.db.user.table[res.UserID]; ok {
			row.StudentName = usr.Name
			row.Username = usr.Username
		}
		repo.db.user.RUnlock()
		repo.db.definition.RLock()
		if def, ok := repo.db.definition.table[res.DefinitionID]; ok {
			row.AssessmentName = def.Name
		}
		repo.db.definition.RUnlock()

		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt > rows[j].CreatedAt })
	return rows, nil
}

func (repo *reportRepository) CountStudents(_ context.Context) (int, error) {
	repo.db.user.RLock()
	defer repo.db.user.RUnlock()

	var count int
	for _, usr := range repo.db.user.table {
		if usr.Role == user.RoleStudent {
			count++
		}
	}
	return count, nil
}
