package dummydb

import (
	"context"

	"github.com/edusign/screener/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) GetProfile(_ context.Context, userID string) (student.Profile, error) {
	repo.db.profile.RLock()
	defer repo.db.profile.RUnlock()

	if p, ok := repo.db.profile.table[userID]; ok {
		return *p, nil
	}
	return student.Profile{}, student.ErrProfileNotFound
}

func (repo *studentRepository) UpsertProfile(_ context.Context, p student.Profile) (student.Profile, error) {
	repo.db.profile.Lock()
	if orig, ok := repo.db.profile.table[p.UserID]; ok {
		p.CreatedAt = orig.CreatedAt
	}
	repo.db.profile.table[p.UserID] = &p
	repo.db.profile.Unlock()

	repo.db.user.Lock()
	if usr, ok := repo.db.user.table[p.UserID]; ok {
		usr.CompletedIntake = true
	}
	repo.db.user.Unlock()

	return p, nil
}
