// Package dummydb provides in-memory repositories for tests.
package dummydb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/edusign/screener/core/assessment"
	"github.com/edusign/screener/core/result"
	"github.com/edusign/screener/core/student"
	"github.com/edusign/screener/core/user"
)

type (
	DB struct {
		user       *userTable
		profile    *profileTable
		program    *programTable
		definition *definitionTable
		result     *resultTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	profileTable struct {
		sync.RWMutex
		table map[string]*student.Profile // keyed by user id
	}

	programTable struct {
		sync.RWMutex
		table map[string]*assessment.Program
	}

	definitionTable struct {
		sync.RWMutex
		table map[string]*assessment.Definition
	}

	resultTable struct {
		sync.RWMutex
		table map[string]*result.Result
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		profile:    &profileTable{table: make(map[string]*student.Profile)},
		program:    &programTable{table: make(map[string]*assessment.Program)},
		definition: &definitionTable{table: make(map[string]*assessment.Definition)},
		result:     &resultTable{table: make(map[string]*result.Result)},
	}
	return db, nil
}

func newPK() string { return uuid.New().String() }
