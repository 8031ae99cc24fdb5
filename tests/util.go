package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/edusign/screener/core/assessment"
	"github.com/edusign/screener/core/result"
	"github.com/edusign/screener/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateProgram(t *testing.T, repo assessment.Repository, name, focus string) assessment.Program {
	t.Helper()

	now := time.Now().UTC()
	p, err := repo.CreateProgram(context.Background(), assessment.Program{
		Name:      name,
		Focus:     focus,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateProgram() failed: %v", err)
	}
	return p
}

func CreateDefinition(
	t *testing.T,
	repo assessment.Repository,
	name, kind, rule string,
	questions assessment.QuestionSet,
) assessment.Definition {
	t.Helper()

	now := time.Now().UTC()
	def, err := repo.CreateDefinition(context.Background(), assessment.Definition{
		Name:        name,
		Kind:        kind,
		Difficulty:  assessment.DifficultyMedium,
		ScoringRule: rule,
		Questions:   questions,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateDefinition() failed: %v", err)
	}
	return def
}

func CreateResult(
	t *testing.T,
	repo result.Repository,
	usr user.User,
	def assessment.Definition,
	score int,
	flagged bool,
	createdAt ...time.Time,
) result.Result {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	band := assessment.BandLowRisk
	if flagged {
		band = assessment.BandHighRisk
	}
	res, err := repo.CreateResult(context.Background(), result.Result{
		UserID:       usr.ID,
		DefinitionID: def.ID,
		Kind:         def.Kind,
		Score:        score,
		MaxScore:     len(def.Questions),
		Total:        len(def.Questions),
		Band:         band,
		Flagged:      flagged,
		CreatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("CreateResult() failed: %v", err)
	}
	return res
}
