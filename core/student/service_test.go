package student_test

import (
	"context"
	"testing"

	"github.com/edusign/screener/core/student"
	"github.com/edusign/screener/core/user"
	dummydb "github.com/edusign/screener/storage/database/dummy"
	testutil "github.com/edusign/screener/tests"
)

func setup(t *testing.T) (student.Service, user.Repository) {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return student.NewService(dummydb.NewStudentRepository(db)), dummydb.NewUserRepository(db)
}

func Test_service_Save(t *testing.T) {
	svc, usrRepo := setup(t)
	ctx := context.Background()

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", user.RoleStudent, true)

	if _, err := svc.Get(ctx, hero.ID); err != student.ErrProfileNotFound {
		t.Fatalf("Get() error = %v; want ErrProfileNotFound", err)
	}

	profile, err := svc.Save(ctx, hero.ID, student.IntakeSurvey{
		Age:           12,
		Gender:        "female",
		Course:        "Primary",
		Year:          "6",
		LearningStyle: student.StyleVisual,
	})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if profile.UserID != hero.ID || profile.Age != 12 {
		t.Errorf("Save() profile = %+v", profile)
	}

	// intake completion is recorded on the user
	refreshed, err := usrRepo.GetUser(ctx, user.GetFilter{ID: hero.ID})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if !refreshed.CompletedIntake {
		t.Error("expected CompletedIntake to be set")
	}

	// saving again overwrites the answers and keeps the original CreatedAt
	updated, err := svc.Save(ctx, hero.ID, student.IntakeSurvey{
		Age:           13,
		Gender:        "female",
		Course:        "Primary",
		Year:          "7",
		LearningStyle: student.StyleAuditory,
	})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if updated.Age != 13 || updated.LearningStyle != student.StyleAuditory {
		t.Errorf("Save() did not overwrite: %+v", updated)
	}
	if !updated.CreatedAt.Equal(profile.CreatedAt) {
		t.Errorf("Save() CreatedAt = %v; want %v", updated.CreatedAt, profile.CreatedAt)
	}
}
