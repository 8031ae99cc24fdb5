package report_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"io/ioutil"
	"log"
	"testing"

	"github.com/edusign/screener/core"
	"github.com/edusign/screener/core/assessment"
	"github.com/edusign/screener/core/report"
	"github.com/edusign/screener/core/result"
	"github.com/edusign/screener/core/user"
	emailsvc "github.com/edusign/screener/services/email"
	logsvc "github.com/edusign/screener/services/logger"
	dummydb "github.com/edusign/screener/storage/database/dummy"
	testutil "github.com/edusign/screener/tests"
)

type testEnv struct {
	svc        report.Service
	usrRepo    user.Repository
	assessRepo assessment.Repository
	resRepo    result.Repository
}

func setup(t *testing.T) testEnv {
	t.Helper()

	core.Conf = &core.Config{
		AppName:          "Screener",
		DefaultFromEmail: "noreply@test.test",
	}

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}

	usrRepo := dummydb.NewUserRepository(db)
	resRepo := dummydb.NewResultRepository(db)
	logger := logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
	usrSvc := user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(), logger)
	resultSvc := result.NewService(resRepo)

	return testEnv{
		svc:        report.NewService(dummydb.NewReportRepository(db), usrSvc, resultSvc),
		usrRepo:    usrRepo,
		assessRepo: dummydb.NewAssessmentRepository(db),
		resRepo:    resRepo,
	}
}

func (env testEnv) seed(t *testing.T) (hero, other user.User) {
	t.Helper()

	hero = testutil.CreateUser(t, env.usrRepo, "Hero", "hero01", "hero@test.cd", "", user.RoleStudent, true)
	other = testutil.CreateUser(t, env.usrRepo, "Other", "other1", "other@test.cd", "", user.RoleStudent, true)
	testutil.CreateUser(t, env.usrRepo, "Guide", "guide1", "guide@test.cd", "", user.RoleCounselor, true)

	reading := testutil.CreateDefinition(t, env.assessRepo, "Word Recognition", assessment.KindDyslexia, assessment.RuleCorrectCount, assessment.QuestionSet{
		{ID: "q1", Prompt: "Which word is spelled correctly?", Answer: "friend"},
		{ID: "q2", Prompt: "Pick the real word.", Answer: "brain"},
	})
	math := testutil.CreateDefinition(t, env.assessRepo, "Number Sense", assessment.KindDyscalculia, assessment.RuleCorrectCount, assessment.QuestionSet{
		{ID: "q1", Prompt: "What is 7 + 5?", Answer: "12"},
	})

	testutil.CreateResult(t, env.resRepo, hero, reading, 0, true)
	testutil.CreateResult(t, env.resRepo, hero, reading, 2, false)
	testutil.CreateResult(t, env.resRepo, other, math, 1, false)
	return hero, other
}

func Test_service_overview(t *testing.T) {
	env := setup(t)
	hero, _ := env.seed(t)
	ctx := context.Background()

	count, err := env.svc.StudentCount(ctx)
	if err != nil {
		t.Fatalf("StudentCount() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("StudentCount() = %d; want 2", count)
	}

	students, err := env.svc.Students(ctx)
	if err != nil {
		t.Fatalf("Students() failed: %v", err)
	}
	if len(students) != 2 {
		t.Fatalf("Students() returned %d users; want 2", len(students))
	}
	for _, s := range students {
		if s.Role != user.RoleStudent {
			t.Errorf("Students() returned a %s", s.Role)
		}
	}

	results, err := env.svc.StudentResults(ctx, hero.ID)
	if err != nil {
		t.Fatalf("StudentResults() failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("StudentResults() returned %d results; want 2", len(results))
	}

	aggs, err := env.svc.Aggregates(ctx)
	if err != nil {
		t.Fatalf("Aggregates() failed: %v", err)
	}
	want := []report.KindAggregate{
		{Kind: assessment.KindDyscalculia, AvgScore: 1, Total: 1, Flagged: 0},
		{Kind: assessment.KindDyslexia, AvgScore: 1, Total: 2, Flagged: 1},
	}
	if len(aggs) != len(want) {
		t.Fatalf("Aggregates() = %v; want %v", aggs, want)
	}
	for i, agg := range aggs {
		if agg != want[i] {
			t.Errorf("Aggregates()[%d] = %v; want %v", i, agg, want[i])
		}
	}
}

func Test_service_Aggregates_empty(t *testing.T) {
	env := setup(t)

	aggs, err := env.svc.Aggregates(context.Background())
	if err != nil {
		t.Fatalf("Aggregates() failed: %v", err)
	}
	if aggs == nil || len(aggs) != 0 {
		t.Errorf("Aggregates() = %v; want empty non-nil slice", aggs)
	}
}

func Test_service_ChartSeries(t *testing.T) {
	env := setup(t)
	env.seed(t)
	ctx := context.Background()

	tests := []struct {
		metric string
		want   []report.ChartPoint
	}{
		{
			metric: report.MetricAvgScore,
			want:   []report.ChartPoint{{Label: assessment.KindDyscalculia, Value: 1}, {Label: assessment.KindDyslexia, Value: 1}},
		},
		{
			metric: report.MetricResultCount,
			want:   []report.ChartPoint{{Label: assessment.KindDyscalculia, Value: 1}, {Label: assessment.KindDyslexia, Value: 2}},
		},
		{
			metric: report.MetricFlaggedCount,
			want:   []report.ChartPoint{{Label: assessment.KindDyscalculia, Value: 0}, {Label: assessment.KindDyslexia, Value: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.metric, func(t *testing.T) {
			points, err := env.svc.ChartSeries(ctx, tt.metric)
			if err != nil {
				t.Fatalf("ChartSeries() failed: %v", err)
			}
			if len(points) != len(tt.want) {
				t.Fatalf("ChartSeries() = %v; want %v", points, tt.want)
			}
			for i, pt := range points {
				if pt != tt.want[i] {
					t.Errorf("ChartSeries()[%d] = %v; want %v", i, pt, tt.want[i])
				}
			}
		})
	}

	_, err := env.svc.ChartSeries(ctx, "lol")
	vErr, ok := err.(*core.ValidationError)
	if !ok {
		t.Fatalf("ChartSeries() error = %v; want *core.ValidationError", err)
	}
	if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "metric" {
		t.Errorf("ChartSeries() fields = %v", vErr.Fields)
	}
}

func Test_service_ExportCSV(t *testing.T) {
	env := setup(t)
	hero, _ := env.seed(t)
	ctx := context.Background()

	var buff bytes.Buffer
	n, err := env.svc.ExportCSV(ctx, &buff, nil)
	if err != nil {
		t.Fatalf("ExportCSV() failed: %v", err)
	}
	if n != 3 {
		t.Errorf("ExportCSV() = %d rows; want 3", n)
	}

	records, err := csv.NewReader(&buff).ReadAll()
	if err != nil {
		t.Fatalf("csv.ReadAll() failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("export has %d lines; want 4", len(records))
	}
	wantHeader := []string{"Student", "Username", "Assessment", "Kind", "Score", "Max Score", "Band", "Flagged", "Message", "Date"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %s; want %s", i, records[0][i], col)
		}
	}
	var flaggedCount int
	for _, row := range records[1:] {
		if row[7] == "Yes" {
			flaggedCount++
		}
	}
	if flaggedCount != 1 {
		t.Errorf("export has %d flagged rows; want 1", flaggedCount)
	}

	// filtered by student
	buff.Reset()
	n, err = env.svc.ExportCSV(ctx, &buff, &report.ExportFilter{StudentID: hero.ID})
	if err != nil {
		t.Fatalf("ExportCSV() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("ExportCSV() = %d rows; want 2", n)
	}
}
