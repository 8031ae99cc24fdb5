package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/edusign/screener/core/assessment"
	"github.com/edusign/screener/core/result"
	"github.com/edusign/screener/core/user"
	testutil "github.com/edusign/screener/tests"
)

func readingQuestions() assessment.QuestionSet {
	return assessment.QuestionSet{
		{ID: "q1", Prompt: "Which word is spelled correctly?", Choices: []string{"freind", "friend"}, Answer: "friend"},
		{ID: "q2", Prompt: "Which word rhymes with 'light'?", Choices: []string{"late", "night"}, Answer: "night"},
		{ID: "q3", Prompt: "Pick the real word.", Choices: []string{"brane", "brain"}, Answer: "brain"},
		{ID: "q4", Prompt: "Which word is 'was' spelled backwards?", Choices: []string{"saw", "wsa"}, Answer: "saw"},
	}
}

func Test_assessmentApi_query(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", user.RoleStudent, true)
	reading := testutil.CreateDefinition(t, assessRepo, "Word Recognition", assessment.KindDyslexia, assessment.RuleCorrectCount, readingQuestions())
	memory := testutil.CreateDefinition(t, assessRepo, "Working Memory", assessment.KindMemory, assessment.RuleRubricBanding, assessment.QuestionSet{
		{ID: "q1", Prompt: "Type the sequence: 3 8 1", Answer: "3 8 1", Level: 1, Match: assessment.MatchFuzzy},
	})

	studentToken := getToken(t, student)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/assessments", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Answers are stripped", path: "/v1/assessments", token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, reading.Public(), memory.Public()),
		},
		{
			name: "Filter by kind", path: "/v1/assessments?kind=" + assessment.KindMemory, token: studentToken,
			wantCode: http.StatusOK, wantData: marchallList(t, memory.Public()),
		},
		{
			name: "Retrieve one", path: "/v1/assessments/" + reading.ID, token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, reading.Public()),
		},
		{
			name: "Unknown assessment", path: "/v1/assessments/lol", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "assessment not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assessmentApi_submit(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", user.RoleStudent, true)
	counselor := testutil.CreateUser(t, usrRepo, "Guide", "guide1", "guide@test.cd", "", user.RoleCounselor, true)
	reading := testutil.CreateDefinition(t, assessRepo, "Word Recognition", assessment.KindDyslexia, assessment.RuleCorrectCount, readingQuestions())

	studentToken := getToken(t, student)
	submitPath := "/v1/assessments/" + reading.ID + "/submit"

	body := func(answers map[string]string) []byte {
		return marchallObj(t, result.Submission{Answers: answers, DurationSecs: 42})
	}
	allCorrect := map[string]string{"q1": "friend", "q2": "night", "q3": "brain", "q4": "saw"}
	allWrong := map[string]string{"q1": "freind", "q2": "late", "q3": "brane", "q4": "wsa"}

	type extraTest struct {
		score   int
		band    string
		flagged bool
	}
	tests := []httpTest{
		{name: "Auth required", path: submitPath, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Students only", path: submitPath, token: getToken(t, counselor), body: body(allCorrect),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Unknown assessment", path: "/v1/assessments/lol/submit", token: studentToken, body: body(allCorrect),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "assessment not found"}),
		},
		{
			name: "Answers required", path: submitPath, token: studentToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"answers": "this field is required"}),
		},
		{
			name: "Incomplete answers", path: submitPath, token: studentToken,
			body:     body(map[string]string{"q1": "friend", "q2": "night", "q3": "brain"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"q4": "answer required"}),
		},
		{
			name: "Unknown question", path: submitPath, token: studentToken,
			body:     body(map[string]string{"q1": "friend", "q2": "night", "q3": "brain", "q4": "saw", "q5": "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"q5": "unknown question"}),
		},
		{
			name: "Perfect score", path: submitPath, token: studentToken, body: body(allCorrect),
			wantCode: http.StatusCreated, extra: extraTest{score: 4, band: assessment.BandLowRisk, flagged: false},
		},
		{
			name: "Flagged attempt", path: submitPath, token: studentToken, body: body(allWrong),
			wantCode: http.StatusCreated, extra: extraTest{score: 0, band: assessment.BandHighRisk, flagged: true},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if extra, ok := tt.extra.(extraTest); ok {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var res result.Result
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if res.UserID != student.ID {
					t.Errorf("failed! UserID = %s; want %s", res.UserID, student.ID)
				}
				if res.Kind != reading.Kind {
					t.Errorf("failed! Kind = %s; want %s", res.Kind, reading.Kind)
				}
				if res.Score != extra.score || res.MaxScore != 4 || res.Total != 4 {
					t.Errorf("failed! score = %d/%d of %d; want %d/4 of 4", res.Score, res.MaxScore, res.Total, extra.score)
				}
				if res.Band != extra.band {
					t.Errorf("failed! band = %s; want %s", res.Band, extra.band)
				}
				if res.Flagged != extra.flagged {
					t.Errorf("failed! flagged = %v; want %v", res.Flagged, extra.flagged)
				}
				if res.DurationSecs != 42 {
					t.Errorf("failed! duration = %d; want 42", res.DurationSecs)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assessmentApi_results(t *testing.T) {
	app := setup(t)

	hero := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", user.RoleStudent, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other1", "other@test.cd", "", user.RoleStudent, true)
	counselor := testutil.CreateUser(t, usrRepo, "Guide", "guide1", "guide@test.cd", "", user.RoleCounselor, true)

	reading := testutil.CreateDefinition(t, assessRepo, "Word Recognition", assessment.KindDyslexia, assessment.RuleCorrectCount, readingQuestions())
	memory := testutil.CreateDefinition(t, assessRepo, "Working Memory", assessment.KindMemory, assessment.RuleRubricBanding, assessment.QuestionSet{
		{ID: "q1", Prompt: "Type the sequence: 3 8 1", Answer: "3 8 1", Level: 1, Match: assessment.MatchFuzzy},
	})

	now := time.Now().UTC()
	oldReading := testutil.CreateResult(t, resRepo, hero, reading, 1, true, now.Add(-2*time.Hour))
	newReading := testutil.CreateResult(t, resRepo, hero, reading, 3, false, now.Add(-1*time.Hour))
	memoryRes := testutil.CreateResult(t, resRepo, hero, memory, 1, false, now)
	otherRes := testutil.CreateResult(t, resRepo, other, reading, 2, false, now)

	heroToken := getToken(t, hero)
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/results", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Own results only", path: "/v1/results", token: heroToken,
			wantCode: http.StatusOK, wantData: marchallList(t, memoryRes, newReading, oldReading),
		},
		{
			name: "No results", path: "/v1/results", token: getToken(t, counselor),
			wantCode: http.StatusOK, wantData: empty,
		},
		{
			name: "Latest per kind", path: "/v1/results/latest", token: heroToken,
			wantCode: http.StatusOK, wantData: marchallList(t, newReading, memoryRes),
		},
		{
			name: "Retrieve own", path: "/v1/results/" + newReading.ID, token: heroToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, newReading),
		},
		{
			name: "Someone else's result is hidden", path: "/v1/results/" + otherRes.ID, token: heroToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Counselor sees any result", path: "/v1/results/" + otherRes.ID, token: getToken(t, counselor),
			wantCode: http.StatusOK, wantData: marchallObj(t, otherRes),
		},
		{
			name: "Unknown result", path: "/v1/results/lol", token: heroToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "result not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
