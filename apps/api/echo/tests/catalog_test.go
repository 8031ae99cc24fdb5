package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/edusign/screener/core/assessment"
	"github.com/edusign/screener/core/user"
	testutil "github.com/edusign/screener/tests"
)

func Test_catalogApi_programCRUD(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", user.RoleStudent, true)
	counselor := testutil.CreateUser(t, usrRepo, "Guide", "guide1", "guide@test.cd", "", user.RoleCounselor, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", user.RoleAdmin, true)

	existing := testutil.CreateProgram(t, assessRepo, "Numeracy Foundations", assessment.KindDyscalculia)
	counselorToken := getToken(t, counselor)
	adminToken := getToken(t, admin)
	forbidden := marchallObj(t, httpErr{Error: "permission denied"})

	tests := []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/programs", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Student denied", method: http.MethodGet, path: "/v1/programs", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: forbidden},
		{
			name: "Counselor can list", method: http.MethodGet, path: "/v1/programs", token: counselorToken,
			wantCode: http.StatusOK, wantData: marchallList(t, existing),
		},
		{
			name: "List", method: http.MethodGet, path: "/v1/programs", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, existing),
		},
		{
			name: "Name required", method: http.MethodPost, path: "/v1/programs", token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "Duplicate name", method: http.MethodPost, path: "/v1/programs", token: adminToken,
			body:     marchallObj(t, assessment.NewProgram{Name: existing.Name}),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "a program with this name already exists"}),
		},
		{
			name: "Counselor created", method: http.MethodPost, path: "/v1/programs", token: counselorToken,
			body:     marchallObj(t, assessment.NewProgram{Name: "Reading Support", Focus: assessment.KindDyslexia}),
			wantCode: http.StatusCreated,
		},
		{
			name: "Retrieve", method: http.MethodGet, path: "/v1/programs/" + existing.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, existing),
		},
		{
			name: "Unknown program", method: http.MethodGet, path: "/v1/programs/lol", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "program not found"}),
		},
		{
			name: "Updated", method: http.MethodPut, path: "/v1/programs/" + existing.ID, token: adminToken,
			body:     marchallObj(t, assessment.UpdateProgram{Description: "Pattern and quantity practice."}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			switch tt.wantCode {
			case http.StatusCreated:
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var p assessment.Program
				if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if p.ID == "" || p.Name != "Reading Support" {
					t.Errorf("failed! program = %+v", p)
				}
			case http.StatusOK:
				if tt.method != http.MethodPut {
					checkCodeAndData(t, tt, rec)
					return
				}
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var p assessment.Program
				if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				// untouched fields keep their value
				if p.Name != existing.Name || p.Description != "Pattern and quantity practice." {
					t.Errorf("failed! program = %+v", p)
				}
			default:
				checkCodeAndData(t, tt, rec)
			}
		})
	}

	// deleting a program detaches its definitions
	def := testutil.CreateDefinition(t, assessRepo, "Number Sense", assessment.KindDyscalculia, assessment.RuleCorrectCount, assessment.QuestionSet{
		{ID: "q1", Prompt: "What is 7 + 5?", Answer: "12"},
	})
	def.ProgramID = existing.ID
	if _, err := assessRepo.UpdateDefinition(context.Background(), def); err != nil {
		t.Fatalf("UpdateDefinition() failed: %v", err)
	}

	req, rec := newAuthRequest(http.MethodDelete, "/v1/programs/"+existing.ID, adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}
	detached, err := assessRepo.GetDefinition(context.Background(), def.ID)
	if err != nil {
		t.Fatalf("GetDefinition() failed: %v", err)
	}
	if detached.ProgramID != "" {
		t.Errorf("expected definition to be detached from the deleted program, got %q", detached.ProgramID)
	}
}

func Test_catalogApi_definitionCRUD(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Hero", "hero01", "hero@test.cd", "", user.RoleStudent, true)
	counselor := testutil.CreateUser(t, usrRepo, "Guide", "guide1", "guide@test.cd", "", user.RoleCounselor, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", user.RoleAdmin, true)
	counselorToken := getToken(t, counselor)
	adminToken := getToken(t, admin)

	questions := []assessment.Question{
		{ID: "q1", Prompt: "Which word is spelled correctly?", Choices: []string{"freind", "friend"}, Answer: "friend"},
		{ID: "q2", Prompt: "Pick the real word.", Choices: []string{"brane", "brain"}, Answer: "brain"},
	}
	body := func(mutate func(nd *assessment.NewDefinition)) []byte {
		nd := assessment.NewDefinition{
			Name:        "Word Recognition",
			Kind:        assessment.KindDyslexia,
			ScoringRule: assessment.RuleCorrectCount,
			Questions:   questions,
		}
		if mutate != nil {
			mutate(&nd)
		}
		return marchallObj(t, nd)
	}

	tests := []httpTest{
		{
			name: "Student denied", method: http.MethodPost, path: "/v1/definitions", token: getToken(t, student),
			body: body(nil), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", method: http.MethodPost, path: "/v1/definitions", token: adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"name":         "this field is required",
				"kind":         "this field is required",
				"scoring_rule": "this field is required",
				"questions":    "this field is required",
			}),
		},
		{
			name: "invalid kind", method: http.MethodPost, path: "/v1/definitions", token: adminToken,
			body:     body(func(nd *assessment.NewDefinition) { nd.Kind = "lol" }),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"kind": "invalid assessment kind"}),
		},
		{
			name: "invalid scoring rule", method: http.MethodPost, path: "/v1/definitions", token: adminToken,
			body:     body(func(nd *assessment.NewDefinition) { nd.ScoringRule = "lol" }),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"scoring_rule": "invalid scoring rule"}),
		},
		{
			name: "duplicate question ids", method: http.MethodPost, path: "/v1/definitions", token: adminToken,
			body: body(func(nd *assessment.NewDefinition) {
				nd.Questions = []assessment.Question{
					{ID: "q1", Prompt: "a?", Answer: "a"},
					{ID: "q1", Prompt: "b?", Answer: "b"},
				}
			}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"questions": "duplicate question id: q1"}),
		},
		{
			name: "weighted-sum needs weights", method: http.MethodPost, path: "/v1/definitions", token: adminToken,
			body: body(func(nd *assessment.NewDefinition) {
				nd.ScoringRule = assessment.RuleWeightedSum
				nd.Questions = []assessment.Question{{ID: "q1", Prompt: "a?", Answer: "a"}}
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"questions": "question q1 requires a positive weight under weighted-sum"}),
		},
		{
			name: "rubric-banding needs levels or bands", method: http.MethodPost, path: "/v1/definitions", token: adminToken,
			body: body(func(nd *assessment.NewDefinition) {
				nd.ScoringRule = assessment.RuleRubricBanding
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"questions": "rubric-banding requires question levels or custom bands"}),
		},
		{name: "Counselor created", method: http.MethodPost, path: "/v1/definitions", token: counselorToken, body: body(nil), wantCode: http.StatusCreated},
		{
			name: "Duplicate name", method: http.MethodPost, path: "/v1/definitions", token: adminToken, body: body(nil),
			wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "an assessment with this name already exists"}),
		},
	}

	var created assessment.Definition
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if created.ID == "" || created.Difficulty != assessment.DifficultyMedium {
					t.Errorf("failed! definition = %+v", created)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	// admin retrieval keeps the answers
	tt := httpTest{
		name: "Admin sees answers", method: http.MethodGet, path: "/v1/definitions/" + created.ID, token: adminToken,
		wantCode: http.StatusOK, wantData: marchallObj(t, created),
	}
	t.Run(tt.name, func(t *testing.T) {
		req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	// a definition with recorded results cannot be deleted
	hero := testutil.CreateUser(t, usrRepo, "Other", "other1", "other@test.cd", "", user.RoleStudent, true)
	testutil.CreateResult(t, resRepo, hero, created, 2, false)

	req, rec := newAuthRequest(http.MethodDelete, "/v1/definitions/"+created.ID, adminToken)
	app.ServeHTTP(rec, req)
	tt = httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: "assessment has recorded results and cannot be deleted"}),
	}
	checkCodeAndData(t, tt, rec)

	// without results it deletes fine
	disposable := testutil.CreateDefinition(t, assessRepo, "Disposable", assessment.KindPhonetics, assessment.RuleCorrectCount, assessment.QuestionSet{
		{ID: "q1", Prompt: "Spell 'cat'.", Answer: "cat"},
	})
	req, rec = newAuthRequest(http.MethodDelete, "/v1/definitions/"+disposable.ID, adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}
}
