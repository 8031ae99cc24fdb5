package assessment

import (
	"strings"
	"testing"

	"github.com/edusign/screener/core"
)

func intPtr(i int) *int { return &i }

func readingDef() Definition {
	return Definition{
		Kind:        KindDyslexia,
		ScoringRule: RuleCorrectCount,
		Questions: QuestionSet{
			{ID: "q1", Prompt: "Which word is spelled correctly?", Answer: "friend"},
			{ID: "q2", Prompt: "Which word rhymes with 'light'?", Answer: "night"},
			{ID: "q3", Prompt: "Pick the real word.", Answer: "brain"},
			{ID: "q4", Prompt: "Which word is 'was' spelled backwards?", Answer: "saw"},
		},
	}
}

func Test_Definition_Evaluate_correctCount(t *testing.T) {
	def := readingDef()

	tests := []struct {
		name        string
		answers     map[string]string
		wantScore   int
		wantBand    string
		wantFlagged bool
		wantMessage string
	}{
		{
			name:        "all correct",
			answers:     map[string]string{"q1": "friend", "q2": "night", "q3": "brain", "q4": "saw"},
			wantScore:   4,
			wantBand:    BandLowRisk,
			wantMessage: "No major signs detected.",
		},
		{
			name:        "case and whitespace ignored",
			answers:     map[string]string{"q1": "  FRIEND ", "q2": "Night", "q3": "brain", "q4": "saw"},
			wantScore:   4,
			wantBand:    BandLowRisk,
			wantMessage: "No major signs detected.",
		},
		{
			name:      "two correct",
			answers:   map[string]string{"q1": "friend", "q2": "night", "q3": "brane", "q4": "wsa"},
			wantScore: 2,
			wantBand:  BandMediumRisk,
		},
		{
			name:        "all wrong",
			answers:     map[string]string{"q1": "freind", "q2": "late", "q3": "brane", "q4": "wsa"},
			wantScore:   0,
			wantBand:    BandHighRisk,
			wantFlagged: true,
			wantMessage: "Possible signs of dyslexia",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := def.Evaluate(tt.answers)
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if ev.Score != tt.wantScore || ev.MaxScore != 4 || ev.Total != 4 {
				t.Errorf("Evaluate() score = %d/%d of %d; want %d/4 of 4", ev.Score, ev.MaxScore, ev.Total, tt.wantScore)
			}
			if ev.Band != tt.wantBand {
				t.Errorf("Evaluate() band = %s; want %s", ev.Band, tt.wantBand)
			}
			if ev.Flagged != tt.wantFlagged {
				t.Errorf("Evaluate() flagged = %v; want %v", ev.Flagged, tt.wantFlagged)
			}
			if tt.wantMessage != "" && ev.Message != tt.wantMessage {
				t.Errorf("Evaluate() message = %q; want %q", ev.Message, tt.wantMessage)
			}
		})
	}
}

func Test_Definition_Evaluate_weightedSum(t *testing.T) {
	def := Definition{
		Kind:        KindDyscalculia,
		ScoringRule: RuleWeightedSum,
		Questions: QuestionSet{
			{ID: "q1", Prompt: "What is 7 + 5?", Answer: "12", Weight: 1},
			{ID: "q2", Prompt: "What comes next: 2, 4, 8, 16, ...?", Answer: "32", Weight: 2},
			{ID: "q3", Prompt: "Which is larger: 0.5 or 0.45?", Answer: "0.5", Weight: 1},
			{ID: "q4", Prompt: "What is 9 x 6?", Answer: "54", Weight: 2},
		},
	}

	// q1 and q2 correct: 1 + 2 = 3 out of 6
	ev, err := def.Evaluate(map[string]string{"q1": "12", "q2": "32", "q3": "0.45", "q4": "56"})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if ev.Score != 3 || ev.MaxScore != 6 || ev.Total != 4 {
		t.Errorf("Evaluate() score = %d/%d of %d; want 3/6 of 4", ev.Score, ev.MaxScore, ev.Total)
	}
	if ev.Flagged { // threshold defaults to max/2 = 3
		t.Error("Evaluate() flagged; want not flagged")
	}
	if ev.Band != BandMediumRisk {
		t.Errorf("Evaluate() band = %s; want %s", ev.Band, BandMediumRisk)
	}
}

func Test_Definition_Evaluate_customThresholdAndBands(t *testing.T) {
	def := readingDef()
	def.FlagThreshold = intPtr(2)
	def.Bands = BandSet{
		{Name: "at-risk", Min: 0},
		{Name: "watch", Min: 2},
		{Name: "ok", Min: 4},
	}

	tests := []struct {
		name        string
		answers     map[string]string
		wantBand    string
		wantFlagged bool
	}{
		{
			name:        "below threshold",
			answers:     map[string]string{"q1": "friend", "q2": "late", "q3": "brane", "q4": "wsa"},
			wantBand:    "at-risk",
			wantFlagged: true,
		},
		{
			name:     "at threshold",
			answers:  map[string]string{"q1": "friend", "q2": "night", "q3": "brane", "q4": "wsa"},
			wantBand: "watch",
		},
		{
			name:     "highest matching band wins",
			answers:  map[string]string{"q1": "friend", "q2": "night", "q3": "brain", "q4": "saw"},
			wantBand: "ok",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := def.Evaluate(tt.answers)
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if ev.Band != tt.wantBand {
				t.Errorf("Evaluate() band = %s; want %s", ev.Band, tt.wantBand)
			}
			if ev.Flagged != tt.wantFlagged {
				t.Errorf("Evaluate() flagged = %v; want %v", ev.Flagged, tt.wantFlagged)
			}
		})
	}
}

func Test_Definition_Evaluate_bandsAboveZero(t *testing.T) {
	def := readingDef()
	// the lowest Min is above zero and listed last; a score under every
	// Min must still land in it
	def.Bands = BandSet{
		{Name: "ok", Min: 4},
		{Name: "watch", Min: 2},
	}

	ev, err := def.Evaluate(map[string]string{"q1": "freind", "q2": "late", "q3": "brane", "q4": "wsa"})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if ev.Score != 0 {
		t.Fatalf("Evaluate() score = %d; want 0", ev.Score)
	}
	if ev.Band != "watch" {
		t.Errorf("Evaluate() band = %s; want watch", ev.Band)
	}
}

func Test_Definition_Evaluate_rubricBanding(t *testing.T) {
	def := Definition{
		Kind:        KindMemory,
		ScoringRule: RuleRubricBanding,
		Questions: QuestionSet{
			{ID: "q1", Prompt: "Type the sequence: 3 8 1", Answer: "3 8 1", Level: 1, Match: MatchFuzzy},
			{ID: "q2", Prompt: "Type the sequence: 5 2 9 4", Answer: "5 2 9 4", Level: 2, Match: MatchFuzzy},
			{ID: "q3", Prompt: "Type the sequence: 7 1 6 3 8", Answer: "7 1 6 3 8", Level: 3, Match: MatchFuzzy},
		},
	}

	// q1 exact, q2 one substitution away (still counts), q3 two edits off
	ev, err := def.Evaluate(map[string]string{"q1": "3 8 1", "q2": "5 2 9 5", "q3": "7 1 6 5 9"})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if ev.Score != 2 || ev.MaxScore != 3 {
		t.Errorf("Evaluate() score = %d/%d; want 2/3", ev.Score, ev.MaxScore)
	}
	wantLevels := []LevelScore{
		{Level: 1, Correct: 1, Total: 1},
		{Level: 2, Correct: 1, Total: 1},
		{Level: 3, Correct: 0, Total: 1},
	}
	if len(ev.Levels) != len(wantLevels) {
		t.Fatalf("Evaluate() levels = %v; want %v", ev.Levels, wantLevels)
	}
	for i, ls := range ev.Levels {
		if ls != wantLevels[i] {
			t.Errorf("Evaluate() levels[%d] = %v; want %v", i, ls, wantLevels[i])
		}
	}
	if !strings.Contains(ev.Message, "Level 3: 0/1") {
		t.Errorf("Evaluate() message = %q; want level breakdown", ev.Message)
	}
}

func Test_Definition_Evaluate_incompleteAnswers(t *testing.T) {
	def := readingDef()

	tests := []struct {
		name     string
		answers  map[string]string
		wantFlds []core.FieldError
	}{
		{
			name:     "missing answer",
			answers:  map[string]string{"q1": "friend", "q2": "night", "q3": "brain"},
			wantFlds: []core.FieldError{{Field: "q4", Error: "answer required"}},
		},
		{
			name:     "blank answer",
			answers:  map[string]string{"q1": "friend", "q2": "night", "q3": "brain", "q4": "   "},
			wantFlds: []core.FieldError{{Field: "q4", Error: "answer required"}},
		},
		{
			name:     "unknown question",
			answers:  map[string]string{"q1": "friend", "q2": "night", "q3": "brain", "q4": "saw", "q9": "lol"},
			wantFlds: []core.FieldError{{Field: "q9", Error: "unknown question"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := def.Evaluate(tt.answers)
			vErr, ok := err.(*core.ValidationError)
			if !ok {
				t.Fatalf("Evaluate() error = %v; want *core.ValidationError", err)
			}
			if len(vErr.Fields) != len(tt.wantFlds) {
				t.Fatalf("Evaluate() fields = %v; want %v", vErr.Fields, tt.wantFlds)
			}
			for i, fld := range vErr.Fields {
				if fld != tt.wantFlds[i] {
					t.Errorf("Evaluate() fields[%d] = %v; want %v", i, fld, tt.wantFlds[i])
				}
			}
		})
	}
}

func Test_editsLeqOne(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"", "", true},
		{"a", "", true},
		{"", "ab", false},
		{"night", "night", true},
		{"night", "nigth", false}, // transposition is two edits
		{"night", "nght", true},   // deletion
		{"night", "knight", true}, // insertion
		{"night", "light", true},  // substitution
		{"night", "late", false},
	}
	for _, tt := range tests {
		if got := editsLeqOne(tt.a, tt.b); got != tt.want {
			t.Errorf("editsLeqOne(%q, %q) = %v; want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func Test_Definition_Public(t *testing.T) {
	def := readingDef()
	def.FlagThreshold = intPtr(2)
	def.Bands = BandSet{{Name: "ok", Min: 3}}
	def.Questions[0].Weight = 2

	pub := def.Public()
	if pub.FlagThreshold != nil || pub.Bands != nil {
		t.Error("Public() kept scoring internals")
	}
	for _, q := range pub.Questions {
		if q.Answer != "" || q.Weight != 0 {
			t.Errorf("Public() kept answer or weight on %s", q.ID)
		}
	}
	// the original is untouched
	if def.Questions[0].Answer == "" || def.Questions[0].Weight != 2 {
		t.Error("Public() mutated the original definition")
	}
}
