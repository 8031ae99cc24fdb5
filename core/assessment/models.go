package assessment

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/edusign/screener/core"
)

// Assessment kinds.
const (
	KindDyslexia      = "dyslexia"
	KindDyscalculia   = "dyscalculia"
	KindMemory        = "memory"
	KindComprehension = "comprehension"
	KindPhonetics     = "phonetics"
)

// Difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Scoring rules. The engine dispatches on the definition's rule; handlers
// never branch on assessment kind.
const (
	RuleCorrectCount  = "correct-count"
	RuleWeightedSum   = "weighted-sum"
	RuleRubricBanding = "rubric-banding"
)

// Answer matching modes. Fuzzy allows one edit (insert/delete/substitute),
// case-insensitive; used by recall items where near-misses still count.
const (
	MatchExact = "exact"
	MatchFuzzy = "fuzzy"
)

// Risk bands.
const (
	BandLowRisk    = "low"
	BandMediumRisk = "medium"
	BandHighRisk   = "high"
)

var (
	AllKinds = []string{KindDyslexia, KindDyscalculia, KindMemory, KindComprehension, KindPhonetics}
	AllRules = []string{RuleCorrectCount, RuleWeightedSum, RuleRubricBanding}
)

type (
	// Question is one item of a definition's question set. Choices are
	// optional (free-typed answers have none). Weight only matters under
	// weighted-sum; Level only under rubric-banding.
	Question struct {
		ID      string   `json:"id" validate:"required"`
		Prompt  string   `json:"prompt" validate:"required"`
		Choices []string `json:"choices,omitempty"`
		Answer  string   `json:"answer" validate:"required"`
		Weight  int      `json:"weight,omitempty" validate:"omitempty,gte=1"`
		Level   int      `json:"level,omitempty" validate:"omitempty,gte=1,lte=3"`
		Match   string   `json:"match,omitempty" validate:"omitempty,oneof=exact fuzzy"`
	}

	// QuestionSet is stored as a jsonb column.
	QuestionSet []Question

	// Band maps a minimum score (inclusive) to a named risk band;
	// the highest matching Min wins.
	Band struct {
		Name string `json:"name" validate:"required"`
		Min  int    `json:"min" validate:"gte=0"`
	}

	// BandSet is stored as a jsonb column.
	BandSet []Band

	Program struct {
		ID          string    `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description"`
		Focus       string    `json:"focus"`
		CreatedAt   time.Time `json:"created_at"` // UTC
		UpdatedAt   time.Time `json:"updated_at"` // UTC
	}

	// Definition is a catalog entry describing a quiz's questions and
	// scoring rule. Results reference it; a referenced definition cannot
	// be deleted.
	Definition struct {
		ID            string      `json:"id"`
		ProgramID     string      `json:"program_id,omitempty"`
		Name          string      `json:"name"`
		Kind          string      `json:"kind"`
		Description   string      `json:"description"`
		Difficulty    string      `json:"difficulty"`
		ScoringRule   string      `json:"scoring_rule"`
		Questions     QuestionSet `json:"questions"`
		FlagThreshold *int        `json:"flag_threshold,omitempty"`
		Bands         BandSet     `json:"bands,omitempty"`
		CreatedAt     time.Time   `json:"created_at"` // UTC
		UpdatedAt     time.Time   `json:"updated_at"` // UTC
	}
)

func (qs QuestionSet) Value() (driver.Value, error) { return json.Marshal(qs) }

func (qs *QuestionSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*qs = nil
		return nil
	case []byte:
		return json.Unmarshal(v, qs)
	case string:
		return json.Unmarshal([]byte(v), qs)
	}
	return errors.Errorf("unsupported QuestionSet source %T", src)
}

func (bs BandSet) Value() (driver.Value, error) {
	if bs == nil {
		return nil, nil
	}
	return json.Marshal(bs)
}

func (bs *BandSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*bs = nil
		return nil
	case []byte:
		return json.Unmarshal(v, bs)
	case string:
		return json.Unmarshal([]byte(v), bs)
	}
	return errors.Errorf("unsupported BandSet source %T", src)
}

// Public returns a copy safe to show to a student: correct answers and
// scoring internals are stripped.
func (d Definition) Public() Definition {
	pub := d
	pub.Questions = make(QuestionSet, 0, len(d.Questions))
	for _, q := range d.Questions {
		q.Answer = ""
		q.Weight = 0
		pub.Questions = append(pub.Questions, q)
	}
	pub.FlagThreshold = nil
	pub.Bands = nil
	return pub
}

// NewProgram contains information needed to create a new Program.
type NewProgram struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Focus       string `json:"focus"`
}

func (np *NewProgram) Validate(ctx context.Context) error {
	np.Name = core.CleanString(np.Name)
	np.Description = core.CleanString(np.Description)
	np.Focus = core.CleanString(np.Focus)
	return core.Validate.StructCtx(ctx, np)
}

// UpdateProgram defines what may be modified on an existing Program;
// empty fields keep their current value.
type UpdateProgram struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Focus       string `json:"focus"`
}

func (up *UpdateProgram) Validate(ctx context.Context, orig Program) error {
	if name := core.CleanString(up.Name); name != "" {
		up.Name = name
	} else {
		up.Name = orig.Name
	}
	if desc := core.CleanString(up.Description); desc != "" {
		up.Description = desc
	} else {
		up.Description = orig.Description
	}
	if focus := core.CleanString(up.Focus); focus != "" {
		up.Focus = focus
	} else {
		up.Focus = orig.Focus
	}
	return core.Validate.StructCtx(ctx, up)
}

// NewDefinition contains information needed to create a new Definition.
type NewDefinition struct {
	Name          string     `json:"name" validate:"required"`
	ProgramID     string     `json:"program_id" validate:"omitempty,uuid4"`
	Kind          string     `json:"kind" validate:"required,kind"`
	Description   string     `json:"description"`
	Difficulty    string     `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	ScoringRule   string     `json:"scoring_rule" validate:"required,scoringrule"`
	Questions     []Question `json:"questions" validate:"required,min=1,dive"`
	FlagThreshold *int       `json:"flag_threshold" validate:"omitempty,gte=0"`
	Bands         []Band     `json:"bands" validate:"omitempty,dive"`
}

func (nd *NewDefinition) Validate(ctx context.Context) error {
	nd.Name = core.CleanString(nd.Name)
	nd.Description = core.CleanString(nd.Description)
	nd.Kind = core.CleanString(nd.Kind, true /* lower */)
	nd.ScoringRule = core.CleanString(nd.ScoringRule, true /* lower */)
	if nd.Difficulty = core.CleanString(nd.Difficulty, true /* lower */); nd.Difficulty == "" {
		nd.Difficulty = DifficultyMedium
	}

	if err := core.Validate.StructCtx(ctx, nd); err != nil {
		return err
	}
	return validateQuestionSet(nd.ScoringRule, nd.Questions, nd.Bands)
}

// UpdateDefinition defines what may be modified on an existing Definition;
// empty fields keep their current value. Changing the question set or rule
// does not touch existing results (they are immutable snapshots).
type UpdateDefinition struct {
	Name          string     `json:"name"`
	ProgramID     string     `json:"program_id" validate:"omitempty,uuid4"`
	Kind          string     `json:"kind" validate:"omitempty,kind"`
	Description   string     `json:"description"`
	Difficulty    string     `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	ScoringRule   string     `json:"scoring_rule" validate:"omitempty,scoringrule"`
	Questions     []Question `json:"questions" validate:"omitempty,min=1,dive"`
	FlagThreshold *int       `json:"flag_threshold" validate:"omitempty,gte=0"`
	Bands         []Band     `json:"bands" validate:"omitempty,dive"`
}

func (ud *UpdateDefinition) Validate(ctx context.Context, orig Definition) error {
	if name := core.CleanString(ud.Name); name != "" {
		ud.Name = name
	} else {
		ud.Name = orig.Name
	}
	if desc := core.CleanString(ud.Description); desc != "" {
		ud.Description = desc
	} else {
		ud.Description = orig.Description
	}
	if kind := core.CleanString(ud.Kind, true /* lower */); kind != "" {
		ud.Kind = kind
	} else {
		ud.Kind = orig.Kind
	}
	if rule := core.CleanString(ud.ScoringRule, true /* lower */); rule != "" {
		ud.ScoringRule = rule
	} else {
		ud.ScoringRule = orig.ScoringRule
	}
	if diff := core.CleanString(ud.Difficulty, true /* lower */); diff != "" {
		ud.Difficulty = diff
	} else {
		ud.Difficulty = orig.Difficulty
	}
	if ud.ProgramID == "" {
		ud.ProgramID = orig.ProgramID
	}
	if ud.Questions == nil {
		ud.Questions = orig.Questions
	}
	if ud.FlagThreshold == nil {
		ud.FlagThreshold = orig.FlagThreshold
	}
	if ud.Bands == nil {
		ud.Bands = orig.Bands
	}

	if err := core.Validate.StructCtx(ctx, ud); err != nil {
		return err
	}
	return validateQuestionSet(ud.ScoringRule, ud.Questions, ud.Bands)
}

// validateQuestionSet enforces the cross-field rules the tag validators
// cannot express: unique question ids, positive weights under
// weighted-sum, and level or band data under rubric-banding.
func validateQuestionSet(rule string, questions []Question, bands []Band) error {
	var flds []core.FieldError

	var leveled bool
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if seen[q.ID] {
			flds = append(flds, core.FieldError{Field: "questions", Error: "duplicate question id: " + q.ID})
		}
		seen[q.ID] = true

		if rule == RuleWeightedSum && q.Weight < 1 {
			flds = append(flds, core.FieldError{Field: "questions", Error: "question " + q.ID + " requires a positive weight under " + RuleWeightedSum})
		}
		if q.Level > 0 {
			leveled = true
		}
	}

	if rule == RuleRubricBanding && !leveled && len(bands) == 0 {
		flds = append(flds, core.FieldError{Field: "questions", Error: RuleRubricBanding + " requires question levels or custom bands"})
	}

	if flds != nil {
		return core.NewValidationError(errors.New("invalid question set"), flds...)
	}
	return nil
}
