package result

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/edusign/screener/core"
)

type (
	// AnswerSet maps question id to the student's raw answer; stored as a
	// jsonb column so every attempt keeps its exact input snapshot.
	AnswerSet map[string]string

	// Result is one scored assessment attempt. Results are append-only;
	// there is no update or delete path.
	Result struct {
		ID           string    `json:"id"`
		UserID       string    `json:"user_id"`
		DefinitionID string    `json:"definition_id"`
		Kind         string    `json:"kind"`
		Score        int       `json:"score"`
		MaxScore     int       `json:"max_score"`
		Total        int       `json:"total"`
		Band         string    `json:"band"`
		Flagged      bool      `json:"flagged"`
		Message      string    `json:"message"`
		Answers      AnswerSet `json:"answers,omitempty"`
		DurationSecs int       `json:"duration_secs,omitempty"`
		CreatedAt    time.Time `json:"created_at"` // UTC
	}
)

func (as AnswerSet) Value() (driver.Value, error) {
	if as == nil {
		return json.Marshal(AnswerSet{})
	}
	return json.Marshal(as)
}

func (as *AnswerSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*as = nil
		return nil
	case []byte:
		return json.Unmarshal(v, as)
	case string:
		return json.Unmarshal([]byte(v), as)
	}
	return errors.Errorf("unsupported AnswerSet source %T", src)
}

// Submission is a student's answer payload for one assessment attempt.
type Submission struct {
	Answers      map[string]string `json:"answers" validate:"required,min=1"`
	DurationSecs int               `json:"duration_secs" validate:"omitempty,gte=0"`
}

func (s *Submission) Validate(ctx context.Context) error {
	for id, ans := range s.Answers {
		s.Answers[id] = core.CleanString(ans)
	}
	return core.Validate.StructCtx(ctx, s)
}
