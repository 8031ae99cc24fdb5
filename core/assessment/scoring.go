package assessment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/edusign/screener/core"
)

var errIncompleteAnswers = errors.New("incomplete answer set")

type (
	// LevelScore is the per-level breakdown produced by rubric-banding.
	LevelScore struct {
		Level   int `json:"level"`
		Correct int `json:"correct"`
		Total   int `json:"total"`
	}

	// Evaluation is the outcome of scoring one complete answer set.
	Evaluation struct {
		Score    int          `json:"score"`
		MaxScore int          `json:"max_score"`
		Total    int          `json:"total"` // number of questions
		Band     string       `json:"band"`
		Flagged  bool         `json:"flagged"`
		Message  string       `json:"message"`
		Levels   []LevelScore `json:"levels,omitempty"`
	}
)

// messages keyed by kind; [0] when flagged, [1] otherwise.
// Educational wording, not diagnostic.
var kindMessages = map[string][2]string{
	KindDyslexia:      {"Possible signs of dyslexia", "No major signs detected."},
	KindDyscalculia:   {"Consider practicing number and quantity patterns", "Numeracy skills appear within typical range."},
	KindMemory:        {"Possible working memory challenges", "Working memory within typical range."},
	KindComprehension: {"Consider guided reading practice", "Reading comprehension within typical range."},
	KindPhonetics:     {"Consider practicing phonics and spelling patterns", "Spelling patterns appear within typical range."},
}

// Evaluate scores a complete answer set against the definition. Scoring is
// deterministic: the same definition and answers always produce the same
// Evaluation. An incomplete or unknown answer set fails with a
// core.ValidationError listing every offending question id; nothing partial
// is ever returned.
func (d Definition) Evaluate(answers map[string]string) (Evaluation, error) {
	if err := d.checkComplete(answers); err != nil {
		return Evaluation{}, err
	}

	var ev Evaluation
	switch d.ScoringRule {
	case RuleWeightedSum:
		ev = d.evalWeightedSum(answers)
	case RuleRubricBanding:
		ev = d.evalRubricBanding(answers)
	default: // RuleCorrectCount; definitions are validated at creation
		ev = d.evalCorrectCount(answers)
	}

	ev.Total = len(d.Questions)
	ev.Flagged = ev.Score < d.flagThreshold(ev.MaxScore)
	ev.Band = d.band(ev.Score, ev.MaxScore)
	ev.Message = d.message(ev)
	return ev, nil
}

// checkComplete requires an answer for every question and no answers for
// unknown questions.
func (d Definition) checkComplete(answers map[string]string) error {
	var flds []core.FieldError

	known := make(map[string]bool, len(d.Questions))
	for _, q := range d.Questions {
		known[q.ID] = true
		if core.CleanString(answers[q.ID]) == "" {
			flds = append(flds, core.FieldError{Field: q.ID, Error: "answer required"})
		}
	}

	unknown := make([]string, 0)
	for id := range answers {
		if !known[id] {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		flds = append(flds, core.FieldError{Field: id, Error: "unknown question"})
	}

	if flds != nil {
		return core.NewValidationError(errIncompleteAnswers, flds...)
	}
	return nil
}

func (d Definition) evalCorrectCount(answers map[string]string) Evaluation {
	var score int
	for _, q := range d.Questions {
		if q.matches(answers[q.ID]) {
			score++
		}
	}
	return Evaluation{Score: score, MaxScore: len(d.Questions)}
}

func (d Definition) evalWeightedSum(answers map[string]string) Evaluation {
	var score, max int
	for _, q := range d.Questions {
		w := q.Weight
		if w < 1 {
			w = 1
		}
		max += w
		if q.matches(answers[q.ID]) {
			score += w
		}
	}
	return Evaluation{Score: score, MaxScore: max}
}

func (d Definition) evalRubricBanding(answers map[string]string) Evaluation {
	perLevel := map[int]*LevelScore{}
	var score int
	for _, q := range d.Questions {
		lvl := q.Level
		if lvl < 1 {
			lvl = 1
		}
		ls, ok := perLevel[lvl]
		if !ok {
			ls = &LevelScore{Level: lvl}
			perLevel[lvl] = ls
		}
		ls.Total++
		if q.matches(answers[q.ID]) {
			ls.Correct++
			score++
		}
	}

	levels := make([]LevelScore, 0, len(perLevel))
	for _, ls := range perLevel {
		levels = append(levels, *ls)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].Level < levels[j].Level })

	return Evaluation{Score: score, MaxScore: len(d.Questions), Levels: levels}
}

// flagThreshold is the score below which the attempt is flagged; defaults
// to half the maximum when the definition does not pin one.
func (d Definition) flagThreshold(max int) int {
	if d.FlagThreshold != nil {
		return *d.FlagThreshold
	}
	return max / 2
}

// band places the score in a risk band: custom bands when the definition
// carries them (highest matching Min wins; the lowest-Min band catches
// scores under every Min), score thirds otherwise.
func (d Definition) band(score, max int) string {
	if len(d.Bands) > 0 {
		best := d.Bands[0]
		for _, b := range d.Bands[1:] {
			if b.Min < best.Min {
				best = b
			}
		}
		for _, b := range d.Bands {
			if score >= b.Min && b.Min >= best.Min {
				best = b
			}
		}
		return best.Name
	}

	if max == 0 {
		return BandLowRisk
	}
	switch ratio := float64(score) / float64(max); {
	case ratio >= 2.0/3:
		return BandLowRisk
	case ratio >= 1.0/3:
		return BandMediumRisk
	default:
		return BandHighRisk
	}
}

func (d Definition) message(ev Evaluation) string {
	msgs, ok := kindMessages[d.Kind]
	if !ok {
		msgs = [2]string{"Results may warrant a follow-up", "Results within typical range."}
	}
	msg := msgs[1]
	if ev.Flagged {
		msg = msgs[0]
	}

	if len(ev.Levels) > 0 {
		parts := make([]string, 0, len(ev.Levels))
		for _, ls := range ev.Levels {
			parts = append(parts, fmt.Sprintf("Level %d: %d/%d", ls.Level, ls.Correct, ls.Total))
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, ", "))
	}
	return msg
}

// matches compares a student answer against the question's expected one;
// comparisons are whitespace-trimmed and case-insensitive.
func (q Question) matches(answer string) bool {
	a := core.CleanString(answer, true /* lower */)
	t := core.CleanString(q.Answer, true /* lower */)
	if q.Match == MatchFuzzy {
		return editsLeqOne(a, t)
	}
	return a == t
}

// editsLeqOne reports whether a and b are at most one edit
// (insert/delete/substitute) apart.
func editsLeqOne(a, b string) bool {
	if a == b {
		return true
	}
	la, lb := len(a), len(b)
	if la-lb > 1 || lb-la > 1 {
		return false
	}

	var i, j, diff int
	for i < la && j < lb {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		if diff == 1 {
			return false
		}
		diff++
		switch {
		case la == lb: // substitution
			i++
			j++
		case la > lb: // deletion in a
			i++
		default: // insertion in a
			j++
		}
	}
	if i < la || j < lb {
		diff++
	}
	return diff <= 1
}
