package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/edusign/screener/core/assessment"
	"github.com/edusign/screener/core/user"
)

// seed loads a small starter catalog and the default staff accounts so a
// fresh install has something to screen with. Existing entries are left
// untouched; passwords are prompted for each account created.
func (cli *commandLine) seed() error {
	ctx := context.Background()
	now := time.Now().UTC()

	if err := cli.seedAccounts(ctx, now); err != nil {
		return err
	}

	programs := []assessment.Program{
		{
			Name:        "Reading Support",
			Description: "Guided exercises for decoding, spelling and comprehension.",
			Focus:       assessment.KindDyslexia,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			Name:        "Numeracy Foundations",
			Description: "Pattern and quantity practice for number sense.",
			Focus:       assessment.KindDyscalculia,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	programIDs := make(map[string]string, len(programs))
	for _, p := range programs {
		created, err := cli.assessRepo.CreateProgram(ctx, p)
		if err != nil {
			if errors.Cause(err) == assessment.ErrProgramExists {
				continue
			}
			return errors.Wrap(err, "seeding program "+p.Name)
		}
		programIDs[created.Focus] = created.ID
	}

	defs := []assessment.Definition{
		{
			ProgramID:   programIDs[assessment.KindDyslexia],
			Name:        "Word Recognition Screener",
			Kind:        assessment.KindDyslexia,
			Description: "Reading and word recognition check.",
			Difficulty:  assessment.DifficultyEasy,
			ScoringRule: assessment.RuleCorrectCount,
			Questions: assessment.QuestionSet{
				{ID: "q1", Prompt: "Which word is spelled correctly?", Choices: []string{"freind", "friend", "frend"}, Answer: "friend"},
				{ID: "q2", Prompt: "Which word rhymes with 'light'?", Choices: []string{"late", "night", "lit"}, Answer: "night"},
				{ID: "q3", Prompt: "Pick the real word.", Choices: []string{"brane", "brain", "brayn"}, Answer: "brain"},
				{ID: "q4", Prompt: "Which word is 'was' spelled backwards?", Choices: []string{"saw", "wsa", "asw"}, Answer: "saw"},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			ProgramID:   programIDs[assessment.KindDyscalculia],
			Name:        "Number Sense Screener",
			Kind:        assessment.KindDyscalculia,
			Description: "Quantity and pattern check; harder items weigh more.",
			Difficulty:  assessment.DifficultyMedium,
			ScoringRule: assessment.RuleWeightedSum,
			Questions: assessment.QuestionSet{
				{ID: "q1", Prompt: "What is 7 + 5?", Answer: "12", Weight: 1},
				{ID: "q2", Prompt: "What comes next: 2, 4, 8, 16, ...?", Answer: "32", Weight: 2},
				{ID: "q3", Prompt: "Which is larger: 0.5 or 0.45?", Choices: []string{"0.5", "0.45"}, Answer: "0.5", Weight: 1},
				{ID: "q4", Prompt: "What is 9 x 6?", Answer: "54", Weight: 2},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
		{
			Name:        "Working Memory Screener",
			Kind:        assessment.KindMemory,
			Description: "Recall sequences of increasing length; typed answers allow one slip.",
			Difficulty:  assessment.DifficultyMedium,
			ScoringRule: assessment.RuleRubricBanding,
			Questions: assessment.QuestionSet{
				{ID: "q1", Prompt: "Type the sequence you just saw: 3 8 1", Answer: "3 8 1", Level: 1, Match: assessment.MatchFuzzy},
				{ID: "q2", Prompt: "Type the sequence you just saw: 5 2 9 4", Answer: "5 2 9 4", Level: 2, Match: assessment.MatchFuzzy},
				{ID: "q3", Prompt: "Type the sequence you just saw: 7 1 6 3 8", Answer: "7 1 6 3 8", Level: 3, Match: assessment.MatchFuzzy},
			},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	for _, d := range defs {
		if _, err := cli.assessRepo.CreateDefinition(ctx, d); err != nil {
			if errors.Cause(err) == assessment.ErrDefinitionExists {
				continue
			}
			return errors.Wrap(err, "seeding definition "+d.Name)
		}
	}
	return nil
}

func (cli *commandLine) seedAccounts(ctx context.Context, now time.Time) error {
	accounts := []struct {
		name, uname, email, role string
	}{
		{"Counselor", "counselor", "counselor@localhost", user.RoleCounselor},
		{"Admin", "admin", "admin@localhost", user.RoleAdmin},
	}
	for _, acc := range accounts {
		_, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Username: acc.uname})
		if err == nil {
			continue
		}
		if errors.Cause(err) != user.ErrNotFound {
			return errors.Wrap(err, "checking account "+acc.uname)
		}

		fmt.Printf("Creating the %q account.\n", acc.uname)
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			return errors.Errorf("a password is required for the %q account", acc.uname)
		}

		usr := user.User{
			Name:      acc.name,
			Username:  acc.uname,
			Email:     acc.email,
			Role:      acc.role,
			CreatedAt: now,
			UpdatedAt: now,
		}
		usr.SetActive(true)
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		if _, err := cli.usrRepo.CreateUser(ctx, usr); err != nil {
			return errors.Wrap(err, "seeding account "+acc.uname)
		}
	}
	return nil
}
