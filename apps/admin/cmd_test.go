package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/edusign/screener/core/assessment"
	"github.com/edusign/screener/core/user"
	dummydb "github.com/edusign/screener/storage/database/dummy"
	testutil "github.com/edusign/screener/tests"
)

var (
	usrRepo    user.Repository
	assessRepo assessment.Repository
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	assessRepo = dummydb.NewAssessmentRepository(db)

	return &commandLine{
		usrRepo:    usrRepo,
		assessRepo: assessRepo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no email", args: []string{"adduser", "-username", "root01"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "root01", "-email", "root@test.cd"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "-username", "root01", "-email", "root@test.cd", "-role", "boss"}, extra: extra{pwd: "lol"}, wantErrStr: `unknown role "boss"`},
		{name: "create admin", args: []string{"adduser", "-username", "root01", "-email", "root@test.cd"}, extra: extra{pwd: "lol"}},
		{name: "create counselor", args: []string{"adduser", "-username", "couns1", "-email", "couns@test.cd", "-role", "counselor"}, extra: extra{pwd: "lol"}},
		{name: "update existing", args: []string{"adduser", "-username", "root01", "-email", "root@test.cd"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "root01"})
				if err != nil {
					t.Fatalf("GetUser() failed: %v", err)
				}
				if !usr.Active() {
					t.Error("expected created user to be active")
				}
			} else if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			} else if tt.wantErrStr != "" {
				if err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
				}
			} else {
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe123", "awe@test.cd", "mdr", user.RoleStudent, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed: %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)

	var prompts int
	readPasswordFunc = func(fd int) ([]byte, error) {
		prompts++
		return []byte("s33dpwd"), nil
	}

	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	defs, err := assessRepo.QueryDefinitions(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("QueryDefinitions() failed: %v", err)
	}
	if len(defs) == 0 {
		t.Fatal("expected seeded definitions")
	}

	// one prompted password per staff account
	if prompts != 2 {
		t.Errorf("prompted %d passwords; want 2", prompts)
	}
	for uname, role := range map[string]string{"counselor": user.RoleCounselor, "admin": user.RoleAdmin} {
		usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: uname})
		if err != nil {
			t.Fatalf("GetUser(%s) failed: %v", uname, err)
		}
		if usr.Role != role || !usr.Active() || len(usr.PasswordHash) == 0 {
			t.Errorf("seeded account %s = %+v", uname, usr)
		}
	}

	// seeding twice must not duplicate nor prompt again
	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("cli.run() failed on second seed: %v", err)
	}
	again, err := assessRepo.QueryDefinitions(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("QueryDefinitions() failed: %v", err)
	}
	if len(again) != len(defs) {
		t.Errorf("seed is not idempotent: got %d definitions, want %d", len(again), len(defs))
	}
	if prompts != 2 {
		t.Errorf("second seed prompted again: %d prompts", prompts)
	}
}
