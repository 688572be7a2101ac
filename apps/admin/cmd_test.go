package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/onboardme/backend/core"
	"github.com/onboardme/backend/core/user"
	emailsvc "github.com/onboardme/backend/services/email"
	inmemdb "github.com/onboardme/backend/storage/database/inmem"
)

var usrRepo user.Repository

func setup() *commandLine {
	conf := &core.Config{AppName: "OnboardMe", Env: "TEST", TestMode: true}
	usrRepo = inmemdb.NewUserRepository(inmemdb.Open())
	return &commandLine{
		usrSvc: user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(conf), conf),
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr error
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup()

	var called bool
	migrateFunc = func(db *sqlx.DB) error {
		called = true
		return nil
	}

	if err := cli.run([]string{"admin", "migrate"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	if !called {
		t.Error("migrate subcommand did not run the migrations")
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup()

	tests := []cliTest{
		{name: "no command", args: []string{"admin"}, wantErr: errHelp},
		{name: "unknown command", args: []string{"admin", "lol"}, wantErr: errHelp},
		{name: "missing flags", args: []string{"admin", "adduser", "-email", "a@test.test"}, wantErr: errHelp},
		{name: "empty password", args: []string{"admin", "adduser", "-email", "a@test.test", "-first", "Ana", "-last", "Alvarez"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"admin", "adduser", "-email", "a@test.test", "-first", "Ana", "-last", "Alvarez", "-role", "Gerente"}, pwd: "pwd", wantErr: user.ErrRoleNotFound},
		{name: "ok", args: []string{"admin", "adduser", "-email", "a@test.test", "-first", "Ana", "-last", "Alvarez"}, pwd: "pwd"},
	}
	for _, tt := range tests {
		readPasswordFunc = func(fd int) ([]byte, error) { return []byte(tt.pwd), nil }

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(tt.args); err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	usr, err := usrRepo.GetUserByEmail(context.Background(), "a@test.test")
	if err != nil {
		t.Fatalf("GetUserByEmail() failed, %v", err)
	}
	if usr.Role.Name != user.RoleEmpleado {
		t.Errorf("role = %s, want default %s", usr.Role.Name, user.RoleEmpleado)
	}
	if err = usr.CheckPassword("pwd"); err != nil {
		t.Error("failed to set the prompted password")
	}
}

func Test_commandLine_importUsers(t *testing.T) {
	cli := setup()

	path := filepath.Join(t.TempDir(), "users.csv")
	csv := "firstName,lastName,email,password,role,area\n" +
		"Ana,Alvarez,ana@test.test,pwd1,Empleado,IT\n" +
		"Bruno,Bazan,bruno@test.test,pwd2,Buddy,RRHH\n"
	if err := os.WriteFile(path, []byte(csv), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []cliTest{
		{name: "missing file flag", args: []string{"admin", "importusers"}, wantErr: errHelp},
		{name: "ok", args: []string{"admin", "importusers", "-file", path}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(tt.args)
			if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	for _, email := range []string{"ana@test.test", "bruno@test.test"} {
		if _, err := usrRepo.GetUserByEmail(context.Background(), email); err != nil {
			t.Errorf("GetUserByEmail(%s) failed, %v", email, err)
		}
	}
}
