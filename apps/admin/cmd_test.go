package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"testing"

	"github.com/shuleni/mahudhurio/core"
	"github.com/shuleni/mahudhurio/core/attendance"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
	inmemdb "github.com/shuleni/mahudhurio/storage/database/inmem"
	testutil "github.com/shuleni/mahudhurio/tests"
)

var (
	usrRepo user.Repository
	schRepo school.Repository
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	logger = log.New(os.Stdout, "TEST : ", log.LstdFlags)

	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	usrRepo = inmemdb.NewUserRepository(db)
	schRepo = inmemdb.NewSchoolRepository(db)

	return &commandLine{
		conf:   &core.Config{},
		usrSvc: user.NewService(usrRepo),
		schSvc: school.NewService(schRepo),
		attSvc: attendance.NewService(inmemdb.NewStore(db)),
	}
}

type cliTest struct {
	name    string
	args    []string // without program name
	wantErr error
	pwd     string
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr == nil || err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	sch := testutil.CreateSchool(t, schRepo, "CLI School")

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "missing flags", args: []string{"adduser", "-name", "Who"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Who", "-username", "who", "-school", sch.ID}, wantErr: errHelp},
		{
			name: "teacher created",
			args: []string{"adduser", "-name", "Mwalimu Tatu", "-username", "mwalimu", "-school", sch.ID, "-teacher"},
			pwd:  "hakuna-matata",
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			return []byte(tt.pwd), nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err != tt.wantErr {
				t.Fatalf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				usr, err := usrRepo.GetUserByUsernameOrEmail("mwalimu")
				if err != nil {
					t.Fatalf("GetUserByUsernameOrEmail() failed: %v", err)
				}
				if !usr.IsTeacher() {
					t.Errorf("roles = %v; want teacher", usr.Roles)
				}
				if err = usr.CheckPassword(tt.pwd); err != nil {
					t.Error("password does not verify")
				}
			}
		})
	}
}

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)

	if err := cli.run([]string{"admin", "seed"}); err != nil {
		t.Fatalf("cli.run(seed) error = %v", err)
	}

	usr, err := usrRepo.GetUserByUsernameOrEmail("asha.mwangi")
	if err != nil {
		t.Fatalf("seeded incharge missing: %v", err)
	}
	if !usr.IsTeacher() {
		t.Errorf("incharge roles = %v; want teacher", usr.Roles)
	}

	classes, err := schRepo.QueryClassesBySchool(usr.SchoolID)
	if err != nil {
		t.Fatalf("QueryClassesBySchool() failed: %v", err)
	}
	if len(classes) != 2 {
		t.Fatalf("classes = %d; want 2", len(classes))
	}
	for _, cls := range classes {
		students, err := schRepo.GetStudentsByClass(cls.ID)
		if err != nil {
			t.Fatalf("GetStudentsByClass() failed: %v", err)
		}
		if len(students) != 5 {
			t.Errorf("class %s students = %d; want 5", cls.Name, len(students))
		}
	}
}
