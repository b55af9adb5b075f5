package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/shuleni/mahudhurio/core"
	"github.com/shuleni/mahudhurio/core/attendance"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
	"github.com/shuleni/mahudhurio/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf   *core.Config
	db     *sql.DB
	usrSvc *user.Service
	schSvc *school.Service
	attSvc *attendance.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createdb - create the database and app user if they do not exist")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  adduser -name NAME -username USERNAME -school SCHOOL_ID [-email EMAIL] [-admin|-teacher] - create a user")
	fmt.Println("  seed - load a demo school with classes, students and subjects")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email (optional).")
	addUserSchool := addUserCmd.String("school", "", "The school the user belongs to.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant all roles.")
	addUserTeacher := addUserCmd.Bool("teacher", false, "Grant the teacher role.")

	switch args[1] {
	case "createdb":
		return database.CreateIfNotExist(cli.conf)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserUname == "" || *addUserSchool == "" {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, *addUserSchool, string(pwd), *addUserAdmin, *addUserTeacher)
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}
