package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/onboardme/backend/core/user"
	"github.com/onboardme/backend/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = database.Migrate  // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db     *sqlx.DB
	usrSvc *user.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate - apply pending database migrations")
	fmt.Println("  adduser -email EMAIL -first FIRST -last LAST [-role ROLE] [-area AREA] - create a user; the password will be prompted")
	fmt.Println("  importusers -file PATH - bulk create users from a CSV file")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserFirst := addUserCmd.String("first", "", "The user's first name.")
	addUserLast := addUserCmd.String("last", "", "The user's last name.")
	addUserRole := addUserCmd.String("role", user.RoleEmpleado, "The user's role name.")
	addUserArea := addUserCmd.String("area", "", "The user's area.")

	importCmd := flag.NewFlagSet("importusers", flag.ExitOnError)
	importFile := importCmd.String("file", "", "Path to the CSV file: firstName,lastName,email,password,roleName,areaName.")

	switch args[1] {
	case "migrate":
		return migrateFunc(cli.db)

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserFirst == "" || *addUserLast == "" {
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
		return cli.addUser(*addUserEmail, *addUserFirst, *addUserLast, *addUserRole, *addUserArea, string(pwd))

	case "importusers":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importUsers(*importFile)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addUser(email, first, last, role, area, pwd string) error {
	usr, err := cli.usrSvc.Create(context.Background(), user.NewUser{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Password:  pwd,
		RoleName:  role,
		Area:      area,
	})
	if err != nil {
		return err
	}
	fmt.Printf("user %q created (id=%d)\n", usr.Email, usr.ID)
	return nil
}

func (cli *commandLine) importUsers(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	report, err := cli.usrSvc.ImportCSV(context.Background(), f)
	if err != nil {
		return err
	}

	fmt.Printf("batch %s: %d records, %d created, %d failed\n",
		report.BatchID, report.TotalRecords, report.Created, report.Failed)
	for _, e := range report.Errors {
		fmt.Println(" ", e)
	}
	return nil
}
