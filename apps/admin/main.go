package main

import (
	"log"
	"os"

	"github.com/onboardme/backend/core"
	"github.com/onboardme/backend/core/user"
	emailsvc "github.com/onboardme/backend/services/email"
	"github.com/onboardme/backend/storage/database"
	sqlxrepos "github.com/onboardme/backend/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf), conf)

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: usrSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
