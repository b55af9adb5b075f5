package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/shuleni/mahudhurio/core"
	"github.com/shuleni/mahudhurio/core/attendance"
	"github.com/shuleni/mahudhurio/core/school"
	"github.com/shuleni/mahudhurio/core/user"
	"github.com/shuleni/mahudhurio/storage/database"
	sqlxrepos "github.com/shuleni/mahudhurio/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// connection is lazy; commands that need the DB will surface errors themselves
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()

	sdb := sqlx.NewDb(db, conf.Database.Engine)

	cli := commandLine{
		conf:   conf,
		db:     db,
		usrSvc: user.NewService(sqlxrepos.NewUserRepository(sdb)),
		schSvc: school.NewService(sqlxrepos.NewSchoolRepository(sdb)),
		attSvc: attendance.NewService(sqlxrepos.NewStore(sdb)),
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
