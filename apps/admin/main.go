package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
	identitysvc "github.com/trezcool/schoolpay/services/identity"
	logsvc "github.com/trezcool/schoolpay/services/logger"
	"github.com/trezcool/schoolpay/storage/database"
	sqlxrepos "github.com/trezcool/schoolpay/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	// start CLI
	cli := commandLine{
		conf: conf,
		db:   db.DB,
		accountSvc: account.NewService(
			sqlxrepos.NewAccountRepository(db),
			identitysvc.NewClerkProvisioner(conf),
			logsvc.NewRollbarLogger(logger, conf),
		),
		validate: validate,
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
