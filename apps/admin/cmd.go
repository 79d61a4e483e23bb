package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf       *core.Config
	db         *sql.DB
	accountSvc *account.Service
	validate   *validator.Validate
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                       - run a goose command (up, down, status, redo, version...)")
	_, _ = fmt.Fprintln(cli.out, "  addadmin -name NAME -email EMAIL [-authid ID] - create or promote an admin account")
	_, _ = fmt.Fprintln(cli.out, "  sessiontoken -email EMAIL [-ttl DURATION]     - issue a session token for a linked account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAdminCmd := flag.NewFlagSet("addadmin", flag.ContinueOnError)
	addAdminCmd.SetOutput(cli.out)
	addAdminName := addAdminCmd.String("name", "", "The admin's full name.")
	addAdminEmail := addAdminCmd.String("email", "", "The admin's email.")
	addAdminAuthID := addAdminCmd.String("authid", "", "The identity provider user id. Provisioned when omitted and provisioning is enabled.")

	sessionTokenCmd := flag.NewFlagSet("sessiontoken", flag.ContinueOnError)
	sessionTokenCmd.SetOutput(cli.out)
	sessionTokenEmail := sessionTokenCmd.String("email", "", "The account's email.")
	sessionTokenTTL := sessionTokenCmd.Duration("ttl", time.Hour, "How long the token stays valid.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addadmin":
		if err := addAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAdminName == "" || *addAdminEmail == "" {
			addAdminCmd.Usage()
			return errHelp
		}
		acc, err := cli.addAdmin(*addAdminName, *addAdminEmail, *addAdminAuthID)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cli.out, "admin %s <%s> saved (tracking id %s)\n", acc.Name, acc.Email, acc.TrackingID)
		return nil
	case "sessiontoken":
		if err := sessionTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *sessionTokenEmail == "" || *sessionTokenTTL <= 0 {
			sessionTokenCmd.Usage()
			return errHelp
		}
		token, err := cli.sessionToken(*sessionTokenEmail, *sessionTokenTTL)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cli.out, token)
		return nil
	default:
		cli.printUsage()
		return errHelp
	}
}
