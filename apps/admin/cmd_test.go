package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
	identitysvc "github.com/trezcool/schoolpay/services/identity"
	logsvc "github.com/trezcool/schoolpay/services/logger"
	inmemdb "github.com/trezcool/schoolpay/storage/database/inmem"
)

var testConf = &core.Config{
	AppName:  "SchoolPay",
	TestMode: true,
	Identity: core.IdentityConfig{SessionSecret: "test-session-secret", Issuer: "https://identity.test"},
}

type provisionerMock struct {
	created []account.NewIdentity
	err     error
}

func (p *provisionerMock) CreateUser(_ context.Context, ni account.NewIdentity) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.created = append(p.created, ni)
	return fmt.Sprintf("user_%d", len(p.created)), nil
}

func setup(t *testing.T, provisioner account.Provisioner) (*commandLine, *bytes.Buffer) {
	t.Helper()

	db := inmemdb.Open()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), testConf)
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	out := new(bytes.Buffer)
	return &commandLine{
		conf:       testConf,
		accountSvc: account.NewService(inmemdb.NewAccountRepository(db), provisioner, logger),
		validate:   validate,
		out:        out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out := setup(t, nil)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	})
	assert.Contains(t, out.String(), "addadmin -name NAME -email EMAIL")
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t, nil)

	var ran []string
	origMigrate := migrateFunc
	t.Cleanup(func() { migrateFunc = origMigrate })
	migrateFunc = func(db *sql.DB, command string, args ...string) error {
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
		ran = append(ran, strings.TrimSpace(command+" "+strings.Join(args, " ")))
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_fees", "sql"}},
	})
	assert.Equal(t, []string{"up", "up-to 2", "down-to 1", "status", "create add_fees sql"}, ran)
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli, _ := setup(t, nil)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "no email", args: []string{"addadmin", "-name", "Ada"}, wantErr: errHelp},
		{name: "bad flag", args: []string{"addadmin", "-lol"}, wantErrStr: "flag provided but not defined"},
		{name: "bad email", args: []string{"addadmin", "-name", "Ada", "-email", "ada"}, wantErrStr: "Error:Field validation for 'email' failed on the 'email' tag"},
		{name: "create", args: []string{"addadmin", "-name", "Ada", "-email", "Ada@School.test", "-authid", "user_ada"}},
		{name: "update", args: []string{"addadmin", "-name", "Ada Lovelace", "-email", "ada@school.test"}},
	})

	acc, err := cli.accountSvc.GetByEmail(context.Background(), "ada@school.test")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", acc.Name)
	assert.Equal(t, account.RoleAdmin, acc.Role)
	assert.Equal(t, "user_ada", core.StringValue(acc.ExternalAuthID), "kept when omitted")
}

func Test_commandLine_addAdmin_existingStudent(t *testing.T) {
	cli, _ := setup(t, nil)

	_, err := cli.accountSvc.Create(context.Background(), account.NewAccount{Name: "Jane", Email: "jane@school.test", Role: account.RoleStudent})
	require.NoError(t, err)

	runCLITests(t, cli, []cliTest{
		{name: "role change", args: []string{"addadmin", "-name", "Jane", "-email", "jane@school.test"}, wantErr: account.ErrRoleChange},
	})

	acc, err := cli.accountSvc.GetByEmail(context.Background(), "jane@school.test")
	require.NoError(t, err)
	assert.Equal(t, account.RoleStudent, acc.Role)
}

func Test_commandLine_addAdmin_provisioning(t *testing.T) {
	provisioner := new(provisionerMock)
	cli, _ := setup(t, provisioner)

	runCLITests(t, cli, []cliTest{
		{name: "provisioned", args: []string{"addadmin", "-name", "Ada", "-email", "ada@school.test"}},
		{name: "linked", args: []string{"addadmin", "-name", "Bob", "-email", "bob@school.test", "-authid", "user_bob"}},
	})
	require.Len(t, provisioner.created, 1)
	assert.Equal(t, account.NewIdentity{Email: "ada@school.test", Name: "Ada", Role: account.RoleAdmin}, provisioner.created[0])

	acc, err := cli.accountSvc.GetByEmail(context.Background(), "ada@school.test")
	require.NoError(t, err)
	assert.Equal(t, "user_1", core.StringValue(acc.ExternalAuthID))

	provisioner.err = errors.New("boom")
	err = cli.run([]string{"admin", "addadmin", "-name", "Cy", "-email", "cy@school.test"})
	require.Error(t, err)
	_, ok := errors.Cause(err).(*core.UpstreamError)
	assert.True(t, ok, "got %T", errors.Cause(err))
}

func Test_commandLine_sessionToken(t *testing.T) {
	cli, out := setup(t, nil)

	_, err := cli.accountSvc.Create(context.Background(), account.NewAccount{Name: "Ada", Email: "ada@school.test", Role: account.RoleAdmin, ExternalAuthID: core.StringPtr("user_ada")})
	require.NoError(t, err)
	_, err = cli.accountSvc.Create(context.Background(), account.NewAccount{Name: "Bob", Email: "bob@school.test", Role: account.RoleTeacher})
	require.NoError(t, err)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"sessiontoken"}, wantErr: errHelp},
		{name: "bad ttl", args: []string{"sessiontoken", "-email", "ada@school.test", "-ttl", "-1h"}, wantErr: errHelp},
		{name: "unknown account", args: []string{"sessiontoken", "-email", "lol@school.test"}, wantErr: account.ErrNotFound},
		{name: "not linked", args: []string{"sessiontoken", "-email", "bob@school.test"}, wantErr: errNotLinked},
	})

	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "sessiontoken", "-email", "ada@school.test", "-ttl", "10m"}))

	sess, err := identitysvc.NewSessionVerifier(testConf).Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "user_ada", sess.Subject)
	assert.Equal(t, account.RoleAdmin, sess.Role)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), sess.ExpiresAt, time.Minute)
}
