package logsvc

import (
	"log"
	"os"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

const serverRoot = "github.com/trezcool/schoolpay"

// RollbarLogger prints every entry to std and reports it to Rollbar when a token is configured.
type RollbarLogger struct {
	std    *log.Logger
	client *rollbar.Client
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	host, _ := os.Hostname()
	client := rollbar.New(conf.RollbarToken, conf.Env, conf.Build, host, serverRoot)
	client.SetStackTracer(errors.StackTracer)
	client.SetEnabled(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return &RollbarLogger{std: std, client: client}
}

// splitAccount pulls the first account out of args; it becomes the Rollbar person.
func splitAccount(args []interface{}) (*account.Account, []interface{}) {
	var acc *account.Account
	values := make([]interface{}, 0, len(args))
	for _, arg := range args {
		switch a := arg.(type) {
		case account.Account:
			if acc == nil {
				acc = &a
			}
		case *account.Account:
			if acc == nil && a != nil {
				acc = a
			}
		default:
			values = append(values, arg)
		}
	}
	return acc, values
}

// report sends msg at level. args: errors, map[string]interface{} extras, the related account.
func (l RollbarLogger) report(level, msg string, args []interface{}) {
	acc, values := splitAccount(args)
	if acc != nil {
		l.client.SetPerson(acc.ID, acc.Name, acc.Email)
	} else {
		l.client.ClearPerson()
	}
	l.client.Log(level, append([]interface{}{msg}, values...)...)

	l.std.Printf("[%s] %s", strings.ToUpper(level), msg)
	for _, v := range values {
		l.std.Printf("\t%+v", v)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.report(rollbar.DEBUG, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.report(rollbar.INFO, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.report(rollbar.WARN, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.report(rollbar.ERR, msg, args) }

// Fatal waits for pending Rollbar items before exiting.
func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.report(rollbar.CRIT, msg, args)
	l.client.Wait()
	l.std.Fatal(msg)
}
