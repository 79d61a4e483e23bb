package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	identitysvc "github.com/trezcool/schoolpay/services/identity"
)

var errNotLinked = errors.New("account is not linked to an identity")

// sessionToken signs a session for the account's identity, for local testing of the API.
func (cli *commandLine) sessionToken(email string, ttl time.Duration) (string, error) {
	acc, err := cli.accountSvc.GetByEmail(context.Background(), email)
	if err != nil {
		return "", err
	}
	if core.StringValue(acc.ExternalAuthID) == "" {
		return "", errNotLinked
	}
	return identitysvc.NewSessionToken(cli.conf, *acc.ExternalAuthID, acc.Role, ttl)
}
