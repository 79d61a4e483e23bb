package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

// addAdmin updates or creates an admin account.
func (cli *commandLine) addAdmin(name, email, authID string) (account.Account, error) {
	na := account.NewAccount{
		Name:  name,
		Email: email,
		Role:  account.RoleAdmin,
	}
	if authID = core.CleanString(authID); authID != "" {
		na.ExternalAuthID = &authID
	}
	if err := na.Validate(cli.validate); err != nil {
		return account.Account{}, err
	}

	acc, err := cli.accountSvc.UpdateOrCreate(context.Background(), na)
	if err != nil {
		return account.Account{}, errors.Wrap(err, "saving admin")
	}
	return acc, nil
}
