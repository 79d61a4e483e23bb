package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

const accountColumns = "id, tracking_id, name, email, role, external_auth_id, created_at, updated_at"

type accountRow struct {
	ID             string      `db:"id"`
	TrackingID     string      `db:"tracking_id"`
	Name           string      `db:"name"`
	Email          string      `db:"email"`
	Role           string      `db:"role"`
	ExternalAuthID null.String `db:"external_auth_id"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func toAccountRow(acc account.Account) accountRow {
	return accountRow{
		ID:             acc.ID,
		TrackingID:     acc.TrackingID,
		Name:           acc.Name,
		Email:          acc.Email,
		Role:           acc.Role,
		ExternalAuthID: null.StringFromPtr(acc.ExternalAuthID),
		CreatedAt:      acc.CreatedAt.UTC(),
		UpdatedAt:      acc.UpdatedAt.UTC(),
	}
}

func (r accountRow) model() account.Account {
	return account.Account{
		ID:             r.ID,
		TrackingID:     r.TrackingID,
		Name:           r.Name,
		Email:          r.Email,
		Role:           r.Role,
		ExternalAuthID: r.ExternalAuthID.Ptr(),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type accountRepository struct {
	base
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db core.DBExecutor) *accountRepository {
	return &accountRepository{base{exec: db}}
}

func (repo accountRepository) CheckUniqueness(ctx context.Context, email, externalAuthID, excludedID string, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)
	check := func(column, value string, errExists error) error {
		if value == "" {
			return nil
		}
		var found bool
		q := "SELECT EXISTS (SELECT 1 FROM account WHERE " + column + " = $1 AND id::text <> $2)"
		if err := sqlx.GetContext(ctx, exe, &found, q, value, excludedID); err != nil {
			return errors.Wrap(err, "checking account uniqueness")
		}
		if found {
			return errExists
		}
		return nil
	}

	if err := check("email", email, account.ErrEmailExists); err != nil {
		return err
	}
	return check("external_auth_id", externalAuthID, account.ErrExternalAuthIDExists)
}

func (repo accountRepository) CreateAccount(ctx context.Context, acc account.Account, exec ...core.DBExecutor) (account.Account, error) {
	q := "INSERT INTO account (" + accountColumns + ") " +
		"VALUES (:id, :tracking_id, :name, :email, :role, :external_auth_id, :created_at, :updated_at)"
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toAccountRow(acc)); err != nil {
		return account.Account{}, translateErr(err, "inserting account")
	}
	return acc, nil
}

func (repo accountRepository) GetAccount(ctx context.Context, filter account.GetFilter, exec ...core.DBExecutor) (account.Account, error) {
	var column, value string
	switch {
	case filter.ID != "":
		if !isID(filter.ID) {
			return account.Account{}, account.ErrNotFound
		}
		column, value = "id", filter.ID
	case filter.Email != "":
		column, value = "email", filter.Email
	case filter.ExternalAuthID != "":
		column, value = "external_auth_id", filter.ExternalAuthID
	default:
		return account.Account{}, account.ErrNotFound
	}

	var row accountRow
	q := "SELECT " + accountColumns + " FROM account WHERE " + column + " = $1"
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, value); err != nil {
		if err == sql.ErrNoRows {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "finding account")
	}
	return row.model(), nil
}

func (repo accountRepository) QueryAccounts(ctx context.Context, role string, exec ...core.DBExecutor) ([]account.Account, error) {
	var rows []accountRow
	var err error
	if role == "" {
		err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, "SELECT "+accountColumns+" FROM account ORDER BY name")
	} else {
		err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, "SELECT "+accountColumns+" FROM account WHERE role = $1 ORDER BY name", role)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}

	accounts := make([]account.Account, 0, len(rows))
	for _, r := range rows {
		accounts = append(accounts, r.model())
	}
	return accounts, nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acc account.Account, exec ...core.DBExecutor) (account.Account, error) {
	q := "UPDATE account SET name = :name, email = :email, role = :role, external_auth_id = :external_auth_id, " +
		"updated_at = :updated_at WHERE id = :id"
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toAccountRow(acc))
	if err = affected(res, err, account.ErrNotFound, "updating account"); err != nil {
		return account.Account{}, err
	}
	return acc, nil
}

func (repo accountRepository) DeleteAccount(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isID(id) {
		return account.ErrNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM account WHERE id = $1", id)
	return affected(res, err, account.ErrNotFound, "deleting account")
}
