package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db}
}

// uniqueness must be called with the lock held.
func (repo *accountRepository) uniqueness(email, externalAuthID, excludedID string) error {
	for _, acc := range repo.db.accounts {
		if acc.ID == excludedID {
			continue
		}
		if email != "" && acc.Email == email {
			return account.ErrEmailExists
		}
		if externalAuthID != "" && core.StringValue(acc.ExternalAuthID) == externalAuthID {
			return account.ErrExternalAuthIDExists
		}
	}
	return nil
}

func (repo *accountRepository) CheckUniqueness(_ context.Context, email, externalAuthID, excludedID string, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.uniqueness(email, externalAuthID, excludedID)
}

func (repo *accountRepository) CreateAccount(_ context.Context, acc account.Account, _ ...core.DBExecutor) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.uniqueness(acc.Email, core.StringValue(acc.ExternalAuthID), ""); err != nil {
		return account.Account{}, violation(err)
	}
	repo.db.accounts[acc.ID] = acc
	return acc, nil
}

func (repo *accountRepository) GetAccount(_ context.Context, filter account.GetFilter, _ ...core.DBExecutor) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if acc, ok := repo.db.accounts[filter.ID]; ok {
			return acc, nil
		}
		return account.Account{}, account.ErrNotFound
	}
	for _, acc := range repo.db.accounts {
		switch {
		case filter.Email != "" && acc.Email == filter.Email:
			return acc, nil
		case filter.Email == "" && filter.ExternalAuthID != "" && core.StringValue(acc.ExternalAuthID) == filter.ExternalAuthID:
			return acc, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) QueryAccounts(_ context.Context, role string, _ ...core.DBExecutor) ([]account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	accounts := make([]account.Account, 0, len(repo.db.accounts))
	for _, acc := range repo.db.accounts {
		if role == "" || acc.Role == role {
			accounts = append(accounts, acc)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Name == accounts[j].Name {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].Name < accounts[j].Name
	})
	return accounts, nil
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acc account.Account, _ ...core.DBExecutor) (account.Account, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.accounts[acc.ID]; !ok {
		return account.Account{}, account.ErrNotFound
	}
	if err := repo.uniqueness(acc.Email, core.StringValue(acc.ExternalAuthID), acc.ID); err != nil {
		return account.Account{}, violation(err)
	}
	repo.db.accounts[acc.ID] = acc
	return acc, nil
}

// violation reports a unique constraint failure the way the SQL store does.
func violation(err error) error {
	field := "email"
	if err == account.ErrExternalAuthIDExists {
		field = "externalAuthId"
	}
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

// DeleteAccount cascades to the role profiles; payers cannot be deleted.
func (repo *accountRepository) DeleteAccount(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.accounts[id]; !ok {
		return account.ErrNotFound
	}
	for _, p := range repo.db.payments {
		if p.UserID == id {
			return core.NewConflictError("Record is still referenced by payment")
		}
	}
	if _, ok := repo.db.teachers[id]; ok {
		deleteTeacher(repo.db, id)
	}
	if _, ok := repo.db.students[id]; ok {
		deleteStudent(repo.db, id)
	}
	delete(repo.db.accounts, id)
	return nil
}
