package school

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

var nowFunc = func() time.Time { return time.Now().UTC() } // mockable

// refError reports a reference to a missing row as a validation error on field.
func refError(field string, err error) error {
	if core.IsNotFound(err) {
		cause := errors.Cause(err)
		return core.NewValidationError(cause, core.FieldError{Field: field, Error: cause.Error()})
	}
	return err
}

// entityNotFound replaces an account lookup miss with the profile's own not-found error.
func entityNotFound(err error, notFound error) error {
	if core.IsNotFound(err) {
		return notFound
	}
	return err
}

// accountIndex loads accounts keyed by ID; an empty role loads all of them.
func accountIndex(ctx context.Context, repo account.Repository, role string) (map[string]account.Account, error) {
	accs, err := repo.QueryAccounts(ctx, role)
	if err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}
	idx := make(map[string]account.Account, len(accs))
	for _, a := range accs {
		idx[a.ID] = a
	}
	return idx, nil
}

func classIndex(ctx context.Context, repo ClassRepository) (map[string]Class, error) {
	classes, err := repo.QueryClasses(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	idx := make(map[string]Class, len(classes))
	for _, c := range classes {
		idx[c.ID] = c
	}
	return idx, nil
}

func lookupAccount(idx map[string]account.Account, id *string) *account.Account {
	if id == nil {
		return nil
	}
	if a, ok := idx[*id]; ok {
		return &a
	}
	return nil
}

// checkClasses verifies every id references an existing class.
func checkClasses(ctx context.Context, repo ClassRepository, field string, ids ...string) error {
	for _, id := range ids {
		if _, err := repo.GetClass(ctx, id); err != nil {
			return refError(field, err)
		}
	}
	return nil
}

// checkTeacher verifies id references an existing teacher profile.
func checkTeacher(ctx context.Context, repo TeacherRepository, field, id string) error {
	if _, err := repo.GetTeacher(ctx, id); err != nil {
		return refError(field, err)
	}
	return nil
}

// checkAccountUpdate re-validates the uniqueness of changed account fields and applies them.
func checkAccountUpdate(ctx context.Context, svc *account.Service, acc *account.Account, ua account.UpdateAccount) error {
	email := ""
	if ua.Email != nil && *ua.Email != acc.Email {
		email = *ua.Email
	}
	extID := ua.ExternalAuthID
	if extID != nil && acc.ExternalAuthID != nil && *extID == *acc.ExternalAuthID {
		extID = nil
	}
	if email != "" || extID != nil {
		if err := svc.CheckUniqueness(ctx, email, extID, acc.ID); err != nil {
			return err
		}
	}
	ua.Apply(acc)
	acc.UpdatedAt = nowFunc()
	return nil
}

// checkNoPayments refuses to remove an account still referenced as the payer of a payment.
func checkNoPayments(ctx context.Context, repo PaymentRepository, accountID string, exec core.DBExecutor) error {
	n, err := repo.CountPayments(ctx, accountID, exec)
	if err != nil {
		return errors.Wrap(err, "counting payments")
	}
	if n > 0 {
		return core.NewConflictError("Cannot delete an account that has payments")
	}
	return nil
}
