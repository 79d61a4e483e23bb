package account

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/trackcode"
)

var (
	// errors
	ErrNotFound             = core.NewNotFoundError("Account")
	ErrEmailExists          = errors.New("Email already exists")
	ErrExternalAuthIDExists = errors.New("an account is already linked to this identity")
	ErrUnknownIdentity      = errors.New("User not found in database")
	ErrRoleChange           = core.NewConflictError("Cannot change the role of an existing account")

	nowFunc = func() time.Time { return time.Now().UTC() } // mockable
)

type (
	Repository interface {
		// CheckUniqueness returns ErrEmailExists or ErrExternalAuthIDExists when another account
		// (other than excludedID) already uses one of the given values. Empty values are skipped.
		CheckUniqueness(ctx context.Context, email, externalAuthID, excludedID string, exec ...core.DBExecutor) error
		CreateAccount(ctx context.Context, acc Account, exec ...core.DBExecutor) (Account, error)
		GetAccount(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Account, error)
		// QueryAccounts lists accounts ordered by name; an empty role returns every account.
		QueryAccounts(ctx context.Context, role string, exec ...core.DBExecutor) ([]Account, error)
		UpdateAccount(ctx context.Context, acc Account, exec ...core.DBExecutor) (Account, error)
		DeleteAccount(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo        Repository
		provisioner Provisioner
		logger      core.Logger
	}
)

// NewService returns the account service. provisioner may be nil: identity-provider accounts
// are then expected to be linked through externalAuthId.
func NewService(repo Repository, provisioner Provisioner, logger core.Logger) *Service {
	return &Service{repo: repo, provisioner: provisioner, logger: logger}
}

// CheckUniqueness maps store uniqueness errors to field validation errors.
func (svc *Service) CheckUniqueness(ctx context.Context, email string, externalAuthID *string, excludedID string, exec ...core.DBExecutor) error {
	err := svc.repo.CheckUniqueness(ctx, email, core.StringValue(externalAuthID), excludedID, exec...)
	if err == nil {
		return nil
	}
	var field string
	switch errors.Cause(err) {
	case ErrEmailExists:
		field = "email"
	case ErrExternalAuthIDExists:
		field = "externalAuthId"
	default:
		return errors.Wrap(err, "checking account uniqueness")
	}
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

// Provision creates the identity-provider account for na when provisioning is enabled and
// na is not linked yet. No local row is written.
func (svc *Service) Provision(ctx context.Context, na *NewAccount) error {
	if svc.provisioner == nil || na.ExternalAuthID != nil {
		return nil
	}
	extID, err := svc.provisioner.CreateUser(ctx, NewIdentity{Email: na.Email, Name: na.Name, Role: na.Role})
	if err != nil {
		err = core.NewUpstreamError("identity provider", err)
		svc.logger.Error("failed to create identity provider user", err, map[string]interface{}{"email": na.Email})
		return err
	}
	na.ExternalAuthID = &extID
	return nil
}

// Build returns the Account row for na, with its primary key and tracking code generated.
func (svc *Service) Build(na NewAccount) Account {
	now := nowFunc()
	return Account{
		ID:             uuid.NewString(),
		TrackingID:     trackcode.Generate(na.Name, now),
		Name:           na.Name,
		Email:          na.Email,
		Role:           na.Role,
		ExternalAuthID: na.ExternalAuthID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Create registers a standalone account (admins have no profile).
func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	na.Clean()
	if err := svc.CheckUniqueness(ctx, na.Email, na.ExternalAuthID, ""); err != nil {
		return Account{}, err
	}
	if err := svc.Provision(ctx, &na); err != nil {
		return Account{}, err
	}
	acc, err := svc.repo.CreateAccount(ctx, svc.Build(na))
	if err != nil {
		return Account{}, errors.Wrap(err, "creating account")
	}
	return acc, nil
}

// UpdateOrCreate updates the account matching na's email or creates it.
// The role of an existing account is fixed: it decides which profile row belongs to it.
func (svc *Service) UpdateOrCreate(ctx context.Context, na NewAccount) (Account, error) {
	na.Clean()
	acc, err := svc.repo.GetAccount(ctx, GetFilter{Email: na.Email})
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Account{}, errors.Wrap(err, "finding account by email")
		}
		return svc.Create(ctx, na)
	}

	if acc.Role != na.Role {
		return Account{}, ErrRoleChange
	}
	if err = svc.CheckUniqueness(ctx, "", na.ExternalAuthID, acc.ID); err != nil {
		return Account{}, err
	}
	acc.Name = na.Name
	if na.ExternalAuthID != nil {
		acc.ExternalAuthID = na.ExternalAuthID
	}
	acc.UpdatedAt = nowFunc()
	return svc.repo.UpdateAccount(ctx, acc)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) GetByExternalID(ctx context.Context, externalID string) (Account, error) {
	return svc.repo.GetAccount(ctx, GetFilter{ExternalAuthID: core.CleanString(externalID)})
}

// Resolve maps an authenticated session to the stored account linked to its subject.
func (svc *Service) Resolve(ctx context.Context, sess Session) (Account, error) {
	if sess.Subject == "" {
		return Account{}, ErrUnknownIdentity
	}
	acc, err := svc.repo.GetAccount(ctx, GetFilter{ExternalAuthID: sess.Subject})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Account{}, ErrUnknownIdentity
		}
		return Account{}, errors.Wrap(err, "finding account by external id")
	}
	return acc, nil
}

func (svc *Service) Query(ctx context.Context, role string) ([]Account, error) {
	return svc.repo.QueryAccounts(ctx, role)
}
