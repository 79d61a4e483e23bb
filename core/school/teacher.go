package school

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

type TeacherService struct {
	stores   Stores
	accounts *account.Service
}

func NewTeacherService(stores Stores, accounts *account.Service) *TeacherService {
	return &TeacherService{stores: stores, accounts: accounts}
}

func (svc *TeacherService) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if err := svc.accounts.CheckUniqueness(ctx, nt.Email, nt.ExternalAuthID, ""); err != nil {
		return Teacher{}, err
	}
	if err := checkClasses(ctx, svc.stores.Classes, "classIds", nt.ClassIDs...); err != nil {
		return Teacher{}, err
	}

	na := nt.newAccount()
	if err := svc.accounts.Provision(ctx, &na); err != nil {
		return Teacher{}, err
	}
	acc := svc.accounts.Build(na)
	prof := TeacherProfile{
		AccountID:         acc.ID,
		Bio:               nt.Bio,
		Certification:     nt.Certification,
		YearsOfExperience: nt.YearsOfExperience,
	}

	err := svc.stores.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.stores.Accounts.CreateAccount(ctx, acc, exec); err != nil {
			return errors.Wrap(err, "inserting account")
		}
		if _, err := svc.stores.Teachers.CreateTeacher(ctx, prof, exec); err != nil {
			return errors.Wrap(err, "inserting teacher")
		}
		if len(nt.ClassIDs) == 0 {
			return nil
		}
		return errors.Wrap(svc.stores.Classes.AssignTeacher(ctx, acc.ID, nt.ClassIDs, exec), "assigning classes")
	})
	if err != nil {
		return Teacher{}, err
	}
	return svc.Get(ctx, acc.ID)
}

func (svc *TeacherService) Get(ctx context.Context, id string) (Teacher, error) {
	acc, err := svc.stores.Accounts.GetAccount(ctx, account.GetFilter{ID: id})
	if err != nil {
		return Teacher{}, entityNotFound(err, ErrTeacherNotFound)
	}
	if !acc.IsTeacher() {
		return Teacher{}, ErrTeacherNotFound
	}
	prof, err := svc.stores.Teachers.GetTeacher(ctx, id)
	if err != nil {
		return Teacher{}, entityNotFound(err, ErrTeacherNotFound)
	}
	classes, err := svc.stores.Classes.QueryClasses(ctx, id)
	if err != nil {
		return Teacher{}, errors.Wrap(err, "querying teacher classes")
	}
	return Teacher{Account: acc, Profile: prof, Classes: classes}, nil
}

// Query lists every teacher ordered by name, each with the classes they teach.
func (svc *TeacherService) Query(ctx context.Context) ([]Teacher, error) {
	accounts, err := accountIndex(ctx, svc.stores.Accounts, account.RoleTeacher)
	if err != nil {
		return nil, err
	}
	profiles, err := svc.stores.Teachers.QueryTeachers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	classes, err := svc.stores.Classes.QueryClasses(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	byTeacher := make(map[string][]Class)
	for _, c := range classes {
		if c.TeacherID != nil {
			byTeacher[*c.TeacherID] = append(byTeacher[*c.TeacherID], c)
		}
	}

	teachers := make([]Teacher, 0, len(profiles))
	for _, prof := range profiles {
		acc, ok := accounts[prof.AccountID]
		if !ok {
			continue
		}
		teachers = append(teachers, Teacher{Account: acc, Profile: prof, Classes: byTeacher[acc.ID]})
	}
	sort.SliceStable(teachers, func(i, j int) bool { return teachers[i].Account.Name < teachers[j].Account.Name })
	return teachers, nil
}

func (svc *TeacherService) Update(ctx context.Context, ut UpdateTeacher) (Teacher, error) {
	tch, err := svc.Get(ctx, ut.ID)
	if err != nil {
		return Teacher{}, err
	}
	acc, prof := tch.Account, tch.Profile

	if err = checkAccountUpdate(ctx, svc.accounts, &acc, ut.UpdateAccount); err != nil {
		return Teacher{}, err
	}
	if err = checkClasses(ctx, svc.stores.Classes, "classIds", ut.ClassIDs...); err != nil {
		return Teacher{}, err
	}
	ut.apply(&prof)

	err = svc.stores.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.stores.Accounts.UpdateAccount(ctx, acc, exec); err != nil {
			return errors.Wrap(err, "updating account")
		}
		if _, err := svc.stores.Teachers.UpdateTeacher(ctx, prof, exec); err != nil {
			return errors.Wrap(err, "updating teacher")
		}
		if ut.ClassIDs == nil {
			return nil
		}
		return errors.Wrap(svc.stores.Classes.AssignTeacher(ctx, acc.ID, ut.ClassIDs, exec), "assigning classes")
	})
	if err != nil {
		return Teacher{}, err
	}
	return svc.Get(ctx, ut.ID)
}

// Delete removes the teacher; the classes they taught are left without a teacher.
func (svc *TeacherService) Delete(ctx context.Context, id string) error {
	if _, err := svc.Get(ctx, id); err != nil {
		return err
	}
	return svc.stores.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		if err := checkNoPayments(ctx, svc.stores.Payments, id, exec); err != nil {
			return err
		}
		if err := svc.stores.Classes.AssignTeacher(ctx, id, nil, exec); err != nil {
			return errors.Wrap(err, "unassigning classes")
		}
		if err := svc.stores.Teachers.DeleteTeacher(ctx, id, exec); err != nil {
			return errors.Wrap(err, "deleting teacher")
		}
		return errors.Wrap(svc.stores.Accounts.DeleteAccount(ctx, id, exec), "deleting account")
	})
}
