package school

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

type StudentService struct {
	stores   Stores
	accounts *account.Service
}

func NewStudentService(stores Stores, accounts *account.Service) *StudentService {
	return &StudentService{stores: stores, accounts: accounts}
}

// Create enrolls a new student: the account and its profile are written in one transaction.
func (svc *StudentService) Create(ctx context.Context, ns NewStudent) (Student, error) {
	if err := svc.accounts.CheckUniqueness(ctx, ns.Email, ns.ExternalAuthID, ""); err != nil {
		return Student{}, err
	}
	if err := checkClasses(ctx, svc.stores.Classes, "classId", ns.ClassID); err != nil {
		return Student{}, err
	}

	na := ns.newAccount()
	if err := svc.accounts.Provision(ctx, &na); err != nil {
		return Student{}, err
	}
	acc := svc.accounts.Build(na)
	prof := StudentProfile{
		AccountID:    acc.ID,
		ParentPhone:  ns.ParentPhone,
		GuardianName: ns.GuardianName,
		HealthNotes:  ns.HealthNotes,
		IsRepeating:  ns.IsRepeating,
		ClassID:      ns.ClassID,
	}

	err := svc.stores.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.stores.Accounts.CreateAccount(ctx, acc, exec); err != nil {
			return errors.Wrap(err, "inserting account")
		}
		_, err := svc.stores.Students.CreateStudent(ctx, prof, exec)
		return errors.Wrap(err, "inserting student")
	})
	if err != nil {
		return Student{}, err
	}
	return svc.Get(ctx, acc.ID)
}

func (svc *StudentService) Get(ctx context.Context, id string) (Student, error) {
	acc, err := svc.stores.Accounts.GetAccount(ctx, account.GetFilter{ID: id})
	if err != nil {
		return Student{}, entityNotFound(err, ErrStudentNotFound)
	}
	if !acc.IsStudent() {
		return Student{}, ErrStudentNotFound
	}
	prof, err := svc.stores.Students.GetStudent(ctx, id)
	if err != nil {
		return Student{}, entityNotFound(err, ErrStudentNotFound)
	}

	std := Student{Account: acc, Profile: prof}
	if class, err := svc.stores.Classes.GetClass(ctx, prof.ClassID); err == nil {
		std.Class = &class
		if class.TeacherID != nil {
			if teacher, err := svc.stores.Accounts.GetAccount(ctx, account.GetFilter{ID: *class.TeacherID}); err == nil {
				std.Teacher = &teacher
			}
		}
	} else if !core.IsNotFound(err) {
		return Student{}, errors.Wrap(err, "getting student class")
	}

	if std.Payments, err = svc.payments(ctx, id); err != nil {
		return Student{}, err
	}
	return std, nil
}

// payments returns the payments made by or for the student, newest first.
func (svc *StudentService) payments(ctx context.Context, id string) ([]Payment, error) {
	byUser, err := svc.stores.Payments.QueryPayments(ctx, PaymentFilter{UserID: id}, defaultPaymentOrdering)
	if err != nil {
		return nil, errors.Wrap(err, "querying student payments")
	}
	forStudent, err := svc.stores.Payments.QueryPayments(ctx, PaymentFilter{StudentID: id}, defaultPaymentOrdering)
	if err != nil {
		return nil, errors.Wrap(err, "querying student payments")
	}
	return mergePayments(byUser, forStudent), nil
}

// Query lists every student, ordered by name. Relations are loaded in bulk.
func (svc *StudentService) Query(ctx context.Context) ([]Student, error) {
	accounts, err := accountIndex(ctx, svc.stores.Accounts, "")
	if err != nil {
		return nil, err
	}
	profiles, err := svc.stores.Students.QueryStudents(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	classes, err := classIndex(ctx, svc.stores.Classes)
	if err != nil {
		return nil, err
	}
	payments, err := svc.stores.Payments.QueryPayments(ctx, PaymentFilter{}, defaultPaymentOrdering)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	byStudent := make(map[string][]Payment)
	for _, p := range payments {
		byStudent[p.UserID] = append(byStudent[p.UserID], p)
		if p.StudentID != nil && *p.StudentID != p.UserID {
			byStudent[*p.StudentID] = append(byStudent[*p.StudentID], p)
		}
	}

	students := make([]Student, 0, len(profiles))
	for _, prof := range profiles {
		acc, ok := accounts[prof.AccountID]
		if !ok || !acc.IsStudent() {
			continue
		}
		std := Student{Account: acc, Profile: prof, Payments: byStudent[acc.ID]}
		if class, ok := classes[prof.ClassID]; ok {
			std.Class = &class
			std.Teacher = lookupAccount(accounts, class.TeacherID)
		}
		students = append(students, std)
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].Account.Name < students[j].Account.Name })
	return students, nil
}

// Update applies a partial change to the student's account and profile in one transaction.
func (svc *StudentService) Update(ctx context.Context, us UpdateStudent) (Student, error) {
	std, err := svc.Get(ctx, us.ID)
	if err != nil {
		return Student{}, err
	}
	acc, prof := std.Account, std.Profile

	if err = checkAccountUpdate(ctx, svc.accounts, &acc, us.UpdateAccount); err != nil {
		return Student{}, err
	}
	if us.ClassID != nil && *us.ClassID != prof.ClassID {
		if err = checkClasses(ctx, svc.stores.Classes, "classId", *us.ClassID); err != nil {
			return Student{}, err
		}
	}
	us.apply(&prof)

	err = svc.stores.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.stores.Accounts.UpdateAccount(ctx, acc, exec); err != nil {
			return errors.Wrap(err, "updating account")
		}
		_, err := svc.stores.Students.UpdateStudent(ctx, prof, exec)
		return errors.Wrap(err, "updating student")
	})
	if err != nil {
		return Student{}, err
	}
	return svc.Get(ctx, us.ID)
}

// Delete removes the student profile then its account. Payments recorded for the student
// (but paid by someone else) are detached.
func (svc *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := svc.Get(ctx, id); err != nil {
		return err
	}
	return svc.stores.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		if err := checkNoPayments(ctx, svc.stores.Payments, id, exec); err != nil {
			return err
		}
		if err := svc.stores.Payments.Detach(ctx, PaymentStudentField, id, exec); err != nil {
			return errors.Wrap(err, "detaching payments")
		}
		if err := svc.stores.Students.DeleteStudent(ctx, id, exec); err != nil {
			return errors.Wrap(err, "deleting student")
		}
		return errors.Wrap(svc.stores.Accounts.DeleteAccount(ctx, id, exec), "deleting account")
	})
}

// mergePayments concatenates payment lists without duplicates, newest first.
func mergePayments(lists ...[]Payment) []Payment {
	seen := make(map[string]bool)
	var merged []Payment
	for _, list := range lists {
		for _, p := range list {
			if !seen[p.ID] {
				seen[p.ID] = true
				merged = append(merged, p)
			}
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].CreatedAt.After(merged[j].CreatedAt) })
	return merged
}
