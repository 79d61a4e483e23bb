package school

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
	"github.com/trezcool/schoolpay/core/trackcode"
)

type ClassService struct {
	stores Stores
}

func NewClassService(stores Stores) *ClassService {
	return &ClassService{stores: stores}
}

func (svc *ClassService) Create(ctx context.Context, nc NewClass) (ClassDetail, error) {
	if nc.TeacherID != nil {
		if err := checkTeacher(ctx, svc.stores.Teachers, "teacherId", *nc.TeacherID); err != nil {
			return ClassDetail{}, err
		}
	}
	now := nowFunc()
	class, err := svc.stores.Classes.CreateClass(ctx, Class{
		ID:         uuid.NewString(),
		TrackingID: trackcode.Generate(nc.Name, now),
		Name:       nc.Name,
		TeacherID:  nc.TeacherID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return ClassDetail{}, errors.Wrap(err, "inserting class")
	}
	return svc.Get(ctx, class.ID)
}

func (svc *ClassService) Get(ctx context.Context, id string) (ClassDetail, error) {
	class, err := svc.stores.Classes.GetClass(ctx, id)
	if err != nil {
		return ClassDetail{}, err
	}
	detail := ClassDetail{Class: class}

	if class.TeacherID != nil {
		teacher, err := svc.stores.Accounts.GetAccount(ctx, account.GetFilter{ID: *class.TeacherID})
		if err != nil && !core.IsNotFound(err) {
			return ClassDetail{}, errors.Wrap(err, "getting class teacher")
		}
		if err == nil {
			detail.Teacher = &teacher
		}
	}

	profiles, err := svc.stores.Students.QueryStudents(ctx, id)
	if err != nil {
		return ClassDetail{}, errors.Wrap(err, "querying class students")
	}
	if len(profiles) > 0 {
		accounts, err := accountIndex(ctx, svc.stores.Accounts, account.RoleStudent)
		if err != nil {
			return ClassDetail{}, err
		}
		detail.Students = enrolled(profiles, accounts)
	}
	return detail, nil
}

// Query lists every class ordered by name, with its teacher and enrolled students.
func (svc *ClassService) Query(ctx context.Context) ([]ClassDetail, error) {
	classes, err := svc.stores.Classes.QueryClasses(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	accounts, err := accountIndex(ctx, svc.stores.Accounts, "")
	if err != nil {
		return nil, err
	}
	profiles, err := svc.stores.Students.QueryStudents(ctx, "")
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	byClass := make(map[string][]StudentProfile)
	for _, p := range profiles {
		byClass[p.ClassID] = append(byClass[p.ClassID], p)
	}

	details := make([]ClassDetail, 0, len(classes))
	for _, c := range classes {
		details = append(details, ClassDetail{
			Class:    c,
			Teacher:  lookupAccount(accounts, c.TeacherID),
			Students: enrolled(byClass[c.ID], accounts),
		})
	}
	return details, nil
}

// Update renames the class and/or changes its teacher; an empty teacherId removes the teacher.
func (svc *ClassService) Update(ctx context.Context, uc UpdateClass) (ClassDetail, error) {
	class, err := svc.stores.Classes.GetClass(ctx, uc.ID)
	if err != nil {
		return ClassDetail{}, err
	}
	if uc.Name != nil {
		class.Name = *uc.Name
	}
	if uc.TeacherID != nil {
		if *uc.TeacherID == "" {
			class.TeacherID = nil
		} else {
			if err = checkTeacher(ctx, svc.stores.Teachers, "teacherId", *uc.TeacherID); err != nil {
				return ClassDetail{}, err
			}
			class.TeacherID = uc.TeacherID
		}
	}
	class.UpdatedAt = nowFunc()

	if _, err = svc.stores.Classes.UpdateClass(ctx, class); err != nil {
		return ClassDetail{}, errors.Wrap(err, "updating class")
	}
	return svc.Get(ctx, uc.ID)
}

// Delete refuses to remove a class that still has students; payments made for it are detached.
func (svc *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := svc.stores.Classes.GetClass(ctx, id); err != nil {
		return err
	}
	return svc.stores.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		students, err := svc.stores.Students.QueryStudents(ctx, id, exec)
		if err != nil {
			return errors.Wrap(err, "querying class students")
		}
		if n := len(students); n > 0 {
			return core.NewConflictError(fmt.Sprintf("Cannot delete a class with %d enrolled student(s)", n))
		}
		if err = svc.stores.Payments.Detach(ctx, PaymentClassField, id, exec); err != nil {
			return errors.Wrap(err, "detaching payments")
		}
		return errors.Wrap(svc.stores.Classes.DeleteClass(ctx, id, exec), "deleting class")
	})
}

// enrolled pairs profiles with their accounts, ordered by name.
func enrolled(profiles []StudentProfile, accounts map[string]account.Account) []Student {
	students := make([]Student, 0, len(profiles))
	for _, p := range profiles {
		if acc, ok := accounts[p.AccountID]; ok {
			students = append(students, Student{Account: acc, Profile: p})
		}
	}
	sort.SliceStable(students, func(i, j int) bool { return students[i].Account.Name < students[j].Account.Name })
	return students
}
