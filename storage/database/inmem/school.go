package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/school"
)

func refViolation(field string, notFound error) error {
	return core.NewValidationError(notFound, core.FieldError{Field: field, Error: notFound.Error()})
}

// deleteTeacher drops the profile and unassigns its classes. Lock must be held.
func deleteTeacher(db *DB, id string) {
	for cid, c := range db.classes {
		if c.TeacherID != nil && *c.TeacherID == id {
			c.TeacherID = nil
			db.classes[cid] = c
		}
	}
	delete(db.teachers, id)
}

// deleteStudent drops the profile and detaches its payments. Lock must be held.
func deleteStudent(db *DB, id string) {
	for pid, p := range db.payments {
		if p.StudentID != nil && *p.StudentID == id {
			p.StudentID = nil
			db.payments[pid] = p
		}
	}
	delete(db.students, id)
}

// Students

type studentRepository struct {
	db *DB
}

var _ school.StudentRepository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) school.StudentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) save(p school.StudentProfile) error {
	if _, ok := repo.db.classes[p.ClassID]; !ok {
		return refViolation("classId", school.ErrClassNotFound)
	}
	repo.db.students[p.AccountID] = p
	return nil
}

func (repo *studentRepository) CreateStudent(_ context.Context, p school.StudentProfile, _ ...core.DBExecutor) (school.StudentProfile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.accounts[p.AccountID]; !ok {
		return school.StudentProfile{}, errors.New("student account does not exist")
	}
	if _, ok := repo.db.students[p.AccountID]; ok {
		return school.StudentProfile{}, errors.New("student profile already exists")
	}
	return p, repo.save(p)
}

func (repo *studentRepository) GetStudent(_ context.Context, accountID string, _ ...core.DBExecutor) (school.StudentProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.students[accountID]; ok {
		return p, nil
	}
	return school.StudentProfile{}, school.ErrStudentNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, classID string, _ ...core.DBExecutor) ([]school.StudentProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := make([]school.StudentProfile, 0, len(repo.db.students))
	for _, p := range repo.db.students {
		if classID == "" || p.ClassID == classID {
			profiles = append(profiles, p)
		}
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].AccountID < profiles[j].AccountID })
	return profiles, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, p school.StudentProfile, _ ...core.DBExecutor) (school.StudentProfile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[p.AccountID]; !ok {
		return school.StudentProfile{}, school.ErrStudentNotFound
	}
	return p, repo.save(p)
}

func (repo *studentRepository) DeleteStudent(_ context.Context, accountID string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[accountID]; !ok {
		return school.ErrStudentNotFound
	}
	deleteStudent(repo.db, accountID)
	return nil
}

// Teachers

type teacherRepository struct {
	db *DB
}

var _ school.TeacherRepository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *DB) school.TeacherRepository {
	return &teacherRepository{db: db}
}

func (repo *teacherRepository) CreateTeacher(_ context.Context, p school.TeacherProfile, _ ...core.DBExecutor) (school.TeacherProfile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.accounts[p.AccountID]; !ok {
		return school.TeacherProfile{}, errors.New("teacher account does not exist")
	}
	if _, ok := repo.db.teachers[p.AccountID]; ok {
		return school.TeacherProfile{}, errors.New("teacher profile already exists")
	}
	repo.db.teachers[p.AccountID] = p
	return p, nil
}

func (repo *teacherRepository) GetTeacher(_ context.Context, accountID string, _ ...core.DBExecutor) (school.TeacherProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.teachers[accountID]; ok {
		return p, nil
	}
	return school.TeacherProfile{}, school.ErrTeacherNotFound
}

func (repo *teacherRepository) QueryTeachers(_ context.Context, _ ...core.DBExecutor) ([]school.TeacherProfile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	profiles := make([]school.TeacherProfile, 0, len(repo.db.teachers))
	for _, p := range repo.db.teachers {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].AccountID < profiles[j].AccountID })
	return profiles, nil
}

func (repo *teacherRepository) UpdateTeacher(_ context.Context, p school.TeacherProfile, _ ...core.DBExecutor) (school.TeacherProfile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.teachers[p.AccountID]; !ok {
		return school.TeacherProfile{}, school.ErrTeacherNotFound
	}
	repo.db.teachers[p.AccountID] = p
	return p, nil
}

func (repo *teacherRepository) DeleteTeacher(_ context.Context, accountID string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.teachers[accountID]; !ok {
		return school.ErrTeacherNotFound
	}
	deleteTeacher(repo.db, accountID)
	return nil
}

// Classes

type classRepository struct {
	db *DB
}

var _ school.ClassRepository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) school.ClassRepository {
	return &classRepository{db: db}
}

func (repo *classRepository) save(c school.Class) error {
	if c.TeacherID != nil {
		if _, ok := repo.db.teachers[*c.TeacherID]; !ok {
			return refViolation("teacherId", school.ErrTeacherNotFound)
		}
	}
	repo.db.classes[c.ID] = c
	return nil
}

func (repo *classRepository) CreateClass(_ context.Context, c school.Class, _ ...core.DBExecutor) (school.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	return c, repo.save(c)
}

func (repo *classRepository) GetClass(_ context.Context, id string, _ ...core.DBExecutor) (school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.classes[id]; ok {
		return c, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *classRepository) QueryClasses(_ context.Context, teacherID string, _ ...core.DBExecutor) ([]school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]school.Class, 0, len(repo.db.classes))
	for _, c := range repo.db.classes {
		if teacherID == "" || (c.TeacherID != nil && *c.TeacherID == teacherID) {
			classes = append(classes, c)
		}
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Name == classes[j].Name {
			return classes[i].ID < classes[j].ID
		}
		return classes[i].Name < classes[j].Name
	})
	return classes, nil
}

func (repo *classRepository) UpdateClass(_ context.Context, c school.Class, _ ...core.DBExecutor) (school.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[c.ID]; !ok {
		return school.Class{}, school.ErrClassNotFound
	}
	return c, repo.save(c)
}

func (repo *classRepository) DeleteClass(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[id]; !ok {
		return school.ErrClassNotFound
	}
	for _, s := range repo.db.students {
		if s.ClassID == id {
			return core.NewConflictError("Record is still referenced by student")
		}
	}
	for pid, p := range repo.db.payments {
		if p.ClassID != nil && *p.ClassID == id {
			p.ClassID = nil
			repo.db.payments[pid] = p
		}
	}
	delete(repo.db.classes, id)
	return nil
}

func (repo *classRepository) AssignTeacher(_ context.Context, teacherID string, classIDs []string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	assigned := make(map[string]bool, len(classIDs))
	for _, id := range classIDs {
		assigned[id] = true
	}
	if len(classIDs) > 0 {
		if _, ok := repo.db.teachers[teacherID]; !ok {
			return refViolation("teacherId", school.ErrTeacherNotFound)
		}
	}
	now := nowFunc()
	for id, c := range repo.db.classes {
		teaches := c.TeacherID != nil && *c.TeacherID == teacherID
		switch {
		case assigned[id] && !teaches:
			tid := teacherID
			c.TeacherID = &tid
		case !assigned[id] && teaches:
			c.TeacherID = nil
		default:
			continue
		}
		c.UpdatedAt = now
		repo.db.classes[id] = c
	}
	return nil
}

// Terms

type termRepository struct {
	db *DB
}

var _ school.TermRepository = (*termRepository)(nil) // interface compliance check

func NewTermRepository(db *DB) school.TermRepository {
	return &termRepository{db: db}
}

func (repo *termRepository) CreateTerm(_ context.Context, t school.Term, _ ...core.DBExecutor) (school.Term, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if t.EndDate.Before(t.StartDate.Time) {
		return school.Term{}, refViolation("endDate", school.ErrTermDates)
	}
	repo.db.terms[t.ID] = t
	return t, nil
}

func (repo *termRepository) GetTerm(_ context.Context, id string, _ ...core.DBExecutor) (school.Term, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.terms[id]; ok {
		return t, nil
	}
	return school.Term{}, school.ErrTermNotFound
}

func (repo *termRepository) QueryTerms(_ context.Context, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]school.Term, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	terms := make([]school.Term, 0, len(repo.db.terms))
	for _, t := range repo.db.terms {
		terms = append(terms, t)
	}
	sort.SliceStable(terms, func(i, j int) bool {
		for _, ord := range ordering {
			if c := compareTerms(terms[i], terms[j], ord.Field); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return terms[i].ID < terms[j].ID
	})
	return terms, nil
}

func compareTerms(a, b school.Term, field string) int {
	switch field {
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "start_date":
		return a.StartDate.Compare(b.StartDate.Time)
	case "end_date":
		return a.EndDate.Compare(b.EndDate.Time)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func (repo *termRepository) UpdateTerm(_ context.Context, t school.Term, _ ...core.DBExecutor) (school.Term, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.terms[t.ID]; !ok {
		return school.Term{}, school.ErrTermNotFound
	}
	if t.EndDate.Before(t.StartDate.Time) {
		return school.Term{}, refViolation("endDate", school.ErrTermDates)
	}
	repo.db.terms[t.ID] = t
	return t, nil
}

func (repo *termRepository) DeleteTerm(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.terms[id]; !ok {
		return school.ErrTermNotFound
	}
	for pid, p := range repo.db.payments {
		if p.TermID != nil && *p.TermID == id {
			p.TermID = nil
			repo.db.payments[pid] = p
		}
	}
	delete(repo.db.terms, id)
	return nil
}
