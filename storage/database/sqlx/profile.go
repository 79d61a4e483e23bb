package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/school"
)

// Students

const studentColumns = "account_id, parent_phone, guardian_name, health_notes, is_repeating, class_id"

type studentRow struct {
	AccountID    string      `db:"account_id"`
	ParentPhone  null.String `db:"parent_phone"`
	GuardianName null.String `db:"guardian_name"`
	HealthNotes  null.String `db:"health_notes"`
	IsRepeating  bool        `db:"is_repeating"`
	ClassID      string      `db:"class_id"`
}

func toStudentRow(p school.StudentProfile) studentRow {
	return studentRow{
		AccountID:    p.AccountID,
		ParentPhone:  null.StringFromPtr(p.ParentPhone),
		GuardianName: null.StringFromPtr(p.GuardianName),
		HealthNotes:  null.StringFromPtr(p.HealthNotes),
		IsRepeating:  p.IsRepeating,
		ClassID:      p.ClassID,
	}
}

func (r studentRow) model() school.StudentProfile {
	return school.StudentProfile{
		AccountID:    r.AccountID,
		ParentPhone:  r.ParentPhone.Ptr(),
		GuardianName: r.GuardianName.Ptr(),
		HealthNotes:  r.HealthNotes.Ptr(),
		IsRepeating:  r.IsRepeating,
		ClassID:      r.ClassID,
	}
}

type studentRepository struct {
	base
}

var _ school.StudentRepository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db core.DBExecutor) *studentRepository {
	return &studentRepository{base{exec: db}}
}

func (repo studentRepository) CreateStudent(ctx context.Context, p school.StudentProfile, exec ...core.DBExecutor) (school.StudentProfile, error) {
	q := "INSERT INTO student (" + studentColumns + ") " +
		"VALUES (:account_id, :parent_phone, :guardian_name, :health_notes, :is_repeating, :class_id)"
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toStudentRow(p)); err != nil {
		return school.StudentProfile{}, translateErr(err, "inserting student")
	}
	return p, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, accountID string, exec ...core.DBExecutor) (school.StudentProfile, error) {
	if !isID(accountID) {
		return school.StudentProfile{}, school.ErrStudentNotFound
	}
	var row studentRow
	q := "SELECT " + studentColumns + " FROM student WHERE account_id = $1"
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, accountID); err != nil {
		if err == sql.ErrNoRows {
			return school.StudentProfile{}, school.ErrStudentNotFound
		}
		return school.StudentProfile{}, errors.Wrap(err, "finding student")
	}
	return row.model(), nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, classID string, exec ...core.DBExecutor) ([]school.StudentProfile, error) {
	var rows []studentRow
	var err error
	if classID == "" {
		err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, "SELECT "+studentColumns+" FROM student")
	} else if isID(classID) {
		err = sqlx.SelectContext(ctx, repo.getExec(exec), &rows, "SELECT "+studentColumns+" FROM student WHERE class_id = $1", classID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	profiles := make([]school.StudentProfile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.model())
	}
	return profiles, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, p school.StudentProfile, exec ...core.DBExecutor) (school.StudentProfile, error) {
	q := "UPDATE student SET parent_phone = :parent_phone, guardian_name = :guardian_name, health_notes = :health_notes, " +
		"is_repeating = :is_repeating, class_id = :class_id WHERE account_id = :account_id"
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toStudentRow(p))
	if err = affected(res, err, school.ErrStudentNotFound, "updating student"); err != nil {
		return school.StudentProfile{}, err
	}
	return p, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, accountID string, exec ...core.DBExecutor) error {
	if !isID(accountID) {
		return school.ErrStudentNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM student WHERE account_id = $1", accountID)
	return affected(res, err, school.ErrStudentNotFound, "deleting student")
}

// Teachers

const teacherColumns = "account_id, bio, certification, years_of_experience"

type teacherRow struct {
	AccountID         string      `db:"account_id"`
	Bio               null.String `db:"bio"`
	Certification     null.String `db:"certification"`
	YearsOfExperience null.Int    `db:"years_of_experience"`
}

func toTeacherRow(p school.TeacherProfile) teacherRow {
	return teacherRow{
		AccountID:         p.AccountID,
		Bio:               null.StringFromPtr(p.Bio),
		Certification:     null.StringFromPtr(p.Certification),
		YearsOfExperience: null.IntFromPtr(p.YearsOfExperience),
	}
}

func (r teacherRow) model() school.TeacherProfile {
	return school.TeacherProfile{
		AccountID:         r.AccountID,
		Bio:               r.Bio.Ptr(),
		Certification:     r.Certification.Ptr(),
		YearsOfExperience: r.YearsOfExperience.Ptr(),
	}
}

type teacherRepository struct {
	base
}

var _ school.TeacherRepository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db core.DBExecutor) *teacherRepository {
	return &teacherRepository{base{exec: db}}
}

func (repo teacherRepository) CreateTeacher(ctx context.Context, p school.TeacherProfile, exec ...core.DBExecutor) (school.TeacherProfile, error) {
	q := "INSERT INTO teacher (" + teacherColumns + ") VALUES (:account_id, :bio, :certification, :years_of_experience)"
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toTeacherRow(p)); err != nil {
		return school.TeacherProfile{}, translateErr(err, "inserting teacher")
	}
	return p, nil
}

func (repo teacherRepository) GetTeacher(ctx context.Context, accountID string, exec ...core.DBExecutor) (school.TeacherProfile, error) {
	if !isID(accountID) {
		return school.TeacherProfile{}, school.ErrTeacherNotFound
	}
	var row teacherRow
	q := "SELECT " + teacherColumns + " FROM teacher WHERE account_id = $1"
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, accountID); err != nil {
		if err == sql.ErrNoRows {
			return school.TeacherProfile{}, school.ErrTeacherNotFound
		}
		return school.TeacherProfile{}, errors.Wrap(err, "finding teacher")
	}
	return row.model(), nil
}

func (repo teacherRepository) QueryTeachers(ctx context.Context, exec ...core.DBExecutor) ([]school.TeacherProfile, error) {
	var rows []teacherRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, "SELECT "+teacherColumns+" FROM teacher"); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	profiles := make([]school.TeacherProfile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.model())
	}
	return profiles, nil
}

func (repo teacherRepository) UpdateTeacher(ctx context.Context, p school.TeacherProfile, exec ...core.DBExecutor) (school.TeacherProfile, error) {
	q := "UPDATE teacher SET bio = :bio, certification = :certification, years_of_experience = :years_of_experience " +
		"WHERE account_id = :account_id"
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toTeacherRow(p))
	if err = affected(res, err, school.ErrTeacherNotFound, "updating teacher"); err != nil {
		return school.TeacherProfile{}, err
	}
	return p, nil
}

func (repo teacherRepository) DeleteTeacher(ctx context.Context, accountID string, exec ...core.DBExecutor) error {
	if !isID(accountID) {
		return school.ErrTeacherNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM teacher WHERE account_id = $1", accountID)
	return affected(res, err, school.ErrTeacherNotFound, "deleting teacher")
}
