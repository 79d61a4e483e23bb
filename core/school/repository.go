package school

import (
	"context"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

var (
	// errors
	ErrStudentNotFound = core.NewNotFoundError("Student")
	ErrTeacherNotFound = core.NewNotFoundError("Teacher")
	ErrClassNotFound   = core.NewNotFoundError("Class")
	ErrTermNotFound    = core.NewNotFoundError("Term")
	ErrPaymentNotFound = core.NewNotFoundError("Payment")
)

type (
	StudentRepository interface {
		CreateStudent(ctx context.Context, p StudentProfile, exec ...core.DBExecutor) (StudentProfile, error)
		GetStudent(ctx context.Context, accountID string, exec ...core.DBExecutor) (StudentProfile, error)
		// QueryStudents returns every profile; a non-empty classID narrows it to one class.
		QueryStudents(ctx context.Context, classID string, exec ...core.DBExecutor) ([]StudentProfile, error)
		UpdateStudent(ctx context.Context, p StudentProfile, exec ...core.DBExecutor) (StudentProfile, error)
		DeleteStudent(ctx context.Context, accountID string, exec ...core.DBExecutor) error
	}

	TeacherRepository interface {
		CreateTeacher(ctx context.Context, p TeacherProfile, exec ...core.DBExecutor) (TeacherProfile, error)
		GetTeacher(ctx context.Context, accountID string, exec ...core.DBExecutor) (TeacherProfile, error)
		QueryTeachers(ctx context.Context, exec ...core.DBExecutor) ([]TeacherProfile, error)
		UpdateTeacher(ctx context.Context, p TeacherProfile, exec ...core.DBExecutor) (TeacherProfile, error)
		DeleteTeacher(ctx context.Context, accountID string, exec ...core.DBExecutor) error
	}

	ClassRepository interface {
		CreateClass(ctx context.Context, c Class, exec ...core.DBExecutor) (Class, error)
		GetClass(ctx context.Context, id string, exec ...core.DBExecutor) (Class, error)
		// QueryClasses lists classes ordered by name; a non-empty teacherID narrows it to that teacher's classes.
		QueryClasses(ctx context.Context, teacherID string, exec ...core.DBExecutor) ([]Class, error)
		UpdateClass(ctx context.Context, c Class, exec ...core.DBExecutor) (Class, error)
		DeleteClass(ctx context.Context, id string, exec ...core.DBExecutor) error
		// AssignTeacher makes teacherID the teacher of exactly the given classes:
		// classes it taught that are not listed lose their teacher.
		AssignTeacher(ctx context.Context, teacherID string, classIDs []string, exec ...core.DBExecutor) error
	}

	TermRepository interface {
		CreateTerm(ctx context.Context, t Term, exec ...core.DBExecutor) (Term, error)
		GetTerm(ctx context.Context, id string, exec ...core.DBExecutor) (Term, error)
		QueryTerms(ctx context.Context, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Term, error)
		UpdateTerm(ctx context.Context, t Term, exec ...core.DBExecutor) (Term, error)
		DeleteTerm(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	PaymentRepository interface {
		CreatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
		GetPayment(ctx context.Context, id string, exec ...core.DBExecutor) (Payment, error)
		// QueryPayments applies AND operation on the non-empty PaymentFilter fields.
		QueryPayments(ctx context.Context, filter PaymentFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Payment, error)
		UpdatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
		DeletePayment(ctx context.Context, id string, exec ...core.DBExecutor) error
		// CountPayments counts the payments made by userID.
		CountPayments(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error)
		// Detach clears the optional reference named by field ("student_id", "class_id" or "term_id")
		// on every payment pointing at id.
		Detach(ctx context.Context, field, id string, exec ...core.DBExecutor) error
	}

	PaymentFilter struct {
		UserID    string
		StudentID string
		ClassID   string
		TermID    string
	}

	// Stores groups every repository together with the transactor shared by the services.
	Stores struct {
		Tx       core.Transactor
		Accounts account.Repository
		Students StudentRepository
		Teachers TeacherRepository
		Classes  ClassRepository
		Terms    TermRepository
		Payments PaymentRepository
	}
)

// Payment fields that may be detached
const (
	PaymentStudentField = "student_id"
	PaymentClassField   = "class_id"
	PaymentTermField    = "term_id"
)
