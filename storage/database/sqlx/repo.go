package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
	"github.com/trezcool/schoolpay/core/school"
)

// Postgres error codes
const (
	foreignKeyViolation = "23503"
	uniqueViolation     = "23505"
	checkViolation      = "23514"
	numericOutOfRange   = "22003"
)

// constraint names -> the request field they guard
var constraintFields = map[string]core.FieldError{
	"account_email_key":                 {Field: "email", Error: account.ErrEmailExists.Error()},
	"account_external_auth_id_key":      {Field: "externalAuthId", Error: account.ErrExternalAuthIDExists.Error()},
	"account_role_check":                {Field: "role", Error: "invalid role"},
	"teacher_years_of_experience_check": {Field: "yearsOfExperience", Error: "yearsOfExperience must be 0 or greater"},
	"term_dates_check":                  {Field: "endDate", Error: school.ErrTermDates.Error()},
	"payment_amount_check":              {Field: "amount", Error: "amount must be greater than 0"},
	"payment_status_check":              {Field: "status", Error: "invalid status"},
	"payment_reference_key":             {Field: "reference", Error: "reference already exists"},
	"student_class_id_fkey":             {Field: "classId", Error: school.ErrClassNotFound.Error()},
	"class_teacher_id_fkey":             {Field: "teacherId", Error: school.ErrTeacherNotFound.Error()},
	"payment_user_id_fkey":              {Field: "userId", Error: "User not found"},
	"payment_student_id_fkey":           {Field: "studentId", Error: school.ErrStudentNotFound.Error()},
	"payment_class_id_fkey":             {Field: "classId", Error: school.ErrClassNotFound.Error()},
	"payment_term_id_fkey":              {Field: "termId", Error: school.ErrTermNotFound.Error()},
}

type base struct {
	exec core.DBExecutor
}

func (b base) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return b.exec
}

// isID reports whether id can be a primary key; anything else can only be a miss.
func isID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// translateErr maps constraint violations to the domain errors a concurrent request would
// have got from the service checks; other errors are wrapped with msg.
func translateErr(err error, msg string) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return errors.Wrap(err, msg)
	}

	switch pqErr.Code {
	case numericOutOfRange:
		fe := core.FieldError{Field: pqErr.Column, Error: "value out of range"}
		if pqErr.Table == "payment" { // amount is its only numeric column
			fe.Field = "amount"
		}
		return core.NewValidationError(errors.New(fe.Error), fe)
	case uniqueViolation, checkViolation:
		fe, ok := constraintFields[pqErr.Constraint]
		if !ok {
			fe = core.FieldError{Error: pqErr.Message}
		}
		return core.NewValidationError(errors.New(fe.Error), fe)
	case foreignKeyViolation:
		// deleting/updating a row still referenced elsewhere
		if strings.HasPrefix(pqErr.Message, "update or delete on table") {
			return core.NewConflictError("Record is still referenced by " + pqErr.Table)
		}
		fe, ok := constraintFields[pqErr.Constraint]
		if !ok {
			fe = core.FieldError{Error: pqErr.Message}
		}
		return core.NewValidationError(errors.New(fe.Error), fe)
	}
	return errors.Wrap(err, msg)
}

// affected returns notFound when a write touched no row.
func affected(res sql.Result, err error, notFound error, msg string) error {
	if err != nil {
		return translateErr(err, msg)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
