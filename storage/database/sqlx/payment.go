package sqlxrepos

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/school"
)

const paymentColumns = "id, tracking_id, reference, amount, status, user_id, student_id, class_id, term_id, created_at, updated_at"

type paymentRow struct {
	ID         string      `db:"id"`
	TrackingID string      `db:"tracking_id"`
	Reference  string      `db:"reference"`
	Amount     float64     `db:"amount"`
	Status     string      `db:"status"`
	UserID     string      `db:"user_id"`
	StudentID  null.String `db:"student_id"`
	ClassID    null.String `db:"class_id"`
	TermID     null.String `db:"term_id"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func toPaymentRow(p school.Payment) paymentRow {
	return paymentRow{
		ID:         p.ID,
		TrackingID: p.TrackingID,
		Reference:  p.Reference,
		Amount:     p.Amount,
		Status:     p.Status,
		UserID:     p.UserID,
		StudentID:  null.StringFromPtr(p.StudentID),
		ClassID:    null.StringFromPtr(p.ClassID),
		TermID:     null.StringFromPtr(p.TermID),
		CreatedAt:  p.CreatedAt.UTC(),
		UpdatedAt:  p.UpdatedAt.UTC(),
	}
}

func (r paymentRow) model() school.Payment {
	return school.Payment{
		ID:         r.ID,
		TrackingID: r.TrackingID,
		Reference:  r.Reference,
		Amount:     r.Amount,
		Status:     r.Status,
		UserID:     r.UserID,
		StudentID:  r.StudentID.Ptr(),
		ClassID:    r.ClassID.Ptr(),
		TermID:     r.TermID.Ptr(),
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

var detachableFields = map[string]bool{
	school.PaymentStudentField: true,
	school.PaymentClassField:   true,
	school.PaymentTermField:    true,
}

type paymentRepository struct {
	base
}

var _ school.PaymentRepository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db core.DBExecutor) *paymentRepository {
	return &paymentRepository{base{exec: db}}
}

func (repo paymentRepository) CreatePayment(ctx context.Context, p school.Payment, exec ...core.DBExecutor) (school.Payment, error) {
	q := "INSERT INTO payment (" + paymentColumns + ") VALUES (:id, :tracking_id, :reference, :amount, :status, " +
		":user_id, :student_id, :class_id, :term_id, :created_at, :updated_at)"
	if _, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toPaymentRow(p)); err != nil {
		return school.Payment{}, translateErr(err, "inserting payment")
	}
	return p, nil
}

func (repo paymentRepository) GetPayment(ctx context.Context, id string, exec ...core.DBExecutor) (school.Payment, error) {
	if !isID(id) {
		return school.Payment{}, school.ErrPaymentNotFound
	}
	var row paymentRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, "SELECT "+paymentColumns+" FROM payment WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return school.Payment{}, school.ErrPaymentNotFound
		}
		return school.Payment{}, errors.Wrap(err, "finding payment")
	}
	return row.model(), nil
}

func (repo paymentRepository) QueryPayments(ctx context.Context, filter school.PaymentFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]school.Payment, error) {
	var where []string
	var args []interface{}
	for _, cond := range []struct{ column, value string }{
		{"user_id", filter.UserID},
		{"student_id", filter.StudentID},
		{"class_id", filter.ClassID},
		{"term_id", filter.TermID},
	} {
		if cond.value == "" {
			continue
		}
		if !isID(cond.value) {
			return []school.Payment{}, nil
		}
		args = append(args, cond.value)
		where = append(where, cond.column+" = $"+strconv.Itoa(len(args)))
	}

	q := "SELECT " + paymentColumns + " FROM payment"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(ordering)

	var rows []paymentRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	payments := make([]school.Payment, 0, len(rows))
	for _, r := range rows {
		payments = append(payments, r.model())
	}
	return payments, nil
}

func (repo paymentRepository) UpdatePayment(ctx context.Context, p school.Payment, exec ...core.DBExecutor) (school.Payment, error) {
	q := "UPDATE payment SET amount = :amount, status = :status, student_id = :student_id, class_id = :class_id, " +
		"term_id = :term_id, updated_at = :updated_at WHERE id = :id"
	res, err := sqlx.NamedExecContext(ctx, repo.getExec(exec), q, toPaymentRow(p))
	if err = affected(res, err, school.ErrPaymentNotFound, "updating payment"); err != nil {
		return school.Payment{}, err
	}
	return p, nil
}

func (repo paymentRepository) DeletePayment(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isID(id) {
		return school.ErrPaymentNotFound
	}
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM payment WHERE id = $1", id)
	return affected(res, err, school.ErrPaymentNotFound, "deleting payment")
}

func (repo paymentRepository) CountPayments(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error) {
	if !isID(userID) {
		return 0, nil
	}
	var n int
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &n, "SELECT COUNT(*) FROM payment WHERE user_id = $1", userID); err != nil {
		return 0, errors.Wrap(err, "counting payments")
	}
	return n, nil
}

func (repo paymentRepository) Detach(ctx context.Context, field, id string, exec ...core.DBExecutor) error {
	if !detachableFields[field] {
		return errors.Errorf("cannot detach payments from %q", field)
	}
	if !isID(id) {
		return nil
	}
	q := "UPDATE payment SET " + field + " = NULL, updated_at = $2 WHERE " + field + " = $1"
	if _, err := repo.getExec(exec).ExecContext(ctx, q, id, time.Now().UTC()); err != nil {
		return errors.Wrap(err, "detaching payments")
	}
	return nil
}
