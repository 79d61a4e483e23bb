package inmemdb

import (
	"cmp"
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/school"
)

var nowFunc = func() time.Time { return time.Now().UTC() } // mockable

type paymentRepository struct {
	db *DB
}

var _ school.PaymentRepository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) school.PaymentRepository {
	return &paymentRepository{db: db}
}

// save enforces the payment table constraints. Lock must be held.
func (repo *paymentRepository) save(p school.Payment) error {
	if p.Amount <= 0 {
		return core.NewValidationError(errors.New("amount must be greater than 0"),
			core.FieldError{Field: "amount", Error: "amount must be greater than 0"})
	}
	if _, ok := repo.db.accounts[p.UserID]; !ok {
		return refViolation("userId", core.NewNotFoundError("User"))
	}
	if p.StudentID != nil {
		if _, ok := repo.db.students[*p.StudentID]; !ok {
			return refViolation("studentId", school.ErrStudentNotFound)
		}
	}
	if p.ClassID != nil {
		if _, ok := repo.db.classes[*p.ClassID]; !ok {
			return refViolation("classId", school.ErrClassNotFound)
		}
	}
	if p.TermID != nil {
		if _, ok := repo.db.terms[*p.TermID]; !ok {
			return refViolation("termId", school.ErrTermNotFound)
		}
	}
	repo.db.payments[p.ID] = p
	return nil
}

func (repo *paymentRepository) CreatePayment(_ context.Context, p school.Payment, _ ...core.DBExecutor) (school.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.payments {
		if existing.Reference == p.Reference {
			return school.Payment{}, refViolation("reference", errors.New("reference already exists"))
		}
	}
	return p, repo.save(p)
}

func (repo *paymentRepository) GetPayment(_ context.Context, id string, _ ...core.DBExecutor) (school.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.payments[id]; ok {
		return p, nil
	}
	return school.Payment{}, school.ErrPaymentNotFound
}

func matches(ref *string, want string) bool {
	return want == "" || (ref != nil && *ref == want)
}

func (repo *paymentRepository) QueryPayments(_ context.Context, filter school.PaymentFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]school.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	payments := make([]school.Payment, 0)
	for _, p := range repo.db.payments {
		if (filter.UserID == "" || p.UserID == filter.UserID) &&
			matches(p.StudentID, filter.StudentID) &&
			matches(p.ClassID, filter.ClassID) &&
			matches(p.TermID, filter.TermID) {
			payments = append(payments, p)
		}
	}
	sort.SliceStable(payments, func(i, j int) bool {
		for _, ord := range ordering {
			if c := comparePayments(payments[i], payments[j], ord.Field); c != 0 {
				return (c < 0) == ord.Ascending
			}
		}
		return payments[i].ID < payments[j].ID
	})
	return payments, nil
}

func comparePayments(a, b school.Payment, field string) int {
	switch field {
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "amount":
		return cmp.Compare(a.Amount, b.Amount)
	case "status":
		return strings.Compare(a.Status, b.Status)
	}
	return 0
}

func (repo *paymentRepository) UpdatePayment(_ context.Context, p school.Payment, _ ...core.DBExecutor) (school.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.payments[p.ID]; !ok {
		return school.Payment{}, school.ErrPaymentNotFound
	}
	return p, repo.save(p)
}

func (repo *paymentRepository) DeletePayment(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.payments[id]; !ok {
		return school.ErrPaymentNotFound
	}
	delete(repo.db.payments, id)
	return nil
}

func (repo *paymentRepository) CountPayments(_ context.Context, userID string, _ ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, p := range repo.db.payments {
		if p.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (repo *paymentRepository) Detach(_ context.Context, field, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	now := nowFunc()
	for pid, p := range repo.db.payments {
		var ref **string
		switch field {
		case school.PaymentStudentField:
			ref = &p.StudentID
		case school.PaymentClassField:
			ref = &p.ClassID
		case school.PaymentTermField:
			ref = &p.TermID
		default:
			return errors.Errorf("cannot detach payments from %q", field)
		}
		if *ref != nil && **ref == id {
			*ref = nil
			p.UpdatedAt = now
			repo.db.payments[pid] = p
		}
	}
	return nil
}
