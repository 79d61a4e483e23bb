package school

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/trackcode"
)

var ErrTermDates = errors.New("End date must be after start date")

type TermService struct {
	stores Stores
}

func NewTermService(stores Stores) *TermService {
	return &TermService{stores: stores}
}

// AcademicYearOf returns the YYYY/YYYY academic year a day falls in; years start in September.
func AcademicYearOf(d core.Date) string {
	y := d.Year()
	if d.Month() < time.September {
		y--
	}
	return fmt.Sprintf("%d/%d", y, y+1)
}

func checkTermDates(start, end core.Date) error {
	if end.Before(start.Time) {
		return core.NewValidationError(ErrTermDates, core.FieldError{Field: "endDate", Error: ErrTermDates.Error()})
	}
	return nil
}

func (svc *TermService) Create(ctx context.Context, nt NewTerm) (TermDetail, error) {
	if err := checkTermDates(*nt.StartDate, *nt.EndDate); err != nil {
		return TermDetail{}, err
	}
	year := AcademicYearOf(*nt.StartDate)
	if nt.AcademicYear != nil {
		year = *nt.AcademicYear
	}

	now := nowFunc()
	term, err := svc.stores.Terms.CreateTerm(ctx, Term{
		ID:           uuid.NewString(),
		TrackingID:   trackcode.Generate("term", now),
		Name:         nt.Name,
		AcademicYear: year,
		StartDate:    *nt.StartDate,
		EndDate:      *nt.EndDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return TermDetail{}, errors.Wrap(err, "inserting term")
	}
	return TermDetail{Term: term, Payments: []PaymentDetail{}}, nil
}

// Get returns the term with its payments, each joined to its payer.
func (svc *TermService) Get(ctx context.Context, id string) (TermDetail, error) {
	term, err := svc.stores.Terms.GetTerm(ctx, id)
	if err != nil {
		return TermDetail{}, err
	}
	payments, err := svc.stores.Payments.QueryPayments(ctx, PaymentFilter{TermID: id}, defaultPaymentOrdering)
	if err != nil {
		return TermDetail{}, errors.Wrap(err, "querying term payments")
	}
	accounts, err := accountIndex(ctx, svc.stores.Accounts, "")
	if err != nil {
		return TermDetail{}, err
	}

	detail := TermDetail{Term: term, Payments: make([]PaymentDetail, 0, len(payments))}
	for _, p := range payments {
		detail.Payments = append(detail.Payments, PaymentDetail{Payment: p, User: lookupAccount(accounts, &p.UserID)})
	}
	return detail, nil
}

// Query lists terms, by default the latest starting first.
func (svc *TermService) Query(ctx context.Context, ordering []core.DBOrdering) ([]TermDetail, error) {
	ordering, err := resolveOrdering(ordering, termOrderingFields, defaultTermOrdering)
	if err != nil {
		return nil, err
	}
	terms, err := svc.stores.Terms.QueryTerms(ctx, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying terms")
	}
	payments, err := svc.stores.Payments.QueryPayments(ctx, PaymentFilter{}, defaultPaymentOrdering)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	accounts, err := accountIndex(ctx, svc.stores.Accounts, "")
	if err != nil {
		return nil, err
	}
	byTerm := make(map[string][]PaymentDetail)
	for _, p := range payments {
		if p.TermID != nil {
			byTerm[*p.TermID] = append(byTerm[*p.TermID], PaymentDetail{Payment: p, User: lookupAccount(accounts, &p.UserID)})
		}
	}

	details := make([]TermDetail, 0, len(terms))
	for _, t := range terms {
		details = append(details, TermDetail{Term: t, Payments: byTerm[t.ID]})
	}
	return details, nil
}

// Update replaces the term's name and dates.
func (svc *TermService) Update(ctx context.Context, ut UpdateTerm) (TermDetail, error) {
	term, err := svc.stores.Terms.GetTerm(ctx, ut.ID)
	if err != nil {
		return TermDetail{}, err
	}
	if err = checkTermDates(*ut.StartDate, *ut.EndDate); err != nil {
		return TermDetail{}, err
	}
	term.Name = ut.Name
	term.StartDate = *ut.StartDate
	term.EndDate = *ut.EndDate
	if ut.AcademicYear != nil {
		term.AcademicYear = *ut.AcademicYear
	}
	term.UpdatedAt = nowFunc()

	if _, err = svc.stores.Terms.UpdateTerm(ctx, term); err != nil {
		return TermDetail{}, errors.Wrap(err, "updating term")
	}
	return svc.Get(ctx, ut.ID)
}

// Delete removes the term; its payments are kept and detached from it.
func (svc *TermService) Delete(ctx context.Context, id string) error {
	if _, err := svc.stores.Terms.GetTerm(ctx, id); err != nil {
		return err
	}
	return svc.stores.Tx.InTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.stores.Payments.Detach(ctx, PaymentTermField, id, exec); err != nil {
			return errors.Wrap(err, "detaching payments")
		}
		return errors.Wrap(svc.stores.Terms.DeleteTerm(ctx, id, exec), "deleting term")
	})
}
