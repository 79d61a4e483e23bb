package school

import (
	"context"
	"net/mail"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
	"github.com/trezcool/schoolpay/core/trackcode"
)

const receiptTemplate = "payment_receipt"

type PaymentService struct {
	stores  Stores
	mailSvc core.EmailService
	logger  core.Logger
}

// NewPaymentService returns the payment service. mailSvc may be nil, receipts are then not sent.
func NewPaymentService(stores Stores, mailSvc core.EmailService, logger core.Logger) *PaymentService {
	return &PaymentService{stores: stores, mailSvc: mailSvc, logger: logger}
}

// checkRefs verifies the payer and the optional student, class and term exist.
func (svc *PaymentService) checkRefs(ctx context.Context, userID string, studentID, classID, termID *string) error {
	if userID != "" {
		if _, err := svc.stores.Accounts.GetAccount(ctx, account.GetFilter{ID: userID}); err != nil {
			return refError("userId", entityNotFound(err, core.NewNotFoundError("User")))
		}
	}
	if studentID != nil && *studentID != "" {
		if _, err := svc.stores.Students.GetStudent(ctx, *studentID); err != nil {
			return refError("studentId", entityNotFound(err, ErrStudentNotFound))
		}
	}
	if classID != nil && *classID != "" {
		if err := checkClasses(ctx, svc.stores.Classes, "classId", *classID); err != nil {
			return err
		}
	}
	if termID != nil && *termID != "" {
		if _, err := svc.stores.Terms.GetTerm(ctx, *termID); err != nil {
			return refError("termId", err)
		}
	}
	return nil
}

// Create records a PENDING payment; its reference and tracking code are generated.
func (svc *PaymentService) Create(ctx context.Context, np NewPayment) (PaymentDetail, error) {
	if err := svc.checkRefs(ctx, np.UserID, np.StudentID, np.ClassID, np.TermID); err != nil {
		return PaymentDetail{}, err
	}
	now := nowFunc()
	pmt, err := svc.stores.Payments.CreatePayment(ctx, Payment{
		ID:         uuid.NewString(),
		TrackingID: trackcode.Generate("PAY", now),
		Reference:  trackcode.Reference(now),
		Amount:     np.Amount,
		Status:     StatusPending,
		UserID:     np.UserID,
		StudentID:  np.StudentID,
		ClassID:    np.ClassID,
		TermID:     np.TermID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return PaymentDetail{}, errors.Wrap(err, "inserting payment")
	}
	return svc.Get(ctx, pmt.ID)
}

func (svc *PaymentService) Get(ctx context.Context, id string) (PaymentDetail, error) {
	pmt, err := svc.stores.Payments.GetPayment(ctx, id)
	if err != nil {
		return PaymentDetail{}, err
	}
	detail := PaymentDetail{Payment: pmt}
	if usr, err := svc.stores.Accounts.GetAccount(ctx, account.GetFilter{ID: pmt.UserID}); err == nil {
		detail.User = &usr
	} else if !core.IsNotFound(err) {
		return PaymentDetail{}, errors.Wrap(err, "getting payer")
	}
	if pmt.TermID != nil {
		if term, err := svc.stores.Terms.GetTerm(ctx, *pmt.TermID); err == nil {
			detail.Term = &term
		} else if !core.IsNotFound(err) {
			return PaymentDetail{}, errors.Wrap(err, "getting payment term")
		}
	}
	return detail, nil
}

// Query lists payments, by default the latest first. A non-empty userID narrows it to that payer.
func (svc *PaymentService) Query(ctx context.Context, userID string, ordering []core.DBOrdering) ([]PaymentDetail, error) {
	ordering, err := resolveOrdering(ordering, paymentOrderingFields, defaultPaymentOrdering)
	if err != nil {
		return nil, err
	}
	payments, err := svc.stores.Payments.QueryPayments(ctx, PaymentFilter{UserID: userID}, ordering)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	accounts, err := accountIndex(ctx, svc.stores.Accounts, "")
	if err != nil {
		return nil, err
	}
	terms, err := svc.stores.Terms.QueryTerms(ctx, defaultTermOrdering)
	if err != nil {
		return nil, errors.Wrap(err, "querying terms")
	}
	termIdx := make(map[string]Term, len(terms))
	for _, t := range terms {
		termIdx[t.ID] = t
	}

	details := make([]PaymentDetail, 0, len(payments))
	for _, p := range payments {
		d := PaymentDetail{Payment: p, User: lookupAccount(accounts, &p.UserID)}
		if p.TermID != nil {
			if t, ok := termIdx[*p.TermID]; ok {
				d.Term = &t
			}
		}
		details = append(details, d)
	}
	return details, nil
}

// Update applies a partial change. Moving a payment to SUCCESS sends a receipt to the payer.
func (svc *PaymentService) Update(ctx context.Context, up UpdatePayment) (PaymentDetail, error) {
	pmt, err := svc.stores.Payments.GetPayment(ctx, up.ID)
	if err != nil {
		return PaymentDetail{}, err
	}
	if err = svc.checkRefs(ctx, "", up.StudentID, up.ClassID, up.TermID); err != nil {
		return PaymentDetail{}, err
	}

	prevStatus := pmt.Status
	if up.Amount != nil {
		pmt.Amount = *up.Amount
	}
	if up.Status != nil {
		pmt.Status = *up.Status
	}
	if up.StudentID != nil {
		pmt.StudentID = core.CleanStringPtr(up.StudentID)
	}
	if up.ClassID != nil {
		pmt.ClassID = core.CleanStringPtr(up.ClassID)
	}
	if up.TermID != nil {
		pmt.TermID = core.CleanStringPtr(up.TermID)
	}
	pmt.UpdatedAt = nowFunc()

	if _, err = svc.stores.Payments.UpdatePayment(ctx, pmt); err != nil {
		return PaymentDetail{}, errors.Wrap(err, "updating payment")
	}
	detail, err := svc.Get(ctx, up.ID)
	if err != nil {
		return PaymentDetail{}, err
	}
	if prevStatus != StatusSuccess && detail.Payment.Status == StatusSuccess {
		svc.sendReceipt(detail)
	}
	return detail, nil
}

func (svc *PaymentService) Delete(ctx context.Context, id string) error {
	if _, err := svc.stores.Payments.GetPayment(ctx, id); err != nil {
		return err
	}
	return errors.Wrap(svc.stores.Payments.DeletePayment(ctx, id), "deleting payment")
}

func (svc *PaymentService) sendReceipt(d PaymentDetail) {
	if svc.mailSvc == nil || d.User == nil {
		return
	}
	term := ""
	if d.Term != nil {
		term = d.Term.Name
	}
	svc.logger.Info("sending payment receipt", map[string]interface{}{"payment": d.Payment.TrackingID})
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: d.User.Name, Address: d.User.Email}},
		Subject:      "Payment receipt " + d.Payment.Reference,
		TemplateName: receiptTemplate,
		TemplateData: map[string]interface{}{
			"Name":       d.User.Name,
			"Amount":     strconv.FormatFloat(d.Payment.Amount, 'f', 2, 64),
			"Reference":  d.Payment.Reference,
			"TrackingID": d.Payment.TrackingID,
			"Term":       term,
			"Date":       d.Payment.UpdatedAt.Format(core.DateLayout),
		},
	})
}
