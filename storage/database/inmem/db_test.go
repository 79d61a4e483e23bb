package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
	"github.com/trezcool/schoolpay/core/school"
)

func newAccount(id, email string) account.Account {
	return account.Account{ID: id, Name: id, Email: email, Role: account.RoleStudent}
}

func TestDB_InTx(t *testing.T) {
	db := Open()
	stores := NewStores(db)
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		err := db.InTx(ctx, func(exec core.DBExecutor) error {
			_, err := stores.Accounts.CreateAccount(ctx, newAccount("a1", "a1@school.test"), exec)
			return err
		})
		require.NoError(t, err)
		_, err = stores.Accounts.GetAccount(ctx, account.GetFilter{ID: "a1"})
		assert.NoError(t, err)
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.InTx(ctx, func(exec core.DBExecutor) error {
			if _, err := stores.Accounts.CreateAccount(ctx, newAccount("a2", "a2@school.test"), exec); err != nil {
				return err
			}
			return boom
		})
		assert.Equal(t, boom, err)
		_, err = stores.Accounts.GetAccount(ctx, account.GetFilter{ID: "a2"})
		assert.Equal(t, account.ErrNotFound, err)
	})

	t.Run("panic", func(t *testing.T) {
		assert.Panics(t, func() {
			_ = db.InTx(ctx, func(exec core.DBExecutor) error {
				_, _ = stores.Accounts.CreateAccount(ctx, newAccount("a3", "a3@school.test"), exec)
				panic("boom")
			})
		})
		_, err := stores.Accounts.GetAccount(ctx, account.GetFilter{ID: "a3"})
		assert.Equal(t, account.ErrNotFound, err)
	})

	db.Reset()
	accs, err := stores.Accounts.QueryAccounts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, accs)
}

func TestAccountRepository_uniqueness(t *testing.T) {
	stores := NewStores(Open())
	ctx := context.Background()

	acc := newAccount("a1", "a1@school.test")
	acc.ExternalAuthID = core.StringPtr("user_1")
	_, err := stores.Accounts.CreateAccount(ctx, acc)
	require.NoError(t, err)

	_, err = stores.Accounts.CreateAccount(ctx, newAccount("a2", "a1@school.test"))
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Fields[0].Field)

	assert.Equal(t, account.ErrExternalAuthIDExists, stores.Accounts.CheckUniqueness(ctx, "", "user_1", "a2"))
	assert.NoError(t, stores.Accounts.CheckUniqueness(ctx, "a1@school.test", "user_1", "a1"), "own values")
}

func TestPaymentRepository(t *testing.T) {
	db := Open()
	stores := NewStores(db)
	ctx := context.Background()
	at := time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)

	_, err := stores.Accounts.CreateAccount(ctx, newAccount("u1", "u1@school.test"))
	require.NoError(t, err)
	_, err = stores.Terms.CreateTerm(ctx, school.Term{ID: "t1", Name: "Term 1", StartDate: core.NewDate(2024, 9, 1), EndDate: core.NewDate(2024, 12, 20)})
	require.NoError(t, err)

	newPayment := func(id string, amount float64, offset time.Duration) school.Payment {
		return school.Payment{
			ID: id, Reference: "REF_" + id, Amount: amount, Status: school.StatusPending,
			UserID: "u1", TermID: core.StringPtr("t1"), CreatedAt: at.Add(offset),
		}
	}
	for _, p := range []school.Payment{newPayment("p1", 10, 0), newPayment("p2", 30, time.Hour), newPayment("p3", 20, 2*time.Hour)} {
		_, err = stores.Payments.CreatePayment(ctx, p)
		require.NoError(t, err)
	}

	t.Run("constraints", func(t *testing.T) {
		tests := []struct {
			name      string
			p         school.Payment
			wantField string
		}{
			{name: "amount", p: newPayment("p4", 0, 0), wantField: "amount"},
			{name: "duplicate reference", p: school.Payment{ID: "p4", Reference: "REF_p1", Amount: 1, UserID: "u1"}, wantField: "reference"},
			{name: "unknown payer", p: school.Payment{ID: "p4", Reference: "REF_p4", Amount: 1, UserID: "u2"}, wantField: "userId"},
			{name: "unknown term", p: school.Payment{ID: "p4", Reference: "REF_p4", Amount: 1, UserID: "u1", TermID: core.StringPtr("t2")}, wantField: "termId"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := stores.Payments.CreatePayment(ctx, tt.p)
				var verr *core.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
			})
		}
	})

	t.Run("ordering", func(t *testing.T) {
		got, err := stores.Payments.QueryPayments(ctx, school.PaymentFilter{UserID: "u1"}, []core.DBOrdering{{Field: "amount"}})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"p2", "p3", "p1"}, []string{got[0].ID, got[1].ID, got[2].ID})

		got, err = stores.Payments.QueryPayments(ctx, school.PaymentFilter{TermID: "t1"}, []core.DBOrdering{{Field: "created_at", Ascending: true}})
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p2", "p3"}, []string{got[0].ID, got[1].ID, got[2].ID})

		n, err := stores.Payments.CountPayments(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("detach", func(t *testing.T) {
		require.NoError(t, stores.Payments.Detach(ctx, school.PaymentTermField, "t1"))
		got, err := stores.Payments.QueryPayments(ctx, school.PaymentFilter{TermID: "t1"}, nil)
		require.NoError(t, err)
		assert.Empty(t, got)

		p, err := stores.Payments.GetPayment(ctx, "p1")
		require.NoError(t, err)
		assert.Nil(t, p.TermID)

		assert.Error(t, stores.Payments.Detach(ctx, "user_id", "u1"))
	})

	t.Run("payer cannot be deleted", func(t *testing.T) {
		err := stores.Accounts.DeleteAccount(ctx, "u1")
		_, ok := errors.Cause(err).(*core.ConflictError)
		assert.True(t, ok, "got %v", err)
	})
}
