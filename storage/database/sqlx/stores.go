package sqlxrepos

import (
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/schoolpay/core/school"
	"github.com/trezcool/schoolpay/storage/database"
)

// NewStores returns the Postgres-backed repositories sharing db.
func NewStores(db *sqlx.DB) school.Stores {
	return school.Stores{
		Tx:       database.NewTransactor(db),
		Accounts: NewAccountRepository(db),
		Students: NewStudentRepository(db),
		Teachers: NewTeacherRepository(db),
		Classes:  NewClassRepository(db),
		Terms:    NewTermRepository(db),
		Payments: NewPaymentRepository(db),
	}
}
