package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
	"github.com/trezcool/schoolpay/core/school"
)

type (
	// DB keeps every table behind one lock and enforces the constraints of the SQL schema.
	DB struct {
		sync.RWMutex
		txMu sync.Mutex

		accounts map[string]account.Account
		students map[string]school.StudentProfile
		teachers map[string]school.TeacherProfile
		classes  map[string]school.Class
		terms    map[string]school.Term
		payments map[string]school.Payment
	}

	snapshot struct {
		accounts map[string]account.Account
		students map[string]school.StudentProfile
		teachers map[string]school.TeacherProfile
		classes  map[string]school.Class
		terms    map[string]school.Term
		payments map[string]school.Payment
	}
)

func Open() *DB {
	return &DB{
		accounts: make(map[string]account.Account),
		students: make(map[string]school.StudentProfile),
		teachers: make(map[string]school.TeacherProfile),
		classes:  make(map[string]school.Class),
		terms:    make(map[string]school.Term),
		payments: make(map[string]school.Payment),
	}
}

// NewStores returns repositories sharing db.
func NewStores(db *DB) school.Stores {
	return school.Stores{
		Tx:       db,
		Accounts: NewAccountRepository(db),
		Students: NewStudentRepository(db),
		Teachers: NewTeacherRepository(db),
		Classes:  NewClassRepository(db),
		Terms:    NewTermRepository(db),
		Payments: NewPaymentRepository(db),
	}
}

func copyMap[V any](m map[string]V) map[string]V {
	c := make(map[string]V, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func (db *DB) snapshot() snapshot {
	db.RLock()
	defer db.RUnlock()
	return snapshot{
		accounts: copyMap(db.accounts),
		students: copyMap(db.students),
		teachers: copyMap(db.teachers),
		classes:  copyMap(db.classes),
		terms:    copyMap(db.terms),
		payments: copyMap(db.payments),
	}
}

func (db *DB) restore(s snapshot) {
	db.Lock()
	defer db.Unlock()
	db.accounts = s.accounts
	db.students = s.students
	db.teachers = s.teachers
	db.classes = s.classes
	db.terms = s.terms
	db.payments = s.payments
}

var _ core.Transactor = (*DB)(nil) // interface compliance check

// InTx serializes transactions and restores the tables when fn fails or panics.
// Writes made outside a transaction while one is running are lost on rollback.
func (db *DB) InTx(ctx context.Context, fn func(exec core.DBExecutor) error) (err error) {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	snap := db.snapshot()
	defer func() {
		if p := recover(); p != nil {
			db.restore(snap)
			panic(p)
		}
	}()

	if err = fn(nil); err != nil {
		db.restore(snap)
	}
	return err
}

// Reset empties every table.
func (db *DB) Reset() {
	db.Lock()
	defer db.Unlock()
	db.accounts = make(map[string]account.Account)
	db.students = make(map[string]school.StudentProfile)
	db.teachers = make(map[string]school.TeacherProfile)
	db.classes = make(map[string]school.Class)
	db.terms = make(map[string]school.Term)
	db.payments = make(map[string]school.Payment)
}
