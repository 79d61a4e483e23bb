package sqlxrepos

import (
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/school"
)

func TestTranslateErr(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantField string
		wantMsg   string
		conflict  bool
	}{
		{
			name:      "unique email",
			err:       &pq.Error{Code: uniqueViolation, Constraint: "account_email_key"},
			wantField: "email", wantMsg: "Email already exists",
		},
		{
			name:      "check term dates",
			err:       errors.Wrap(&pq.Error{Code: checkViolation, Constraint: "term_dates_check"}, "inserting"),
			wantField: "endDate", wantMsg: school.ErrTermDates.Error(),
		},
		{
			name:      "missing class",
			err:       &pq.Error{Code: foreignKeyViolation, Constraint: "student_class_id_fkey", Message: `insert or update on table "student" violates foreign key constraint`},
			wantField: "classId", wantMsg: "Class not found",
		},
		{
			name:     "still referenced",
			err:      &pq.Error{Code: foreignKeyViolation, Table: "payment", Message: `update or delete on table "account" violates foreign key constraint`},
			conflict: true, wantMsg: "Record is still referenced by payment",
		},
		{
			name:      "amount overflow",
			err:       &pq.Error{Code: numericOutOfRange, Table: "payment", Message: "numeric field overflow"},
			wantField: "amount", wantMsg: "value out of range",
		},
		{
			name:    "unknown constraint",
			err:     &pq.Error{Code: uniqueViolation, Constraint: "lol_key", Message: "duplicate key value"},
			wantMsg: "duplicate key value",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateErr(tt.err, "saving")
			if tt.conflict {
				var cerr *core.ConflictError
				require.ErrorAs(t, err, &cerr)
				assert.Equal(t, tt.wantMsg, cerr.Message)
				return
			}
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Err.Error())
			assert.Equal(t, tt.wantField, verr.Fields[0].Field)
		})
	}

	err := translateErr(sql.ErrConnDone, "saving")
	assert.EqualError(t, err, "saving: "+sql.ErrConnDone.Error())
	assert.Equal(t, sql.ErrConnDone, errors.Cause(err))
}

func TestIsID(t *testing.T) {
	assert.True(t, isID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	assert.False(t, isID("unknown"))
	assert.False(t, isID(""))
}
