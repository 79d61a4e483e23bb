package school

import (
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
)

// Sortable fields, keyed by their JSON name. Values are storage column names.
var (
	termOrderingFields = map[string]string{
		"name":      "name",
		"startDate": "start_date",
		"endDate":   "end_date",
		"createdAt": "created_at",
	}
	paymentOrderingFields = map[string]string{
		"createdAt": "created_at",
		"amount":    "amount",
		"status":    "status",
	}

	defaultTermOrdering    = []core.DBOrdering{{Field: "start_date"}}
	defaultPaymentOrdering = []core.DBOrdering{{Field: "created_at"}}
)

// resolveOrdering maps requested orderings on JSON names to column orderings.
// An empty request yields def.
func resolveOrdering(requested []core.DBOrdering, fields map[string]string, def []core.DBOrdering) ([]core.DBOrdering, error) {
	if len(requested) == 0 {
		return def, nil
	}
	resolved := make([]core.DBOrdering, 0, len(requested))
	for _, ord := range requested {
		col, ok := fields[ord.Field]
		if !ok {
			err := errors.Errorf("cannot order by %q", ord.Field)
			return nil, core.NewValidationError(err, core.FieldError{Field: "ordering", Error: err.Error()})
		}
		resolved = append(resolved, core.DBOrdering{Field: col, Ascending: ord.Ascending})
	}
	return resolved, nil
}
