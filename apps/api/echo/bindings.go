package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

type (
	// IDRequest carries the target of a delete, in the body or the query string.
	IDRequest struct {
		ID string `json:"id" query:"id"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	DashboardResponse struct {
		Role     string `json:"role"`
		Redirect string `json:"redirect"`
	}
)

func (r *IDRequest) Bind(ctx echo.Context) error {
	if err := ctx.Bind(r); err != nil {
		return err
	}
	r.ID = core.CleanString(r.ID)
	if r.ID == "" {
		return core.NewValidationError(
			errors.New(errMissingFields),
			core.FieldError{Field: "id", Error: "this field is required"},
		)
	}
	return nil
}
