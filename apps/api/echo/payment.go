package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core/school"
)

type paymentApi struct {
	svc      *school.PaymentService
	validate *validator.Validate
}

func registerPaymentAPI(g *echo.Group, svc *school.PaymentService, validate *validator.Validate) {
	api := paymentApi{svc: svc, validate: validate}

	pg := g.Group("/payments")
	pg.GET("", api.retrieve)
	pg.POST("", api.create)
	pg.PUT("", api.update, adminMiddleware)
	pg.DELETE("", api.destroy, adminMiddleware)
}

// Handlers

// retrieve serves every payment to admins; other accounts only see their own.
func (api *paymentApi) retrieve(ctx echo.Context) error {
	ctxAcc, err := getContextAccount(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	if id := ctx.QueryParam("id"); id != "" {
		payment, err := api.svc.Get(ctx.Request().Context(), id)
		if err != nil {
			return errors.Wrap(err, "getting payment")
		}
		if !ctxAcc.IsAdmin() && payment.Payment.UserID != ctxAcc.ID {
			return school.ErrPaymentNotFound
		}
		return ctx.JSON(http.StatusOK, school.FlattenPayment(payment))
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	var userID string
	if !ctxAcc.IsAdmin() {
		userID = ctxAcc.ID
	}
	payments, err := api.svc.Query(ctx.Request().Context(), userID, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	return ctx.JSON(http.StatusOK, school.FlattenPayments(payments))
}

// create lets any account pay for itself; only admins record payments for someone else.
func (api *paymentApi) create(ctx echo.Context) error {
	ctxAcc, err := getContextAccount(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}

	var data school.NewPayment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if !ctxAcc.IsAdmin() {
		if data.UserID == "" {
			data.UserID = ctxAcc.ID
		} else if data.UserID != ctxAcc.ID {
			return errHttpForbidden
		}
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	payment, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	return ctx.JSON(http.StatusOK, school.FlattenPayment(payment))
}

func (api *paymentApi) update(ctx echo.Context) error {
	var data school.UpdatePayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	payment, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating payment")
	}
	return ctx.JSON(http.StatusOK, school.FlattenPayment(payment))
}

func (api *paymentApi) destroy(ctx echo.Context) error {
	var data IDRequest
	if err := data.Bind(ctx); err != nil {
		return errors.Wrap(err, "binding to IDRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), data.ID); err != nil {
		return errors.Wrap(err, "deleting payment")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Payment deleted"})
}
