package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core/school"
)

type termApi struct {
	svc      *school.TermService
	validate *validator.Validate
}

func registerTermAPI(g *echo.Group, svc *school.TermService, validate *validator.Validate) {
	api := termApi{svc: svc, validate: validate}

	tg := g.Group("/term")
	tg.GET("", api.retrieve)
	tg.POST("", api.create, adminMiddleware)
	tg.PUT("", api.update, adminMiddleware)
	tg.DELETE("", api.destroy, adminMiddleware)
}

// Handlers

func (api *termApi) retrieve(ctx echo.Context) error {
	if id := ctx.QueryParam("id"); id != "" {
		term, err := api.svc.Get(ctx.Request().Context(), id)
		if err != nil {
			return errors.Wrap(err, "getting term")
		}
		return ctx.JSON(http.StatusOK, school.FlattenTerm(term))
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	terms, err := api.svc.Query(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying terms")
	}
	return ctx.JSON(http.StatusOK, school.FlattenTerms(terms))
}

func (api *termApi) create(ctx echo.Context) error {
	var data school.NewTerm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTerm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	term, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating term")
	}
	return ctx.JSON(http.StatusOK, school.FlattenTerm(term))
}

func (api *termApi) update(ctx echo.Context) error {
	var data school.UpdateTerm
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTerm")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	term, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating term")
	}
	return ctx.JSON(http.StatusOK, school.FlattenTerm(term))
}

func (api *termApi) destroy(ctx echo.Context) error {
	var data IDRequest
	if err := data.Bind(ctx); err != nil {
		return errors.Wrap(err, "binding to IDRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), data.ID); err != nil {
		return errors.Wrap(err, "deleting term")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Term deleted"})
}
