package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core/school"
)

type classApi struct {
	svc      *school.ClassService
	validate *validator.Validate
}

func registerClassAPI(g *echo.Group, svc *school.ClassService, validate *validator.Validate) {
	api := classApi{svc: svc, validate: validate}

	cg := g.Group("/classes")
	cg.GET("", api.retrieve)
	cg.POST("", api.create, adminMiddleware)
	cg.PUT("", api.update, adminMiddleware)
	cg.DELETE("", api.destroy, adminMiddleware)
}

// Handlers

func (api *classApi) retrieve(ctx echo.Context) error {
	if id := ctx.QueryParam("id"); id != "" {
		class, err := api.svc.Get(ctx.Request().Context(), id)
		if err != nil {
			return errors.Wrap(err, "getting class")
		}
		return ctx.JSON(http.StatusOK, school.FlattenClass(class))
	}

	classes, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, school.FlattenClasses(classes))
}

func (api *classApi) create(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	class, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusOK, school.FlattenClass(class))
}

func (api *classApi) update(ctx echo.Context) error {
	var data school.UpdateClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	class, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, school.FlattenClass(class))
}

func (api *classApi) destroy(ctx echo.Context) error {
	var data IDRequest
	if err := data.Bind(ctx); err != nil {
		return errors.Wrap(err, "binding to IDRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), data.ID); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Class deleted"})
}
