package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core/school"
)

type teacherApi struct {
	svc      *school.TeacherService
	validate *validator.Validate
}

func registerTeacherAPI(g *echo.Group, svc *school.TeacherService, validate *validator.Validate) {
	api := teacherApi{svc: svc, validate: validate}

	tg := g.Group("/teachers")
	tg.GET("", api.retrieve)
	tg.POST("", api.create, adminMiddleware)
	tg.PUT("", api.update, adminMiddleware)
	tg.DELETE("", api.destroy, adminMiddleware)
}

// Handlers

func (api *teacherApi) retrieve(ctx echo.Context) error {
	if id := ctx.QueryParam("id"); id != "" {
		teacher, err := api.svc.Get(ctx.Request().Context(), id)
		if err != nil {
			return errors.Wrap(err, "getting teacher")
		}
		return ctx.JSON(http.StatusOK, school.FlattenTeacher(teacher))
	}

	teachers, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, school.FlattenTeachers(teachers))
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data school.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	teacher, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusOK, school.FlattenTeacher(teacher))
}

func (api *teacherApi) update(ctx echo.Context) error {
	var data school.UpdateTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	teacher, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, school.FlattenTeacher(teacher))
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	var data IDRequest
	if err := data.Bind(ctx); err != nil {
		return errors.Wrap(err, "binding to IDRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), data.ID); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Teacher deleted"})
}
