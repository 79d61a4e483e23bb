package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core/school"
)

type studentApi struct {
	svc      *school.StudentService
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, svc *school.StudentService, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	sg := g.Group("/students")
	sg.GET("", api.retrieve)
	sg.POST("", api.create, adminMiddleware)
	sg.PUT("", api.update, adminMiddleware)
	sg.DELETE("", api.destroy, adminMiddleware)
}

// Handlers

func (api *studentApi) retrieve(ctx echo.Context) error {
	if id := ctx.QueryParam("id"); id != "" {
		student, err := api.svc.Get(ctx.Request().Context(), id)
		if err != nil {
			return errors.Wrap(err, "getting student")
		}
		return ctx.JSON(http.StatusOK, school.FlattenStudent(student))
	}

	students, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, school.FlattenStudents(students))
}

func (api *studentApi) create(ctx echo.Context) error {
	var data school.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	student, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusOK, school.FlattenStudent(student))
}

func (api *studentApi) update(ctx echo.Context) error {
	var data school.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	student, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, school.FlattenStudent(student))
}

func (api *studentApi) destroy(ctx echo.Context) error {
	var data IDRequest
	if err := data.Bind(ctx); err != nil {
		return errors.Wrap(err, "binding to IDRequest")
	}
	if err := api.svc.Delete(ctx.Request().Context(), data.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Student deleted"})
}
