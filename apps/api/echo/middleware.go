package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		acc, err := getContextAccount(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context account")
		}
		if acc.IsAdmin() {
			return next(ctx)
		}
		return errHttpForbidden
	}
}
