package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core/account"
)

func registerAccountAPI(g *echo.Group) {
	g.GET("/me", me)
	g.GET("/dashboard", dashboard)
}

// Handlers

func me(ctx echo.Context) error {
	acc, err := getContextAccount(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	return ctx.JSON(http.StatusOK, acc)
}

// dashboard tells the client where the signed-in account lands.
func dashboard(ctx echo.Context) error {
	acc, err := getContextAccount(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context account")
	}
	return ctx.JSON(http.StatusOK, DashboardResponse{Role: acc.Role, Redirect: account.DashboardPath(acc.Role)})
}
