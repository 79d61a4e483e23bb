package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core/account"
)

var contextAccountKey = "account"

// bearerToken extracts the session token from the Authorization header.
func bearerToken(ctx echo.Context) string {
	auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// sessionMiddleware authenticates the request's identity-provider session
// and stores the linked account in the context.
func sessionMiddleware(verifier account.SessionVerifier, svc *account.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token := bearerToken(ctx)
			if token == "" {
				return errUnauthorized
			}
			sess, err := verifier.Verify(token)
			if err != nil {
				return errUnauthorized
			}

			acc, err := svc.Resolve(ctx.Request().Context(), sess)
			if err != nil {
				if errors.Cause(err) == account.ErrUnknownIdentity {
					return errUnknownAccount
				}
				return errors.Wrap(err, "resolving session account")
			}
			ctx.Set(contextAccountKey, acc)
			return next(ctx)
		}
	}
}

func getContextAccount(ctx echo.Context) (account.Account, error) {
	if acc, ok := ctx.Get(contextAccountKey).(account.Account); ok {
		return acc, nil
	}
	return account.Account{}, errUnauthorized
}
