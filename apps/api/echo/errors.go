package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolpay/core"
	"github.com/trezcool/schoolpay/core/account"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	errUnknownAccount = echo.NewHTTPError(http.StatusUnauthorized, account.ErrUnknownIdentity.Error())
	errHttpForbidden  = echo.NewHTTPError(http.StatusForbidden, "permission denied")

	errMissingFields = "Missing required fields"
	errInvalidInput  = "invalid input"
	errUpstream      = "upstream service failure"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		body := echo.Map{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			body["error"] = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			msg := errInvalidInput
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
				if vErr.Tag() == "required" {
					msg = errMissingFields
				}
			}
			code = http.StatusBadRequest
			body["error"] = msg
			body["fields"] = fldErrs
		case *core.ValidationError:
			code = http.StatusBadRequest
			body["error"] = errInvalidInput
			if msg := origErr.Error(); msg != "" {
				body["error"] = msg
			}
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				body["fields"] = fldErrs
			}
		case *core.NotFoundError:
			code = http.StatusNotFound
			body["error"] = origErr.Error()
		case *core.ConflictError:
			code = http.StatusConflict
			body["error"] = origErr.Error()
		case *core.UpstreamError:
			code = http.StatusBadGateway
			body["error"] = errUpstream
			if cause := errors.Cause(origErr.Err); cause != nil {
				body["error"] = cause.Error()
			}
			logger.Error(errUpstream, logArgs(ctx, err)...)
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body["error"] = msg
			if ctx.Echo().Debug {
				body["error"] = err.Error()
			}
			logger.Error(msg, logArgs(ctx, errors.Wrap(err, msg))...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// logArgs attaches the account behind the request, if any, to the logged error.
func logArgs(ctx echo.Context, err error) []interface{} {
	if acc, ok := ctx.Get(contextAccountKey).(account.Account); ok {
		return []interface{}{err, acc}
	}
	return []interface{}{err}
}
