package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/onboardme/backend/core"
	"github.com/onboardme/backend/core/content"
	"github.com/onboardme/backend/core/course"
	"github.com/onboardme/backend/core/exam"
	"github.com/onboardme/backend/core/metrics"
	"github.com/onboardme/backend/core/notification"
	"github.com/onboardme/backend/core/user"
)

var errHttpNotFound = echo.NewHTTPError(http.StatusNotFound, "not found")

// statusOfSentinel maps domain sentinel errors to HTTP status codes.
var statusOfSentinel = map[error]int{
	user.ErrNotFound:             http.StatusNotFound,
	user.ErrRoleNotFound:         http.StatusBadRequest,
	user.ErrEmailExists:          http.StatusBadRequest,
	course.ErrNotFound:           http.StatusNotFound,
	course.ErrSectionNotFound:    http.StatusNotFound,
	course.ErrEnrollmentNotFound: http.StatusNotFound,
	course.ErrSectionMismatch:    http.StatusBadRequest,
	course.ErrBuddyNotAssigned:   http.StatusBadRequest,
	content.ErrNotFound:          http.StatusNotFound,
	content.ErrAlreadyExists:     http.StatusConflict,
	content.ErrUnknownType:       http.StatusBadRequest,
	exam.ErrNoExam:               http.StatusNotFound,
	exam.ErrAlreadyCompleted:     http.StatusConflict,
	exam.ErrResultNotFound:       http.StatusNotFound,
	notification.ErrNotFound:     http.StatusNotFound,
	metrics.ErrUnsupported:       http.StatusBadRequest,
	metrics.ErrCourseRequired:    http.StatusBadRequest,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)
		if status, ok := statusOfSentinel[cause]; ok {
			code = status
			message = cause.Error()
		} else {
			switch origErr := cause.(type) {
			case *echo.HTTPError:
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				fldErrs := make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					fldErrs[vErr.Field()] = vErr.Translate(translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				logger.Error(msg, errors.Wrap(err, msg))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
