package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/nulzo/unillm/internal/server/validation"
	"github.com/nulzo/unillm/pkg/api"
	"github.com/nulzo/unillm/pkg/configitem"
	"github.com/nulzo/unillm/pkg/modelschema"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error a handler attached with c.Error as an
// RFC 9457 problem.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		problem := ToProblem(err)
		problem.Instance = c.Request.URL.Path

		fields := []zap.Field{zap.String("path", c.Request.URL.Path), zap.Error(err)}
		if id := RequestID(c.Request.Context()); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if problem.Log != nil {
			fields = append(fields, zap.NamedError("internal", problem.Log))
		}
		if problem.Status >= http.StatusInternalServerError {
			logger.Error("Request failed", fields...)
		} else {
			logger.Debug("Request rejected", fields...)
		}

		// RFC 9457 dictates the json is at the root
		c.JSON(problem.Status, problem)
		c.Abort()
	}
}

// ToProblem maps the error taxonomy onto problems.
func ToProblem(err error) *api.Problem {
	var problem *api.Problem
	if errors.As(err, &problem) {
		return problem
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return api.ValidationError(validation.Parse(verrs))
	}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return api.NewProblem(
			http.StatusInternalServerError,
			"Internal Server Error",
			"An unexpected error occurred.",
			api.WithLog(err),
		)
	}

	var opts []api.ProblemOption
	var keyErr *modelschema.InvalidConfigKeyError
	var fieldErrs configitem.FieldErrors
	switch {
	case errors.As(apiErr, &keyErr):
		opts = append(opts,
			api.WithType("https://unillm.dev/probs/invalid-config-key"),
			api.WithExtension("invalid_keys", keyErr.Keys),
			api.WithExtension("valid_keys", keyErr.Valid),
		)
	case errors.As(apiErr, &fieldErrs):
		opts = append(opts,
			api.WithType("https://unillm.dev/probs/validation"),
			api.WithExtension("errors", map[string]string(fieldErrs)),
		)
	}

	detail := apiErr.Error()
	if apiErr.Code >= http.StatusInternalServerError {
		// causes of server faults stay in the logs
		detail = apiErr.Info
		opts = append(opts, api.WithLog(apiErr))
	}
	return api.NewProblem(apiErr.Code, http.StatusText(apiErr.Code), detail, opts...)
}
