package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signance/internal/errs"
)

type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func BadRequest(message string) *APIError {
	return &APIError{Code: http.StatusBadRequest, Message: message}
}

// HandlerFunc is the signature every endpoint implements. A nil result is
// written as 204 No Content.
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

type statusResult struct {
	code int
	body any
}

// WithStatus makes ResolveEndpoint answer with code instead of 200.
func WithStatus(code int, body any) any {
	return statusResult{code: code, body: body}
}

type handled struct{}

// Handled is returned by endpoints that wrote the response themselves.
var Handled any = handled{}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		switch r := result.(type) {
		case nil:
			ctx.Status(http.StatusNoContent)
		case handled:
		case statusResult:
			ctx.JSON(r.code, r.body)
		default:
			ctx.JSON(http.StatusOK, r)
		}
	}
}

// FromError maps a domain error onto an HTTP status. Anything that is not an
// *errs.Error is logged and reported as a 500 with a generic message.
func FromError(err error, what string) *APIError {
	switch errs.KindOf(err) {
	case errs.KindNotFound:
		return &APIError{Code: http.StatusNotFound, Message: err.Error()}
	case errs.KindConflict:
		return &APIError{Code: http.StatusConflict, Message: err.Error()}
	case errs.KindInvalidArgument:
		return &APIError{Code: http.StatusBadRequest, Message: err.Error()}
	case errs.KindUnsupported:
		return &APIError{Code: http.StatusUnprocessableEntity, Message: err.Error()}
	}
	log.Error().Err(err).Msgf("[api] %s", what)
	return &APIError{Code: http.StatusInternalServerError, Message: "could not " + what}
}

// Page reads ?limit= and ?offset=. Missing values are zero and left to the
// service defaults.
func Page(ctx *gin.Context) (limit, offset int, apiErr *APIError) {
	var err error
	if v := ctx.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			return 0, 0, BadRequest("invalid limit")
		}
	}
	if v := ctx.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, BadRequest("invalid offset")
		}
	}
	return limit, offset, nil
}
