// Package server provides the HTTP REST API for the internship matcher.
package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/internship-matcher/internal/service"
	"github.com/jonathan/internship-matcher/internal/types"
)

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *types.ValidationError
		notFoundErr   *service.NotFoundError
		closedErr     *service.ClosedOpportunityError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.As(err, &closedErr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
