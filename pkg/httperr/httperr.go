// Package httperr attaches an HTTP status code to an error so that a
// central handler can translate it into a response without the handler
// itself knowing about net/http.
package httperr

import (
	"errors"
	"net/http"

	"github.com/stacklok/mcp-vgateway/pkg/gwerrors"
)

type coded struct {
	err  error
	code int
}

func (c *coded) Error() string { return c.err.Error() }
func (c *coded) Unwrap() error { return c.err }

// WithCode wraps err so that Code(err) returns code.
func WithCode(err error, code int) error {
	return &coded{err: err, code: code}
}

// Code extracts the HTTP status code associated with err, defaulting to
// 500 if none was attached. gwerrors.Error values are mapped to a status
// even without an explicit WithCode wrapper.
func Code(err error) int {
	var c *coded
	if errors.As(err, &c) {
		return c.code
	}

	var gwErr *gwerrors.Error
	if errors.As(err, &gwErr) {
		return gwErrorCode(gwErr.Type)
	}

	return http.StatusInternalServerError
}

func gwErrorCode(errType string) int {
	switch errType {
	case gwerrors.ErrUnknownTool:
		return http.StatusNotFound
	case gwerrors.ErrDisabledTool, gwerrors.ErrAuthRequired:
		return http.StatusForbidden
	case gwerrors.ErrBackendUnavailable:
		return http.StatusServiceUnavailable
	case gwerrors.ErrBadInput:
		return http.StatusBadRequest
	case gwerrors.ErrBackendError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
