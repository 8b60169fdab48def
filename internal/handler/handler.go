// Package handler defines the capability a route maps to: any function from
// a parsed request to a response. Handlers run concurrently on pool workers,
// so they must not touch shared mutable state without their own
// synchronization.
package handler

import (
	"github.com/aughey/crag-web/internal/request"
	"github.com/aughey/crag-web/internal/response"
)

type Handler func(request.Request) (response.Response, error)

// NotFound is the default fallback handler. The message it carries is
// internal; the wire always gets the embedded 404 page.
func NotFound(req request.Request) (response.Response, error) {
	return response.NotFound("no handler for " + req.Method.String() + " " + req.Path), nil
}
