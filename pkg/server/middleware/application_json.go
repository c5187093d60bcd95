package middleware

import (
	"github.com/valyala/fasthttp"
)

// HttpMiddleware wraps a fasthttp handler.
type HttpMiddleware interface {
	Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler
}

var applicationJsonBytes = []byte("application/json")

// ApplicationJsonMiddleware sets the default Content-Type for debug API
// responses that did not set their own (the /metrics endpoint does).
type ApplicationJsonMiddleware struct{}

func NewApplicationJsonMiddleware() ApplicationJsonMiddleware {
	return ApplicationJsonMiddleware{}
}

func (ApplicationJsonMiddleware) Middleware(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		next(ctx)
		if len(ctx.Response.Header.ContentType()) == 0 {
			ctx.Response.Header.SetContentTypeBytes(applicationJsonBytes)
		}
	}
}
