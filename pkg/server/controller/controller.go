package controller

import (
	"github.com/fasthttp/router"
)

// HttpController registers its routes on the debug router.
type HttpController interface {
	AddRoute(r *router.Router)
}
