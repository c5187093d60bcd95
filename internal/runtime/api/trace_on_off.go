package api

import (
	"encoding/json"

	"github.com/Borislavv/advanced-memory/pkg/lifetrace"
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
)

// TraceController provides endpoints to switch lifecycle tracing on and off.
type TraceController struct {
	tracer *lifetrace.Tracer
}

// NewTraceController creates a new TraceController instance.
func NewTraceController(tracer *lifetrace.Tracer) *TraceController {
	return &TraceController{tracer: tracer}
}

// traceStatusResponse is the JSON payload returned by On and Off handlers.
type traceStatusResponse struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message,omitempty"`
}

// On handles POST /memory/trace/on and enables lifecycle tracing.
func (c *TraceController) On(ctx *fasthttp.RequestCtx) {
	c.tracer.Enable()
	resp := traceStatusResponse{Enabled: true, Message: "tracing enabled"}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json; charset=utf-8")
	_ = json.NewEncoder(ctx).Encode(resp)
}

// Off handles POST /memory/trace/off and disables lifecycle tracing.
func (c *TraceController) Off(ctx *fasthttp.RequestCtx) {
	c.tracer.Disable()
	resp := traceStatusResponse{Enabled: false, Message: "tracing disabled"}
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json; charset=utf-8")
	_ = json.NewEncoder(ctx).Encode(resp)
}

// AddRoute attaches the trace on/off routes to the given router.
func (c *TraceController) AddRoute(r *router.Router) {
	r.POST("/memory/trace/on", c.On)
	r.POST("/memory/trace/off", c.Off)
}
