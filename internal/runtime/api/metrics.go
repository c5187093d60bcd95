package api

import (
	"github.com/fasthttp/router"
	"github.com/VictoriaMetrics/metrics"
	"github.com/valyala/fasthttp"
)

// MetricsPath serves Prometheus-format metrics.
const MetricsPath = "/metrics"

// MetricsController exposes all registered metrics in Prometheus text format.
type MetricsController struct{}

func NewMetricsController() *MetricsController {
	return &MetricsController{}
}

// Index handles GET /metrics.
func (c *MetricsController) Index(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("text/plain; charset=utf-8")
	metrics.WritePrometheus(ctx, true)
}

// AddRoute attaches the metrics route to the given router.
func (c *MetricsController) AddRoute(r *router.Router) {
	r.GET(MetricsPath, c.Index)
}
