package api

import (
	"encoding/json"
	"strconv"

	"github.com/Borislavv/advanced-memory/pkg/alloc"
	"github.com/Borislavv/advanced-memory/pkg/lifetrace"
	"github.com/fasthttp/router"
	"github.com/rs/zerolog/log"
	gotilsconv "github.com/savsgio/gotils/strconv"
	"github.com/valyala/fasthttp"
)

// MemoryStatsPath serves the combined allocator + tracer snapshot.
const MemoryStatsPath = "/memory/stats"

// StatsController exposes the runtime's live memory picture for debugging.
type StatsController struct {
	allocator alloc.Allocator
	tracer    *lifetrace.Tracer
}

func NewStatsController(allocator alloc.Allocator, tracer *lifetrace.Tracer) *StatsController {
	return &StatsController{allocator: allocator, tracer: tracer}
}

type allocatorStatsResponse struct {
	InUseBytes int64 `json:"in_use_bytes"`
	LiveBlocks int64 `json:"live_blocks"`
}

type memoryStatsResponse struct {
	Allocator allocatorStatsResponse `json:"allocator"`
	Tracer    lifetrace.Stats        `json:"tracer"`
}

// Stats handles GET /memory/stats. Pass ?events=false for a counters-only
// response that leaves the recent-events ring intact (a drain is
// destructive: events are reported once).
func (c *StatsController) Stats(ctx *fasthttp.RequestCtx) {
	withEvents := true
	if v := ctx.QueryArgs().Peek("events"); len(v) > 0 {
		parsed, err := strconv.ParseBool(gotilsconv.B2S(v))
		if err == nil {
			withEvents = parsed
		}
	}

	var tracerStats lifetrace.Stats
	if withEvents {
		tracerStats = c.tracer.Snapshot()
	} else {
		tracerStats = c.tracer.Counters()
	}

	resp := memoryStatsResponse{
		Allocator: allocatorStatsResponse{
			InUseBytes: c.allocator.InUse(),
			LiveBlocks: c.allocator.Live(),
		},
		Tracer: tracerStats,
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetContentType("application/json; charset=utf-8")
	if err := json.NewEncoder(ctx).Encode(resp); err != nil {
		log.Err(err).Msg("[stats-controller] failed to encode memory stats")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}
}

// AddRoute attaches the stats route to the given router.
func (c *StatsController) AddRoute(r *router.Router) {
	r.GET(MemoryStatsPath, c.Stats)
}
