package game

import "github.com/pthm-cable/hillclimb/telemetry"

// publishGeneration logs a finished generation, checks for bookmarks and runs the hooks.
func (g *Game) publishGeneration(stats telemetry.GenerationStats) {
	stats.LogStats()

	if g.hooks.OnGeneration != nil {
		g.hooks.OnGeneration(stats)
	}

	for _, bm := range g.bookmarks.Check(stats) {
		bm.LogBookmark()
		if g.hooks.OnBookmark != nil {
			g.hooks.OnBookmark(bm)
		}
	}
}

// maybeReportPerf hands the perf window to OnPerf every LogEveryTicks ticks.
func (g *Game) maybeReportPerf() {
	every := int64(g.cfg.Telemetry.LogEveryTicks)
	if g.hooks.OnPerf == nil || every <= 0 || g.tick%every != 0 {
		return
	}
	g.hooks.OnPerf(g.perf.Stats(), g.tick)
}
