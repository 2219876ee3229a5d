package game

import (
	"fmt"
	"strings"
)

// reportWindowTicks is the default sliding window for recent-behaviour reports (~10s at 60TPS).
const reportWindowTicks = 600

// --- Snapshot types ---

// SimReport is a snapshot of the arena at one tick.
type SimReport struct {
	Tick       int
	Elapsed    float64
	Difficulty float64

	// Population.
	Melee, Ranged int
	Dying         int
	Projectiles   int

	// Steering mode counts (SteeringMode → count).
	Modes map[SteeringMode]int

	PathsPending int
	Unreachable  int
	AvgPathLen   float64 // over agents in path mode

	TargetHealth int // -1 when the target is not a *Player

	// Cumulative counters at this tick.
	Stats SimStats
}

// --- Reporter ---

// SimReporter collects periodic reports from the simulation and can produce
// summaries over sliding time windows.
type SimReporter struct {
	history     []SimReport
	windowTicks int
	verbose     bool
}

// NewSimReporter creates a reporter with the given window size.
func NewSimReporter(windowTicks int, verbose bool) *SimReporter {
	if windowTicks <= 0 {
		windowTicks = reportWindowTicks
	}
	return &SimReporter{
		windowTicks: windowTicks,
		verbose:     verbose,
	}
}

// Collect gathers a snapshot from the current simulation state.
// Call this periodically (e.g. every 60 ticks / 1s).
func (r *SimReporter) Collect(sim *Simulation) {
	report := SimReport{
		Tick:         sim.TickCount(),
		Elapsed:      sim.Elapsed(),
		Difficulty:   sim.Difficulty(),
		Dying:        len(sim.Dying()),
		Projectiles:  len(sim.Projectiles()),
		Modes:        make(map[SteeringMode]int),
		TargetHealth: -1,
		Stats:        sim.Stats(),
	}
	pathLen, pathAgents := 0, 0
	for _, a := range sim.Agents() {
		switch a.behavior {
		case BehaviorMelee:
			report.Melee++
		case BehaviorRanged:
			report.Ranged++
		}
		report.Modes[a.mode]++
		if a.pending {
			report.PathsPending++
		}
		if a.unreachable {
			report.Unreachable++
		}
		if a.mode == ModePath {
			pathLen += len(a.path)
			pathAgents++
		}
	}
	if pathAgents > 0 {
		report.AvgPathLen = float64(pathLen) / float64(pathAgents)
	}
	if p := sim.Player(); p != nil {
		report.TargetHealth = p.Health()
	}
	r.history = append(r.history, report)
}

// Latest returns the most recent report, or nil.
func (r *SimReporter) Latest() *SimReport {
	if len(r.history) == 0 {
		return nil
	}
	return &r.history[len(r.history)-1]
}

// WindowSummary returns an aggregated summary over the recent time window.
// Population and path figures are averaged; counters are differenced
// between the oldest and newest report in the window.
func (r *SimReporter) WindowSummary() *WindowReport {
	if len(r.history) == 0 {
		return nil
	}

	// Find reports within the window.
	latestTick := r.history[len(r.history)-1].Tick
	cutoff := latestTick - r.windowTicks
	var window []SimReport
	for i := len(r.history) - 1; i >= 0; i-- {
		if r.history[i].Tick < cutoff {
			break
		}
		window = append(window, r.history[i])
	}
	if len(window) == 0 {
		return nil
	}

	newest, oldest := window[0], window[len(window)-1]
	n := float64(len(window))
	wr := &WindowReport{
		FromTick:    oldest.Tick,
		ToTick:      newest.Tick,
		SampleCount: len(window),
		Seconds:     newest.Elapsed - oldest.Elapsed,
		ModePct:     make(map[SteeringMode]float64),
		Delta:       diffStats(newest.Stats, oldest.Stats),
		Totals:      newest.Stats,
		Difficulty:  newest.Difficulty,
		Health:      newest.TargetHealth,
	}

	modeTotal := make(map[SteeringMode]float64)
	var agentTotal float64
	for _, rpt := range window {
		for m, c := range rpt.Modes {
			modeTotal[m] += float64(c)
			agentTotal += float64(c)
		}
		wr.AvgMelee += float64(rpt.Melee)
		wr.AvgRanged += float64(rpt.Ranged)
		wr.AvgPending += float64(rpt.PathsPending)
		wr.AvgUnreachable += float64(rpt.Unreachable)
		wr.AvgPathLen += rpt.AvgPathLen
		wr.AvgProjectiles += float64(rpt.Projectiles)
	}
	if agentTotal > 0 {
		for m, c := range modeTotal {
			wr.ModePct[m] = c / agentTotal * 100
		}
	}
	wr.AvgMelee /= n
	wr.AvgRanged /= n
	wr.AvgPending /= n
	wr.AvgUnreachable /= n
	wr.AvgPathLen /= n
	wr.AvgProjectiles /= n
	return wr
}

func diffStats(a, b SimStats) SimStats {
	return SimStats{
		Spawned:        a.Spawned - b.Spawned,
		PathRequests:   a.PathRequests - b.PathRequests,
		PathRejected:   a.PathRejected - b.PathRejected,
		PathResults:    a.PathResults - b.PathResults,
		StaleResults:   a.StaleResults - b.StaleResults,
		EmptyResults:   a.EmptyResults - b.EmptyResults,
		ModeSwitches:   a.ModeSwitches - b.ModeSwitches,
		WaypointsTaken: a.WaypointsTaken - b.WaypointsTaken,
		PushOuts:       a.PushOuts - b.PushOuts,
		SkippedSteers:  a.SkippedSteers - b.SkippedSteers,
		ShotsFired:     a.ShotsFired - b.ShotsFired,
		ShotsHit:       a.ShotsHit - b.ShotsHit,
		PlayerShots:    a.PlayerShots - b.PlayerShots,
		PlayerHits:     a.PlayerHits - b.PlayerHits,
		ContactHits:    a.ContactHits - b.ContactHits,
		Kills:          a.Kills - b.Kills,
	}
}

// WindowReport is an aggregated summary over a time window.
type WindowReport struct {
	FromTick, ToTick int
	SampleCount      int
	Seconds          float64

	// Steering mode distribution as percentages (0-100).
	ModePct map[SteeringMode]float64

	// Averages over the window.
	AvgMelee, AvgRanged        float64
	AvgPending, AvgUnreachable float64
	AvgPathLen                 float64
	AvgProjectiles             float64

	// Counter movement inside the window, and running totals.
	Delta  SimStats
	Totals SimStats

	Difficulty float64
	Health     int
}

// Rate returns n events per simulated second over the window.
func (wr *WindowReport) Rate(n int) float64 {
	if wr.Seconds <= 0 {
		return 0
	}
	return float64(n) / wr.Seconds
}

// HitRate is the share of agent shots in the window that hit the target.
func (wr *WindowReport) HitRate() float64 {
	if wr.Delta.ShotsFired == 0 {
		return 0
	}
	return float64(wr.Delta.ShotsHit) / float64(wr.Delta.ShotsFired)
}

// Format returns a human-readable multi-line string of the window summary.
func (wr *WindowReport) Format() string {
	if wr == nil {
		return "No data collected yet.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Arena Report (T=%d..%d, %d samples, %.1fs) ===\n",
		wr.FromTick, wr.ToTick, wr.SampleCount, wr.Seconds)

	sb.WriteString("\n--- Steering Modes ---\n")
	for _, m := range []SteeringMode{ModeDirect, ModePath, ModeNone} {
		if pct, ok := wr.ModePct[m]; ok && pct > 0.5 {
			fmt.Fprintf(&sb, "  %-8s %5.1f%%\n", m, pct)
		}
	}

	sb.WriteString("\n--- Population ---\n")
	fmt.Fprintf(&sb, "  melee=%.1f  ranged=%.1f  projectiles=%.1f\n",
		wr.AvgMelee, wr.AvgRanged, wr.AvgProjectiles)
	fmt.Fprintf(&sb, "  spawned=%d  kills=%d  difficulty=%.1f\n",
		wr.Delta.Spawned, wr.Delta.Kills, wr.Difficulty)

	sb.WriteString("\n--- Pathfinding ---\n")
	fmt.Fprintf(&sb, "  requests=%d (%.1f/s)  rejected=%d  results=%d  stale=%d  empty=%d\n",
		wr.Delta.PathRequests, wr.Rate(wr.Delta.PathRequests), wr.Delta.PathRejected,
		wr.Delta.PathResults, wr.Delta.StaleResults, wr.Delta.EmptyResults)
	fmt.Fprintf(&sb, "  pending=%.1f  unreachable=%.1f  avg_path_len=%.1f\n",
		wr.AvgPending, wr.AvgUnreachable, wr.AvgPathLen)
	fmt.Fprintf(&sb, "  mode_switches=%d  waypoints=%d  push_outs=%d  skipped_steers=%d\n",
		wr.Delta.ModeSwitches, wr.Delta.WaypointsTaken, wr.Delta.PushOuts, wr.Delta.SkippedSteers)

	sb.WriteString("\n--- Combat ---\n")
	fmt.Fprintf(&sb, "  agent shots=%d  hits=%d (%.0f%%)  contact=%d\n",
		wr.Delta.ShotsFired, wr.Delta.ShotsHit, wr.HitRate()*100, wr.Delta.ContactHits)
	fmt.Fprintf(&sb, "  player shots=%d  hits=%d\n", wr.Delta.PlayerShots, wr.Delta.PlayerHits)
	if wr.Health >= 0 {
		fmt.Fprintf(&sb, "  player health=%d (%s)\n", wr.Health, healthLabel(wr.Health))
	}
	return sb.String()
}

func healthLabel(h int) string {
	switch {
	case h <= 0:
		return "dead"
	case h < 25:
		return "critical"
	case h < 60:
		return "wounded"
	case h < 100:
		return "scratched"
	default:
		return "untouched"
	}
}

// FormatLatest returns a concise snapshot of the most recent collected report.
func (r *SimReporter) FormatLatest() string {
	rpt := r.Latest()
	if rpt == nil {
		return "No data.\n"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Snapshot T=%d (%.1fs) ---\n", rpt.Tick, rpt.Elapsed)
	fmt.Fprintf(&sb, "Agents: melee=%d ranged=%d dying=%d  projectiles=%d\n",
		rpt.Melee, rpt.Ranged, rpt.Dying, rpt.Projectiles)
	fmt.Fprintf(&sb, "Modes:  direct=%d path=%d none=%d  pending=%d unreachable=%d\n",
		rpt.Modes[ModeDirect], rpt.Modes[ModePath], rpt.Modes[ModeNone],
		rpt.PathsPending, rpt.Unreachable)
	if r.verbose {
		fmt.Fprintf(&sb, "Stats:  %+v\n", rpt.Stats)
	}
	return sb.String()
}

// History returns all collected reports.
func (r *SimReporter) History() []SimReport {
	return r.history
}
