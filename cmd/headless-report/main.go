package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"

	"github.com/Garsondee/Arena-Sense/internal/game"
	"github.com/Garsondee/Arena-Sense/internal/pathsvc"
)

type runStats struct {
	runIndex int
	seed     int64

	firstPathTick    int
	firstContactTick int
	firstHitTick     int
	firstKillTick    int
	deathTick        int // -1 when the player survived

	ticks       int
	finalHealth int
	stats       game.SimStats
	unreachable int // unreachable events logged
	affected    map[string]struct{}

	windowSummary *game.WindowReport
}

type options struct {
	runs       int
	ticks      int
	seedBase   int64
	seedStep   int64
	population int
	scenario   string
	paths      string
	configPath string
}

func main() {
	var o options
	var copyOut bool

	flag.IntVar(&o.runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&o.ticks, "ticks", 3600, "ticks per run (60 per second)")
	flag.Int64Var(&o.seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&o.seedStep, "seed-step", 1, "seed increment between runs")
	flag.IntVar(&o.population, "population", 8, "agents kept alive during a run")
	flag.StringVar(&o.scenario, "scenario", "patrol", "scenario name: patrol or siege")
	flag.StringVar(&o.paths, "paths", pathsvc.BackendInline, "path backend: inline or workers")
	flag.StringVar(&o.configPath, "config", "", "YAML config file")
	flag.BoolVar(&copyOut, "copy", false, "also copy the report to the clipboard")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "headless"})

	if o.runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if o.ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}
	if o.scenario != "patrol" && o.scenario != "siege" {
		fmt.Printf("error: unsupported scenario %q (supported: patrol, siege)\n", o.scenario)
		return
	}
	if o.paths != pathsvc.BackendInline && o.paths != pathsvc.BackendWorkers {
		fmt.Printf("error: unsupported path backend %q (supported: inline, workers)\n", o.paths)
		return
	}

	cfg := game.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = game.LoadConfig(o.configPath); err != nil {
			logger.Fatal("load config", "err", err)
		}
	}

	var out strings.Builder
	fmt.Fprintf(&out, "=== Headless Arena Report ===\n")
	fmt.Fprintf(&out, "scenario=%s runs=%d ticks=%d population=%d paths=%s seed_base=%d seed_step=%d\n\n",
		o.scenario, o.runs, o.ticks, o.population, o.paths, o.seedBase, o.seedStep)

	all := make([]runStats, 0, o.runs)
	for i := 0; i < o.runs; i++ {
		seed := o.seedBase + int64(i)*o.seedStep
		rs, err := runScenario(cfg, o, i+1, seed)
		if err != nil {
			logger.Fatal("run failed", "run", i+1, "seed", seed, "err", err)
		}
		all = append(all, rs)
		writeRun(&out, rs)
	}
	writeAggregate(&out, all)

	fmt.Print(out.String())
	if copyOut {
		if err := clipboard.WriteAll(out.String()); err != nil {
			logger.Warn("clipboard write failed", "err", err)
		} else {
			logger.Info("report copied to clipboard")
		}
	}
}

func runScenario(cfg game.Config, o options, runIndex int, seed int64) (runStats, error) {
	simOpts := []game.SimOption{
		game.WithConfig(cfg),
		game.WithRunSeed(seed),
		game.WithPopulation(o.population),
	}
	if o.scenario == "patrol" {
		simOpts = append(simOpts, game.WithAutopilot(game.DefaultRoute()))
	}
	if o.paths == pathsvc.BackendWorkers {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		client, stop, err := pathsvc.Open(ctx, pathsvc.BackendConfig{
			Kind:     pathsvc.BackendWorkers,
			Size:     cfg.Grid.Size,
			CellSize: cfg.Grid.CellSize,
			Workers:  cfg.Paths.Workers,
			Queue:    cfg.Paths.QueueSize,
		})
		if err != nil {
			return runStats{}, err
		}
		defer stop()
		simOpts = append(simOpts, game.WithPathClient(client))
	}

	ts, err := game.NewTestSim(simOpts...)
	if err != nil {
		return runStats{}, err
	}
	reporter := game.NewSimReporter(600, false)
	deathTick := ts.RunUntil(func(ts *game.TestSim) bool {
		if ts.CurrentTick()%60 == 0 {
			reporter.Collect(ts.Sim)
		}
		return ts.Sim.Player().Dead()
	}, o.ticks)
	if deathTick >= 0 {
		reporter.Collect(ts.Sim)
	}

	rs := summarizeRun(ts.SimLog.Entries())
	rs.runIndex = runIndex
	rs.seed = seed
	rs.deathTick = deathTick
	rs.ticks = ts.CurrentTick()
	rs.finalHealth = ts.Sim.Player().Health()
	rs.stats = ts.Sim.Stats()
	rs.windowSummary = reporter.WindowSummary()
	return rs, nil
}

// summarizeRun derives phase markers and counts from a run's SimLog.
func summarizeRun(entries []game.SimLogEntry) runStats {
	rs := runStats{
		firstPathTick:    firstTick(entries, "path", "applied", ""),
		firstContactTick: firstTick(entries, "combat", "contact", ""),
		firstHitTick:     firstTick(entries, "combat", "hit_target", ""),
		firstKillTick:    firstTick(entries, "life", "dying", ""),
		deathTick:        -1,
		affected:         map[string]struct{}{},
	}
	for _, e := range entries {
		if e.Category == "path" && e.Key == "unreachable" {
			rs.unreachable++
			rs.affected[e.Agent] = struct{}{}
		}
	}
	return rs
}

func firstTick(entries []game.SimLogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains != "" && !strings.Contains(e.Value, contains) {
			continue
		}
		return e.Tick
	}
	return -1
}

// assessRun flags runs where the navigation layer misbehaved.
func assessRun(rs runStats) (bool, string) {
	var reasons []string
	st := rs.stats
	if st.PathRequests > 0 && float64(st.PathRejected)/float64(st.PathRequests+st.PathRejected) > 0.25 {
		reasons = append(reasons, "queue_pressure")
	}
	if st.PathResults > 0 && float64(st.StaleResults)/float64(st.PathResults) > 0.5 {
		reasons = append(reasons, "mostly_stale_results")
	}
	if rs.unreachable > 0 && len(rs.affected) > 0 && rs.unreachable/len(rs.affected) > 10 {
		reasons = append(reasons, "repeated_unreachable")
	}
	if st.Spawned > 0 && st.ContactHits == 0 && st.ShotsFired == 0 && rs.ticks >= 1800 {
		reasons = append(reasons, "agents_never_engaged")
	}
	if len(reasons) == 0 {
		return false, "ok"
	}
	return true, strings.Join(reasons, ",")
}

func writeRun(b *strings.Builder, rs runStats) {
	fmt.Fprintf(b, "--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Fprintf(b, "phase_markers: first_path=%d first_contact=%d first_hit=%d first_kill=%d player_death=%d\n",
		rs.firstPathTick, rs.firstContactTick, rs.firstHitTick, rs.firstKillTick, rs.deathTick)
	st := rs.stats
	fmt.Fprintf(b, "paths: requests=%d rejected=%d results=%d stale=%d empty=%d unreachable_events=%d\n",
		st.PathRequests, st.PathRejected, st.PathResults, st.StaleResults, st.EmptyResults, rs.unreachable)
	fmt.Fprintf(b, "nav: mode_switches=%d waypoints=%d push_outs=%d skipped_steers=%d\n",
		st.ModeSwitches, st.WaypointsTaken, st.PushOuts, st.SkippedSteers)
	fmt.Fprintf(b, "combat: spawned=%d kills=%d agent_shots=%d agent_hits=%d contact=%d player_shots=%d player_hits=%d\n",
		st.Spawned, st.Kills, st.ShotsFired, st.ShotsHit, st.ContactHits, st.PlayerShots, st.PlayerHits)
	fmt.Fprintf(b, "outcome: ticks=%d final_health=%d\n", rs.ticks, rs.finalHealth)
	if flagged, reason := assessRun(rs); flagged {
		fmt.Fprintf(b, "FLAGGED: %s (affected: %s)\n", reason, joinSet(rs.affected))
	}
	if rs.windowSummary != nil {
		b.WriteString(rs.windowSummary.Format())
	}
	b.WriteByte('\n')
}

func writeAggregate(b *strings.Builder, all []runStats) {
	n := len(all)
	var total game.SimStats
	var deaths, flagged int
	var deathTicks, killTicks []int
	for _, rs := range all {
		total.PathRequests += rs.stats.PathRequests
		total.StaleResults += rs.stats.StaleResults
		total.PushOuts += rs.stats.PushOuts
		total.Kills += rs.stats.Kills
		total.ShotsFired += rs.stats.ShotsFired
		total.ShotsHit += rs.stats.ShotsHit
		if rs.deathTick >= 0 {
			deaths++
			deathTicks = append(deathTicks, rs.deathTick)
		}
		if rs.firstKillTick >= 0 {
			killTicks = append(killTicks, rs.firstKillTick)
		}
		if f, _ := assessRun(rs); f {
			flagged++
		}
	}
	b.WriteString("=== Aggregate ===\n")
	fmt.Fprintf(b, "runs=%d player_deaths=%d flagged=%d\n", n, deaths, flagged)
	fmt.Fprintf(b, "avg_per_run: path_requests=%.1f stale=%.1f push_outs=%.1f kills=%.1f agent_shots=%.1f agent_hits=%.1f\n",
		avg(total.PathRequests, n), avg(total.StaleResults, n), avg(total.PushOuts, n),
		avg(total.Kills, n), avg(total.ShotsFired, n), avg(total.ShotsHit, n))
	fmt.Fprintf(b, "phase_marker_avg_ticks: first_kill=%s player_death=%s\n",
		avgTickString(killTicks), avgTickString(deathTicks))
}

func avg(sum int, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func joinSet(set map[string]struct{}) string {
	if len(set) == 0 {
		return "-"
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
