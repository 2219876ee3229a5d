package main

import (
	"strings"
	"testing"

	"github.com/Garsondee/Arena-Sense/internal/game"
	"github.com/Garsondee/Arena-Sense/internal/pathsvc"
)

func TestFirstTick(t *testing.T) {
	entries := []game.SimLogEntry{
		{Tick: 3, Category: "path", Key: "request", Value: "seq=1"},
		{Tick: 7, Category: "path", Key: "applied", Value: "seq=1 len=4"},
		{Tick: 9, Category: "path", Key: "applied", Value: "seq=2 len=12"},
	}
	if got := firstTick(entries, "path", "applied", ""); got != 7 {
		t.Fatalf("first applied = %d, want 7", got)
	}
	if got := firstTick(entries, "path", "applied", "len=12"); got != 9 {
		t.Fatalf("first applied with len=12 = %d, want 9", got)
	}
	if got := firstTick(entries, "combat", "fire", ""); got != -1 {
		t.Fatalf("missing marker = %d, want -1", got)
	}
}

func TestSummarizeRun_CountsUnreachable(t *testing.T) {
	rs := summarizeRun([]game.SimLogEntry{
		{Tick: 1, Agent: "M0", Category: "path", Key: "unreachable"},
		{Tick: 2, Agent: "M0", Category: "path", Key: "unreachable"},
		{Tick: 3, Agent: "R1", Category: "path", Key: "unreachable"},
		{Tick: 4, Agent: "R1", Category: "life", Key: "dying"},
	})
	if rs.unreachable != 3 || len(rs.affected) != 2 {
		t.Fatalf("unreachable=%d affected=%d", rs.unreachable, len(rs.affected))
	}
	if rs.firstKillTick != 4 || rs.deathTick != -1 {
		t.Fatalf("markers kill=%d death=%d", rs.firstKillTick, rs.deathTick)
	}
	if joinSet(rs.affected) != "M0,R1" {
		t.Fatalf("affected = %s", joinSet(rs.affected))
	}
}

func TestAssessRun_HealthyRun(t *testing.T) {
	rs := runStats{
		ticks: 3600,
		stats: game.SimStats{Spawned: 10, PathRequests: 100, PathResults: 100, StaleResults: 10, ShotsFired: 5},
	}
	if flagged, reason := assessRun(rs); flagged {
		t.Fatalf("healthy run flagged: %s", reason)
	}
}

func TestAssessRun_FlagsQueuePressureAndStaleness(t *testing.T) {
	rs := runStats{
		ticks: 600,
		stats: game.SimStats{PathRequests: 50, PathRejected: 50, PathResults: 40, StaleResults: 30},
	}
	flagged, reason := assessRun(rs)
	if !flagged {
		t.Fatal("expected the run to be flagged")
	}
	for _, want := range []string{"queue_pressure", "mostly_stale_results"} {
		if !strings.Contains(reason, want) {
			t.Fatalf("reason %q missing %s", reason, want)
		}
	}
}

func TestAssessRun_FlagsIdleAgents(t *testing.T) {
	rs := runStats{ticks: 3600, stats: game.SimStats{Spawned: 8}}
	if flagged, reason := assessRun(rs); !flagged || reason != "agents_never_engaged" {
		t.Fatalf("flagged=%v reason=%s", flagged, reason)
	}
}

func TestRunScenario_Siege(t *testing.T) {
	o := options{ticks: 600, population: 4, scenario: "siege", paths: pathsvc.BackendInline}
	rs, err := runScenario(game.DefaultConfig(), o, 1, 7)
	if err != nil {
		t.Fatalf("runScenario: %v", err)
	}
	if rs.stats.Spawned < 4 || rs.ticks == 0 {
		t.Fatalf("run did nothing: %+v", rs.stats)
	}
	if rs.windowSummary == nil {
		t.Fatal("no window summary collected")
	}
	var b strings.Builder
	writeRun(&b, rs)
	writeAggregate(&b, []runStats{rs})
	if !strings.Contains(b.String(), "=== Aggregate ===") {
		t.Fatalf("report missing aggregate:\n%s", b.String())
	}
}
