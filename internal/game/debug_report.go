package game

import (
	"fmt"
	"strings"
)

// agentEventSummary tallies one agent's SimLog entries over a tick range.
type agentEventSummary struct {
	requests, rejected, applied, stale, unreachable int
	modeSwitches, pushOuts                          int
	shots, holds                                    int
	damaged                                         int
	holdReasons                                     map[string]int
}

func summarizeAgentEvents(entries []SimLogEntry) agentEventSummary {
	s := agentEventSummary{holdReasons: map[string]int{}}
	for _, e := range entries {
		switch e.Category + "/" + e.Key {
		case "path/request":
			s.requests++
		case "path/rejected":
			s.rejected++
		case "path/applied":
			s.applied++
		case "path/stale":
			s.stale++
		case "path/unreachable":
			s.unreachable++
		case "nav/mode":
			s.modeSwitches++
		case "nav/push_out":
			s.pushOuts++
		case "combat/fire":
			s.shots++
		case "combat/hold":
			s.holds++
			s.holdReasons[e.Value]++
		case "combat/damaged":
			s.damaged++
		}
	}
	return s
}

// storyEvents keeps the entries a reader needs to follow what happened.
func storyEvents(entries []SimLogEntry) []string {
	var out []string
	for _, e := range entries {
		switch e.Category {
		case "life":
		case "nav":
			if e.Key != "mode" {
				continue
			}
		case "path":
			if e.Key != "unreachable" {
				continue
			}
		case "combat":
			if e.Key == "hold" {
				continue
			}
		default:
			continue
		}
		out = append(out, e.String())
	}
	return out
}

// AgentDebugReport describes a over the last lastTicks ticks: its current
// state, a tally of its logged events and the notable ones in order.
func AgentDebugReport(sim *Simulation, a *Agent, lastTicks int) string {
	if a == nil {
		return ""
	}
	if lastTicks <= 0 {
		lastTicks = 120
	}
	toTick := sim.TickCount()
	fromTick := toTick - lastTicks + 1
	if fromTick < 0 {
		fromTick = 0
	}

	var entries []SimLogEntry
	for _, e := range sim.SimLog().FilterAgent(a.label) {
		if e.Tick >= fromTick && e.Tick <= toTick {
			entries = append(entries, e)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- ArenaSense agent report ---\n")
	fmt.Fprintf(&b, "tick_range=[%d..%d] ticks=%d elapsed=%.2fs\n", fromTick, toTick, toTick-fromTick+1, sim.Elapsed())
	fmt.Fprintf(&b, "agent=%s id=%s behavior=%s life=%s hp=%d/%d\n",
		a.label, a.id, a.behavior, a.life, a.hp, a.maxHP)
	fmt.Fprintf(&b, "pos=(%.2f, %.2f) yaw=%.2f mode=%s\n", a.pos.X, a.pos.Z, a.yaw, a.mode)
	fmt.Fprintf(&b, "path: len=%d pending=%v unreachable=%v seq=%d applied=%d goal=%v last_request=%.2fs\n\n",
		len(a.path), a.pending, a.unreachable, a.seq, a.appliedSeq, a.goal, a.lastPathRequest)

	if len(entries) == 0 {
		b.WriteString("(no events recorded in range)\n")
		return b.String()
	}

	s := summarizeAgentEvents(entries)
	fmt.Fprintf(&b, "paths: requests=%d rejected=%d applied=%d stale=%d unreachable=%d\n",
		s.requests, s.rejected, s.applied, s.stale, s.unreachable)
	fmt.Fprintf(&b, "nav:   mode_switches=%d push_outs=%d\n", s.modeSwitches, s.pushOuts)
	fmt.Fprintf(&b, "fire:  shots=%d holds=%d damaged=%d\n", s.shots, s.holds, s.damaged)
	if len(s.holdReasons) > 0 {
		b.WriteString("holds:")
		for _, g := range []FireGate{GateOutOfRange, GateCooldown, GateOutsideFOV, GateNotAimed, GateBlocked} {
			if n := s.holdReasons[g.String()]; n > 0 {
				fmt.Fprintf(&b, " %s=%d", g, n)
			}
		}
		b.WriteByte('\n')
	}

	if story := storyEvents(entries); len(story) > 0 {
		b.WriteString("\nevents:\n")
		for _, line := range story {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
