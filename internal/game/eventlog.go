package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	logPanelWidth = 320
	logMaxEntries = 60
	logLineHeight = 11
)

// EventEntry is a single line in the event log.
type EventEntry struct {
	Tick     int
	Label    string // e.g. "M1", "R3"
	Behavior string
	Message  string
}

// EventLog is a ring buffer of recent simulation events rendered on-screen.
type EventLog struct {
	entries []EventEntry
	head    int
	count   int
	synced  int // SimLog entries already copied
}

// NewEventLog creates an event log with a fixed capacity.
func NewEventLog() *EventLog {
	return &EventLog{
		entries: make([]EventEntry, logMaxEntries),
	}
}

// Add appends an entry to the log.
func (el *EventLog) Add(tick int, label, behavior, msg string) {
	el.entries[el.head] = EventEntry{
		Tick:     tick,
		Label:    label,
		Behavior: behavior,
		Message:  msg,
	}
	el.head = (el.head + 1) % logMaxEntries
	if el.count < logMaxEntries {
		el.count++
	}
}

// Sync copies SimLog entries recorded since the last call. Only life,
// mode and combat hits make the panel; path chatter stays in the SimLog.
func (el *EventLog) Sync(sl *SimLog) {
	all := sl.Entries()
	if el.synced > len(all) {
		el.synced = 0
	}
	for _, e := range all[el.synced:] {
		if !panelWorthy(e) {
			continue
		}
		msg := e.Key
		if e.Value != "" {
			msg += " " + e.Value
		}
		el.Add(e.Tick, e.Agent, e.Behavior, msg)
	}
	el.synced = len(all)
}

func panelWorthy(e SimLogEntry) bool {
	switch e.Category {
	case "life":
		return true
	case "nav":
		return e.Key == "mode"
	case "combat":
		return e.Key != "hold" && e.Key != "fire"
	case "path":
		return e.Key == "unreachable"
	}
	return false
}

// Recent returns entries in chronological order (oldest first).
func (el *EventLog) Recent() []EventEntry {
	result := make([]EventEntry, el.count)
	for i := 0; i < el.count; i++ {
		idx := (el.head - el.count + i + logMaxEntries) % logMaxEntries
		result[i] = el.entries[idx]
	}
	return result
}

// Draw renders the event log panel on the right side of the screen.
func (el *EventLog) Draw(screen *ebiten.Image, panelX int, panelH int) {
	// Panel background.
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 10, G: 12, B: 10, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 70, B: 50, A: 255}, false)

	// Title bar.
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), 16, color.RGBA{R: 20, G: 30, B: 20, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "EVENTS", panelX+8, 2)
	vector.StrokeLine(screen, float32(panelX), 16, float32(panelX+logPanelWidth), 16, 1.0, color.RGBA{R: 50, G: 80, B: 50, A: 200}, false)

	entries := el.Recent()

	// Newest at the bottom.
	maxVisible := (panelH - 24) / logLineHeight
	startIdx := 0
	if len(entries) > maxVisible {
		startIdx = len(entries) - maxVisible
	}

	visible := entries[startIdx:]
	recent := 3 // how many latest entries to highlight

	y := 20
	for i, e := range visible {
		if i >= len(visible)-recent {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(logPanelWidth-4), float32(logLineHeight), color.RGBA{R: 30, G: 40, B: 30, A: 160}, false)
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+3), 3, 5, behaviorColor(e.Behavior), false)

		line := fmt.Sprintf("%5d [%s] %s", e.Tick, e.Label, e.Message)
		ebitenutil.DebugPrintAt(screen, line, panelX+12, y)
		y += logLineHeight
	}
}

func behaviorColor(b string) color.RGBA {
	switch b {
	case BehaviorMelee.String():
		return color.RGBA{R: 210, G: 70, B: 70, A: 255}
	case BehaviorRanged.String():
		return color.RGBA{R: 230, G: 170, B: 40, A: 255}
	}
	return color.RGBA{R: 140, G: 140, B: 140, A: 255}
}
