package game

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Inspector panel: rendered into an offscreen buffer at 1x then blitted at inspScale.
const (
	inspScale = 2
	inspBufW  = 230
	inspBufH  = 200
	inspPad   = 4
	inspLineH = 13
	inspRaw   = 11 // log lines shown in the raw view
)

// Inspector holds the selected agent and view toggle state.
type Inspector struct {
	selected *Agent
	rawView  bool // false = curated, true = recent log entries
}

// pickAgent returns the living agent nearest to world point w within
// radius, or nil.
func pickAgent(agents []*Agent, w Vec3, radius float64) *Agent {
	best := radius * radius
	var hit *Agent
	for _, a := range agents {
		dx := a.pos.X - w.X
		dz := a.pos.Z - w.Z
		if d2 := dx*dx + dz*dz; d2 < best {
			best = d2
			hit = a
		}
	}
	return hit
}

// handleInspectorClick selects the agent under the cursor, or clears the
// selection on a miss.
func (v *Viewer) handleInspectorClick(mx, my int) bool {
	w := v.screenToWorld(mx, my)
	// 12 screen pixels expressed in world units.
	hit := pickAgent(v.sim.Agents(), w, 12/v.scale)
	v.inspector.selected = hit
	return hit != nil
}

func (v *Viewer) drawInspector(screen *ebiten.Image) {
	a := v.inspector.selected
	if a == nil {
		return
	}
	buf := v.inspBuf
	buf.Clear()
	bw := float32(inspBufW)
	bh := float32(inspBufH)

	panelBorder := color.RGBA{R: 55, G: 80, B: 55, A: 255}
	vector.FillRect(buf, 0, 0, bw, bh, color.RGBA{R: 14, G: 16, B: 14, A: 230}, false)
	vector.StrokeRect(buf, 0, 0, bw, bh, 1.0, panelBorder, false)

	lx, ly := inspPad, inspPad
	ebitenutil.DebugPrintAt(buf, fmt.Sprintf("[ %s %s ]", a.behavior, a.label), lx, ly)
	ly += inspLineH + 2
	viewName := "CURATED"
	if v.inspector.rawView {
		viewName = "RAW"
	}
	ebitenutil.DebugPrintAt(buf, fmt.Sprintf("view: %s  [I] toggle", viewName), lx, ly)
	ly += inspLineH + 4
	vector.StrokeLine(buf, float32(lx), float32(ly), bw-float32(inspPad), float32(ly), 1.0, panelBorder, false)
	ly += 4

	if v.inspector.rawView {
		v.drawInspectorRaw(buf, a, lx, ly)
	} else {
		v.drawInspectorCurated(buf, a, lx, ly)
	}

	px := v.offX + v.arenaPx - inspBufW*inspScale - 8
	py := v.offY + v.arenaPx - inspBufH*inspScale - 8
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(inspScale, inspScale)
	opts.GeoM.Translate(float64(px), float64(py))
	screen.DrawImage(buf, opts)
}

func (v *Viewer) drawInspectorCurated(buf *ebiten.Image, a *Agent, lx, ly int) {
	line := func(format string, args ...any) {
		ebitenutil.DebugPrintAt(buf, fmt.Sprintf(format, args...), lx, ly)
		ly += inspLineH
	}

	line("life: %s", a.life)
	// HP bar.
	frac := 0.0
	if a.maxHP > 0 {
		frac = math.Max(0, float64(a.hp)/float64(a.maxHP))
	}
	ebitenutil.DebugPrintAt(buf, fmt.Sprintf("hp: %d/%d", a.hp, a.maxHP), lx, ly)
	barX := float32(lx + 80)
	vector.FillRect(buf, barX, float32(ly+4), 100, 6, color.RGBA{R: 40, G: 40, B: 40, A: 255}, false)
	vector.FillRect(buf, barX, float32(ly+4), float32(100*frac), 6, color.RGBA{R: 200, G: 60, B: 60, A: 255}, false)
	ly += inspLineH

	line("pos: (%.1f, %.1f)  yaw %.0f", a.pos.X, a.pos.Z, a.yaw*180/math.Pi)
	line("mode: %s", a.mode)
	line("path: %d cells", len(a.path))
	line("pending: %v  seq %d/%d", a.pending, a.appliedSeq, a.seq)
	line("unreachable: %v", a.unreachable)
	line("target dist: %.1f", a.pos.FlatDist(v.sim.Target().Position()))
	if a.behavior == BehaviorRanged && a.life == LifeAlive {
		line("gate: %s", v.sim.EvaluateFire(a))
	}
}

func (v *Viewer) drawInspectorRaw(buf *ebiten.Image, a *Agent, lx, ly int) {
	entries := v.sim.SimLog().FilterAgent(a.label)
	if len(entries) > inspRaw {
		entries = entries[len(entries)-inspRaw:]
	}
	if len(entries) == 0 {
		ebitenutil.DebugPrintAt(buf, "(no events)", lx, ly)
		return
	}
	for _, e := range entries {
		ebitenutil.DebugPrintAt(buf, fmt.Sprintf("%5d %s %s", e.Tick, e.Key, e.Value), lx, ly)
		ly += inspLineH
	}
}
