package game

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/Garsondee/Arena-Sense/internal/nav"
)

// borderWidth is the pixel gap between the window edge and the arena.
const borderWidth = 24

// arenaPixels is the on-screen size of the square arena.
const arenaPixels = 720

const (
	hudLineHeight = 14
	statusTicks   = 180
	reportTicks   = 600 // ticks covered by a copied agent report
)

var simSpeeds = []float64{0, 0.5, 1, 2, 4}

// ViewerOptions configures a Viewer.
type ViewerOptions struct {
	// Population is kept topped up with random spawns. Zero spawns nothing.
	Population int
	// Autopilot starts with the player under autopilot control.
	Autopilot bool
	// Route for the autopilot; nil uses DefaultRoute.
	Route []Vec3
	// Watcher, when set, feeds hot-reloaded tuning into the simulation.
	Watcher *ConfigWatcher
	Logger  *log.Logger
}

// Viewer is the ebiten front end: a top-down view of the arena with the
// event log on the right. The player is driven either by the autopilot or
// from the keyboard.
type Viewer struct {
	sim       *Simulation
	autopilot *Autopilot
	autoOn    bool
	watcher   *ConfigWatcher
	reporter  *SimReporter
	events    *EventLog
	log       *log.Logger

	population int
	dt         float64

	width, height int
	offX, offY    int
	arenaPx       int
	scale         float64 // pixels per world unit

	face      text.Face
	inspBuf   *ebiten.Image
	inspector Inspector

	showHUD   bool
	showPaths bool
	showGrid  bool
	prevKeys  map[ebiten.Key]bool
	prevMouse bool

	// Simulation speed control.
	simSpeed  float64 // multiplier: 0=paused, 0.5, 1, 2, 4
	tickAccum float64 // fractional tick accumulator for sub-1x speeds

	lastManualShot float64
	status         string
	statusUntil    int
}

// NewViewer wraps a built simulation whose target is a *Player.
func NewViewer(sim *Simulation, opts ViewerOptions) (*Viewer, error) {
	route := opts.Route
	if route == nil {
		route = DefaultRoute()
	}
	ap, err := NewAutopilot(sim, route)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	v := &Viewer{
		sim:            sim,
		autopilot:      ap,
		autoOn:         opts.Autopilot,
		watcher:        opts.Watcher,
		reporter:       NewSimReporter(reportWindowTicks, false),
		events:         NewEventLog(),
		log:            logger,
		population:     opts.Population,
		dt:             1.0 / 60,
		width:          borderWidth + arenaPixels + borderWidth + logPanelWidth,
		height:         borderWidth + arenaPixels + borderWidth,
		offX:           borderWidth,
		offY:           borderWidth,
		arenaPx:        arenaPixels,
		scale:          arenaPixels / (2 * sim.Config().Arena.Bound),
		showHUD:        true,
		prevKeys:       make(map[ebiten.Key]bool),
		simSpeed:       1,
		lastManualShot: math.Inf(-1),
	}
	v.replenish()
	return v, nil
}

// Size is the window size the viewer lays itself out for.
func (v *Viewer) Size() (int, int) { return v.width, v.height }

func (v *Viewer) Layout(_, _ int) (int, int) {
	return v.width, v.height
}

func (v *Viewer) Update() error {
	// Input every frame regardless of sim speed.
	v.handleInput()
	v.pollWatcher()

	if v.simSpeed <= 0 || v.sim.Player().Dead() {
		return nil
	}
	v.tickAccum += v.simSpeed
	for v.tickAccum >= 1.0 {
		v.tickAccum -= 1.0
		v.simTick()
	}
	return nil
}

func (v *Viewer) simTick() {
	if v.autoOn {
		v.autopilot.Step(v.dt)
	} else {
		v.stepManual(v.dt)
	}
	v.sim.Tick(v.dt)
	v.replenish()
	v.events.Sync(v.sim.SimLog())

	if v.sim.TickCount()%60 == 0 {
		v.reporter.Collect(v.sim)
	}
	if v.sim.Player().Dead() {
		v.setStatus("player down: R to restart")
		v.log.Info("player down", "elapsed", v.sim.Elapsed(), "kills", v.sim.Stats().Kills)
	}
}

func (v *Viewer) replenish() {
	for v.population > 0 && len(v.sim.Agents()) < v.population {
		v.sim.SpawnRandom()
	}
}

// stepManual moves the player with WASD, aims at the cursor and fires on
// Space.
func (v *Viewer) stepManual(dt float64) {
	p := v.sim.Player()
	pos := p.Position()
	mx, my := ebiten.CursorPosition()
	yaw := YawTo(pos, v.screenToWorld(mx, my))

	var move Vec3
	if ebiten.IsKeyPressed(ebiten.KeyW) {
		move.Z++
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) {
		move.Z--
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		move.X--
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		move.X++
	}
	np := pos
	if move.LenSq() > 0 {
		np = pos.Add(move.Norm().Scale(v.sim.Config().Player.MoveSpeed * dt))
	}
	if !v.sim.MovePlayer(np, yaw) {
		v.sim.MovePlayer(pos, yaw)
	}

	if ebiten.IsKeyPressed(ebiten.KeySpace) {
		now := v.sim.Elapsed()
		if now-v.lastManualShot > v.sim.Config().Combat.AutoFireInterval {
			v.sim.FirePlayerShot(p.Position(), p.Forward())
			v.lastManualShot = now
		}
	}
}

func (v *Viewer) pollWatcher() {
	if v.watcher == nil {
		return
	}
	for {
		select {
		case cfg, ok := <-v.watcher.Configs:
			if !ok {
				v.watcher = nil
				return
			}
			if err := v.sim.ApplyTuning(cfg); err != nil {
				v.log.Warn("config reload rejected", "err", err)
				v.setStatus("config rejected")
				continue
			}
			v.setStatus("config reloaded")
		case err, ok := <-v.watcher.Errors:
			if !ok {
				v.watcher = nil
				return
			}
			v.log.Warn("config reload failed", "err", err)
			v.setStatus("config reload failed")
		default:
			return
		}
	}
}

func (v *Viewer) setStatus(msg string) {
	v.status = msg
	v.statusUntil = v.sim.TickCount() + statusTicks
}

// pressed reports a key that went down this frame and records it in cur.
func (v *Viewer) pressed(cur map[ebiten.Key]bool, k ebiten.Key) bool {
	cur[k] = ebiten.IsKeyPressed(k)
	return cur[k] && !v.prevKeys[k]
}

// handleInput processes toggles and commands (edge-triggered).
func (v *Viewer) handleInput() {
	cur := map[ebiten.Key]bool{}

	if v.pressed(cur, ebiten.KeyH) {
		v.showHUD = !v.showHUD
	}
	if v.pressed(cur, ebiten.KeyG) {
		v.showGrid = !v.showGrid
	}
	if v.pressed(cur, ebiten.KeyV) {
		v.showPaths = !v.showPaths
	}
	if v.pressed(cur, ebiten.KeyI) {
		v.inspector.rawView = !v.inspector.rawView
	}
	if v.pressed(cur, ebiten.KeyT) {
		v.autoOn = !v.autoOn
		if v.autoOn {
			v.setStatus("autopilot on")
		} else {
			v.setStatus("manual control")
		}
	}
	if v.pressed(cur, ebiten.KeyB) {
		a := v.sim.SpawnRandom()
		v.setStatus("spawned " + a.Label())
	}
	if v.pressed(cur, ebiten.KeyR) {
		v.restart()
	}
	if v.pressed(cur, ebiten.KeyC) {
		v.copyReport()
	}
	if v.pressed(cur, ebiten.KeyEscape) {
		v.inspector.selected = nil
	}

	// Sim speed controls: P=pause/resume, ,=slower, .=faster.
	if v.pressed(cur, ebiten.KeyP) {
		if v.simSpeed > 0 {
			v.simSpeed = 0
		} else {
			v.simSpeed = 1
		}
	}
	if v.pressed(cur, ebiten.KeyComma) {
		v.simSpeed = stepSpeed(v.simSpeed, -1)
	}
	if v.pressed(cur, ebiten.KeyPeriod) {
		v.simSpeed = stepSpeed(v.simSpeed, +1)
	}

	// Left click: select an agent.
	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if down && !v.prevMouse {
		mx, my := ebiten.CursorPosition()
		v.handleInspectorClick(mx, my)
	}
	v.prevMouse = down

	v.prevKeys = cur
}

// stepSpeed moves one notch through simSpeeds in direction dir.
func stepSpeed(cur float64, dir int) float64 {
	idx := 0
	for i, s := range simSpeeds {
		if s <= cur {
			idx = i
		}
	}
	idx += dir
	if idx < 0 {
		idx = 0
	}
	if idx >= len(simSpeeds) {
		idx = len(simSpeeds) - 1
	}
	return simSpeeds[idx]
}

// restart clears the arena and restores the player.
func (v *Viewer) restart() {
	for _, a := range append([]*Agent(nil), v.sim.Agents()...) {
		v.sim.Remove(a.ID())
	}
	v.sim.Player().Reset()
	v.inspector.selected = nil
	v.replenish()
	v.setStatus("restarted")
	v.log.Info("arena restarted", "tick", v.sim.TickCount())
}

// copyReport puts the selected agent's report, or the arena window
// summary, on the clipboard.
func (v *Viewer) copyReport() {
	report := v.reporter.WindowSummary().Format()
	if a := v.inspector.selected; a != nil {
		report = AgentDebugReport(v.sim, a, reportTicks)
	}
	if err := clipboard.WriteAll(report); err != nil {
		v.log.Warn("clipboard write failed", "err", err)
		v.setStatus("copy failed")
		return
	}
	v.setStatus("report copied")
}

// worldToScreen maps arena X/Z to window pixels with +Z up.
func (v *Viewer) worldToScreen(p Vec3) (float32, float32) {
	b := v.sim.Config().Arena.Bound
	x := float64(v.offX) + (p.X+b)*v.scale
	y := float64(v.offY) + (b-p.Z)*v.scale
	return float32(x), float32(y)
}

func (v *Viewer) screenToWorld(x, y int) Vec3 {
	b := v.sim.Config().Arena.Bound
	return Vec3{
		X: (float64(x)-float64(v.offX))/v.scale - b,
		Z: b - (float64(y)-float64(v.offY))/v.scale,
	}
}

func (v *Viewer) Draw(screen *ebiten.Image) {
	if v.inspBuf == nil {
		v.inspBuf = ebiten.NewImage(inspBufW, inspBufH)
		v.face = text.NewGoXFace(basicfont.Face7x13)
	}
	screen.Fill(color.RGBA{R: 12, G: 14, B: 12, A: 255})

	ox, oy := float32(v.offX), float32(v.offY)
	size := float32(v.arenaPx)
	vector.FillRect(screen, ox, oy, size, size, color.RGBA{R: 34, G: 40, B: 36, A: 255}, false)
	if v.showGrid {
		v.drawBlockedCells(screen)
	}
	v.drawWalls(screen)
	if v.showPaths {
		v.drawPaths(screen)
	}
	v.drawProjectiles(screen)
	v.drawAgents(screen)
	v.drawPlayer(screen)

	// Arena frame.
	vector.StrokeRect(screen, ox-1, oy-1, size+2, size+2, 2.0, color.RGBA{R: 65, G: 90, B: 65, A: 255}, false)

	v.events.Draw(screen, v.offX+v.arenaPx+v.offX, v.height)
	if v.showHUD {
		v.drawHUD(screen)
	}
	v.drawInspector(screen)
	if v.status != "" && v.sim.TickCount() < v.statusUntil {
		v.drawText(screen, v.status, float64(v.offX+8), float64(v.offY+v.arenaPx-22), color.RGBA{R: 240, G: 220, B: 120, A: 255})
	}
}

func (v *Viewer) drawBlockedCells(screen *ebiten.Image) {
	gr := v.sim.Grid()
	cs := gr.CellSize()
	px := float32(cs * v.scale)
	col := color.RGBA{R: 120, G: 40, B: 40, A: 90}
	for y := 0; y < gr.Size(); y++ {
		for x := 0; x < gr.Size(); x++ {
			c := nav.Cell{X: x, Y: y}
			if gr.Walkable(c) {
				continue
			}
			cx, cz := gr.CellCenter(c)
			sx, sy := v.worldToScreen(Vec3{X: cx - cs/2, Z: cz + cs/2})
			vector.FillRect(screen, sx, sy, px, px, col, false)
		}
	}
}

func (v *Viewer) drawWalls(screen *ebiten.Image) {
	for _, w := range v.sim.Walls() {
		b := w.Box()
		x0, y0 := v.worldToScreen(Vec3{X: b.Min.X, Z: b.Max.Z})
		x1, y1 := v.worldToScreen(Vec3{X: b.Max.X, Z: b.Min.Z})
		vector.FillRect(screen, x0, y0, x1-x0, y1-y0, color.RGBA{R: 120, G: 118, B: 110, A: 255}, false)
		vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 1, color.RGBA{R: 160, G: 158, B: 150, A: 255}, false)
	}
}

func (v *Viewer) drawPaths(screen *ebiten.Image) {
	gr := v.sim.Grid()
	for _, a := range v.sim.Agents() {
		if a.mode != ModePath || len(a.path) < 2 {
			continue
		}
		col := behaviorColor(a.behavior.String())
		col.A = 120
		px, pz := gr.CellCenter(a.path[0])
		for _, c := range a.path[1:] {
			cx, cz := gr.CellCenter(c)
			x0, y0 := v.worldToScreen(Vec3{X: px, Z: pz})
			x1, y1 := v.worldToScreen(Vec3{X: cx, Z: cz})
			vector.StrokeLine(screen, x0, y0, x1, y1, 1, col, false)
			px, pz = cx, cz
		}
	}
}

func (v *Viewer) drawProjectiles(screen *ebiten.Image) {
	for _, p := range v.sim.Projectiles() {
		col := color.RGBA{R: 255, G: 170, B: 60, A: 255}
		if p.Owner == OwnerTarget {
			col = color.RGBA{R: 120, G: 230, B: 255, A: 255}
		}
		x, y := v.worldToScreen(p.Pos)
		vector.FillCircle(screen, x, y, 2, col, true)
	}
}

func (v *Viewer) drawAgents(screen *ebiten.Image) {
	half := float32(v.sim.Config().Agents.HalfWidth * v.scale)
	for _, a := range v.sim.Dying() {
		x, y := v.worldToScreen(a.pos)
		// Shrink as the body falls.
		r := half * float32(math.Max(0.2, math.Min(1, a.pos.Y/2+0.5)))
		vector.FillCircle(screen, x, y, r, color.RGBA{R: 90, G: 90, B: 90, A: 200}, true)
	}
	for _, a := range v.sim.Agents() {
		x, y := v.worldToScreen(a.pos)
		col := behaviorColor(a.behavior.String())
		vector.FillCircle(screen, x, y, half, col, true)
		tip := a.pos.Add(a.Forward().Scale(a.half.X * 2))
		tx, ty := v.worldToScreen(tip)
		vector.StrokeLine(screen, x, y, tx, ty, 2, color.RGBA{R: 240, G: 240, B: 240, A: 220}, true)
		if a.unreachable {
			vector.StrokeCircle(screen, x, y, half+3, 1, color.RGBA{R: 255, G: 60, B: 200, A: 200}, true)
		}
		if a == v.inspector.selected {
			vector.StrokeCircle(screen, x, y, half+5, 2, color.RGBA{R: 255, G: 255, B: 120, A: 255}, true)
		}
	}
}

func (v *Viewer) drawPlayer(screen *ebiten.Image) {
	p := v.sim.Player()
	pos := p.Position()
	x, y := v.worldToScreen(pos)
	r := float32(v.sim.Config().Player.Width / 2 * v.scale)
	vector.FillCircle(screen, x, y, r+2, color.RGBA{R: 80, G: 220, B: 120, A: 255}, true)

	// Auto-fire cone edges.
	cc := v.sim.Config().Combat
	for _, side := range []float64{-1, 1} {
		edge := pos.Add(ForwardFromYaw(p.Yaw() + side*deg(cc.AutoFireConeDeg)).Scale(cc.AutoFireRange))
		ex, ey := v.worldToScreen(edge)
		vector.StrokeLine(screen, x, y, ex, ey, 1, color.RGBA{R: 80, G: 220, B: 120, A: 70}, true)
	}
}

func (v *Viewer) drawText(dst *ebiten.Image, s string, x, y float64, c color.Color) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(c)
	op.LineSpacing = hudLineHeight
	text.Draw(dst, s, v.face, op)
}

func (v *Viewer) drawHUD(screen *ebiten.Image) {
	speedStr := fmt.Sprintf("%.1fx", v.simSpeed)
	switch v.simSpeed {
	case 0:
		speedStr = "PAUSED"
	case 1, 2, 4:
		speedStr = fmt.Sprintf("%.0fx", v.simSpeed)
	}
	control := "manual (WASD, mouse aim, Space fire)"
	if v.autoOn {
		control = "autopilot"
	}
	p := v.sim.Player()
	st := v.sim.Stats()
	melee, ranged := 0, 0
	for _, a := range v.sim.Agents() {
		if a.behavior == BehaviorMelee {
			melee++
		} else {
			ranged++
		}
	}
	hud := fmt.Sprintf(
		"T=%.1fs  difficulty %.1f  SIM %s\n"+
			"health %d/%d  kills %d\n"+
			"agents: melee %d  ranged %d  dying %d\n"+
			"paths: req %d  stale %d  push %d\n"+
			"control: %s\n"+
			"[T]auto [B]spawn [R]restart [C]copy\n"+
			"[G]grid [V]paths [H]hud P ,/. speed",
		v.sim.Elapsed(), v.sim.Difficulty(), speedStr,
		p.Health(), p.MaxHealth(), st.Kills,
		melee, ranged, len(v.sim.Dying()),
		st.PathRequests, st.StaleResults, st.PushOuts,
		control,
	)
	const boxW, boxH = 300, 7*hudLineHeight + 10
	bx, by := float32(v.offX+6), float32(v.offY+6)
	vector.FillRect(screen, bx, by, boxW, boxH, color.RGBA{R: 6, G: 10, B: 6, A: 200}, false)
	vector.StrokeRect(screen, bx, by, boxW, boxH, 1, color.RGBA{R: 60, G: 100, B: 60, A: 180}, false)
	v.drawText(screen, hud, float64(bx)+6, float64(by)+4, color.RGBA{R: 210, G: 230, B: 210, A: 255})

	if v.sim.Player().Dead() {
		ebitenutil.DebugPrintAt(screen, "YOU DIED - press R", v.offX+v.arenaPx/2-54, v.offY+v.arenaPx/2)
	}
}
