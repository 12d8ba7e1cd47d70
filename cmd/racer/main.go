package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"topdown-racer/internal/config"
	"topdown-racer/internal/physics"
	"topdown-racer/internal/sim"
)

// Render window dimensions
const (
	WindowWidth  = 1200
	WindowHeight = 800
)

// Margin for fitting the track in the window (0.95 = 5% padding)
const ViewScaleMargin = 0.95

var (
	ColorWall       = color.RGBA{200, 200, 200, 255}
	ColorCenterline = color.RGBA{50, 155, 50, 60}
	ColorBreadcrumb = color.RGBA{100, 200, 255, 120}
	ColorNextCp     = color.RGBA{255, 255, 0, 255}
	ColorRay        = color.RGBA{255, 80, 80, 70}
	ColorCar        = color.RGBA{255, 0, 0, 255}
	ColorCarHeading = color.RGBA{255, 255, 0, 255}
	ColorTrail      = color.RGBA{40, 40, 40, 255}
)

type Game struct {
	Env      *sim.Env
	LastRes  sim.StepResult
	ShowRays bool

	// Rendering scale
	ViewScale   float32
	ViewOffsetX float32
	ViewOffsetY float32
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.ShowRays = !g.ShowRays
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Env.Reset()
		g.LastRes = sim.StepResult{}
		return nil
	}

	var a sim.Action
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		a.Throttle = 1
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyDown) {
		a.Throttle = -1
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyLeft) {
		a.Steering = -1
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyRight) {
		a.Steering = 1
	}
	if ebiten.IsKeyPressed(ebiten.KeySpace) {
		a.Drift = 1
	}

	g.LastRes = g.Env.Step(a)
	if g.LastRes.Terminated || g.LastRes.Truncated {
		g.Env.Reset()
	}
	return nil
}

func (g *Game) toScreen(x, y float64) (float32, float32) {
	return float32(x)*g.ViewScale + g.ViewOffsetX, float32(y)*g.ViewScale + g.ViewOffsetY
}

func (g *Game) Draw(screen *ebiten.Image) {
	car := g.Env.Car()
	trk := g.Env.Track()
	cfg := g.Env.Config()

	// Walls
	for _, wall := range trk.WallSegments() {
		x1, y1 := g.toScreen(wall.A.X, wall.A.Y)
		x2, y2 := g.toScreen(wall.B.X, wall.B.Y)
		vector.StrokeLine(screen, x1, y1, x2, y2, 2, ColorWall, true)
	}

	// Centerline (debug)
	center := trk.Centerline()
	for i := range center {
		a := center[i]
		b := center[(i+1)%len(center)]
		x1, y1 := g.toScreen(a.X, a.Y)
		x2, y2 := g.toScreen(b.X, b.Y)
		vector.StrokeLine(screen, x1, y1, x2, y2, 1, ColorCenterline, true)
	}

	// Breadcrumb checkpoints; the cursor's target gets highlighted.
	tracker := g.Env.Tracker()
	for i, cp := range tracker.Checkpoints() {
		x, y := g.toScreen(cp.Pos.X, cp.Pos.Y)
		col := ColorBreadcrumb
		r := float32(3)
		if i == tracker.Cursor() {
			col = ColorNextCp
			r = 5
		}
		vector.FillCircle(screen, x, y, r, col, true)
	}

	// Drift trails
	for _, p := range car.TrailPoints {
		x, y := g.toScreen(p.Pos.X, p.Pos.Y)
		col := ColorTrail
		col.A = uint8(p.Opacity * 200)
		vector.FillCircle(screen, x, y, 2, col, true)
	}

	// Sensor rays, lengths taken from the last observation.
	if g.ShowRays && g.LastRes.Observation != nil {
		cx, cy := g.toScreen(car.Position.X, car.Position.Y)
		for i, deg := range physics.RayAnglesDeg {
			angle := car.Heading + deg*math.Pi/180
			dist := g.LastRes.Observation[i] * cfg.AI.RayMaxDistance
			tx, ty := g.toScreen(
				car.Position.X+math.Cos(angle)*dist,
				car.Position.Y+math.Sin(angle)*dist,
			)
			vector.StrokeLine(screen, cx, cy, tx, ty, 1, ColorRay, true)
		}
	}

	// Car body as a rotated rectangle.
	corners := car.Corners()
	var path vector.Path
	for i, c := range corners {
		sx, sy := g.toScreen(c.X, c.Y)
		if i == 0 {
			path.MoveTo(sx, sy)
		} else {
			path.LineTo(sx, sy)
		}
	}
	path.Close()

	var cs ebiten.ColorScale
	cs.ScaleWithColor(ColorCar)
	vector.FillPath(screen, &path, nil, &vector.DrawPathOptions{
		AntiAlias:  true,
		ColorScale: cs,
	})

	// Heading line, slightly longer than the car.
	headX, headY := g.toScreen(car.Position.X, car.Position.Y)
	tipX, tipY := g.toScreen(
		car.Position.X+math.Cos(car.Heading)*(cfg.Car.Length/2+5),
		car.Position.Y+math.Sin(car.Heading)*(cfg.Car.Length/2+5),
	)
	vector.StrokeLine(screen, headX, headY, tipX, tipY, 2, ColorCarHeading, true)

	// HUD
	vector.FillRect(screen, 0, 0, 170, 150, color.RGBA{0, 0, 0, 180}, true)

	info := g.LastRes.Info
	msg := "STATUS MONITOR\n"
	msg += "----------------\n"
	msg += fmt.Sprintf("Speed:  %.0f\n", car.Speed)
	msg += fmt.Sprintf("Health: %.0f\n", car.Health)
	msg += fmt.Sprintf("Laps:   %d\n", info.LapsCompleted)
	msg += fmt.Sprintf("Hits:   %d\n", info.WallHits)
	msg += fmt.Sprintf("Reward: %+.3f\n", g.LastRes.Reward)
	if len(info.LapTimes) > 0 {
		msg += fmt.Sprintf("Last lap: %.2fs\n", info.LapTimes[len(info.LapTimes)-1])
	}
	if car.IsDrifting {
		msg += "[DRIFT]\n"
	}
	msg += "\nWASD drive, Space drift\nR reset, Tab rays"
	ebitenutil.DebugPrint(screen, msg)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return WindowWidth, WindowHeight
}

// fitView computes the scale and offset that fit the track walls in the
// window.
func (g *Game) fitView() {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, wall := range g.Env.Track().WallSegments() {
		for _, p := range [2]struct{ X, Y float64 }{{wall.A.X, wall.A.Y}, {wall.B.X, wall.B.Y}} {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
	}

	worldW := maxX - minX
	worldH := maxY - minY
	scale := math.Min(WindowWidth/worldW, WindowHeight/worldH) * ViewScaleMargin

	g.ViewScale = float32(scale)
	g.ViewOffsetX = float32((WindowWidth-worldW*scale)/2 - minX*scale)
	g.ViewOffsetY = float32((WindowHeight-worldH*scale)/2 - minY*scale)
}

func main() {
	configPath := flag.String("config", "", "config JSON path (default: built-in config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}

	env, err := sim.NewEnv(cfg)
	if err != nil {
		log.Fatal(err)
	}
	env.Reset()

	game := &Game{Env: env, ShowRays: true}
	game.fitView()

	ebiten.SetWindowSize(WindowWidth, WindowHeight)
	ebiten.SetWindowTitle("Top-Down Racer")
	ebiten.SetTPS(cfg.FPS)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
