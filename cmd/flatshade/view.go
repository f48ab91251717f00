package main

import (
	"context"
	"fmt"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/spf13/cobra"

	"github.com/taigrr/flatshade/pkg/math3d"
	"github.com/taigrr/flatshade/pkg/render"
	"github.com/taigrr/flatshade/pkg/scene"
)

type viewFlags struct {
	fps     int
	bg      *colorValue
	workers int
}

func newViewCmd(a *app) *cobra.Command {
	f := &viewFlags{bg: newColorValue(scene.RGB(30, 30, 40))}
	var sf *sceneFlags

	cmd := &cobra.Command{
		Use:   "view <scene>",
		Short: "View a scene interactively in the terminal",
		Long: "Controls:\n" +
			"  Mouse drag  - Rotate\n" +
			"  Scroll, +/- - Zoom\n" +
			"  W/S/A/D     - Pitch and yaw\n" +
			"  Space       - Random spin\n" +
			"  R           - Reset view\n" +
			"  F           - Toggle fit to screen\n" +
			"  X           - Toggle polygon outlines\n" +
			"  ?           - Toggle HUD\n" +
			"  Esc, Q      - Quit",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := sf.load(args[0])
			if err != nil {
				return err
			}
			if err := sc.Validate(); err != nil {
				return err
			}
			a.logger.Debug("scene loaded", "path", args[0], "polygons", sc.Len())
			return a.runView(cmd.Context(), filepath.Base(args[0]), sc, f)
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&f.fps, "fps", 60, "Target FPS")
	fs.Var(f.bg, "bg", "Background color (r,g,b or hex)")
	fs.IntVar(&f.workers, "workers", 2, "Goroutines used per frame")

	sf = addSceneFlags(cmd)
	return cmd
}

// RotationAxis tracks position and velocity for one rotation axis with spring decay
type RotationAxis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64 // internal spring velocity (for animating Velocity toward 0)
}

// NewRotationAxis creates an axis whose velocity decays through a critically
// damped spring.
func NewRotationAxis(fps int) RotationAxis {
	return RotationAxis{
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies velocity to position and eases velocity toward 0.
func (a *RotationAxis) Update() {
	a.Position += a.Velocity
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

// RotationState holds the pitch (X) and yaw (Y) of the viewer.
type RotationState struct {
	Pitch, Yaw RotationAxis
	fps        int
}

func NewRotationState(fps int) *RotationState {
	return &RotationState{
		Pitch: NewRotationAxis(fps),
		Yaw:   NewRotationAxis(fps),
		fps:   fps,
	}
}

func (r *RotationState) Update() {
	r.Pitch.Update()
	r.Yaw.Update()
}

func (r *RotationState) ApplyImpulse(pitch, yaw float64) {
	r.Pitch.Velocity += pitch
	r.Yaw.Velocity += yaw
}

func (r *RotationState) Reset() {
	r.Pitch = NewRotationAxis(r.fps)
	r.Yaw = NewRotationAxis(r.fps)
}

// viewer is the state of one interactive session. All fields are owned by
// the frame loop.
type viewer struct {
	name     string
	scene    scene.Scene
	pipeline *render.Pipeline
	outlined *render.Pipeline
	fb       *render.Framebuffer

	rotation *RotationState
	zoom     float64
	fit      bool
	outline  bool
	showHUD  bool

	// radius bounds the centered scene in every orientation. At zoom 1 it
	// spans half the smaller viewport edge.
	radius float64

	cols, rows int

	hudStats render.Stats
	fps      float64
	frames   int
	fpsTime  time.Time
}

const (
	minZoom = 0.1
	maxZoom = 20
)

func newViewer(name string, sc scene.Scene, f *viewFlags, a *app) *viewer {
	v := &viewer{
		name:     name,
		rotation: NewRotationState(f.fps),
		zoom:     1,
		fb:       &render.Framebuffer{},
		fpsTime:  time.Now(),
		pipeline: render.NewPipeline(
			render.WithWorkers(f.workers),
			render.WithBackground(f.bg.c),
			render.WithLogger(a.logger),
		),
		outlined: render.NewPipeline(
			render.WithWorkers(f.workers),
			render.WithBackground(f.bg.c),
			render.WithOutline(scene.ColorWhite),
			render.WithLogger(a.logger),
		),
	}

	// Orbit around the center of the scene so rotation keeps it in view.
	v.scene = sc
	if b, ok := scene.BoundsOf(sc); ok {
		c := b.Center()
		v.scene = sc.Translate(-c.X, -c.Y, -c.Z)
		v.radius = b.Max.Distance(b.Min) / 2
	}
	return v
}

// view returns the viewing parameters of the current frame.
func (v *viewer) view() render.View {
	w, h := render.TerminalSize(v.cols, v.rows)
	rv := render.View{
		XRot:    v.rotation.Pitch.Position,
		YRot:    v.rotation.Yaw.Position,
		Width:   w,
		Height:  h,
		AutoFit: v.fit,
	}
	if !v.fit {
		scale := v.zoom
		if v.radius > 0 {
			scale *= float64(min(w, h)) / 2 / v.radius
		}
		rv.Scale = scale
		rv.Translate = math3d.V3(float64(w)/2, float64(h)/2, 0)
	}
	return rv
}

func (v *viewer) frame() error {
	p := v.pipeline
	if v.outline {
		p = v.outlined
	}
	stats, err := p.RenderInto(v.fb, v.scene, v.view())
	if err != nil {
		return err
	}
	v.hudStats = stats

	v.frames++
	if elapsed := time.Since(v.fpsTime); elapsed >= time.Second {
		v.fps = float64(v.frames) / elapsed.Seconds()
		v.frames = 0
		v.fpsTime = time.Now()
	}
	return nil
}

func (v *viewer) setZoom(z float64) {
	v.zoom = max(minZoom, min(maxZoom, z))
}

func (a *app) runView(ctx context.Context, name string, sc scene.Scene, f *viewFlags) error {
	if f.fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", f.fps)
	}

	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}

	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Enable mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Enable any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // Enable SGR extended mouse mode

	defer func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}()

	v := newViewer(name, sc, f, a)
	v.cols, v.rows = width, height

	// Input state
	inputTorque := struct{ pitch, yaw float64 }{}
	const torqueStrength = 3.0

	// Mouse state
	var mouseDown bool
	var lastMouseX, lastMouseY int

	ticker := time.NewTicker(time.Second / time.Duration(f.fps))
	defer ticker.Stop()
	lastFrame := time.Now()

	events := term.Events()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				v.cols, v.rows = ev.Width, ev.Height
				term.Erase()
				term.Resize(v.cols, v.rows)

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape", "q", "ctrl+c"):
					return nil
				case ev.MatchString("r"):
					v.rotation.Reset()
					v.zoom = 1
				case ev.MatchString("w", "up"):
					inputTorque.pitch = -torqueStrength
				case ev.MatchString("s", "down"):
					inputTorque.pitch = torqueStrength
				case ev.MatchString("a", "left"):
					inputTorque.yaw = torqueStrength
				case ev.MatchString("d", "right"):
					inputTorque.yaw = -torqueStrength
				case ev.MatchString("space"):
					v.rotation.ApplyImpulse(
						(rand.Float64()-0.5)*1.5,
						(rand.Float64()-0.5)*1.5,
					)
				case ev.MatchString("+", "="):
					v.setZoom(v.zoom * 1.1)
				case ev.MatchString("-", "_"):
					v.setZoom(v.zoom / 1.1)
				case ev.MatchString("f"):
					v.fit = !v.fit
				case ev.MatchString("x"):
					v.outline = !v.outline
				case ev.MatchString("?"), ev.MatchString("shift+/"):
					v.showHUD = !v.showHUD
				}

			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w"), ev.MatchString("up"), ev.MatchString("s"), ev.MatchString("down"):
					inputTorque.pitch = 0
				case ev.MatchString("a"), ev.MatchString("left"), ev.MatchString("d"), ev.MatchString("right"):
					inputTorque.yaw = 0
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastMouseX, lastMouseY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					dx := ev.X - lastMouseX
					dy := ev.Y - lastMouseY
					v.rotation.ApplyImpulse(float64(-dy)*0.03, float64(-dx)*0.03)
					lastMouseX, lastMouseY = ev.X, ev.Y
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					v.setZoom(v.zoom * 1.1)
				case uv.MouseWheelDown:
					v.setZoom(v.zoom / 1.1)
				}
			}

		case now := <-ticker.C:
			dt := min(now.Sub(lastFrame).Seconds(), 0.1)
			lastFrame = now

			// Apply input torque and decay it (key release events unreliable)
			v.rotation.ApplyImpulse(inputTorque.pitch*dt, inputTorque.yaw*dt)
			inputTorque.pitch *= 0.9
			inputTorque.yaw *= 0.9
			v.rotation.Update()

			if v.cols <= 0 || v.rows <= 0 {
				continue
			}
			if err := v.frame(); err != nil {
				return err
			}
			term.Draw(v.fb)
			if v.showHUD {
				v.drawHUD(term)
			}
			if err := term.Display(); err != nil {
				return fmt.Errorf("display: %w", err)
			}
		}
	}
}

var (
	hudBg    = color.RGBA{0, 0, 0, 255}
	hudWhite = color.RGBA{255, 255, 255, 255}
	hudGreen = color.RGBA{80, 250, 120, 255}
	hudCyan  = color.RGBA{80, 220, 250, 255}
	hudDim   = color.RGBA{150, 150, 150, 255}
)

// drawHUD overlays frame statistics on the top and bottom terminal rows.
func (v *viewer) drawHUD(scr uv.Screen) {
	drawText(scr, 0, 0, fmt.Sprintf(" %.0f FPS ", v.fps), hudGreen)

	title := " " + v.name + " "
	drawText(scr, max((v.cols-len(title))/2, 0), 0, title, hudWhite)

	polys := fmt.Sprintf(" %d/%d polys ", v.hudStats.Drawn, v.hudStats.Polygons)
	drawText(scr, max(v.cols-len(polys), 0), 0, polys, hudCyan)

	mode := "orbit"
	if v.fit {
		mode = "fit"
	}
	status := fmt.Sprintf(" %s  zoom %.2f  culled %d  %v ", mode, v.zoom, v.hudStats.Culled,
		v.hudStats.Elapsed.Round(time.Microsecond))
	drawText(scr, 0, v.rows-1, status, hudDim)
}

func drawText(scr uv.Screen, x, y int, s string, fg color.Color) {
	for _, r := range s {
		scr.SetCell(x, y, &uv.Cell{
			Content: string(r),
			Width:   1,
			Style:   uv.Style{Fg: fg, Bg: hudBg},
		})
		x++
	}
}
