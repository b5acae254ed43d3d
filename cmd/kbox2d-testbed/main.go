package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ByteArena/kbox2d"
	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	clickHz         = 880
	clickDuration   = 30 * time.Millisecond
	viewHalfHeight  = 16.0
	viewCenterY     = 12.0
	mouseForceScale = 1000.0
)

type Testbed struct {
	screen        tcell.Screen
	width, height int

	settingsPath string
	scenePath    string
	settings     kbox2d.Settings

	world  *kbox2d.World
	scene  *kbox2d.Scene
	ground *kbox2d.Body
	mouse  *kbox2d.MouseJointImpl

	paused    bool
	stepCount int
	clicked   bool
	logger    *log.Logger

	// Audio
	sound     bool
	audioInit bool
}

func NewTestbed(settingsPath, scenePath string, sound bool, logger *log.Logger) (*Testbed, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}

	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse()

	tb := &Testbed{
		screen:       screen,
		settingsPath: settingsPath,
		scenePath:    scenePath,
		sound:        sound,
		logger:       logger,
	}
	tb.width, tb.height = screen.Size()

	if sound {
		if err := tb.initAudio(); err != nil {
			// Non-fatal, the testbed runs silent
			logger.Printf("Audio initialization failed: %v", err)
		}
	}

	if err := tb.load(); err != nil {
		screen.Fini()
		return nil, err
	}

	return tb, nil
}

func (tb *Testbed) initAudio() error {
	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	if err == nil {
		tb.audioInit = true
	}
	return err
}

func (tb *Testbed) playClick() {
	if !tb.audioInit {
		return
	}

	sampleRate := beep.SampleRate(44100)
	sine, err := generators.SineTone(sampleRate, clickHz)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(clickDuration), sine))
}

// load (re)reads the settings and scene files and rebuilds the world.
func (tb *Testbed) load() error {
	settings := kbox2d.DefaultSettings()
	if tb.settingsPath != "" {
		s, err := kbox2d.LoadSettings(tb.settingsPath)
		if err != nil {
			return err
		}
		settings = s
	}

	def := defaultScene()
	if tb.scenePath != "" {
		d, err := kbox2d.LoadScene(tb.scenePath)
		if err != nil {
			return err
		}
		def = d
	}

	world := kbox2d.NewWorldFromSettings(settings)
	world.SetLogger(tb.logger)
	world.SetContactListener(tb)

	scene, err := kbox2d.BuildScene(world, def)
	if err != nil {
		return err
	}

	groundDef := kbox2d.MakeBodyDef()
	tb.ground = world.CreateBody(&groundDef)

	tb.settings = settings
	tb.world = world
	tb.scene = scene
	tb.mouse = nil
	tb.stepCount = 0
	tb.logger.Printf("loaded scene %q: %d bodies, %d joints", def.Name, len(scene.Bodies), len(scene.Joints))
	return nil
}

func (tb *Testbed) BeginContact(contact *kbox2d.Contact) {
	if contact.FixtureA().IsSensor() || contact.FixtureB().IsSensor() {
		return
	}
	tb.clicked = true
}

func (tb *Testbed) EndContact(contact *kbox2d.Contact)                               {}
func (tb *Testbed) PreSolve(contact *kbox2d.Contact, oldManifold *kbox2d.Manifold)   {}
func (tb *Testbed) PostSolve(contact *kbox2d.Contact, impulse *kbox2d.ContactImpulse) {}

func (tb *Testbed) step() {
	tb.clicked = false
	tb.world.Step(tb.settings.TimeStep(), tb.settings.VelocityIterations, tb.settings.PositionIterations)
	tb.stepCount++

	// One click per step at most.
	if tb.clicked && tb.sound {
		tb.playClick()
	}
}

func (tb *Testbed) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}

		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			tb.paused = !tb.paused
		case 's':
			tb.paused = true
			tb.step()
		case 'c':
			tb.world.SetContinuousPhysics(!tb.world.ContinuousPhysics())
		case 'r':
			if err := tb.load(); err != nil {
				tb.logger.Printf("reload failed: %v", err)
			}
		}

	case *tcell.EventMouse:
		tb.handleMouse(ev)

	case *tcell.EventResize:
		tb.width, tb.height = tb.screen.Size()
		tb.screen.Sync()
	}

	return true
}

func (tb *Testbed) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	p := tb.toWorld(x, y)

	if ev.Buttons()&tcell.Button1 == 0 {
		if tb.mouse != nil {
			tb.world.DestroyJoint(tb.mouse)
			tb.mouse = nil
		}
		return
	}

	if tb.mouse != nil {
		tb.mouse.SetTarget(p)
		return
	}

	body := tb.bodyAt(p)
	if body == nil {
		return
	}

	md := kbox2d.MakeMouseJointDef()
	md.BodyA = tb.ground
	md.BodyB = body
	md.Target = p
	md.MaxForce = mouseForceScale * body.Mass()
	tb.mouse = tb.world.CreateJoint(&md).(*kbox2d.MouseJointImpl)
	body.SetAwake(true)
}

// bodyAt returns the first dynamic body with a fixture containing p.
func (tb *Testbed) bodyAt(p kbox2d.Vec2) *kbox2d.Body {
	d := kbox2d.MakeVec2(0.001, 0.001)
	aabb := kbox2d.MakeAABB(p.Sub(d), p.Add(d))

	var found *kbox2d.Body
	tb.world.QueryAABB(func(fixture *kbox2d.Fixture) bool {
		body := fixture.Body()
		if body.Type() != kbox2d.DynamicBody {
			return true
		}
		if fixture.TestPoint(p) {
			found = body
			return false
		}
		return true
	}, aabb)

	return found
}

func (tb *Testbed) run() {
	hz := tb.settings.Hz
	if hz <= 0 {
		hz = 60
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / hz))
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := tb.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !tb.handleInput(ev) {
				return
			}

		case <-ticker.C:
			if !tb.paused {
				tb.step()
			}
			tb.draw()
		}
	}
}

func (tb *Testbed) cleanup() {
	if tb.audioInit {
		speaker.Close()
	}
	tb.screen.Fini()
}

func main() {
	settingsPath := flag.String("settings", "", "world settings YAML file")
	scenePath := flag.String("scene", "", "scene YAML file (default: built-in pyramid)")
	logPath := flag.String("log", "kbox2d-testbed.log", "log file")
	sound := flag.Bool("sound", false, "click on contact begin")
	flag.Parse()

	logFile, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := log.New(logFile, "kbox2d: ", log.LstdFlags)

	tb, err := NewTestbed(*settingsPath, *scenePath, *sound, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer tb.cleanup()

	tb.run()
}
