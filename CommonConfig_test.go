package kbox2d_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ByteArena/kbox2d"
	"github.com/davecgh/go-spew/spew"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSettingsMissingFile(t *testing.T) {
	settings, err := kbox2d.LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if settings != kbox2d.DefaultSettings() {
		t.Fatalf("missing file did not give defaults:\n%s", spew.Sdump(settings))
	}
}

func TestSaveLoadSettings(t *testing.T) {
	want := kbox2d.DefaultSettings()
	want.Gravity = v(0.5, -3.0)
	want.Hz = 120.0
	want.VelocityIterations = 10
	want.SubStepping = true
	want.AllowSleep = false
	want.PoolCapacity = 64

	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	if err := kbox2d.SaveSettings(path, want); err != nil {
		t.Fatal(err)
	}

	got, err := kbox2d.LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("round trip:\n%s\nwant:\n%s", spew.Sdump(got), spew.Sdump(want))
	}
}

func TestLoadSettingsPartialFile(t *testing.T) {
	path := writeFile(t, "partial.yaml", "hz: 30\nvelocity_iterations: 4\ngravity: {y: -5}\n")

	got, err := kbox2d.LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}

	want := kbox2d.DefaultSettings()
	want.Hz = 30.0
	want.VelocityIterations = 4
	want.Gravity = v(0, -5)
	if got != want {
		t.Fatalf("partial file:\n%s\nwant:\n%s", spew.Sdump(got), spew.Sdump(want))
	}
	if ts := got.TimeStep(); ts != 1.0/30.0 {
		t.Fatalf("time step %v", ts)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	tests := map[string]string{
		"malformed":        "gravity: [1\n",
		"negative hz":      "hz: -5\n",
		"negative iters":   "position_iterations: -1\n",
		"negative pool":    "pool_capacity: -2\n",
		"wrong value type": "hz: fast\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			settings, err := kbox2d.LoadSettings(writeFile(t, "bad.yaml", content))
			if err == nil {
				t.Fatalf("no error for %q", content)
			}
			if settings != kbox2d.DefaultSettings() {
				t.Fatalf("error path did not return defaults:\n%s", spew.Sdump(settings))
			}
		})
	}
}

func TestSettingsTimeStep(t *testing.T) {
	s := kbox2d.DefaultSettings()
	if ts := s.TimeStep(); ts != 1.0/60.0 {
		t.Fatalf("default time step %v", ts)
	}
	s.Hz = 0.0
	if ts := s.TimeStep(); ts != 0.0 {
		t.Fatalf("zero hz time step %v", ts)
	}
}

func TestWorldFromSettings(t *testing.T) {
	s := kbox2d.DefaultSettings()
	s.Gravity = v(1.0, 2.0)
	s.ContinuousPhysics = false
	s.SubStepping = true
	s.AllowSleep = false
	s.WarmStarting = false
	s.AutoClearForces = false

	w := kbox2d.NewWorldFromSettings(s)
	if w.Gravity() != s.Gravity || w.ContinuousPhysics() || !w.SubStepping() ||
		w.AllowSleeping() || w.WarmStarting() || w.AutoClearForces() {
		t.Fatalf("world ignores settings: %s", spew.Sdump(s))
	}
}
