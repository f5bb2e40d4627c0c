package config

import (
	"bytes"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cello/internal/pipeline"
	"cello/internal/sim"

	. "github.com/smartystreets/goconvey/convey"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cello.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("cello", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestDefaults(t *testing.T) {
	Convey("When no file, environment or flags are given", t, func() {
		cfg, err := Load("", nil)
		So(err, ShouldBeNil)

		Convey("The standard canvas is used", func() {
			So(cfg.Width, ShouldEqual, 2000)
			So(cfg.Height, ShouldEqual, 2000)
			So(cfg.TickInterval, ShouldEqual, sim.StdInterval)
			So(cfg.Spawn, ShouldResemble, []string{"Booboo"})
			So(cfg.Policy(), ShouldEqual, pipeline.DropOldest)
			So(cfg.Delta(), ShouldEqual, sim.DeltaFixed)
		})
	})
}

func TestLoadFile(t *testing.T) {
	Convey("When a YAML file overrides some keys", t, func() {
		path := writeConfig(t, `
width: 800
height: 600
tick_interval: 50ms
pipeline_policy: drop-newest
scenario: names
spawn: [Ada, Bob]
`)
		cfg, err := Load(path, nil)
		So(err, ShouldBeNil)

		Convey("Those keys change and the rest keep their defaults", func() {
			So(cfg.Width, ShouldEqual, 800)
			So(cfg.Height, ShouldEqual, 600)
			So(cfg.TickInterval, ShouldEqual, 50*time.Millisecond)
			So(cfg.Policy(), ShouldEqual, pipeline.DropNewest)
			So(cfg.Spawn, ShouldResemble, []string{"Ada", "Bob"})
			So(cfg.MailboxSize, ShouldEqual, 1)
		})
	})

	Convey("When the file does not exist", t, func() {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
		So(err, ShouldNotBeNil)
	})
}

func TestPrecedence(t *testing.T) {
	Convey("Given a file, an environment variable and a flag", t, func() {
		path := writeConfig(t, "width: 800\nheight: 600\nseed: 3\n")
		t.Setenv("CELLO_HEIGHT", "900")
		t.Setenv("CELLO_SEED", "5")

		fs := newFlagSet()
		cfg, err := Parse(fs, []string{"-config", path, "-seed", "7", "-spawn", "Ada, Bob"})
		So(err, ShouldBeNil)

		Convey("Flags beat the environment which beats the file", func() {
			So(cfg.Width, ShouldEqual, 800)
			So(cfg.Height, ShouldEqual, 900)
			So(cfg.Seed, ShouldEqual, 7)
			So(cfg.Spawn, ShouldResemble, []string{"Ada", "Bob"})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("When values are out of range", t, func() {
		cfg := Default()
		cfg.Width = 0
		cfg.MailboxSize = 0
		cfg.PipelinePolicy = "drop-everything"
		cfg.LogLevel = "chatty"
		err := cfg.Validate()

		Convey("Every problem is reported", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "canvas")
			So(err.Error(), ShouldContainSubstring, "mailbox_size")
			So(err.Error(), ShouldContainSubstring, "drop-everything")
			So(err.Error(), ShouldContainSubstring, "log_level")
		})
	})

	Convey("When a flag is invalid, Parse fails", t, func() {
		_, err := Parse(newFlagSet(), []string{"-delta-mode", "sometimes"})
		So(err, ShouldNotBeNil)
	})
}

func TestDump(t *testing.T) {
	Convey("When the defaults are dumped", t, func() {
		var buf bytes.Buffer
		So(Default().Dump(&buf), ShouldBeNil)

		Convey("Durations are written in readable form", func() {
			So(buf.String(), ShouldContainSubstring, "tick_interval: 33.333333ms")
			So(buf.String(), ShouldContainSubstring, "pipeline_policy: drop-oldest")
		})
	})
}

func TestBinaryFlags(t *testing.T) {
	Convey("When a binary adds its own flags to the set", t, func() {
		fs := newFlagSet()
		ticks := fs.Int("ticks", 10, "ticks per run")
		cfg, err := Parse(fs, []string{"-ticks", "99", "-scenario", "swarm"})
		So(err, ShouldBeNil)

		Convey("They parse without leaking into the configuration", func() {
			So(*ticks, ShouldEqual, 99)
			So(cfg.Scenario, ShouldEqual, "swarm")
		})
	})
}
