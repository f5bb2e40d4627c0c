// Package config resolves the simulator settings from defaults, an optional
// YAML file, CELLO_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cello/internal/pipeline"
	"cello/internal/sim"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the simulator and its renderers.
type Config struct {
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`

	TickInterval time.Duration `mapstructure:"tick_interval"`
	DeltaMode    string        `mapstructure:"delta_mode"`
	MailboxSize  int           `mapstructure:"mailbox_size"`
	InboxSize    int           `mapstructure:"inbox_size"`
	MaxCells     int           `mapstructure:"max_cells"`

	PipelineCapacity int           `mapstructure:"pipeline_capacity"`
	PipelinePolicy   string        `mapstructure:"pipeline_policy"`
	ProjectionTTL    time.Duration `mapstructure:"projection_ttl"`

	Scenario  string   `mapstructure:"scenario"`
	Spawn     []string `mapstructure:"spawn"`
	SwarmSize int      `mapstructure:"swarm_size"`
	Seed      int64    `mapstructure:"seed"`

	Window int  `mapstructure:"window"`
	TPS    int  `mapstructure:"tps"`
	Color  bool `mapstructure:"color"`

	Addr            string        `mapstructure:"addr"`
	PublishInterval time.Duration `mapstructure:"publish_interval"`

	LogLevel string `mapstructure:"log_level"`
}

// Default returns the standard configuration: a 2000x2000 canvas ticking at
// 30 Hz with one cell named Booboo.
func Default() Config {
	return Config{
		Width:            2000,
		Height:           2000,
		TickInterval:     sim.StdInterval,
		DeltaMode:        "fixed",
		MailboxSize:      1,
		InboxSize:        1024,
		MaxCells:         0,
		PipelineCapacity: pipeline.DefaultCapacity,
		PipelinePolicy:   "drop-oldest",
		ProjectionTTL:    0,
		Scenario:         "single",
		Spawn:            []string{"Booboo"},
		SwarmSize:        24,
		Seed:             0,
		Window:           400,
		TPS:              60,
		Color:            false,
		Addr:             ":8080",
		PublishInterval:  100 * time.Millisecond,
		LogLevel:         "info",
	}
}

// Bind attaches the configuration to the provided FlagSet. Flag names match
// the configuration keys with dashes in place of underscores.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.Float64Var(&c.Width, "width", c.Width, "canvas width in virtual units")
	fs.Float64Var(&c.Height, "height", c.Height, "canvas height in virtual units")
	fs.DurationVar(&c.TickInterval, "tick-interval", c.TickInterval, "simulation tick period")
	fs.StringVar(&c.DeltaMode, "delta-mode", c.DeltaMode, "frame delta: fixed or measured")
	fs.IntVar(&c.MailboxSize, "mailbox-size", c.MailboxSize, "ticks a cell may have queued before it is dropped")
	fs.IntVar(&c.InboxSize, "inbox-size", c.InboxSize, "messages the canvas may have queued")
	fs.IntVar(&c.MaxCells, "max-cells", c.MaxCells, "maximum live cells, 0 for unlimited")
	fs.IntVar(&c.PipelineCapacity, "pipeline-capacity", c.PipelineCapacity, "render pipeline buffer size")
	fs.StringVar(&c.PipelinePolicy, "pipeline-policy", c.PipelinePolicy, "render pipeline overflow: drop-oldest or drop-newest")
	fs.DurationVar(&c.ProjectionTTL, "projection-ttl", c.ProjectionTTL, "forget cells silent for this long, 0 keeps them")
	fs.StringVar(&c.Scenario, "scenario", c.Scenario, "initial population scenario")
	fs.Var((*nameList)(&c.Spawn), "spawn", "comma separated cell names for the names scenario")
	fs.IntVar(&c.SwarmSize, "swarm-size", c.SwarmSize, "cells spawned by the swarm scenario")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "heading seed, 0 for time based")
	fs.IntVar(&c.Window, "window", c.Window, "window width in pixels")
	fs.IntVar(&c.TPS, "tps", c.TPS, "renderer frames per second")
	fs.BoolVar(&c.Color, "color", c.Color, "color cells by id")
	fs.StringVar(&c.Addr, "addr", c.Addr, "web viewer listen address")
	fs.DurationVar(&c.PublishInterval, "publish-interval", c.PublishInterval, "web viewer frame interval")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
}

// Parse binds the configuration flags plus -config to fs, parses args and
// resolves the final configuration.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Default()
	cfg.Bind(fs)
	path := fs.String("config", "", "YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	overrides := map[string]string{}
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config" {
			overrides[strings.ReplaceAll(f.Name, "-", "_")] = f.Value.String()
		}
	})
	return Load(*path, overrides)
}

// Load reads the optional YAML file at path, applies CELLO_* environment
// variables and then overrides, and validates the result.
func Load(path string, overrides map[string]string) (Config, error) {
	vp := viper.New()
	setDefaults(vp, Default())
	known := map[string]struct{}{}
	for _, k := range vp.AllKeys() {
		known[k] = struct{}{}
	}
	vp.SetEnvPrefix("CELLO")
	vp.AutomaticEnv()

	if path != "" {
		vp.SetConfigFile(path)
		vp.SetConfigType("yaml")
		if err := vp.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	for k, v := range overrides {
		// Flags owned by a single binary share the FlagSet but are not settings.
		if _, ok := known[k]; ok {
			vp.Set(k, v)
		}
	}

	var cfg Config
	if err := vp.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(vp *viper.Viper, d Config) {
	vp.SetDefault("width", d.Width)
	vp.SetDefault("height", d.Height)
	vp.SetDefault("tick_interval", d.TickInterval)
	vp.SetDefault("delta_mode", d.DeltaMode)
	vp.SetDefault("mailbox_size", d.MailboxSize)
	vp.SetDefault("inbox_size", d.InboxSize)
	vp.SetDefault("max_cells", d.MaxCells)
	vp.SetDefault("pipeline_capacity", d.PipelineCapacity)
	vp.SetDefault("pipeline_policy", d.PipelinePolicy)
	vp.SetDefault("projection_ttl", d.ProjectionTTL)
	vp.SetDefault("scenario", d.Scenario)
	vp.SetDefault("spawn", d.Spawn)
	vp.SetDefault("swarm_size", d.SwarmSize)
	vp.SetDefault("seed", d.Seed)
	vp.SetDefault("window", d.Window)
	vp.SetDefault("tps", d.TPS)
	vp.SetDefault("color", d.Color)
	vp.SetDefault("addr", d.Addr)
	vp.SetDefault("publish_interval", d.PublishInterval)
	vp.SetDefault("log_level", d.LogLevel)
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if !(c.Width > 0) || !(c.Height > 0) {
		errs = append(errs, fmt.Errorf("canvas %vx%v must be positive", c.Width, c.Height))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval %v must be positive", c.TickInterval))
	}
	if _, err := sim.ParseDeltaMode(c.DeltaMode); err != nil {
		errs = append(errs, err)
	}
	if c.MailboxSize < 1 {
		errs = append(errs, fmt.Errorf("mailbox_size %d must be at least 1", c.MailboxSize))
	}
	if c.InboxSize < 1 {
		errs = append(errs, fmt.Errorf("inbox_size %d must be at least 1", c.InboxSize))
	}
	if c.MaxCells < 0 {
		errs = append(errs, fmt.Errorf("max_cells %d must not be negative", c.MaxCells))
	}
	if c.PipelineCapacity < 1 {
		errs = append(errs, fmt.Errorf("pipeline_capacity %d must be at least 1", c.PipelineCapacity))
	}
	if _, err := pipeline.ParsePolicy(c.PipelinePolicy); err != nil {
		errs = append(errs, err)
	}
	if c.ProjectionTTL < 0 {
		errs = append(errs, fmt.Errorf("projection_ttl %v must not be negative", c.ProjectionTTL))
	}
	if c.SwarmSize < 0 {
		errs = append(errs, fmt.Errorf("swarm_size %d must not be negative", c.SwarmSize))
	}
	if c.Window <= 0 || c.TPS <= 0 {
		errs = append(errs, fmt.Errorf("window %d and tps %d must be positive", c.Window, c.TPS))
	}
	if c.PublishInterval <= 0 {
		errs = append(errs, fmt.Errorf("publish_interval %v must be positive", c.PublishInterval))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Policy returns the parsed pipeline overflow policy.
func (c Config) Policy() pipeline.Policy {
	p, _ := pipeline.ParsePolicy(c.PipelinePolicy)
	return p
}

// Delta returns the parsed delta mode.
func (c Config) Delta() sim.DeltaMode {
	m, _ := sim.ParseDeltaMode(c.DeltaMode)
	return m
}

// Dump writes the configuration as YAML.
func (c Config) Dump(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// MarshalYAML renders durations in their human readable form.
func (c Config) MarshalYAML() (interface{}, error) {
	return struct {
		Width            float64  `yaml:"width"`
		Height           float64  `yaml:"height"`
		TickInterval     string   `yaml:"tick_interval"`
		DeltaMode        string   `yaml:"delta_mode"`
		MailboxSize      int      `yaml:"mailbox_size"`
		InboxSize        int      `yaml:"inbox_size"`
		MaxCells         int      `yaml:"max_cells"`
		PipelineCapacity int      `yaml:"pipeline_capacity"`
		PipelinePolicy   string   `yaml:"pipeline_policy"`
		ProjectionTTL    string   `yaml:"projection_ttl"`
		Scenario         string   `yaml:"scenario"`
		Spawn            []string `yaml:"spawn"`
		SwarmSize        int      `yaml:"swarm_size"`
		Seed             int64    `yaml:"seed"`
		Window           int      `yaml:"window"`
		TPS              int      `yaml:"tps"`
		Color            bool     `yaml:"color"`
		Addr             string   `yaml:"addr"`
		PublishInterval  string   `yaml:"publish_interval"`
		LogLevel         string   `yaml:"log_level"`
	}{
		c.Width, c.Height, c.TickInterval.String(), c.DeltaMode, c.MailboxSize, c.InboxSize, c.MaxCells,
		c.PipelineCapacity, c.PipelinePolicy, c.ProjectionTTL.String(), c.Scenario, c.Spawn,
		c.SwarmSize, c.Seed, c.Window, c.TPS, c.Color, c.Addr, c.PublishInterval.String(), c.LogLevel,
	}, nil
}

// Logger builds a text slog.Logger writing to w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.LogLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", s, err)
	}
	return level, nil
}

// nameList is a flag.Value holding comma separated names.
type nameList []string

func (n *nameList) String() string { return strings.Join(*n, ",") }

func (n *nameList) Set(s string) error {
	*n = nil
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			*n = append(*n, name)
		}
	}
	return nil
}
