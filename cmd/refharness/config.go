package main

import (
	stderrors "errors"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/bindptr/errors"
	"github.com/wippyai/bindptr/selftest"
)

// Config is the harness configuration. It is read from an optional YAML
// file and overridden by command line flags.
type Config struct {
	Assets  string   `yaml:"assets,omitempty"`
	Data    string   `yaml:"data,omitempty"`
	Out     string   `yaml:"out,omitempty"`
	Report  string   `yaml:"report,omitempty"`
	Run     []string `yaml:"run,omitempty"`
	Threads int      `yaml:"threads,omitempty"`
	Repeat  int      `yaml:"repeat,omitempty"`
	Verbose bool     `yaml:"verbose,omitempty"`
}

// LoadOptional reads the YAML file at path. A missing file yields an
// empty configuration.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "read "+path)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse "+path)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Data == "" {
		c.Data = filepath.Join(os.TempDir(), "bindptr-selftest")
	}
	if c.Report == "" {
		c.Report = selftest.DefaultReportName
	}
}

// Validate rejects values the runner cannot use.
func (c *Config) Validate() error {
	if c.Threads < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "threads must not be negative, got %d", c.Threads)
	}
	if c.Repeat < 0 {
		return errors.InvalidInput(errors.PhaseConfig, "repeat must not be negative, got %d", c.Repeat)
	}
	if c.Report != filepath.Base(c.Report) {
		return errors.InvalidInput(errors.PhaseConfig, "report %q must be a file name", c.Report)
	}
	if c.Assets != "" && filepath.Clean(c.Assets) == filepath.Clean(c.Data) {
		return errors.InvalidInput(errors.PhaseConfig, "assets and data directories must differ")
	}
	return nil
}

type options struct {
	config      *Config
	interactive bool
}

// parseArgs loads the configuration file named by -config and applies
// every flag that was set explicitly on top of it.
func parseArgs(args []string) (*options, error) {
	fs := flag.NewFlagSet("refharness", flag.ContinueOnError)
	var (
		configFile  = fs.String("config", "refharness.yaml", "Path to YAML configuration (optional)")
		assets      = fs.String("assets", "", "Directory of fixture files copied into the data directory")
		data        = fs.String("data", "", "Working directory for fixtures and the report")
		out         = fs.String("out", "", "Directory the report is copied to")
		report      = fs.String("report", "", "Report file name")
		runList     = fs.String("run", "", "Checks to run (comma-separated, default all)")
		threads     = fs.Int("threads", 0, "Checks run in parallel (0 = GOMAXPROCS)")
		repeat      = fs.Int("repeat", 0, "Number of rounds (0 = 1)")
		verbose     = fs.Bool("v", false, "Verbose logging")
		interactive = fs.Bool("i", false, "Interactive mode with TUI")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := LoadOptional(*configFile)
	if err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "assets":
			cfg.Assets = *assets
		case "data":
			cfg.Data = *data
		case "out":
			cfg.Out = *out
		case "report":
			cfg.Report = *report
		case "run":
			cfg.Run = splitList(*runList)
		case "threads":
			cfg.Threads = *threads
		case "repeat":
			cfg.Repeat = *repeat
		case "v":
			cfg.Verbose = *verbose
		}
	})

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &options{config: cfg, interactive: *interactive}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
