package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/npillmayer/clasp/vm"
	"github.com/npillmayer/schuko/tracing"
)

// Config holds the settings of the clasp command, as read from clasp.toml:
//
//  prompt = "clasp> "
//  trace  = "Error"
//
//  [vm]
//  max-frames = 1024
//  max-stack  = 65536
//
type Config struct {
	Prompt string   `toml:"prompt"`
	Trace  string   `toml:"trace"`
	VM     VMConfig `toml:"vm"`
}

// VMConfig limits the virtual machine. Zero values select the VM's defaults.
type VMConfig struct {
	MaxFrames int `toml:"max-frames"`
	MaxStack  int `toml:"max-stack"`
}

func defaultConfig() *Config {
	return &Config{
		Prompt: "clasp> ",
		Trace:  "Error",
	}
}

// LoadConfig reads a configuration file. A missing file is not an error; the
// defaults are returned instead.
func LoadConfig(path string) (*Config, error) {
	conf := defaultConfig()
	if path == "" {
		return conf, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		tracer().Debugf("no configuration file %s, using defaults", path)
		return conf, nil
	} else if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if conf.VM.MaxFrames < 0 || conf.VM.MaxStack < 0 {
		return nil, fmt.Errorf("%s: VM limits must not be negative", path)
	}
	return conf, nil
}

// VMOptions translates the [vm] section into VM options.
func (conf *Config) VMOptions() []vm.Option {
	return []vm.Option{
		vm.WithMaxFrames(conf.VM.MaxFrames),
		vm.WithMaxStack(conf.VM.MaxStack),
	}
}

// tracingKeys are the trace keys of all clasp packages.
var tracingKeys = []string{
	"clasp.cmd",
	"clasp.syntax",
	"clasp.compiler",
	"clasp.bytecode",
	"clasp.vm",
}

// setTraceLevel sets the trace level of every clasp package.
func setTraceLevel(l string) {
	level := tracing.TraceLevelFromString(l)
	for _, key := range tracingKeys {
		tracing.Select(key).SetTraceLevel(level)
	}
}
