// Copyright 2024 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config holds the settings shared by every syslib command. They
// come from an optional TOML file, overridden by flags given on the command
// line.
package config

import (
	"flag"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"gvisor.dev/syslib/pkg/dispatch"
	"gvisor.dev/syslib/pkg/log"
	"gvisor.dev/syslib/pkg/sim"
	"gvisor.dev/syslib/pkg/sys"
)

// Config is the syslib configuration.
type Config struct {
	// Debug enables debug logging.
	Debug bool `toml:"debug"`

	// LogFormat is the log output format: "text", "json" or "json-k8s".
	LogFormat string `toml:"log_format"`

	// Log is the log file pattern. Logs go to stderr when it is empty. See
	// log.PatternOpts for the variables it may contain.
	LogFilename string `toml:"log"`

	// Strace logs every system call with its arguments and result.
	Strace bool `toml:"strace"`

	// SimRoot, if set, runs commands against the simulated kernel with this
	// host directory as its root filesystem.
	SimRoot string `toml:"sim_root"`
}

// RegisterFlags registers the configuration flags on fs. The flag defaults
// are the zero configuration; Load applies only the flags that were set.
func RegisterFlags(fs *flag.FlagSet) {
	fs.String("config", "", "path to a TOML configuration file.")
	fs.Bool("debug", false, "enable debug logging.")
	fs.String("log-format", "text", "log format: text (default), json, or json-k8s.")
	fs.String("log", "", "file path pattern for logs; %PID%, %COMMAND% and %TIMESTAMP% are expanded. Logs go to stderr if empty.")
	fs.Bool("strace", false, "log every system call.")
	fs.String("sim-root", "", "run against the simulated kernel, rooted at this host directory.")
}

// Load builds a Config from the flags in fs, which must have been registered
// with RegisterFlags and parsed. The file named by -config, if any, is read
// first.
func Load(fs *flag.FlagSet) (*Config, error) {
	c := &Config{LogFormat: "text"}
	if path := fs.Lookup("config").Value.String(); path != "" {
		if _, err := toml.DecodeFile(path, c); err != nil {
			return nil, fmt.Errorf("reading config %q: %w", path, err)
		}
	}
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		err = c.set(f.Name, f.Value)
	})
	if err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) set(name string, v flag.Value) error {
	g, ok := v.(flag.Getter)
	if !ok {
		return fmt.Errorf("flag %q has no value", name)
	}
	switch name {
	case "debug":
		c.Debug = g.Get().(bool)
	case "log-format":
		c.LogFormat = g.Get().(string)
	case "log":
		c.LogFilename = g.Get().(string)
	case "strace":
		c.Strace = g.Get().(bool)
	case "sim-root":
		c.SimRoot = g.Get().(string)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json", "json-k8s":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}

// Log writes the configuration to the log.
func (c *Config) Log() {
	log.Infof("Config: debug=%t, log-format=%s, log=%q, strace=%t, sim-root=%q", c.Debug, c.LogFormat, c.LogFilename, c.Strace, c.SimRoot)
}

// Kernel returns the kernel commands issue system calls through.
func (c *Config) Kernel() dispatch.Kernel {
	var k dispatch.Kernel = dispatch.Host{}
	if c.SimRoot != "" {
		k = sim.New(afero.NewBasePathFs(afero.NewOsFs(), c.SimRoot))
	}
	if c.Strace {
		k = dispatch.Trace(k, log.Log())
	}
	return k
}

// Sys returns a Sys over c.Kernel.
func (c *Config) Sys() *sys.Sys {
	return sys.New(c.Kernel())
}
