// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

// Package config loads jamhost's ambient settings. None of them influence
// which plugin is selected or how it is driven.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/jamhost/jamhost/internal/logging"
)

// Flag names, also used as keys in the YAML config file.
const (
	KeyLogFormat       = "log-format"
	KeyLogLevel        = "log-level"
	KeyMetricsTextfile = "metrics-textfile"
)

// Default values.
const (
	DefaultLogFormat = logging.FormatText
	DefaultLogLevel  = "info"
)

// Config holds the settings shared by every jamhost command.
type Config struct {
	LogFormat       string `koanf:"log-format"`
	LogLevel        string `koanf:"log-level"`
	MetricsTextfile string `koanf:"metrics-textfile"`
}

// RegisterFlags adds the config flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyLogFormat, DefaultLogFormat, "log format (json or text)")
	fs.String(KeyLogLevel, DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.String(KeyMetricsTextfile, "", "write Prometheus metrics to this file after the run (empty = disabled)")
}

// Load builds a Config from the optional YAML file at path, then from fs.
// Flags set explicitly on the command line override the file.
func Load(fs *pflag.FlagSet, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrapf(err, "load config file")
		}
	}
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrapf(err, "load flags")
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrapf(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return &cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.LogFormat != logging.FormatJSON && c.LogFormat != logging.FormatText {
		return fmt.Errorf("log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
