// Package config loads settings for the shunting command from flags,
// environment variables prefixed with SHUNTING_, and an optional config file.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults for settings that are not given anywhere.
const (
	DefaultFormat    = "%g"
	DefaultLogLevel  = "warning"
	DefaultLogFormat = "text"
)

// Config holds the command settings.
type Config struct {
	// Format is the fmt verb for results.
	Format string
	// Prec is the precision of results in bits. Zero means float64.
	Prec uint
	// Lines parses each input line as a separate expression.
	Lines bool
	// Echo prints the compiled form of each expression.
	Echo bool
	// Input is a file to read expressions from, or "-" for stdin.
	Input string
	// Given holds name=value variable definitions.
	Given []string
	// VarFiles are variable files, each of which gets its own results.
	VarFiles []string
	// Workers limits how many variable files are evaluated at once.
	Workers int
	Logger  *Logger
	// File is the config file that was read, if any.
	File string
}

// Logger is the logging config.
type Logger struct {
	Level  string
	Format string
}

// Load reads the configuration. If path is empty, a file named shunting.yaml
// (or .toml, .json) is looked up in the working directory and
// $HOME/.config/shunting, and it is not an error if none exists. flags may be
// nil; otherwise flags that were set override all other sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHUNTING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
		for key, name := range map[string]string{"log.level": "log-level", "log.format": "log-format"} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("shunting")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/shunting")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		Format:   getStringOrDefault(v, "fmt", DefaultFormat),
		Prec:     getUintOrDefault(v, "prec", 0),
		Lines:    getBoolOrDefault(v, "lines", false),
		Echo:     getBoolOrDefault(v, "echo", false),
		Input:    getStringOrDefault(v, "in", ""),
		Given:    getStringSliceOrDefault(v, "given", nil),
		VarFiles: getStringSliceOrDefault(v, "vars", nil),
		Workers:  getIntOrDefault(v, "workers", runtime.GOMAXPROCS(0)),
		Logger:   getLoggerConfig(v),
		File:     v.ConfigFileUsed(),
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers (%d) must be positive", cfg.Workers)
	}
	return cfg, nil
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:  getStringOrDefault(v, "log.level", DefaultLogLevel),
		Format: getStringOrDefault(v, "log.format", DefaultLogFormat),
	}
}
