package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/zephyrtronium/shunting/internal/config"
)

// newLogger creates the command's logger writing to w.
func newLogger(c *config.Logger, w io.Writer) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(w)
	lvl, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("bad log level: %w", err)
	}
	l.SetLevel(lvl)
	switch c.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Format)
	}
	return l, nil
}
