package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

func newLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "flatshade",
		ReportTimestamp: lvl == log.DebugLevel,
		TimeFormat:      time.TimeOnly,
	}), nil
}
