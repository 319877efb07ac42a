// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package logger provides a thin wrapper around log/slog for structured logging.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a type wrapper around a slog.Logger.
type Logger struct {
	*slog.Logger
}

// New returns a new Logger at the given level, writing to STDERR.
func New(level slog.Level) *Logger {
	return NewLogger(level, os.Stderr)
}

// NewLogger returns a new Logger at the given level, writing to the given writer.
func NewLogger(level slog.Level, output io.Writer) *Logger {
	return &Logger{slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))}
}

// Err returns a slog.Attr for an error value.
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
