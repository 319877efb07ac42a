// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

//go:build linux

// Package main implements the tripmark command line client.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/croftwerk/tripmark/internal/config"
	"github.com/croftwerk/tripmark/internal/i18n"
	"github.com/croftwerk/tripmark/internal/logger"
	"github.com/croftwerk/tripmark/internal/presenter"
	"github.com/croftwerk/tripmark/internal/service"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGKILL,
		syscall.SIGABRT, os.Interrupt)
	defer cancel()

	// Initialize Logger
	log := logger.New(slog.LevelError)

	// Read config
	confRead := false
	confPath := flag.String("config", "", "path to the config file")
	flag.Parse()

	// Read default config
	conf, err := config.New()
	if err != nil {
		log.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	// If config file was specified, read it
	if *confPath != "" {
		file := filepath.Base(*confPath)
		path := filepath.Dir(*confPath)
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
		confRead = true
	}

	// Check if we have a config file in the default location
	if path, file := findConfigFile(); !confRead && (path != "" && file != "") {
		conf, err = config.NewFromFile(path, file)
		if err != nil {
			log.Error("failed to load config from file", logger.Err(err))
			os.Exit(1)
		}
	}

	log = logger.New(conf.LogLevel)
	t, err := i18n.New(conf.Locale)
	if err != nil {
		log.Error("failed to initialize localizer", logger.Err(err))
		os.Exit(1)
	}

	// Initialize the session
	sess, err := service.New(conf, log, t)
	if err != nil {
		log.Error("failed to initialize tripmark session", logger.Err(err))
		os.Exit(1)
	}
	pres, err := presenter.New(conf, t)
	if err != nil {
		log.Error("failed to initialize presenter", logger.Err(err))
		os.Exit(1)
	}

	// Start the background session loop
	log.Info("starting tripmark", slog.String("version", version),
		slog.String("commit", commit), slog.String("date", date))
	go func() {
		if err = sess.Run(ctx); err != nil {
			log.Error("failed to run tripmark session", logger.Err(err))
		}
	}()

	// Run the interactive prompt until EOF or quit
	prompt := newPrompt(sess, pres, t, log, os.Stdin, os.Stdout)
	if err = prompt.run(ctx); err != nil {
		log.Error("prompt terminated with error", logger.Err(err))
	}
	cancel()
	log.Info("shutting down tripmark")
}

func findConfigFile() (string, string) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", ""
	}
	exts := []string{"toml", "yaml", "yml", "json"}
	for _, ext := range exts {
		path := filepath.Join(homedir, ".config", "tripmark", "config."+ext)
		if _, err = os.Stat(path); err == nil {
			return filepath.Dir(path), filepath.Base(path)
		}
	}
	return "", ""
}
