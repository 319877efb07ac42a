// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

//go:build linux

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vorlif/spreak"

	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/locate"
	"github.com/croftwerk/tripmark/internal/logger"
	"github.com/croftwerk/tripmark/internal/presenter"
	"github.com/croftwerk/tripmark/internal/resolve"
	"github.com/croftwerk/tripmark/internal/service"
)

// cancelToken aborts an in-flight resolution when entered at a name prompt.
const cancelToken = "-"

// prompt implements the interactive command loop. It owns the terminal
// conversation while the session runs its background jobs.
type prompt struct {
	session   *service.Session
	presenter *presenter.Presenter
	localizer *spreak.Localizer
	logger    *logger.Logger
	in        *bufio.Scanner
	out       io.Writer
}

func newPrompt(sess *service.Session, pres *presenter.Presenter, loc *spreak.Localizer,
	log *logger.Logger, in io.Reader, out io.Writer,
) *prompt {
	return &prompt{
		session:   sess,
		presenter: pres,
		localizer: loc,
		logger:    log,
		in:        bufio.NewScanner(in),
		out:       out,
	}
}

// run reads commands until EOF, the quit command or context cancellation.
func (p *prompt) run(ctx context.Context) error {
	p.println(p.localizer.Get("Type 'help' for a list of commands"))
	for {
		if ctx.Err() != nil {
			return nil
		}
		p.printf("> ")
		line, ok := p.readLine()
		if !ok {
			return p.in.Err()
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "help":
			p.printHelp()
		case "add":
			p.handleAdd(ctx, fields[1:])
		case "list":
			p.handleList(ctx, false)
		case "near":
			p.handleList(ctx, true)
		case "remove":
			p.handleRemove(fields[1:])
		case "quit", "exit":
			return nil
		default:
			p.println(p.localizer.Getf("Unknown command: %s", fields[0]))
		}
	}
}

func (p *prompt) printHelp() {
	p.println("add <lat> <lon>  " + p.localizer.Get("Save a trip for the given coordinates"))
	p.println("add here         " + p.localizer.Get("Save a trip for the current position"))
	p.println("list             " + p.localizer.Get("Show the saved trips"))
	p.println("near             " + p.localizer.Get("Show the saved trips sorted by distance"))
	p.println("remove <n>       " + p.localizer.Get("Remove the trip at the given position"))
	p.println("quit             " + p.localizer.Get("Exit tripmark"))
}

// handleAdd runs a single resolution from coordinate input to a committed or
// discarded record.
func (p *prompt) handleAdd(ctx context.Context, args []string) {
	coords, err := p.parseCoordinates(ctx, args)
	if err != nil {
		p.println(p.locateGuidance(err))
		return
	}

	resolution, err := p.session.AddLocation(ctx, coords)
	if err != nil {
		p.println(err.Error())
		return
	}

	switch resolution.State() {
	case resolve.StateAwaitingConfirmation:
		p.confirmName(resolution)
	case resolve.StateManualEntry:
		p.println(p.localizer.Get("Could not resolve an address for this location"))
		p.manualName(resolution)
	}

	if err = p.session.Commit(resolution); err != nil {
		p.logger.Error("failed to commit resolution", logger.Err(err))
		return
	}
	if resolution.State() == resolve.StateDone {
		p.println(p.localizer.Get("Trip saved"))
	} else {
		p.println(p.localizer.Get("Trip discarded"))
	}
}

// confirmName prompts for the suggested name. An empty reply accepts the
// suggestion, the cancel token aborts.
func (p *prompt) confirmName(resolution *resolve.Resolution) {
	p.printf("%s: %s (%s)\n", p.localizer.Get("Suggested name"), resolution.SuggestedName(),
		resolution.DisplayName())
	p.printf("%s ['%s' = %s]: ", p.localizer.Get("Name"), cancelToken, p.localizer.Get("cancel"))
	line, ok := p.readLine()
	if !ok || strings.TrimSpace(line) == cancelToken {
		if err := resolution.Cancel(); err != nil {
			p.logger.Error("failed to cancel resolution", logger.Err(err))
		}
		return
	}
	if err := resolution.Confirm(strings.TrimSpace(line)); err != nil {
		p.logger.Error("failed to confirm resolution", logger.Err(err))
	}
}

// manualName prompts until a non-empty name is given or the entry is
// cancelled.
func (p *prompt) manualName(resolution *resolve.Resolution) {
	for {
		p.printf("%s ['%s' = %s]: ", p.localizer.Get("Name"), cancelToken, p.localizer.Get("cancel"))
		line, ok := p.readLine()
		if !ok || strings.TrimSpace(line) == cancelToken {
			if err := resolution.Cancel(); err != nil {
				p.logger.Error("failed to cancel resolution", logger.Err(err))
			}
			return
		}
		err := resolution.SubmitName(strings.TrimSpace(line))
		if err == nil {
			return
		}
		if errors.Is(err, resolve.ErrEmptyName) {
			p.println(p.localizer.Get("A name is required"))
			continue
		}
		p.logger.Error("failed to submit name", logger.Err(err))
		return
	}
}

func (p *prompt) handleList(ctx context.Context, sorted bool) {
	if sorted {
		if err := p.session.SortByDistance(ctx); err != nil {
			p.println(p.locateGuidance(err))
			return
		}
	}
	ref, refreshedAt, hasRef := p.session.Position()
	listCtx := p.presenter.BuildContext(p.session.Trips(), ref, hasRef, refreshedAt)
	out, err := p.presenter.RenderList(listCtx)
	if err != nil {
		p.logger.Error("failed to render trip list", logger.Err(err))
		return
	}
	p.println(out)
}

func (p *prompt) handleRemove(args []string) {
	if len(args) != 1 {
		p.println(p.localizer.Get("Usage: remove <position>"))
		return
	}
	position, err := strconv.Atoi(args[0])
	if err != nil || position < 1 {
		p.println(p.localizer.Get("Usage: remove <position>"))
		return
	}
	if err = p.session.Remove(position - 1); err != nil {
		p.println(err.Error())
	}
}

// parseCoordinates turns the add arguments into a coordinate. "here" resolves
// the current position through the session.
func (p *prompt) parseCoordinates(ctx context.Context, args []string) (geo.Coordinate, error) {
	if len(args) == 1 && strings.EqualFold(args[0], "here") {
		return p.session.CurrentPosition(ctx)
	}
	if len(args) != 2 {
		return geo.Coordinate{}, errors.New(p.localizer.Get("Usage: add <lat> <lon> or add here"))
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("invalid longitude: %w", err)
	}
	return geo.Coordinate{Lat: lat, Lon: lon}, nil
}

// locateGuidance maps position acquisition failures to actionable, localized
// messages.
func (p *prompt) locateGuidance(err error) string {
	switch {
	case errors.Is(err, locate.ErrPermissionDeniedForever):
		return p.localizer.Get("Location permission permanently denied, enable location access in the system settings")
	case errors.Is(err, locate.ErrPermissionDenied):
		return p.localizer.Get("Location permission denied, please grant access and retry")
	case errors.Is(err, locate.ErrServiceDisabled):
		return p.localizer.Get("Location service is disabled")
	case errors.Is(err, locate.ErrNoPosition):
		return p.localizer.Get("Could not determine the current position")
	default:
		return err.Error()
	}
}

func (p *prompt) readLine() (string, bool) {
	if !p.in.Scan() {
		return "", false
	}
	return p.in.Text(), true
}

func (p *prompt) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

func (p *prompt) println(args ...any) {
	_, _ = fmt.Fprintln(p.out, args...)
}
