// SPDX-FileCopyrightText: The tripmark authors
//
// SPDX-License-Identifier: MIT

// Package presenter renders the trip list for the interactive front end. The
// row layout is template-driven so users can rearrange the columns without a
// rebuild.
package presenter

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/de"
	"github.com/vorlif/spreak"

	"github.com/croftwerk/tripmark/internal/config"
	"github.com/croftwerk/tripmark/internal/geo"
	"github.com/croftwerk/tripmark/internal/trip"
)

// TripView wraps a trip record with presentation-related fields.
type TripView struct {
	trip.Trip

	Position int
	Distance string
}

type ListContext struct {
	Trips []TripView

	Reference    geo.Coordinate
	HasReference bool
	RefreshedAt  time.Time
}

type Presenter struct {
	ListTemplate *template.Template

	localizer *spreak.Localizer
	humanizer *humanize.Humanizer
}

func New(conf *config.Config, loc *spreak.Localizer) (*Presenter, error) {
	pres := &Presenter{localizer: loc}

	collection := humanize.MustNew(humanize.WithLocale(de.New()))
	pres.humanizer = collection.CreateHumanizer(loc.Language())

	tpl, err := template.New("list").Funcs(pres.templateFuncMap()).Parse(conf.Templates.List)
	if err != nil {
		return nil, fmt.Errorf("failed to parse list template: %w", err)
	}
	pres.ListTemplate = tpl

	return pres, nil
}

// BuildContext converts the given trips into a renderable list context. When
// a reference position is available every row carries its humanized distance
// from it.
func (p *Presenter) BuildContext(trips []trip.Trip, ref geo.Coordinate, hasRef bool,
	refreshedAt time.Time,
) ListContext {
	views := make([]TripView, 0, len(trips))
	for i, entry := range trips {
		view := TripView{
			Trip:     entry,
			Position: i + 1,
		}
		if hasRef {
			view.Distance = p.formatDistance(ref.DistanceTo(entry.Coordinates))
		}
		views = append(views, view)
	}

	return ListContext{
		Trips:        views,
		Reference:    ref,
		HasReference: hasRef,
		RefreshedAt:  refreshedAt,
	}
}

// RenderList renders the list context into the aligned trip table, one row
// per trip, preceded by a header row with localized column labels.
func (p *Presenter) RenderList(listCtx ListContext) (string, error) {
	if len(listCtx.Trips) == 0 {
		return p.localizer.Get("No trips recorded yet"), nil
	}

	header, err := p.headerRow()
	if err != nil {
		return "", err
	}
	builder := new(strings.Builder)
	builder.WriteString(header)
	builder.WriteString("\n")
	for _, view := range listCtx.Trips {
		if err := p.ListTemplate.Execute(builder, view); err != nil {
			return "", fmt.Errorf("failed to render list template: %w", err)
		}
		builder.WriteString("\n")
	}
	if listCtx.HasReference {
		builder.WriteString(fmt.Sprintf("%s: %s (%s)", p.localizer.Get("Position as of"),
			p.humanizer.NaturalTime(listCtx.RefreshedAt), listCtx.Reference))
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// headerView mirrors the field names the list template can reference, so the
// header renders through the same template as the rows and stays aligned with
// whatever column layout the user configures.
type headerView struct {
	Position     string
	Name         string
	Address      string
	City         string
	State        string
	Country      string
	Zip          string
	Neighborhood string
	Reference    string
	Distance     string
}

func (p *Presenter) headerRow() (string, error) {
	header := headerView{
		Position:     "#",
		Name:         p.localizer.Get("Name"),
		Address:      p.localizer.Get("Address"),
		City:         p.localizer.Get("City"),
		State:        p.localizer.Get("State"),
		Country:      p.localizer.Get("Country"),
		Zip:          p.localizer.Get("Zip"),
		Neighborhood: p.localizer.Get("Neighborhood"),
		Reference:    p.localizer.Get("Reference"),
		Distance:     p.localizer.Get("Distance"),
	}

	builder := new(strings.Builder)
	if err := p.ListTemplate.Execute(builder, header); err != nil {
		return "", fmt.Errorf("failed to render list header: %w", err)
	}
	return builder.String(), nil
}

// formatDistance renders a haversine distance in kilometers, switching to
// meters below one kilometer.
func (p *Presenter) formatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%d m %s", int(km*1000), p.localizer.Get("away"))
	}
	return fmt.Sprintf("%.1f km %s", km, p.localizer.Get("away"))
}
