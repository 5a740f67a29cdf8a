// Package route builds the map preview for one tour day: a circular visiting
// sequence that starts and ends at the day's hotel, with one drawable leg per
// consecutive pair of stops.
package route

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/moroccoview/companion/internal/domain"
)

// Palette is the fixed set of leg colors, indexed by leg position.
var Palette = []string{
	"#C1272D", // flag red
	"#006233", // flag green
	"#1E88E5",
	"#F9A825",
	"#8E24AA",
	"#00897B",
}

const defaultConcurrency = 4

// Router returns the driving path between two points.
// *directions.Client satisfies it.
type Router interface {
	Route(ctx context.Context, origin, dest domain.LatLng) ([]domain.LatLng, error)
}

// Planner builds route previews. Legs are fetched concurrently; a failed leg
// degrades to a straight line and never fails the preview.
type Planner struct {
	router      Router
	log         *slog.Logger
	concurrency int
}

// NewPlanner constructs a Planner. A nil logger means slog.Default().
func NewPlanner(router Router, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.Default()
	}
	return &Planner{router: router, log: log, concurrency: defaultConcurrency}
}

type stop struct {
	id  string
	loc domain.LatLng
}

// Sequence returns the circular visiting order [hotel, s1..sN, hotel].
// The anchor is the first hotel item with a location; the stops are every
// other item with a location, in day order. ok is false when there is no anchor.
func Sequence(items []domain.TourItem) (seq []domain.TourItem, ok bool) {
	anchor := -1
	for i, it := range items {
		if it.Type == domain.ItemHotel && it.Location != nil {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return nil, false
	}

	seq = append(seq, items[anchor])
	for i, it := range items {
		if i == anchor || it.Location == nil {
			continue
		}
		seq = append(seq, it)
	}
	if len(seq) == 1 {
		// Hotel only: nothing to visit.
		return seq, true
	}
	return append(seq, items[anchor]), true
}

// Preview builds the route preview for one day. With no hotel anchor it
// returns an unanchored preview with no legs and makes no provider calls.
// N stops besides the hotel produce N+1 legs. The only error returned is
// ctx's, when it is cancelled.
func (p *Planner) Preview(ctx context.Context, day int, items []domain.TourItem) (domain.RoutePreview, error) {
	preview := domain.RoutePreview{Day: day, Legs: []domain.RouteLeg{}}

	seq, ok := Sequence(items)
	if !ok {
		p.log.DebugContext(ctx, "route preview skipped: no hotel anchor", "day", day, "items", len(items))
		return preview, nil
	}
	preview.Anchored = true
	if len(seq) < 2 {
		return preview, nil
	}

	stops := make([]stop, len(seq))
	for i, it := range seq {
		stops[i] = stop{id: it.ID, loc: *it.Location}
	}

	legs := make([]domain.RouteLeg, len(stops)-1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i := range legs {
		from, to := stops[i], stops[i+1]
		g.Go(func() error {
			leg := domain.RouteLeg{
				From:  from.id,
				To:    to.id,
				Color: Palette[i%len(Palette)],
			}
			points, err := p.router.Route(gctx, from.loc, to.loc)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				p.log.WarnContext(gctx, "directions failed, using straight line",
					"day", day, "leg", i, "from", from.id, "to", to.id, "error", err)
				points = []domain.LatLng{from.loc, to.loc}
				leg.Fallback = true
			}
			leg.Points = points
			legs[i] = leg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.RoutePreview{}, err
	}

	preview.Legs = legs
	return preview, nil
}
