package osm

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"slices"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
)

// City is a settlement node read from OSM data.
type City struct {
	ID         osm.NodeID
	Name       string
	Place      string
	Population int
	Lat        float64
	Lon        float64
}

// placeRanks orders the accepted place kinds, most important first.
var placeRanks = map[string]int{
	"city":    0,
	"town":    1,
	"village": 2,
}

// placeRank returns the rank of a settlement node and whether it is one.
func placeRank(tags osm.Tags) (int, bool) {
	r, ok := placeRanks[tags.Find("place")]
	return r, ok
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only cities inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the city loader.
type ParseOptions struct {
	BBox BBox // if non-zero, filter cities to this bounding box
	// Limit keeps only the most important cities: cities before towns before
	// villages, then by population. Zero keeps all.
	Limit int
}

// scanner is the part of the osmpbf and osmxml scanners the loader uses.
type scanner interface {
	Scan() bool
	Object() osm.Object
	Err() error
	Close() error
}

// ParsePBF reads settlement nodes from an OSM PBF stream.
func ParsePBF(ctx context.Context, r io.Reader, opts ...ParseOptions) ([]City, error) {
	s := osmpbf.New(ctx, r, 1)
	s.SkipWays = true
	s.SkipRelations = true
	return parse(s, opts)
}

// ParseXML reads settlement nodes from an OSM XML stream.
func ParseXML(ctx context.Context, r io.Reader, opts ...ParseOptions) ([]City, error) {
	return parse(osmxml.New(ctx, r), opts)
}

func parse(s scanner, opts []ParseOptions) ([]City, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	useBBox := !opt.BBox.IsZero()

	var cities []City
	var bboxFiltered int
	for s.Scan() {
		n, ok := s.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, ok := placeRank(n.Tags); !ok {
			continue
		}
		if useBBox && !opt.BBox.Contains(n.Lat, n.Lon) {
			bboxFiltered++
			continue
		}
		pop, _ := strconv.Atoi(n.Tags.Find("population"))
		cities = append(cities, City{
			ID:         n.ID,
			Name:       n.Tags.Find("name"),
			Place:      n.Tags.Find("place"),
			Population: pop,
			Lat:        n.Lat,
			Lon:        n.Lon,
		})
	}
	if err := s.Err(); err != nil {
		s.Close()
		return nil, fmt.Errorf("scan places: %w", err)
	}
	s.Close()

	if bboxFiltered > 0 {
		log.Printf("Filtered %d places outside bounding box", bboxFiltered)
	}

	slices.SortStableFunc(cities, func(a, b City) int {
		return cmp.Or(
			cmp.Compare(placeRanks[a.Place], placeRanks[b.Place]),
			cmp.Compare(b.Population, a.Population),
			cmp.Compare(a.ID, b.ID),
		)
	})
	if opt.Limit > 0 && len(cities) > opt.Limit {
		cities = cities[:opt.Limit]
	}

	log.Printf("Loaded %d places", len(cities))
	return cities, nil
}

// Project maps cities onto the integer cells of a width x height map using
// a Mercator projection, north up. The layout keeps its aspect ratio and
// stays margin cells away from the border. Cities landing on an occupied
// cell are dropped.
func Project(cities []City, width, height, margin int) []orb.Point {
	if len(cities) == 0 {
		return nil
	}

	merc := make([]orb.Point, len(cities))
	var mp orb.MultiPoint
	for i, c := range cities {
		merc[i] = project.WGS84.ToMercator(orb.Point{c.Lon, c.Lat})
		mp = append(mp, merc[i])
	}
	b := mp.Bound()

	spanX := float64(width - 1 - 2*margin)
	spanY := float64(height - 1 - 2*margin)
	scale := math.Inf(1)
	if dx := b.Right() - b.Left(); dx > 0 {
		scale = spanX / dx
	}
	if dy := b.Top() - b.Bottom(); dy > 0 {
		scale = min(scale, spanY/dy)
	}

	seen := make(map[orb.Point]bool, len(cities))
	out := make([]orb.Point, 0, len(cities))
	for _, m := range merc {
		var p orb.Point
		if math.IsInf(scale, 1) {
			p = orb.Point{float64(width / 2), float64(height / 2)}
		} else {
			p = orb.Point{
				float64(margin) + math.Round((m[0]-b.Left())*scale),
				float64(margin) + math.Round((b.Top()-m[1])*scale),
			}
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
