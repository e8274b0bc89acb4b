// Package export renders session snapshots for consumers outside the
// generator: GeoJSON for map tooling and PNG images.
package export

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"roadgen/pkg/session"
)

// GeoJSON returns the snapshot as a feature collection: one LineString per
// segment followed by one Point per city. Coordinates are map cells and the
// collection's bbox is the map rectangle.
func GeoJSON(snap session.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if !snap.Bound.IsEmpty() {
		fc.BBox = geojson.NewBBox(snap.Bound)
	}
	for _, s := range snap.Segments {
		f := geojson.NewFeature(orb.LineString{s.From, s.To})
		f.Properties["kind"] = "segment"
		f.Properties["quality"] = s.Quality.String()
		f.Properties["level"] = int(s.Quality)
		f.Properties["length"] = s.Length()
		fc.Append(f)
	}
	for i, c := range snap.Cities {
		f := geojson.NewFeature(c)
		f.Properties["kind"] = "city"
		f.Properties["index"] = i
		fc.Append(f)
	}
	return fc
}
